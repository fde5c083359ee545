package dashboard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/smileynet/berth/internal/docker"
	"github.com/smileynet/berth/internal/target"
	"github.com/smileynet/berth/internal/view"
)

// renderDetail produces the right-pane content for the current selection:
// container detail, a group summary for header rows, or the host summary
// when the tree is empty.
func renderDetail(bs browseState, t target.Target) string {
	if bs.loading {
		return ""
	}
	r, ok := bs.Selected()
	if !ok {
		return hostDetail(bs)
	}
	if r.Header {
		return groupDetail(r.Group, bs)
	}
	return containerDetail(r.Container, bs, t)
}

func containerDetail(c docker.Container, bs browseState, t target.Target) string {
	var b strings.Builder
	b.WriteString(headerText.Render(c.Name))
	b.WriteString("  ")
	b.WriteString(mutedText.Render(shortID(c.ID)))
	b.WriteString("\n\n")

	writeField(&b, "Image", c.Image)
	state := c.State
	if a, ok := bs.pend[c.ID]; ok && !pendingConfirmed(a, c) {
		state = fmt.Sprintf("%s (%s…)", state, a.Verb)
	}
	writeField(&b, "State", state)
	writeField(&b, "Status", c.Status)
	writeField(&b, "Command", c.Command)
	writeField(&b, "Created", c.Created)
	writeField(&b, "Networks", c.Networks)
	writeField(&b, "Ports", c.Ports)

	if links := view.ServiceLinks(c.Ports, t.DisplayHost()); len(links) > 0 {
		b.WriteString("\n")
		b.WriteString(headerText.Render("Links"))
		b.WriteString("\n")
		for _, l := range links {
			fmt.Fprintf(&b, "  %s\n", linkText.Render(l.URL))
		}
	}

	if st, ok := bs.res.Snapshot.StatsFor(c); ok {
		b.WriteString("\n")
		b.WriteString(headerText.Render("Usage"))
		b.WriteString("\n")
		writeField(&b, "CPU", st.CPUPerc)
		mem := st.MemUsage
		if st.MemPerc != "" {
			mem = fmt.Sprintf("%s (%s)", st.MemUsage, st.MemPerc)
		}
		writeField(&b, "Memory", mem)
		writeField(&b, "Net I/O", st.NetIO)
		writeField(&b, "Block I/O", st.BlockIO)
		writeField(&b, "PIDs", st.PIDs)
	}

	if len(c.Labels) > 0 {
		b.WriteString("\n")
		b.WriteString(headerText.Render("Labels"))
		b.WriteString("\n")
		keys := make([]string, 0, len(c.Labels))
		for k := range c.Labels {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s\n", mutedText.Render(k+"="+c.Labels[k]))
		}
	}
	return b.String()
}

func groupDetail(title string, bs browseState) string {
	var b strings.Builder
	b.WriteString(headerText.Render(title))
	b.WriteString("\n\n")

	running, total := bs.groupCounts(title)
	fmt.Fprintf(&b, "%d containers, %d running\n\n", total, running)

	for _, g := range bs.groups {
		if g.Title != title {
			continue
		}
		for _, c := range g.Containers {
			fmt.Fprintf(&b, "  %s %s\n", c.Name, stateCell(c, bs.pend))
		}
	}
	return b.String()
}

func hostDetail(bs browseState) string {
	h := bs.res.Snapshot.Host
	if h.Name == "" && h.ServerVersion == "" {
		return "No containers on this host."
	}

	var b strings.Builder
	b.WriteString(headerText.Render(h.Name))
	b.WriteString("\n\n")
	writeField(&b, "Docker", h.ServerVersion)
	writeField(&b, "OS", h.OperatingSystem)
	if h.NCPU > 0 {
		writeField(&b, "CPUs", fmt.Sprintf("%d", h.NCPU))
	}
	if h.MemTotal > 0 {
		writeField(&b, "Memory", view.FormatBytes(float64(h.MemTotal)))
	}
	writeField(&b, "Images", fmt.Sprintf("%d", h.Images))
	return b.String()
}

// writeField prints one aligned "Name: value" detail line, skipping empty
// values.
func writeField(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%-10s %s\n", name+":", value)
}
