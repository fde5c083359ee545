package dashboard

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/berth/internal/docker"
	"github.com/smileynet/berth/internal/inventory"
	"github.com/smileynet/berth/internal/pending"
	"github.com/smileynet/berth/internal/view"
)

// CursorMarker is the prefix shown on the selected tree row.
const CursorMarker = "▸ "

// actionRequestMsg signals the user asked for a lifecycle action on the
// selected container. browseState emits it; Model.Update intercepts it
// and either dispatches immediately or enters the confirm screen.
type actionRequestMsg struct {
	container docker.Container
	verb      pending.Verb
}

// browseState manages the container tree, cursor, and loading/error
// states for browse mode's left pane.
type browseState struct {
	groups    []view.Group
	rows      []row
	collapsed map[string]bool
	cursor    int
	loading   bool
	err       error
	res       inventory.Result
	pend      map[string]pending.Action
	loaded    bool // at least one snapshot has landed
}

// newBrowseState returns a browseState in the loading state.
func newBrowseState() browseState {
	return browseState{
		loading:   true,
		collapsed: make(map[string]bool),
	}
}

// applySnapshot applies a fetched snapshot (or error) to the browse
// state. A fetch error after data has been shown keeps the old tree; the
// error surfaces in the status line instead.
func (bs browseState) applySnapshot(res inventory.Result, err error, pend map[string]pending.Action) browseState {
	bs.loading = false
	bs.pend = pend
	if err != nil {
		bs.err = err
		if !bs.loaded {
			bs.groups = nil
			bs.rows = nil
		}
		return bs
	}
	bs.err = nil
	bs.loaded = true
	bs.res = res
	bs.groups = view.Groups(res.Snapshot.Containers)
	bs.rows = buildRows(bs.groups, bs.collapsed)
	bs.clampCursor()
	return bs
}

// applyPending replaces the pending-action overlay.
func (bs browseState) applyPending(pend map[string]pending.Action) browseState {
	bs.pend = pend
	return bs
}

// reset puts the state back to loading, for target switches and forced
// refreshes.
func (bs browseState) reset() browseState {
	bs.loading = true
	bs.err = nil
	bs.loaded = false
	bs.groups = nil
	bs.rows = nil
	bs.cursor = 0
	bs.collapsed = make(map[string]bool)
	return bs
}

func (bs *browseState) clampCursor() {
	if bs.cursor >= len(bs.rows) {
		bs.cursor = len(bs.rows) - 1
	}
	if bs.cursor < 0 {
		bs.cursor = 0
	}
}

// Update processes key messages for the browse state.
func (bs browseState) Update(msg tea.Msg) (browseState, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || bs.loading {
		return bs, nil
	}
	return bs.handleKey(key)
}

func (bs browseState) handleKey(msg tea.KeyMsg) (browseState, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if len(bs.rows) > 0 {
			bs.cursor--
			if bs.cursor < 0 {
				bs.cursor = len(bs.rows) - 1
			}
		}
		return bs, nil

	case "down", "j":
		if len(bs.rows) > 0 {
			bs.cursor++
			if bs.cursor >= len(bs.rows) {
				bs.cursor = 0
			}
		}
		return bs, nil

	case "enter":
		r, ok := bs.Selected()
		if !ok || !r.Header {
			return bs, nil
		}
		bs.collapsed[r.Group] = !bs.collapsed[r.Group]
		bs.rows = buildRows(bs.groups, bs.collapsed)
		bs.clampCursor()
		return bs, nil

	case "s":
		return bs.requestAction(pending.Starting, func(c docker.Container) bool { return !c.Running() })

	case "x":
		return bs.requestAction(pending.Stopping, docker.Container.Running)

	case "r":
		return bs.requestAction(pending.Restarting, docker.Container.Running)

	case "d":
		return bs.requestAction(pending.Removing, func(docker.Container) bool { return true })
	}

	return bs, nil
}

// requestAction emits an actionRequestMsg for the selected container when
// the usable predicate holds. Header rows and wrong-state containers are
// ignored.
func (bs browseState) requestAction(verb pending.Verb, usable func(docker.Container) bool) (browseState, tea.Cmd) {
	r, ok := bs.Selected()
	if !ok || r.Header || !usable(r.Container) {
		return bs, nil
	}
	if a, inFlight := bs.pend[r.Container.ID]; inFlight && !pendingConfirmed(a, r.Container) {
		// One action in flight per container at a time.
		return bs, nil
	}
	c := r.Container
	return bs, func() tea.Msg {
		return actionRequestMsg{container: c, verb: verb}
	}
}

// Selected returns the row at the current cursor position.
func (bs browseState) Selected() (row, bool) {
	if len(bs.rows) == 0 || bs.cursor < 0 || bs.cursor >= len(bs.rows) {
		return row{}, false
	}
	return bs.rows[bs.cursor], true
}

// nameFor resolves a container ID to its display name, falling back to a
// shortened ID for containers that have left the snapshot.
func (bs browseState) nameFor(id string) string {
	for _, g := range bs.groups {
		for _, c := range g.Containers {
			if c.ID == id {
				return c.Name
			}
		}
	}
	return shortID(id)
}

// View renders the container tree for the given dimensions. spinnerView
// is the current spinner frame (may be empty when the spinner is inactive).
func (bs browseState) View(width, height int, spinnerView string) string {
	if bs.loading {
		return fmt.Sprintf("%s Loading containers...", spinnerView)
	}

	if bs.err != nil && !bs.loaded {
		return fmt.Sprintf("Error: %s\n\nPress R to retry", bs.err)
	}

	if len(bs.rows) == 0 {
		return "No containers. Press R to refresh."
	}

	lines := make([]string, 0, len(bs.rows))
	for i, r := range bs.rows {
		var b strings.Builder
		if i == bs.cursor {
			b.WriteString(CursorMarker)
		} else {
			b.WriteString("  ")
		}

		if r.Header {
			running, total := bs.groupCounts(r.Group)
			b.WriteString(groupMarker(bs.collapsed[r.Group]))
			b.WriteString(groupText.Render(r.Group))
			b.WriteString(mutedText.Render(fmt.Sprintf(" %d/%d up", running, total)))
		} else {
			b.WriteString(rowPrefix(r))
			b.WriteString(r.Container.Name)
			b.WriteString(" ")
			b.WriteString(stateCell(r.Container, bs.pend))
		}
		lines = append(lines, b.String())
	}

	// Keep the cursor visible when the tree outgrows the pane.
	start := 0
	if height > 0 && len(lines) > height && bs.cursor >= height {
		start = bs.cursor - height + 1
	}
	end := len(lines)
	if height > 0 && start+height < end {
		end = start + height
	}
	return strings.Join(lines[start:end], "\n")
}

// groupCounts returns running and total container counts for a group.
func (bs browseState) groupCounts(title string) (running, total int) {
	for _, g := range bs.groups {
		if g.Title != title {
			continue
		}
		total = len(g.Containers)
		for _, c := range g.Containers {
			if c.Running() {
				running++
			}
		}
		return running, total
	}
	return 0, 0
}
