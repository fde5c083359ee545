package dashboard

import (
	"github.com/smileynet/berth/internal/docker"
	"github.com/smileynet/berth/internal/pending"
	"github.com/smileynet/berth/internal/view"
)

// row is one selectable line in the container tree: a compose group
// header or a container beneath one.
type row struct {
	Group     string           // compose group title
	Container docker.Container // zero value on header rows
	Header    bool
	Last      bool // last container within its group
}

// buildRows flattens compose groups into selectable rows, skipping the
// containers of collapsed groups. Groups start expanded; collapsed tracks
// the exceptions so the default needs no bookkeeping.
func buildRows(groups []view.Group, collapsed map[string]bool) []row {
	var rows []row
	for _, g := range groups {
		rows = append(rows, row{Group: g.Title, Header: true})
		if collapsed[g.Title] {
			continue
		}
		for i, c := range g.Containers {
			rows = append(rows, row{
				Group:     g.Title,
				Container: c,
				Last:      i == len(g.Containers)-1,
			})
		}
	}
	return rows
}

// rowPrefix returns the box-drawing connector for a container row.
func rowPrefix(r row) string {
	if r.Last {
		return "└─ "
	}
	return "├─ "
}

// groupMarker returns the expansion indicator for a group header.
func groupMarker(collapsed bool) string {
	if collapsed {
		return "▸ "
	}
	return "▾ "
}

// pendingConfirmed reports whether the observed container state already
// reflects the pending action's outcome, in which case the real state is
// shown instead of the in-flight badge.
func pendingConfirmed(a pending.Action, c docker.Container) bool {
	switch a.Verb {
	case pending.Starting, pending.Restarting:
		return c.Running()
	case pending.Stopping:
		return !c.Running()
	default:
		// Removal is confirmed by the container disappearing entirely.
		return false
	}
}

// stateCell renders the state column for a container row, preferring an
// unconfirmed pending action over the last observed state.
func stateCell(c docker.Container, pend map[string]pending.Action) string {
	if a, ok := pend[c.ID]; ok && !pendingConfirmed(a, c) {
		return PendingBadge(a.Verb)
	}
	return StateBadge(c.State)
}
