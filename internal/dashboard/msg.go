// Package dashboard implements the two-pane TUI: a compose-grouped
// container tree on the left, a detail viewport on the right, and a
// header summarizing the active host.
package dashboard

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/berth/internal/inventory"
	"github.com/smileynet/berth/internal/pending"
	"github.com/smileynet/berth/internal/target"
)

// Mode represents the current dashboard view mode.
type Mode int

const (
	ModeBrowse  Mode = iota // Browsing the container tree with detail pane.
	ModeConfirm             // Remove confirmation screen.
)

// Focus represents which pane has keyboard focus.
type Focus int

const (
	PaneLeft  Focus = iota // Left pane (container tree) has focus.
	PaneRight              // Right pane (detail viewport) has focus.
)

// Service is the freshness layer the dashboard renders.
// Defined here (the consumer) per Go convention: accept interfaces, return structs.
type Service interface {
	Targets() []target.Target
	Snapshot(ctx context.Context, t target.Target) (inventory.Result, error)
	Refresh(ctx context.Context, t target.Target) (inventory.Result, error)
	Pending(t target.Target) map[string]pending.Action
	PendingStats() map[pending.Verb]int
	Dispatch(ctx context.Context, t target.Target, container string, verb pending.Verb) error
	Sweep() int
}

// --- tea.Msg types ---

// snapshotMsg carries one fetched inventory result. Key identifies the
// target the fetch ran against so results for a host the user has already
// switched away from can be dropped.
type snapshotMsg struct {
	key string
	res inventory.Result
	err error
}

// actionDoneMsg signals a dispatched lifecycle action has finished.
type actionDoneMsg struct {
	key       string
	container string
	verb      pending.Verb
	err       error
}

// tickMsg drives the poll loop and pending-action sweeps.
type tickMsg time.Time

// ConfigReloadedMsg announces a changed host list after a config reload.
// Sent from outside the update loop via tea.Program.Send.
type ConfigReloadedMsg struct {
	Targets []target.Target
}

// --- Commands ---

// fetchSnapshot asks the service for the target's inventory. The cache
// decides whether this blocks (cold key) or returns immediately.
func fetchSnapshot(svc Service, t target.Target) tea.Cmd {
	return func() tea.Msg {
		res, err := svc.Snapshot(context.Background(), t)
		return snapshotMsg{key: t.Key(), res: res, err: err}
	}
}

// forceRefresh drops the target's cached snapshot and fetches a new one.
func forceRefresh(svc Service, t target.Target) tea.Cmd {
	return func() tea.Msg {
		res, err := svc.Refresh(context.Background(), t)
		return snapshotMsg{key: t.Key(), res: res, err: err}
	}
}

// dispatchAction runs one container lifecycle action.
func dispatchAction(svc Service, t target.Target, container string, verb pending.Verb) tea.Cmd {
	return func() tea.Msg {
		err := svc.Dispatch(context.Background(), t, container, verb)
		return actionDoneMsg{key: t.Key(), container: container, verb: verb, err: err}
	}
}

// tick schedules the next poll.
func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
