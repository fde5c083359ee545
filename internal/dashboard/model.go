package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/smileynet/berth/internal/docker"
	"github.com/smileynet/berth/internal/pending"
	"github.com/smileynet/berth/internal/target"
	"github.com/smileynet/berth/internal/view"
)

// headerHeight is the number of lines for the host summary at the top.
const headerHeight = 1

// statusBarHeight is the number of lines reserved for transient action
// results between the panes and the help bar.
const statusBarHeight = 1

// borderChrome is the number of lines consumed by top + bottom borders.
const borderChrome = 2

// DefaultPollInterval is how often the dashboard re-reads the inventory
// when not configured otherwise.
const DefaultPollInterval = 2 * time.Second

// Model is the root Bubble Tea model for the dashboard TUI. It manages a
// two-pane layout over the active target with mode-based routing and
// focus management.
type Model struct {
	svc     Service
	targets []target.Target
	active  int
	poll    time.Duration

	mode   Mode
	focus  Focus
	width  int
	height int

	browse   browseState
	confirm  confirmState
	viewport viewport.Model
	help     help.Model
	spinner  spinner.Model
	status   string
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithPollInterval overrides the inventory poll cadence.
func WithPollInterval(d time.Duration) ModelOption {
	return func(m *Model) {
		if d > 0 {
			m.poll = d
		}
	}
}

// WithActiveHost preselects the named host. Unknown names keep the
// default (local).
func WithActiveHost(name string) ModelOption {
	return func(m *Model) {
		for i, t := range m.targets {
			if t.Name == name {
				m.active = i
				return
			}
		}
	}
}

// NewModel creates a dashboard Model in browse mode showing the first
// registered target (the local machine).
func NewModel(svc Service, opts ...ModelOption) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	m := Model{
		svc:      svc,
		targets:  svc.Targets(),
		poll:     DefaultPollInterval,
		mode:     ModeBrowse,
		focus:    PaneLeft,
		browse:   newBrowseState(),
		viewport: viewport.New(0, 0),
		help:     help.New(),
		spinner:  s,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init kicks off the spinner, the first fetch, and the poll loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, fetchSnapshot(m.svc, m.activeTarget()), tick(m.poll))
}

// activeTarget returns the target under display.
func (m Model) activeTarget() target.Target {
	if m.active < 0 || m.active >= len(m.targets) {
		return target.Local()
	}
	return m.targets[m.active]
}

// Update handles incoming messages with mode-based routing.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.syncDetail()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		m.svc.Sweep()
		m.browse = m.browse.applyPending(m.svc.Pending(m.activeTarget()))
		m.syncDetail()
		return m, tea.Batch(fetchSnapshot(m.svc, m.activeTarget()), tick(m.poll))

	case snapshotMsg:
		if msg.key != m.activeTarget().Key() {
			// Result for a host the user already switched away from.
			return m, nil
		}
		m.browse = m.browse.applySnapshot(msg.res, msg.err, m.svc.Pending(m.activeTarget()))
		m.syncDetail()
		return m, nil

	case actionDoneMsg:
		return m.applyActionDone(msg)

	case actionRequestMsg:
		return m.handleActionRequest(msg)

	case ConfigReloadedMsg:
		return m.applyConfigReload(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// applyActionDone reports a finished lifecycle action in the status line
// and re-fetches the affected host's inventory.
func (m Model) applyActionDone(msg actionDoneMsg) (tea.Model, tea.Cmd) {
	name := m.browse.nameFor(msg.container)
	if msg.err != nil {
		m.status = errorText.Render(fmt.Sprintf("✗ %s %s: %s", msg.verb, name, msg.err))
	} else {
		m.status = mutedText.Render(fmt.Sprintf("✓ %s %s", verbPast(msg.verb), name))
	}
	m.browse = m.browse.applyPending(m.svc.Pending(m.activeTarget()))
	m.syncDetail()
	if msg.key != m.activeTarget().Key() {
		return m, nil
	}
	// Success invalidated the key, so this fetch observes the new state.
	return m, fetchSnapshot(m.svc, m.activeTarget())
}

// handleActionRequest routes a requested action: removals go through the
// confirmation screen, everything else dispatches immediately.
func (m Model) handleActionRequest(msg actionRequestMsg) (tea.Model, tea.Cmd) {
	if msg.verb == pending.Removing {
		m.mode = ModeConfirm
		m.confirm = confirmState{target: m.activeTarget(), container: msg.container}
		m.resize()
		return m, nil
	}
	return m.dispatch(msg.container, msg.verb)
}

// dispatch fires the lifecycle command and overlays the pending badge
// locally so it shows this frame, mirroring the tracker write Dispatch
// makes before executing.
func (m Model) dispatch(c docker.Container, verb pending.Verb) (tea.Model, tea.Cmd) {
	t := m.activeTarget()
	overlay := make(map[string]pending.Action, len(m.browse.pend)+1)
	for k, v := range m.browse.pend {
		overlay[k] = v
	}
	overlay[c.ID] = pending.Action{Verb: verb, IssuedAt: time.Now(), Target: t.Key()}
	m.browse = m.browse.applyPending(overlay)
	m.status = ""
	m.syncDetail()
	return m, dispatchAction(m.svc, t, c.ID, verb)
}

// applyConfigReload swaps the target list, keeping the active host
// selected when it survived the reload.
func (m Model) applyConfigReload(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	if len(msg.Targets) == 0 {
		return m, nil
	}
	prevKey := m.activeTarget().Key()
	m.targets = msg.Targets
	m.active = 0
	for i, t := range m.targets {
		if t.Key() == prevKey {
			m.active = i
			break
		}
	}
	m.browse = m.browse.reset()
	m.status = mutedText.Render("config reloaded")
	m.syncDetail()
	return m, fetchSnapshot(m.svc, m.activeTarget())
}

// handleKey processes key messages with global and mode-specific routing.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.mode {
	case ModeConfirm:
		return m.handleConfirmKey(msg)
	default:
		return m.handleBrowseKey(msg)
	}
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.mode = ModeBrowse
		m.resize()
		return m.dispatch(m.confirm.container, pending.Removing)
	case "esc", "q":
		m.mode = ModeBrowse
		m.resize()
		return m, nil
	}
	return m, nil
}

func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "tab":
		if m.focus == PaneLeft {
			m.focus = PaneRight
		} else {
			m.focus = PaneLeft
		}
		return m, nil

	case "[":
		return m.switchTarget(-1)

	case "]":
		return m.switchTarget(1)

	case "R":
		m.browse = m.browse.reset()
		m.status = ""
		m.syncDetail()
		return m, forceRefresh(m.svc, m.activeTarget())

	case "?":
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
		return m, nil
	}

	if m.focus == PaneRight {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.browse, cmd = m.browse.Update(msg)
	m.syncDetail()
	return m, cmd
}

// switchTarget cycles the active host by delta and starts a fetch for it.
func (m Model) switchTarget(delta int) (tea.Model, tea.Cmd) {
	if len(m.targets) < 2 {
		return m, nil
	}
	m.active = (m.active + delta + len(m.targets)) % len(m.targets)
	m.browse = m.browse.reset()
	m.status = ""
	m.syncDetail()
	return m, fetchSnapshot(m.svc, m.activeTarget())
}

// resize recomputes pane dimensions after a window change or any change
// that alters the help bar height.
func (m *Model) resize() {
	m.help.Width = m.width
	_, rightWidth := PaneWidths(m.width)
	vpWidth := rightWidth - borderChrome
	if vpWidth < 0 {
		vpWidth = 0
	}
	m.viewport.Width = vpWidth
	m.viewport.Height = m.contentHeight()
}

// contentHeight returns the usable height for pane content, accounting
// for the header, status line, help bar, and border chrome.
func (m Model) contentHeight() int {
	helpView := m.help.View(HelpBindings(m.mode))
	h := m.height - headerHeight - statusBarHeight - lipgloss.Height(helpView) - borderChrome
	if h < 1 {
		return 1
	}
	return h
}

// syncDetail refreshes the right-pane viewport for the current selection.
func (m *Model) syncDetail() {
	m.viewport.SetContent(renderDetail(m.browse, m.activeTarget()))
}

// View renders the header, two-pane layout, status line, and help bar.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	header := m.viewHeader()
	helpView := m.help.View(HelpBindings(m.mode))
	contentHeight := m.contentHeight()
	leftWidth, rightWidth := PaneWidths(m.width)

	var leftStyle, rightStyle lipgloss.Style
	if m.focus == PaneLeft {
		leftStyle = FocusedBorder()
		rightStyle = UnfocusedBorder()
	} else {
		leftStyle = UnfocusedBorder()
		rightStyle = FocusedBorder()
	}

	leftStyle = leftStyle.
		Width(leftWidth - borderChrome).
		Height(contentHeight)
	rightStyle = rightStyle.
		Width(rightWidth - borderChrome).
		Height(contentHeight)

	leftPane := leftStyle.Render(m.viewLeft(leftWidth-borderChrome, contentHeight))
	rightPane := rightStyle.Render(m.viewport.View())
	panes := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)

	return lipgloss.JoinVertical(lipgloss.Left, header, panes, m.viewStatus(), helpView)
}

// viewLeft renders the left pane content based on mode.
func (m Model) viewLeft(width, height int) string {
	if m.mode == ModeConfirm {
		return m.confirm.View(width, height)
	}
	return m.browse.View(width, height, m.spinner.View())
}

// viewHeader renders the host summary line.
func (m Model) viewHeader() string {
	t := m.activeTarget()
	label := fmt.Sprintf("%s (%s)", t.Name, t.DisplayHost())
	if len(m.targets) > 1 {
		label = fmt.Sprintf("%s [%d/%d]", label, m.active+1, len(m.targets))
	}

	parts := []string{headerText.Render("berth"), label}
	switch {
	case m.browse.loading:
		parts = append(parts, m.spinner.View()+" fetching")
	case m.browse.loaded:
		met := view.Metrics(m.browse.res.Snapshot)
		if met.Available {
			parts = append(parts, fmt.Sprintf("%d containers, %d up", met.Containers, met.Running))
			if met.CPUCount > 0 {
				parts = append(parts, fmt.Sprintf("%d cpus", met.CPUCount))
			}
			if met.MemoryTotal > 0 {
				parts = append(parts, fmt.Sprintf("mem %s / %s (%s)",
					view.FormatBytes(met.MemoryUsed),
					view.FormatBytes(float64(met.MemoryTotal)),
					met.Utilization))
			}
		}
		parts = append(parts, mutedText.Render("age "+ageLabel(m.browse.res.Age)))
	}
	return strings.Join(parts, " · ")
}

// viewStatus renders the transient status line: the last action result,
// a refresh failure, or the in-flight action count.
func (m Model) viewStatus() string {
	if m.status != "" {
		return m.status
	}
	if m.browse.err != nil && m.browse.loaded {
		return errorText.Render("✗ refresh failed: " + m.browse.err.Error())
	}
	total := 0
	for _, n := range m.svc.PendingStats() {
		total += n
	}
	if total > 0 {
		word := "actions"
		if total == 1 {
			word = "action"
		}
		return mutedText.Render(fmt.Sprintf("%d %s in flight", total, word))
	}
	return ""
}

// ageLabel formats a snapshot age for the header.
func ageLabel(d time.Duration) string {
	if d < time.Second {
		return "0s"
	}
	return d.Truncate(time.Second).String()
}

// verbPast maps an in-flight verb to its completed form for the status line.
func verbPast(v pending.Verb) string {
	switch v {
	case pending.Starting:
		return "started"
	case pending.Stopping:
		return "stopped"
	case pending.Restarting:
		return "restarted"
	case pending.Removing:
		return "removed"
	default:
		return string(v)
	}
}
