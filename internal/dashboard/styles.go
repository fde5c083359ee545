package dashboard

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/smileynet/berth/internal/pending"
)

// MinLeftWidth is the minimum character width for the left pane.
const MinLeftWidth = 32

// State badge colors keyed by docker container state.
// Running=green, paused/restarting=yellow, exited/dead=red, created=blue.
var stateColors = map[string]lipgloss.AdaptiveColor{
	"running":    {Light: "2", Dark: "10"},
	"paused":     {Light: "3", Dark: "11"},
	"restarting": {Light: "3", Dark: "11"},
	"exited":     {Light: "1", Dark: "9"},
	"dead":       {Light: "1", Dark: "9"},
	"created":    {Light: "4", Dark: "12"},
}

var (
	mutedText = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "245"})

	errorText = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "1", Dark: "9"})

	headerText = lipgloss.NewStyle().Bold(true)

	groupText = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "4", Dark: "12"}).
			Bold(true)

	pendingText = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "5", Dark: "13"}).
			Italic(true)

	linkText = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "4", Dark: "12"}).
			Underline(true)
)

// StateBadge returns a styled container state label like "running".
func StateBadge(state string) string {
	color, ok := stateColors[state]
	if !ok {
		color = lipgloss.AdaptiveColor{Light: "240", Dark: "245"}
	}
	return lipgloss.NewStyle().Foreground(color).Render(state)
}

// PendingBadge returns a styled in-flight action label like "stopping…".
func PendingBadge(verb pending.Verb) string {
	return pendingText.Render(string(verb) + "…")
}

// FocusedBorder returns a lipgloss style with an accent-colored rounded border.
func FocusedBorder() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.AdaptiveColor{Light: "4", Dark: "12"})
}

// UnfocusedBorder returns a lipgloss style with a dim rounded border.
func UnfocusedBorder() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.AdaptiveColor{Light: "240", Dark: "240"})
}

// PaneWidths calculates the left and right pane widths from a total width.
// Left pane gets 2/5 (minimum MinLeftWidth), right pane gets the rest.
func PaneWidths(totalWidth int) (left, right int) {
	if totalWidth <= 0 {
		return 0, 0
	}
	left = totalWidth * 2 / 5
	if left < MinLeftWidth {
		left = MinLeftWidth
	}
	right = totalWidth - left
	if right < 0 {
		right = 0
	}
	return left, right
}
