package dashboard

import (
	"fmt"
	"strings"

	"github.com/smileynet/berth/internal/docker"
	"github.com/smileynet/berth/internal/target"
)

// confirmState holds the data for the remove confirmation screen.
type confirmState struct {
	target    target.Target
	container docker.Container
}

// View renders the confirmation screen for the given dimensions.
func (cs confirmState) View(width, height int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Remove container %s?\n", cs.container.Name)
	fmt.Fprintf(&b, "\n  %s  %s\n", shortID(cs.container.ID), cs.container.Image)
	fmt.Fprintf(&b, "  State: %s, host: %s\n", cs.container.State, cs.target.Name)
	if cs.container.Running() {
		b.WriteString("\n  The container is running and will be force-removed.")
	}
	b.WriteString("\n\n  [Enter] Confirm   [Esc] Cancel")
	return b.String()
}

// shortID trims a full container ID to docker's familiar 12 characters.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
