package dashboard

import (
	"testing"

	"github.com/smileynet/berth/internal/pending"
)

func TestPaneWidths(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		wantLeft  int
		wantRight int
	}{
		{"zero width", 0, 0, 0},
		{"standard terminal", 100, 40, 60},
		{"wide terminal", 200, 80, 120},
		{"narrow clamps to minimum", 60, MinLeftWidth, 28},
		{"narrower than minimum", 30, MinLeftWidth, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			left, right := PaneWidths(tt.total)
			if left != tt.wantLeft || right != tt.wantRight {
				t.Errorf("PaneWidths(%d) = (%d, %d), want (%d, %d)",
					tt.total, left, right, tt.wantLeft, tt.wantRight)
			}
		})
	}
}

func TestStateBadge(t *testing.T) {
	for _, state := range []string{"running", "paused", "restarting", "exited", "dead", "created", "unknown"} {
		if got := stripANSI(StateBadge(state)); got != state {
			t.Errorf("StateBadge(%q) text = %q, want the state itself", state, got)
		}
	}
}

func TestPendingBadge(t *testing.T) {
	if got := stripANSI(PendingBadge(pending.Restarting)); got != "restarting…" {
		t.Errorf("PendingBadge() = %q, want restarting…", got)
	}
}
