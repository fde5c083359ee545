package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/berth/internal/docker"
	"github.com/smileynet/berth/internal/inventory"
	"github.com/smileynet/berth/internal/pending"
	"github.com/smileynet/berth/internal/target"
)

// stripANSI removes ANSI escape sequences from a string.
func stripANSI(s string) string {
	var out []byte
	i := 0
	for i < len(s) {
		if s[i] == '\x1b' && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && (s[j] < 'A' || s[j] > 'Z') && (s[j] < 'a' || s[j] > 'z') {
				j++
			}
			if j < len(s) {
				j++
			}
			i = j
		} else {
			out = append(out, s[i])
			i++
		}
	}
	return string(out)
}

// containsPlainText checks if s contains sub after stripping ANSI escapes.
func containsPlainText(s, sub string) bool {
	return strings.Contains(stripANSI(s), sub)
}

// execBatch executes a tea.Cmd, handling both single commands and batch
// commands. It returns all resulting messages. Spinner ticks are skipped
// to avoid infinite recursion.
func execBatch(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			if c != nil {
				result := c()
				// Skip spinner ticks to avoid recursion.
				if _, isTick := result.(spinner.TickMsg); !isTick {
					msgs = append(msgs, result)
				}
			}
		}
		return msgs
	}
	return []tea.Msg{msg}
}

// fakeService is a canned Service implementation. Command closures run in
// program goroutines under teatest, so everything is mutex-guarded.
type fakeService struct {
	mu          sync.Mutex
	targets     []target.Target
	snapshots   map[string]docker.Snapshot
	errs        map[string]error
	pend        map[string]map[string]pending.Action
	dispatchErr error
	dispatched  []string
	fetches     map[string]int
	sweeps      int
}

func newFakeService(snap docker.Snapshot, remotes ...target.Target) *fakeService {
	targets := append([]target.Target{target.Local()}, remotes...)
	snapshots := make(map[string]docker.Snapshot, len(targets))
	for _, t := range targets {
		snapshots[t.Key()] = snap
	}
	return &fakeService{
		targets:   targets,
		snapshots: snapshots,
		errs:      make(map[string]error),
		pend:      make(map[string]map[string]pending.Action),
		fetches:   make(map[string]int),
	}
}

func (f *fakeService) Targets() []target.Target {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]target.Target(nil), f.targets...)
}

func (f *fakeService) Snapshot(_ context.Context, t target.Target) (inventory.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := t.Key()
	f.fetches[key]++
	if err := f.errs[key]; err != nil {
		return inventory.Result{}, err
	}
	return inventory.Result{Snapshot: f.snapshots[key]}, nil
}

func (f *fakeService) Refresh(ctx context.Context, t target.Target) (inventory.Result, error) {
	return f.Snapshot(ctx, t)
}

func (f *fakeService) Pending(t target.Target) map[string]pending.Action {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]pending.Action, len(f.pend[t.Key()]))
	for k, v := range f.pend[t.Key()] {
		out[k] = v
	}
	return out
}

func (f *fakeService) PendingStats() map[pending.Verb]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := make(map[pending.Verb]int)
	for _, byContainer := range f.pend {
		for _, a := range byContainer {
			stats[a.Verb]++
		}
	}
	return stats
}

func (f *fakeService) Dispatch(_ context.Context, t target.Target, container string, verb pending.Verb) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dispatched = append(f.dispatched, fmt.Sprintf("%s %s@%s", verb, container, t.Key()))
	if f.dispatchErr != nil {
		return f.dispatchErr
	}
	key := t.Key()
	if f.pend[key] == nil {
		f.pend[key] = make(map[string]pending.Action)
	}
	f.pend[key][container] = pending.Action{Verb: verb, IssuedAt: time.Now(), Target: key}
	return nil
}

func (f *fakeService) Sweep() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sweeps++
	return 0
}

func (f *fakeService) fetchCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[key]
}

func (f *fakeService) dispatchedCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.dispatched...)
}

// composeSnapshot returns a snapshot with one two-container compose
// project and one ungrouped container.
func composeSnapshot() docker.Snapshot {
	labels := map[string]string{"com.docker.compose.project": "shop"}
	return docker.Snapshot{
		Containers: []docker.Container{
			{
				ID: "aaa111aaa111", Name: "shop-api-1", Image: "shop/api:1.2",
				State: "running", Status: "Up 2 hours",
				Ports: "0.0.0.0:8080->80/tcp", Labels: labels,
			},
			{
				ID: "bbb222bbb222", Name: "shop-db-1", Image: "postgres:16",
				State: "exited", Status: "Exited (0) 1 hour ago", Labels: labels,
			},
			{
				ID: "ccc333ccc333", Name: "plain", Image: "redis:7",
				State: "running", Status: "Up 5 minutes",
			},
		},
		Stats: []docker.Stats{
			{
				ID: "aaa111aaa111", Name: "shop-api-1", CPUPerc: "1.2%",
				MemUsage: "100MiB / 1GiB", MemPerc: "9.8%",
				NetIO: "1kB / 2kB", BlockIO: "0B / 0B", PIDs: "12",
			},
		},
		Host: docker.HostInfo{
			Name: "boxy", ServerVersion: "28.0.4", OperatingSystem: "Debian GNU/Linux 13",
			NCPU: 8, MemTotal: 17179869184, Containers: 3, Images: 12,
		},
	}
}

// loadedModel builds a sized Model with the fake's snapshot applied, the
// way the first fetch would.
func loadedModel(svc *fakeService, w, h int) Model {
	m := NewModel(svc, WithPollInterval(time.Millisecond))
	up, _ := m.Update(tea.WindowSizeMsg{Width: w, Height: h})
	m = up.(Model)
	res, err := svc.Snapshot(context.Background(), m.activeTarget())
	up, _ = m.Update(snapshotMsg{key: m.activeTarget().Key(), res: res, err: err})
	return up.(Model)
}

// keyRunes builds a tea.KeyMsg for a single printable key.
func keyRunes(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}
