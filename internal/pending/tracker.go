// Package pending tracks container lifecycle actions that were just
// issued, so the UI can show an optimistic in-flight state until the next
// snapshot refresh reflects reality.
package pending

import (
	"sync"
	"time"
)

// ttl is how long a pending action is shown before it expires.
const ttl = 15 * time.Second

// Verb is the lifecycle operation a pending action represents, present
// progressive because that is what the UI renders.
type Verb string

// Lifecycle verbs.
const (
	Starting   Verb = "starting"
	Stopping   Verb = "stopping"
	Restarting Verb = "restarting"
	Removing   Verb = "removing"
)

// Action records one issued lifecycle operation.
type Action struct {
	Verb     Verb
	IssuedAt time.Time
	Target   string // owning host key, scopes bulk queries
}

// key identifies one container on one host.
type key struct {
	target    string
	container string
}

// Tracker holds best-effort UI state: entries expire after a fixed TTL
// and carry no authority; if the tracker disagrees with reality, the next
// snapshot refresh overwrites the displayed state with ground truth.
// Writes are last-writer-wins with no ordering guarantee against the
// completion of the underlying Docker operation.
type Tracker struct {
	mu      sync.Mutex
	entries map[key]Action
	now     func() time.Time
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		entries: make(map[key]Action),
		now:     time.Now,
	}
}

// expired is the one expiry predicate every read path shares.
func expired(a Action, now time.Time) bool {
	return now.Sub(a.IssuedAt) >= ttl
}

// Set unconditionally records verb for the container, overwriting any
// previous action for the same key.
func (t *Tracker) Set(targetKey, containerID string, verb Verb) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[key{targetKey, containerID}] = Action{
		Verb:     verb,
		IssuedAt: t.now(),
		Target:   targetKey,
	}
}

// Get returns the pending action for the container if present and not
// expired. An expired entry is evicted on the way out and reported absent.
func (t *Tracker) Get(targetKey, containerID string) (Action, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := key{targetKey, containerID}
	a, ok := t.entries[k]
	if !ok {
		return Action{}, false
	}
	if expired(a, t.now()) {
		delete(t.entries, k)
		return Action{}, false
	}
	return a, true
}

// ForTarget returns the live pending actions for one host keyed by
// container ID, evicting any expired entries the scan passes.
func (t *Tracker) ForTarget(targetKey string) map[string]Action {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	out := make(map[string]Action)
	for k, a := range t.entries {
		if expired(a, now) {
			delete(t.entries, k)
			continue
		}
		if k.target == targetKey {
			out[k.container] = a
		}
	}
	return out
}

// Clear removes the container's pending action, expired or not.
func (t *Tracker) Clear(targetKey, containerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key{targetKey, containerID})
}

// Sweep evicts every expired entry and returns how many were removed.
// Reads evict lazily; Sweep runs on the dashboard tick so entries for a
// host nobody is viewing still get cleaned up.
func (t *Tracker) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	removed := 0
	for k, a := range t.entries {
		if expired(a, now) {
			delete(t.entries, k)
			removed++
		}
	}
	return removed
}

// Stats sweeps expired entries and reports the live counts by verb.
func (t *Tracker) Stats() map[Verb]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	stats := make(map[Verb]int)
	for k, a := range t.entries {
		if expired(a, now) {
			delete(t.entries, k)
			continue
		}
		stats[a.Verb]++
	}
	return stats
}
