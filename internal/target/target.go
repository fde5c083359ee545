// Package target identifies the Docker hosts berth can talk to: the local
// machine, or remote hosts reached over SSH.
package target

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// LocalKey is the cache key of the local Docker host.
const LocalKey = "local"

// ErrUnknown reports a lookup for a host name that is not registered.
var ErrUnknown = errors.New("target: unknown host")

// Target is one logical Docker host. The zero value is the local machine.
type Target struct {
	Name string // display name; "local" for the local machine
	Host string // SSH hostname or address, empty for local
	User string // SSH user, empty for local
}

// Local returns the target for the machine berth runs on.
func Local() Target {
	return Target{Name: LocalKey}
}

// IsLocal reports whether t is the local Docker host.
func (t Target) IsLocal() bool { return t.Host == "" }

// Key returns the stable identity used to key caches and pending actions:
// "local" for the local host, "host::user" for remote ones.
func (t Target) Key() string {
	if t.IsLocal() {
		return LocalKey
	}
	return t.Host + "::" + t.User
}

// DisplayHost returns the hostname service links should point at.
func (t Target) DisplayHost() string {
	if t.IsLocal() {
		return "localhost"
	}
	return t.Host
}

// Registry holds the known targets: the local host first, then the
// configured remote hosts sorted by name.
type Registry struct {
	mu      sync.RWMutex
	targets []Target
}

// NewRegistry creates a Registry containing the local target plus the
// given remote targets.
func NewRegistry(remotes ...Target) *Registry {
	r := &Registry{}
	r.Replace(remotes)
	return r
}

// Replace swaps the remote target set, keeping the local target first.
// Called when the config file changes on disk.
func (r *Registry) Replace(remotes []Target) {
	targets := make([]Target, 0, len(remotes)+1)
	targets = append(targets, Local())
	targets = append(targets, remotes...)
	sort.SliceStable(targets[1:], func(i, j int) bool {
		return targets[i+1].Name < targets[j+1].Name
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets = targets
}

// Lookup resolves a host name to a target. The empty name and "local"
// both resolve to the local host.
func (r *Registry) Lookup(name string) (Target, error) {
	if name == "" {
		return Local(), nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.targets {
		if t.Name == name {
			return t, nil
		}
	}
	return Target{}, fmt.Errorf("%w: %q", ErrUnknown, name)
}

// All returns the targets in display order (local first, remotes by name).
func (r *Registry) All() []Target {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Target, len(r.targets))
	copy(out, r.targets)
	return out
}

// Len returns the number of registered targets, local included.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.targets)
}
