// Package monitor coordinates cached inventory snapshots, pending-action
// bookkeeping, and lifecycle dispatch across the registered Docker hosts.
package monitor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/smileynet/berth/internal/docker"
	"github.com/smileynet/berth/internal/inventory"
	"github.com/smileynet/berth/internal/pending"
	"github.com/smileynet/berth/internal/target"
)

// Engine executes Docker operations against a single host.
// Defined here (the consumer) per Go convention: accept interfaces, return structs.
type Engine interface {
	Snapshot(ctx context.Context) (docker.Snapshot, error)
	Start(ctx context.Context, name string) error
	Stop(ctx context.Context, name string) error
	Restart(ctx context.Context, name string) error
	Remove(ctx context.Context, name string) error
	Ping(ctx context.Context) (string, error)
}

// EngineFunc builds the Engine for one target.
type EngineFunc func(t target.Target) Engine

// DockerEngine returns an EngineFunc that shells out to the given docker
// binary with a per-command timeout, over SSH for remote targets.
func DockerEngine(bin string, timeout time.Duration) EngineFunc {
	return func(t target.Target) Engine {
		return docker.NewClient(docker.RunnerFor(t, bin), timeout)
	}
}

// ActionError indicates a failed container lifecycle action.
type ActionError struct {
	Target    string // key of the target the action ran against
	Container string // container name or ID as given by the caller
	Verb      pending.Verb
	Err       error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("monitor: %s %s on %s: %s", e.Verb, e.Container, e.Target, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// Monitor is the freshness layer between the UI and Docker execution: it
// serves snapshots through the stale-while-revalidate cache, overlays
// pending actions, and dispatches lifecycle commands.
type Monitor struct {
	cache    *inventory.Cache
	tracker  *pending.Tracker
	registry *target.Registry
	engine   EngineFunc
	log      *zap.SugaredLogger
}

// Option configures a Monitor.
type Option func(*Monitor)

// New creates a Monitor over the given cache, tracker, and target registry.
func New(cache *inventory.Cache, tracker *pending.Tracker, registry *target.Registry, opts ...Option) *Monitor {
	m := &Monitor{
		cache:    cache,
		tracker:  tracker,
		registry: registry,
		engine:   DockerEngine("docker", 30*time.Second),
		log:      zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithEngine overrides how per-target engines are built.
func WithEngine(fn EngineFunc) Option {
	return func(m *Monitor) { m.engine = fn }
}

// WithLogger sets the logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(m *Monitor) { m.log = log }
}

// Targets returns the registered targets, local machine first.
func (m *Monitor) Targets() []target.Target {
	return m.registry.All()
}

// Lookup resolves a host name to a target. An empty name selects the
// local machine.
func (m *Monitor) Lookup(name string) (target.Target, error) {
	return m.registry.Lookup(name)
}

// ReplaceTargets swaps the remote host list after a config reload. All
// cached snapshots are dropped so removed hosts disappear immediately
// and renamed ones are fetched fresh.
func (m *Monitor) ReplaceTargets(remotes []target.Target) {
	m.registry.Replace(remotes)
	m.cache.InvalidateAll()
	m.log.Infow("host registry reloaded", "remotes", len(remotes))
}

// Snapshot returns inventory for the target. A cached snapshot within its
// TTL is served as-is; a stale one is served immediately while a refresh
// runs in the background; only a cold key blocks on the fetch.
func (m *Monitor) Snapshot(ctx context.Context, t target.Target) (inventory.Result, error) {
	eng := m.engine(t)
	return m.cache.Get(ctx, t.Key(), eng.Snapshot)
}

// Pending returns the in-flight actions for the target keyed by container.
func (m *Monitor) Pending(t target.Target) map[string]pending.Action {
	return m.tracker.ForTarget(t.Key())
}

// PendingStats counts in-flight actions by verb across all targets.
func (m *Monitor) PendingStats() map[pending.Verb]int {
	return m.tracker.Stats()
}

// Sweep drops expired pending actions and reports how many were removed.
func (m *Monitor) Sweep() int {
	return m.tracker.Sweep()
}

// Dispatch records a pending action and runs the matching docker lifecycle
// command. The pending entry is recorded before execution so the UI can
// show it immediately; a failed action clears it again. Success
// invalidates the target's cached snapshot so the next read observes the
// new state.
func (m *Monitor) Dispatch(ctx context.Context, t target.Target, container string, verb pending.Verb) error {
	key := t.Key()
	m.tracker.Set(key, container, verb)

	eng := m.engine(t)
	var err error
	switch verb {
	case pending.Starting:
		err = eng.Start(ctx, container)
	case pending.Stopping:
		err = eng.Stop(ctx, container)
	case pending.Restarting:
		err = eng.Restart(ctx, container)
	case pending.Removing:
		err = eng.Remove(ctx, container)
	default:
		err = fmt.Errorf("unknown verb %q", verb)
	}
	if err != nil {
		m.tracker.Clear(key, container)
		m.log.Warnw("container action failed",
			"verb", verb, "container", container, "host", key, "error", err)
		return &ActionError{Target: key, Container: container, Verb: verb, Err: err}
	}

	m.cache.Invalidate(key)
	m.log.Infow("container action completed",
		"verb", verb, "container", container, "host", key)
	return nil
}

// Refresh drops the target's cached snapshot and fetches a new one
// synchronously.
func (m *Monitor) Refresh(ctx context.Context, t target.Target) (inventory.Result, error) {
	m.cache.Invalidate(t.Key())
	return m.Snapshot(ctx, t)
}

// InvalidateAll drops every cached snapshot.
func (m *Monitor) InvalidateAll() {
	m.cache.InvalidateAll()
}

// Check verifies the target's Docker daemon is reachable and returns the
// server version string.
func (m *Monitor) Check(ctx context.Context, t target.Target) (string, error) {
	return m.engine(t).Ping(ctx)
}
