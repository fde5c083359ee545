// Package inventory caches per-host Docker snapshots with a short TTL,
// serving stale data immediately and refreshing in the background so a
// slow or unreachable host never blocks a render.
package inventory

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/smileynet/berth/internal/docker"
)

// ttl is how long a snapshot is served without triggering a refresh.
const ttl = 10 * time.Second

// FetchFunc produces a fresh snapshot for one host.
type FetchFunc func(ctx context.Context) (docker.Snapshot, error)

// Result is a snapshot plus its age at read time.
type Result struct {
	Snapshot docker.Snapshot
	Age      time.Duration
}

// Stale reports whether the snapshot was past the TTL when read.
func (r Result) Stale() bool { return r.Age >= ttl }

// entry is the cached state for one host key.
type entry struct {
	snapshot   docker.Snapshot
	fetchedAt  time.Time
	refreshing bool // a background refresh for this key is in flight
}

// Cache is a stale-while-revalidate snapshot cache keyed by host. A read
// within the TTL returns the stored snapshot; a stale read returns the
// stored snapshot immediately and triggers at most one background refresh
// per key; only a true miss blocks on the fetch.
//
// The Docker daemon stays the source of truth: entries are a UX
// optimization and are never persisted.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
	log     *zap.SugaredLogger
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger that records background refresh failures.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Cache) { c.log = log }
}

// NewCache creates an empty Cache.
func NewCache(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]*entry),
		now:     time.Now,
		log:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the snapshot for key.
//
// On a miss it calls fetch synchronously; a fetch error propagates to the
// caller and nothing is stored, so the next call is again a miss. On a
// fresh hit it returns the stored snapshot without fetching. On a stale
// hit it returns the stored snapshot immediately and, unless one is
// already in flight, starts a background refresh; a failed refresh keeps
// the stale snapshot, is logged, and is never surfaced to callers.
func (c *Cache) Get(ctx context.Context, key string, fetch FetchFunc) (Result, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return c.miss(ctx, key, fetch)
	}

	age := c.now().Sub(e.fetchedAt)
	res := Result{Snapshot: e.snapshot, Age: age}
	if age >= ttl && !e.refreshing {
		// The flag flips under the lock, before the fetch is scheduled:
		// two near-simultaneous stale reads start at most one refresh.
		e.refreshing = true
		go c.refresh(key, fetch)
	}
	c.mu.Unlock()
	return res, nil
}

// miss fetches synchronously and stores the result. Concurrent misses for
// one key each fetch; the last completed store wins.
func (c *Cache) miss(ctx context.Context, key string, fetch FetchFunc) (Result, error) {
	snap, err := fetch(ctx)
	if err != nil {
		return Result{}, err
	}
	c.mu.Lock()
	c.entries[key] = &entry{snapshot: snap, fetchedAt: c.now()}
	c.mu.Unlock()
	return Result{Snapshot: snap}, nil
}

// refresh runs one detached background fetch for key. No caller awaits it;
// the fetch's own timeout is the only deadline.
func (c *Cache) refresh(key string, fetch FetchFunc) {
	snap, err := fetch(context.Background())

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if err != nil {
		c.log.Warnw("background refresh failed, keeping stale snapshot",
			"host", key, "error", err)
		if ok {
			e.refreshing = false
		}
		return
	}
	if !ok {
		// Key was invalidated while the fetch was in flight. The next
		// read must be a real miss, so the result is dropped.
		c.log.Debugw("dropping refresh result for invalidated host", "host", key)
		return
	}
	e.snapshot = snap
	e.fetchedAt = c.now()
	e.refreshing = false
}

// Invalidate removes one key so the next Get for it behaves as a miss.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidateAll clears every entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
}
