package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounce coalesces the burst of filesystem events an editor save emits
// into one notification.
const debounce = 250 * time.Millisecond

// Watcher reports changes to the config files so the dashboard can reload
// the host registry without restarting.
type Watcher struct {
	paths   map[string]bool // absolute config paths worth reporting
	watcher *fsnotify.Watcher
	events  chan struct{}
	done    chan struct{}
	log     *zap.SugaredLogger

	mu      sync.Mutex
	started bool
	closed  bool
}

// NewWatcher creates a watcher for the given config paths. The containing
// directories are watched rather than the files, so editors that replace
// a file on save (rename plus create) stay visible. Directories that do
// not exist yet are skipped.
func NewWatcher(log *zap.SugaredLogger, paths ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: creating watcher: %w", err)
	}

	w := &Watcher{
		paths:   make(map[string]bool, len(paths)),
		watcher: fw,
		events:  make(chan struct{}, 1),
		done:    make(chan struct{}),
		log:     log,
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		w.paths[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			log.Debugw("config directory not watchable", "dir", dir, "error", err)
		}
	}

	return w, nil
}

// Start begins delivering change notifications. Safe to call once.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.closed {
		return
	}
	w.started = true
	go w.loop()
}

// Events yields one value per (debounced) config change.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Stop shuts the watcher down. Pending notifications are dropped.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	close(w.done)
	_ = w.watcher.Close()
}

func (w *Watcher) loop() {
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warnw("config watch error", "error", err)
		case <-timer.C:
			w.notify()
		}
	}
}

// relevant reports whether the event touches one of the watched config
// paths with an op that changes content.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) &&
		!ev.Op.Has(fsnotify.Rename) && !ev.Op.Has(fsnotify.Remove) {
		return false
	}
	return w.paths[filepath.Clean(ev.Name)]
}

// notify delivers one event without blocking; a pending undelivered
// notification already covers this change.
func (w *Watcher) notify() {
	select {
	case w.events <- struct{}{}:
	default:
	}
}
