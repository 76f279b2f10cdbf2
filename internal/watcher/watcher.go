// Package watcher reports settled file changes under a directory tree.
// The web renderer uses it to re-parse page templates during development.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors file system changes with fsnotify. Bursts of writes to
// one path collapse into a single event once the path has been quiet for
// Options.SettleDelay.
type Watcher struct {
	logger  *slog.Logger
	opts    Options
	watcher *fsnotify.Watcher

	pending map[string]*pendingEvent
	mu      sync.Mutex

	events chan Event
	errors chan error
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

type pendingEvent struct {
	typ   EventType
	timer *time.Timer
}

// New creates a watcher. Call Watch to add paths and Start to begin.
func New(logger *slog.Logger, opts Options) (*Watcher, error) {
	opts.setDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		logger:  logger,
		opts:    opts,
		watcher: fsw,
		pending: make(map[string]*pendingEvent),
		events:  make(chan Event, 100),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}, nil
}

// Watch adds a path to be monitored. Directories are watched recursively;
// a file is watched through its parent directory.
func (w *Watcher) Watch(path string) error {
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}
	if !info.IsDir() {
		return w.watcher.Add(filepath.Dir(path))
	}
	return w.watchDir(path)
}

func (w *Watcher) watchDir(path string) error {
	return filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("failed to access path", "path", p, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != path && w.opts.shouldIgnore(p) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			w.logger.Error("failed to add watch", "path", p, "error", err)
			return nil
		}
		w.logger.Debug("added watch", "path", p)
		return nil
	})
}

// Start processes events until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.wg.Add(1)
	go w.processEvents(ctx)

	select {
	case <-ctx.Done():
	case <-w.done:
	}
	return nil
}

// Stop stops the watcher and releases resources. It is safe to call twice.
func (w *Watcher) Stop() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()

		w.mu.Lock()
		for path, p := range w.pending {
			p.timer.Stop()
			delete(w.pending, path)
		}
		w.mu.Unlock()

		w.wg.Wait()
	})
	return err
}

// Shutdown implements the DI shutdown hook.
func (w *Watcher) Shutdown() error {
	return w.Stop()
}

// Events returns the channel of settled events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of watch errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
				w.logger.Warn("watcher error dropped", "error", err)
			}
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if w.opts.shouldIgnore(event.Name) {
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watchDir(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
			return
		}
		w.settle(event.Name, EventAdded)
	case event.Has(fsnotify.Write):
		w.settle(event.Name, EventModified)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.settle(event.Name, EventRemoved)
	}
}

// settle schedules an event for path, restarting the timer on every call.
// An add followed by writes is still reported as an add.
func (w *Watcher) settle(path string, typ EventType) {
	if !w.opts.wants(path) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.pending[path]; ok {
		p.timer.Stop()
		if typ == EventRemoved || p.typ != EventAdded {
			p.typ = typ
		}
		p.timer = time.AfterFunc(w.opts.SettleDelay, func() { w.fire(path) })
		return
	}

	w.pending[path] = &pendingEvent{
		typ:   typ,
		timer: time.AfterFunc(w.opts.SettleDelay, func() { w.fire(path) }),
	}
}

func (w *Watcher) fire(path string) {
	w.mu.Lock()
	p, ok := w.pending[path]
	delete(w.pending, path)
	w.mu.Unlock()
	if !ok {
		return
	}

	select {
	case w.events <- Event{Type: p.typ, Path: path}:
	case <-w.done:
	default:
		w.logger.Warn("watcher event dropped", "path", path, "type", p.typ.String())
	}
}

// ErrClosed is returned by Run when the watcher is stopped before ctx ends.
var ErrClosed = errors.New("watcher closed")

// Run starts the watcher and calls onChange for every settled event until
// ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, onChange func(Event)) error {
	go func() { _ = w.Start(ctx) }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.done:
			return ErrClosed
		case ev := <-w.events:
			onChange(ev)
		case err := <-w.errors:
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}
