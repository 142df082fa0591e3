// Package watcher notices recording files appearing, changing, or
// vanishing under the watched capture directories.
package watcher

import (
	"context"
	"log/slog"
	"sync"

	"github.com/fsnotify/fsnotify"
)

type Watcher interface {
	Watch(ctx context.Context, path string) error
	Stop() error
	OnChange(callback func(path string, event EventType))
}

type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
)

func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// FSWatcher is the fsnotify-backed implementation. One event loop
// serves all watched directories.
type FSWatcher struct {
	fs     *fsnotify.Watcher
	logger *slog.Logger

	mu       sync.Mutex
	callback func(path string, event EventType)
	started  bool
	done     chan struct{}
	once     sync.Once
}

func NewFSWatcher(logger *slog.Logger) (*FSWatcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &FSWatcher{
		fs:     fs,
		logger: logger,
		done:   make(chan struct{}),
	}, nil
}

func (w *FSWatcher) Watch(ctx context.Context, path string) error {
	if err := w.fs.Add(path); err != nil {
		return err
	}

	w.mu.Lock()
	started := w.started
	w.started = true
	w.mu.Unlock()

	if !started {
		go w.loop(ctx)
	}

	if w.logger != nil {
		w.logger.Info("watching directory", "path", path)
	}
	return nil
}

func (w *FSWatcher) Stop() error {
	w.once.Do(func() { close(w.done) })
	return w.fs.Close()
}

func (w *FSWatcher) OnChange(callback func(path string, event EventType)) {
	w.mu.Lock()
	w.callback = callback
	w.mu.Unlock()
}

func (w *FSWatcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case evt, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.dispatch(evt)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Warn("watch error", "error", err)
			}
		}
	}
}

func (w *FSWatcher) dispatch(evt fsnotify.Event) {
	var event EventType
	switch {
	case evt.Has(fsnotify.Create):
		event = EventCreate
	case evt.Has(fsnotify.Remove) || evt.Has(fsnotify.Rename):
		event = EventDelete
	case evt.Has(fsnotify.Write):
		event = EventModify
	default:
		return
	}

	w.mu.Lock()
	cb := w.callback
	w.mu.Unlock()
	if cb != nil {
		cb(evt.Name, event)
	}
}

// StubWatcher satisfies Watcher without touching the filesystem. Used
// in headless test environments.
type StubWatcher struct {
	logger   *slog.Logger
	callback func(path string, event EventType)
}

func NewStubWatcher(logger *slog.Logger) *StubWatcher {
	return &StubWatcher{logger: logger}
}

func (w *StubWatcher) Watch(ctx context.Context, path string) error {
	w.logger.Info("watcher stub: watch requested", "path", path)
	return nil
}

func (w *StubWatcher) Stop() error {
	w.logger.Info("watcher stub: stop requested")
	return nil
}

func (w *StubWatcher) OnChange(callback func(path string, event EventType)) {
	w.callback = callback
}
