// Package watcher reloads configuration files such as the page template
// when they change on disk.
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event represents a change to a watched file.
type Event struct {
	Path      string
	Operation Operation
}

// Operation represents the type of file operation.
type Operation int

// File operation types.
const (
	OpCreate Operation = iota
	OpModify
	OpDelete
)

// String returns the string representation of the operation.
func (o Operation) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Handler is called once per debounced file change. Calls are serialized.
type Handler func(ctx context.Context, event Event) error

// pending is a burst of events for one file waiting for its timer.
type pending struct {
	op    Operation
	timer *time.Timer
}

// Watcher watches individual files. Parent directories are watched so that
// editors replacing a file through rename are still observed.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	handler   Handler
	logger    *slog.Logger
	files     map[string]struct{}
	debounce  time.Duration

	mu      sync.Mutex
	pending map[string]*pending
	ctx     context.Context

	handlerMu sync.Mutex
}

// Config holds watcher configuration.
type Config struct {
	Files    []string
	Debounce time.Duration // Quiet period before a change is reported, default 500ms
}

// New creates a new file watcher.
func New(cfg Config, handler Handler, logger *slog.Logger) (*Watcher, error) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}

	files := make(map[string]struct{}, len(cfg.Files))
	for _, f := range cfg.Files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, err
		}
		files[abs] = struct{}{}
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		handler:   handler,
		logger:    logger,
		files:     files,
		debounce:  cfg.Debounce,
		pending:   make(map[string]*pending),
		ctx:       context.Background(),
	}, nil
}

// Start watches the directories of the configured files until ctx is done
// or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	dirs := make(map[string]struct{})
	for f := range w.files {
		dirs[filepath.Dir(f)] = struct{}{}
	}

	for dir := range dirs {
		if err := w.fsWatcher.Add(dir); err != nil {
			return err
		}
		w.logger.Info("watching directory", "path", dir)
	}

	w.mu.Lock()
	w.ctx = ctx
	w.mu.Unlock()

	go w.eventLoop(ctx)
	return nil
}

// Stop stops the watcher and drops changes that were not reported yet.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	return w.fsWatcher.Close()
}

func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.record(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// record adds an fsnotify event to the pending burst of its file and
// restarts the file's quiet-period timer.
func (w *Watcher) record(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if _, ok := w.files[path]; !ok {
		return
	}

	// Permission and timestamp changes leave the content untouched.
	if event.Op == fsnotify.Chmod {
		return
	}

	w.logger.Debug("file event", "path", path, "op", event.Op.String())
	op := fsnotifyOpToOperation(event.Op)

	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.pending[path]; ok {
		p.op = mergeOperations(p.op, op)
		p.timer.Reset(w.debounce)
		return
	}

	w.pending[path] = &pending{
		op:    op,
		timer: time.AfterFunc(w.debounce, func() { w.fire(path) }),
	}
}

// mergeOperations folds a burst of events into one. A delete followed by a
// create is an atomic replace and reported as a modify.
func mergeOperations(prev, next Operation) Operation {
	switch {
	case prev == OpDelete && next == OpCreate:
		return OpModify
	case next == OpDelete:
		return OpDelete
	case prev == OpCreate:
		return OpCreate
	default:
		return next
	}
}

// fire reports the burst for path once its timer expired.
func (w *Watcher) fire(path string) {
	w.mu.Lock()
	p, ok := w.pending[path]
	if ok {
		delete(w.pending, path)
	}
	ctx := w.ctx
	w.mu.Unlock()

	if !ok || ctx.Err() != nil {
		return
	}

	event := Event{Path: path, Operation: p.op}
	w.logger.Info("processing file event", "path", path, "operation", event.Operation.String())

	w.handlerMu.Lock()
	defer w.handlerMu.Unlock()

	if err := w.handler(ctx, event); err != nil {
		w.logger.Error("handler error",
			"path", path,
			"operation", event.Operation.String(),
			"error", err,
		)
	}
}

func fsnotifyOpToOperation(op fsnotify.Op) Operation {
	switch {
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		// The old name is gone
		return OpDelete
	case op.Has(fsnotify.Create):
		return OpCreate
	default:
		return OpModify
	}
}
