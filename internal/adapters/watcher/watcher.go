package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/mark/internal/core/domain"
	"go.trai.ch/mark/internal/core/ports"
)

var _ ports.Watcher = (*Watcher)(nil)

// DefaultDebounceWindow is how long the tree must be quiet before a batch is sent.
const DefaultDebounceWindow = 200 * time.Millisecond

// skipDirectories are never watched. The state directory is skipped so that
// writing markers does not trigger another run.
var skipDirectories = map[string]bool{
	domain.StateDirName: true,
	".git":              true,
	".jj":               true,
	"node_modules":      true,
}

// Watcher implements ports.Watcher with fsnotify.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	logger    ports.Logger
	debouncer *Debouncer
	root      string

	batches  chan []ports.WatchEvent
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher that batches events over window. No file
// descriptors are opened until Start.
func NewWatcher(window time.Duration, logger ports.Logger) *Watcher {
	w := &Watcher{
		logger:  logger,
		batches: make(chan []ports.WatchEvent),
		stopped: make(chan struct{}),
	}
	w.debouncer = NewDebouncer(window, w.emit)
	return w
}

// Start watches every directory below root and keeps adding new ones.
func (w *Watcher) Start(ctx context.Context, root string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return domain.Wrap(domain.ErrWatcherFailed, err)
	}
	w.fsWatcher = fsw
	w.root = root
	for dir := range w.directories(root) {
		if err := w.fsWatcher.Add(dir); err != nil {
			_ = w.fsWatcher.Close()
			return domain.Annotate(domain.Wrap(domain.ErrWatcherFailed, err), "path", dir)
		}
	}
	go w.processEvents(ctx)
	return nil
}

// Stop releases the watcher. Events ends once pending events are delivered
// or dropped.
func (w *Watcher) Stop() error {
	if w.fsWatcher == nil {
		return nil
	}
	return w.fsWatcher.Close()
}

// Events yields batches until the watcher stops.
func (w *Watcher) Events() iter.Seq[[]ports.WatchEvent] {
	return func(yield func([]ports.WatchEvent) bool) {
		for {
			select {
			case batch := <-w.batches:
				if !yield(batch) {
					return
				}
			case <-w.stopped:
				return
			}
		}
	}
}

func (w *Watcher) emit(batch []ports.WatchEvent) {
	select {
	case w.batches <- batch:
	case <-w.stopped:
	}
}

func (w *Watcher) directories(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				//nolint:nilerr // unreadable directories are skipped
				return nil
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && skipDirectories[d.Name()] {
				return fs.SkipDir
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// ignored reports whether path lies in a skipped directory below the root.
func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	for part := range strings.SplitSeq(filepath.ToSlash(rel), "/") {
		if skipDirectories[part] {
			return true
		}
	}
	return false
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.stopOnce.Do(func() { close(w.stopped) })

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Warn(fmt.Sprintf("file watcher: %v", err))
			}
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if w.ignored(event.Name) {
		return
	}
	op, ok := convertOp(event.Op)
	if !ok {
		return
	}
	w.debouncer.Add(ports.WatchEvent{Path: event.Name, Operation: op})

	if op == ports.OpCreate {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			for dir := range w.directories(event.Name) {
				_ = w.fsWatcher.Add(dir)
			}
		}
	}
}

func convertOp(op fsnotify.Op) (ports.WatchOp, bool) {
	switch {
	case op.Has(fsnotify.Write):
		return ports.OpWrite, true
	case op.Has(fsnotify.Create):
		return ports.OpCreate, true
	case op.Has(fsnotify.Remove):
		return ports.OpRemove, true
	case op.Has(fsnotify.Rename):
		return ports.OpRename, true
	default:
		return 0, false
	}
}
