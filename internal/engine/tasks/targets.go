// Package tasks provides the concrete task and target kinds a pipeline is
// built from.
package tasks

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/mark/internal/core/domain"
	"go.trai.ch/mark/internal/core/ports"
)

// Invalidator is implemented by targets that `mark clean` can remove.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Recorder is implemented by targets backed by a marker record.
type Recorder interface {
	Record(ctx context.Context) (*domain.Marker, error)
}

// MarkerTarget is a marker record kept at a fixed path through the marker store.
type MarkerTarget struct {
	task  string
	path  string
	store ports.MarkerStore
	now   func() time.Time
}

// NewMarkerTarget returns the store-managed marker for task.
func NewMarkerTarget(store ports.MarkerStore, task string) *MarkerTarget {
	return &MarkerTarget{task: task, path: store.Path(task), store: store, now: time.Now}
}

// Key returns the marker path.
func (t *MarkerTarget) Key() string { return t.path }

// Exists reports whether the marker file is present.
func (t *MarkerTarget) Exists(ctx context.Context) (bool, error) {
	return t.store.Exists(ctx, t.path)
}

// Materialize writes the marker atomically. Rewriting an existing marker
// only refreshes its timestamp.
func (t *MarkerTarget) Materialize(ctx context.Context) error {
	return t.store.Write(ctx, t.path, domain.NewMarker(t.task, t.now()))
}

// Lock takes the cross-process lock for the marker path.
func (t *MarkerTarget) Lock(ctx context.Context) (func(), error) {
	return t.store.Lock(ctx, t.path)
}

// Invalidate removes the marker.
func (t *MarkerTarget) Invalidate(ctx context.Context) error {
	return t.store.Remove(ctx, t.path)
}

// Record reads the marker back. It returns nil when the marker is absent.
func (t *MarkerTarget) Record(ctx context.Context) (*domain.Marker, error) {
	return t.store.Read(ctx, t.path)
}

// FileMarkerTarget is a marker at a user-chosen path, for example
// "models_run.txt". It behaves like a MarkerTarget; only the location differs.
type FileMarkerTarget struct {
	MarkerTarget
}

// NewFileMarkerTarget returns a marker target for task stored at path.
func NewFileMarkerTarget(store ports.MarkerStore, task, path string) *FileMarkerTarget {
	return &FileMarkerTarget{MarkerTarget{task: task, path: path, store: store, now: time.Now}}
}

// FileTarget is a file the task produces itself. The engine never writes
// the file; it exists only once Materialize has confirmed the file and
// recorded a marker for it, so a file left behind by an interrupted run
// does not count.
type FileTarget struct {
	task   string
	path   string
	root   string
	marker string
	store  ports.MarkerStore
	now    func() time.Time
}

// NewFileTarget returns the target for the file path produced by task.
// Relative paths are resolved against root.
func NewFileTarget(store ports.MarkerStore, task, root, path string) *FileTarget {
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	return &FileTarget{
		task:   task,
		path:   filepath.Clean(path),
		root:   root,
		marker: store.Path(task),
		store:  store,
		now:    time.Now,
	}
}

// Key returns the output path.
func (t *FileTarget) Key() string { return t.path }

// Path returns the output path.
func (t *FileTarget) Path() string { return t.path }

// Exists reports whether the output file is present and was materialized.
func (t *FileTarget) Exists(ctx context.Context) (bool, error) {
	present, err := t.present()
	if err != nil || !present {
		return false, err
	}
	return t.store.Exists(ctx, t.marker)
}

// Materialize fails with ErrOutputMissing when the task did not produce
// its output. Otherwise it records the marker.
func (t *FileTarget) Materialize(ctx context.Context) error {
	present, err := t.present()
	if err != nil {
		return err
	}
	if !present {
		return domain.Annotate(domain.ErrOutputMissing, "task", t.task, "path", t.path)
	}
	return t.store.Write(ctx, t.marker, domain.NewMarker(t.task, t.now()))
}

// Clean removes the marker and a stale or partial output, before a run
// and after a failed one.
func (t *FileTarget) Clean(ctx context.Context) error {
	if err := t.checkRoot(); err != nil {
		return err
	}
	if err := t.store.Remove(ctx, t.marker); err != nil {
		return err
	}
	if err := os.RemoveAll(t.path); err != nil {
		return domain.Annotate(domain.Wrap(domain.ErrFailedToCleanOutput, err), "path", t.path)
	}
	return nil
}

// Invalidate removes the marker and keeps the file.
func (t *FileTarget) Invalidate(ctx context.Context) error {
	return t.store.Remove(ctx, t.marker)
}

// Record reads the marker back. It returns nil when the marker is absent.
func (t *FileTarget) Record(ctx context.Context) (*domain.Marker, error) {
	return t.store.Read(ctx, t.marker)
}

// Lock guards the output with the lock of the task's marker.
func (t *FileTarget) Lock(ctx context.Context) (func(), error) {
	return t.store.Lock(ctx, t.marker)
}

func (t *FileTarget) present() (bool, error) {
	_, err := os.Stat(t.path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

func (t *FileTarget) checkRoot() error {
	if !domain.WithinRoot(t.root, t.path) {
		return domain.Annotate(domain.ErrOutputPathOutsideRoot, "task", t.task, "path", t.path)
	}
	return nil
}

// TaskLookup resolves task ids. *domain.Registry satisfies it.
type TaskLookup interface {
	Lookup(id string) (domain.Task, bool)
}

// WrapperTarget exists when every wrapped dependency's target exists.
// It has nothing of its own to materialize.
type WrapperTarget struct {
	task  string
	deps  []string
	tasks TaskLookup
}

// NewWrapperTarget returns the target of a wrapper task over deps.
func NewWrapperTarget(task string, deps []string, tasks TaskLookup) *WrapperTarget {
	return &WrapperTarget{task: task, deps: deps, tasks: tasks}
}

// Key returns a name that cannot collide with a path.
func (t *WrapperTarget) Key() string { return "wrapper:" + t.task }

// Exists checks every dependency target in declared order.
func (t *WrapperTarget) Exists(ctx context.Context) (bool, error) {
	for _, dep := range t.deps {
		task, ok := t.tasks.Lookup(dep)
		if !ok {
			return false, domain.Annotate(domain.ErrMissingDependency, "task", t.task, "dependency", dep)
		}
		exists, err := task.Output().Exists(ctx)
		if err != nil || !exists {
			return false, err
		}
	}
	return true, nil
}

// Materialize is a no-op.
func (t *WrapperTarget) Materialize(context.Context) error { return nil }

// Aggregate marks the wrapper as completing with its dependencies.
func (t *WrapperTarget) Aggregate() bool { return true }
