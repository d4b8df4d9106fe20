package tasks

import (
	"path/filepath"

	"go.trai.ch/mark/internal/core/domain"
	"go.trai.ch/mark/internal/core/ports"
)

// Factory builds the task registry for a pipeline.
type Factory struct {
	store    ports.MarkerStore
	executor ports.Executor
	tracker  ports.Tracker
	logger   ports.Logger
}

// NewFactory creates a Factory. tracker and logger may be nil.
func NewFactory(store ports.MarkerStore, executor ports.Executor, tracker ports.Tracker, logger ports.Logger) *Factory {
	return &Factory{store: store, executor: executor, tracker: tracker, logger: logger}
}

// Build turns every spec of p into a task. Wrappers resolve their
// dependencies lazily through the returned registry.
func (f *Factory) Build(p *domain.Pipeline) (*domain.Registry, error) {
	reg, err := domain.NewRegistry()
	if err != nil {
		return nil, err
	}
	for i := range p.Tasks {
		task, err := f.task(p, &p.Tasks[i], reg)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(task); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func (f *Factory) task(p *domain.Pipeline, spec *domain.TaskSpec, reg *domain.Registry) (domain.Task, error) {
	if spec.IsWrapper() {
		if len(spec.Dependencies) == 0 {
			return nil, domain.Annotate(domain.ErrEmptyTask, "task", spec.Name)
		}
		return NewWrapperTask(spec.Name, spec.Dependencies, reg), nil
	}

	var target domain.Target
	switch {
	case spec.Marker != "" && spec.Output != "":
		return nil, domain.Annotate(domain.ErrConflictingTarget, "task", spec.Name)
	case spec.Marker != "":
		target = NewFileMarkerTarget(f.store, spec.Name, resolve(p.Root, spec.Marker))
	case spec.Output != "":
		target = NewFileTarget(f.store, spec.Name, p.Root, spec.Output)
	default:
		target = NewMarkerTarget(f.store, spec.Name)
	}

	metrics := ""
	if spec.Metrics != "" {
		metrics = resolve(p.Root, spec.Metrics)
	}

	s := *spec
	if s.WorkingDir == "" {
		s.WorkingDir = p.Root
	} else {
		s.WorkingDir = resolve(p.Root, s.WorkingDir)
	}
	return NewCommandTask(s, target, f.executor, f.tracker, f.logger, metrics), nil
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}
