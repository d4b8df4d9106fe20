package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/mark/internal/core/domain"
	"go.trai.ch/mark/internal/core/ports"
)

// CommandTask runs an argv through an executor. A non-zero exit fails the task.
type CommandTask struct {
	spec     domain.TaskSpec
	target   domain.Target
	executor ports.Executor
	tracker  ports.Tracker
	logger   ports.Logger
	metrics  string
}

// NewCommandTask returns a task that runs spec.Command. metricsPath, when
// set, is exported as MARK_METRICS_FILE and read back after a successful run.
// tracker and logger may be nil.
func NewCommandTask(
	spec domain.TaskSpec,
	target domain.Target,
	executor ports.Executor,
	tracker ports.Tracker,
	logger ports.Logger,
	metricsPath string,
) *CommandTask {
	return &CommandTask{
		spec:     spec,
		target:   target,
		executor: executor,
		tracker:  tracker,
		logger:   logger,
		metrics:  metricsPath,
	}
}

func (t *CommandTask) ID() string { return t.spec.Name }

func (t *CommandTask) Dependencies() []string { return t.spec.Dependencies }

func (t *CommandTask) Output() domain.Target { return t.target }

// Timeout returns the per-task deadline, or zero for the pipeline default.
func (t *CommandTask) Timeout() time.Duration { return t.spec.Timeout }

// Spec returns the declaration the task was built from.
func (t *CommandTask) Spec() domain.TaskSpec { return t.spec }

// Run executes the command, streaming combined output to out.
func (t *CommandTask) Run(ctx context.Context, out io.Writer) error {
	env := []string{domain.TaskEnv + "=" + t.spec.Name}
	if t.metrics != "" {
		env = append(env, domain.MetricsFileEnv+"="+t.metrics)
		if err := os.Remove(t.metrics); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	if err := t.executor.Execute(ctx, &t.spec, env, out, out); err != nil {
		return err
	}

	if t.metrics == "" || t.tracker == nil {
		return nil
	}
	// Metrics never decide success: the exit status already did.
	values, err := readMetrics(t.metrics)
	if err != nil {
		if t.logger != nil {
			t.logger.Warn(fmt.Sprintf("%s: ignoring metrics in %s: %v", t.spec.Name, t.metrics, err))
		}
		return nil
	}
	if len(values) > 0 {
		t.tracker.Track(t.spec.Name, values)
	}
	return nil
}

// readMetrics parses a flat JSON object of numbers. A missing file means
// the command reported nothing.
func readMetrics(path string) (map[string]float64, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Wrap(domain.ErrInvalidMetrics, err)
	}
	var values map[string]float64
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, domain.Wrap(domain.ErrInvalidMetrics, err)
	}
	return values, nil
}

// FuncTask adapts a Go function to domain.Task.
type FuncTask struct {
	id     string
	deps   []string
	target domain.Target
	fn     func(ctx context.Context, out io.Writer) error
}

// NewFuncTask returns a task that calls fn.
func NewFuncTask(id string, target domain.Target, fn func(context.Context, io.Writer) error, deps ...string) *FuncTask {
	return &FuncTask{id: id, deps: deps, target: target, fn: fn}
}

func (t *FuncTask) ID() string { return t.id }

func (t *FuncTask) Dependencies() []string { return t.deps }

func (t *FuncTask) Output() domain.Target { return t.target }

func (t *FuncTask) Run(ctx context.Context, out io.Writer) error {
	if t.fn == nil {
		return nil
	}
	return t.fn(ctx, out)
}

// WrapperTask groups dependencies. Running it does nothing.
type WrapperTask struct {
	id     string
	deps   []string
	target *WrapperTarget
}

// NewWrapperTask returns a wrapper over deps, resolving them through tasks.
func NewWrapperTask(id string, deps []string, tasks TaskLookup) *WrapperTask {
	return &WrapperTask{id: id, deps: deps, target: NewWrapperTarget(id, deps, tasks)}
}

func (t *WrapperTask) ID() string { return t.id }

func (t *WrapperTask) Dependencies() []string { return t.deps }

func (t *WrapperTask) Output() domain.Target { return t.target }

func (t *WrapperTask) Run(context.Context, io.Writer) error { return nil }
