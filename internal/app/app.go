// Package app implements the application layer for mark.
package app

import (
	"context"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/mark/internal/core/domain"
	"go.trai.ch/mark/internal/core/ports"
	"go.trai.ch/mark/internal/engine/resolver"
	"go.trai.ch/mark/internal/engine/tasks"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	executor     ports.Executor
	logger       ports.Logger
	stores       ports.MarkerStoreFactory
	trackers     ports.TrackerFactory
	watcher      ports.Watcher

	teaOptions []tea.ProgramOption
	stdout     io.Writer
	stderr     io.Writer
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	executor ports.Executor,
	log ports.Logger,
	stores ports.MarkerStoreFactory,
	trackers ports.TrackerFactory,
	watcher ports.Watcher,
) *App {
	return &App{
		configLoader: loader,
		executor:     executor,
		logger:       log,
		stores:       stores,
		trackers:     trackers,
		watcher:      watcher,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
	}
}

// WithTeaOptions adds bubbletea program options.
// This is primarily used for testing to disable input/output.
func (a *App) WithTeaOptions(opts ...tea.ProgramOption) *App {
	a.teaOptions = append(a.teaOptions, opts...)
	return a
}

// WithOutput redirects renderer output.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// project is a loaded pipeline with its storage opened.
type project struct {
	pipeline *domain.Pipeline
	store    ports.MarkerStore
	tracker  ports.Tracker
	registry *domain.Registry
}

// open loads the pipeline found at or above dir. The metrics tracker is only
// opened when track is set, so read-only commands leave no trace.
func (a *App) open(dir string, track bool) (*project, error) {
	if dir == "" {
		dir = "."
	}
	pipeline, err := a.configLoader.Load(dir)
	if err != nil {
		return nil, err
	}

	store, err := a.stores.Open(pipeline.Root, pipeline.LockStaleAfter)
	if err != nil {
		return nil, err
	}

	p := &project{pipeline: pipeline, store: store}
	if track && a.trackers != nil {
		if p.tracker, err = a.trackers.Open(pipeline.MetricsFile); err != nil {
			return nil, err
		}
	}

	p.registry, err = tasks.NewFactory(store, a.executor, p.tracker, a.logger).Build(pipeline)
	if err != nil {
		_ = p.close(context.Background())
		return nil, err
	}
	return p, nil
}

func (p *project) close(ctx context.Context) error {
	if p.tracker == nil {
		return nil
	}
	return p.tracker.Close(ctx)
}

// graph resolves targets, falling back to the pipeline's default root.
func (p *project) graph(targets []string) (*domain.Graph, error) {
	if len(targets) == 0 {
		targets = p.pipeline.DefaultTargets
	}
	if len(targets) == 0 {
		return nil, domain.ErrNoTargetsSpecified
	}
	return resolver.Resolve(p.registry, targets...)
}
