package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/mark/internal/adapters/detector"
	"go.trai.ch/mark/internal/adapters/linear"
	"go.trai.ch/mark/internal/adapters/telemetry"
	"go.trai.ch/mark/internal/adapters/tui"
	"go.trai.ch/mark/internal/core/domain"
	"go.trai.ch/mark/internal/core/ports"
	"go.trai.ch/mark/internal/engine/scheduler"
	"golang.org/x/sync/errgroup"
)

// RunOptions configures one run.
type RunOptions struct {
	// Dir is where the search for mark.yaml starts. Empty means ".".
	Dir       string
	Force     bool
	KeepGoing bool
	// Parallelism overrides the pipeline setting when positive.
	Parallelism int
	// TaskTimeout overrides the pipeline setting when positive.
	TaskTimeout time.Duration
	OutputMode  detector.OutputMode
	// Inspect keeps the TUI open after the run until the user quits.
	Inspect bool
}

// Run ensures targets, or the pipeline's default root, are complete. The
// report is returned whenever the graph was resolved, even on failure.
func (a *App) Run(ctx context.Context, targets []string, opts RunOptions) (*domain.Report, error) {
	p, err := a.open(opts.Dir, true)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := p.close(context.WithoutCancel(ctx)); cerr != nil {
			a.logger.Warn(cerr.Error())
		}
	}()

	return a.run(ctx, p, targets, opts)
}

func (a *App) run(ctx context.Context, p *project, targets []string, opts RunOptions) (*domain.Report, error) {
	graph, err := p.graph(targets)
	if err != nil {
		return nil, err
	}

	renderer := a.renderer(ctx, opts.OutputMode)

	queue := telemetry.NewQueue(renderer, 0)
	provider := telemetry.NewTracerProvider(queue)
	tracer := telemetry.NewOTelTracer(provider).WithEvents(queue)
	sched := scheduler.NewScheduler(tracer)

	schedOpts := scheduler.Options{
		Parallelism: p.pipeline.Parallelism,
		KeepGoing:   opts.KeepGoing,
		Force:       opts.Force,
		TaskTimeout: p.pipeline.TaskTimeout,
	}
	if opts.Parallelism > 0 {
		schedOpts.Parallelism = opts.Parallelism
	}
	if opts.TaskTimeout > 0 {
		schedOpts.TaskTimeout = opts.TaskTimeout
	}

	var (
		report   *domain.Report
		finished atomic.Bool
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := renderer.Start(gctx); err != nil {
			return err
		}
		err := renderer.Wait()
		if errors.Is(err, domain.ErrInterrupted) && finished.Load() {
			return nil
		}
		return err
	})

	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				_, _ = fmt.Fprintf(a.stderr, "scheduler panic: %v\n", r)
				err = domain.Annotate(domain.ErrPipelineFailed, "panic", fmt.Sprint(r))
			}
			_ = provider.Shutdown(context.WithoutCancel(gctx))
			queue.Close()
			finished.Store(true)
			if !opts.Inspect {
				_ = renderer.Stop()
			}
		}()

		report, err = sched.Run(gctx, graph, schedOpts)
		if err != nil {
			return domain.Wrap(domain.ErrPipelineFailed, err)
		}
		return nil
	})

	err = g.Wait()
	if report == nil {
		report = domain.NewReport(graph.Order())
	}
	return report, err
}

func (a *App) renderer(ctx context.Context, requested detector.OutputMode) ports.Renderer {
	mode := detector.ResolveMode(detector.DetectEnvironment(), requested)
	if mode == detector.ModeTUI {
		opts := append([]tea.ProgramOption{tea.WithContext(ctx)}, a.teaOptions...)
		return tui.NewRenderer(tui.NewModel(), opts...)
	}
	return linear.NewRenderer(a.stdout, a.stderr)
}
