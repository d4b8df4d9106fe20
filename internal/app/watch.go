package app

import (
	"context"
	"fmt"
	"path/filepath"

	"go.trai.ch/mark/internal/adapters/detector"
	"go.trai.ch/mark/internal/core/ports"
)

// Watch runs targets once, then again whenever files below the project root
// change. Run failures are logged and watching continues. It returns when
// ctx is cancelled.
func (a *App) Watch(ctx context.Context, targets []string, opts RunOptions) error {
	p, err := a.open(opts.Dir, true)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := p.close(context.WithoutCancel(ctx)); cerr != nil {
			a.logger.Warn(cerr.Error())
		}
	}()

	if opts.OutputMode == detector.ModeAuto {
		opts.OutputMode = detector.ModeLinear
	}
	opts.Inspect = false

	runOnce := func() {
		if _, err := a.run(ctx, p, targets, opts); err != nil && ctx.Err() == nil {
			a.logger.Error(err)
		}
	}
	runOnce()

	if err := a.watcher.Start(ctx, p.pipeline.Root); err != nil {
		return err
	}
	defer func() { _ = a.watcher.Stop() }()

	ignore := p.targetPaths()
	a.logger.Info("watching for changes")

	for batch := range a.watcher.Events() {
		changed := relevant(batch, ignore)
		if len(changed) == 0 {
			continue
		}
		a.logger.Info(fmt.Sprintf("%d file(s) changed, re-running", len(changed)))
		runOnce()
	}
	return nil
}

// targetPaths returns the files the pipeline itself writes, so that
// materializing a target does not trigger another run.
func (p *project) targetPaths() map[string]bool {
	paths := make(map[string]bool)
	for _, id := range p.registry.IDs() {
		task, _ := p.registry.Lookup(id)
		if key := task.Output().Key(); filepath.IsAbs(key) {
			paths[filepath.Clean(key)] = true
		}
	}
	if p.pipeline.MetricsFile != "" {
		paths[filepath.Clean(p.pipeline.MetricsFile)] = true
	}
	for _, spec := range p.pipeline.Tasks {
		if spec.Metrics == "" {
			continue
		}
		path := spec.Metrics
		if !filepath.IsAbs(path) {
			path = filepath.Join(p.pipeline.Root, path)
		}
		paths[filepath.Clean(path)] = true
	}
	return paths
}

func relevant(batch []ports.WatchEvent, ignore map[string]bool) []ports.WatchEvent {
	var out []ports.WatchEvent
	for _, e := range batch {
		if !ignore[filepath.Clean(e.Path)] {
			out = append(out, e)
		}
	}
	return out
}
