package app

import (
	"context"
	"errors"
	"fmt"

	"go.trai.ch/mark/internal/core/domain"
	"go.trai.ch/mark/internal/engine/tasks"
)

// CleanOptions configures Clean.
type CleanOptions struct {
	Dir string
	// All cleans every task of the pipeline.
	All bool
	// Outputs also removes files produced by tasks with an output target.
	// Without it only their markers go and the files stay on disk.
	Outputs bool
}

// Clean removes the markers of the named tasks so the next run re-executes
// them. Dependencies are left alone. It returns the cleaned task ids.
func (a *App) Clean(ctx context.Context, targets []string, opts CleanOptions) ([]string, error) {
	p, err := a.open(opts.Dir, false)
	if err != nil {
		return nil, err
	}

	ids := targets
	if opts.All {
		ids = p.registry.IDs()
	}
	if len(ids) == 0 {
		return nil, domain.ErrNoTargetsSpecified
	}

	var (
		cleaned []string
		errs    error
	)
	for _, id := range ids {
		task, ok := p.registry.Lookup(id)
		if !ok {
			return cleaned, domain.Annotate(domain.ErrTaskNotFound, "task", id)
		}

		target := task.Output()
		inv, ok := target.(tasks.Invalidator)
		if !ok {
			continue
		}
		invalidate := inv.Invalidate
		if ft, isOutput := target.(*tasks.FileTarget); isOutput && opts.Outputs {
			invalidate = ft.Clean
		}

		if err := invalidate(ctx); err != nil {
			errs = errors.Join(errs, &domain.StorageError{Task: id, Op: domain.OpClean, Cause: err})
			continue
		}
		cleaned = append(cleaned, id)
		a.logger.Info(fmt.Sprintf("cleaned %s", id))
	}

	if opts.All {
		orphans, err := p.removeOrphans(ctx)
		for _, id := range orphans {
			a.logger.Info(fmt.Sprintf("removed marker of retired task %s", id))
		}
		cleaned = append(cleaned, orphans...)
		errs = errors.Join(errs, err)
	}
	return cleaned, errs
}

// removeOrphans deletes store markers whose task is no longer declared.
func (p *project) removeOrphans(ctx context.Context) ([]string, error) {
	markers, err := p.store.List(ctx)
	if err != nil {
		return nil, err
	}

	var (
		removed []string
		errs    error
	)
	for _, m := range markers {
		if _, declared := p.registry.Lookup(m.Task); declared {
			continue
		}
		if err := p.store.Remove(ctx, p.store.Path(m.Task)); err != nil {
			errs = errors.Join(errs, &domain.StorageError{Task: m.Task, Op: domain.OpClean, Cause: err})
			continue
		}
		removed = append(removed, m.Task)
	}
	return removed, errs
}
