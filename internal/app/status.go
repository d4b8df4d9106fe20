package app

import (
	"context"
	"time"

	"go.trai.ch/mark/internal/core/domain"
	"go.trai.ch/mark/internal/engine/tasks"
)

// TaskState is one row of a dry run.
type TaskState struct {
	Task string
	// Target is where the task's completion is recorded.
	Target string
	Exists bool
	// WouldRun is set when a run would invoke the task.
	WouldRun bool
	// MaterializedAt is read from the marker record, when there is one.
	MaterializedAt time.Time
}

// Status resolves targets and reports, in execution order, which targets
// exist and which tasks a run would invoke. It has no side effects.
func (a *App) Status(ctx context.Context, targets []string, dir string) ([]TaskState, error) {
	p, err := a.open(dir, false)
	if err != nil {
		return nil, err
	}
	graph, err := p.graph(targets)
	if err != nil {
		return nil, err
	}

	states := make([]TaskState, 0, graph.TaskCount())
	wouldRun := make(map[string]bool, graph.TaskCount())
	for task := range graph.Walk() {
		target := task.Output()
		exists, err := target.Exists(ctx)
		if err != nil {
			return nil, &domain.StorageError{Task: task.ID(), Op: domain.OpExists, Cause: err}
		}
		state := TaskState{
			Task:     task.ID(),
			Target:   target.Key(),
			Exists:   exists,
			WouldRun: !exists,
		}
		if agg, ok := target.(domain.Aggregate); ok && agg.Aggregate() {
			for _, dep := range graph.Dependencies(task.ID()) {
				state.WouldRun = state.WouldRun || wouldRun[dep]
			}
		}
		wouldRun[task.ID()] = state.WouldRun
		// Markers written by hand may not parse; they still count as present.
		if rec, ok := target.(tasks.Recorder); ok && exists {
			if m, err := rec.Record(ctx); err == nil && m != nil {
				state.MaterializedAt = m.MaterializedAt
			}
		}
		states = append(states, state)
	}
	return states, nil
}
