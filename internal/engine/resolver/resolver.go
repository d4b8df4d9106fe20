// Package resolver expands a task registry into the dependency graph of one invocation.
package resolver

import (
	"slices"

	"go.trai.ch/mark/internal/core/domain"
)

// Resolve builds the graph of roots and their transitive dependencies.
// Tasks reachable through several paths are added once. The returned graph
// is validated: on a cycle the error is a *domain.CycleError and no graph is
// returned. The root "all" selects every registered task.
func Resolve(reg *domain.Registry, roots ...string) (*domain.Graph, error) {
	if len(roots) == 0 {
		return nil, domain.ErrNoTargetsSpecified
	}
	if slices.Contains(roots, domain.AllTasks) {
		roots = reg.IDs()
	}

	targets := make([]string, 0, len(roots))
	for _, r := range roots {
		if _, ok := reg.Lookup(r); !ok {
			return nil, domain.Annotate(domain.ErrTaskNotFound, "task", r)
		}
		if !slices.Contains(targets, r) {
			targets = append(targets, r)
		}
	}

	tasks, err := collectDependencies(reg, targets)
	if err != nil {
		return nil, err
	}

	graph := domain.NewGraph()
	for _, t := range tasks {
		if err := graph.AddTask(t); err != nil {
			return nil, err
		}
	}
	graph.SetRoots(targets...)

	if err := graph.Validate(); err != nil {
		return nil, err
	}
	return graph, nil
}

// collectDependencies walks the registry breadth-first from targets.
func collectDependencies(reg *domain.Registry, targets []string) ([]domain.Task, error) {
	queue := slices.Clone(targets)
	visited := make(map[string]bool, len(targets))
	for _, t := range targets {
		visited[t] = true
	}

	var collected []domain.Task
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		task, _ := reg.Lookup(current)
		collected = append(collected, task)

		for _, dep := range task.Dependencies() {
			if visited[dep] {
				continue
			}
			if _, ok := reg.Lookup(dep); !ok {
				return nil, domain.Annotate(domain.ErrMissingDependency, "task", current, "dependency", dep)
			}
			visited[dep] = true
			queue = append(queue, dep)
		}
	}
	return collected, nil
}
