// Package domain contains the core domain models and business logic for the task dependency graph.
package domain

import (
	"iter"
	"slices"
	"sort"
)

const (
	white = iota // unvisited
	grey         // in progress
	black        // done
)

// Graph is the dependency graph of one invocation. It is built once,
// validated, and never mutated while the engine walks it.
type Graph struct {
	tasks          map[InternedString]Task
	deps           map[InternedString][]InternedString
	dependents     map[InternedString][]InternedString
	roots          []InternedString
	executionOrder []InternedString
	index          map[InternedString]int
	validated      bool
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		tasks:      make(map[InternedString]Task),
		deps:       make(map[InternedString][]InternedString),
		dependents: make(map[InternedString][]InternedString),
	}
}

// AddTask adds a task to the graph.
// It returns an error if a task with the same id already exists.
func (g *Graph) AddTask(t Task) error {
	name := NewInternedString(t.ID())
	if _, exists := g.tasks[name]; exists {
		return Annotate(ErrTaskAlreadyExists, "task", t.ID())
	}
	g.tasks[name] = t

	var deps []InternedString
	for _, d := range t.Dependencies() {
		dep := NewInternedString(d)
		if !slices.Contains(deps, dep) {
			deps = append(deps, dep)
		}
	}
	g.deps[name] = deps
	g.validated = false
	return nil
}

// SetRoots records the tasks the invocation was asked to complete.
func (g *Graph) SetRoots(ids ...string) {
	g.roots = NewInternedStrings(ids)
}

// Roots returns the requested tasks.
func (g *Graph) Roots() []string {
	out := make([]string, len(g.roots))
	for i, r := range g.roots {
		out[i] = r.String()
	}
	return out
}

// IsRoot reports whether id was requested directly.
func (g *Graph) IsRoot(id string) bool {
	return slices.Contains(g.roots, NewInternedString(id))
}

// Validate checks for missing dependencies and cycles using a three-colour
// depth-first search, and computes the execution order. Nodes are visited in
// sorted id order and dependencies in declared order, so the same graph
// always yields the same order.
func (g *Graph) Validate() error {
	g.executionOrder = make([]InternedString, 0, len(g.tasks))
	g.index = make(map[InternedString]int, len(g.tasks))
	g.dependents = make(map[InternedString][]InternedString, len(g.tasks))
	g.validated = false

	color := make(map[InternedString]int, len(g.tasks))
	var path []InternedString

	var visit func(u InternedString) error
	visit = func(u InternedString) error {
		color[u] = grey
		path = append(path, u)

		for _, dep := range g.deps[u] {
			if _, exists := g.tasks[dep]; !exists {
				return Annotate(ErrMissingDependency, "task", u.String(), "dependency", dep.String())
			}
			switch color[dep] {
			case grey:
				return buildCycleError(path, dep)
			case white:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		color[u] = black
		path = path[:len(path)-1]
		g.index[u] = len(g.executionOrder)
		g.executionOrder = append(g.executionOrder, u)
		return nil
	}

	for _, name := range g.sortedNames() {
		if color[name] == white {
			if err := visit(name); err != nil {
				g.executionOrder = nil
				g.index = nil
				return err
			}
		}
	}

	for _, name := range g.executionOrder {
		for _, dep := range g.deps[name] {
			g.dependents[dep] = append(g.dependents[dep], name)
		}
	}
	g.validated = true
	return nil
}

func (g *Graph) sortedNames() []InternedString {
	names := make([]InternedString, 0, len(g.tasks))
	for name := range g.tasks {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return names[i].String() < names[j].String()
	})
	return names
}

// buildCycleError turns the DFS path plus the back-edge target into a closed cycle.
func buildCycleError(path []InternedString, dep InternedString) error {
	start := slices.Index(path, dep)
	cycle := make([]string, 0, len(path)-start+1)
	for _, node := range path[start:] {
		cycle = append(cycle, node.String())
	}
	cycle = append(cycle, dep.String())
	return &CycleError{Cycle: cycle}
}

// Validated reports whether the last Validate call succeeded.
func (g *Graph) Validated() bool {
	return g.validated
}

// Walk returns an iterator that yields tasks in execution order.
// It assumes Validate() has been called and returned nil.
func (g *Graph) Walk() iter.Seq[Task] {
	return func(yield func(Task) bool) {
		for _, name := range g.executionOrder {
			if !yield(g.tasks[name]) {
				return
			}
		}
	}
}

// Order returns the task ids in execution order.
func (g *Graph) Order() []string {
	out := make([]string, len(g.executionOrder))
	for i, name := range g.executionOrder {
		out[i] = name.String()
	}
	return out
}

// Index returns the position of id in the execution order, or -1.
func (g *Graph) Index(id string) int {
	if i, ok := g.index[NewInternedString(id)]; ok {
		return i
	}
	return -1
}

// GetTask returns the task with the given id.
func (g *Graph) GetTask(id string) (Task, bool) {
	t, ok := g.tasks[NewInternedString(id)]
	return t, ok
}

// Dependencies returns the deduplicated dependencies of id in declared order.
func (g *Graph) Dependencies(id string) []string {
	return toStrings(g.deps[NewInternedString(id)])
}

// Dependents returns the tasks that depend directly on id, in execution order.
func (g *Graph) Dependents(id string) []string {
	return toStrings(g.dependents[NewInternedString(id)])
}

// TaskCount returns the number of tasks in the graph.
func (g *Graph) TaskCount() int {
	return len(g.tasks)
}

func toStrings(in []InternedString) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = s.String()
	}
	return out
}
