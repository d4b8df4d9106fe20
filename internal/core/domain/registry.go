package domain

import (
	"regexp"
	"slices"
	"sort"
)

// AllTasks is the reserved target that selects every registered task.
const AllTasks = "all"

var taskIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.\-]*$`)

// ValidateTaskID checks that id is usable as a task identity.
func ValidateTaskID(id string) error {
	if id == AllTasks {
		return ErrReservedTaskName
	}
	if !taskIDPattern.MatchString(id) {
		return Annotate(ErrInvalidTaskName, "task", id)
	}
	return nil
}

// Registry maps task ids to tasks. It is built by the caller and passed to
// the resolver; there is no package-level registry.
type Registry struct {
	tasks map[string]Task
}

// NewRegistry returns a registry holding the given tasks.
func NewRegistry(tasks ...Task) (*Registry, error) {
	r := &Registry{tasks: make(map[string]Task, len(tasks))}
	for _, t := range tasks {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a task. Ids must be valid and unique.
func (r *Registry) Register(t Task) error {
	if t == nil || t.Output() == nil {
		return ErrNilTask
	}
	id := t.ID()
	if err := ValidateTaskID(id); err != nil {
		return err
	}
	if _, exists := r.tasks[id]; exists {
		return Annotate(ErrTaskAlreadyExists, "task", id)
	}
	r.tasks[id] = t
	return nil
}

// Lookup returns the task registered under id.
func (r *Registry) Lookup(id string) (Task, bool) {
	t, ok := r.tasks[id]
	return t, ok
}

// IDs returns every registered id in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.tasks))
	for id := range r.tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered tasks.
func (r *Registry) Len() int {
	return len(r.tasks)
}

// Has reports whether every id is registered.
func (r *Registry) Has(ids ...string) bool {
	return !slices.ContainsFunc(ids, func(id string) bool {
		_, ok := r.tasks[id]
		return !ok
	})
}
