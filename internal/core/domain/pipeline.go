package domain

import "time"

// Pipeline is the validated content of a mark.yaml file.
type Pipeline struct {
	// Root is the directory containing the config file.
	Root string
	// DefaultTargets run when no target is named on the command line.
	DefaultTargets []string
	Parallelism    int
	TaskTimeout    time.Duration
	LockStaleAfter time.Duration
	MetricsFile    string
	Tasks          []TaskSpec
}

// TaskSpec declares one task. A spec without a command is a wrapper that is
// complete when its dependencies are.
type TaskSpec struct {
	Name         string
	Command      []string
	Dependencies []string
	// Marker is a path the engine writes after a successful run.
	Marker string
	// Output is a path the command itself produces.
	Output     string
	Timeout    time.Duration
	Env        map[string]string
	WorkingDir string
	// Metrics is a path the command may write a JSON object of numbers to.
	Metrics string
}

// IsWrapper reports whether the task has no command of its own.
func (s *TaskSpec) IsWrapper() bool {
	return len(s.Command) == 0
}

// Spec returns the task spec with the given name.
func (p *Pipeline) Spec(name string) (*TaskSpec, bool) {
	for i := range p.Tasks {
		if p.Tasks[i].Name == name {
			return &p.Tasks[i], true
		}
	}
	return nil, false
}
