package domain

// NodeStatus is the lifecycle state of one task during a run.
type NodeStatus uint8

const (
	// StatusPending means the task has not been evaluated yet.
	StatusPending NodeStatus = iota
	// StatusRunning means the task's run is in progress.
	StatusRunning
	// StatusDone means the task ran and its target was materialized.
	StatusDone
	// StatusSkipped means the task's target already existed.
	StatusSkipped
	// StatusFailed means the task's run or its target storage failed.
	StatusFailed
)

var statusNames = [...]string{
	StatusPending: "pending",
	StatusRunning: "running",
	StatusDone:    "done",
	StatusSkipped: "skipped",
	StatusFailed:  "failed",
}

func (s NodeStatus) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// IsTerminal reports whether no further transition is possible.
func (s NodeStatus) IsTerminal() bool {
	return s == StatusDone || s == StatusSkipped || s == StatusFailed
}

// Satisfied reports whether dependents may start.
func (s NodeStatus) Satisfied() bool {
	return s == StatusDone || s == StatusSkipped
}

// Pending -> Failed is reserved for storage errors raised before a run starts.
var allowedTransitions = map[NodeStatus][]NodeStatus{
	StatusPending: {StatusSkipped, StatusRunning, StatusFailed},
	StatusRunning: {StatusDone, StatusFailed},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to NodeStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition validates a status change for the named task.
func Transition(task string, from, to NodeStatus) error {
	if !CanTransition(from, to) {
		return Annotate(ErrInvalidTransition, "task", task, "from", from.String(), "to", to.String())
	}
	return nil
}
