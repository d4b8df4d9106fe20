package telemetry

import "time"

// MsgInitTasks carries the resolved plan.
type MsgInitTasks struct {
	Tasks        []string
	Dependencies map[string][]string
	Targets      []string
}

// MsgTaskStart indicates a task span has started.
type MsgTaskStart struct {
	SpanID    string
	ParentID  string // empty for top-level tasks
	Name      string
	StartTime time.Time
}

// MsgTaskLog carries a chunk of output for a specific task.
type MsgTaskLog struct {
	SpanID string
	Data   []byte
}

// MsgTaskComplete indicates a task span has finished.
type MsgTaskComplete struct {
	SpanID  string
	EndTime time.Time
	Skipped bool
	Err     error
}
