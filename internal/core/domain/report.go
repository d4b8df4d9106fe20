package domain

// Report is the outcome of one engine run. It is returned even when the
// run fails, so callers can tell what completed before the abort.
type Report struct {
	Order    []string
	Statuses map[string]NodeStatus
	// Ran lists tasks that reached Done, in completion order.
	Ran []string
	// Skipped lists tasks whose target already existed, in completion order.
	Skipped []string
	// Failure is the first failure observed, or nil.
	Failure error
}

// NewReport returns a report with every task in order marked pending.
func NewReport(order []string) *Report {
	r := &Report{
		Order:    order,
		Statuses: make(map[string]NodeStatus, len(order)),
	}
	for _, id := range order {
		r.Statuses[id] = StatusPending
	}
	return r
}

// Succeeded reports whether every task was skipped or done.
func (r *Report) Succeeded() bool {
	if r.Failure != nil {
		return false
	}
	for _, s := range r.Statuses {
		if !s.Satisfied() {
			return false
		}
	}
	return true
}

// Status returns the final status of id.
func (r *Report) Status(id string) NodeStatus {
	return r.Statuses[id]
}

// FailedTask returns the id of the first failed task.
func (r *Report) FailedTask() string {
	id, _ := FailedTask(r.Failure)
	return id
}

// Count returns how many tasks ended in status s.
func (r *Report) Count(s NodeStatus) int {
	n := 0
	for _, st := range r.Statuses {
		if st == s {
			n++
		}
	}
	return n
}
