package telemetry_test

import (
	"sync"
	"time"
)

// recordedEvents captures task events as readable strings.
type recordedEvents struct {
	mu     sync.Mutex
	events []string
	logs   map[string][]byte
	plans  [][]string
}

func newRecordedEvents() *recordedEvents {
	return &recordedEvents{logs: make(map[string][]byte)}
}

func (r *recordedEvents) OnPlanEmit(tasks []string, _ map[string][]string, _ []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans = append(r.plans, tasks)
	r.events = append(r.events, "plan")
}

func (r *recordedEvents) OnTaskStart(_, _, name string, _ time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "start:"+name)
}

func (r *recordedEvents) OnTaskLog(spanID string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs[spanID] = append(r.logs[spanID], data...)
	r.events = append(r.events, "log")
}

func (r *recordedEvents) OnTaskComplete(_ string, _ time.Time, skipped bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case err != nil:
		r.events = append(r.events, "failed:"+err.Error())
	case skipped:
		r.events = append(r.events, "skipped")
	default:
		r.events = append(r.events, "done")
	}
}

func (r *recordedEvents) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recordedEvents) log(spanID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return string(r.logs[spanID])
}
