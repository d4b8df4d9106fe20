package telemetry

import (
	"sync"
	"time"

	"go.trai.ch/mark/internal/core/ports"
)

// LogBufferSize is the default capacity of a Queue.
const LogBufferSize = 4096

// Queue forwards task events to a consumer on a single goroutine, so the
// consumer sees them in the order they were produced and workers never wait
// on rendering. Plan, start and completion events are never dropped. Log
// chunks are dropped when the queue is full.
type Queue struct {
	events ports.TaskEvents
	ch     chan any
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

var _ ports.TaskEvents = (*Queue)(nil)

// NewQueue starts forwarding to events. size <= 0 uses LogBufferSize.
func NewQueue(events ports.TaskEvents, size int) *Queue {
	if size <= 0 {
		size = LogBufferSize
	}
	q := &Queue{
		events: events,
		ch:     make(chan any, size),
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.done)
	for msg := range q.ch {
		switch m := msg.(type) {
		case MsgInitTasks:
			q.events.OnPlanEmit(m.Tasks, m.Dependencies, m.Targets)
		case MsgTaskStart:
			q.events.OnTaskStart(m.SpanID, m.ParentID, m.Name, m.StartTime)
		case MsgTaskLog:
			q.events.OnTaskLog(m.SpanID, m.Data)
		case MsgTaskComplete:
			q.events.OnTaskComplete(m.SpanID, m.EndTime, m.Skipped, m.Err)
		}
	}
}

func (q *Queue) send(msg any, mayDrop bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return
	}
	if !mayDrop {
		q.ch <- msg
		return
	}
	select {
	case q.ch <- msg:
	default:
	}
}

// OnPlanEmit queues the plan.
func (q *Queue) OnPlanEmit(tasks []string, deps map[string][]string, targets []string) {
	q.send(MsgInitTasks{Tasks: tasks, Dependencies: deps, Targets: targets}, false)
}

// OnTaskStart queues a start event.
func (q *Queue) OnTaskStart(spanID, parentID, name string, startTime time.Time) {
	q.send(MsgTaskStart{SpanID: spanID, ParentID: parentID, Name: name, StartTime: startTime}, false)
}

// OnTaskLog queues a log chunk, dropping it when the queue is full.
func (q *Queue) OnTaskLog(spanID string, data []byte) {
	q.send(MsgTaskLog{SpanID: spanID, Data: data}, true)
}

// OnTaskComplete queues a completion event.
func (q *Queue) OnTaskComplete(spanID string, endTime time.Time, skipped bool, err error) {
	q.send(MsgTaskComplete{SpanID: spanID, EndTime: endTime, Skipped: skipped, Err: err}, false)
}

// Close stops accepting events and blocks until every queued event has been
// delivered. It is safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	q.mu.Unlock()
	<-q.done
}
