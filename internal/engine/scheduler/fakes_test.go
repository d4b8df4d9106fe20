package scheduler_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.trai.ch/mark/internal/core/domain"
	"go.trai.ch/mark/internal/engine/resolver"
)

// memTarget is an in-memory marker shared between invocations of a test.
type memTarget struct {
	key string

	mu             sync.Mutex
	present        bool
	existsErr      error
	materializeErr error
	cleans         int
	materialized   int
}

func (m *memTarget) Key() string { return m.key }

func (m *memTarget) Exists(context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.present, m.existsErr
}

func (m *memTarget) Materialize(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.materializeErr != nil {
		return m.materializeErr
	}
	m.present = true
	m.materialized++
	return nil
}

func (m *memTarget) Clean(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleans++
	return nil
}

func (m *memTarget) isPresent() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.present
}

// fakeTask counts runs and delegates to an optional body.
type fakeTask struct {
	id      string
	deps    []string
	target  domain.Target
	timeout time.Duration
	body    func(ctx context.Context, out io.Writer) error

	mu   sync.Mutex
	runs int
}

func (f *fakeTask) ID() string { return f.id }

func (f *fakeTask) Dependencies() []string { return f.deps }

func (f *fakeTask) Output() domain.Target { return f.target }

func (f *fakeTask) Run(ctx context.Context, out io.Writer) error {
	f.mu.Lock()
	f.runs++
	f.mu.Unlock()
	if f.body != nil {
		return f.body(ctx, out)
	}
	return nil
}

func (f *fakeTask) Runs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs
}

type timedTask struct {
	*fakeTask
}

func (t timedTask) Timeout() time.Duration { return t.timeout }

// world holds tasks and targets that survive across invocations.
type world struct {
	tasks   map[string]*fakeTask
	targets map[string]*memTarget
	order   []string
}

func newWorld() *world {
	return &world{
		tasks:   make(map[string]*fakeTask),
		targets: make(map[string]*memTarget),
	}
}

func (w *world) add(id string, deps ...string) *fakeTask {
	target := &memTarget{key: "m_" + id}
	t := &fakeTask{id: id, deps: deps, target: target}
	w.tasks[id] = t
	w.targets[id] = target
	w.order = append(w.order, id)
	return t
}

func (w *world) registry(t *testing.T) *domain.Registry {
	t.Helper()
	reg, err := domain.NewRegistry()
	require.NoError(t, err)
	for _, id := range w.order {
		var task domain.Task = w.tasks[id]
		if w.tasks[id].timeout > 0 {
			task = timedTask{w.tasks[id]}
		}
		require.NoError(t, reg.Register(task))
	}
	return reg
}

func (w *world) graph(t *testing.T, roots ...string) *domain.Graph {
	t.Helper()
	g, err := resolver.Resolve(w.registry(t), roots...)
	require.NoError(t, err)
	return g
}

func (w *world) totalRuns() int {
	n := 0
	for _, task := range w.tasks {
		n += task.Runs()
	}
	return n
}

// recorder captures the order tasks start in.
type recorder struct {
	mu      sync.Mutex
	started []string
}

func (r *recorder) record(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, id)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.started...)
}
