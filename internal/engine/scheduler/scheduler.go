// Package scheduler walks a validated dependency graph and brings every
// task's target into existence, running only the tasks whose target is missing.
package scheduler

import (
	"context"
	"errors"
	"maps"
	"runtime"
	"slices"
	"sync"
	"time"

	"go.trai.ch/mark/internal/core/domain"
	"go.trai.ch/mark/internal/core/ports"
)

// Options controls one run.
type Options struct {
	// Parallelism bounds concurrent task runs. Zero means runtime.NumCPU().
	Parallelism int
	// KeepGoing continues independent branches after a failure instead of
	// stopping all new scheduling.
	KeepGoing bool
	// Force re-runs the graph's roots even when their targets exist.
	Force bool
	// TaskTimeout bounds every run. Tasks implementing domain.Timeouter override it.
	TaskTimeout time.Duration
}

// Scheduler manages the execution of tasks in the dependency graph.
type Scheduler struct {
	tracer ports.Tracer

	mu         sync.RWMutex
	taskStatus map[string]domain.NodeStatus
}

// NewScheduler creates a new Scheduler reporting through tracer.
func NewScheduler(tracer ports.Tracer) *Scheduler {
	if tracer == nil {
		tracer = noopTracer{}
	}
	return &Scheduler{
		tracer:     tracer,
		taskStatus: make(map[string]domain.NodeStatus),
	}
}

// Status returns the current status of a task in the active or last run.
func (s *Scheduler) Status(id string) domain.NodeStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.taskStatus[id]
}

func (s *Scheduler) initTaskStatuses(order []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.taskStatus = make(map[string]domain.NodeStatus, len(order))
	for _, id := range order {
		s.taskStatus[id] = domain.StatusPending
	}
}

func (s *Scheduler) updateStatus(id string, to domain.NodeStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := domain.Transition(id, s.taskStatus[id], to); err != nil {
		return err
	}
	s.taskStatus[id] = to
	return nil
}

func (s *Scheduler) snapshot() map[string]domain.NodeStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.taskStatus)
}

// Run evaluates every task of graph in dependency order. A task whose
// target exists is skipped; any other task is run and, on success, its
// target is materialized. The report is returned even on failure. The error
// is the first *domain.TaskFailure or *domain.StorageError observed, joined
// with later failures under KeepGoing and with the context error when the
// run was cancelled before completing.
func (s *Scheduler) Run(ctx context.Context, graph *domain.Graph, opts Options) (*domain.Report, error) {
	if !graph.Validated() {
		return nil, domain.ErrGraphNotValidated
	}

	state := s.newRunState(ctx, graph, opts)

	s.tracer.EmitPlan(ctx, state.report.Order, state.planDeps(), graph.Roots())
	s.initTaskStatuses(state.report.Order)

	state.runExecutionLoop()

	state.report.Statuses = s.snapshot()
	return state.report, state.result()
}

type result struct {
	task    string
	err     error
	skipped bool
}

type schedulerRunState struct {
	graph       *domain.Graph
	opts        Options
	inDegree    map[string]int
	ready       []string
	active      int
	halted      bool
	ran         map[string]bool
	resultsCh   chan result
	failures    []error
	ctx         context.Context
	parallelism int
	s           *Scheduler
	report      *domain.Report
}

func (s *Scheduler) newRunState(ctx context.Context, graph *domain.Graph, opts Options) *schedulerRunState {
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	order := graph.Order()
	state := &schedulerRunState{
		graph:       graph,
		opts:        opts,
		inDegree:    make(map[string]int, len(order)),
		ran:         make(map[string]bool, len(order)),
		resultsCh:   make(chan result, parallelism),
		ctx:         ctx,
		parallelism: parallelism,
		s:           s,
		report:      domain.NewReport(order),
	}

	for _, id := range order {
		degree := len(graph.Dependencies(id))
		state.inDegree[id] = degree
		if degree == 0 {
			state.ready = append(state.ready, id)
		}
	}
	return state
}

func (state *schedulerRunState) planDeps() map[string][]string {
	deps := make(map[string][]string, len(state.report.Order))
	for _, id := range state.report.Order {
		deps[id] = state.graph.Dependencies(id)
	}
	return deps
}

// runExecutionLoop schedules ready tasks and consumes results until nothing
// is running and nothing more may start. Running tasks always report back,
// so after a halt or cancellation the loop only drains.
func (state *schedulerRunState) runExecutionLoop() {
	for {
		state.schedule()
		if state.active == 0 {
			return
		}
		state.handleResult(<-state.resultsCh)
	}
}

func (state *schedulerRunState) canSchedule() bool {
	return !state.halted && state.ctx.Err() == nil
}

func (state *schedulerRunState) schedule() {
	for len(state.ready) > 0 && state.active < state.parallelism && state.canSchedule() {
		id := state.ready[0]
		state.ready = state.ready[1:]

		state.active++
		t, _ := state.graph.GetTask(id)
		go state.executeTask(t, state.dependencyRan(id))
	}
}

// dependencyRan reports whether a dependency of id ran in this invocation.
// Only the main loop touches ran, so workers receive the answer by value.
func (state *schedulerRunState) dependencyRan(id string) bool {
	return slices.ContainsFunc(state.graph.Dependencies(id), func(dep string) bool {
		return state.ran[dep]
	})
}

// enqueue inserts id into the ready queue keeping execution order, so a
// single worker walks the topological order exactly.
func (state *schedulerRunState) enqueue(id string) {
	idx := state.graph.Index(id)
	pos, _ := slices.BinarySearchFunc(state.ready, idx, func(e string, target int) int {
		return state.graph.Index(e) - target
	})
	state.ready = slices.Insert(state.ready, pos, id)
}

func (state *schedulerRunState) handleResult(res result) {
	state.active--

	switch {
	case res.err != nil:
		state.failures = append(state.failures, res.err)
		if state.report.Failure == nil {
			state.report.Failure = res.err
		}
		if !state.opts.KeepGoing {
			state.halted = true
		}
	case res.skipped:
		state.report.Skipped = append(state.report.Skipped, res.task)
		state.release(res.task)
	default:
		state.report.Ran = append(state.report.Ran, res.task)
		state.ran[res.task] = true
		state.release(res.task)
	}
}

// release makes dependents whose dependencies are all satisfied ready.
func (state *schedulerRunState) release(id string) {
	for _, dep := range state.graph.Dependents(id) {
		state.inDegree[dep]--
		if state.inDegree[dep] == 0 {
			state.enqueue(dep)
		}
	}
}

func (state *schedulerRunState) result() error {
	var err error
	switch len(state.failures) {
	case 0:
	case 1:
		err = state.failures[0]
	default:
		err = errors.Join(state.failures...)
	}

	if ctxErr := state.ctx.Err(); ctxErr != nil && !state.complete() {
		err = errors.Join(err, ctxErr)
	}
	return err
}

func (state *schedulerRunState) complete() bool {
	return len(state.report.Ran)+len(state.report.Skipped) == len(state.report.Order)
}

func (state *schedulerRunState) executeTask(t domain.Task, depRan bool) {
	// The span must end before the result is sent, so renderers see the
	// completion before the scheduler can return.
	res := func() result {
		ctx, span := state.s.tracer.Start(state.ctx, t.ID())
		defer span.End()

		res := state.evaluate(ctx, t, span, depRan)
		switch {
		case res.err != nil:
			span.RecordError(res.err)
		case res.skipped:
			span.SetAttribute(ports.SkippedAttribute, true)
		}
		return res
	}()

	state.resultsCh <- res
}

// evaluate decides whether t must run and, if so, runs and materializes it.
// depRan is set when one of t's dependencies ran in this invocation.
func (state *schedulerRunState) evaluate(ctx context.Context, t domain.Task, span ports.Span, depRan bool) result {
	id := t.ID()
	target := t.Output()
	force := state.opts.Force && state.graph.IsRoot(id)
	if agg, ok := target.(domain.Aggregate); ok && agg.Aggregate() && depRan {
		force = true
	}

	if !force {
		exists, err := target.Exists(ctx)
		if err != nil {
			return state.fail(id, &domain.StorageError{Task: id, Op: domain.OpExists, Cause: err})
		}
		if exists {
			return state.skip(id)
		}
	}

	if locker, ok := target.(domain.Locker); ok {
		unlock, err := locker.Lock(ctx)
		if err != nil {
			return state.fail(id, &domain.StorageError{Task: id, Op: domain.OpLock, Cause: err})
		}
		defer unlock()

		// Another invocation may have completed the target while we waited.
		if !force {
			exists, err := target.Exists(ctx)
			if err != nil {
				return state.fail(id, &domain.StorageError{Task: id, Op: domain.OpExists, Cause: err})
			}
			if exists {
				return state.skip(id)
			}
		}
	}

	if err := state.s.updateStatus(id, domain.StatusRunning); err != nil {
		return result{task: id, err: err}
	}

	if err := clean(ctx, target); err != nil {
		return state.fail(id, &domain.StorageError{Task: id, Op: domain.OpClean, Cause: err})
	}

	if err := state.run(ctx, t, span); err != nil {
		return state.fail(id, withCleanup(ctx, id, target, err))
	}

	if err := target.Materialize(ctx); err != nil {
		failure := &domain.StorageError{Task: id, Op: domain.OpMaterialize, Cause: err}
		return state.fail(id, withCleanup(ctx, id, target, failure))
	}

	if err := state.s.updateStatus(id, domain.StatusDone); err != nil {
		return result{task: id, err: err}
	}
	return result{task: id}
}

// run invokes t under its deadline and classifies the failure.
func (state *schedulerRunState) run(ctx context.Context, t domain.Task, span ports.Span) error {
	timeout := state.opts.TaskTimeout
	if tt, ok := t.(domain.Timeouter); ok && tt.Timeout() > 0 {
		timeout = tt.Timeout()
	}

	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	err := t.Run(runCtx, span)
	if err == nil {
		return nil
	}

	timedOut := errors.Is(err, domain.ErrTaskTimeout) ||
		errors.Is(runCtx.Err(), context.DeadlineExceeded)
	return &domain.TaskFailure{Task: t.ID(), Cause: err, Timeout: timedOut}
}

func (state *schedulerRunState) skip(id string) result {
	if err := state.s.updateStatus(id, domain.StatusSkipped); err != nil {
		return result{task: id, err: err}
	}
	return result{task: id, skipped: true}
}

func (state *schedulerRunState) fail(id string, err error) result {
	if tErr := state.s.updateStatus(id, domain.StatusFailed); tErr != nil {
		err = errors.Join(err, tErr)
	}
	return result{task: id, err: err}
}

func clean(ctx context.Context, target domain.Target) error {
	if c, ok := target.(domain.Cleaner); ok {
		return c.Clean(ctx)
	}
	return nil
}

// withCleanup removes partial output after a failure. A cleanup error is
// joined behind the original failure so the failure stays first.
func withCleanup(ctx context.Context, id string, target domain.Target, failure error) error {
	if err := clean(context.WithoutCancel(ctx), target); err != nil {
		return errors.Join(failure, &domain.StorageError{Task: id, Op: domain.OpClean, Cause: err})
	}
	return failure
}
