package domain

import (
	"context"
	"io"
	"time"
)

// Target is a durable completion marker. Its existence is the only signal
// the engine uses to decide that a task is already done.
//
//go:generate mockgen -source=task.go -destination=mocks/mock_task.go -package=mocks
type Target interface {
	// Key identifies the target for logs and locks.
	Key() string
	// Exists reports whether the marker is present. It has no side effects.
	Exists(ctx context.Context) (bool, error)
	// Materialize records completion. It is atomic and idempotent.
	Materialize(ctx context.Context) error
}

// Task is a named unit of work with dependencies and exactly one output.
type Task interface {
	ID() string
	// Dependencies returns the ids of the tasks that must be complete first.
	Dependencies() []string
	Output() Target
	// Run performs the side effect. It never materializes its own output.
	Run(ctx context.Context, out io.Writer) error
}

// Cleaner is implemented by targets that can remove stale or partial output.
type Cleaner interface {
	Clean(ctx context.Context) error
}

// Locker is implemented by targets that support cross-process exclusion.
// The returned unlock func must be called exactly once.
type Locker interface {
	Lock(ctx context.Context) (func(), error)
}

// Timeouter is implemented by tasks that carry their own run deadline.
type Timeouter interface {
	Timeout() time.Duration
}

// Aggregate is implemented by targets whose existence derives from their
// dependencies' targets. An aggregate task runs whenever one of its
// dependencies ran in the same invocation, and is skipped otherwise.
type Aggregate interface {
	Aggregate() bool
}
