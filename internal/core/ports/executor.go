// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"

	"go.trai.ch/mark/internal/core/domain"
)

// Executor runs the command of a task spec.
//
//go:generate mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs spec.Command with the given extra environment ("KEY=VALUE").
	// A non-zero exit status is returned as an error; output is not parsed.
	Execute(ctx context.Context, spec *domain.TaskSpec, env []string, stdout, stderr io.Writer) error
}
