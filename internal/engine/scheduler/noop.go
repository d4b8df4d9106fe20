package scheduler

import (
	"context"

	"go.trai.ch/mark/internal/core/ports"
)

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, ports.Span) {
	return ctx, noopSpan{}
}

func (noopTracer) EmitPlan(context.Context, []string, map[string][]string, []string) {}

type noopSpan struct{}

func (noopSpan) Write(p []byte) (int, error) { return len(p), nil }

func (noopSpan) End() {}

func (noopSpan) RecordError(error) {}

func (noopSpan) SetAttribute(string, any) {}
