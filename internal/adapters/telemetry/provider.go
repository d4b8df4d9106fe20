package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/mark/internal/core/ports"
)

// InstrumentationName names the tracer the engine's spans come from.
const InstrumentationName = "go.trai.ch/mark"

// NewTracerProvider returns an SDK provider whose spans are reported to
// events through a Bridge.
func NewTracerProvider(events ports.TaskEvents) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(NewBridge(events)))
}

// OTelTracer is a ports.Tracer backed by OpenTelemetry.
type OTelTracer struct {
	tracer trace.Tracer
	events ports.TaskEvents
}

var _ ports.Tracer = (*OTelTracer)(nil)

// NewOTelTracer creates a tracer from provider.
func NewOTelTracer(provider trace.TracerProvider) *OTelTracer {
	return &OTelTracer{tracer: provider.Tracer(InstrumentationName)}
}

// WithEvents streams the plan and span output to events.
func (t *OTelTracer) WithEvents(events ports.TaskEvents) *OTelTracer {
	t.events = events
	return t
}

// Start creates a new span. Output written to the span is batched and
// forwarded as log events.
func (t *OTelTracer) Start(ctx context.Context, name string) (context.Context, ports.Span) {
	ctx, span := t.tracer.Start(ctx, name)
	s := &OTelSpan{span: span}

	if t.events != nil {
		spanID := span.SpanContext().SpanID().String()
		events := t.events
		s.batcher = NewBatchProcessor(0, 0, func(data []byte) {
			events.OnTaskLog(spanID, data)
		})
	}
	return ctx, s
}

// EmitPlan records the plan on the current span and forwards it.
func (t *OTelTracer) EmitPlan(ctx context.Context, tasks []string, deps map[string][]string, targets []string) {
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.AddEvent("plan_emitted", trace.WithAttributes(
			attribute.StringSlice("tasks", tasks),
			attribute.StringSlice("targets", targets),
		))
	}
	if t.events != nil {
		t.events.OnPlanEmit(tasks, deps, targets)
	}
}

// OTelSpan is a ports.Span backed by OpenTelemetry.
type OTelSpan struct {
	span    trace.Span
	batcher *BatchProcessor
}

var _ ports.Span = (*OTelSpan)(nil)

// End flushes pending output, then completes the span.
func (s *OTelSpan) End() {
	if s.batcher != nil {
		_ = s.batcher.Close()
	}
	s.span.End()
}

// RecordError records err and marks the span failed.
func (s *OTelSpan) RecordError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// SetAttribute adds a key-value pair to the span.
func (s *OTelSpan) SetAttribute(key string, value any) {
	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	case []string:
		s.span.SetAttributes(attribute.StringSlice(key, v))
	default:
		s.span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", v)))
	}
}

// Write forwards p as task output, or records it as a span event when no
// events consumer is attached.
func (s *OTelSpan) Write(p []byte) (int, error) {
	if s.batcher != nil {
		return s.batcher.Write(p)
	}
	s.span.AddEvent("log", trace.WithAttributes(attribute.String("message", string(p))))
	return len(p), nil
}
