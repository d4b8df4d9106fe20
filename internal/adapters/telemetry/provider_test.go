package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/mark/internal/adapters/telemetry"
)

func newRecorder(t *testing.T) (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return sr, tp
}

func TestOTelTracer_SpanAttributesAndErrors(t *testing.T) {
	sr, tp := newRecorder(t)
	tracer := telemetry.NewOTelTracer(tp)

	_, span := tracer.Start(context.Background(), "train")
	span.SetAttribute("str", "v")
	span.SetAttribute("int", 3)
	span.SetAttribute("int64", int64(4))
	span.SetAttribute("float", 0.25)
	span.SetAttribute("bool", true)
	span.SetAttribute("list", []string{"a", "b"})
	span.SetAttribute("other", struct{ N int }{7})
	span.RecordError(errors.New("boom"))
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	got := spans[0]
	assert.Equal(t, "train", got.Name())
	assert.Equal(t, codes.Error, got.Status().Code)
	assert.Equal(t, "boom", got.Status().Description)

	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range got.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "v", attrs["str"].AsString())
	assert.Equal(t, int64(3), attrs["int"].AsInt64())
	assert.Equal(t, int64(4), attrs["int64"].AsInt64())
	assert.InDelta(t, 0.25, attrs["float"].AsFloat64(), 1e-9)
	assert.True(t, attrs["bool"].AsBool())
	assert.Equal(t, []string{"a", "b"}, attrs["list"].AsStringSlice())
	assert.Equal(t, "{7}", attrs["other"].AsString())
}

func TestOTelTracer_WriteWithoutEventsAddsSpanEvent(t *testing.T) {
	sr, tp := newRecorder(t)
	tracer := telemetry.NewOTelTracer(tp)

	_, span := tracer.Start(context.Background(), "models")
	n, err := span.Write([]byte("compiled 12 models"))
	require.NoError(t, err)
	assert.Equal(t, 18, n)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	events := spans[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "log", events[0].Name)
}

func TestOTelTracer_StreamsOutputBeforeCompletion(t *testing.T) {
	rec := newRecordedEvents()
	q := telemetry.NewQueue(rec, 0)
	tp := telemetry.NewTracerProvider(q)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	tracer := telemetry.NewOTelTracer(tp).WithEvents(q)

	_, span := tracer.Start(context.Background(), "models")
	_, err := span.Write([]byte("line 1\n"))
	require.NoError(t, err)
	_, err = span.Write([]byte("line 2\n"))
	require.NoError(t, err)
	span.End()
	q.Close()

	events := rec.list()
	require.NotEmpty(t, events)
	assert.Equal(t, "start:models", events[0])
	assert.Equal(t, "done", events[len(events)-1])
	assert.Contains(t, events, "log")
}

func TestOTelTracer_EmitPlan(t *testing.T) {
	sr, tp := newRecorder(t)
	rec := newRecordedEvents()
	tracer := telemetry.NewOTelTracer(tp).WithEvents(rec)

	tracer.EmitPlan(context.Background(), []string{"a", "b"}, map[string][]string{"b": {"a"}}, []string{"b"})
	assert.Empty(t, sr.Ended(), "no span in context means no event")

	ctx, root := tp.Tracer("test").Start(context.Background(), "run")
	tracer.EmitPlan(ctx, []string{"a", "b"}, map[string][]string{"b": {"a"}}, []string{"b"})
	root.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	events := spans[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "plan_emitted", events[0].Name)

	assert.Equal(t, []string{"plan", "plan"}, rec.list())
	assert.Equal(t, []string{"a", "b"}, rec.plans[0])
}
