package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/mark/internal/adapters/telemetry"
	"go.trai.ch/mark/internal/core/ports"
	"go.trai.ch/mark/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestBridge_ReportsStartAndCompletion(t *testing.T) {
	ctrl := gomock.NewController(t)
	events := mocks.NewMockRenderer(ctrl)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(events)))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	gomock.InOrder(
		events.EXPECT().OnTaskStart(gomock.Any(), "", "build", gomock.Any()),
		events.EXPECT().OnTaskComplete(gomock.Any(), gomock.Any(), false, nil),
	)

	_, span := tp.Tracer("test").Start(context.Background(), "build")
	span.End()
}

func TestBridge_ReportsParent(t *testing.T) {
	ctrl := gomock.NewController(t)
	events := mocks.NewMockRenderer(ctrl)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(events)))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	events.EXPECT().OnTaskStart(gomock.Any(), "", "root", gomock.Any())
	ctx, root := tp.Tracer("test").Start(context.Background(), "root")
	parentID := root.SpanContext().SpanID().String()

	events.EXPECT().OnTaskStart(gomock.Any(), parentID, "child", gomock.Any())
	events.EXPECT().OnTaskComplete(gomock.Any(), gomock.Any(), false, nil).Times(2)

	_, child := tp.Tracer("test").Start(ctx, "child")
	child.End()
	root.End()
}

func TestBridge_ReportsSkipped(t *testing.T) {
	ctrl := gomock.NewController(t)
	events := mocks.NewMockRenderer(ctrl)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(events)))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	events.EXPECT().OnTaskStart(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any())
	events.EXPECT().OnTaskComplete(gomock.Any(), gomock.Any(), true, nil)

	tracer := telemetry.NewOTelTracer(tp)
	_, span := tracer.Start(context.Background(), "models")
	span.SetAttribute(ports.SkippedAttribute, true)
	span.End()
}

func TestBridge_ReportsError(t *testing.T) {
	ctrl := gomock.NewController(t)
	events := mocks.NewMockRenderer(ctrl)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(events)))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	var got error
	events.EXPECT().OnTaskStart(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any())
	events.EXPECT().OnTaskComplete(gomock.Any(), gomock.Any(), false, gomock.Any()).
		Do(func(_ string, _ any, _ bool, err error) { got = err })

	_, span := tp.Tracer("test").Start(context.Background(), "train")
	span.SetStatus(codes.Error, "exit status 2")
	span.End()

	require.EqualError(t, got, "exit status 2")
}

func TestBridge_DefaultErrorDescription(t *testing.T) {
	ctrl := gomock.NewController(t)
	events := mocks.NewMockRenderer(ctrl)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(events)))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	var got error
	events.EXPECT().OnTaskStart(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any())
	events.EXPECT().OnTaskComplete(gomock.Any(), gomock.Any(), false, gomock.Any()).
		Do(func(_ string, _ any, _ bool, err error) { got = err })

	_, span := tp.Tracer("test").Start(context.Background(), "train")
	span.SetStatus(codes.Error, "")
	span.End()

	require.EqualError(t, got, "task failed")
}

func TestBridge_NilEvents(t *testing.T) {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(nil)))
	_, span := tp.Tracer("test").Start(context.Background(), "noop")
	span.RecordError(errors.New("ignored"))
	span.End()

	bridge := telemetry.NewBridge(nil)
	require.NoError(t, bridge.ForceFlush(context.Background()))
	require.NoError(t, bridge.Shutdown(context.Background()))
	require.NoError(t, tp.Shutdown(context.Background()))
}
