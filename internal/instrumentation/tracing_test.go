package instrumentation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestStartAPISpan(t *testing.T) {
	recorder := withRecorder(t)

	ctx, span := StartAPISpan(context.Background(), "GET", "/project/{id}/data")
	assert.NotEmpty(t, GetTraceID(ctx))
	SetSpanSuccess(span)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "ticktick.GET /project/{id}/data", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
}

func TestStartToolSpan_RecordsError(t *testing.T) {
	recorder := withRecorder(t)

	_, span := StartToolSpan(context.Background(), "ticktick_list_tasks")
	SetSpanError(span, errors.New("boom"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "tool.ticktick_list_tasks", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "boom", spans[0].Status().Description)
}

func TestStartSpan_WithEvent(t *testing.T) {
	recorder := withRecorder(t)

	_, span := StartSpan(context.Background(), "auth.login")
	AddSpanEvent(span, "callback_received")
	SetSpanError(span, nil)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "callback_received", spans[0].Events()[0].Name)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}

func TestGetTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
}
