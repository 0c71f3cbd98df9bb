package tracing

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerFromContext(t *testing.T) {
	ctx := context.Background()
	ctx = WithTraceID(ctx, "trace-xyz")
	ctx = WithOperationID(ctx, "op-abc")
	ctx = WithCommand(ctx, "rm")

	var buf bytes.Buffer
	logger := LoggerFromContext(ctx, zerolog.New(&buf))
	logger.Info().Msg("test")

	output := buf.String()
	assert.Contains(t, output, `"trace_id":"trace-xyz"`)
	assert.Contains(t, output, `"operation_id":"op-abc"`)
	assert.Contains(t, output, `"command":"rm"`)
}

func TestLoggerFromEmptyContext(t *testing.T) {
	var buf bytes.Buffer
	logger := LoggerFromContext(context.Background(), zerolog.New(&buf))
	logger.Info().Msg("plain")

	assert.NotContains(t, buf.String(), "trace_id")
	assert.NotContains(t, buf.String(), "span_id")
}

func TestLoggerFromSpanContext(t *testing.T) {
	require.NoError(t, InitOpenTelemetry("scribe-test"))
	t.Cleanup(func() {
		_ = ShutdownOpenTelemetry(context.Background())
	})

	ctx, span := StartSpan(context.Background(), "scribe.test", "test.logger")
	defer EndSpan(span, nil)

	var buf bytes.Buffer
	LoggerFromContext(ctx, zerolog.New(&buf)).Info().Msg("in span")

	assert.Contains(t, buf.String(), `"span_id":"`+span.SpanContext().SpanID().String()+`"`)
	assert.Contains(t, buf.String(), `"trace_id":"`+span.SpanContext().TraceID().String()+`"`)
}

func TestStartSpan(t *testing.T) {
	require.NoError(t, InitOpenTelemetry("scribe-test"))
	t.Cleanup(func() {
		_ = ShutdownOpenTelemetry(context.Background())
	})

	ctx, span := StartSpan(NewOperationContext(context.Background()), "scribe.test", "test.span")
	assert.True(t, span.SpanContext().IsValid())
	assert.True(t, span.IsRecording())
	assert.Equal(t, span.SpanContext().TraceID().String(), GetTraceID(ctx))
	EndSpan(span, errors.New("boom"))

	// An existing trace ID is kept
	ctx = WithTraceID(context.Background(), "kept")
	ctx, span = StartSpan(ctx, "scribe.test", "test.span")
	assert.Equal(t, "kept", GetTraceID(ctx))
	EndSpan(span, nil)

	// Init after shutdown installs a fresh provider
	require.NoError(t, ShutdownOpenTelemetry(context.Background()))
	require.NoError(t, InitOpenTelemetry("scribe-test"))
	_, span = StartSpan(context.Background(), "scribe.test", "test.span")
	assert.True(t, span.IsRecording())
	EndSpan(span, nil)
}
