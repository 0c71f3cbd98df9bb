package tracing

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// LoggerFromContext returns baseLogger with the command, trace id and operation id of ctx attached,
// plus the span id when ctx carries an active span.
func LoggerFromContext(ctx context.Context, baseLogger zerolog.Logger) *zerolog.Logger {
	if ctx == nil {
		return &baseLogger
	}

	tc := FromContext(ctx)
	sc := trace.SpanContextFromContext(ctx)
	if tc.Command == "" && tc.TraceID == "" && tc.OperationID == "" && !sc.IsValid() {
		return &baseLogger
	}

	lc := baseLogger.With()
	if tc.Command != "" {
		lc = lc.Str("command", tc.Command)
	}
	if tc.TraceID != "" {
		lc = lc.Str("trace_id", tc.TraceID)
	}
	if tc.OperationID != "" {
		lc = lc.Str("operation_id", tc.OperationID)
	}
	if sc.IsValid() {
		lc = lc.Str("span_id", sc.SpanID().String())
	}
	logger := lc.Logger()
	return &logger
}
