package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/harun/scribe/internal/tracing"
)

// Audit statuses
const (
	StatusSuccess = "success"
	StatusNoop    = "noop"
	StatusFailure = "failure"
)

// AuditEvent is one store mutation as written to the audit journal
type AuditEvent struct {
	Action    string    `json:"action"` // add, remove_tag, remove_resource, sweep
	Status    string    `json:"status"`
	Hash      string    `json:"hash,omitempty"`
	Tag       string    `json:"tag,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	Count     int       `json:"count,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AuditLogger appends store mutations to a journal file as JSON lines
type AuditLogger struct {
	logger zerolog.Logger
	mu     sync.Mutex
	closer io.Closer
}

// NewAuditLogger opens the journal at path for appending
func NewAuditLogger(path string) (*AuditLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	a := NewAuditWriter(file)
	a.closer = file
	return a, nil
}

// NewAuditWriter records events to w
func NewAuditWriter(w io.Writer) *AuditLogger {
	return &AuditLogger{
		logger: zerolog.New(w),
	}
}

// Record writes one event. The command, trace and operation ids of ctx are attached,
// and the event is added to the current span.
func (a *AuditLogger) Record(ctx context.Context, event AuditEvent) {
	if a == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		span.AddEvent("audit."+event.Action, trace.WithAttributes(
			attribute.String("audit.status", event.Status),
			attribute.String("audit.hash", event.Hash),
		))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	entry := a.logger.Log().
		Time("timestamp", event.Timestamp).
		Str("action", event.Action).
		Str("status", event.Status)

	if event.Hash != "" {
		entry.Str("hash", event.Hash)
	}
	if event.Tag != "" {
		entry.Str("tag", event.Tag)
	}
	if len(event.Tags) > 0 {
		entry.Strs("tags", event.Tags)
	}
	if event.Count > 0 {
		entry.Int("count", event.Count)
	}
	if event.Error != "" {
		entry.Str("error", event.Error)
	}

	tc := tracing.FromContext(ctx)
	if tc.Command != "" {
		entry.Str("command", tc.Command)
	}
	if tc.TraceID != "" {
		entry.Str("trace_id", tc.TraceID)
	}
	if tc.OperationID != "" {
		entry.Str("operation_id", tc.OperationID)
	}

	entry.Send()
}

// Close closes the journal file, if any
func (a *AuditLogger) Close() error {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closer != nil {
		err := a.closer.Close()
		a.closer = nil
		return err
	}
	return nil
}

// StatusOf maps an operation outcome to an audit status
func StatusOf(changed bool, err error) string {
	switch {
	case err != nil:
		return StatusFailure
	case !changed:
		return StatusNoop
	default:
		return StatusSuccess
	}
}

// ErrorString returns err's message, or "" for nil
func ErrorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
