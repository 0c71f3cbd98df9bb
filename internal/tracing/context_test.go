package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIDs(t *testing.T) {
	assert.NotEmpty(t, NewTraceID())
	assert.NotEqual(t, NewTraceID(), NewTraceID())
	assert.NotEmpty(t, NewOperationID())
	assert.NotEqual(t, NewOperationID(), NewOperationID())
	assert.Len(t, NewOperationID(), 21)
}

func TestContextValues(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetOperationID(ctx))
	assert.Empty(t, GetCommand(ctx))

	ctx = WithTraceID(ctx, "trace-1")
	ctx = WithOperationID(ctx, "op-1")
	ctx = WithCommand(ctx, "search")

	tc := FromContext(ctx)
	assert.Equal(t, "trace-1", tc.TraceID)
	assert.Equal(t, "op-1", tc.OperationID)
	assert.Equal(t, "search", tc.Command)
}

func TestNewCommandContext(t *testing.T) {
	ctx := NewCommandContext(context.Background(), "new")
	assert.NotEmpty(t, GetTraceID(ctx))
	assert.Equal(t, "new", GetCommand(ctx))

	ctx = NewOperationContext(ctx)
	assert.NotEmpty(t, GetOperationID(ctx))
}
