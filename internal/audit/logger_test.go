package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	before := time.Now().UTC()
	event := NewEvent("query").
		WithRequest("req-1", "sql").
		WithTarget("SELECT 1", "").
		WithResult(false, "invalid query", 0, 1500*time.Millisecond)

	_, err := uuid.Parse(event.ID)
	require.NoError(t, err)
	assert.False(t, event.Timestamp.Before(before))
	assert.Equal(t, "query", event.Action)
	assert.Equal(t, "req-1", event.RequestID)
	assert.Equal(t, "sql", event.Backend)
	assert.Equal(t, "SELECT 1", event.Query)
	assert.False(t, event.Success)
	assert.Equal(t, "invalid query", event.ErrorMessage)
	assert.Equal(t, int64(1500), event.DurationMS)

	assert.NotEqual(t, event.ID, NewEvent("query").ID)
}

func TestNoopLogger(t *testing.T) {
	var logger Logger = NoopLogger{}
	ctx := context.Background()

	assert.NoError(t, logger.Log(ctx, *NewEvent("attach")))
	events, err := logger.Query(ctx, QueryFilter{})
	assert.NoError(t, err)
	assert.Empty(t, events)
	assert.NoError(t, logger.Close())
}
