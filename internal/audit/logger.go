// Package audit records every dispatched backend action.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Logger defines the interface for audit logging.
type Logger interface {
	// Log records an audit event.
	Log(ctx context.Context, event Event) error

	// Query retrieves audit events matching the filter.
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)

	// Close releases resources.
	Close() error
}

// Event is one dispatched action.
type Event struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	DurationMS   int64     `json:"duration_ms"`
	RequestID    string    `json:"request_id,omitempty"`
	Backend      string    `json:"backend"`
	Action       string    `json:"action"`
	Query        string    `json:"query,omitempty"`
	Table        string    `json:"table,omitempty"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Records      int       `json:"records"`
}

// QueryFilter defines criteria for querying audit events.
type QueryFilter struct {
	StartTime *time.Time
	EndTime   *time.Time
	RequestID string
	Backend   string
	Action    string
	Success   *bool
	Limit     int
	Offset    int
}

// NewEvent creates an event for an action with a fresh ID.
func NewEvent(action string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Action:    action,
	}
}

// WithRequest adds the originating request ID and backend.
func (e *Event) WithRequest(requestID, backend string) *Event {
	e.RequestID = requestID
	e.Backend = backend
	return e
}

// WithTarget adds the query text or table the action ran against.
func (e *Event) WithTarget(query, table string) *Event {
	e.Query = query
	e.Table = table
	return e
}

// WithResult adds the outcome.
func (e *Event) WithResult(success bool, errorMsg string, records int, duration time.Duration) *Event {
	e.Success = success
	e.ErrorMessage = errorMsg
	e.Records = records
	e.DurationMS = duration.Milliseconds()
	return e
}

// NoopLogger discards every event.
type NoopLogger struct{}

// Log does nothing.
func (NoopLogger) Log(context.Context, Event) error { return nil }

// Query returns no events.
func (NoopLogger) Query(context.Context, QueryFilter) ([]Event, error) { return nil, nil }

// Close does nothing.
func (NoopLogger) Close() error { return nil }

var _ Logger = NoopLogger{}
