package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedricziel/vtql/internal/audit"
)

func newTestEvent() audit.Event {
	return audit.Event{
		ID:           "evt-123",
		Timestamp:    time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC),
		DurationMS:   42,
		RequestID:    "req-456",
		Backend:      "sql",
		Action:       "query",
		Query:        "SELECT * FROM processes",
		Success:      true,
		ErrorMessage: "",
		Records:      3,
	}
}

func eventRow(event audit.Event) []any {
	return []any{
		event.ID, event.Timestamp, event.DurationMS, event.RequestID, event.Backend,
		event.Action, event.Query, event.Table, event.Success, event.ErrorMessage, event.Records,
	}
}

func TestEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS vtql_audit_events").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, New(db).EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))

	err = New(db).EnsureSchema(context.Background())
	assert.ErrorContains(t, err, "creating audit schema")
}

func TestLog_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	event := newTestEvent()
	args := eventRow(event)
	driverArgs := make([]driver.Value, 0, len(args))
	for _, a := range args {
		driverArgs = append(driverArgs, matchValue{a})
	}

	mock.ExpectExec(`INSERT INTO vtql_audit_events \(id,timestamp,duration_ms,request_id,backend,action,query,table_name,success,error_message,records\) VALUES \(\$1,\$2,\$3,\$4,\$5,\$6,\$7,\$8,\$9,\$10,\$11\)`).
		WithArgs(driverArgs...).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, New(db).Log(context.Background(), event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLog_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("INSERT INTO vtql_audit_events").WillReturnError(errors.New("connection reset"))

	err = New(db).Log(context.Background(), newTestEvent())
	assert.ErrorContains(t, err, "inserting audit event")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_WithFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	event := newTestEvent()
	success := true

	rows := sqlmock.NewRows(eventColumns).AddRow(toDriverValues(eventRow(event))...)
	mock.ExpectQuery(`SELECT (.+) FROM vtql_audit_events WHERE backend = \$1 AND success = \$2 ORDER BY timestamp DESC LIMIT 10 OFFSET 5`).
		WithArgs("sql", true).
		WillReturnRows(rows)

	events, err := New(db).Query(context.Background(), audit.QueryFilter{
		Backend: "sql",
		Success: &success,
		Limit:   10,
		Offset:  5,
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, event, events[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_NoFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT (.+) FROM vtql_audit_events ORDER BY timestamp DESC`).
		WillReturnRows(sqlmock.NewRows(eventColumns))

	events, err := New(db).Query(context.Background(), audit.QueryFilter{})
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("timeout"))

	_, err = New(db).Query(context.Background(), audit.QueryFilter{Action: "tables"})
	assert.ErrorContains(t, err, "querying audit events")
}

func TestClose(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectClose()
	require.NoError(t, New(db).Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

// matchValue compares a driver argument against the value Log was given
type matchValue struct {
	want any
}

func (m matchValue) Match(v driver.Value) bool {
	switch want := m.want.(type) {
	case time.Time:
		got, ok := v.(time.Time)
		return ok && got.Equal(want)
	case int:
		got, ok := v.(int64)
		return ok && got == int64(want)
	default:
		return v == want
	}
}

func toDriverValues(values []any) []driver.Value {
	out := make([]driver.Value, len(values))
	for i, v := range values {
		if n, ok := v.(int); ok {
			out[i] = int64(n)
			continue
		}
		out[i] = v
	}
	return out
}
