// Package postgres provides PostgreSQL storage for audit events.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	// registers the "postgres" driver for Open
	_ "github.com/lib/pq"

	"github.com/cedricziel/vtql/internal/audit"
)

const (
	defaultQueryCapacity = 100
	maxQueryCapacity     = 10000
	tableName            = "vtql_audit_events"
)

// psq is the PostgreSQL statement builder with dollar placeholders.
var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// eventColumns lists columns in insert and scan order.
var eventColumns = []string{
	"id", "timestamp", "duration_ms", "request_id", "backend",
	"action", "query", "table_name", "success", "error_message", "records",
}

const schema = `
CREATE TABLE IF NOT EXISTS ` + tableName + ` (
	id            TEXT PRIMARY KEY,
	timestamp     TIMESTAMPTZ NOT NULL,
	duration_ms   BIGINT NOT NULL DEFAULT 0,
	request_id    TEXT NOT NULL DEFAULT '',
	backend       TEXT NOT NULL,
	action        TEXT NOT NULL,
	query         TEXT NOT NULL DEFAULT '',
	table_name    TEXT NOT NULL DEFAULT '',
	success       BOOLEAN NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	records       INTEGER NOT NULL DEFAULT 0
)`

// Store implements audit.Logger using PostgreSQL.
type Store struct {
	db *sql.DB
}

// Open connects to PostgreSQL and makes sure the events table exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to audit database: %w", err)
	}

	store := New(db)
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// New creates a store on an open database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the events table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating audit schema: %w", err)
	}
	return nil
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event audit.Event) error {
	query, args, err := psq.Insert(tableName).
		Columns(eventColumns...).
		Values(
			event.ID,
			event.Timestamp,
			event.DurationMS,
			event.RequestID,
			event.Backend,
			event.Action,
			event.Query,
			event.Table,
			event.Success,
			event.ErrorMessage,
			event.Records,
		).ToSql()
	if err != nil {
		return fmt.Errorf("building audit insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting audit event: %w", err)
	}
	return nil
}

// applyFilter adds filter conditions to a SELECT builder.
func applyFilter(qb sq.SelectBuilder, filter audit.QueryFilter) sq.SelectBuilder {
	if filter.StartTime != nil {
		qb = qb.Where(sq.GtOrEq{"timestamp": *filter.StartTime})
	}
	if filter.EndTime != nil {
		qb = qb.Where(sq.LtOrEq{"timestamp": *filter.EndTime})
	}
	if filter.RequestID != "" {
		qb = qb.Where(sq.Eq{"request_id": filter.RequestID})
	}
	if filter.Backend != "" {
		qb = qb.Where(sq.Eq{"backend": filter.Backend})
	}
	if filter.Action != "" {
		qb = qb.Where(sq.Eq{"action": filter.Action})
	}
	if filter.Success != nil {
		qb = qb.Where(sq.Eq{"success": *filter.Success})
	}
	return qb
}

// Query retrieves audit events matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error) {
	qb := applyFilter(psq.Select(eventColumns...).From(tableName), filter)
	qb = qb.OrderBy("timestamp DESC")
	if filter.Limit > 0 {
		qb = qb.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		qb = qb.Offset(uint64(filter.Offset))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building audit query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	allocCap := defaultQueryCapacity
	if filter.Limit > 0 && filter.Limit <= maxQueryCapacity {
		allocCap = filter.Limit
	}
	events := make([]audit.Event, 0, allocCap)

	for rows.Next() {
		var event audit.Event
		if err := rows.Scan(
			&event.ID,
			&event.Timestamp,
			&event.DurationMS,
			&event.RequestID,
			&event.Backend,
			&event.Action,
			&event.Query,
			&event.Table,
			&event.Success,
			&event.ErrorMessage,
			&event.Records,
		); err != nil {
			return nil, fmt.Errorf("scanning audit event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit events: %w", err)
	}
	return events, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ audit.Logger = (*Store)(nil)
