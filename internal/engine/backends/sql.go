package backends

import (
	"context"

	"github.com/cedricziel/vtql/internal/engine"
)

// SQLBackend runs SQL SELECT statements against the virtual table catalog
type SQLBackend struct {
	UnimplementedBackend
	executor *engine.Executor
}

// NewSQLBackend creates a SQL backend on top of an executor
func NewSQLBackend(executor *engine.Executor) *SQLBackend {
	return &SQLBackend{
		UnimplementedBackend: UnimplementedBackend{Language: "SQL"},
		executor:             executor,
	}
}

func (s *SQLBackend) Query(ctx context.Context, query string, useCache bool) (engine.QueryData, error) {
	rows, err := s.executor.Execute(ctx, query, useCache)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *SQLBackend) Columns(ctx context.Context, query string) (engine.TableColumns, error) {
	columns, err := s.executor.Columns(ctx, query)
	if err != nil {
		return nil, err
	}
	return columns, nil
}

func (s *SQLBackend) Tables(ctx context.Context, query string) ([]string, error) {
	tables, err := s.executor.Tables(ctx, query)
	if err != nil {
		return nil, err
	}
	return tables, nil
}

// Attach attaches a registered virtual table
func (s *SQLBackend) Attach(_ context.Context, table string) error {
	return s.executor.Catalog().Attach(table)
}

// Detach detaches a registered virtual table
func (s *SQLBackend) Detach(_ context.Context, table string) error {
	return s.executor.Catalog().Detach(table)
}

var _ Backend = (*SQLBackend)(nil)
