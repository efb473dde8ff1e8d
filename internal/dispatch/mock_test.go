package dispatch

import (
	"context"
	"fmt"

	"github.com/cedricziel/vtql/internal/engine"
	"github.com/cedricziel/vtql/internal/engine/backends"
)

// mockBackend recognizes only "valid_query" and counts every call
type mockBackend struct {
	calls  int
	tables []string
}

func (m *mockBackend) Query(_ context.Context, query string, _ bool) (engine.QueryData, error) {
	m.calls++
	if query != "valid_query" {
		return engine.QueryData{{"partial": "row"}}, fmt.Errorf("%w: %s", backends.ErrInvalidQuery, query)
	}
	return engine.QueryData{{"column1": "value1", "column2": "value2"}}, nil
}

func (m *mockBackend) Columns(_ context.Context, query string) (engine.TableColumns, error) {
	m.calls++
	if query != "valid_query" {
		return engine.TableColumns{{Name: "partial"}}, fmt.Errorf("%w: %s", backends.ErrInvalidQuery, query)
	}
	return engine.TableColumns{
		{Name: "column1", Type: engine.ColumnTypeText},
		{Name: "column2", Type: engine.ColumnTypeBigInt, Options: engine.ColumnOptionIndex | engine.ColumnOptionHidden},
	}, nil
}

func (m *mockBackend) Tables(_ context.Context, query string) ([]string, error) {
	m.calls++
	if query != "valid_query" {
		return []string{"should", "not", "leak"}, fmt.Errorf("%w: %s", backends.ErrInvalidQuery, query)
	}
	return m.tables, nil
}

func (m *mockBackend) Attach(context.Context, string) error {
	m.calls++
	return nil
}

func (m *mockBackend) Detach(context.Context, string) error {
	m.calls++
	return nil
}

var _ backends.Backend = (*mockBackend)(nil)
