package backends

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cedricziel/vtql/internal/engine"
)

// KQLBackend runs KQL pipelines by translating them to SQL and executing
// them on the shared engine
type KQLBackend struct {
	UnimplementedBackend
	executor *engine.Executor
	logger   *slog.Logger
}

// NewKQLBackend creates a KQL backend on top of an executor
func NewKQLBackend(executor *engine.Executor, logger *slog.Logger) *KQLBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &KQLBackend{
		UnimplementedBackend: UnimplementedBackend{Language: "KQL"},
		executor:             executor,
		logger:               logger,
	}
}

func (b *KQLBackend) translate(query string) (string, error) {
	sql, err := TranslateKQL(query)
	if err != nil {
		return "", err
	}
	b.logger.Debug("translated KQL", "kql", query, "sql", sql)
	return sql, nil
}

// Query executes a KQL pipeline
func (b *KQLBackend) Query(ctx context.Context, query string, useCache bool) (engine.QueryData, error) {
	sql, err := b.translate(query)
	if err != nil {
		return nil, err
	}
	data, err := b.executor.Execute(ctx, sql, useCache)
	if err != nil {
		return nil, fmt.Errorf("KQL query execution: %w", err)
	}
	return data, nil
}

// Columns returns the columns a KQL pipeline would produce
func (b *KQLBackend) Columns(ctx context.Context, query string) (engine.TableColumns, error) {
	sql, err := b.translate(query)
	if err != nil {
		return nil, err
	}
	cols, err := b.executor.Columns(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("KQL column extraction: %w", err)
	}
	return cols, nil
}

// Tables returns the pipeline's source table
func (b *KQLBackend) Tables(_ context.Context, query string) ([]string, error) {
	q, err := ParseKQL(query)
	if err != nil {
		return nil, err
	}
	return []string{q.Source}, nil
}

// Attach makes a table visible to KQL queries
func (b *KQLBackend) Attach(_ context.Context, table string) error {
	return b.executor.Catalog().Attach(table)
}

// Detach hides a table from KQL queries
func (b *KQLBackend) Detach(_ context.Context, table string) error {
	return b.executor.Catalog().Detach(table)
}

var _ Backend = (*KQLBackend)(nil)
