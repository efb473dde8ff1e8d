package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Executor runs SELECT statements against the virtual table catalog
type Executor struct {
	parser  *Parser
	planner *Planner
	catalog *Catalog
	cache   *QueryCache
	logger  *slog.Logger
}

// ExecutorConfig configures the query executor
type ExecutorConfig struct {
	Catalog   *Catalog
	CacheSize int
	CacheTTL  time.Duration
	Logger    *slog.Logger
}

// NewExecutor creates a new query executor
func NewExecutor(config ExecutorConfig) *Executor {
	catalog := config.Catalog
	if catalog == nil {
		catalog = NewCatalog()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{
		parser:  NewParser(),
		planner: NewPlanner(catalog),
		catalog: catalog,
		cache:   NewQueryCache(config.CacheSize, config.CacheTTL),
		logger:  logger,
	}
}

// Catalog returns the catalog the executor plans against
func (e *Executor) Catalog() *Catalog {
	return e.catalog
}

// Cache returns the executor's result cache
func (e *Executor) Cache() *QueryCache {
	return e.cache
}

// Execute runs a query and returns its rows. With useCache set, a fresh
// cached result for the same text is returned instead of rescanning.
func (e *Executor) Execute(ctx context.Context, sqlQuery string, useCache bool) (QueryData, error) {
	var cacheKey uint64
	if useCache {
		// keyed by catalog generation so attach/detach invalidates
		cacheKey = e.cache.GenerateKey(fmt.Sprintf("sql@%d", e.catalog.Generation()), sqlQuery)
		if cached, ok := e.cache.Get(cacheKey); ok {
			e.logger.Debug("query cache hit", "query", sqlQuery)
			return cached, nil
		}
	}

	plan, err := e.plan(sqlQuery)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	resultSet, err := plan.Root.Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	rows, err := Collect(resultSet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	e.logger.Debug("query executed",
		"query", sqlQuery,
		"rows", len(rows),
		"duration", time.Since(startTime))

	if useCache {
		e.cache.Set(cacheKey, rows)
	}

	return rows, nil
}

// Columns returns the schema the query would produce without scanning
func (e *Executor) Columns(_ context.Context, sqlQuery string) (TableColumns, error) {
	plan, err := e.plan(sqlQuery)
	if err != nil {
		return nil, err
	}
	return plan.Schema(), nil
}

// Tables returns every table the query references
func (e *Executor) Tables(_ context.Context, sqlQuery string) ([]string, error) {
	return e.parser.ParseTables(sqlQuery)
}

func (e *Executor) plan(sqlQuery string) (*Plan, error) {
	query, err := e.parser.Parse(sqlQuery)
	if err != nil {
		return nil, err
	}
	return e.planner.CreatePlan(query)
}
