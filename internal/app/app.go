// Package app wires configuration into a running set of backends.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cedricziel/vtql/internal/audit"
	"github.com/cedricziel/vtql/internal/audit/postgres"
	"github.com/cedricziel/vtql/internal/config"
	"github.com/cedricziel/vtql/internal/dispatch"
	"github.com/cedricziel/vtql/internal/engine"
	"github.com/cedricziel/vtql/internal/engine/backends"
	"github.com/cedricziel/vtql/internal/query"
	"github.com/cedricziel/vtql/internal/tables"
)

// App holds the components shared by the server and the shell
type App struct {
	Catalog    *engine.Catalog
	Executor   *engine.Executor
	Registry   *backends.Registry
	Dispatcher *dispatch.Dispatcher
	Audit      audit.Logger
}

// OpenAudit connects to the audit store; overridden in tests
var OpenAudit = func(ctx context.Context, dsn string) (audit.Logger, error) {
	return postgres.Open(ctx, dsn)
}

// New builds the catalog, backends and dispatcher described by cfg
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	catalog := engine.NewCatalog()
	if err := tables.RegisterBuiltins(catalog, cfg.Tables); err != nil {
		return nil, err
	}

	executor := engine.NewExecutor(engine.ExecutorConfig{
		Catalog:   catalog,
		CacheSize: cfg.Cache.Size,
		CacheTTL:  cfg.Cache.TTL,
		Logger:    logger,
	})

	registry := backends.NewRegistry()
	if cfg.Backends.SQL {
		registry.Register(query.SQL, backends.NewSQLBackend(executor))
	}
	if cfg.Backends.KQL {
		registry.Register(query.KQL, backends.NewKQLBackend(executor, logger))
	} else {
		registry.Register(query.KQL, backends.UnimplementedBackend{Language: "KQL"})
	}

	var auditLogger audit.Logger = audit.NoopLogger{}
	if cfg.Audit.Enabled {
		store, err := OpenAudit(ctx, cfg.Audit.DSN)
		if err != nil {
			return nil, fmt.Errorf("audit: %w", err)
		}
		auditLogger = store
	}

	logger.Info("backends ready",
		"backends", registry.Names(),
		"tables", catalog.Names(),
		"audit", cfg.Audit.Enabled)

	return &App{
		Catalog:    catalog,
		Executor:   executor,
		Registry:   registry,
		Dispatcher: dispatch.New(dispatch.Config{Logger: logger, Audit: auditLogger}),
		Audit:      auditLogger,
	}, nil
}

// Close releases the audit store
func (a *App) Close() error {
	return a.Audit.Close()
}
