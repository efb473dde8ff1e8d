package backends

import (
	"context"

	"github.com/cedricziel/vtql/internal/engine"
)

// Backend is the capability set every query-language engine implements.
// On error, the returned data is always empty.
type Backend interface {
	// Query runs the query text and returns its rows in result order
	Query(ctx context.Context, query string, useCache bool) (engine.QueryData, error)

	// Columns reports the column schema the query would produce
	Columns(ctx context.Context, query string) (engine.TableColumns, error)

	// Tables reports every table the query references
	Tables(ctx context.Context, query string) ([]string, error)

	// Attach makes a virtual table available to the backend
	Attach(ctx context.Context, table string) error

	// Detach reverses Attach
	Detach(ctx context.Context, table string) error
}
