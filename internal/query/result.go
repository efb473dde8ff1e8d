// Package query runs one query against a named backend and exposes its
// status, rows and column names together.
package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/cedricziel/vtql/internal/dispatch"
	"github.com/cedricziel/vtql/internal/engine/backends"
)

// Backend names registered by default
const (
	SQL = "sql"
	KQL = "kql"
)

// ErrUnknownBackend is reported when no backend is registered under a name
var ErrUnknownBackend = errors.New("unknown backend")

// Result holds the outcome of a query and a columns dispatch for the same
// text. Ok reflects the query alone.
type Result struct {
	status        dispatch.Status
	rows          dispatch.Response
	columns       []string
	columnsStatus dispatch.Status
}

// Options tunes New
type Options struct {
	Dispatcher *dispatch.Dispatcher
}

// New runs text against the backend registered as backendName. It performs
// a query dispatch and an independent columns dispatch, so column names are
// known even when no rows match.
func New(ctx context.Context, registry *backends.Registry, text string, useCache bool, backendName string) *Result {
	return NewWithOptions(ctx, registry, text, useCache, backendName, Options{})
}

// NewWithOptions is New with an explicit dispatcher
func NewWithOptions(ctx context.Context, registry *backends.Registry, text string, useCache bool, backendName string, opts Options) *Result {
	backend, ok := registry.Get(backendName)
	if !ok {
		status := dispatch.StatusOf(fmt.Errorf("%w: %q", ErrUnknownBackend, backendName))
		return &Result{
			status:        status,
			rows:          dispatch.Response{},
			columns:       []string{},
			columnsStatus: status,
		}
	}

	d := opts.Dispatcher
	if d == nil {
		d = dispatch.New(dispatch.Config{})
	}

	ctx = dispatch.WithRequestInfo(ctx, dispatch.RequestInfo{
		RequestID: dispatch.RequestInfoFrom(ctx).RequestID,
		Backend:   backendName,
	})

	rows, err := d.Execute(ctx, backend, dispatch.QueryRequest{Query: text, UseCache: useCache})
	result := &Result{
		status: dispatch.StatusOf(err),
		rows:   rows,
	}

	columns, err := d.Execute(ctx, backend, dispatch.ColumnsRequest{Query: text})
	result.columnsStatus = dispatch.StatusOf(err)
	result.columns = dispatch.ColumnNames(columns)

	return result
}

// Ok reports whether the query succeeded
func (r *Result) Ok() bool {
	return r.status.Ok()
}

// Status returns the status of the query dispatch
func (r *Result) Status() dispatch.Status {
	return r.status
}

// Rows returns the result rows in backend order
func (r *Result) Rows() dispatch.Response {
	return r.rows
}

// Columns returns the reported column names in order
func (r *Result) Columns() []string {
	return r.columns
}

// ColumnsStatus returns the status of the columns dispatch
func (r *Result) ColumnsStatus() dispatch.Status {
	return r.columnsStatus
}
