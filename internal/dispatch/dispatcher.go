package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cedricziel/vtql/internal/audit"
	"github.com/cedricziel/vtql/internal/engine/backends"
)

// Dispatcher turns requests into backend calls. It keeps no state between
// calls and holds no locks; backends guard themselves.
type Dispatcher struct {
	logger *slog.Logger
	audit  audit.Logger
}

// Config configures a Dispatcher
type Config struct {
	Logger *slog.Logger
	Audit  audit.Logger
}

// New creates a dispatcher
func New(config Config) *Dispatcher {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	auditLogger := config.Audit
	if auditLogger == nil {
		auditLogger = audit.NoopLogger{}
	}
	return &Dispatcher{logger: logger, audit: auditLogger}
}

type requestInfoKey struct{}

// RequestInfo identifies the caller of a dispatch for logs and audit
type RequestInfo struct {
	RequestID string
	Backend   string
}

// WithRequestInfo attaches request identity to ctx
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFrom returns the request identity stored in ctx, if any
func RequestInfoFrom(ctx context.Context) RequestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info
}

// Dispatch decodes req and runs it against backend. The returned Response
// is never nil and is always empty when err is non-nil.
func (d *Dispatcher) Dispatch(ctx context.Context, backend backends.Backend, req Request) (Response, error) {
	call, err := Decode(req)
	if err != nil {
		d.record(ctx, req[KeyAction], req[KeyQuery], req[KeyTable], time.Now(), Response{}, err)
		return Response{}, err
	}
	return d.Execute(ctx, backend, call)
}

// Execute runs a typed call against backend, invoking it exactly once
func (d *Dispatcher) Execute(ctx context.Context, backend backends.Backend, call Call) (Response, error) {
	start := time.Now()

	var (
		resp       Response
		err        error
		query, tbl string
	)

	switch c := call.(type) {
	case QueryRequest:
		query = c.Query
		resp, err = d.query(ctx, backend, c)
	case ColumnsRequest:
		query = c.Query
		resp, err = d.columns(ctx, backend, c)
	case TablesRequest:
		query = c.Query
		resp, err = d.tables(ctx, backend, c)
	case AttachRequest:
		tbl = c.Table
		err = backend.Attach(ctx, c.Table)
	case DetachRequest:
		tbl = c.Table
		err = backend.Detach(ctx, c.Table)
	default:
		err = fmt.Errorf("%w: %T", ErrUnknownAction, call)
	}

	if err != nil || resp == nil {
		resp = Response{}
	}

	action := "unknown"
	if call != nil {
		action = call.Action().String()
	}
	d.record(ctx, action, query, tbl, start, resp, err)

	return resp, err
}

func (d *Dispatcher) query(ctx context.Context, backend backends.Backend, c QueryRequest) (Response, error) {
	rows, err := backend.Query(ctx, c.Query, c.UseCache)
	if err != nil {
		return nil, err
	}
	resp := make(Response, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, RowRecord(row))
	}
	return resp, nil
}

func (d *Dispatcher) columns(ctx context.Context, backend backends.Backend, c ColumnsRequest) (Response, error) {
	columns, err := backend.Columns(ctx, c.Query)
	if err != nil {
		return nil, err
	}
	resp := make(Response, 0, len(columns))
	for _, col := range columns {
		resp = append(resp, ColumnRecord(col))
	}
	return resp, nil
}

func (d *Dispatcher) tables(ctx context.Context, backend backends.Backend, c TablesRequest) (Response, error) {
	tables, err := backend.Tables(ctx, c.Query)
	if err != nil {
		return nil, err
	}
	resp := make(Response, 0, len(tables))
	for _, name := range tables {
		resp = append(resp, TableRecord(name))
	}
	return resp, nil
}

func (d *Dispatcher) record(ctx context.Context, action, query, table string, start time.Time, resp Response, err error) {
	info := RequestInfoFrom(ctx)
	duration := time.Since(start)
	status := StatusOf(err)

	d.logger.Debug("dispatched action",
		"request_id", info.RequestID,
		"backend", info.Backend,
		"action", action,
		"records", len(resp),
		"code", status.Code,
		"duration", duration)

	event := audit.NewEvent(action).
		WithRequest(info.RequestID, info.Backend).
		WithTarget(query, table).
		WithResult(status.Ok(), errorMessage(err), len(resp), duration)
	if auditErr := d.audit.Log(ctx, *event); auditErr != nil {
		d.logger.Warn("failed to record audit event", "action", action, "error", auditErr)
	}
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
