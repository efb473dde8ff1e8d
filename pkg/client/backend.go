package client

import (
	"context"
	"fmt"

	"github.com/cedricziel/vtql/internal/dispatch"
	"github.com/cedricziel/vtql/internal/engine"
	"github.com/cedricziel/vtql/internal/engine/backends"
)

// RemoteBackend exposes a backend on a remote server through the local
// Backend interface
type RemoteBackend struct {
	client *Client
	name   string
}

// Backend returns a Backend that forwards to the named remote backend
func (c *Client) Backend(name string) *RemoteBackend {
	return &RemoteBackend{client: c, name: name}
}

func (r *RemoteBackend) call(ctx context.Context, call dispatch.Call) (dispatch.Response, error) {
	resp, status, err := r.client.Call(ctx, r.name, dispatch.Encode(call))
	if err != nil {
		return nil, err
	}
	if err := status.Err(); err != nil {
		return nil, fmt.Errorf("%s %s: %w", r.name, call.Action(), err)
	}
	return resp, nil
}

func (r *RemoteBackend) Query(ctx context.Context, query string, useCache bool) (engine.QueryData, error) {
	resp, err := r.call(ctx, dispatch.QueryRequest{Query: query, UseCache: useCache})
	if err != nil {
		return nil, err
	}
	rows := make(engine.QueryData, 0, len(resp))
	for _, record := range resp {
		rows = append(rows, engine.Row(record))
	}
	return rows, nil
}

func (r *RemoteBackend) Columns(ctx context.Context, query string) (engine.TableColumns, error) {
	resp, err := r.call(ctx, dispatch.ColumnsRequest{Query: query})
	if err != nil {
		return nil, err
	}
	columns := make(engine.TableColumns, 0, len(resp))
	for _, record := range resp {
		def, err := dispatch.ColumnDefinitionFromRecord(record)
		if err != nil {
			return nil, err
		}
		columns = append(columns, def)
	}
	return columns, nil
}

func (r *RemoteBackend) Tables(ctx context.Context, query string) ([]string, error) {
	resp, err := r.call(ctx, dispatch.TablesRequest{Query: query})
	if err != nil {
		return nil, err
	}
	tables := make([]string, 0, len(resp))
	for _, record := range resp {
		tables = append(tables, record[dispatch.TableKeyName])
	}
	return tables, nil
}

func (r *RemoteBackend) Attach(ctx context.Context, table string) error {
	_, err := r.call(ctx, dispatch.AttachRequest{Table: table})
	return err
}

func (r *RemoteBackend) Detach(ctx context.Context, table string) error {
	_, err := r.call(ctx, dispatch.DetachRequest{Table: table})
	return err
}

var _ backends.Backend = (*RemoteBackend)(nil)
