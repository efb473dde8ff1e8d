package server

import (
	"context"
	"net"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cedricziel/vtql/internal/dispatch"
	"github.com/cedricziel/vtql/internal/engine"
	"github.com/cedricziel/vtql/internal/engine/backends"
)

func newTestRegistry() *backends.Registry {
	catalog := engine.NewCatalog()
	catalog.Register(engine.NewStaticTable("test_table",
		engine.TableColumns{
			{Name: "column1", Type: engine.ColumnTypeText},
			{Name: "column2", Type: engine.ColumnTypeText},
		},
		engine.QueryData{{"column1": "value1", "column2": "value2"}},
	))
	executor := engine.NewExecutor(engine.ExecutorConfig{Catalog: catalog})

	registry := backends.NewRegistry()
	registry.Register("sql", backends.NewSQLBackend(executor))
	registry.Register("kql", backends.UnimplementedBackend{Language: "KQL"})
	return registry
}

// startBufServer serves the dispatch service over an in-memory listener
func startBufServer(t *testing.T) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	grpcServer := grpc.NewServer()
	RegisterDispatcherServer(grpcServer, New(newTestRegistry(), nil, nil))

	go func() {
		_ = grpcServer.Serve(lis)
	}()
	t.Cleanup(grpcServer.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func call(t *testing.T, conn *grpc.ClientConn, fields map[string]any) (*structpb.Struct, error) {
	t.Helper()
	in, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	out := new(structpb.Struct)
	err = conn.Invoke(context.Background(), CallMethod, in, out)
	return out, err
}

func TestCall_Query(t *testing.T) {
	conn := startBufServer(t)

	out, err := call(t, conn, map[string]any{
		"backend": "sql",
		"action":  "query",
		"query":   "SELECT * FROM test_table",
		"cache":   true,
	})
	require.NoError(t, err)

	resp, st, err := DecodeReply(out)
	require.NoError(t, err)
	assert.True(t, st.Ok())
	assert.Equal(t, dispatch.Response{{"column1": "value1", "column2": "value2"}}, resp)

	_, err = uuid.Parse(out.GetFields()[FieldRequestID].GetStringValue())
	assert.NoError(t, err)
}

func TestCall_Columns(t *testing.T) {
	conn := startBufServer(t)

	out, err := call(t, conn, map[string]any{
		"backend": "sql",
		"action":  "columns",
		"query":   "SELECT column2 FROM test_table",
	})
	require.NoError(t, err)

	resp, st, err := DecodeReply(out)
	require.NoError(t, err)
	assert.True(t, st.Ok())
	assert.Equal(t, dispatch.Response{{"n": "column2", "t": "TEXT", "o": "0"}}, resp)
}

func TestCall_BackendFailureTravelsInReply(t *testing.T) {
	conn := startBufServer(t)

	tests := []struct {
		name   string
		fields map[string]any
	}{
		{name: "invalid query", fields: map[string]any{"backend": "sql", "action": "tables", "query": "invalid_query"}},
		{name: "missing action", fields: map[string]any{"backend": "sql", "query": "SELECT 1"}},
		{name: "unknown action", fields: map[string]any{"backend": "sql", "action": "explain"}},
		{name: "not implemented", fields: map[string]any{"backend": "kql", "action": "query", "query": "T"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := call(t, conn, tt.fields)
			require.NoError(t, err)

			resp, st, err := DecodeReply(out)
			require.NoError(t, err)
			assert.Equal(t, 1, st.Code)
			assert.NotEmpty(t, st.Message)
			assert.Empty(t, resp)
		})
	}
}

func TestCall_NullActionIsMissing(t *testing.T) {
	conn := startBufServer(t)

	out, err := call(t, conn, map[string]any{
		"backend": "sql",
		"action":  nil,
		"query":   "SELECT * FROM test_table",
	})
	require.NoError(t, err)

	resp, st, err := DecodeReply(out)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Code)
	assert.Contains(t, st.Message, dispatch.ErrMissingAction.Error())
	assert.Empty(t, resp)
}

func TestCall_TransportErrors(t *testing.T) {
	conn := startBufServer(t)

	tests := []struct {
		name   string
		fields map[string]any
		code   codes.Code
	}{
		{name: "missing backend", fields: map[string]any{"action": "query"}, code: codes.InvalidArgument},
		{name: "unknown backend", fields: map[string]any{"backend": "promql", "action": "query"}, code: codes.NotFound},
		{name: "nested value", fields: map[string]any{"backend": "sql", "query": map[string]any{"x": "y"}}, code: codes.InvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := call(t, conn, tt.fields)
			require.Error(t, err)
			assert.Equal(t, tt.code, status.Code(err))
		})
	}
}

func TestDecodeRequest(t *testing.T) {
	in, err := structpb.NewStruct(map[string]any{
		"backend": "sql",
		"action":  "query",
		"query":   "SELECT 1",
		"cache":   1,
		"extra":   nil,
	})
	require.NoError(t, err)

	backend, req, err := DecodeRequest(in)
	require.NoError(t, err)
	assert.Equal(t, "sql", backend)
	assert.Equal(t, dispatch.Request{"action": "query", "query": "SELECT 1", "cache": "1"}, req)
	_, present := req["extra"]
	assert.False(t, present, "null fields are dropped")
}

func TestEncodeRequest(t *testing.T) {
	in, err := EncodeRequest("kql", dispatch.Request{"action": "attach", "table": "processes"})
	require.NoError(t, err)

	backend, req, err := DecodeRequest(in)
	require.NoError(t, err)
	assert.Equal(t, "kql", backend)
	assert.Equal(t, dispatch.Request{"action": "attach", "table": "processes"}, req)
}

func TestDecodeReply_RejectsNonObjectRecords(t *testing.T) {
	out, err := structpb.NewStruct(map[string]any{
		"code":     0,
		"message":  "OK",
		"response": []any{"not an object"},
	})
	require.NoError(t, err)

	_, _, err = DecodeReply(out)
	assert.ErrorContains(t, err, "not an object")
}
