package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cedricziel/vtql/internal/dispatch"
	"github.com/cedricziel/vtql/internal/engine/backends"
)

// DispatchServer serves dispatch calls against registered backends
type DispatchServer struct {
	registry   *backends.Registry
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger
}

// New creates a dispatch server
func New(registry *backends.Registry, dispatcher *dispatch.Dispatcher, logger *slog.Logger) *DispatchServer {
	if dispatcher == nil {
		dispatcher = dispatch.New(dispatch.Config{Logger: logger})
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DispatchServer{
		registry:   registry,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Call dispatches one request. Backend failures are reported in the reply's
// code and message; transport errors are reserved for malformed calls.
func (s *DispatchServer) Call(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	startTime := time.Now()

	backendName, req, err := DecodeRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if backendName == "" {
		return nil, status.Error(codes.InvalidArgument, "backend cannot be empty")
	}

	backend, ok := s.registry.Get(backendName)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "unknown backend %q", backendName)
	}

	requestID := uuid.NewString()
	ctx = dispatch.WithRequestInfo(ctx, dispatch.RequestInfo{RequestID: requestID, Backend: backendName})

	resp, err := s.dispatcher.Dispatch(ctx, backend, req)
	result := dispatch.StatusOf(err)

	s.logger.Info("call served",
		"request_id", requestID,
		"backend", backendName,
		"action", req[dispatch.KeyAction],
		"code", result.Code,
		"records", len(resp),
		"duration", time.Since(startTime))

	out, err := EncodeReply(requestID, resp, result)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding reply: %v", err)
	}
	return out, nil
}

var _ DispatcherServer = (*DispatchServer)(nil)
