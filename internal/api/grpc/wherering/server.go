package wherering

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/wherering/internal/domain/place"
	"github.com/oshokin/wherering/internal/domain/ringer"
	"github.com/oshokin/wherering/internal/logger"
	"github.com/oshokin/wherering/internal/proximity"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	// ReportFix queues a fix and returns the number of fixes pending.
	ReportFix(ctx context.Context, fix place.Fix) (int, error)
	GetRinger(ctx context.Context) *ringer.State
	SetRinger(ctx context.Context, actor *ringer.Actor, mode ringer.Mode) (*ringer.State, error)
	GetStatus(ctx context.Context) Status
	// RefreshCatalog reloads places and returns how many are usable.
	RefreshCatalog(ctx context.Context) (int, error)
}

// Server implements Handler on top of a Service.
type Server struct {
	// service provides the business logic.
	service Service
}

var _ Handler = (*Server)(nil)

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// ReportFix queues a position fix for the engine.
func (s *Server) ReportFix(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	fix, err := FixFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	pending, err := s.service.ReportFix(ctx, fix)
	if err != nil {
		logger.ErrorKV(ctx, "Fix rejected", "error", err)

		return nil, status.Error(codes.Unavailable, "fix feed is not accepting fixes")
	}

	return encode(countField("pending", pending))
}

// GetRinger returns the ringer state.
func (s *Server) GetRinger(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return encode(StateToStruct(s.service.GetRinger(ctx)))
}

// SetRinger changes the ringer mode on behalf of the caller.
func (s *Server) SetRinger(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	actor, mode, err := ParseSetRingerRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	state, err := s.service.SetRinger(ctx, actor, mode)
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to change ringer mode")
	}

	return encode(StateToStruct(state))
}

// GetStatus returns the engine status.
func (s *Server) GetStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return encode(StatusToStruct(s.service.GetStatus(ctx)))
}

// RefreshCatalog reloads the place catalog.
func (s *Server) RefreshCatalog(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	n, err := s.service.RefreshCatalog(ctx)

	switch {
	case err == nil:
		return encode(countField("places", n))
	case errors.Is(err, proximity.ErrNotStarted):
		return nil, status.Error(codes.FailedPrecondition, "engine is not started")
	default:
		logger.ErrorKV(ctx, "Catalog refresh failed", "error", err)

		return nil, status.Error(codes.Internal, "unable to load place catalog")
	}
}

// encode maps codec failures to Internal.
func encode(message *structpb.Struct, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode response")
	}

	return message, nil
}
