package server

import (
	"context"
	"fmt"

	api "github.com/oshokin/wherering/internal/api/grpc/wherering"
	"github.com/oshokin/wherering/internal/device"
	"github.com/oshokin/wherering/internal/domain/place"
	"github.com/oshokin/wherering/internal/domain/ringer"
	"github.com/oshokin/wherering/internal/location"
	"github.com/oshokin/wherering/internal/logger"
	"github.com/oshokin/wherering/internal/proximity"
)

// service exposes the engine, feed and ringer to the transport.
// It is unexported to keep the transport decoupled from the implementation.
type service struct {
	// engine is the proximity engine fed by feed.
	engine *proximity.Engine
	// feed queues fixes reported over the API.
	feed *location.Feed
	// ringer is the simulated device.
	ringer *device.Ringer
}

var _ api.Service = (*service)(nil)

// newService creates the service facade.
func newService(engine *proximity.Engine, feed *location.Feed, r *device.Ringer) *service {
	return &service{
		engine: engine,
		feed:   feed,
		ringer: r,
	}
}

// ReportFix queues a fix for the engine.
func (s *service) ReportFix(ctx context.Context, fix place.Fix) (int, error) {
	if err := s.feed.Push(fix); err != nil {
		return 0, fmt.Errorf("queue fix: %w", err)
	}

	pending := s.feed.Pending()

	logger.DebugKV(ctx, "Fix queued", "lat", fix.Lat, "lon", fix.Lon, "source", fix.Source, "pending", pending)

	return pending, nil
}

// GetRinger returns the ringer state.
func (s *service) GetRinger(ctx context.Context) *ringer.State {
	state := s.ringer.State()

	logger.DebugKV(ctx, "Ringer state requested", "mode", state.Mode.String(), "actor", state.LastActor.String())

	return state
}

// SetRinger changes the ringer mode manually. The engine notices the change
// on the next exit and leaves it in place.
func (s *service) SetRinger(ctx context.Context, actor *ringer.Actor, mode ringer.Mode) (*ringer.State, error) {
	return s.ringer.SetMode(ctx, actor, mode)
}

// GetStatus returns the engine status with the feed backlog.
func (s *service) GetStatus(context.Context) api.Status {
	return api.Status{
		Engine:  s.engine.Status(),
		Pending: s.feed.Pending(),
	}
}

// RefreshCatalog reloads the place catalog.
func (s *service) RefreshCatalog(ctx context.Context) (int, error) {
	if err := s.engine.Refresh(ctx); err != nil {
		return 0, err
	}

	return s.engine.Status().Places, nil
}
