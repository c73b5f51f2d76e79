package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/mitchellh/go-ps"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	api "github.com/oshokin/wherering/internal/api/grpc/wherering"
	"github.com/oshokin/wherering/internal/config"
	"github.com/oshokin/wherering/internal/device"
	"github.com/oshokin/wherering/internal/domain/place"
	"github.com/oshokin/wherering/internal/domain/ringer"
	"github.com/oshokin/wherering/internal/location"
	"github.com/oshokin/wherering/internal/logger"
	"github.com/oshokin/wherering/internal/proximity"
	"github.com/oshokin/wherering/internal/repository/places"
	repository "github.com/oshokin/wherering/internal/repository/state"
	"github.com/oshokin/wherering/internal/version"
)

// Options controls the wherering-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// PlacesDB overrides the place database path.
	PlacesDB string
	// PlacesFile selects a YAML catalog instead of the database.
	PlacesFile string
	// StateFile overrides the ringer state file.
	StateFile string
	// InitialMode is the ringer mode when no state file exists yet.
	InitialMode ringer.Mode
	// TrackFile is an optional track replayed into the feed at startup.
	TrackFile string
	// TrackPace is the delay between replayed track points.
	TrackPace time.Duration
	// AllowMultiple skips the single-instance check.
	AllowMultiple bool
	// OnListen, when set, receives the bound address once serving starts.
	OnListen func(addr net.Addr)
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run starts the engine and the gRPC server and blocks until ctx is cancelled
// or a component fails.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "wherering-server")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	applyOverrides(settings, opts)

	if err := logger.Setup(settings.LogLevel); err != nil {
		return err
	}

	if !opts.AllowMultiple {
		if err := ensureSingleInstance(ps.Processes); err != nil {
			return err
		}
	}

	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	metric, _ := place.MetricByName(settings.Metric)

	catalog, closeCatalog, err := places.OpenSource(ctx, settings.PlacesFile, settings.PlacesDB, metric)
	if err != nil {
		return err
	}

	defer func() {
		if err := closeCatalog(); err != nil {
			logger.WarnKV(ctx, "Failed to close place catalog", "error", err)
		}
	}()

	initial := opts.InitialMode
	if !initial.Valid() {
		initial = ringer.ModeNormal
	}

	ringerDevice, err := device.NewRinger(ctx, initial,
		device.WithRepository(repository.NewFileRepository(settings.RingerStateFile)))
	if err != nil {
		return fmt.Errorf("initialise ringer: %w", err)
	}

	engine := proximity.NewEngine(catalog, ringerDevice.As(device.EngineActor),
		proximity.WithMetric(metric),
		proximity.WithHysteresis(settings.HysteresisMeters),
		proximity.WithTimestampTolerance(settings.TimestampTolerance),
	)

	feed := location.NewFeed()
	runner := proximity.NewRunner(engine, feed)

	if err := runner.Start(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	defer func() {
		if err := runner.Stop(ctx); err != nil {
			logger.WarnKV(ctx, "Failed to stop engine", "error", err)
		}
	}()

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	grpcServer := grpc.NewServer()
	api.Register(grpcServer, api.NewServer(newService(engine, feed, ringerDevice)))

	logger.InfoKV(ctx, "WhereRing server listening",
		"listen_address", lis.Addr().String(),
		"metric", metric.Name(),
		"ringer_state_file", settings.RingerStateFile,
		"version", version.Short())

	if opts.OnListen != nil {
		opts.OnListen(lis.Addr())
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := feed.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}

		return err
	})

	g.Go(func() error {
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()
		feed.Close()

		return nil
	})

	if opts.TrackFile != "" {
		g.Go(func() error {
			return replayTrack(gctx, feed, opts.TrackFile, opts.TrackPace)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info(ctx, "WhereRing server stopped")

	return nil
}

// replayTrack pushes a track file into the feed as a simulated provider.
func replayTrack(ctx context.Context, feed *location.Feed, path string, pace time.Duration) error {
	track, err := location.LoadTrack(path)
	if err != nil {
		return err
	}

	fixes := track.Fixes(time.Now())

	logger.InfoKV(ctx, "Replaying track", "path", path, "points", len(fixes), "pace", pace)

	err = location.Play(ctx, fixes, pace, feed.PushSink())
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, location.ErrClosed)) {
		return nil
	}

	return err
}

// applyOverrides copies command line overrides into settings.
func applyOverrides(settings *config.Config, opts *Options) {
	if opts.PlacesDB != "" {
		settings.PlacesDB = opts.PlacesDB
	}

	if opts.PlacesFile != "" {
		settings.PlacesFile = opts.PlacesFile
	}

	if opts.StateFile != "" {
		settings.RingerStateFile = opts.StateFile
	}
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	// Bind on all interfaces.
	return ":" + port, nil
}
