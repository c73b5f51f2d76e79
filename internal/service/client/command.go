package client

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/oshokin/wherering/internal/config"
	"github.com/oshokin/wherering/internal/domain/place"
	"github.com/oshokin/wherering/internal/domain/ringer"
	"github.com/oshokin/wherering/internal/location"
	"github.com/oshokin/wherering/internal/logger"
	"github.com/oshokin/wherering/internal/service/common"
)

// Options configures how commands reach the server.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// ServerAddress overrides server address from config when specified.
	ServerAddress string
	// Out receives command output; stdout when nil.
	Out io.Writer
}

// DefaultPushInterval defines retry delay when pushing a ringer mode to the server.
const defaultPushInterval = 1 * time.Second

// session is an open connection with the settings it was made from.
type session struct {
	client *common.Client
	cfg    *config.Config
	out    io.Writer
}

func connect(ctx context.Context, opts *Options) (*session, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return nil, err
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	return &session{client: client, cfg: cfg, out: out}, nil
}

func (s *session) close() {
	_ = s.client.Close()
}

// ReportFix sends one fix. A zero timestamp is replaced with the current time.
func ReportFix(ctx context.Context, opts *Options, fix place.Fix) error {
	ctx = logger.WithName(ctx, "wherering-fix")

	s, err := connect(ctx, opts)
	if err != nil {
		return err
	}
	defer s.close()

	if fix.Timestamp.IsZero() {
		fix.Timestamp = time.Now()
	}

	if fix.Source == "" {
		fix.Source = "cli"
	}

	pending, err := s.client.ReportFix(ctx, fix)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(s.out, "fix (%.6f, %.6f) queued, %d pending\n", fix.Lat, fix.Lon, pending)

	return err
}

// Replay sends every point of a track file, waiting pace between points.
func Replay(ctx context.Context, opts *Options, trackPath string, pace time.Duration) error {
	ctx = logger.WithName(ctx, "wherering-replay")

	track, err := location.LoadTrack(trackPath)
	if err != nil {
		return err
	}

	s, err := connect(ctx, opts)
	if err != nil {
		return err
	}
	defer s.close()

	fixes := track.Fixes(time.Now())

	logger.InfoKV(ctx, "Replaying track", "path", trackPath, "points", len(fixes), "pace", pace.String())

	sent := 0

	err = location.Play(ctx, fixes, pace, func(ctx context.Context, fix place.Fix) error {
		if _, err := s.client.ReportFix(ctx, fix); err != nil {
			return err
		}

		sent++

		return nil
	})

	if _, printErr := fmt.Fprintf(s.out, "%d of %d fixes sent\n", sent, len(fixes)); printErr != nil && err == nil {
		err = printErr
	}

	return err
}

// GetRinger prints the ringer state.
func GetRinger(ctx context.Context, opts *Options) error {
	s, err := connect(ctx, opts)
	if err != nil {
		return err
	}
	defer s.close()

	state, err := s.client.GetRinger(ctx)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(s.out, formatState(state))

	return err
}

// SetRinger changes the ringer mode as the current user, retrying until the
// server confirms the mode or ctx ends.
func SetRinger(ctx context.Context, opts *Options, mode ringer.Mode) error {
	ctx = logger.WithName(ctx, "wherering-ringer")

	s, err := connect(ctx, opts)
	if err != nil {
		return err
	}
	defer s.close()

	// Identify current user and hostname so the engine sees a manual change.
	actor, err := common.DetectActor()
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Pushing ringer mode", "mode", mode.String(), "actor", actor.String())

	// attempt tries once to change the mode, returns completed.
	attempt := func() bool {
		state, err := s.client.SetRinger(ctx, actor, mode)
		if err != nil {
			// Log error but continue retrying for transient failures.
			logger.ErrorKV(ctx, "SetRinger failed", "error", err)
			return false
		}

		if state.Mode != mode {
			return false
		}

		_, _ = fmt.Fprintln(s.out, formatState(state))

		return true
	}

	if attempt() {
		return nil
	}

	ticker := time.NewTicker(defaultPushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if attempt() {
				return nil
			}
		}
	}
}

// Status prints the engine status.
func Status(ctx context.Context, opts *Options) error {
	s, err := connect(ctx, opts)
	if err != nil {
		return err
	}
	defer s.close()

	status, err := s.client.GetStatus(ctx)
	if err != nil {
		return err
	}

	state, err := s.client.GetRinger(ctx)
	if err != nil {
		return err
	}

	_, err = io.WriteString(s.out, formatStatus(status, state))

	return err
}

// Refresh asks the server to reload its catalog.
func Refresh(ctx context.Context, opts *Options) error {
	s, err := connect(ctx, opts)
	if err != nil {
		return err
	}
	defer s.close()

	n, err := s.client.RefreshCatalog(ctx)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(s.out, "catalog reloaded, %d places\n", n)

	return err
}
