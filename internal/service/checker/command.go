// Package checker polls a running server and reports changes of the driving
// place and the ringer mode.
package checker

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	api "github.com/oshokin/wherering/internal/api/grpc/wherering"
	"github.com/oshokin/wherering/internal/config"
	"github.com/oshokin/wherering/internal/domain/ringer"
	"github.com/oshokin/wherering/internal/logger"
	"github.com/oshokin/wherering/internal/service/common"
)

// Options controls the checker polling behavior and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ServerAddress provides an optional gRPC server address override.
	ServerAddress string
	// PollInterval defines the interval between checks.
	PollInterval time.Duration
	// Out receives one line per observed change; stdout when nil.
	Out io.Writer
}

// DefaultPollInterval defines the polling interval when none is given.
const DefaultPollInterval = 2 * time.Second

// stateReader is the part of the client the checker needs.
type stateReader interface {
	GetStatus(ctx context.Context) (api.Status, error)
	GetRinger(ctx context.Context) (*ringer.State, error)
}

// snapshot is what the checker compares between polls.
type snapshot struct {
	driving string
	mode    ringer.Mode
	lastSeq uint64
}

// Run polls the server until ctx is canceled, printing a line whenever the
// driving place, the ringer mode or the last sequence number changes.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "wherering-watch")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	// Command line argument overrides config.
	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return fmt.Errorf("dial server: %w", err)
	}

	defer func() {
		_ = client.Close()
	}()

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	logger.InfoKV(ctx, "Watching engine", "server_address", serverAddress, "interval", interval.String())

	return poll(ctx, client, interval, out)
}

func poll(ctx context.Context, reader stateReader, interval time.Duration, out io.Writer) error {
	var last *snapshot

	check := func() {
		next, err := checkState(ctx, reader, last, out)
		if err != nil {
			logger.ErrorKV(ctx, "Check state failed", "error", err)
			return
		}

		last = next
	}

	check()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, exiting")
			return nil
		case <-ticker.C:
			check()
		}
	}
}

// checkState reads the server state and prints a line when it differs from
// last. It returns the snapshot to compare against next time.
func checkState(ctx context.Context, reader stateReader, last *snapshot, out io.Writer) (*snapshot, error) {
	status, err := reader.GetStatus(ctx)
	if err != nil {
		return last, err
	}

	state, err := reader.GetRinger(ctx)
	if err != nil {
		return last, err
	}

	next := &snapshot{
		driving: status.Engine.Driving,
		mode:    state.Mode,
		lastSeq: status.Engine.LastSeq,
	}

	if last != nil && *last == *next {
		return next, nil
	}

	driving := next.driving
	if driving == "" {
		driving = "-"
	}

	timestamp := time.Now().Format(time.RFC3339)
	if !state.Timestamp.IsZero() {
		timestamp = state.Timestamp.Format(time.RFC3339)
	}

	logger.DebugKV(ctx, "Engine changed", "seq", next.lastSeq, "driving", driving, "mode", next.mode.String())

	_, err = fmt.Fprintf(out, "%s seq=%d driving=%s ringer=%s by %s\n",
		timestamp, next.lastSeq, driving, next.mode, state.LastActor)

	return next, err
}
