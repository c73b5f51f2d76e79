package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/wherering/internal/config"
	"github.com/oshokin/wherering/internal/domain/ringer"
	"github.com/oshokin/wherering/internal/service/server"
	"github.com/oshokin/wherering/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// placesDB overrides the place database.
	placesDB string
	// placesFile selects a YAML catalog instead of the database.
	placesFile string
	// stateFile path where the simulated ringer is persisted.
	stateFile string
	// initialMode is the ringer mode used when no state file exists.
	initialMode string
	// trackFile is replayed into the engine at startup.
	trackFile string
	// trackPace is the delay between replayed points.
	trackPace time.Duration
	// allowMultiple skips the single-instance check.
	allowMultiple bool

	// rootCmd represents the base command for running the engine server.
	rootCmd = &cobra.Command{
		Use:   "wherering-server [listen-address]",
		Short: "Run the WhereRing engine and its gRPC API.",
		Long: `Starts the proximity engine that switches the ringer mode when the device
enters or leaves a known place, and serves the gRPC API used by the wherering client.

Places are read from the SQLite place database, or from a YAML file with --places-file.
The ringer is simulated; its mode and last actor are persisted to a JSON file.
Only the port from ServerAddress config is used for listening (e.g., :50551).
Listen address can be provided as argument to override config (e.g., :9090, 0.0.0.0:50551).
With --track the server replays a track file as its location provider.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			mode, err := ringer.ParseMode(initialMode)
			if err != nil {
				return err
			}

			options := &server.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				PlacesDB:      placesDB,
				PlacesFile:    placesFile,
				StateFile:     stateFile,
				InitialMode:   mode,
				TrackFile:     trackFile,
				TrackPace:     trackPace,
				AllowMultiple: allowMultiple,
			}

			return server.Run(ctx, options)
		},
	}
)

// Execute runs the wherering-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.Flags()

	flags.StringVarP(&configPath, "config", "c", "",
		"path to configuration file (default "+config.DefaultConfigFilename+")")
	flags.StringVar(&placesDB, "places-db", "", "path to the place database")
	flags.StringVar(&placesFile, "places-file", "", "read places from a YAML file instead of the database")
	flags.StringVarP(&stateFile, "state-file", "s", "", "path to persist the ringer state")
	flags.StringVar(&initialMode, "initial-mode", ringer.ModeNormal.String(),
		"ringer mode when no state is persisted: silent, vibrate or normal")
	flags.StringVar(&trackFile, "track", "", "replay a track file as the location provider")
	flags.DurationVar(&trackPace, "track-pace", time.Second, "delay between replayed track points")
	flags.BoolVar(&allowMultiple, "allow-multiple", false, "do not refuse to start when another server runs")
}
