package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/wherering/internal/config"
	"github.com/oshokin/wherering/internal/service/client"
	"github.com/oshokin/wherering/internal/version"
)

var (
	// configPath stores the configuration file path.
	configPath string
	// serverAddress overrides the server address from config.
	serverAddress string

	// rootCmd represents the base command of the WhereRing client.
	rootCmd = &cobra.Command{
		Use:   "wherering",
		Short: "Control and inspect a WhereRing engine.",
		Long: `Client for the WhereRing engine, which switches the ringer mode when the device
enters or leaves a known place.

Report location fixes or replay whole tracks, read and change the ringer,
inspect the engine, and manage the place catalog. The simulate command runs
the engine offline over a track and prints what it would do.`,
		SilenceUsage: true,
	}
)

// Execute runs the wherering CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// signalContext is canceled on SIGTERM or SIGINT.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
}

// clientOptions builds connection options for commands talking to the server.
func clientOptions(cmd *cobra.Command) *client.Options {
	return &client.Options{
		ConfigPath:    configPath,
		ServerAddress: serverAddress,
		Out:           cmd.OutOrStdout(),
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.PersistentFlags()

	flags.StringVarP(&configPath, "config", "c", "",
		"path to configuration file (default "+config.DefaultConfigFilename+")")
	flags.StringVarP(&serverAddress, "server", "a", "", "server address, overrides config")

	rootCmd.AddCommand(
		newFixCommand(),
		newReplayCommand(),
		newRingerCommand(),
		newStatusCommand(),
		newRefreshCommand(),
		newWatchCommand(),
		newPlacesCommand(),
		newSimulateCommand(),
		newConfigCommand(),
	)
}
