package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/wherering/internal/service/checker"
	"github.com/oshokin/wherering/internal/service/client"
)

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print engaged places, the driving place and the ringer.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			return client.Status(ctx, clientOptions(cmd))
		},
	}
}

func newRefreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Make the server reload its place catalog.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			return client.Refresh(ctx, clientOptions(cmd))
		},
	}
}

func newWatchCommand() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print a line whenever the driving place or the ringer changes.",
		Long: `Polls the server and prints the driving place, the last sequence number and
the ringer mode each time one of them changes. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			return checker.Run(ctx, &checker.Options{
				ConfigPath:    configPath,
				ServerAddress: serverAddress,
				PollInterval:  interval,
				Out:           cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", checker.DefaultPollInterval, "polling interval")

	return cmd
}
