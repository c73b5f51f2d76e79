package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/wherering/internal/domain/place"
	"github.com/oshokin/wherering/internal/service/client"
)

func newFixCommand() *cobra.Command {
	var (
		accuracy float64
		source   string
	)

	cmd := &cobra.Command{
		Use:   "fix <lat> <lon>",
		Short: "Report one location fix.",
		Long: `Queues a location fix on the server. The fix is timestamped now.
Accuracy, when given, is used as the membership margin instead of the
configured hysteresis.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, err := parseCoordinate("latitude", args[0])
			if err != nil {
				return err
			}

			lon, err := parseCoordinate("longitude", args[1])
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			return client.ReportFix(ctx, clientOptions(cmd), place.Fix{
				Lat:       lat,
				Lon:       lon,
				Accuracy:  accuracy,
				Timestamp: time.Now(),
				Source:    source,
			})
		},
	}

	cmd.Flags().Float64Var(&accuracy, "accuracy", 0, "reported accuracy radius in meters")
	cmd.Flags().StringVar(&source, "source", "cli", "provider name recorded with the fix")

	return cmd
}

func newReplayCommand() *cobra.Command {
	var pace time.Duration

	cmd := &cobra.Command{
		Use:   "replay <track.yaml>",
		Short: "Send every point of a track file to the server.",
		Long: `Reads a YAML track and reports its points one after another, waiting
--pace between them. Timestamps are taken from the track, or counted from now
when the track has no start time.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			return client.Replay(ctx, clientOptions(cmd), args[0], pace)
		},
	}

	cmd.Flags().DurationVar(&pace, "pace", time.Second, "delay between points, 0 sends them back to back")

	return cmd
}

func parseCoordinate(name, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}

	return v, nil
}
