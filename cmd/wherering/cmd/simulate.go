package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/wherering/internal/domain/ringer"
	"github.com/oshokin/wherering/internal/service/simulate"
)

func newSimulateCommand() *cobra.Command {
	var (
		placesFile  string
		placesDB    string
		initialMode string
	)

	cmd := &cobra.Command{
		Use:   "simulate <track.yaml>",
		Short: "Run the engine offline over a track and print what it does.",
		Long: `Runs a fresh engine with an in-memory ringer over every point of a track
and prints each enter and exit event with the ringer action taken. No server is
needed and no ringer state is persisted.

Track points may carry "ringer: <mode>" to script a manual change made just
before the point is reported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := ringer.ParseMode(initialMode)
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			return simulate.Run(ctx, &simulate.Options{
				ConfigPath:  configPath,
				PlacesFile:  placesFile,
				PlacesDB:    placesDB,
				TrackFile:   args[0],
				InitialMode: mode,
				Out:         cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVar(&placesFile, "places-file", "", "read places from a YAML file instead of the database")
	cmd.Flags().StringVar(&placesDB, "places-db", "", "path to the place database, overrides config")
	cmd.Flags().StringVar(&initialMode, "initial-mode", ringer.ModeNormal.String(), "ringer mode before the first point: "+modeChoices())

	return cmd
}
