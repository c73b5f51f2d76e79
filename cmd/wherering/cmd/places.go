package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oshokin/wherering/internal/domain/place"
	"github.com/oshokin/wherering/internal/domain/ringer"
	"github.com/oshokin/wherering/internal/service/catalog"
)

var (
	// errShapeRequired is returned when a place is given neither a radius nor vertices.
	errShapeRequired = errors.New("either --radius with --lat/--lon or at least three --vertex flags are required")
	// errShapeAmbiguous is returned when a place is given both shapes.
	errShapeAmbiguous = errors.New("--radius and --vertex cannot be combined")
)

// catalogFlags are shared by every places subcommand.
type catalogFlags struct {
	placesDB  string
	noRefresh bool
}

func (f *catalogFlags) options(cmd *cobra.Command) *catalog.Options {
	return &catalog.Options{
		ConfigPath:    configPath,
		PlacesDB:      f.placesDB,
		ServerAddress: serverAddress,
		NoRefresh:     f.noRefresh,
		Out:           cmd.OutOrStdout(),
	}
}

func newPlacesCommand() *cobra.Command {
	flags := new(catalogFlags)

	cmd := &cobra.Command{
		Use:   "places",
		Short: "Manage the place catalog.",
		Long: `Edits the SQLite place catalog. After a change a running server is asked
to reload it; use --no-refresh when no server is running.`,
	}

	cmd.PersistentFlags().StringVar(&flags.placesDB, "places-db", "", "path to the place database, overrides config")
	cmd.PersistentFlags().BoolVar(&flags.noRefresh, "no-refresh", false, "do not notify the server")

	cmd.AddCommand(
		newPlacesAddCommand(flags),
		&cobra.Command{
			Use:   "list",
			Short: "List places in evaluation order.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx, stop := signalContext()
				defer stop()

				return catalog.List(ctx, flags.options(cmd))
			},
		},
		&cobra.Command{
			Use:     "remove <id>",
			Aliases: []string{"rm"},
			Short:   "Remove a place.",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, stop := signalContext()
				defer stop()

				return catalog.Remove(ctx, flags.options(cmd), args[0])
			},
		},
		&cobra.Command{
			Use:   "import <places.yaml>",
			Short: "Add or update every place of a YAML catalog file.",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, stop := signalContext()
				defer stop()

				return catalog.Import(ctx, flags.options(cmd), args[0])
			},
		},
		&cobra.Command{
			Use:   "export [places.yaml]",
			Short: "Write the catalog as YAML, to stdout when no file is given.",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				path := "-"
				if len(args) > 0 {
					path = args[0]
				}

				ctx, stop := signalContext()
				defer stop()

				return catalog.Export(ctx, flags.options(cmd), path)
			},
		},
	)

	return cmd
}

func newPlacesAddCommand(flags *catalogFlags) *cobra.Command {
	var (
		id, name, mode string
		lat, lon       float64
		radius         float64
		vertices       []string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add or update a place.",
		Long: `Adds a circular place (--lat, --lon, --radius) or a polygon (three or more
--vertex lat,lon flags). Without --id a new id is generated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsedMode, err := ringer.ParseMode(mode)
			if err != nil {
				return err
			}

			geometry, err := buildGeometry(lat, lon, radius, vertices)
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			return catalog.Add(ctx, flags.options(cmd), place.Place{
				ID:       id,
				Name:     name,
				Geometry: geometry,
				Mode:     parsedMode,
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "place id, generated when empty")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&mode, "mode", "", "ringer mode inside the place: "+modeChoices())
	cmd.Flags().Float64Var(&lat, "lat", 0, "circle center latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "circle center longitude")
	cmd.Flags().Float64Var(&radius, "radius", 0, "circle radius in meters")
	cmd.Flags().StringArrayVar(&vertices, "vertex", nil, "polygon vertex as lat,lon; repeat for each vertex")

	if err := cmd.MarkFlagRequired("mode"); err != nil {
		panic(err)
	}

	return cmd
}

// buildGeometry turns the add flags into a circle or a polygon.
func buildGeometry(lat, lon, radius float64, vertices []string) (place.Geometry, error) {
	switch {
	case radius != 0 && len(vertices) > 0:
		return place.Geometry{}, errShapeAmbiguous
	case radius != 0:
		return place.Circle(place.Point{Lat: lat, Lon: lon}, radius), nil
	case len(vertices) > 0:
		ring := make([]place.Point, 0, len(vertices))

		for _, raw := range vertices {
			p, err := parseVertex(raw)
			if err != nil {
				return place.Geometry{}, err
			}

			ring = append(ring, p)
		}

		return place.Polygon(ring...), nil
	default:
		return place.Geometry{}, errShapeRequired
	}
}

func parseVertex(raw string) (place.Point, error) {
	latRaw, lonRaw, ok := strings.Cut(raw, ",")
	if !ok {
		return place.Point{}, fmt.Errorf("vertex %q: expected lat,lon", raw)
	}

	lat, err := parseCoordinate("latitude", strings.TrimSpace(latRaw))
	if err != nil {
		return place.Point{}, err
	}

	lon, err := parseCoordinate("longitude", strings.TrimSpace(lonRaw))
	if err != nil {
		return place.Point{}, err
	}

	return place.Point{Lat: lat, Lon: lon}, nil
}
