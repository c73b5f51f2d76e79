package simulate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/oshokin/wherering/internal/config"
	"github.com/oshokin/wherering/internal/device"
	"github.com/oshokin/wherering/internal/domain/place"
	"github.com/oshokin/wherering/internal/domain/ringer"
	"github.com/oshokin/wherering/internal/location"
	"github.com/oshokin/wherering/internal/logger"
	"github.com/oshokin/wherering/internal/proximity"
	"github.com/oshokin/wherering/internal/repository/places"
)

// Options controls an offline simulation.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// PlacesFile selects a YAML catalog instead of the database.
	PlacesFile string
	// PlacesDB overrides the place database from config.
	PlacesDB string
	// TrackFile is the track to run.
	TrackFile string
	// InitialMode is the ringer mode before the first fix; normal when unset.
	InitialMode ringer.Mode
	// Out receives the transcript; stdout when nil.
	Out io.Writer
}

// Scenario is everything a simulation needs.
type Scenario struct {
	Catalog     proximity.Catalog
	Track       *location.Track
	Metric      place.Metric
	Hysteresis  float64
	Tolerance   time.Duration
	InitialMode ringer.Mode
}

// manualActor attributes ringer changes scripted in the track.
var manualActor = ringer.Actor{Hostname: "track", Username: "user"}

// errTrackRequired is returned when no track file is given.
var errTrackRequired = errors.New("track file is required")

// Run loads settings, catalog and track, then writes the transcript.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "wherering-simulate")

	if opts.TrackFile == "" {
		return errTrackRequired
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if opts.PlacesFile != "" {
		cfg.PlacesFile = opts.PlacesFile
	}

	if opts.PlacesDB != "" {
		cfg.PlacesDB = opts.PlacesDB
	}

	metric, _ := place.MetricByName(cfg.Metric)

	catalog, closeCatalog, err := places.OpenSource(ctx, cfg.PlacesFile, cfg.PlacesDB, metric)
	if err != nil {
		return err
	}

	defer func() {
		if err := closeCatalog(); err != nil {
			logger.WarnKV(ctx, "Failed to close place catalog", "error", err)
		}
	}()

	track, err := location.LoadTrack(opts.TrackFile)
	if err != nil {
		return err
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	return Simulate(ctx, &Scenario{
		Catalog:     catalog,
		Track:       track,
		Metric:      metric,
		Hysteresis:  cfg.HysteresisMeters,
		Tolerance:   cfg.TimestampTolerance,
		InitialMode: opts.InitialMode,
	}, out)
}

// Simulate feeds every track point to a fresh engine backed by an in-memory
// ringer and writes one block per point to out.
func Simulate(ctx context.Context, scenario *Scenario, out io.Writer) error {
	initial := scenario.InitialMode
	if !initial.Valid() {
		initial = ringer.ModeNormal
	}

	phone, err := device.NewRinger(ctx, initial)
	if err != nil {
		return err
	}

	opts := []proximity.Option{
		proximity.WithHysteresis(scenario.Hysteresis),
		proximity.WithTimestampTolerance(scenario.Tolerance),
	}

	if scenario.Metric != nil {
		opts = append(opts, proximity.WithMetric(scenario.Metric))
	}

	engine := proximity.NewEngine(scenario.Catalog, phone.As(device.EngineActor), opts...)
	if err = engine.Start(ctx); err != nil {
		return err
	}

	w := &transcript{out: out}

	status := engine.Status()
	w.linef("start: %d places, ringer %s", status.Places, initial)

	fixes := scenario.Track.Fixes(time.Now())

	for i, fix := range fixes {
		point := scenario.Track.Points[i]

		w.linef("[%d] %s (%.6f, %.6f)%s", i+1, fix.Timestamp.UTC().Format(time.RFC3339), fix.Lat, fix.Lon, note(point.Note))

		if point.Ringer != "" {
			if err := manualChange(ctx, phone, point.Ringer, w); err != nil {
				return err
			}
		}

		report, err := engine.HandleFix(ctx, fix)

		switch {
		case errors.Is(err, proximity.ErrInvalidFix):
			w.linef("    invalid fix discarded")
			continue
		case err != nil && report == nil:
			return err
		case err != nil:
			w.linef("    ringer error")
		}

		if len(report.Results) == 0 {
			w.linef("    no transitions")
		}

		for _, res := range report.Results {
			w.linef("    %s %s", res.Event, formatOutcome(res.Outcome))
		}

		w.linef("    ringer %s, %s", phone.State().Mode, formatHistory(report.History))
	}

	status = engine.Status()
	w.linef("end: driving %s, last seq %d, ringer %s", orDash(status.Driving), status.LastSeq, phone.State().Mode)

	return w.err
}

func manualChange(ctx context.Context, phone *device.Ringer, name string, w *transcript) error {
	mode, err := ringer.ParseMode(name)
	if err != nil {
		return err
	}

	if _, err := phone.SetMode(ctx, &manualActor, mode); err != nil {
		return err
	}

	w.linef("    manual ringer %s", mode)

	return nil
}

func formatOutcome(o proximity.Outcome) string {
	if o.Mode.Valid() {
		return o.Action.String() + " " + o.Mode.String()
	}

	return o.Action.String()
}

func formatHistory(h ringer.History) string {
	if !h.ChangedByPolicy {
		return "not owned"
	}

	return "owned, restores " + h.PriorMode.String()
}

func note(s string) string {
	if s == "" {
		return ""
	}

	return " " + s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

// transcript writes lines and keeps the first write error.
type transcript struct {
	out io.Writer
	err error
}

func (t *transcript) linef(format string, args ...any) {
	if t.err != nil {
		return
	}

	line := strings.TrimRight(fmt.Sprintf(format, args...), " ")
	_, t.err = fmt.Fprintln(t.out, line)
}
