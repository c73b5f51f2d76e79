package location

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/wherering/internal/domain/place"
)

// DefaultInterval separates consecutive track points without explicit time.
const DefaultInterval = time.Second

// ErrEmptyTrack is returned for a track without points.
var ErrEmptyTrack = errors.New("track has no points")

// Track is a scripted movement.
//
//	source: mock
//	start: 2010-06-01T12:00:00Z
//	interval: 1s
//	points:
//	  - {lat: 48.865633, lon: 2.321236, accuracy: 10}
//	  - {lat: 42.348517, lon: -71.08387, after: 5s}
type Track struct {
	// Source is copied into every fix.
	Source string `yaml:"source,omitempty"`
	// Start is the timestamp of the first point; now when empty.
	Start time.Time `yaml:"start,omitempty"`
	// Interval is the default gap between points.
	Interval time.Duration `yaml:"interval,omitempty"`
	// Points are the positions, in order.
	Points []TrackPoint `yaml:"points"`
}

// TrackPoint is one position of a track.
type TrackPoint struct {
	Lat      float64 `yaml:"lat"`
	Lon      float64 `yaml:"lon"`
	Accuracy float64 `yaml:"accuracy,omitempty"`
	// After overrides the gap to the previous point.
	After *time.Duration `yaml:"after,omitempty"`
	// Note is a free-form label kept for readability of track files.
	Note string `yaml:"note,omitempty"`
	// Ringer is a manual ringer change made just before the point is
	// reported. Only offline simulation acts on it.
	Ringer string `yaml:"ringer,omitempty"`
}

// LoadTrack reads a YAML track file.
func LoadTrack(path string) (*Track, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Track path is provided by the operator.
	if err != nil {
		return nil, fmt.Errorf("read track file %s: %w", path, err)
	}

	return ParseTrack(data)
}

// ParseTrack decodes a YAML track.
func ParseTrack(data []byte) (*Track, error) {
	track := new(Track)
	if err := yaml.Unmarshal(data, track); err != nil {
		return nil, fmt.Errorf("parse track: %w", err)
	}

	if len(track.Points) == 0 {
		return nil, ErrEmptyTrack
	}

	return track, nil
}

// Fixes expands the track into timestamped fixes. now is used when the
// track has no start time.
func (t *Track) Fixes(now time.Time) []place.Fix {
	interval := t.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	at := t.Start
	if at.IsZero() {
		at = now
	}

	source := t.Source
	if source == "" {
		source = "track"
	}

	fixes := make([]place.Fix, 0, len(t.Points))

	for i, p := range t.Points {
		if i > 0 {
			gap := interval
			if p.After != nil {
				gap = *p.After
			}

			at = at.Add(gap)
		}

		fixes = append(fixes, place.Fix{
			Lat:       p.Lat,
			Lon:       p.Lon,
			Accuracy:  p.Accuracy,
			Timestamp: at,
			Source:    source,
		})
	}

	return fixes
}

// Sink accepts fixes, such as Feed.Push or a remote client.
type Sink func(ctx context.Context, fix place.Fix) error

// Play sends fixes to sink, waiting pace between consecutive fixes. A zero
// pace sends them back to back. Play stops at the first sink error.
func Play(ctx context.Context, fixes []place.Fix, pace time.Duration, sink Sink) error {
	var ticker *time.Ticker

	if pace > 0 {
		ticker = time.NewTicker(pace)
		defer ticker.Stop()
	}

	for i, fix := range fixes {
		if i > 0 && ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if err := sink(ctx, fix); err != nil {
			return fmt.Errorf("send fix %d: %w", i, err)
		}
	}

	return nil
}

// PushSink adapts a feed to a Sink.
func (f *Feed) PushSink() Sink {
	return func(_ context.Context, fix place.Fix) error {
		return f.Push(fix)
	}
}
