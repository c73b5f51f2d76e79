package proximity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oshokin/wherering/internal/domain/place"
	"github.com/oshokin/wherering/internal/domain/ringer"
)

var (
	errTestWrite = errors.New("audio service unavailable")
	errTestRead  = errors.New("audio service not bound")
	errTestLoad  = errors.New("places table locked")
)

// staticCatalog is a Catalog backed by a slice.
type staticCatalog struct {
	mu     sync.Mutex
	places []place.Place
	err    error
}

// Load returns a copy of the configured places.
func (c *staticCatalog) Load(context.Context) ([]place.Place, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return nil, c.err
	}

	return append([]place.Place(nil), c.places...), nil
}

// set replaces the catalog contents.
func (c *staticCatalog) set(places ...place.Place) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.places = places
}

// fakeRinger is an in-memory RingerPort recording every write.
type fakeRinger struct {
	mu       sync.Mutex
	mode     ringer.Mode
	writes   []ringer.Mode
	failSet  bool
	failGet  bool
	getCalls int
}

// newFakeRinger creates a ringer in the given mode.
func newFakeRinger(mode ringer.Mode) *fakeRinger {
	return &fakeRinger{mode: mode}
}

// Get returns the current mode.
func (f *fakeRinger) Get(context.Context) (ringer.Mode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.getCalls++

	if f.failGet {
		return 0, errTestRead
	}

	return f.mode, nil
}

// Set records the write and changes the mode unless configured to fail.
func (f *fakeRinger) Set(_ context.Context, mode ringer.Mode) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failSet {
		return errTestWrite
	}

	f.mode = mode
	f.writes = append(f.writes, mode)

	return nil
}

// userSet changes the mode the way a person touching the ringer control would.
func (f *fakeRinger) userSet(mode ringer.Mode) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.mode = mode
}

// current returns the mode without counting a Get call.
func (f *fakeRinger) current() ringer.Mode {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.mode
}

// written returns a copy of the recorded writes.
func (f *fakeRinger) written() []ringer.Mode {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]ringer.Mode(nil), f.writes...)
}

// setFailures toggles read and write failures.
func (f *fakeRinger) setFailures(get, set bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failGet = get
	f.failSet = set
}

// circle builds a planar circular place.
func circle(id string, x, y, radius float64, mode ringer.Mode) place.Place {
	return place.Place{
		ID:       id,
		Name:     id,
		Geometry: place.Circle(place.Point{Lat: y, Lon: x}, radius),
		Mode:     mode,
	}
}

// baseTime anchors synthetic fix timestamps.
var baseTime = time.Date(2010, time.June, 1, 12, 0, 0, 0, time.UTC)

// planarFix builds an exact planar fix at baseTime plus offset.
func planarFix(x, y float64, offset time.Duration) place.Fix {
	return place.Fix{
		Lat:       y,
		Lon:       x,
		Accuracy:  0,
		Timestamp: baseTime.Add(offset),
		Source:    "test",
	}
}

// startPlanar creates and starts a planar engine with a 1 unit hysteresis.
func startPlanar(ctx context.Context, port RingerPort, places ...place.Place) (*Engine, error) {
	engine := NewEngine(
		&staticCatalog{places: places},
		port,
		WithMetric(place.Planar{}),
		WithHysteresis(1),
	)

	return engine, engine.Start(ctx)
}
