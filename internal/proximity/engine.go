package proximity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/oshokin/wherering/internal/domain/place"
	"github.com/oshokin/wherering/internal/domain/ringer"
	"github.com/oshokin/wherering/internal/logger"
)

// Result is the outcome of one policy step.
type Result struct {
	Event   Event
	Outcome Outcome
}

// Report summarises the processing of one fix.
type Report struct {
	// Fix is the processed fix.
	Fix place.Fix
	// Results lists each transition with its policy outcome, in sequence order.
	Results []Result
	// History is the ringer history after the fix.
	History ringer.History
}

// Events returns the transitions of the report in sequence order.
func (r *Report) Events() []Event {
	events := make([]Event, 0, len(r.Results))
	for _, res := range r.Results {
		events = append(events, res.Event)
	}

	return events
}

// Status is a point-in-time view of the engine.
type Status struct {
	// Started reports whether Start has completed.
	Started bool
	// Places is the number of usable places in the catalog snapshot.
	Places int
	// Engaged lists engaged places in Enter order.
	Engaged []Engagement
	// Driving is the policy-driving place id, empty when none.
	Driving string
	// History is the current ringer history.
	History ringer.History
	// LastSeq is the last issued sequence number.
	LastSeq uint64
	// LastFix is the timestamp of the newest accepted fix.
	LastFix time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetric sets the distance metric.
func WithMetric(metric place.Metric) Option {
	return func(e *Engine) {
		if metric != nil {
			e.metric = metric
		}
	}
}

// WithHysteresis sets the membership margin used for fixes without accuracy.
func WithHysteresis(margin float64) Option {
	return func(e *Engine) {
		if margin > 0 {
			e.hysteresis = margin
		}
	}
}

// WithTimestampTolerance sets how far a fix may go back in time before it is
// discarded as a regression.
func WithTimestampTolerance(tolerance time.Duration) Option {
	return func(e *Engine) {
		if tolerance >= 0 {
			e.tolerance = tolerance
		}
	}
}

// Engine is the proximity state machine and ringer policy engine.
//
// All mutable state is confined to the Engine value and only touched while
// holding mu, one fix at a time.
type Engine struct {
	// catalog supplies place definitions.
	catalog Catalog
	// port is the device ringer.
	port RingerPort
	// policy decides ringer actions.
	policy Policy

	// metric, hysteresis and tolerance are fixed at construction.
	metric     place.Metric
	hysteresis float64
	tolerance  time.Duration

	// mu serializes the fix pipeline and guards everything below.
	mu        sync.Mutex
	started   bool
	places    []place.Place
	evaluator *Evaluator
	sequencer *Sequencer
	history   ringer.History
	lastFix   time.Time
}

// NewEngine creates an engine. Call Start before feeding fixes.
func NewEngine(catalog Catalog, port RingerPort, opts ...Option) *Engine {
	e := &Engine{
		catalog:    catalog,
		port:       port,
		metric:     place.Geodesic{},
		hysteresis: DefaultHysteresis,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.evaluator = NewEvaluator(e.metric, e.hysteresis)
	e.sequencer = NewSequencer(NewClock())

	return e
}

// Start resets engagement, history and the sequence counter and loads the
// catalog.
func (e *Engine) Start(ctx context.Context) error {
	places, err := e.load(ctx)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.places = places
	e.sequencer = NewSequencer(NewClock())
	e.history = ringer.History{}
	e.lastFix = time.Time{}
	e.started = true

	logger.InfoKV(ctx, "Proximity engine started", "places", len(places), "metric", e.metric.Name())

	return nil
}

// Refresh replaces the catalog snapshot. Engaged places stay engaged until a
// fix no longer places the device inside them.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	started := e.started
	e.mu.Unlock()

	if !started {
		return ErrNotStarted
	}

	places, err := e.load(ctx)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.places = places

	logger.InfoKV(ctx, "Place catalog refreshed", "places", len(places))

	return nil
}

// HandleFix runs the whole pipeline for one fix.
//
// Invalid fixes are discarded with an error matching ErrInvalidFix and leave
// the state untouched. Ringer failures do not stop the remaining events of
// the fix from being applied; they are joined into the returned error, which
// matches ErrRingerWrite or ErrRingerRead.
func (e *Engine) HandleFix(ctx context.Context, fix place.Fix) (*Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return nil, ErrNotStarted
	}

	if err := e.validate(fix); err != nil {
		logger.WarnKV(ctx, "Discarded invalid fix",
			"error", err, "lat", fix.Lat, "lon", fix.Lon, "timestamp", fix.Timestamp, "source", fix.Source)

		return nil, err
	}

	if fix.Timestamp.After(e.lastFix) {
		e.lastFix = fix.Timestamp
	}

	members := e.evaluator.Evaluate(fix, e.places)
	transitions := e.sequencer.Advance(fix, members)

	report := &Report{
		Fix:     fix,
		Results: make([]Result, 0, len(transitions)),
	}

	var errs []error

	for _, tr := range transitions {
		history, outcome, err := e.policy.Apply(ctx, tr, e.history, e.port)
		e.history = history

		report.Results = append(report.Results, Result{Event: tr.Event, Outcome: outcome})

		if err != nil {
			logger.ErrorKV(ctx, "Ringer policy step failed", "event", tr.Event.String(), "error", err)
			errs = append(errs, err)

			continue
		}

		logger.InfoKV(ctx, "Place transition",
			"event", tr.Event.Kind.String(),
			"place_id", tr.Place.ID,
			"place", tr.Place.Label(),
			"seq", tr.Event.Seq,
			"action", outcome.Action.String())

		if outcome.Mode.Valid() {
			logger.DebugKV(ctx, "Ringer mode written", "mode", outcome.Mode.String(), "seq", tr.Event.Seq)
		}
	}

	report.History = e.history

	return report, errors.Join(errs...)
}

// Status returns a snapshot of the engine state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	status := Status{
		Started: e.started,
		Places:  len(e.places),
		Engaged: e.sequencer.Engaged(),
		History: e.history,
		LastSeq: e.sequencer.LastSeq(),
		LastFix: e.lastFix,
	}

	if p, ok := e.sequencer.Driving(); ok {
		status.Driving = p.ID
	}

	return status
}

// validate rejects fixes that must not reach the state machine.
func (e *Engine) validate(fix place.Fix) error {
	if !e.metric.ValidPoint(fix.Point()) {
		return eris.Wrapf(ErrInvalidFix, "coordinates (%v, %v) out of range for %s metric",
			fix.Lat, fix.Lon, e.metric.Name())
	}

	if fix.Timestamp.IsZero() {
		return eris.Wrap(ErrInvalidFix, "missing timestamp")
	}

	if !e.lastFix.IsZero() && fix.Timestamp.Before(e.lastFix.Add(-e.tolerance)) {
		return eris.Wrapf(ErrInvalidFix, "timestamp %s regresses behind %s",
			fix.Timestamp.Format(time.RFC3339Nano), e.lastFix.Format(time.RFC3339Nano))
	}

	return nil
}

// load reads the catalog and keeps only usable, uniquely identified places.
func (e *Engine) load(ctx context.Context) ([]place.Place, error) {
	if e.catalog == nil {
		return nil, nil
	}

	loaded, err := e.catalog.Load(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "load place catalog")
	}

	places := make([]place.Place, 0, len(loaded))
	seen := make(map[string]struct{}, len(loaded))

	for i := range loaded {
		if err := loaded[i].Validate(e.metric); err != nil {
			logger.WarnKV(ctx, "Skipping invalid place", "place_id", loaded[i].ID, "error", err)
			continue
		}

		if _, dup := seen[loaded[i].ID]; dup {
			logger.WarnKV(ctx, "Skipping duplicate place", "place_id", loaded[i].ID)
			continue
		}

		seen[loaded[i].ID] = struct{}{}
		places = append(places, loaded[i])
	}

	return places, nil
}
