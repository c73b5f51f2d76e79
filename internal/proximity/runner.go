package proximity

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rotisserie/eris"

	"github.com/oshokin/wherering/internal/domain/place"
	"github.com/oshokin/wherering/internal/logger"
)

// Runner subscribes an Engine to a FixSource.
//
// Started and Subscribed expose the lifecycle to callers and tests without
// reaching into private state.
type Runner struct {
	engine *Engine
	source FixSource

	// onReport, when set, receives every report and error after the engine
	// has processed a fix.
	onReport func(*Report, error)

	started    atomic.Bool
	subscribed atomic.Bool
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithReportHook registers a callback invoked after every processed fix.
func WithReportHook(hook func(*Report, error)) RunnerOption {
	return func(r *Runner) {
		r.onReport = hook
	}
}

// NewRunner creates a runner for the given engine and source.
func NewRunner(engine *Engine, source FixSource, opts ...RunnerOption) *Runner {
	r := &Runner{
		engine: engine,
		source: source,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Start starts the engine and subscribes to the fix source.
func (r *Runner) Start(ctx context.Context) error {
	if err := r.engine.Start(ctx); err != nil {
		return eris.Wrap(err, "start engine")
	}

	r.started.Store(true)

	if err := r.source.Subscribe(r.handle); err != nil {
		return eris.Wrap(err, "subscribe to fixes")
	}

	r.subscribed.Store(true)

	logger.Info(ctx, "Subscribed to location fixes")

	return nil
}

// Stop unsubscribes from the fix source.
func (r *Runner) Stop(ctx context.Context) error {
	if !r.subscribed.Load() {
		return nil
	}

	if err := r.source.Unsubscribe(); err != nil {
		return eris.Wrap(err, "unsubscribe from fixes")
	}

	r.subscribed.Store(false)
	r.started.Store(false)

	logger.Info(ctx, "Unsubscribed from location fixes")

	return nil
}

// Started reports whether the engine was started by this runner.
func (r *Runner) Started() bool {
	return r.started.Load()
}

// Subscribed reports whether the runner currently receives fixes.
func (r *Runner) Subscribed() bool {
	return r.subscribed.Load()
}

// handle is the fix callback registered with the source.
func (r *Runner) handle(ctx context.Context, fix place.Fix) {
	report, err := r.engine.HandleFix(ctx, fix)

	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidFix):
		// Already logged by the engine.
	default:
		logger.ErrorKV(ctx, "Fix processing failed", "error", err)
	}

	if r.onReport != nil {
		r.onReport(report, err)
	}
}
