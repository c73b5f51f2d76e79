package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oshokin/wherering/internal/domain/ringer"
	"github.com/oshokin/wherering/internal/logger"
	"github.com/oshokin/wherering/internal/proximity"
	repo "github.com/oshokin/wherering/internal/repository/state"
)

// EngineActor attributes writes made by the proximity engine.
var EngineActor = ringer.Actor{Hostname: "localhost", Username: "wherering"}

// Ringer is an in-memory ringer device.
type Ringer struct {
	// repo persists the state; nil keeps it in memory only.
	repo repo.Repository
	// now is the clock used for change timestamps.
	now func() time.Time

	mu    sync.Mutex
	state *ringer.State
	// changed is closed and replaced on every mode change.
	changed chan struct{}
}

// Option configures a Ringer.
type Option func(*Ringer)

// WithRepository persists every change through repository.
func WithRepository(repository repo.Repository) Option {
	return func(r *Ringer) {
		r.repo = repository
	}
}

// WithClock replaces the change timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Ringer) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRinger creates a ringer in the initial mode, or in the persisted mode
// when the repository has one.
func NewRinger(ctx context.Context, initial ringer.Mode, opts ...Option) (*Ringer, error) {
	if !initial.Valid() {
		return nil, fmt.Errorf("initial mode %d: %w", int(initial), ringer.ErrUnknownMode)
	}

	r := &Ringer{
		now:     time.Now,
		changed: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(r)
	}

	r.state = &ringer.State{Timestamp: r.now(), Mode: initial}

	if r.repo == nil {
		return r, nil
	}

	state, err := r.repo.Load(ctx)
	switch {
	case err == nil:
		r.state = state
		logger.InfoKV(ctx, "Ringer state restored", "mode", state.Mode.String(), "actor", state.LastActor.String())
	case errors.Is(err, repo.ErrNotFound):
		// Keep the initial mode.
	default:
		return nil, fmt.Errorf("load ringer state: %w", err)
	}

	return r, nil
}

// Get returns the current mode.
func (r *Ringer) Get(context.Context) (ringer.Mode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state.Mode, nil
}

// State returns a copy of the current state.
func (r *Ringer) State() *ringer.State {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state.Clone()
}

// SetMode changes the mode on behalf of actor and persists the result.
// The in-memory state is left unchanged when persisting fails.
func (r *Ringer) SetMode(ctx context.Context, actor *ringer.Actor, mode ringer.Mode) (*ringer.State, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("set mode %d: %w", int(mode), ringer.ErrUnknownMode)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := &ringer.State{
		Timestamp: r.now(),
		LastActor: actor.Clone(),
		Mode:      mode,
	}

	if r.repo != nil {
		if err := r.repo.Save(ctx, next); err != nil {
			logger.Errorf(ctx, "Failed to persist ringer state: %v", err)

			return nil, fmt.Errorf("persist state: %w", err)
		}
	}

	previous := r.state.Mode
	r.state = next

	close(r.changed)
	r.changed = make(chan struct{})

	logger.InfoKV(ctx, "Ringer mode changed",
		"from", previous.String(), "to", mode.String(), "actor", next.LastActor.String())

	return next.Clone(), nil
}

// WaitFor blocks until cond holds for the current state or ctx ends.
func (r *Ringer) WaitFor(ctx context.Context, cond func(*ringer.State) bool) (*ringer.State, error) {
	for {
		r.mu.Lock()
		state := r.state.Clone()
		changed := r.changed
		r.mu.Unlock()

		if cond(state) {
			return state, nil
		}

		select {
		case <-ctx.Done():
			return state, ctx.Err()
		case <-changed:
		}
	}
}

// WaitForMode blocks until the ringer is in mode.
func (r *Ringer) WaitForMode(ctx context.Context, mode ringer.Mode) (*ringer.State, error) {
	return r.WaitFor(ctx, func(s *ringer.State) bool { return s.Mode == mode })
}

// As returns a RingerPort whose writes are attributed to actor.
func (r *Ringer) As(actor ringer.Actor) proximity.RingerPort {
	return &attributed{ringer: r, actor: actor}
}

// attributed is a RingerPort writing as a fixed actor.
type attributed struct {
	ringer *Ringer
	actor  ringer.Actor
}

func (a *attributed) Get(ctx context.Context) (ringer.Mode, error) {
	return a.ringer.Get(ctx)
}

func (a *attributed) Set(ctx context.Context, mode ringer.Mode) error {
	_, err := a.ringer.SetMode(ctx, &a.actor, mode)

	return err
}
