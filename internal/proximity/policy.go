package proximity

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/oshokin/wherering/internal/domain/place"
	"github.com/oshokin/wherering/internal/domain/ringer"
)

// Action is what the policy did for one event.
type Action int

const (
	// ActionNone means the event did not concern the policy-driving place.
	ActionNone Action = iota
	// ActionApply means a place mode was written.
	ActionApply
	// ActionRestore means the mode captured before entry was written back.
	ActionRestore
	// ActionSuppressed means a restore or handoff found an external change
	// and left the ringer alone.
	ActionSuppressed
	// ActionHandoff means the driving place was left for a place entered by
	// the same fix; the history carries over to the new place.
	ActionHandoff
	// ActionRelease means the last place was left with nothing to restore.
	ActionRelease
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionApply:
		return "apply"
	case ActionRestore:
		return "restore"
	case ActionSuppressed:
		return "suppressed"
	case ActionHandoff:
		return "handoff"
	case ActionRelease:
		return "release"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Outcome describes the policy decision for one event.
type Outcome struct {
	// Action is what the policy did.
	Action Action
	// Mode is the mode written by ActionApply and ActionRestore.
	Mode ringer.Mode
}

// Policy maps transitions to ringer actions. It holds no state: the ringer
// history is passed in and returned.
type Policy struct{}

// Apply decides and performs the ringer action for one transition.
//
// On error the returned history is the one that is safe to keep: a failed
// write never marks the ringer as policy-owned.
func (p Policy) Apply(
	ctx context.Context,
	tr Transition,
	history ringer.History,
	port RingerPort,
) (ringer.History, Outcome, error) {
	if !tr.Step.Driving {
		return history, Outcome{Action: ActionNone}, nil
	}

	if tr.Event.Kind == KindEnter {
		return p.applyPlace(ctx, tr.Event, &tr.Place, history, port)
	}

	// Falling back to an older engaged place re-applies its mode.
	if tr.Step.Next != nil && !tr.Step.NextEntered {
		return p.applyPlace(ctx, tr.Event, tr.Step.Next, history, port)
	}

	current, err := port.Get(ctx)
	if err != nil {
		// A handoff keeps the history for the incoming place; a final exit
		// has nothing left to restore into.
		kept := history
		if tr.Step.Next == nil {
			kept = ringer.History{}
		}

		return kept, Outcome{Action: ActionNone}, &StepError{
			Event: tr.Event,
			Kind:  ErrRingerRead,
			Err:   eris.Wrap(err, "get ringer mode"),
		}
	}

	if tr.Step.Next != nil {
		return p.handoff(history, current)
	}

	return p.restore(ctx, tr.Event, history, current, port)
}

// applyPlace captures the mode to restore, unless the ringer is already
// policy-owned, and writes the place mode.
func (Policy) applyPlace(
	ctx context.Context,
	event Event,
	target *place.Place,
	history ringer.History,
	port RingerPort,
) (ringer.History, Outcome, error) {
	next := history

	if !history.ChangedByPolicy {
		current, err := port.Get(ctx)
		if err != nil {
			return history, Outcome{Action: ActionNone}, &StepError{
				Event: event,
				Kind:  ErrRingerRead,
				Err:   eris.Wrap(err, "get ringer mode"),
			}
		}

		next.PriorMode = current
	}

	outcome := Outcome{Action: ActionApply, Mode: target.Mode}

	if err := port.Set(ctx, target.Mode); err != nil {
		return history, outcome, &StepError{
			Event: event,
			Kind:  ErrRingerWrite,
			Err:   eris.Wrapf(err, "set ringer mode %s for place %s", target.Mode, target.ID),
		}
	}

	next.LastSet = target.Mode
	next.ChangedByPolicy = true

	return next, outcome, nil
}

// handoff runs the override check for Exit(A) followed by Enter(B) in one fix.
// Without an override the history is kept so B restores what preceded A.
func (Policy) handoff(history ringer.History, current ringer.Mode) (ringer.History, Outcome, error) {
	if history.Overridden(current) {
		return ringer.History{}, Outcome{Action: ActionSuppressed}, nil
	}

	return history, Outcome{Action: ActionHandoff}, nil
}

// restore writes the prior mode back when the ringer still holds what the
// engine set. The history is cleared in every case.
func (Policy) restore(
	ctx context.Context,
	event Event,
	history ringer.History,
	current ringer.Mode,
	port RingerPort,
) (ringer.History, Outcome, error) {
	switch {
	case !history.ChangedByPolicy:
		return ringer.History{}, Outcome{Action: ActionRelease}, nil
	case history.Overridden(current):
		return ringer.History{}, Outcome{Action: ActionSuppressed}, nil
	}

	outcome := Outcome{Action: ActionRestore, Mode: history.PriorMode}

	if err := port.Set(ctx, history.PriorMode); err != nil {
		return ringer.History{}, outcome, &StepError{
			Event: event,
			Kind:  ErrRingerWrite,
			Err:   eris.Wrapf(err, "restore ringer mode %s", history.PriorMode),
		}
	}

	return ringer.History{}, outcome, nil
}
