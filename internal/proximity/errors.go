package proximity

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFix marks a fix that was discarded before reaching the state machine.
	ErrInvalidFix = errors.New("invalid fix")
	// ErrRingerRead marks a failed RingerPort.Get during a policy step.
	ErrRingerRead = errors.New("ringer read failed")
	// ErrRingerWrite marks a failed RingerPort.Set during a policy step.
	ErrRingerWrite = errors.New("ringer write failed")
	// ErrNotStarted is returned when fixes arrive before Engine.Start.
	ErrNotStarted = errors.New("engine not started")
	// ErrAlreadySubscribed is returned by sources that already have a handler.
	ErrAlreadySubscribed = errors.New("fix source already subscribed")
)

// StepError reports a ringer failure while applying the policy for one event.
//
// It matches both its category (ErrRingerRead or ErrRingerWrite) and the
// underlying port error with errors.Is.
type StepError struct {
	// Event is the transition whose policy step failed.
	Event Event
	// Kind is ErrRingerRead or ErrRingerWrite.
	Kind error
	// Err is the error returned by the port.
	Err error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Event, e.Kind, e.Err)
}

// Unwrap exposes both the category and the cause.
func (e *StepError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
