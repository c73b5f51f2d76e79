package ringer

import "time"

// Actor identifies who changed the ringer.
type Actor struct {
	// Hostname is the machine name where the change was made.
	Hostname string
	// Username is the system user, or the engine name for policy writes.
	Username string
}

// Clone returns a deep copy of the actor.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}

// String renders the actor as username@hostname.
func (a *Actor) String() string {
	if a == nil {
		return "<unknown>"
	}

	return a.Username + "@" + a.Hostname
}

// State represents the ringer at a specific point in time.
type State struct {
	// Timestamp is when the ringer mode was last changed.
	Timestamp time.Time
	// LastActor is who last changed the ringer mode.
	LastActor *Actor
	// Mode is the current ringer mode.
	Mode Mode
}

// Clone returns a copy of the state to avoid leaking internal references.
func (s *State) Clone() *State {
	return &State{
		Timestamp: s.Timestamp,
		LastActor: s.LastActor.Clone(),
		Mode:      s.Mode,
	}
}
