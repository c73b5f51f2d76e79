package proximity

import (
	"fmt"
	"time"

	"github.com/oshokin/wherering/internal/domain/place"
)

// Kind distinguishes entering a place from leaving it.
type Kind int

const (
	// KindExit means the device left a place.
	KindExit Kind = iota + 1
	// KindEnter means the device entered a place.
	KindEnter
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindEnter:
		return "enter"
	case KindExit:
		return "exit"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is one ordered transition.
type Event struct {
	// PlaceID identifies the place entered or left.
	PlaceID string
	// Kind is Enter or Exit.
	Kind Kind
	// Timestamp is the timestamp of the fix that caused the transition.
	Timestamp time.Time
	// Seq is unique for the engine lifetime and strictly increasing.
	Seq uint64
}

// String renders the event for logs and transcripts.
func (e Event) String() string {
	return fmt.Sprintf("%s(%s)#%d", e.Kind, e.PlaceID, e.Seq)
}

// Step tells the policy where the event sits in the transition of a whole fix.
type Step struct {
	// Driving is set for an Exit of the place that was policy-driving before
	// the fix, and for the Enter of the place that drives after it.
	Driving bool
	// Next is the policy-driving place once the whole fix is applied, or nil
	// when no place remains engaged.
	Next *place.Place
	// NextEntered reports whether Next is entered by this same fix.
	NextEntered bool
}

// Transition is an event together with the place it concerns and its step.
type Transition struct {
	Event Event
	Place place.Place
	Step  Step
}
