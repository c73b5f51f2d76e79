package ringer

// History is what the policy engine remembers about its own ringer writes.
//
// ChangedByPolicy is true only between a policy-driven write and the next
// restoring exit or the detection of an external change. PriorMode and
// LastSet are meaningful only while ChangedByPolicy is true.
type History struct {
	// PriorMode is the mode captured before the first policy-driven write.
	PriorMode Mode
	// LastSet is the mode the engine itself wrote most recently.
	LastSet Mode
	// ChangedByPolicy reports whether the current mode is policy-owned.
	ChangedByPolicy bool
}

// Overridden reports whether current differs from the mode the engine last
// wrote, which is taken to mean somebody else changed the ringer.
//
// A user who changes the mode and then changes it back is indistinguishable
// from no change at all.
func (h History) Overridden(current Mode) bool {
	return h.ChangedByPolicy && current != h.LastSet
}
