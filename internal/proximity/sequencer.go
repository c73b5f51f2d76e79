package proximity

import "github.com/oshokin/wherering/internal/domain/place"

// Engagement is a place the sequencer considers entered.
type Engagement struct {
	// Place is the current definition, taken from the latest fix that placed
	// the device inside it.
	Place place.Place
	// Seq is the sequence number of the Enter event.
	Seq uint64
}

// Sequencer turns successive membership sets into ordered transitions.
//
// It owns the engagement state. Engagements are kept in Enter order, so the
// last one is always the policy-driving place.
type Sequencer struct {
	clock   *Clock
	engaged []Engagement
}

// NewSequencer creates a sequencer with empty engagement.
func NewSequencer(clock *Clock) *Sequencer {
	if clock == nil {
		clock = NewClock()
	}

	return &Sequencer{
		clock: clock,
	}
}

// Advance diffs members against the engagement state, updates it and
// returns the resulting transitions.
//
// All Exits come before all Enters. Exits are ordered oldest-entered first,
// so the policy-driving place exits last; Enters follow catalog order, so the
// last Enter becomes the policy-driving place. Staying engagements pick up the
// member definition, so a refreshed catalog is seen by the next fix.
func (s *Sequencer) Advance(fix place.Fix, members []place.Place) []Transition {
	present := make(map[string]int, len(members))
	for i := range members {
		present[members[i].ID] = i
	}

	engagedIDs := make(map[string]struct{}, len(s.engaged))

	var exits, staying []Engagement

	for _, e := range s.engaged {
		engagedIDs[e.Place.ID] = struct{}{}

		if i, ok := present[e.Place.ID]; ok {
			e.Place = members[i]
			staying = append(staying, e)
		} else {
			exits = append(exits, e)
		}
	}

	var enters []place.Place

	for i := range members {
		if _, ok := engagedIDs[members[i].ID]; !ok {
			enters = append(enters, members[i])
		}
	}

	if len(exits) == 0 && len(enters) == 0 {
		s.engaged = staying

		return nil
	}

	var (
		previous    = s.driving()
		next        *place.Place
		nextEntered bool
	)

	switch {
	case len(enters) > 0:
		last := enters[len(enters)-1]
		next, nextEntered = &last, true
	case len(staying) > 0:
		last := staying[len(staying)-1].Place
		next = &last
	}

	transitions := make([]Transition, 0, len(exits)+len(enters))

	for _, e := range exits {
		transitions = append(transitions, Transition{
			Event: Event{
				PlaceID:   e.Place.ID,
				Kind:      KindExit,
				Timestamp: fix.Timestamp,
				Seq:       s.clock.Next(),
			},
			Place: e.Place,
			Step: Step{
				Driving:     previous != nil && previous.ID == e.Place.ID,
				Next:        next,
				NextEntered: nextEntered,
			},
		})
	}

	engaged := staying

	for i, p := range enters {
		seq := s.clock.Next()

		transitions = append(transitions, Transition{
			Event: Event{
				PlaceID:   p.ID,
				Kind:      KindEnter,
				Timestamp: fix.Timestamp,
				Seq:       seq,
			},
			Place: p,
			Step: Step{
				Driving:     i == len(enters)-1,
				Next:        next,
				NextEntered: nextEntered,
			},
		})

		engaged = append(engaged, Engagement{Place: p, Seq: seq})
	}

	s.engaged = engaged

	return transitions
}

// Engaged returns a copy of the engagement state in Enter order.
func (s *Sequencer) Engaged() []Engagement {
	return append([]Engagement(nil), s.engaged...)
}

// Driving returns the policy-driving place, if any.
func (s *Sequencer) Driving() (place.Place, bool) {
	if p := s.driving(); p != nil {
		return *p, true
	}

	return place.Place{}, false
}

// LastSeq returns the last sequence number issued.
func (s *Sequencer) LastSeq() uint64 {
	return s.clock.Current()
}

func (s *Sequencer) driving() *place.Place {
	if len(s.engaged) == 0 {
		return nil
	}

	return &s.engaged[len(s.engaged)-1].Place
}
