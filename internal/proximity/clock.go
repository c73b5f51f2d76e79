package proximity

import "sync/atomic"

// Clock is a monotonic logical clock for transition ordering.
//
// Every emitted event is stamped with Next(). Wall-clock timestamps are never
// used for ordering: two fixes with equal timestamps still yield strictly
// increasing sequence numbers.
type Clock struct {
	seq atomic.Uint64
}

// NewClock creates a clock whose first Next() returns 1.
func NewClock() *Clock {
	return new(Clock)
}

// Next returns the next sequence number.
func (c *Clock) Next() uint64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number, or 0 if none was issued.
func (c *Clock) Current() uint64 {
	return c.seq.Load()
}
