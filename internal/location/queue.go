package location

import (
	"sync"

	"github.com/oshokin/wherering/internal/domain/place"
)

// fixQueue is an unbounded FIFO of fixes.
//
// Enqueue never blocks, so a burst from a provider is buffered rather than
// dropped. signal has a buffer of one and coalesces wake-ups.
type fixQueue struct {
	mu     sync.Mutex
	fixes  []place.Fix
	closed bool
	signal chan struct{}
}

func newFixQueue() *fixQueue {
	return &fixQueue{
		fixes:  make([]place.Fix, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends a fix. It returns false once the queue is closed.
func (q *fixQueue) Enqueue(fix place.Fix) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.fixes = append(q.fixes, fix)

	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes the oldest fix without blocking.
func (q *fixQueue) TryDequeue() (place.Fix, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.fixes) == 0 {
		return place.Fix{}, false
	}

	fix := q.fixes[0]
	q.fixes[0] = place.Fix{}

	if len(q.fixes) == 1 {
		q.fixes = q.fixes[:0]
	} else {
		q.fixes = q.fixes[1:]
	}

	return fix, true
}

// Wait returns the wake-up channel. It is closed by Close.
func (q *fixQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of buffered fixes.
func (q *fixQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.fixes)
}

// Closed reports whether Close was called.
func (q *fixQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.closed
}

// Close stops accepting fixes and wakes the consumer.
func (q *fixQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
