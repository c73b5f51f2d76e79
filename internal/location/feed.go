package location

import (
	"context"
	"errors"
	"sync"

	"github.com/oshokin/wherering/internal/domain/place"
	"github.com/oshokin/wherering/internal/logger"
	"github.com/oshokin/wherering/internal/proximity"
)

// ErrClosed is returned when pushing into a closed feed.
var ErrClosed = errors.New("location feed is closed")

// Feed is a FixSource fed by Push and drained by Run.
//
// Fixes are delivered one at a time, in push order, on the goroutine running
// Run. Fixes pushed while nobody is subscribed are buffered and delivered
// once a subscriber appears.
type Feed struct {
	queue *fixQueue

	mu      sync.Mutex
	handler func(context.Context, place.Fix)
	// wake is signalled when a subscriber arrives.
	wake chan struct{}
}

var _ proximity.FixSource = (*Feed)(nil)

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{
		queue: newFixQueue(),
		wake:  make(chan struct{}, 1),
	}
}

// Subscribe registers the fix handler. Only one subscriber is allowed.
func (f *Feed) Subscribe(handler func(context.Context, place.Fix)) error {
	if handler == nil {
		return errors.New("fix handler is required")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.handler != nil {
		return proximity.ErrAlreadySubscribed
	}

	f.handler = handler

	select {
	case f.wake <- struct{}{}:
	default:
	}

	return nil
}

// Unsubscribe removes the handler. A fix already handed to the handler
// finishes processing.
func (f *Feed) Unsubscribe() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.handler = nil

	return nil
}

// Push queues a fix for delivery.
func (f *Feed) Push(fix place.Fix) error {
	if !f.queue.Enqueue(fix) {
		return ErrClosed
	}

	return nil
}

// Pending returns the number of fixes not yet delivered.
func (f *Feed) Pending() int {
	return f.queue.Len()
}

// Close stops accepting fixes. Run delivers what is buffered and returns.
func (f *Feed) Close() {
	f.queue.Close()
}

// Run delivers fixes until the context is cancelled or the feed is closed
// and drained.
func (f *Feed) Run(ctx context.Context) error {
	for {
		handler := f.subscriber()
		if handler != nil {
			if fix, ok := f.queue.TryDequeue(); ok {
				handler(ctx, fix)
				continue
			}
		}

		if f.queue.Closed() && (handler == nil || f.queue.Len() == 0) {
			logger.DebugKV(ctx, "Location feed stopped", "pending", f.queue.Len())
			return nil
		}

		select {
		case <-ctx.Done():
			logger.DebugKV(ctx, "Location feed cancelled", "pending", f.queue.Len())
			return ctx.Err()
		case <-f.queue.Wait():
		case <-f.wake:
		}
	}
}

func (f *Feed) subscriber() func(context.Context, place.Fix) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.handler
}
