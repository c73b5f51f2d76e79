package location

import (
	"context"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/wherering/internal/domain/place"
	"github.com/oshokin/wherering/internal/proximity"
)

// collector records delivered fixes.
type collector struct {
	mu    sync.Mutex
	fixes []place.Fix
}

func (c *collector) handle(_ context.Context, fix place.Fix) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fixes = append(c.fixes, fix)
}

func (c *collector) lats() []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	lats := make([]float64, 0, len(c.fixes))
	for _, fix := range c.fixes {
		lats = append(lats, fix.Lat)
	}

	return lats
}

func TestFeed_DeliversBurstInOrder(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		feed := NewFeed()
		c := new(collector)
		require.NoError(t, feed.Subscribe(c.handle))

		done := make(chan error, 1)

		go func() { done <- feed.Run(ctx) }()

		want := make([]float64, 0, 500)
		for i := range 500 {
			require.NoError(t, feed.Push(place.Fix{Lat: float64(i)}))
			want = append(want, float64(i))
		}

		synctest.Wait()
		require.Equal(t, want, c.lats())
		require.Zero(t, feed.Pending())

		cancel()
		require.ErrorIs(t, <-done, context.Canceled)
	})
}

func TestFeed_BuffersUntilSubscribed(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		feed := NewFeed()
		done := make(chan error, 1)

		go func() { done <- feed.Run(ctx) }()

		require.NoError(t, feed.Push(place.Fix{Lat: 1}))
		require.NoError(t, feed.Push(place.Fix{Lat: 2}))

		synctest.Wait()
		require.Equal(t, 2, feed.Pending())

		c := new(collector)
		require.NoError(t, feed.Subscribe(c.handle))

		synctest.Wait()
		require.Equal(t, []float64{1, 2}, c.lats())

		require.NoError(t, feed.Unsubscribe())
		require.NoError(t, feed.Push(place.Fix{Lat: 3}))

		synctest.Wait()
		require.Equal(t, []float64{1, 2}, c.lats())
		require.Equal(t, 1, feed.Pending())

		cancel()
		<-done
	})
}

func TestFeed_CloseDrains(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		feed := NewFeed()
		c := new(collector)
		require.NoError(t, feed.Subscribe(c.handle))

		require.NoError(t, feed.Push(place.Fix{Lat: 1}))
		require.NoError(t, feed.Push(place.Fix{Lat: 2}))
		feed.Close()

		require.ErrorIs(t, feed.Push(place.Fix{Lat: 3}), ErrClosed)
		require.NoError(t, feed.Run(context.Background()))
		require.Equal(t, []float64{1, 2}, c.lats())
	})
}

func TestFeed_SingleSubscriber(t *testing.T) {
	t.Parallel()

	feed := NewFeed()
	c := new(collector)

	require.Error(t, feed.Subscribe(nil))
	require.NoError(t, feed.Subscribe(c.handle))
	require.ErrorIs(t, feed.Subscribe(c.handle), proximity.ErrAlreadySubscribed)
	require.NoError(t, feed.Unsubscribe())
	require.NoError(t, feed.Subscribe(c.handle))
}

func TestPlay_Pace(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		var (
			start = time.Now()
			sent  []time.Duration
		)

		fixes := []place.Fix{{Lat: 1}, {Lat: 2}, {Lat: 3}}

		err := Play(context.Background(), fixes, 2*time.Second, func(context.Context, place.Fix) error {
			sent = append(sent, time.Since(start))
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, []time.Duration{0, 2 * time.Second, 4 * time.Second}, sent)
	})
}

func TestPlay_Cancel(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		var count int

		err := Play(ctx, make([]place.Fix, 10), 2*time.Second, func(context.Context, place.Fix) error {
			count++
			return nil
		})
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.Equal(t, 2, count)
	})
}

func TestPlay_SinkError(t *testing.T) {
	t.Parallel()

	feed := NewFeed()
	feed.Close()

	err := Play(context.Background(), []place.Fix{{Lat: 1}}, 0, feed.PushSink())
	require.ErrorIs(t, err, ErrClosed)
}
