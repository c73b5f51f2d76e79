package proximity

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestClockNext verifies the clock starts at one and increments strictly.
func TestClockNext(t *testing.T) {
	t.Parallel()

	c := NewClock()
	require.Zero(t, c.Current())
	require.Equal(t, uint64(1), c.Next())
	require.Equal(t, uint64(2), c.Next())
	require.Equal(t, uint64(2), c.Current())
}

// TestClockConcurrentUnique ensures concurrent callers never share a number.
func TestClockConcurrentUnique(t *testing.T) {
	t.Parallel()

	const (
		workers = 8
		perWork = 500
	)

	var (
		c    = NewClock()
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[uint64]struct{}, workers*perWork)
	)

	for range workers {
		wg.Go(func() {
			for range perWork {
				n := c.Next()

				mu.Lock()
				seen[n] = struct{}{}
				mu.Unlock()
			}
		})
	}

	wg.Wait()

	require.Len(t, seen, workers*perWork)
	require.Equal(t, uint64(workers*perWork), c.Current())
}
