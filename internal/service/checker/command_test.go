package checker

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	api "github.com/oshokin/wherering/internal/api/grpc/wherering"
	"github.com/oshokin/wherering/internal/domain/ringer"
	"github.com/oshokin/wherering/internal/proximity"
)

var errTestUnavailable = errors.New("unavailable")

type fakeReader struct {
	mu      sync.Mutex
	status  api.Status
	state   ringer.State
	failing bool
}

func (f *fakeReader) GetStatus(context.Context) (api.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failing {
		return api.Status{}, errTestUnavailable
	}

	return f.status, nil
}

func (f *fakeReader) GetRinger(context.Context) (*ringer.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.state.Clone(), nil
}

func (f *fakeReader) set(driving string, seq uint64, mode ringer.Mode) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.status = api.Status{Engine: proximity.Status{Started: true, Driving: driving, LastSeq: seq}}
	f.state.Mode = mode
}

var when = time.Date(2010, time.June, 1, 12, 0, 0, 0, time.UTC)

func TestCheckStatePrintsOnlyChanges(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{state: ringer.State{Timestamp: when}}
	reader.set("", 0, ringer.ModeNormal)

	var out bytes.Buffer

	first, err := checkState(t.Context(), reader, nil, &out)
	require.NoError(t, err)
	require.Equal(t, "2010-06-01T12:00:00Z seq=0 driving=- ringer=normal by <unknown>\n", out.String())

	out.Reset()

	second, err := checkState(t.Context(), reader, first, &out)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Empty(t, out.String())

	reader.set("office", 1, ringer.ModeVibrate)

	_, err = checkState(t.Context(), reader, second, &out)
	require.NoError(t, err)
	require.Equal(t, "2010-06-01T12:00:00Z seq=1 driving=office ringer=vibrate by <unknown>\n", out.String())
}

func TestCheckStateKeepsSnapshotOnError(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{failing: true}
	last := &snapshot{driving: "home", mode: ringer.ModeSilent, lastSeq: 3}

	var out bytes.Buffer

	next, err := checkState(t.Context(), reader, last, &out)
	require.ErrorIs(t, err, errTestUnavailable)
	require.Same(t, last, next)
	require.Empty(t, out.String())
}

func TestPollReportsChangesUntilCanceled(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		reader := &fakeReader{state: ringer.State{Timestamp: when}}
		reader.set("", 0, ringer.ModeNormal)

		var out bytes.Buffer

		ctx, cancel := context.WithCancel(t.Context())
		done := make(chan error, 1)

		go func() {
			done <- poll(ctx, reader, time.Second, &out)
		}()

		synctest.Wait()

		reader.set("home", 1, ringer.ModeSilent)
		time.Sleep(time.Second)
		synctest.Wait()

		// Unchanged polls print nothing.
		time.Sleep(3 * time.Second)
		synctest.Wait()

		cancel()
		require.NoError(t, <-done)

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 2)
		require.Contains(t, lines[0], "driving=-")
		require.Contains(t, lines[1], "driving=home ringer=silent")
	})
}
