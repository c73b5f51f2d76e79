package integration

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/wherering/internal/domain/place"
	"github.com/oshokin/wherering/internal/domain/ringer"
	"github.com/oshokin/wherering/internal/service/catalog"
	"github.com/oshokin/wherering/internal/service/client"
	"github.com/oshokin/wherering/internal/service/common"
	"github.com/oshokin/wherering/internal/service/server"
)

const catalogYAML = `
places:
  - id: concorde
    name: Place de la Concorde
    mode: silent
    circle: {lat: 48.865633, lon: 2.321236, radius: 150}
  - id: newbury
    name: Newbury Street
    mode: vibrate
    circle: {lat: 42.348517, lon: -71.08387, radius: 150}
`

var (
	concorde   = place.Fix{Lat: 48.865633, Lon: 2.321236, Source: "test"}
	newbury    = place.Fix{Lat: 42.348517, Lon: -71.08387, Source: "test"}
	googleplex = place.Fix{Lat: 37.422, Lon: -122.084, Source: "test"}

	pixel = &ringer.Actor{Hostname: "pixel", Username: "alex"}
)

// testEnv holds the files a test server runs on.
type testEnv struct {
	dir        string
	configPath string
	placesDB   string
	stateFile  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	env := &testEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "wherering.yaml"),
		placesDB:   filepath.Join(dir, "places.db"),
		stateFile:  filepath.Join(dir, "ringer.json"),
	}

	settings := "server_addr: 127.0.0.1:50551\n" +
		"timeout: 3s\n" +
		"places_db: " + env.placesDB + "\n" +
		"ringer_state_file: " + env.stateFile + "\n"
	require.NoError(t, os.WriteFile(env.configPath, []byte(settings), 0o600))

	return env
}

// importCatalog fills the place database before the server starts.
func (e *testEnv) importCatalog(t *testing.T) {
	t.Helper()

	source := filepath.Join(e.dir, "import.yaml")
	require.NoError(t, os.WriteFile(source, []byte(catalogYAML), 0o600))

	require.NoError(t, catalog.Import(t.Context(), &catalog.Options{
		ConfigPath: e.configPath,
		NoRefresh:  true,
		Out:        &bytes.Buffer{},
	}, source))
}

// startServer runs the real server on a free port and returns its address.
// The server is stopped and awaited when the test ends, or earlier via stop.
func (e *testEnv) startServer(t *testing.T) (addr string, stop func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	listening := make(chan net.Addr, 1)
	done := make(chan error, 1)

	go func() {
		done <- server.Run(ctx, &server.Options{
			ConfigPath:    e.configPath,
			ListenAddress: "127.0.0.1:0",
			InitialMode:   ringer.ModeNormal,
			AllowMultiple: true,
			OnListen:      func(a net.Addr) { listening <- a },
		})
	}()

	select {
	case a := <-listening:
		addr = a.String()
	case err := <-done:
		cancel()
		t.Fatalf("server exited before listening: %v", err)
	case <-time.After(10 * time.Second):
		cancel()
		t.Fatal("server did not start listening")
	}

	stopped := false
	stop = func() {
		if stopped {
			return
		}

		stopped = true

		cancel()
		require.NoError(t, <-done)
	}

	t.Cleanup(stop)

	return addr, stop
}

func dial(t *testing.T, addr string) *common.Client {
	t.Helper()

	c, err := common.Dial(t.Context(), addr, common.WithCallTimeout(3*time.Second))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
	})

	return c
}

func report(t *testing.T, c *common.Client, fix place.Fix) {
	t.Helper()

	fix.Timestamp = time.Now()

	_, err := c.ReportFix(t.Context(), fix)
	require.NoError(t, err)
}

func waitForSeq(t *testing.T, c *common.Client, seq uint64) {
	t.Helper()

	require.Eventually(t, func() bool {
		status, err := c.GetStatus(t.Context())
		return err == nil && status.Engine.LastSeq == seq && status.Pending == 0
	}, 5*time.Second, 10*time.Millisecond)
}

// TestGRPC_PlaceToPlace drives the engine through a real server: entering a
// place, jumping to another, and leaving after a manual override.
func TestGRPC_PlaceToPlace(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.importCatalog(t)

	addr, _ := env.startServer(t)
	c := dial(t, addr)
	ctx := t.Context()

	status, err := c.GetStatus(ctx)
	require.NoError(t, err)
	require.True(t, status.Engine.Started)
	require.Equal(t, 2, status.Engine.Places)

	report(t, c, concorde)
	waitForSeq(t, c, 1)

	state, err := c.GetRinger(ctx)
	require.NoError(t, err)
	require.Equal(t, ringer.ModeSilent, state.Mode)

	report(t, c, newbury)
	waitForSeq(t, c, 3)

	status, err = c.GetStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, "newbury", status.Engine.Driving)
	require.True(t, status.Engine.History.ChangedByPolicy)
	require.Equal(t, ringer.ModeNormal, status.Engine.History.PriorMode)

	state, err = c.GetRinger(ctx)
	require.NoError(t, err)
	require.Equal(t, ringer.ModeVibrate, state.Mode)

	// The user takes over; leaving must not restore.
	_, err = c.SetRinger(ctx, pixel, ringer.ModeSilent)
	require.NoError(t, err)

	report(t, c, googleplex)
	waitForSeq(t, c, 4)

	state, err = c.GetRinger(ctx)
	require.NoError(t, err)
	require.Equal(t, ringer.ModeSilent, state.Mode)
	require.Equal(t, pixel, state.LastActor)

	var out bytes.Buffer

	require.NoError(t, client.Status(ctx, &client.Options{ConfigPath: env.configPath, ServerAddress: addr, Out: &out}))
	require.Contains(t, out.String(), "driving:  -\n")
	require.Contains(t, out.String(), "last seq: 4\n")
	require.Contains(t, out.String(), "ringer:   silent by alex@pixel")
}

// TestGRPC_RingerStatePersists restarts the server and expects the ringer
// mode and actor from the state file.
func TestGRPC_RingerStatePersists(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	addr, stop := env.startServer(t)
	c := dial(t, addr)

	_, err := c.SetRinger(t.Context(), pixel, ringer.ModeVibrate)
	require.NoError(t, err)

	stop()

	addr, _ = env.startServer(t)
	c = dial(t, addr)

	state, err := c.GetRinger(t.Context())
	require.NoError(t, err)
	require.Equal(t, ringer.ModeVibrate, state.Mode)
	require.Equal(t, pixel, state.LastActor)

	status, err := c.GetStatus(t.Context())
	require.NoError(t, err)
	require.False(t, status.Engine.History.ChangedByPolicy)
	require.Zero(t, status.Engine.LastSeq)
}

// TestGRPC_CatalogChangesRefreshServer adds a place with the places command
// and expects the running engine to pick it up.
func TestGRPC_CatalogChangesRefreshServer(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.importCatalog(t)

	addr, _ := env.startServer(t)
	c := dial(t, addr)
	ctx := t.Context()

	require.NoError(t, catalog.Add(ctx, &catalog.Options{
		ConfigPath:    env.configPath,
		ServerAddress: addr,
		Out:           &bytes.Buffer{},
	}, place.Place{
		ID:       "googleplex",
		Name:     "Googleplex",
		Geometry: place.Circle(place.Point{Lat: googleplex.Lat, Lon: googleplex.Lon}, 200),
		Mode:     ringer.ModeVibrate,
	}))

	status, err := c.GetStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, status.Engine.Places)

	report(t, c, googleplex)
	waitForSeq(t, c, 1)

	state, err := c.GetRinger(ctx)
	require.NoError(t, err)
	require.Equal(t, ringer.ModeVibrate, state.Mode)

	var out bytes.Buffer

	require.NoError(t, client.Refresh(ctx, &client.Options{ConfigPath: env.configPath, ServerAddress: addr, Out: &out}))
	require.Equal(t, "catalog reloaded, 3 places\n", out.String())
}

// TestGRPC_ReplayTrack pushes a track file through the client.
func TestGRPC_ReplayTrack(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.importCatalog(t)

	addr, _ := env.startServer(t)
	c := dial(t, addr)

	track := filepath.Join(env.dir, "track.yaml")
	require.NoError(t, os.WriteFile(track, []byte(`
points:
  - {lat: 48.865633, lon: 2.321236, note: concorde}
  - {lat: 48.866, lon: 2.3215}
  - {lat: 37.422, lon: -122.084, note: googleplex}
`), 0o600))

	var out bytes.Buffer

	require.NoError(t, client.Replay(t.Context(), &client.Options{
		ConfigPath:    env.configPath,
		ServerAddress: addr,
		Out:           &out,
	}, track, 0))
	require.Equal(t, "3 of 3 fixes sent\n", out.String())

	waitForSeq(t, c, 2)

	state, err := c.GetRinger(t.Context())
	require.NoError(t, err)
	require.Equal(t, ringer.ModeNormal, state.Mode)
}
