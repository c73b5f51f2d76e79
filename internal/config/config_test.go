package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields and format validations.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing socket.
	require.Error(t, Validate(new(Config)))
	require.Error(t, Validate(nil))

	// Bad socket.
	require.Error(t, Validate(&Config{ServerAddress: "bad:address"}))

	require.ErrorIs(t, Validate(&Config{ServerAddress: "127.0.0.1:0", Metric: "manhattan"}), errUnknownMetric)
	require.ErrorIs(t, Validate(&Config{ServerAddress: "127.0.0.1:0", LogLevel: "loud"}), errUnknownLogLevel)
	require.ErrorIs(t, Validate(&Config{ServerAddress: "127.0.0.1:0", HysteresisMeters: -1}), errInvalidHysteresis)
	require.ErrorIs(t, Validate(&Config{ServerAddress: "127.0.0.1:0", TimestampTolerance: -time.Second}),
		errInvalidTolerance)

	settings := &Config{ServerAddress: "127.0.0.1:0"}
	require.NoError(t, Validate(settings))
	require.Equal(t, DefaultTimeout, settings.Timeout)
	require.InDelta(t, DefaultHysteresisMeters, settings.HysteresisMeters, 1e-9)
	require.Equal(t, DefaultTimestampTolerance, settings.TimestampTolerance)
	require.Equal(t, DefaultPlacesDB, settings.PlacesDB)
	require.Equal(t, DefaultRingerStateFilename, settings.RingerStateFile)
	require.Equal(t, "geodesic", settings.Metric)
	require.Equal(t, "info", settings.LogLevel)
}

// TestDefault returns settings that already pass validation.
func TestDefault(t *testing.T) {
	t.Parallel()

	settings := Default()
	require.Equal(t, DefaultPlacesDB, settings.PlacesDB)
	require.Equal(t, "geodesic", settings.Metric)

	again := *settings
	require.NoError(t, Validate(&again))
	require.Equal(t, *settings, again)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	settings := &Config{
		ServerAddress:    "127.0.0.1:50051",
		PlacesFile:       filepath.Join(dir, "places.yaml"),
		HysteresisMeters: 40,
		Metric:           "planar",
	}

	require.NoError(t, Save(path, settings))

	loaded, err := load(path, map[string]string{})
	require.NoError(t, err)
	require.Equal(t, settings, loaded)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)

	require.ErrorIs(t, Save(path, nil), errConfigIsNotSet)
}

// TestLoad_EnvironmentOverrides checks that WHERERING_* variables win over the file.
func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_addr: 127.0.0.1:50051\nmetric: geodesic\n"), 0o600))

	loaded, err := load(path, map[string]string{
		"WHERERING_SERVER_ADDR":         "127.0.0.1:6000",
		"WHERERING_HYSTERESIS_METERS":   "12.5",
		"WHERERING_TIMESTAMP_TOLERANCE": "750ms",
		"WHERERING_LOG_LEVEL":           "debug",
	})
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:6000", loaded.ServerAddress)
	require.InDelta(t, 12.5, loaded.HysteresisMeters, 1e-9)
	require.Equal(t, 750*time.Millisecond, loaded.TimestampTolerance)
	require.Equal(t, "debug", loaded.LogLevel)

	_, err = load(path, map[string]string{"WHERERING_TIMEOUT": "soon"})
	require.Error(t, err)
}

// TestLoad_MissingFile distinguishes the implicit default path from an explicit one.
func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := load(filepath.Join(t.TempDir(), "absent.yaml"), map[string]string{})
	require.Error(t, err)
}
