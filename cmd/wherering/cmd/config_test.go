package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/wherering/internal/config"
)

func TestWriteDefaultConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "wherering.yaml")

	written, err := writeDefaultConfig(path, "127.0.0.1:6001", false)
	require.NoError(t, err)
	require.Equal(t, path, written)

	loaded, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:6001", loaded.ServerAddress)
	require.Equal(t, config.DefaultPlacesDB, loaded.PlacesDB)

	_, err = writeDefaultConfig(path, "", false)
	require.ErrorIs(t, err, errConfigExists)

	_, err = writeDefaultConfig(path, "", true)
	require.NoError(t, err)

	loaded, err = config.Load(path)
	require.NoError(t, err)
	require.Equal(t, config.Default().ServerAddress, loaded.ServerAddress)
}

func TestModeChoices(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"silent", "vibrate", "normal"}, modeNames())
	require.Equal(t, "silent, vibrate or normal", modeChoices())
}
