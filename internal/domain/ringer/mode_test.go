package ringer

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// TestParseMode verifies mode names and rejection of unknown values.
func TestParseMode(t *testing.T) {
	t.Parallel()

	for _, m := range Modes() {
		parsed, err := ParseMode(m.String())
		require.NoError(t, err)
		require.Equal(t, m, parsed)
	}

	parsed, err := ParseMode("  Vibrate ")
	require.NoError(t, err)
	require.Equal(t, ModeVibrate, parsed)

	_, err = ParseMode("loud")
	require.ErrorIs(t, err, ErrUnknownMode)
}

// TestModeValid checks the zero value and out-of-range values are invalid.
func TestModeValid(t *testing.T) {
	t.Parallel()

	require.False(t, Mode(0).Valid())
	require.False(t, Mode(4).Valid())
	require.True(t, ModeNormal.Valid())
	require.Equal(t, "mode(7)", Mode(7).String())
}

// TestModeYAML ensures modes are written and read by name.
func TestModeYAML(t *testing.T) {
	t.Parallel()

	type doc struct {
		Mode Mode `yaml:"mode"`
	}

	out, err := yaml.Marshal(doc{Mode: ModeSilent})
	require.NoError(t, err)
	require.Equal(t, "mode: silent\n", string(out))

	var in doc
	require.NoError(t, yaml.Unmarshal([]byte("mode: normal\n"), &in))
	require.Equal(t, ModeNormal, in.Mode)

	require.Error(t, yaml.Unmarshal([]byte("mode: loud\n"), &in))
}
