package ringer

import (
	"errors"
	"fmt"
	"strings"
)

// Mode is a ringer mode. The zero value is not a valid mode.
type Mode int

const (
	// ModeSilent mutes the ringer and disables vibration.
	ModeSilent Mode = iota + 1
	// ModeVibrate mutes the ringer but keeps vibration.
	ModeVibrate
	// ModeNormal rings audibly.
	ModeNormal
)

// ErrUnknownMode is returned when a mode name cannot be parsed.
var ErrUnknownMode = errors.New("unknown ringer mode")

// Modes returns all valid modes in ascending loudness.
func Modes() []Mode {
	return []Mode{ModeSilent, ModeVibrate, ModeNormal}
}

// String returns the lower-case mode name.
func (m Mode) String() string {
	switch m {
	case ModeSilent:
		return "silent"
	case ModeVibrate:
		return "vibrate"
	case ModeNormal:
		return "normal"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m >= ModeSilent && m <= ModeNormal
}

// ParseMode converts a mode name to Mode. Matching is case-insensitive.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "silent":
		return ModeSilent, nil
	case "vibrate":
		return ModeVibrate, nil
	case "normal":
		return ModeNormal, nil
	default:
		return 0, fmt.Errorf("%q: %w", s, ErrUnknownMode)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%d: %w", int(m), ErrUnknownMode)
	}

	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}

	*m = parsed

	return nil
}
