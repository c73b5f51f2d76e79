package place

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oshokin/wherering/internal/domain/ringer"
)

var (
	// errIDRequired is returned when a place has no identity.
	errIDRequired = errors.New("place id is required")
	// errInvalidMode is returned when a place carries no valid ringer mode.
	errInvalidMode = errors.New("place ringer mode is invalid")
)

// Place is a named region with the ringer mode wanted while inside it.
type Place struct {
	// ID is the stable identity of the place.
	ID string
	// Name is a display label.
	Name string
	// Geometry is the region covered by the place.
	Geometry Geometry
	// Mode is the ringer mode applied on entry.
	Mode ringer.Mode
}

// Validate checks identity, mode and geometry.
func (p *Place) Validate(metric Metric) error {
	if strings.TrimSpace(p.ID) == "" {
		return errIDRequired
	}

	if !p.Mode.Valid() {
		return fmt.Errorf("place %s: %w", p.ID, errInvalidMode)
	}

	if err := p.Geometry.Validate(metric); err != nil {
		return fmt.Errorf("place %s: %w", p.ID, err)
	}

	return nil
}

// Label returns the name when set and the id otherwise.
func (p *Place) Label() string {
	if p.Name != "" {
		return p.Name
	}

	return p.ID
}
