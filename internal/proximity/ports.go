package proximity

import (
	"context"

	"github.com/oshokin/wherering/internal/domain/place"
	"github.com/oshokin/wherering/internal/domain/ringer"
)

// Catalog provides the known places.
type Catalog interface {
	// Load returns every place in catalog order.
	Load(ctx context.Context) ([]place.Place, error)
}

// FixSource delivers location fixes to a single registered handler.
type FixSource interface {
	// Subscribe registers the handler. Only one handler may be registered.
	Subscribe(handler func(ctx context.Context, fix place.Fix)) error
	// Unsubscribe removes the handler and stops delivery.
	Unsubscribe() error
}

// RingerPort is the device ringer control surface.
type RingerPort interface {
	// Get returns the current ringer mode.
	Get(ctx context.Context) (ringer.Mode, error)
	// Set changes the ringer mode.
	Set(ctx context.Context, mode ringer.Mode) error
}
