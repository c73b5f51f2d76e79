package places

import (
	"context"
	"fmt"

	"github.com/oshokin/wherering/internal/domain/place"
	"github.com/oshokin/wherering/internal/logger"
)

// Source is a readable place catalog.
type Source interface {
	Load(ctx context.Context) ([]place.Place, error)
}

// OpenSource picks the YAML catalog when file is set and the SQLite
// database at db otherwise. The returned closer is never nil.
func OpenSource(ctx context.Context, file, db string, metric place.Metric) (Source, func() error, error) {
	if file != "" {
		logger.InfoKV(ctx, "Using YAML place catalog", "path", file)

		return NewYAMLFile(file), func() error { return nil }, nil
	}

	store, err := Open(ctx, db, WithMetric(metric))
	if err != nil {
		return nil, nil, fmt.Errorf("open places database: %w", err)
	}

	logger.InfoKV(ctx, "Using SQLite place catalog", "path", db)

	return store, store.Close, nil
}
