package places

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/wherering/internal/domain/place"
	"github.com/oshokin/wherering/internal/domain/ringer"
)

var (
	concorde = place.Place{
		ID:       "concorde",
		Name:     "Place de la Concorde",
		Geometry: place.Circle(place.Point{Lat: 48.865633, Lon: 2.321236}, 150),
		Mode:     ringer.ModeNormal,
	}
	newbury = place.Place{
		ID:       "newbury",
		Name:     "Newbury Street",
		Geometry: place.Circle(place.Point{Lat: 42.348517, Lon: -71.08387}, 150),
		Mode:     ringer.ModeVibrate,
	}
	campus = place.Place{
		ID:   "campus",
		Name: "Campus",
		Geometry: place.Polygon(
			place.Point{Lat: 37.4219, Lon: -122.0841},
			place.Point{Lat: 37.4225, Lon: -122.0841},
			place.Point{Lat: 37.4225, Lon: -122.0832},
			place.Point{Lat: 37.4219, Lon: -122.0832},
		),
		Mode: ringer.ModeSilent,
	}
)

func openTestStore(t *testing.T, opts ...StoreOption) *SQLiteStore {
	t.Helper()

	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "places.db"), opts...)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, store.Close()) })

	return store
}

func TestSQLiteStore_UpsertListDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.Upsert(ctx, concorde))
	require.NoError(t, store.UpsertAll(ctx, []place.Place{newbury, campus}))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, []place.Place{concorde, newbury, campus}, loaded)

	// Replacing keeps the catalog position.
	moved := concorde
	moved.Mode = ringer.ModeSilent
	moved.Geometry.Radius = 300
	require.NoError(t, store.Upsert(ctx, moved))

	loaded, err = store.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []place.Place{moved, newbury, campus}, loaded)

	got, err := store.Get(ctx, "campus")
	require.NoError(t, err)
	require.Equal(t, campus, got)

	require.NoError(t, store.Delete(ctx, "newbury"))
	require.ErrorIs(t, store.Delete(ctx, "newbury"), ErrNotFound)

	_, err = store.Get(ctx, "newbury")
	require.ErrorIs(t, err, ErrNotFound)

	loaded, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
}

func TestSQLiteStore_RejectsInvalidPlaces(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)

	bad := concorde
	bad.Geometry.Radius = -1

	require.ErrorIs(t, store.UpsertAll(ctx, []place.Place{newbury, bad}), place.ErrInvalidGeometry)

	loaded, err := store.List(ctx)
	require.NoError(t, err)
	require.Empty(t, loaded)

	// Planar places need the planar metric.
	synthetic := place.Place{ID: "grid", Geometry: place.Circle(place.Point{Lat: 500, Lon: 500}, 5), Mode: ringer.ModeSilent}
	require.Error(t, store.Upsert(ctx, synthetic))
	require.NoError(t, openTestStore(t, WithMetric(place.Planar{})).Upsert(ctx, synthetic))
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "places.db")

	first, err := Open(ctx, path, WithClock(func() time.Time { return time.Unix(1275393600, 0) }))
	require.NoError(t, err)
	require.NoError(t, first.Upsert(ctx, campus))
	require.NoError(t, first.Close())

	// Migrations are applied once.
	second, err := Open(ctx, path)
	require.NoError(t, err)

	defer second.Close()

	loaded, err := second.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, []place.Place{campus}, loaded)
}

func TestSQLiteStore_Closed(t *testing.T) {
	t.Parallel()

	var store *SQLiteStore

	_, err := store.List(context.Background())
	require.ErrorIs(t, err, errStoreClosed)
	require.NoError(t, store.Close())

	_, err = Open(context.Background(), " ")
	require.Error(t, err)
}

func TestNewID(t *testing.T) {
	t.Parallel()

	id := NewID()

	_, err := uuid.Parse(id)
	require.NoError(t, err)
	require.NotEqual(t, id, NewID())
}
