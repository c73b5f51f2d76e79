package place

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/wherering/internal/domain/ringer"
)

// square returns an axis-aligned planar square with the given half size.
func square(half float64) Geometry {
	return Polygon(
		Point{Lat: -half, Lon: -half},
		Point{Lat: -half, Lon: half},
		Point{Lat: half, Lon: half},
		Point{Lat: half, Lon: -half},
	)
}

// TestCircleContains checks the radius plus margin boundary.
func TestCircleContains(t *testing.T) {
	t.Parallel()

	c := Circle(Point{}, 50)

	require.True(t, c.Contains(Point{Lat: 0, Lon: 50}, 0, Planar{}))
	require.False(t, c.Contains(Point{Lat: 0, Lon: 60}, 0, Planar{}))
	require.True(t, c.Contains(Point{Lat: 0, Lon: 60}, 10, Planar{}))
	require.False(t, c.Contains(Point{Lat: 0, Lon: 200}, 10, Planar{}))
}

// TestPolygonContains checks interior points and boundary margin.
func TestPolygonContains(t *testing.T) {
	t.Parallel()

	sq := square(10)

	require.True(t, sq.Contains(Point{}, 0, Planar{}))
	require.False(t, sq.Contains(Point{Lat: 0, Lon: 15}, 0, Planar{}))
	require.True(t, sq.Contains(Point{Lat: 0, Lon: 15}, 5, Planar{}))
	require.False(t, sq.Contains(Point{Lat: 20, Lon: 20}, 5, Planar{}))
}

// TestPolygonContainsGeodesic verifies the margin is measured in meters around the fix.
func TestPolygonContainsGeodesic(t *testing.T) {
	t.Parallel()

	// Roughly 110m x 90m block.
	block := Polygon(
		Point{Lat: 37.4210, Lon: -122.0850},
		Point{Lat: 37.4210, Lon: -122.0840},
		Point{Lat: 37.4220, Lon: -122.0840},
		Point{Lat: 37.4220, Lon: -122.0850},
	)
	require.NoError(t, block.Validate(Geodesic{}))

	require.True(t, block.Contains(Point{Lat: 37.4215, Lon: -122.0845}, 0, Geodesic{}))

	// About 44m north of the top edge.
	outside := Point{Lat: 37.4224, Lon: -122.0845}
	require.False(t, block.Contains(outside, 20, Geodesic{}))
	require.True(t, block.Contains(outside, 60, Geodesic{}))
}

// TestGeometryValidate rejects geometry that cannot contain anything.
func TestGeometryValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, Circle(Point{}, 1).Validate(Planar{}))
	require.ErrorIs(t, Circle(Point{}, 0).Validate(Planar{}), ErrInvalidGeometry)
	require.ErrorIs(t, Circle(Point{}, math.NaN()).Validate(Planar{}), ErrInvalidGeometry)
	require.ErrorIs(t, Circle(Point{Lat: 100}, 1).Validate(Geodesic{}), ErrInvalidGeometry)

	require.NoError(t, square(1).Validate(Planar{}))
	require.ErrorIs(t, Polygon(Point{}, Point{Lat: 1}).Validate(Planar{}), ErrInvalidGeometry)

	collinear := Polygon(Point{}, Point{Lat: 1}, Point{Lat: 2})
	require.ErrorIs(t, collinear.Validate(Planar{}), ErrInvalidGeometry)

	require.Error(t, Geometry{}.Validate(Planar{}))
	require.False(t, Geometry{}.Contains(Point{}, 100, Planar{}))
}

// TestPlaceValidate covers identity and mode checks.
func TestPlaceValidate(t *testing.T) {
	t.Parallel()

	p := Place{ID: "home", Geometry: Circle(Point{}, 10), Mode: ringer.ModeSilent}
	require.NoError(t, p.Validate(Planar{}))
	require.Equal(t, "home", p.Label())

	p.Name = "Home"
	require.Equal(t, "Home", p.Label())

	p.Mode = 0
	require.Error(t, p.Validate(Planar{}))

	p.Mode = ringer.ModeSilent
	p.ID = " "
	require.Error(t, p.Validate(Planar{}))
}

// TestFixMargin prefers reported accuracy over the hysteresis constant.
func TestFixMargin(t *testing.T) {
	t.Parallel()

	f := Fix{Lat: 1, Lon: 2, Accuracy: 12}
	require.InDelta(t, 12, f.Margin(25), 0)
	require.Equal(t, Point{Lat: 1, Lon: 2}, f.Point())

	f.Accuracy = 0
	require.InDelta(t, 25, f.Margin(25), 0)

	f.Accuracy = math.NaN()
	require.InDelta(t, 25, f.Margin(25), 0)
}
