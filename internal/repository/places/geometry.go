package places

import (
	"errors"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"

	"github.com/oshokin/wherering/internal/domain/place"
)

// errUnsupportedGeometry is returned for stored shapes the catalog cannot use.
var errUnsupportedGeometry = errors.New("unsupported stored geometry")

// encodeGeometry returns the WKB form of the shape and the circle radius.
// Coordinates are stored as (lon, lat), the WKB axis order.
func encodeGeometry(g place.Geometry) ([]byte, float64, error) {
	var (
		shape  geom.T
		radius float64
	)

	switch g.Kind {
	case place.KindCircle:
		shape = geom.NewPointFlat(geom.XY, []float64{g.Center.Lon, g.Center.Lat})
		radius = g.Radius
	case place.KindPolygon:
		flat := make([]float64, 0, 2*(len(g.Ring)+1))
		for _, v := range g.Ring {
			flat = append(flat, v.Lon, v.Lat)
		}

		if len(g.Ring) > 0 {
			flat = append(flat, g.Ring[0].Lon, g.Ring[0].Lat)
		}

		shape = geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)})
	default:
		return nil, 0, fmt.Errorf("%w: %s", errUnsupportedGeometry, g.Kind)
	}

	data, err := wkb.Marshal(shape, wkb.NDR)
	if err != nil {
		return nil, 0, fmt.Errorf("encode %s: %w", g.Kind, err)
	}

	return data, radius, nil
}

// decodeGeometry rebuilds a shape from its WKB form.
func decodeGeometry(data []byte, radius float64) (place.Geometry, error) {
	shape, err := wkb.Unmarshal(data)
	if err != nil {
		return place.Geometry{}, fmt.Errorf("decode geometry: %w", err)
	}

	switch s := shape.(type) {
	case *geom.Point:
		return place.Circle(place.Point{Lat: s.Y(), Lon: s.X()}, radius), nil
	case *geom.Polygon:
		if s.NumLinearRings() == 0 {
			return place.Geometry{}, fmt.Errorf("%w: empty polygon", errUnsupportedGeometry)
		}

		flat := s.LinearRing(0).FlatCoords()
		stride := s.Stride()

		ring := make([]place.Point, 0, len(flat)/stride)
		for i := 0; i+1 < len(flat); i += stride {
			ring = append(ring, place.Point{Lat: flat[i+1], Lon: flat[i]})
		}

		// Drop the closing vertex.
		if n := len(ring); n > 1 && ring[0] == ring[n-1] {
			ring = ring[:n-1]
		}

		return place.Polygon(ring...), nil
	default:
		return place.Geometry{}, fmt.Errorf("%w: %T", errUnsupportedGeometry, shape)
	}
}
