package place

import (
	"errors"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// Kind tags the geometry variant.
type Kind int

const (
	// KindCircle is a center point with a radius.
	KindCircle Kind = iota + 1
	// KindPolygon is a single closed ring of vertices.
	KindPolygon
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindCircle:
		return "circle"
	case KindPolygon:
		return "polygon"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// minRingVertices is the smallest number of distinct vertices forming an area.
const minRingVertices = 3

var (
	// ErrInvalidGeometry is returned for geometry that cannot contain anything.
	ErrInvalidGeometry = errors.New("invalid geometry")
	// errUnknownKind is returned when the geometry tag is not recognised.
	errUnknownKind = errors.New("unknown geometry kind")
)

// Geometry is the shape of a place.
type Geometry struct {
	// Kind selects which of the fields below are meaningful.
	Kind Kind
	// Center is the circle center.
	Center Point
	// Radius is the circle radius in metric units.
	Radius float64
	// Ring lists polygon vertices. The ring is closed implicitly.
	Ring []Point
}

// Circle builds a circular geometry.
func Circle(center Point, radius float64) Geometry {
	return Geometry{
		Kind:   KindCircle,
		Center: center,
		Radius: radius,
	}
}

// Polygon builds a polygonal geometry from its vertices.
func Polygon(ring ...Point) Geometry {
	return Geometry{
		Kind: KindPolygon,
		Ring: append([]Point(nil), ring...),
	}
}

// Validate checks that the geometry is usable with the given metric.
func (g Geometry) Validate(metric Metric) error {
	switch g.Kind {
	case KindCircle:
		if !metric.ValidPoint(g.Center) {
			return fmt.Errorf("circle center %v: %w", g.Center, ErrInvalidGeometry)
		}

		if !finite(g.Radius) || g.Radius <= 0 {
			return fmt.Errorf("circle radius %v: %w", g.Radius, ErrInvalidGeometry)
		}

		return nil
	case KindPolygon:
		return g.validateRing(metric)
	default:
		return fmt.Errorf("%s: %w", g.Kind, errUnknownKind)
	}
}

func (g Geometry) validateRing(metric Metric) error {
	if len(g.Ring) < minRingVertices {
		return fmt.Errorf("polygon with %d vertices: %w", len(g.Ring), ErrInvalidGeometry)
	}

	for _, v := range g.Ring {
		if !metric.ValidPoint(v) {
			return fmt.Errorf("polygon vertex %v: %w", v, ErrInvalidGeometry)
		}
	}

	// Degenerate rings (collinear or repeated vertices) enclose no area.
	flat := g.projectRing(metric, g.Ring[0])
	polygon := geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)})

	if area := polygon.Area(); !finite(area) || area == 0 {
		return fmt.Errorf("polygon has zero area: %w", ErrInvalidGeometry)
	}

	return nil
}

// Contains reports whether p lies inside the geometry grown by margin.
// Invalid geometry contains nothing.
func (g Geometry) Contains(p Point, margin float64, metric Metric) bool {
	switch g.Kind {
	case KindCircle:
		return metric.Distance(p, g.Center) <= g.Radius+margin
	case KindPolygon:
		if len(g.Ring) < minRingVertices {
			return false
		}

		// Project around the fix so the fix sits at the origin.
		ring := g.projectRing(metric, p)
		origin := geom.Coord{0, 0}

		if xy.IsPointInRing(geom.XY, origin, ring) {
			return true
		}

		return xy.DistanceFromPointToLineString(geom.XY, origin, ring) <= margin
	default:
		return false
	}
}

// projectRing returns the closed ring as flat XY coordinates in the local
// plane around origin.
func (g Geometry) projectRing(metric Metric, origin Point) []float64 {
	flat := make([]float64, 0, 2*(len(g.Ring)+1))

	for _, v := range g.Ring {
		x, y := metric.Project(origin, v)
		flat = append(flat, x, y)
	}

	return append(flat, flat[0], flat[1])
}
