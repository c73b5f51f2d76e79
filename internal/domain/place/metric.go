package place

import "math"

// EarthRadius is the mean radius of the WGS84 ellipsoid in meters.
const EarthRadius = 6371008.8

// Point is a position. For the geodesic metric Lat and Lon are WGS84 degrees;
// for the planar metric they are plain Y and X coordinates.
type Point struct {
	Lat float64
	Lon float64
}

// Metric measures distances between points and projects them onto a local
// plane whose unit matches the distance unit.
type Metric interface {
	// Name identifies the metric in configuration and logs.
	Name() string
	// Distance returns the distance between a and b.
	Distance(a, b Point) float64
	// Project maps p onto a plane centered at origin.
	Project(origin, p Point) (x, y float64)
	// ValidPoint reports whether p is a usable coordinate for this metric.
	ValidPoint(p Point) bool
}

// Geodesic measures great-circle distances in meters on a spherical Earth.
type Geodesic struct{}

// Name implements Metric.
func (Geodesic) Name() string { return "geodesic" }

// Distance returns the haversine distance in meters.
func (Geodesic) Distance(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := lat2 - lat1
	dLon := radians(normalizeLon(b.Lon - a.Lon))

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * EarthRadius * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Project uses an equirectangular projection around origin. It is accurate
// to well under a meter for places a few kilometers across.
func (Geodesic) Project(origin, p Point) (float64, float64) {
	x := radians(normalizeLon(p.Lon-origin.Lon)) * math.Cos(radians(origin.Lat)) * EarthRadius
	y := radians(p.Lat-origin.Lat) * EarthRadius

	return x, y
}

// ValidPoint requires finite coordinates within WGS84 ranges.
func (Geodesic) ValidPoint(p Point) bool {
	return finite(p.Lat) && finite(p.Lon) &&
		p.Lat >= -90 && p.Lat <= 90 &&
		p.Lon >= -180 && p.Lon <= 180
}

// Planar measures euclidean distances in coordinate units.
type Planar struct{}

// Name implements Metric.
func (Planar) Name() string { return "planar" }

// Distance returns the euclidean distance.
func (Planar) Distance(a, b Point) float64 {
	return math.Hypot(b.Lon-a.Lon, b.Lat-a.Lat)
}

// Project translates p so that origin becomes (0, 0).
func (Planar) Project(origin, p Point) (float64, float64) {
	return p.Lon - origin.Lon, p.Lat - origin.Lat
}

// ValidPoint requires finite coordinates.
func (Planar) ValidPoint(p Point) bool {
	return finite(p.Lat) && finite(p.Lon)
}

// MetricByName returns the metric with the given name.
func MetricByName(name string) (Metric, bool) {
	switch name {
	case "", Geodesic{}.Name():
		return Geodesic{}, true
	case Planar{}.Name():
		return Planar{}, true
	default:
		return nil, false
	}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// normalizeLon wraps a longitude delta into [-180, 180].
func normalizeLon(d float64) float64 {
	for d > 180 {
		d -= 360
	}

	for d < -180 {
		d += 360
	}

	return d
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
