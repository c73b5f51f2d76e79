package place

import "time"

// Fix is one location sample. Fixes are consumed once and never mutated.
type Fix struct {
	// Lat is the latitude (or Y coordinate for the planar metric).
	Lat float64
	// Lon is the longitude (or X coordinate for the planar metric).
	Lon float64
	// Accuracy is the reported accuracy radius. Zero means unknown.
	Accuracy float64
	// Timestamp is when the sample was taken.
	Timestamp time.Time
	// Source identifies the provider that produced the fix.
	Source string
}

// Point returns the fix position.
func (f *Fix) Point() Point {
	return Point{Lat: f.Lat, Lon: f.Lon}
}

// Margin returns the membership margin for the fix: its reported accuracy
// when usable, otherwise the hysteresis constant.
func (f *Fix) Margin(hysteresis float64) float64 {
	if finite(f.Accuracy) && f.Accuracy > 0 {
		return f.Accuracy
	}

	return hysteresis
}
