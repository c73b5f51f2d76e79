// Package place contains the geographic domain types: places, their
// geometry, location fixes and the distance metrics used to compare them.
//
// Geometry is a tagged variant (circle or polygon) with a single Contains
// capability dispatched by kind. Places are values: a catalog snapshot is
// replaced wholesale, never mutated in place.
package place
