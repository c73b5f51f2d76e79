package places

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/wherering/internal/config"
	"github.com/oshokin/wherering/internal/domain/place"
	"github.com/oshokin/wherering/internal/domain/ringer"
	"github.com/oshokin/wherering/internal/logger"
	"github.com/oshokin/wherering/internal/proximity"
)

// YAMLFile is a read-mostly catalog kept in a YAML document:
//
//	places:
//	  - id: concorde
//	    name: Place de la Concorde
//	    mode: normal
//	    circle: {lat: 48.865633, lon: 2.321236, radius: 150}
//	  - id: office
//	    mode: silent
//	    polygon:
//	      - {lat: 37.4219, lon: -122.0841}
//	      - {lat: 37.4225, lon: -122.0841}
//	      - {lat: 37.4225, lon: -122.0832}
type YAMLFile struct {
	path string
}

var _ proximity.Catalog = (*YAMLFile)(nil)

// document is the on-disk layout.
type document struct {
	Places []record `yaml:"places"`
}

// record is one place entry. Exactly one of Circle and Polygon is expected.
type record struct {
	ID      string        `yaml:"id"`
	Name    string        `yaml:"name,omitempty"`
	Mode    string        `yaml:"mode"`
	Circle  *circleRecord `yaml:"circle,omitempty"`
	Polygon []pointRecord `yaml:"polygon,omitempty"`
}

type circleRecord struct {
	Lat    float64 `yaml:"lat"`
	Lon    float64 `yaml:"lon"`
	Radius float64 `yaml:"radius"`
}

type pointRecord struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

var errAmbiguousShape = errors.New("place needs exactly one of circle or polygon")

// NewYAMLFile returns a catalog backed by path.
func NewYAMLFile(path string) *YAMLFile {
	return &YAMLFile{path: filepath.Clean(path)}
}

// Load reads the catalog. Entries that do not describe a usable place are
// skipped with a warning; a missing file is an error.
func (f *YAMLFile) Load(ctx context.Context) ([]place.Place, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read places file: %w", err)
	}

	return ParseYAML(ctx, data)
}

// Save writes places to the file, replacing its contents.
func (f *YAMLFile) Save(places []place.Place) error {
	data, err := MarshalYAML(places)
	if err != nil {
		return err
	}

	if err := os.WriteFile(f.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write places file: %w", err)
	}

	return nil
}

// ParseYAML decodes a YAML catalog.
func ParseYAML(ctx context.Context, data []byte) ([]place.Place, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse places: %w", err)
	}

	result := make([]place.Place, 0, len(doc.Places))

	for i, rec := range doc.Places {
		p, err := rec.toPlace()
		if err != nil {
			logger.WarnKV(ctx, "Skipping malformed place entry", "index", i, "place_id", rec.ID, "error", err)
			continue
		}

		result = append(result, p)
	}

	return result, nil
}

// MarshalYAML encodes places in the catalog layout.
func MarshalYAML(places []place.Place) ([]byte, error) {
	doc := document{Places: make([]record, 0, len(places))}

	for i := range places {
		rec, err := fromPlace(&places[i])
		if err != nil {
			return nil, err
		}

		doc.Places = append(doc.Places, rec)
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("marshal places: %w", err)
	}

	return data, nil
}

func (r *record) toPlace() (place.Place, error) {
	mode, err := ringer.ParseMode(r.Mode)
	if err != nil {
		return place.Place{}, err
	}

	p := place.Place{ID: r.ID, Name: r.Name, Mode: mode}

	switch {
	case r.Circle != nil && len(r.Polygon) == 0:
		p.Geometry = place.Circle(place.Point{Lat: r.Circle.Lat, Lon: r.Circle.Lon}, r.Circle.Radius)
	case r.Circle == nil && len(r.Polygon) > 0:
		ring := make([]place.Point, 0, len(r.Polygon))
		for _, v := range r.Polygon {
			ring = append(ring, place.Point{Lat: v.Lat, Lon: v.Lon})
		}

		p.Geometry = place.Polygon(ring...)
	default:
		return place.Place{}, errAmbiguousShape
	}

	return p, nil
}

func fromPlace(p *place.Place) (record, error) {
	rec := record{ID: p.ID, Name: p.Name, Mode: p.Mode.String()}

	switch p.Geometry.Kind {
	case place.KindCircle:
		rec.Circle = &circleRecord{
			Lat:    p.Geometry.Center.Lat,
			Lon:    p.Geometry.Center.Lon,
			Radius: p.Geometry.Radius,
		}
	case place.KindPolygon:
		for _, v := range p.Geometry.Ring {
			rec.Polygon = append(rec.Polygon, pointRecord(v))
		}
	default:
		return record{}, fmt.Errorf("place %s: %w", p.ID, errUnsupportedGeometry)
	}

	return rec, nil
}
