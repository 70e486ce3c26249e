// Package location holds the static registry of commute locations: their
// coordinates and the approximate road distance between every pair.
package location

import (
	_ "embed"
	"fmt"
	"math"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locations.yaml
var defaultData []byte

// Coordinates is a latitude/longitude pair in degrees.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Location is a named place commuters can start from or travel to.
type Location struct {
	Name string `json:"name"`
	Coordinates
	distances map[string]string
}

type document struct {
	Default          string `yaml:"default"`
	FallbackDistance string `yaml:"fallback_distance"`
	Locations        []struct {
		Name      string            `yaml:"name"`
		Lat       float64           `yaml:"lat"`
		Lng       float64           `yaml:"lng"`
		Distances map[string]string `yaml:"distances"`
	} `yaml:"locations"`
}

// Registry is an immutable lookup table of locations. It is safe for
// concurrent use.
type Registry struct {
	locations        []Location
	byName           map[string]int // lower-cased name -> index
	defaultIndex     int
	fallbackDistance string
}

var defaultRegistry = mustParse(defaultData)

// Default returns the registry built from the embedded location table.
func Default() *Registry {
	return defaultRegistry
}

func mustParse(data []byte) *Registry {
	r, err := Parse(data)
	if err != nil {
		panic(fmt.Sprintf("location: embedded registry: %v", err))
	}
	return r
}

// Parse builds a registry from a YAML document.
func Parse(data []byte) (*Registry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	if len(doc.Locations) == 0 {
		return nil, fmt.Errorf("registry has no locations")
	}

	r := &Registry{
		locations:        make([]Location, 0, len(doc.Locations)),
		byName:           make(map[string]int, len(doc.Locations)),
		defaultIndex:     -1,
		fallbackDistance: doc.FallbackDistance,
	}
	for _, l := range doc.Locations {
		key := strings.ToLower(l.Name)
		if _, dup := r.byName[key]; dup {
			return nil, fmt.Errorf("duplicate location %q", l.Name)
		}
		dist := make(map[string]string, len(l.Distances))
		for to, d := range l.Distances {
			dist[strings.ToLower(to)] = d
		}
		r.byName[key] = len(r.locations)
		r.locations = append(r.locations, Location{
			Name:        l.Name,
			Coordinates: Coordinates{Lat: l.Lat, Lng: l.Lng},
			distances:   dist,
		})
	}

	if idx, ok := r.byName[strings.ToLower(doc.Default)]; ok {
		r.defaultIndex = idx
	} else {
		return nil, fmt.Errorf("default location %q is not in the registry", doc.Default)
	}
	return r, nil
}

// All returns the locations in registry order.
func (r *Registry) All() []Location {
	out := make([]Location, len(r.locations))
	copy(out, r.locations)
	return out
}

// Names returns the location names in registry order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.locations))
	for i, l := range r.locations {
		names[i] = l.Name
	}
	return names
}

// Lookup resolves a free-text name to a location. It tries an exact match,
// then a case-insensitive match, then a substring match in either direction.
// Unmatched names resolve to the default location and ok is false.
func (r *Registry) Lookup(name string) (loc Location, ok bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower != "" {
		for _, l := range r.locations {
			if l.Name == name {
				return l, true
			}
		}
		if idx, found := r.byName[lower]; found {
			return r.locations[idx], true
		}
		for _, l := range r.locations {
			key := strings.ToLower(l.Name)
			if strings.Contains(key, lower) || strings.Contains(lower, key) {
				return l, true
			}
		}
	}
	return r.locations[r.defaultIndex], false
}

// RoadDistance returns the approximate road distance from one location to
// another, e.g. "15 km". Unknown pairs get the registry's fallback distance.
func (r *Registry) RoadDistance(from, to string) string {
	idx, ok := r.byName[strings.ToLower(strings.TrimSpace(from))]
	if !ok {
		return r.fallbackDistance
	}
	if d, ok := r.locations[idx].distances[strings.ToLower(strings.TrimSpace(to))]; ok {
		return d
	}
	return r.fallbackDistance
}

// StraightLineKm is the great-circle distance between two resolved locations.
func (r *Registry) StraightLineKm(from, to string) float64 {
	a, _ := r.Lookup(from)
	b, _ := r.Lookup(to)
	return Haversine(a.Coordinates, b.Coordinates)
}

// Center returns the midpoint of two coordinates.
func Center(from, to Coordinates) Coordinates {
	return Coordinates{
		Lat: (from.Lat + to.Lat) / 2,
		Lng: (from.Lng + to.Lng) / 2,
	}
}

// Zoom picks a map zoom level that fits both coordinates.
func Zoom(from, to Coordinates) int {
	maxDiff := math.Max(math.Abs(from.Lat-to.Lat), math.Abs(from.Lng-to.Lng))
	switch {
	case maxDiff > 0.3:
		return 9
	case maxDiff > 0.15:
		return 10
	case maxDiff > 0.08:
		return 11
	case maxDiff > 0.04:
		return 12
	}
	return 13
}

// Haversine formula for distance in km
func Haversine(a, b Coordinates) float64 {
	const R = 6371 // Earth radius in km
	dLat := (b.Lat - a.Lat) * (math.Pi / 180)
	dLon := (b.Lng - a.Lng) * (math.Pi / 180)
	lat1 := a.Lat * (math.Pi / 180)
	lat2 := b.Lat * (math.Pi / 180)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1)*math.Cos(lat2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return R * c
}
