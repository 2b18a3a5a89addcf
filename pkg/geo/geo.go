// Package geo holds the small amount of spherical geometry the finder needs:
// great-circle distance, distance labels, radius bounds and map bounds.
package geo

import (
	"fmt"
	"math"
)

const earthRadiusKm = 6371.0

// kmToMiles is the conversion factor used for provider radius queries
const kmToMiles = 0.621371

// Point is a WGS84 coordinate pair in degrees
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether p has finite coordinates within ±90 / ±180
func (p Point) Valid() bool {
	return ValidCoordinates(p.Lat, p.Lon)
}

// ValidCoordinates reports whether lat/lon are finite and in range
func ValidCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Distance returns the haversine distance between a and b in kilometers
func Distance(a, b Point) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// FormatDistance renders a distance label: meters below 1 km, one decimal
// below 10 km, whole kilometers beyond that. The unit is picked after
// rounding, so 999.6 m reads "1.0 km away" and 9.97 km "10 km away".
func FormatDistance(km float64) string {
	if m := math.Round(km * 1000); m < 1000 {
		return fmt.Sprintf("%d m away", int(m))
	}
	if tenths := math.Round(km*10) / 10; tenths < 10 {
		return fmt.Sprintf("%.1f km away", tenths)
	}
	return fmt.Sprintf("%d km away", int(math.Round(km)))
}

// KmToMiles converts a radius in kilometers to whole miles, never below 1
func KmToMiles(km int) int {
	miles := int(math.Round(float64(km) * kmToMiles))
	if miles < 1 {
		return 1
	}
	return miles
}

// RadiusBounds are the inclusive limits for a search radius in kilometers
type RadiusBounds struct {
	Min     int
	Max     int
	Default int
}

// DefaultRadiusBounds returns the stock bounds of 1..160 km with a 40 km default
func DefaultRadiusBounds() RadiusBounds {
	return RadiusBounds{Min: 1, Max: 160, Default: 40}
}

// Clamp pins km into the bounds
func (b RadiusBounds) Clamp(km int) int {
	if km < b.Min {
		return b.Min
	}
	if km > b.Max {
		return b.Max
	}
	return km
}

// Contains reports whether km is within the bounds
func (b RadiusBounds) Contains(km int) bool {
	return km >= b.Min && km <= b.Max
}

// Bounds is a latitude/longitude bounding box
type Bounds struct {
	South, West, North, East float64
	empty                    bool
}

// NewBounds returns a box covering pts. ok is false when pts holds fewer
// than two distinct points, since such a box cannot be fitted to a view.
func NewBounds(pts ...Point) (b Bounds, ok bool) {
	b.empty = true
	for _, p := range pts {
		b = b.Extend(p)
	}
	if b.empty || (b.South == b.North && b.West == b.East) {
		return b, false
	}
	return b, true
}

// Extend grows the box to include p
func (b Bounds) Extend(p Point) Bounds {
	if b.empty {
		return Bounds{South: p.Lat, North: p.Lat, West: p.Lon, East: p.Lon}
	}
	b.South = math.Min(b.South, p.Lat)
	b.North = math.Max(b.North, p.Lat)
	b.West = math.Min(b.West, p.Lon)
	b.East = math.Max(b.East, p.Lon)
	return b
}

// Center returns the midpoint of the box
func (b Bounds) Center() Point {
	return Point{Lat: (b.South + b.North) / 2, Lon: (b.West + b.East) / 2}
}
