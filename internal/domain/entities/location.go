package entities

import (
	"fmt"

	"github.com/zatekoja/eventfinder/pkg/geo"
)

// Location is the single current search location. It is also the shape
// persisted by the client under the savedLocation key.
type Location struct {
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
	DisplayName string  `json:"name"`
}

// Point returns the location as a geo.Point
func (l Location) Point() geo.Point {
	return geo.Point{Lat: l.Latitude, Lon: l.Longitude}
}

// CoordinateName is the fallback display name used when a position could
// not be reverse geocoded
func CoordinateName(lat, lon float64) string {
	return fmt.Sprintf("%.6f, %.6f", lat, lon)
}

// Place is a geocoding candidate returned for a free-text query
type Place struct {
	PlaceID     int64   `json:"place_id"`
	DisplayName string  `json:"display_name"`
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
	Type        string  `json:"type,omitempty"`
	Class       string  `json:"class,omitempty"`
}

// Location converts the candidate into a selectable Location
func (p Place) Location() Location {
	return Location{
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		DisplayName: p.DisplayName,
	}
}
