package geocoding

import (
	"context"
	"strings"

	"github.com/zatekoja/eventfinder/internal/domain/entities"
	"github.com/zatekoja/eventfinder/internal/domain/providers"
	apperrors "github.com/zatekoja/eventfinder/pkg/errors"
	"github.com/zatekoja/eventfinder/pkg/geo"
)

// MockGeocodeProvider answers from a fixed gazetteer. It backs local
// development when GEOCODING_PROVIDER=mock.
type MockGeocodeProvider struct {
	places []entities.Place
}

// NewMockGeocodeProvider creates a new mock geocode provider
func NewMockGeocodeProvider() providers.GeocodeProvider {
	return &MockGeocodeProvider{places: []entities.Place{
		{PlaceID: 1, DisplayName: "Amsterdam, Noord-Holland, Nederland", Latitude: 52.3676, Longitude: 4.9041},
		{PlaceID: 2, DisplayName: "Rotterdam, Zuid-Holland, Nederland", Latitude: 51.9244, Longitude: 4.4777},
		{PlaceID: 3, DisplayName: "Utrecht, Nederland", Latitude: 52.0907, Longitude: 5.1214},
		{PlaceID: 4, DisplayName: "London, Greater London, England, United Kingdom", Latitude: 51.5072, Longitude: -0.1276},
		{PlaceID: 5, DisplayName: "Lagos, Nigeria", Latitude: 6.5244, Longitude: 3.3792},
		{PlaceID: 6, DisplayName: "New York, United States", Latitude: 40.7128, Longitude: -74.0060},
	}}
}

// Search matches query case-insensitively against display names
func (m *MockGeocodeProvider) Search(ctx context.Context, query string, limit int) ([]entities.Place, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, apperrors.NewValidationError("query is required")
	}
	var out []entities.Place
	for _, p := range m.places {
		if strings.Contains(strings.ToLower(p.DisplayName), q) {
			out = append(out, p)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Reverse returns the nearest gazetteer entry
func (m *MockGeocodeProvider) Reverse(ctx context.Context, lat, lon float64) (*entities.Place, error) {
	if !geo.ValidCoordinates(lat, lon) {
		return nil, apperrors.NewValidationError("latitude must be within ±90 and longitude within ±180")
	}
	from := geo.Point{Lat: lat, Lon: lon}
	best := m.places[0]
	for _, p := range m.places[1:] {
		if geo.Distance(from, geo.Point{Lat: p.Latitude, Lon: p.Longitude}) <
			geo.Distance(from, geo.Point{Lat: best.Latitude, Lon: best.Longitude}) {
			best = p
		}
	}
	return &best, nil
}
