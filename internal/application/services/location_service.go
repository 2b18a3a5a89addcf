package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/zatekoja/eventfinder/internal/domain/entities"
	"github.com/zatekoja/eventfinder/internal/domain/providers"
	"github.com/zatekoja/eventfinder/internal/infrastructure/observability"
	"github.com/zatekoja/eventfinder/pkg/config"
	apperrors "github.com/zatekoja/eventfinder/pkg/errors"
	"github.com/zatekoja/eventfinder/pkg/geo"
)

// LocationService turns free text into candidate locations and positions
// into named locations
type LocationService struct {
	geocoder       providers.GeocodeProvider
	analytics      *SearchAnalyticsService
	minQueryLength int
	limit          int
}

// NewLocationService creates a new location service
func NewLocationService(geocoder providers.GeocodeProvider, analytics *SearchAnalyticsService, cfg config.SearchConfig) *LocationService {
	minLen := cfg.MinQueryLength
	if minLen < 1 {
		minLen = 2
	}
	limit := cfg.SuggestionLimit
	if limit < 1 {
		limit = 10
	}
	return &LocationService{
		geocoder:       geocoder,
		analytics:      analytics,
		minQueryLength: minLen,
		limit:          limit,
	}
}

// Search returns up to the configured number of candidates. Queries shorter
// than the minimum length return an empty list without calling the geocoder.
func (s *LocationService) Search(ctx context.Context, query string) ([]entities.Place, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < s.minQueryLength {
		return []entities.Place{}, nil
	}

	start := time.Now()
	places, err := s.geocoder.Search(ctx, query, s.limit)
	s.analytics.TrackSearch(&entities.SearchEvent{
		Kind:        entities.SearchKindLocation,
		Query:       query,
		ResultCount: len(places),
		LatencyMs:   int(time.Since(start).Milliseconds()),
		Failed:      err != nil,
		SessionID:   SessionIDFromContext(ctx),
	})
	if err != nil {
		return nil, err
	}
	if len(places) > s.limit {
		places = places[:s.limit]
	}
	return places, nil
}

// Reverse names the position. The caller decides how to fall back when
// no name can be found.
func (s *LocationService) Reverse(ctx context.Context, lat, lon float64) (*entities.Location, error) {
	if !geo.ValidCoordinates(lat, lon) {
		return nil, apperrors.NewValidationError("latitude must be within ±90 and longitude within ±180")
	}

	start := time.Now()
	place, err := s.geocoder.Reverse(ctx, lat, lon)
	s.analytics.TrackSearch(&entities.SearchEvent{
		Kind:        entities.SearchKindReverse,
		Latitude:    lat,
		Longitude:   lon,
		ResultCount: boolToInt(place != nil),
		LatencyMs:   int(time.Since(start).Milliseconds()),
		Failed:      err != nil && !apperrors.IsType(err, apperrors.ErrorTypeNotFound),
		SessionID:   SessionIDFromContext(ctx),
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Debug().Err(err).Float64("lat", lat).Float64("lon", lon).Msg("reverse geocoding failed")
		return nil, err
	}

	loc := place.Location()
	// keep the caller's position, not the matched feature's centroid
	loc.Latitude, loc.Longitude = lat, lon
	return &loc, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
