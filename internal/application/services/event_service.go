package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zatekoja/eventfinder/internal/domain/entities"
	"github.com/zatekoja/eventfinder/internal/domain/providers"
	"github.com/zatekoja/eventfinder/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/eventfinder/pkg/errors"
	"github.com/zatekoja/eventfinder/pkg/geo"
)

// EventService looks up events around a location and announces completed
// searches on the event bus
type EventService struct {
	events    providers.EventProvider
	bus       providers.EventBus
	analytics *SearchAnalyticsService
	bounds    geo.RadiusBounds
}

// NewEventService creates a new event service. bus may be nil.
func NewEventService(events providers.EventProvider, bus providers.EventBus, analytics *SearchAnalyticsService, bounds geo.RadiusBounds) *EventService {
	return &EventService{
		events:    events,
		bus:       bus,
		analytics: analytics,
		bounds:    bounds,
	}
}

// Bounds returns the accepted radius range in kilometers
func (s *EventService) Bounds() geo.RadiusBounds {
	return s.bounds
}

// Normalize validates q and converts it to the miles query sent upstream.
// It also returns the radius in kilometers.
func (s *EventService) Normalize(q entities.EventQuery) (entities.EventQuery, int, error) {
	if !geo.ValidCoordinates(q.Latitude, q.Longitude) {
		return q, 0, apperrors.NewValidationError("latitude must be within ±90 and longitude within ±180")
	}

	unit := entities.DistanceUnit(strings.ToLower(string(q.Unit)))
	var radiusKm, miles int
	switch unit {
	case "", entities.UnitKilometers:
		if !s.bounds.Contains(q.Radius) {
			return q, 0, apperrors.NewValidationError(fmt.Sprintf("radius must be between %d and %d km", s.bounds.Min, s.bounds.Max))
		}
		radiusKm = q.Radius
		miles = geo.KmToMiles(q.Radius)
	case entities.UnitMiles:
		maxMiles := geo.KmToMiles(s.bounds.Max)
		if q.Radius < 1 || q.Radius > maxMiles {
			return q, 0, apperrors.NewValidationError(fmt.Sprintf("radius must be between 1 and %d miles", maxMiles))
		}
		miles = q.Radius
		radiusKm = s.bounds.Clamp(int(float64(q.Radius)/0.621371 + 0.5))
	default:
		return q, 0, apperrors.NewValidationError("unit must be km or miles")
	}

	return entities.EventQuery{
		Latitude:  q.Latitude,
		Longitude: q.Longitude,
		Radius:    miles,
		Unit:      entities.UnitMiles,
	}, radiusKm, nil
}

// Search returns the events within the radius, in provider order
func (s *EventService) Search(ctx context.Context, q entities.EventQuery) ([]entities.EventRecord, error) {
	upstreamQuery, radiusKm, err := s.Normalize(q)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	events, err := s.events.SearchEvents(ctx, upstreamQuery)
	s.analytics.TrackSearch(&entities.SearchEvent{
		Kind:        entities.SearchKindEvents,
		Latitude:    q.Latitude,
		Longitude:   q.Longitude,
		RadiusKm:    radiusKm,
		ResultCount: len(events),
		LatencyMs:   int(time.Since(start).Milliseconds()),
		Failed:      err != nil,
		SessionID:   SessionIDFromContext(ctx),
	})
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []entities.EventRecord{}
	}

	s.announce(ctx, entities.Location{Latitude: q.Latitude, Longitude: q.Longitude}, radiusKm, events)
	return events, nil
}

func (s *EventService) announce(ctx context.Context, center entities.Location, radiusKm int, events []entities.EventRecord) {
	if s.bus == nil {
		return
	}
	n := entities.NewEventsLoadedNotification(center, radiusKm, events)
	if err := s.bus.Publish(ctx, providers.EventChannelEventsLoaded, n); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to publish events notification")
	}
}

// Get returns one event by id
func (s *EventService) Get(ctx context.Context, id string) (*entities.EventRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.NewValidationError("event id is required")
	}
	return s.events.GetEvent(ctx, id)
}
