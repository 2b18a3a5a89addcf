// Package state holds the client's current location and search radius.
// The location selector is the only writer; every other component reads.
package state

import (
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/eventfinder/internal/domain/entities"
	"github.com/zatekoja/eventfinder/internal/frontend/bus"
	apperrors "github.com/zatekoja/eventfinder/pkg/errors"
	"github.com/zatekoja/eventfinder/pkg/geo"
)

// SavedLocationKey is the store key of the persisted location
const SavedLocationKey = "savedLocation"

// AppState is the single source for the next query's parameters
type AppState struct {
	location *entities.Location
	radius   int
	bounds   geo.RadiusBounds
	store    Store
}

// New creates state with the default radius and no location
func New(bounds geo.RadiusBounds, store Store) *AppState {
	return &AppState{
		radius: bounds.Clamp(bounds.Default),
		bounds: bounds,
		store:  store,
	}
}

// Location returns the current location, if one was chosen
func (s *AppState) Location() (entities.Location, bool) {
	if s.location == nil {
		return entities.Location{}, false
	}
	return *s.location, true
}

// Radius returns the search radius in kilometers
func (s *AppState) Radius() int {
	return s.radius
}

// Bounds returns the radius limits
func (s *AppState) Bounds() geo.RadiusBounds {
	return s.bounds
}

// SetLocation replaces the current location and persists it. A failed
// write is logged and does not undo the change.
func (s *AppState) SetLocation(loc entities.Location) error {
	if !geo.ValidCoordinates(loc.Latitude, loc.Longitude) {
		return apperrors.NewValidationError("invalid coordinates")
	}
	s.location = &loc

	if s.store != nil {
		if err := s.store.Save(SavedLocationKey, loc); err != nil {
			log.Warn().Err(err).Msg("failed to persist location")
		}
	}
	return nil
}

// SetRadius clamps km into bounds and stores it. It returns the stored value.
func (s *AppState) SetRadius(km int) int {
	s.radius = s.bounds.Clamp(km)
	return s.radius
}

// Restore loads the persisted location. ok is false when nothing usable
// was saved.
func (s *AppState) Restore() (loc entities.Location, ok bool) {
	if s.store == nil {
		return entities.Location{}, false
	}
	found, err := s.store.Load(SavedLocationKey, &loc)
	if err != nil {
		log.Warn().Err(err).Msg("ignoring unreadable saved location")
		return entities.Location{}, false
	}
	if !found || !geo.ValidCoordinates(loc.Latitude, loc.Longitude) {
		return entities.Location{}, false
	}
	s.location = &loc
	return loc, true
}

// Detail builds the notification payload for the current state
func (s *AppState) Detail() (bus.LocationDetail, bool) {
	loc, ok := s.Location()
	if !ok {
		return bus.LocationDetail{}, false
	}
	return bus.LocationDetail{
		Lat:    loc.Latitude,
		Lon:    loc.Longitude,
		Name:   loc.DisplayName,
		Radius: s.radius,
	}, true
}
