// Package selector binds a free-text location input to the geocoder and is
// the only writer of the current location.
package selector

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/eventfinder/internal/domain/entities"
	"github.com/zatekoja/eventfinder/internal/domain/providers"
	"github.com/zatekoja/eventfinder/internal/frontend/bus"
	"github.com/zatekoja/eventfinder/internal/frontend/device"
	"github.com/zatekoja/eventfinder/internal/frontend/loop"
	"github.com/zatekoja/eventfinder/internal/frontend/state"
	apperrors "github.com/zatekoja/eventfinder/pkg/errors"
)

// Messages shown in the selector's error slot
const (
	MessageUnknownLocation = "Please select a location from the suggestions."
	MessageNoLocation      = "Please choose a location first."
)

// Config tunes the selector
type Config struct {
	Debounce           time.Duration
	SuggestionLimit    int
	MinQueryLength     int
	GeolocationTimeout time.Duration
	GeolocationMaxAge  time.Duration
}

// DefaultConfig returns a 500ms debounce, 10 suggestions for queries of 2+
// characters, and a 10s/60s geolocation timeout and max age
func DefaultConfig() Config {
	return Config{
		Debounce:           500 * time.Millisecond,
		SuggestionLimit:    10,
		MinQueryLength:     2,
		GeolocationTimeout: 10 * time.Second,
		GeolocationMaxAge:  time.Minute,
	}
}

// Selector is the location input. All methods must be called on the
// scheduler's loop.
type Selector struct {
	ctx        context.Context
	sched      loop.Scheduler
	bus        *bus.Bus
	state      *state.AppState
	geocoder   providers.GeocodeProvider
	geolocator device.Geolocator
	cfg        Config

	text        string
	suggestions []entities.Place
	timer       loop.Timer
	generation  uint64
	busy        bool
	errMsg      string
	onChange    func()
}

// New creates a selector. A nil geolocator behaves as an unsupported device.
func New(ctx context.Context, sched loop.Scheduler, b *bus.Bus, st *state.AppState,
	geocoder providers.GeocodeProvider, geolocator device.Geolocator, cfg Config) *Selector {
	if geolocator == nil {
		geolocator = device.Unsupported{}
	}
	return &Selector{
		ctx:        ctx,
		sched:      sched,
		bus:        b,
		state:      st,
		geocoder:   geocoder,
		geolocator: geolocator,
		cfg:        cfg,
	}
}

// OnChange registers fn to run after any visible change
func (s *Selector) OnChange(fn func()) {
	s.onChange = fn
}

func (s *Selector) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

// Text returns the current input text
func (s *Selector) Text() string { return s.text }

// Suggestions returns the current candidate list
func (s *Selector) Suggestions() []entities.Place {
	return append([]entities.Place(nil), s.suggestions...)
}

// Error returns the visible error, if any
func (s *Selector) Error() string { return s.errMsg }

// Busy reports whether a device location lookup is running
func (s *Selector) Busy() bool { return s.busy }

// Input records a keystroke. Any pending lookup is cancelled and a new one
// armed; text shorter than the minimum clears the suggestions instead.
func (s *Selector) Input(text string) {
	s.text = text
	s.cancelPending()

	query := strings.TrimSpace(text)
	if utf8.RuneCountInString(query) < s.cfg.MinQueryLength {
		if len(s.suggestions) > 0 {
			s.suggestions = nil
			s.changed()
		}
		return
	}

	generation := s.generation
	s.timer = s.sched.AfterFunc(s.cfg.Debounce, func() {
		s.timer = nil
		s.fetchSuggestions(generation, query)
	})
}

// cancelPending stops the debounce timer and invalidates any lookup still
// in flight
func (s *Selector) cancelPending() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.generation++
}

func (s *Selector) fetchSuggestions(generation uint64, query string) {
	s.sched.Go(func() func() {
		places, err := s.geocoder.Search(s.ctx, query, s.cfg.SuggestionLimit)
		return func() {
			if generation != s.generation {
				log.Debug().Str("query", query).Msg("dropping suggestions for superseded input")
				return
			}
			if err != nil {
				log.Warn().Err(err).Str("query", query).Msg("location lookup failed")
				s.suggestions = nil
				s.errMsg = apperrors.UserMessage(err, apperrors.MessageLocationsUnavailable)
				s.changed()
				return
			}
			if len(places) > s.cfg.SuggestionLimit && s.cfg.SuggestionLimit > 0 {
				places = places[:s.cfg.SuggestionLimit]
			}
			s.suggestions = places
			s.errMsg = ""
			s.changed()
		}
	})
}

// Select picks suggestion i
func (s *Selector) Select(i int) error {
	if i < 0 || i >= len(s.suggestions) {
		return apperrors.NewValidationError(fmt.Sprintf("no suggestion %d", i+1))
	}
	return s.apply(s.suggestions[i].Location())
}

// Submit picks the suggestion whose name matches text. Unknown text only
// sets the visible error.
func (s *Selector) Submit(text string) error {
	text = strings.TrimSpace(text)
	for _, p := range s.suggestions {
		if strings.EqualFold(strings.TrimSpace(p.DisplayName), text) {
			return s.apply(p.Location())
		}
	}
	s.errMsg = MessageUnknownLocation
	s.changed()
	return apperrors.NewValidationError(MessageUnknownLocation)
}

// SetRadius clamps and stores km and, once a location is set, asks for a
// fresh query. It returns the stored radius.
func (s *Selector) SetRadius(km int) int {
	radius := s.state.SetRadius(km)
	if detail, ok := s.state.Detail(); ok {
		bus.Publish(s.bus, bus.RefreshEvents, detail)
	}
	s.changed()
	return radius
}

// Refresh re-runs the query for the current location
func (s *Selector) Refresh() bool {
	detail, ok := s.state.Detail()
	if !ok {
		s.errMsg = MessageNoLocation
		s.changed()
		return false
	}
	bus.Publish(s.bus, bus.RefreshEvents, detail)
	return true
}

// Restore re-applies the persisted location, if any
func (s *Selector) Restore() bool {
	loc, ok := s.state.Restore()
	if !ok {
		return false
	}
	s.text = loc.DisplayName
	detail, _ := s.state.Detail()
	bus.Publish(s.bus, bus.LocationSelected, detail)
	s.changed()
	return true
}

// UseDeviceLocation selects the device position. The name comes from
// reverse geocoding, or the raw coordinates when that fails.
func (s *Selector) UseDeviceLocation() {
	if s.busy {
		return
	}
	s.busy = true
	s.errMsg = ""
	s.changed()

	opts := device.Options{Timeout: s.cfg.GeolocationTimeout, MaximumAge: s.cfg.GeolocationMaxAge}
	s.sched.Go(func() func() {
		pos, err := s.geolocator.CurrentPosition(s.ctx, opts)
		if err != nil {
			return func() {
				log.Warn().Err(err).Msg("device location failed")
				s.busy = false
				s.errMsg = device.Message(err)
				s.changed()
			}
		}

		lat, lon := pos.Point.Lat, pos.Point.Lon
		name := entities.CoordinateName(lat, lon)
		place, err := s.geocoder.Reverse(s.ctx, lat, lon)
		switch {
		case err != nil:
			log.Info().Err(err).Msg("reverse geocoding failed, using coordinates as name")
		case place != nil && place.DisplayName != "":
			name = place.DisplayName
		}

		return func() {
			s.busy = false
			if err := s.apply(entities.Location{Latitude: lat, Longitude: lon, DisplayName: name}); err != nil {
				log.Warn().Err(err).Msg("device position rejected")
			}
		}
	})
}

func (s *Selector) apply(loc entities.Location) error {
	if err := s.state.SetLocation(loc); err != nil {
		s.errMsg = apperrors.UserMessage(err, apperrors.MessageInternal)
		s.changed()
		return err
	}
	s.cancelPending()
	s.text = loc.DisplayName
	s.suggestions = nil
	s.errMsg = ""

	detail, _ := s.state.Detail()
	log.Info().Str("name", detail.Name).Float64("lat", detail.Lat).Float64("lon", detail.Lon).
		Int("radius_km", detail.Radius).Msg("location selected")
	bus.Publish(s.bus, bus.LocationSelected, detail)
	s.changed()
	return nil
}
