package bus

import (
	"github.com/zatekoja/eventfinder/internal/domain/entities"
)

// LocationDetail is the payload of a location change
type LocationDetail struct {
	Lat    float64
	Lon    float64
	Name   string
	Radius int
}

// Location converts the detail back into an entities.Location
func (d LocationDetail) Location() entities.Location {
	return entities.Location{Latitude: d.Lat, Longitude: d.Lon, DisplayName: d.Name}
}

// EventsDetail carries the full current result set
type EventsDetail struct {
	Events []entities.EventRecord
}

// HighlightDetail points at one event
type HighlightDetail struct {
	EventID string
}

var (
	// LocationSelected fires when the user picks a new location
	LocationSelected = NewTopic[LocationDetail]("locationSelected")

	// RefreshEvents asks for a new query at the current location, e.g.
	// after a radius change
	RefreshEvents = NewTopic[LocationDetail]("refreshEvents")

	// EventsDataLoaded fires after a successful query, including one with
	// no results
	EventsDataLoaded = NewTopic[EventsDetail]("eventsDataLoaded")

	// HighlightEventMarker asks the map to focus an event's marker
	HighlightEventMarker = NewTopic[HighlightDetail]("highlightEventMarker")

	// HighlightEventCard asks the results list to focus an event's card
	HighlightEventCard = NewTopic[HighlightDetail]("highlightEventCard")
)
