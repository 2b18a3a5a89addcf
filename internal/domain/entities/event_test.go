package entities

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func ptr(f float64) *float64 { return &f }

func TestEventRecord_PrimaryImage(t *testing.T) {
	e := EventRecord{Images: []Image{
		{URL: "small-16-9", Width: 305, Ratio: "16_9"},
		{URL: "square", Width: 1024, Ratio: "1_1"},
		{URL: "large-16-9", Width: 1024, Ratio: "16_9"},
	}}
	img, ok := e.PrimaryImage()
	assert.True(t, ok)
	assert.Equal(t, "large-16-9", img.URL)

	e.Images = e.Images[:2]
	img, ok = e.PrimaryImage()
	assert.True(t, ok)
	assert.Equal(t, "small-16-9", img.URL)

	_, ok = (&EventRecord{}).PrimaryImage()
	assert.False(t, ok)
}

func TestEventRecord_Labels(t *testing.T) {
	e := EventRecord{}
	assert.Equal(t, "Various Artists", e.ArtistsLabel())
	assert.Equal(t, "Venue information unavailable", e.VenueLabel())
	assert.Equal(t, "Tickets Unavailable", e.TicketLabel())
	assert.Equal(t, "Price information unavailable", e.PriceLabel())

	e = EventRecord{
		ID:           "G5v0Z9",
		Artists:      []string{"Nina Simone", "Ray Charles"},
		Venue:        Venue{Name: "Paradiso"},
		TicketStatus: TicketStatusOnSale,
		PriceRange:   &PriceRange{Min: decimal.RequireFromString("25"), Max: decimal.RequireFromString("49.50")},
	}
	assert.Equal(t, "Nina Simone, Ray Charles", e.ArtistsLabel())
	assert.Equal(t, "Paradiso", e.VenueLabel())
	assert.Equal(t, "Tickets Available", e.TicketLabel())
	assert.Equal(t, "25 - 49.5 USD", e.PriceLabel())
	assert.Equal(t, "/event/G5v0Z9", e.DetailPath())
}

func TestVenue_Point(t *testing.T) {
	_, ok := Venue{Name: "No coords"}.Point()
	assert.False(t, ok)

	_, ok = Venue{Latitude: ptr(120), Longitude: ptr(4.9)}.Point()
	assert.False(t, ok)

	p, ok := Venue{Latitude: ptr(52.36), Longitude: ptr(4.88)}.Point()
	assert.True(t, ok)
	assert.Equal(t, 52.36, p.Lat)
}

func TestNewEventsLoadedNotification(t *testing.T) {
	n := NewEventsLoadedNotification(Location{Latitude: 52.37, Longitude: 4.90, DisplayName: "Amsterdam"}, 40,
		[]EventRecord{{ID: "a"}, {ID: "b"}})

	assert.NotEmpty(t, n.ID)
	assert.Equal(t, NotificationEventsLoaded, n.Type)
	assert.Equal(t, 2, n.Count)
	assert.Equal(t, []string{"a", "b"}, n.EventIDs)
}

func TestCoordinateName(t *testing.T) {
	assert.Equal(t, "52.370000, 4.900000", CoordinateName(52.37, 4.9))
}
