package entities

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zatekoja/eventfinder/pkg/geo"
)

// TicketStatus is the sale state reported by the event provider
type TicketStatus string

const (
	TicketStatusOnSale  TicketStatus = "onsale"
	TicketStatusOffSale TicketStatus = "offsale"
)

// DistanceUnit is the unit a search radius is expressed in
type DistanceUnit string

const (
	UnitKilometers DistanceUnit = "km"
	UnitMiles      DistanceUnit = "miles"
)

// EventQuery is a coordinates plus radius lookup
type EventQuery struct {
	Latitude  float64      `json:"latitude"`
	Longitude float64      `json:"longitude"`
	Radius    int          `json:"radius"`
	Unit      DistanceUnit `json:"unit"`
}

// Point returns the query center
func (q EventQuery) Point() geo.Point {
	return geo.Point{Lat: q.Latitude, Lon: q.Longitude}
}

// Venue is where an event takes place. Coordinates are optional because
// the provider does not always supply them.
type Venue struct {
	Name      string   `json:"name"`
	Address   string   `json:"address,omitempty"`
	City      string   `json:"city,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Point returns the venue position and whether it is usable
func (v Venue) Point() (geo.Point, bool) {
	if v.Latitude == nil || v.Longitude == nil {
		return geo.Point{}, false
	}
	p := geo.Point{Lat: *v.Latitude, Lon: *v.Longitude}
	return p, p.Valid()
}

// Image is one rendition of an event image
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Ratio  string `json:"ratio,omitempty"`
}

// PriceRange is the advertised ticket price span
type PriceRange struct {
	Min      decimal.Decimal `json:"min"`
	Max      decimal.Decimal `json:"max"`
	Currency string          `json:"currency"`
}

// EventRecord is a provider event normalized for display. A query result
// is an immutable slice of these; a new query replaces the whole slice.
type EventRecord struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	URL          string       `json:"url,omitempty"`
	Venue        Venue        `json:"venue"`
	Artists      []string     `json:"artists,omitempty"`
	Images       []Image      `json:"images,omitempty"`
	TicketStatus TicketStatus `json:"ticket_status"`
	PriceRange   *PriceRange  `json:"price_range,omitempty"`
	Genre        string       `json:"genre,omitempty"`
	Subgenre     string       `json:"subgenre,omitempty"`
	StartDate    string       `json:"start_date,omitempty"`
	StartTime    string       `json:"start_time,omitempty"`
	Info         string       `json:"info,omitempty"`
	PleaseNote   string       `json:"please_note,omitempty"`
}

const (
	wideImageRatio    = "16_9"
	wideImageMinWidth = 500
)

// PrimaryImage picks the first wide image over 500px, falling back to the
// first image of any shape.
func (e *EventRecord) PrimaryImage() (Image, bool) {
	if len(e.Images) == 0 {
		return Image{}, false
	}
	for _, img := range e.Images {
		if img.Ratio == wideImageRatio && img.Width > wideImageMinWidth {
			return img, true
		}
	}
	return e.Images[0], true
}

// ArtistsLabel joins the performer names
func (e *EventRecord) ArtistsLabel() string {
	if len(e.Artists) == 0 {
		return "Various Artists"
	}
	return strings.Join(e.Artists, ", ")
}

// VenueLabel returns the venue name or a placeholder
func (e *EventRecord) VenueLabel() string {
	if e.Venue.Name == "" {
		return "Venue information unavailable"
	}
	return e.Venue.Name
}

// TicketLabel describes the ticket sale state
func (e *EventRecord) TicketLabel() string {
	if e.TicketStatus == TicketStatusOnSale {
		return "Tickets Available"
	}
	return "Tickets Unavailable"
}

// PriceLabel formats the price range as "min - max CUR"
func (e *EventRecord) PriceLabel() string {
	if e.PriceRange == nil {
		return "Price information unavailable"
	}
	currency := e.PriceRange.Currency
	if currency == "" {
		currency = "USD"
	}
	return e.PriceRange.Min.String() + " - " + e.PriceRange.Max.String() + " " + currency
}

// DetailPath is the server path of the event detail page
func (e *EventRecord) DetailPath() string {
	return "/event/" + e.ID
}
