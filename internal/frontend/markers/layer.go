// Package markers maintains the map marker set: one centre marker for the
// current location plus one marker per event with usable venue
// coordinates.
package markers

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/eventfinder/internal/domain/entities"
	"github.com/zatekoja/eventfinder/internal/frontend/bus"
	"github.com/zatekoja/eventfinder/internal/frontend/loop"
	"github.com/zatekoja/eventfinder/pkg/geo"
)

// CenterKey is the reserved key of the location marker
const CenterKey = "center"

// Marker is one pin on the map
type Marker struct {
	ID    string
	Point geo.Point
	Title string
	Event *entities.EventRecord
}

// View is the visible map area
type View struct {
	Center geo.Point
	Zoom   int
}

// PopupRenderer produces popup markup for an event
type PopupRenderer interface {
	RenderMapPopup(ctx context.Context, event entities.EventRecord) (string, error)
}

// Config tunes the layer
type Config struct {
	Padding       int
	MaxZoom       int
	FallbackZoom  int
	FocusZoom     int
	PulseDuration time.Duration
	Width         int
	Height        int
}

// DefaultConfig fits with 50px padding up to zoom 14 in an 800x600 view,
// falls back to zoom 10 and pulses for 2s
func DefaultConfig() Config {
	return Config{
		Padding:       50,
		MaxZoom:       14,
		FallbackZoom:  10,
		FocusZoom:     14,
		PulseDuration: 2 * time.Second,
		Width:         800,
		Height:        600,
	}
}

// Layer is the marker layer. All methods must be called on the
// scheduler's loop.
type Layer struct {
	ctx    context.Context
	sched  loop.Scheduler
	bus    *bus.Bus
	popups PopupRenderer
	cfg    Config

	location *entities.Location
	center   *Marker
	markers  map[string]Marker
	order    []string
	view     View

	popupID  string
	popup    string
	pulses   map[string]loop.Timer
	onChange func()
}

// New creates the layer and subscribes it. popups may be nil, in which
// case popups are built locally.
func New(ctx context.Context, sched loop.Scheduler, b *bus.Bus, popups PopupRenderer, cfg Config) *Layer {
	l := &Layer{
		ctx:     ctx,
		sched:   sched,
		bus:     b,
		popups:  popups,
		cfg:     cfg,
		markers: make(map[string]Marker),
		pulses:  make(map[string]loop.Timer),
	}
	bus.Subscribe(b, bus.LocationSelected, l.onLocation)
	bus.Subscribe(b, bus.EventsDataLoaded, l.onEvents)
	bus.Subscribe(b, bus.HighlightEventMarker, l.onHighlight)
	return l
}

// OnChange registers fn to run after any visible change
func (l *Layer) OnChange(fn func()) {
	l.onChange = fn
}

func (l *Layer) changed() {
	if l.onChange != nil {
		l.onChange()
	}
}

// Center returns the location marker
func (l *Layer) Center() (Marker, bool) {
	if l.center == nil {
		return Marker{}, false
	}
	return *l.center, true
}

// Markers returns the event markers in result order
func (l *Layer) Markers() []Marker {
	out := make([]Marker, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.markers[id])
	}
	return out
}

// View returns the visible area
func (l *Layer) View() View { return l.view }

// Popup returns the open popup's event id and markup
func (l *Layer) Popup() (id, markup string) { return l.popupID, l.popup }

// Pulsing reports whether the marker is currently pulsing
func (l *Layer) Pulsing(id string) bool {
	_, ok := l.pulses[id]
	return ok
}

func (l *Layer) onLocation(d bus.LocationDetail) {
	loc := d.Location()
	l.location = &loc
	l.center = &Marker{ID: CenterKey, Point: loc.Point(), Title: loc.DisplayName}
	l.view = View{Center: loc.Point(), Zoom: l.cfg.FallbackZoom}
	l.changed()
}

// onEvents rebuilds every event marker from scratch
func (l *Layer) onEvents(d bus.EventsDetail) {
	l.markers = make(map[string]Marker, len(d.Events))
	l.order = l.order[:0]
	l.popupID, l.popup = "", ""
	for id, t := range l.pulses {
		t.Stop()
		delete(l.pulses, id)
	}

	for i := range d.Events {
		event := d.Events[i]
		if _, dup := l.markers[event.ID]; dup {
			continue
		}
		p, ok := event.Venue.Point()
		if !ok {
			log.Debug().Str("event_id", event.ID).Msg("skipping event without venue coordinates")
			continue
		}
		l.markers[event.ID] = Marker{ID: event.ID, Point: p, Title: event.Name, Event: &event}
		l.order = append(l.order, event.ID)
	}

	l.fit()
	l.changed()
}

func (l *Layer) fit() {
	pts := make([]geo.Point, 0, len(l.order)+1)
	if l.center != nil {
		pts = append(pts, l.center.Point)
	}
	for _, id := range l.order {
		pts = append(pts, l.markers[id].Point)
	}

	if len(pts) >= 2 {
		if b, ok := geo.NewBounds(pts...); ok {
			if zoom, ok := fitZoom(b, l.cfg.Width, l.cfg.Height, l.cfg.Padding, l.cfg.MaxZoom); ok {
				l.view = View{Center: b.Center(), Zoom: zoom}
				return
			}
		}
	}

	if l.location != nil {
		l.view = View{Center: l.location.Point(), Zoom: l.cfg.FallbackZoom}
	}
}

// ClickMarker handles a click on an event marker
func (l *Layer) ClickMarker(id string) bool {
	if _, ok := l.markers[id]; !ok {
		return false
	}
	bus.Publish(l.bus, bus.HighlightEventCard, bus.HighlightDetail{EventID: id})
	l.pulse(id)
	return true
}

func (l *Layer) onHighlight(d bus.HighlightDetail) {
	m, ok := l.markers[d.EventID]
	if !ok {
		log.Debug().Str("event_id", d.EventID).Msg("no marker to highlight")
		return
	}

	l.view = View{Center: m.Point, Zoom: l.cfg.FocusZoom}
	l.popupID = m.ID
	l.popup = fallbackPopup(m.Event)
	l.pulse(m.ID)

	if l.popups != nil {
		event := *m.Event
		l.sched.Go(func() func() {
			markup, err := l.popups.RenderMapPopup(l.ctx, event)
			return func() {
				if err != nil {
					log.Warn().Err(err).Str("event_id", event.ID).Msg("failed to render popup")
					return
				}
				if l.popupID == event.ID {
					l.popup = markup
					l.changed()
				}
			}
		})
	}
}

// pulse highlights a marker for PulseDuration. Pulsing again restarts it.
func (l *Layer) pulse(id string) {
	if t, ok := l.pulses[id]; ok {
		t.Stop()
	}
	var timer loop.Timer
	timer = l.sched.AfterFunc(l.cfg.PulseDuration, func() {
		if l.pulses[id] == timer {
			delete(l.pulses, id)
			l.changed()
		}
	})
	l.pulses[id] = timer
	l.changed()
}

func fallbackPopup(e *entities.EventRecord) string {
	return fmt.Sprintf(`<div class="map-popup"><h3 class="map-popup__title">%s</h3><p class="map-popup__venue">%s</p></div>`,
		html.EscapeString(e.Name), html.EscapeString(e.VenueLabel()))
}
