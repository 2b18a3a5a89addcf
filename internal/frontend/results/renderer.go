// Package results keeps the event list in step with the current location.
// It owns the only current result set; the map layer and distance
// annotator learn about it through EventsDataLoaded.
package results

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/eventfinder/internal/domain/entities"
	"github.com/zatekoja/eventfinder/internal/domain/providers"
	"github.com/zatekoja/eventfinder/internal/frontend/bus"
	"github.com/zatekoja/eventfinder/internal/frontend/loop"
	apperrors "github.com/zatekoja/eventfinder/pkg/errors"
)

// MessageEmpty is shown when a query returns no events
const MessageEmpty = "No events found for today in this area."

// Status is the state of the list area
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusEmpty
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusEmpty:
		return "empty"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Viewport is the scrollable area the cards live in
type Viewport interface {
	// Occluded reports whether the card is only partly visible
	Occluded(id string) bool
	ScrollIntoView(id string)
	ScrollToCenter(id string)
}

type noViewport struct{}

func (noViewport) Occluded(string) bool  { return false }
func (noViewport) ScrollIntoView(string) {}
func (noViewport) ScrollToCenter(string) {}

// Config tunes the renderer
type Config struct {
	Debounce    time.Duration
	ScrollDelay time.Duration
}

// DefaultConfig returns a 300ms query debounce and a 100ms scroll delay
func DefaultConfig() Config {
	return Config{Debounce: 300 * time.Millisecond, ScrollDelay: 100 * time.Millisecond}
}

// Renderer is the results list. All methods must be called on the
// scheduler's loop.
type Renderer struct {
	ctx      context.Context
	sched    loop.Scheduler
	bus      *bus.Bus
	events   providers.EventProvider
	viewport Viewport
	cfg      Config

	status      Status
	message     string
	records     []entities.EventRecord
	expanded    string
	highlighted string
	query       bus.LocationDetail
	timer       loop.Timer
	latest      uint64
	onChange    func()
}

// New creates the renderer and subscribes it to location changes. A nil
// viewport disables scrolling.
func New(ctx context.Context, sched loop.Scheduler, b *bus.Bus, events providers.EventProvider, viewport Viewport, cfg Config) *Renderer {
	if viewport == nil {
		viewport = noViewport{}
	}
	r := &Renderer{
		ctx:      ctx,
		sched:    sched,
		bus:      b,
		events:   events,
		viewport: viewport,
		cfg:      cfg,
	}
	bus.Subscribe(b, bus.LocationSelected, r.schedule)
	bus.Subscribe(b, bus.RefreshEvents, r.schedule)
	bus.Subscribe(b, bus.HighlightEventCard, r.highlight)
	return r
}

// OnChange registers fn to run after any visible change
func (r *Renderer) OnChange(fn func()) {
	r.onChange = fn
}

func (r *Renderer) changed() {
	if r.onChange != nil {
		r.onChange()
	}
}

// Status returns the list state
func (r *Renderer) Status() Status { return r.status }

// Message returns the empty or error text, if any
func (r *Renderer) Message() string { return r.message }

// Events returns the current result set in provider order
func (r *Renderer) Events() []entities.EventRecord {
	return append([]entities.EventRecord(nil), r.records...)
}

// Count is the number of current results
func (r *Renderer) Count() int { return len(r.records) }

// Expanded returns the id of the open card, if any
func (r *Renderer) Expanded() string { return r.expanded }

// Highlighted returns the id of the highlighted card, if any
func (r *Renderer) Highlighted() string { return r.highlighted }

// schedule collapses bursts of location changes into one query for the
// last of them
func (r *Renderer) schedule(detail bus.LocationDetail) {
	r.query = detail
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = r.sched.AfterFunc(r.cfg.Debounce, func() {
		r.timer = nil
		r.issue(r.query)
	})
}

func (r *Renderer) issue(detail bus.LocationDetail) {
	r.latest++
	token := r.latest

	r.status = StatusLoading
	r.message = ""
	r.records = nil
	r.expanded = ""
	r.highlighted = ""
	r.changed()

	q := entities.EventQuery{
		Latitude:  detail.Lat,
		Longitude: detail.Lon,
		Radius:    detail.Radius,
		Unit:      entities.UnitKilometers,
	}
	log.Debug().Uint64("token", token).Float64("lat", q.Latitude).Float64("lon", q.Longitude).
		Int("radius_km", q.Radius).Msg("querying events")

	r.sched.Go(func() func() {
		records, err := r.events.SearchEvents(r.ctx, q)
		return func() {
			if token != r.latest {
				log.Debug().Uint64("token", token).Uint64("latest", r.latest).Msg("discarding stale events response")
				return
			}
			r.apply(records, err)
		}
	})
}

func (r *Renderer) apply(records []entities.EventRecord, err error) {
	if err != nil {
		log.Error().Err(err).Msg("failed to load events")
		r.status = StatusError
		r.message = apperrors.UserMessage(err, apperrors.MessageEventsUnavailable)
		r.changed()
		return
	}

	if records == nil {
		records = []entities.EventRecord{}
	}
	r.records = records
	if len(records) == 0 {
		r.status = StatusEmpty
		r.message = MessageEmpty
	} else {
		r.status = StatusLoaded
	}
	r.changed()

	bus.Publish(r.bus, bus.EventsDataLoaded, bus.EventsDetail{Events: r.Events()})
}

// ClickCard handles a click on a card. Clicks on links or buttons inside
// the card are left to those elements. Opening a card closes any other.
func (r *Renderer) ClickCard(id string, onInteractive bool) bool {
	if onInteractive || !r.has(id) {
		return false
	}

	if r.expanded == id {
		r.expanded = ""
	} else {
		r.expanded = id
		if r.viewport.Occluded(id) {
			r.sched.AfterFunc(r.cfg.ScrollDelay, func() {
				// the card may have been closed or replaced meanwhile
				if r.expanded == id {
					r.viewport.ScrollIntoView(id)
				}
			})
		}
	}
	r.changed()

	bus.Publish(r.bus, bus.HighlightEventMarker, bus.HighlightDetail{EventID: id})
	return true
}

func (r *Renderer) highlight(d bus.HighlightDetail) {
	if !r.has(d.EventID) {
		log.Debug().Str("event_id", d.EventID).Msg("no card to highlight")
		return
	}
	r.highlighted = d.EventID
	r.viewport.ScrollToCenter(d.EventID)
	r.changed()
}

func (r *Renderer) has(id string) bool {
	for i := range r.records {
		if r.records[i].ID == id {
			return true
		}
	}
	return false
}
