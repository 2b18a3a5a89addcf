// Package distance labels each result with how far its venue is from the
// device. Every render cycle asks for the device position once.
package distance

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/eventfinder/internal/domain/entities"
	"github.com/zatekoja/eventfinder/internal/frontend/bus"
	"github.com/zatekoja/eventfinder/internal/frontend/device"
	"github.com/zatekoja/eventfinder/internal/frontend/loop"
	"github.com/zatekoja/eventfinder/pkg/geo"
)

// Labels shown instead of a distance
const (
	LabelPending     = "Calculating..."
	LabelUnavailable = "Location unavailable"
	LabelUnknown     = "Location unknown"
)

// Annotator keeps one distance label per current event. All methods must
// be called on the scheduler's loop.
type Annotator struct {
	ctx        context.Context
	sched      loop.Scheduler
	geolocator device.Geolocator
	opts       device.Options

	cycle    uint64
	labels   map[string]string
	onChange func()
}

// New creates the annotator and subscribes it to EventsDataLoaded. A nil
// geolocator behaves as an unsupported device.
func New(ctx context.Context, sched loop.Scheduler, b *bus.Bus, geolocator device.Geolocator, opts device.Options) *Annotator {
	if geolocator == nil {
		geolocator = device.Unsupported{}
	}
	a := &Annotator{
		ctx:        ctx,
		sched:      sched,
		geolocator: geolocator,
		opts:       opts,
		labels:     map[string]string{},
	}
	bus.Subscribe(b, bus.EventsDataLoaded, a.annotate)
	return a
}

// OnChange registers fn to run after labels change
func (a *Annotator) OnChange(fn func()) {
	a.onChange = fn
}

// Label returns the distance label for an event
func (a *Annotator) Label(id string) string {
	return a.labels[id]
}

func (a *Annotator) annotate(d bus.EventsDetail) {
	a.cycle++
	cycle := a.cycle
	events := d.Events

	// nothing from the previous cycle survives, not even briefly
	a.labels = make(map[string]string, len(events))
	for _, e := range events {
		a.labels[e.ID] = LabelPending
	}
	a.notify()
	if len(events) == 0 {
		return
	}

	a.sched.Go(func() func() {
		pos, err := a.geolocator.CurrentPosition(a.ctx, a.opts)
		return func() {
			if cycle != a.cycle {
				log.Debug().Uint64("cycle", cycle).Msg("ignoring position for a superseded render")
				return
			}
			if err != nil {
				log.Info().Err(err).Msg("device position unavailable for distances")
				for _, e := range events {
					a.labels[e.ID] = LabelUnavailable
				}
			} else {
				for i := range events {
					a.labels[events[i].ID] = Format(pos.Point, &events[i])
				}
			}
			a.notify()
		}
	})
}

func (a *Annotator) notify() {
	if a.onChange != nil {
		a.onChange()
	}
}

// Format labels the distance from user to the event's venue
func Format(user geo.Point, e *entities.EventRecord) string {
	venue, ok := e.Venue.Point()
	if !ok {
		return LabelUnknown
	}
	return geo.FormatDistance(geo.Distance(user, venue))
}
