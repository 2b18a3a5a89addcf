package distance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/eventfinder/internal/domain/entities"
	"github.com/zatekoja/eventfinder/internal/frontend/bus"
	"github.com/zatekoja/eventfinder/internal/frontend/device"
	"github.com/zatekoja/eventfinder/internal/frontend/loop"
	"github.com/zatekoja/eventfinder/pkg/geo"
)

func ptr(f float64) *float64 { return &f }

func venueAt(id string, lat, lon float64) entities.EventRecord {
	return entities.EventRecord{ID: id, Venue: entities.Venue{Latitude: ptr(lat), Longitude: ptr(lon)}}
}

func TestAnnotator_Labels(t *testing.T) {
	sched := loop.NewManual()
	b := bus.New()
	a := New(context.Background(), sched, b, device.Static{Point: geo.Point{Lat: 0, Lon: 0}}, device.Options{})

	events := []entities.EventRecord{
		venueAt("near", 0, 0.004),
		venueAt("mid", 0, 0.05),
		venueAt("far", 0, 1),
		{ID: "unknown"},
	}
	bus.Publish(b, bus.EventsDataLoaded, bus.EventsDetail{Events: events})
	sched.RunUntilIdle()

	assert.Equal(t, "445 m away", a.Label("near"))
	assert.Equal(t, "5.6 km away", a.Label("mid"))
	assert.Equal(t, "111 km away", a.Label("far"))
	assert.Equal(t, "Location unknown", a.Label("unknown"))
}

func TestAnnotator_Unavailable(t *testing.T) {
	sched := loop.NewManual()
	b := bus.New()
	a := New(context.Background(), sched, b, nil, device.Options{})

	bus.Publish(b, bus.EventsDataLoaded, bus.EventsDetail{Events: []entities.EventRecord{venueAt("e1", 1, 1), {ID: "e2"}}})
	sched.RunUntilIdle()

	assert.Equal(t, LabelUnavailable, a.Label("e1"))
	assert.Equal(t, LabelUnavailable, a.Label("e2"))
}

func TestAnnotator_IgnoresStaleCycle(t *testing.T) {
	sched := loop.NewManual()
	b := bus.New()
	a := New(context.Background(), sched, b, device.Static{Point: geo.Point{}}, device.Options{})
	changes := 0
	a.OnChange(func() { changes++ })

	sched.Hold(true)
	bus.Publish(b, bus.EventsDataLoaded, bus.EventsDetail{Events: []entities.EventRecord{venueAt("old", 0, 1)}})
	bus.Publish(b, bus.EventsDataLoaded, bus.EventsDetail{Events: []entities.EventRecord{venueAt("new", 0, 0.5)}})
	require.Equal(t, 2, sched.Pending())

	assert.Empty(t, a.Label("old"), "labels from a replaced result set are dropped")
	assert.Equal(t, LabelPending, a.Label("new"))

	sched.Release(1)
	assert.Equal(t, "55.6 km away", a.Label("new"))
	before := changes
	sched.Release(0)
	assert.Equal(t, before, changes)
	assert.Empty(t, a.Label("old"))
}

func TestAnnotator_EmptyResultSkipsLookup(t *testing.T) {
	sched := loop.NewManual()
	b := bus.New()
	New(context.Background(), sched, b, device.Static{}, device.Options{})

	sched.Hold(true)
	bus.Publish(b, bus.EventsDataLoaded, bus.EventsDetail{Events: []entities.EventRecord{}})
	assert.Equal(t, 0, sched.Pending())
}
