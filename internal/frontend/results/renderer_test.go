package results_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/eventfinder/internal/domain/entities"
	"github.com/zatekoja/eventfinder/internal/frontend/bus"
	"github.com/zatekoja/eventfinder/internal/frontend/loop"
	"github.com/zatekoja/eventfinder/internal/frontend/results"
	apperrors "github.com/zatekoja/eventfinder/pkg/errors"
)

type MockEvents struct {
	mock.Mock
}

func (m *MockEvents) SearchEvents(ctx context.Context, q entities.EventQuery) ([]entities.EventRecord, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.EventRecord), args.Error(1)
}

func (m *MockEvents) GetEvent(ctx context.Context, id string) (*entities.EventRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.EventRecord), args.Error(1)
}

type fakeViewport struct {
	occluded map[string]bool
	scrolled []string
	centered []string
}

func (v *fakeViewport) Occluded(id string) bool  { return v.occluded[id] }
func (v *fakeViewport) ScrollIntoView(id string) { v.scrolled = append(v.scrolled, id) }
func (v *fakeViewport) ScrollToCenter(id string) { v.centered = append(v.centered, id) }

type harness struct {
	sched      *loop.Manual
	bus        *bus.Bus
	events     *MockEvents
	viewport   *fakeViewport
	r          *results.Renderer
	loaded     []bus.EventsDetail
	highlights []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		sched:    loop.NewManual(),
		bus:      bus.New(),
		events:   new(MockEvents),
		viewport: &fakeViewport{occluded: map[string]bool{}},
	}
	h.r = results.New(context.Background(), h.sched, h.bus, h.events, h.viewport, results.DefaultConfig())
	bus.Subscribe(h.bus, bus.EventsDataLoaded, func(d bus.EventsDetail) { h.loaded = append(h.loaded, d) })
	bus.Subscribe(h.bus, bus.HighlightEventMarker, func(d bus.HighlightDetail) { h.highlights = append(h.highlights, d.EventID) })
	return h
}

func query(lat, lon float64, radius int) entities.EventQuery {
	return entities.EventQuery{Latitude: lat, Longitude: lon, Radius: radius, Unit: entities.UnitKilometers}
}

var twoEvents = []entities.EventRecord{
	{ID: "e1", Name: "Jazz Night"},
	{ID: "e2", Name: "Rock Show"},
}

func TestRenderer_CollapsesSelectionsInsideDebounce(t *testing.T) {
	h := newHarness(t)
	h.events.On("SearchEvents", mock.Anything, query(51.92, 4.48, 40)).Return(twoEvents, nil).Once()

	bus.Publish(h.bus, bus.LocationSelected, bus.LocationDetail{Lat: 52.37, Lon: 4.9, Name: "Amsterdam", Radius: 40})
	h.sched.Advance(100 * time.Millisecond)
	bus.Publish(h.bus, bus.LocationSelected, bus.LocationDetail{Lat: 51.92, Lon: 4.48, Name: "Rotterdam", Radius: 40})
	h.sched.Advance(time.Second)

	h.events.AssertExpectations(t)
	h.events.AssertNumberOfCalls(t, "SearchEvents", 1)
	assert.Equal(t, results.StatusLoaded, h.r.Status())
	assert.Equal(t, 2, h.r.Count())
	require.Len(t, h.loaded, 1)
	assert.Equal(t, twoEvents, h.loaded[0].Events)
}

func TestRenderer_ClearsImmediatelyWhileLoading(t *testing.T) {
	h := newHarness(t)
	h.events.On("SearchEvents", mock.Anything, mock.Anything).Return(twoEvents, nil)

	bus.Publish(h.bus, bus.LocationSelected, bus.LocationDetail{Lat: 1, Lon: 1, Radius: 10})
	h.sched.Advance(time.Second)
	require.Equal(t, 2, h.r.Count())

	h.sched.Hold(true)
	bus.Publish(h.bus, bus.RefreshEvents, bus.LocationDetail{Lat: 1, Lon: 1, Radius: 20})
	h.sched.Advance(time.Second)

	assert.Equal(t, results.StatusLoading, h.r.Status())
	assert.Equal(t, 0, h.r.Count())

	h.sched.Release(0)
	assert.Equal(t, results.StatusLoaded, h.r.Status())
	assert.Len(t, h.loaded, 2)
}

func TestRenderer_DiscardsStaleResponse(t *testing.T) {
	h := newHarness(t)
	older := []entities.EventRecord{{ID: "old"}}
	newer := []entities.EventRecord{{ID: "new"}}
	h.events.On("SearchEvents", mock.Anything, query(1, 1, 10)).Return(older, nil)
	h.events.On("SearchEvents", mock.Anything, query(2, 2, 10)).Return(newer, nil)

	h.sched.Hold(true)
	bus.Publish(h.bus, bus.LocationSelected, bus.LocationDetail{Lat: 1, Lon: 1, Radius: 10})
	h.sched.Advance(time.Second)
	bus.Publish(h.bus, bus.LocationSelected, bus.LocationDetail{Lat: 2, Lon: 2, Radius: 10})
	h.sched.Advance(time.Second)
	require.Equal(t, 2, h.sched.Pending())

	h.sched.Release(1)
	h.sched.Release(0)

	got := h.r.Events()
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ID)
	require.Len(t, h.loaded, 1)
	assert.Equal(t, "new", h.loaded[0].Events[0].ID)
}

func TestRenderer_EmptyStillPublishes(t *testing.T) {
	h := newHarness(t)
	h.events.On("SearchEvents", mock.Anything, mock.Anything).Return(nil, nil)

	bus.Publish(h.bus, bus.LocationSelected, bus.LocationDetail{Lat: 1, Lon: 1, Radius: 10})
	h.sched.Advance(time.Second)

	assert.Equal(t, results.StatusEmpty, h.r.Status())
	assert.Equal(t, "No events found for today in this area.", h.r.Message())
	assert.Equal(t, 0, h.r.Count())
	require.Len(t, h.loaded, 1)
	assert.NotNil(t, h.loaded[0].Events)
	assert.Empty(t, h.loaded[0].Events)
}

func TestRenderer_ErrorDoesNotPublish(t *testing.T) {
	h := newHarness(t)
	h.events.On("SearchEvents", mock.Anything, mock.Anything).
		Return(nil, apperrors.NewExternalError("server returned status 502", nil))

	bus.Publish(h.bus, bus.LocationSelected, bus.LocationDetail{Lat: 1, Lon: 1, Radius: 10})
	h.sched.Advance(time.Second)

	assert.Equal(t, results.StatusError, h.r.Status())
	assert.Equal(t, "Error loading events. Please try again later.", h.r.Message())
	assert.Empty(t, h.loaded)
}

func loaded(t *testing.T, h *harness) {
	t.Helper()
	h.events.On("SearchEvents", mock.Anything, mock.Anything).Return(twoEvents, nil)
	bus.Publish(h.bus, bus.LocationSelected, bus.LocationDetail{Lat: 1, Lon: 1, Radius: 10})
	h.sched.Advance(time.Second)
	require.Equal(t, 2, h.r.Count())
}

func TestRenderer_SingleOpenCard(t *testing.T) {
	h := newHarness(t)
	loaded(t, h)

	assert.True(t, h.r.ClickCard("e1", false))
	assert.Equal(t, "e1", h.r.Expanded())

	assert.True(t, h.r.ClickCard("e2", false))
	assert.Equal(t, "e2", h.r.Expanded())

	assert.True(t, h.r.ClickCard("e2", false))
	assert.Empty(t, h.r.Expanded())

	assert.False(t, h.r.ClickCard("e1", true))
	assert.Empty(t, h.r.Expanded())
	assert.False(t, h.r.ClickCard("missing", false))

	assert.Equal(t, []string{"e1", "e2", "e2"}, h.highlights)
}

func TestRenderer_ScrollsOccludedCardAfterDelay(t *testing.T) {
	h := newHarness(t)
	loaded(t, h)
	h.viewport.occluded["e2"] = true

	h.r.ClickCard("e1", false)
	h.r.ClickCard("e2", false)
	assert.Empty(t, h.viewport.scrolled)

	h.sched.Advance(100 * time.Millisecond)
	assert.Equal(t, []string{"e2"}, h.viewport.scrolled)
}

func TestRenderer_HighlightFromMarker(t *testing.T) {
	h := newHarness(t)
	loaded(t, h)

	bus.Publish(h.bus, bus.HighlightEventCard, bus.HighlightDetail{EventID: "e2"})
	assert.Equal(t, "e2", h.r.Highlighted())
	assert.Equal(t, []string{"e2"}, h.viewport.centered)

	bus.Publish(h.bus, bus.HighlightEventCard, bus.HighlightDetail{EventID: "e1"})
	assert.Equal(t, "e1", h.r.Highlighted())

	bus.Publish(h.bus, bus.HighlightEventCard, bus.HighlightDetail{EventID: "nope"})
	assert.Equal(t, "e1", h.r.Highlighted())
}
