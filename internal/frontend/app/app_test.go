package app_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/eventfinder/internal/adapters/cache"
	"github.com/zatekoja/eventfinder/internal/adapters/events"
	"github.com/zatekoja/eventfinder/internal/adapters/providers/geocoding"
	"github.com/zatekoja/eventfinder/internal/adapters/providers/ticketing"
	"github.com/zatekoja/eventfinder/internal/api/handlers"
	"github.com/zatekoja/eventfinder/internal/api/middleware"
	"github.com/zatekoja/eventfinder/internal/api/routes"
	"github.com/zatekoja/eventfinder/internal/api/views"
	"github.com/zatekoja/eventfinder/internal/application/services"
	"github.com/zatekoja/eventfinder/internal/frontend/apiclient"
	"github.com/zatekoja/eventfinder/internal/frontend/app"
	"github.com/zatekoja/eventfinder/internal/frontend/device"
	"github.com/zatekoja/eventfinder/internal/frontend/distance"
	"github.com/zatekoja/eventfinder/internal/frontend/loop"
	"github.com/zatekoja/eventfinder/internal/frontend/markers"
	"github.com/zatekoja/eventfinder/internal/frontend/results"
	"github.com/zatekoja/eventfinder/internal/frontend/state"
	"github.com/zatekoja/eventfinder/pkg/config"
	"github.com/zatekoja/eventfinder/pkg/geo"
)

var searchCfg = config.SearchConfig{
	MinRadiusKm: 1, MaxRadiusKm: 160, DefaultRadiusKm: 40,
	SuggestionLimit: 10, MinQueryLength: 2,
	DefaultLat: 52.3676, DefaultLon: 4.9041, DefaultName: "Amsterdam",
}

var clientCfg = config.ClientConfig{
	SuggestDebounce:    500 * time.Millisecond,
	QueryDebounce:      300 * time.Millisecond,
	GeolocationTimeout: time.Second,
	GeolocationMaxAge:  time.Minute,
	PulseDuration:      2 * time.Second,
	ScrollDelay:        100 * time.Millisecond,
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	bounds := app.Bounds(searchCfg)
	bus := events.NewMemoryEventBus()
	t.Cleanup(func() { bus.Close() })
	renderer, err := views.New()
	require.NoError(t, err)

	eventService := services.NewEventService(ticketing.NewMockEventProvider(), bus, nil, bounds)
	router := routes.NewRouter(routes.Handlers{
		Location: handlers.NewLocationHandler(services.NewLocationService(geocoding.NewMockGeocodeProvider(), nil, searchCfg)),
		Event:    handlers.NewEventHandler(eventService, renderer),
		Page:     handlers.NewPageHandler(eventService, renderer, searchCfg),
	}, middleware.NewCacheMiddleware(cache.NewMemoryAdapter(16), 60), nil, nil)

	server := httptest.NewServer(router.SetupRoutes())
	t.Cleanup(server.Close)
	return server
}

func TestApp_SearchSelectAndSync(t *testing.T) {
	server := newServer(t)
	sched := loop.NewManual()
	api := apiclient.NewClientWithOptions(server.URL, "test-session", app.Bounds(searchCfg), server.Client())
	store := state.NewMemoryStore()

	a := app.New(context.Background(), sched, api, app.Options{
		Client:     clientCfg,
		Search:     searchCfg,
		Geolocator: device.Static{Point: geo.Point{Lat: 52.3676, Lon: 4.9041}},
		Store:      store,
	})

	a.Selector.Input("amster")
	sched.Advance(500 * time.Millisecond)
	suggestions := a.Selector.Suggestions()
	require.NotEmpty(t, suggestions)
	assert.Equal(t, 52.3676, suggestions[0].Latitude)

	require.NoError(t, a.Selector.Select(0))
	sched.Advance(300 * time.Millisecond)

	require.Equal(t, results.StatusLoaded, a.Results.Status())
	evs := a.Results.Events()
	require.Len(t, evs, 3)

	c, ok := a.Markers.Center()
	require.True(t, ok)
	assert.Equal(t, suggestions[0].DisplayName, c.Title)
	assert.Len(t, a.Markers.Markers(), 3)
	assert.Greater(t, a.Markers.View().Zoom, 10)

	for _, e := range evs {
		label := a.Distance.Label(e.ID)
		assert.NotEqual(t, distance.LabelPending, label)
		assert.Contains(t, label, "km away")
	}

	// a card click opens the matching marker's popup, rendered by the server
	require.True(t, a.Results.ClickCard(evs[1].ID, false))
	sched.RunUntilIdle()
	id, markup := a.Markers.Popup()
	assert.Equal(t, evs[1].ID, id)
	assert.Contains(t, markup, "map-popup__link")

	// a marker click highlights the matching card
	require.True(t, a.Markers.ClickMarker(evs[2].ID))
	assert.Equal(t, evs[2].ID, a.Results.Highlighted())
	assert.True(t, a.Markers.Pulsing(evs[2].ID))
	sched.Advance(markers.DefaultConfig().PulseDuration)
	assert.False(t, a.Markers.Pulsing(evs[2].ID))
}

func TestApp_StartRestoresSavedLocation(t *testing.T) {
	server := newServer(t)
	sched := loop.NewManual()
	api := apiclient.NewClientWithOptions(server.URL, "", app.Bounds(searchCfg), server.Client())
	store := state.NewMemoryStore()
	require.NoError(t, store.Save(state.SavedLocationKey, map[string]any{"lat": 51.9244, "lon": 4.4777, "name": "Rotterdam"}))

	a := app.New(context.Background(), sched, api, app.Options{Client: clientCfg, Search: searchCfg, Store: store})
	a.Start()
	sched.Advance(time.Second)

	assert.Equal(t, "Rotterdam", a.Selector.Text())
	assert.Equal(t, 3, a.Results.Count())
	for _, e := range a.Results.Events() {
		assert.Equal(t, distance.LabelUnavailable, a.Distance.Label(e.ID))
	}
}

func TestApp_DeviceLocationNamesPosition(t *testing.T) {
	server := newServer(t)
	sched := loop.NewManual()
	api := apiclient.NewClientWithOptions(server.URL, "", app.Bounds(searchCfg), server.Client())

	a := app.New(context.Background(), sched, api, app.Options{
		Client:     clientCfg,
		Search:     searchCfg,
		Geolocator: device.Static{Point: geo.Point{Lat: 51.92, Lon: 4.47}},
		Store:      state.NewMemoryStore(),
	})
	a.Selector.UseDeviceLocation()
	sched.Advance(time.Second)

	loc, ok := a.State.Location()
	require.True(t, ok)
	assert.Equal(t, "Rotterdam, Zuid-Holland, Nederland", loc.DisplayName)
	assert.Equal(t, 51.92, loc.Latitude)
	assert.Equal(t, 3, a.Results.Count())
}
