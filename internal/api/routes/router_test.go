package routes_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
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
	"github.com/zatekoja/eventfinder/internal/domain/entities"
	"github.com/zatekoja/eventfinder/pkg/config"
	"github.com/zatekoja/eventfinder/pkg/geo"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	searchCfg := config.SearchConfig{
		MinRadiusKm: 1, MaxRadiusKm: 160, DefaultRadiusKm: 40,
		SuggestionLimit: 10, MinQueryLength: 2,
		DefaultLat: 52.3676, DefaultLon: 4.9041, DefaultName: "Amsterdam",
	}
	bounds := geo.DefaultRadiusBounds()
	bus := events.NewMemoryEventBus()
	t.Cleanup(func() { bus.Close() })

	renderer, err := views.New()
	require.NoError(t, err)

	locationService := services.NewLocationService(geocoding.NewMockGeocodeProvider(), nil, searchCfg)
	eventService := services.NewEventService(ticketing.NewMockEventProvider(), bus, nil, bounds)

	router := routes.NewRouter(
		routes.Handlers{
			Location:  handlers.NewLocationHandler(locationService),
			Event:     handlers.NewEventHandler(eventService, renderer),
			Page:      handlers.NewPageHandler(eventService, renderer, searchCfg),
			SSE:       handlers.NewSSEHandler(bus, bounds, nil),
			Analytics: handlers.NewAnalyticsHandler(nil),
		},
		middleware.NewCacheMiddleware(cache.NewMemoryAdapter(64), 60),
		middleware.ParseAllowedOrigins(""),
		nil,
	)

	server := httptest.NewServer(router.SetupRoutes())
	t.Cleanup(server.Close)
	return server
}

func TestRouter_SearchThenDetail(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/locations?q=amster")
	require.NoError(t, err)
	var places []entities.Place
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&places))
	resp.Body.Close()
	require.NotEmpty(t, places)

	body := `{"latitude":52.3676,"longitude":4.9041,"radius":40,"unit":"km"}`
	resp, err = http.Post(server.URL+"/api/events", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result struct {
		Events []entities.EventRecord `json:"events"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	resp.Body.Close()
	require.NotEmpty(t, result.Events)

	first := result.Events[0]
	resp, err = http.Get(server.URL + first.DetailPath())
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, first.Name, doc.Find("h1").Text())

	again, err := http.Get(server.URL + first.DetailPath())
	require.NoError(t, err)
	again.Body.Close()
	assert.Equal(t, "HIT", again.Header.Get("X-Cache"))
}

func TestRouter_Routing(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/nope", http.StatusNotFound},
		{http.MethodGet, "/api/events", http.StatusMethodNotAllowed},
		{http.MethodGet, "/event/unknown", http.StatusNotFound},
		{http.MethodGet, "/api/analytics/zero-result-queries", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, server.URL+tt.path, nil)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestRouter_SetsSessionCookie(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()

	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == "eventfinder_session" {
			found = true
		}
	}
	assert.True(t, found)
}
