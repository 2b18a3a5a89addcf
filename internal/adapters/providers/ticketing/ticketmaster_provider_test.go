package ticketing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/eventfinder/internal/adapters/cache"
	"github.com/zatekoja/eventfinder/internal/domain/entities"
	apperrors "github.com/zatekoja/eventfinder/pkg/errors"
)

func fixtureServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	body, err := os.ReadFile("testdata/events.json")
	require.NoError(t, err)

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.URL.Query().Get("apikey") != "test-key" {
			http.Error(w, `{"fault":{"faultstring":"Invalid ApiKey"}}`, http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/discovery/v2/events.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(body)
		case "/discovery/v2/events/Z698xZC2Z17aDef.json":
			_, _ = w.Write([]byte(`{"id":"Z698xZC2Z17aDef","name":"Secret Warehouse Party","dates":{"status":{"code":"offsale"}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestTicketmasterProvider_SearchEvents(t *testing.T) {
	var hits int32
	var gotQuery map[string]string
	body, err := os.ReadFile("testdata/events.json")
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		q := r.URL.Query()
		gotQuery = map[string]string{
			"apikey":  q.Get("apikey"),
			"latlong": q.Get("latlong"),
			"radius":  q.Get("radius"),
			"unit":    q.Get("unit"),
		}
		_, _ = w.Write(body)
	}))
	defer server.Close()

	provider := NewTicketmasterProviderWithOptions("test-key", cache.NewMemoryAdapter(16), server.URL, server.Client())

	events, err := provider.SearchEvents(context.Background(), entities.EventQuery{
		Latitude: 52.37, Longitude: 4.90, Radius: 25, Unit: entities.UnitMiles,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"apikey": "test-key", "latlong": "52.3700,4.9000", "radius": "25", "unit": "miles",
	}, gotQuery)

	require.Len(t, events, 2)

	jazz := events[0]
	assert.Equal(t, "Z698xZC2Z17aAbc", jazz.ID)
	assert.Equal(t, entities.TicketStatusOnSale, jazz.TicketStatus)
	assert.Equal(t, "Jazz", jazz.Genre)
	assert.Empty(t, jazz.Subgenre)
	assert.Equal(t, []string{"Nina Simone Tribute", "Amsterdam Jazz Orchestra"}, jazz.Artists)
	assert.Equal(t, "25 - 49.5 EUR", jazz.PriceLabel())
	assert.Equal(t, "Concertgebouw", jazz.Venue.Name)
	assert.Equal(t, "Concertgebouwplein 10", jazz.Venue.Address)
	assert.Equal(t, "2026-03-01", jazz.StartDate)
	point, ok := jazz.Venue.Point()
	require.True(t, ok)
	assert.InDelta(t, 52.3563, point.Lat, 1e-9)
	img, ok := jazz.PrimaryImage()
	require.True(t, ok)
	assert.Equal(t, "https://img.example/16_9_large.jpg", img.URL)

	party := events[1]
	assert.Equal(t, entities.TicketStatusOffSale, party.TicketStatus)
	assert.Empty(t, party.Genre)
	assert.Nil(t, party.PriceRange)
	_, ok = party.Venue.Point()
	assert.False(t, ok)
	assert.Equal(t, "Various Artists", party.ArtistsLabel())

	// cached
	_, err = provider.SearchEvents(context.Background(), entities.EventQuery{
		Latitude: 52.37, Longitude: 4.90, Radius: 25, Unit: entities.UnitMiles,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestTicketmasterProvider_EmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"page":{"size":20,"totalElements":0,"totalPages":0,"number":0}}`))
	}))
	defer server.Close()

	provider := NewTicketmasterProviderWithOptions("test-key", nil, server.URL, server.Client())

	events, err := provider.SearchEvents(context.Background(), entities.EventQuery{Latitude: 10, Longitude: 10, Radius: 1})
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestTicketmasterProvider_Errors(t *testing.T) {
	var hits int32
	server := fixtureServer(t, &hits)
	defer server.Close()

	t.Run("invalid api key surfaces as external", func(t *testing.T) {
		provider := NewTicketmasterProviderWithOptions("wrong", nil, server.URL, server.Client())
		_, err := provider.SearchEvents(context.Background(), entities.EventQuery{Latitude: 52.37, Longitude: 4.9, Radius: 25})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
	})

	t.Run("missing api key makes no request", func(t *testing.T) {
		before := atomic.LoadInt32(&hits)
		provider := NewTicketmasterProviderWithOptions("", nil, server.URL, server.Client())
		_, err := provider.SearchEvents(context.Background(), entities.EventQuery{Latitude: 52.37, Longitude: 4.9, Radius: 25})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
		assert.Equal(t, before, atomic.LoadInt32(&hits))
	})

	t.Run("invalid coordinates", func(t *testing.T) {
		provider := NewTicketmasterProviderWithOptions("test-key", nil, server.URL, server.Client())
		_, err := provider.SearchEvents(context.Background(), entities.EventQuery{Latitude: 100, Longitude: 4.9, Radius: 25})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

func TestTicketmasterProvider_GetEvent(t *testing.T) {
	var hits int32
	server := fixtureServer(t, &hits)
	defer server.Close()

	provider := NewTicketmasterProviderWithOptions("test-key", nil, server.URL, server.Client())

	event, err := provider.GetEvent(context.Background(), "Z698xZC2Z17aDef")
	require.NoError(t, err)
	assert.Equal(t, "Secret Warehouse Party", event.Name)

	_, err = provider.GetEvent(context.Background(), "unknown")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	_, err = provider.GetEvent(context.Background(), "../admin")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestMockEventProvider(t *testing.T) {
	provider := NewMockEventProvider()

	events, err := provider.SearchEvents(context.Background(), entities.EventQuery{Latitude: 52.37, Longitude: 4.90, Radius: 25})
	require.NoError(t, err)
	require.Len(t, events, 3)

	got, err := provider.GetEvent(context.Background(), events[1].ID)
	require.NoError(t, err)
	assert.Equal(t, events[1].Name, got.Name)
}

func TestTicketmasterProvider_SearchErrorStatusesLookAlike(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusBadRequest, http.StatusBadGateway} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"fault":{"faultstring":"Resource not found"}}`, status)
		}))

		provider := NewTicketmasterProviderWithOptions("test-key", nil, server.URL, server.Client())
		_, err := provider.SearchEvents(context.Background(), entities.EventQuery{Latitude: 52.37, Longitude: 4.9, Radius: 25})
		server.Close()

		require.Error(t, err, "status %d", status)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal), "status %d", status)
		assert.Equal(t, http.StatusBadGateway, apperrors.HTTPStatus(err), "status %d", status)
		assert.Equal(t, apperrors.MessageEventsUnavailable, apperrors.UserMessage(err, apperrors.MessageEventsUnavailable), "status %d", status)
	}
}
