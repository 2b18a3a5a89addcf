package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/eventfinder/internal/domain/entities"
	apperrors "github.com/zatekoja/eventfinder/pkg/errors"
	"github.com/zatekoja/eventfinder/pkg/geo"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int) {
	t.Helper()
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return NewClientWithOptions(server.URL+"/", "session-1", geo.DefaultRadiusBounds(), server.Client()), &calls
}

func TestClient_Search(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/locations", r.URL.Path)
		assert.Equal(t, "amster dam", r.URL.Query().Get("q"))
		assert.Equal(t, "session-1", r.Header.Get(SessionHeader))
		io.WriteString(w, `[{"place_id":1,"display_name":"Amsterdam","lat":52.37,"lon":4.9},
			{"place_id":2,"display_name":"Amstelveen","lat":52.3,"lon":4.86}]`)
	})

	places, err := client.Search(context.Background(), "  amster dam ", 1)
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, "Amsterdam", places[0].DisplayName)
	assert.Equal(t, 52.37, places[0].Latitude)
}

func TestClient_ValidationSkipsNetwork(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	})
	ctx := context.Background()

	_, err := client.Search(ctx, " a ", 10)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = client.Reverse(ctx, 100, 0)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = client.SearchEvents(ctx, entities.EventQuery{Latitude: 1, Longitude: 1, Radius: 0})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = client.SearchEvents(ctx, entities.EventQuery{Latitude: 1, Longitude: 181, Radius: 10})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = client.GetEvent(ctx, "  ")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = client.RenderMapPopup(ctx, entities.EventRecord{Name: "no id"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	assert.Equal(t, 0, *calls)
}

func TestClient_SearchEventsSendsKilometers(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var q entities.EventQuery
		require.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		assert.Equal(t, entities.EventQuery{Latitude: 52.37, Longitude: 4.9, Radius: 40, Unit: entities.UnitKilometers}, q)
		io.WriteString(w, `{"events":[{"id":"e1","name":"Jazz","venue":{"name":"Bimhuis"},"ticket_status":"onsale"}]}`)
	})

	events, err := client.SearchEvents(context.Background(), entities.EventQuery{Latitude: 52.37, Longitude: 4.9, Radius: 40})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Bimhuis", events[0].Venue.Name)
}

func TestClient_SearchEventsEmpty(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"events":null}`)
	})
	events, err := client.SearchEvents(context.Background(), entities.EventQuery{Latitude: 1, Longitude: 1, Radius: 5})
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    apperrors.ErrorType
		message string
	}{
		{"bad request", http.StatusBadRequest, `{"error":"radius must be between 1 and 160 km"}`, apperrors.ErrorTypeValidation, "radius must be between 1 and 160 km"},
		{"not found", http.StatusNotFound, `{"error":"event not found"}`, apperrors.ErrorTypeNotFound, "event not found"},
		{"bad gateway", http.StatusBadGateway, `{"error":"Error loading events. Please try again later."}`, apperrors.ErrorTypeExternal, "Error loading events. Please try again later."},
		{"no body", http.StatusInternalServerError, ``, apperrors.ErrorTypeExternal, "server returned status 500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			_, err := client.GetEvent(context.Background(), "e1")
			require.Error(t, err)
			assert.Equal(t, tt.want, apperrors.TypeOf(err))

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.message, appErr.Message)
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(url, "", geo.DefaultRadiusBounds())
	_, err := client.Search(context.Background(), "Amsterdam", 10)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}

func TestClient_ReverseAndFragments(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/reverse-geocode":
			assert.Equal(t, "52.3676", r.URL.Query().Get("lat"))
			io.WriteString(w, `{"lat":52.3676,"lon":4.9041,"name":"Centrum, Amsterdam"}`)
		case "/api/render-map-popup":
			var e entities.EventRecord
			require.NoError(t, json.NewDecoder(r.Body).Decode(&e))
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			io.WriteString(w, `<div class="map-popup">`+e.Name+`</div>`)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	place, err := client.Reverse(ctx, 52.3676, 4.9041)
	require.NoError(t, err)
	assert.Equal(t, "Centrum, Amsterdam", place.DisplayName)

	html, err := client.RenderMapPopup(ctx, entities.EventRecord{ID: "e1", Name: "Jazz"})
	require.NoError(t, err)
	assert.Equal(t, `<div class="map-popup">Jazz</div>`, html)
}
