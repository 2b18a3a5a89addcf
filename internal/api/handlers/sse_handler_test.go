package handlers_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/eventfinder/internal/adapters/events"
	"github.com/zatekoja/eventfinder/internal/api/handlers"
	"github.com/zatekoja/eventfinder/internal/domain/entities"
	"github.com/zatekoja/eventfinder/internal/domain/providers"
	"github.com/zatekoja/eventfinder/pkg/geo"
)

type sseEvent struct {
	name string
	data string
}

// readEvent reads one "event:/data:" block from the stream
func readEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()
	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		case line == "" && ev.name != "":
			return ev
		}
	}
}

func TestSSEHandler_StreamEvents_FiltersByDistance(t *testing.T) {
	bus := events.NewMemoryEventBus()
	defer bus.Close()
	h := handlers.NewSSEHandler(bus, geo.DefaultRadiusBounds(), nil)

	server := httptest.NewServer(http.HandlerFunc(h.StreamEvents))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"?lat=52.3676&lon=4.9041&radius=20", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	connected := readEvent(t, reader)
	require.Equal(t, "connected", connected.name)
	assert.Contains(t, connected.data, `"radius_km":20`)
	assert.Equal(t, 1, h.ClientCount())

	far := entities.NewEventsLoadedNotification(
		entities.Location{Latitude: 51.5072, Longitude: -0.1276, DisplayName: "London"}, 40, nil)
	near := entities.NewEventsLoadedNotification(
		entities.Location{Latitude: 52.37, Longitude: 4.89, DisplayName: "Dam"}, 40,
		[]entities.EventRecord{{ID: "e1"}, {ID: "e2"}})

	require.NoError(t, bus.Publish(ctx, providers.EventChannelEventsLoaded, far))
	require.NoError(t, bus.Publish(ctx, providers.EventChannelEventsLoaded, near))

	got := readEvent(t, reader)
	assert.Equal(t, "eventsDataLoaded", got.name)

	var n entities.EventsNotification
	require.NoError(t, json.Unmarshal([]byte(got.data), &n))
	assert.Equal(t, near.ID, n.ID)
	assert.Equal(t, []string{"e1", "e2"}, n.EventIDs)
	assert.Equal(t, 2, n.Count)
}

func TestSSEHandler_StreamEvents_BadParams(t *testing.T) {
	bus := events.NewMemoryEventBus()
	defer bus.Close()
	h := handlers.NewSSEHandler(bus, geo.DefaultRadiusBounds(), nil)

	for _, q := range []string{"", "?lat=1", "?lat=x&lon=1", "?lat=100&lon=1", "?lat=1&lon=1&radius=wide"} {
		rec := httptest.NewRecorder()
		h.StreamEvents(rec, httptest.NewRequest(http.MethodGet, "/api/stream/events"+q, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
	assert.Equal(t, 0, h.ClientCount())
}
