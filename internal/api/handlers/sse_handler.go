package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/zatekoja/eventfinder/internal/domain/entities"
	"github.com/zatekoja/eventfinder/internal/domain/providers"
	"github.com/zatekoja/eventfinder/internal/infrastructure/observability"
	"github.com/zatekoja/eventfinder/pkg/geo"
)

const defaultHeartbeat = 30 * time.Second

// SSEHandler streams events-loaded notifications to browsers watching an
// area of the map
type SSEHandler struct {
	eventBus  providers.EventBus
	bounds    geo.RadiusBounds
	metrics   *observability.Metrics
	heartbeat time.Duration
	clients   atomic.Int64
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(eventBus providers.EventBus, bounds geo.RadiusBounds, metrics *observability.Metrics) *SSEHandler {
	return &SSEHandler{
		eventBus:  eventBus,
		bounds:    bounds,
		metrics:   metrics,
		heartbeat: defaultHeartbeat,
	}
}

// StreamEvents handles GET /api/stream/events?lat=X&lon=Y&radius=Z
//
// A notification is forwarded when the search it announces was centred
// within radius km of the subscriber's position.
func (h *SSEHandler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	lat, err := strconv.ParseFloat(query.Get("lat"), 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid latitude parameter")
		return
	}
	lon, err := strconv.ParseFloat(query.Get("lon"), 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid longitude parameter")
		return
	}
	center := geo.Point{Lat: lat, Lon: lon}
	if !center.Valid() {
		respondWithError(w, http.StatusBadRequest, "latitude must be within ±90 and longitude within ±180")
		return
	}

	radius := h.bounds.Default
	if raw := query.Get("radius"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid radius parameter")
			return
		}
		radius = h.bounds.Clamp(parsed)
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ctx := r.Context()
	logger := observability.LoggerFromContext(ctx)

	notifications, err := h.eventBus.Subscribe(ctx, providers.EventChannelEventsLoaded)
	if err != nil {
		logger.Error().Err(err).Str("channel", providers.EventChannelEventsLoaded).Msg("failed to subscribe")
		respondWithError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	h.clients.Add(1)
	observability.RecordStreamClient(ctx, h.metrics, 1)
	defer func() {
		h.clients.Add(-1)
		observability.RecordStreamClient(ctx, h.metrics, -1)
	}()

	h.sendEvent(w, "connected", map[string]interface{}{
		"lat":       lat,
		"lon":       lon,
		"radius_km": radius,
		"timestamp": time.Now().UTC(),
	})
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug().Float64("lat", lat).Float64("lon", lon).Int("radius_km", radius).Msg("stream client disconnected")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now().UTC(),
			})
			flusher.Flush()
		case n, ok := <-notifications:
			if !ok {
				return
			}
			if n == nil || geo.Distance(center, n.Center.Point()) > float64(radius) {
				continue
			}
			h.sendEvent(w, string(entities.NotificationEventsLoaded), n)
			flusher.Flush()
		}
	}
}

// sendEvent sends an SSE event to the client
func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		observability.GetLogger().Error().Err(err).Str("event", eventType).Msg("failed to marshal event data")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

// ClientCount returns the number of connected stream clients
func (h *SSEHandler) ClientCount() int {
	return int(h.clients.Load())
}
