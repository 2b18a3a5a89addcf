package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/zatekoja/eventfinder/internal/api/views"
	"github.com/zatekoja/eventfinder/internal/application/services"
	"github.com/zatekoja/eventfinder/internal/domain/entities"
	"github.com/zatekoja/eventfinder/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/eventfinder/pkg/errors"
)

const maxBodyBytes = 1 << 20

// EventHandler handles event search and fragment rendering
type EventHandler struct {
	events   *services.EventService
	renderer *views.Renderer
}

// NewEventHandler creates a new event handler
func NewEventHandler(events *services.EventService, renderer *views.Renderer) *EventHandler {
	return &EventHandler{
		events:   events,
		renderer: renderer,
	}
}

type eventsResponse struct {
	Events []entities.EventRecord `json:"events"`
}

// SearchEvents handles POST /api/events
func (h *EventHandler) SearchEvents(w http.ResponseWriter, r *http.Request) {
	var q entities.EventQuery
	if err := decodeJSON(w, r, &q); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	events, err := h.events.Search(r.Context(), q)
	if err != nil {
		respondWithAppError(w, r, err, apperrors.MessageEventsUnavailable)
		return
	}
	respondWithJSON(w, http.StatusOK, eventsResponse{Events: events})
}

// GetEvent handles GET /api/events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err, apperrors.MessageEventsUnavailable)
		return
	}
	respondWithJSON(w, http.StatusOK, event)
}

// RenderEventCard handles POST /api/render-event-card
func (h *EventHandler) RenderEventCard(w http.ResponseWriter, r *http.Request) {
	h.renderFragment(w, r, "card", h.renderer.EventCard)
}

// RenderMapPopup handles POST /api/render-map-popup
func (h *EventHandler) RenderMapPopup(w http.ResponseWriter, r *http.Request) {
	h.renderFragment(w, r, "popup", h.renderer.MapPopup)
}

func (h *EventHandler) renderFragment(w http.ResponseWriter, r *http.Request, name string, render func(io.Writer, *entities.EventRecord) error) {
	var event entities.EventRecord
	if err := decodeJSON(w, r, &event); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if event.ID == "" {
		respondWithError(w, http.StatusBadRequest, "event id is required")
		return
	}

	var buf bytes.Buffer
	if err := render(&buf, &event); err != nil {
		observability.LoggerFromContext(r.Context()).Error().Err(err).
			Str("fragment", name).Str("event_id", event.ID).Msg("failed to render fragment")
		respondWithError(w, http.StatusInternalServerError, "failed to render "+name)
		return
	}
	writeHTML(w, http.StatusOK, buf.Bytes())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}
