package handlers

import (
	"bytes"
	"net/http"

	"github.com/zatekoja/eventfinder/internal/api/views"
	"github.com/zatekoja/eventfinder/internal/application/services"
	"github.com/zatekoja/eventfinder/internal/domain/entities"
	"github.com/zatekoja/eventfinder/internal/infrastructure/observability"
	"github.com/zatekoja/eventfinder/pkg/config"
	apperrors "github.com/zatekoja/eventfinder/pkg/errors"
)

const pageTitle = "Event Finder"

// PageHandler serves the full HTML pages
type PageHandler struct {
	events   *services.EventService
	renderer *views.Renderer
	defaults entities.Location
}

// NewPageHandler creates a new page handler. The index page opens on the
// configured default location.
func NewPageHandler(events *services.EventService, renderer *views.Renderer, cfg config.SearchConfig) *PageHandler {
	return &PageHandler{
		events:   events,
		renderer: renderer,
		defaults: entities.Location{
			Latitude:    cfg.DefaultLat,
			Longitude:   cfg.DefaultLon,
			DisplayName: cfg.DefaultName,
		},
	}
}

// Index handles GET /
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	bounds := h.events.Bounds()
	var buf bytes.Buffer
	err := h.renderer.Index(&buf, views.IndexData{
		Title:    pageTitle,
		Location: h.defaults,
		Radius:   bounds.Default,
		Bounds:   bounds,
	})
	if err != nil {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("failed to render index")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, http.StatusOK, buf.Bytes())
}

// EventDetail handles GET /event/{id}
func (h *PageHandler) EventDetail(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.errorPage(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.EventDetail(&buf, event); err != nil {
		h.errorPage(w, r, apperrors.NewInternalError("failed to render event detail", err))
		return
	}
	writeHTML(w, http.StatusOK, buf.Bytes())
}

func (h *PageHandler) errorPage(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	data := views.ErrorData{Title: "Something went wrong", Message: apperrors.UserMessage(err, apperrors.MessageEventsUnavailable)}
	if status == http.StatusNotFound {
		data = views.ErrorData{Title: "Event not found", Message: "The event you are looking for does not exist or is no longer listed."}
	}

	logger := observability.LoggerFromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("detail page failed")
	}

	var buf bytes.Buffer
	if renderErr := h.renderer.ErrorPage(&buf, data); renderErr != nil {
		logger.Error().Err(renderErr).Msg("failed to render error page")
		http.Error(w, data.Message, status)
		return
	}
	writeHTML(w, status, buf.Bytes())
}
