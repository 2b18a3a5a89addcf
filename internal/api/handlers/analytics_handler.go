package handlers

import (
	"net/http"
	"strconv"

	"github.com/zatekoja/eventfinder/internal/application/services"
	"github.com/zatekoja/eventfinder/internal/domain/entities"
	apperrors "github.com/zatekoja/eventfinder/pkg/errors"
)

const (
	defaultReportLimit = 50
	maxReportLimit     = 500
)

// AnalyticsHandler exposes search analytics reports
type AnalyticsHandler struct {
	analytics *services.SearchAnalyticsService
}

func NewAnalyticsHandler(analytics *services.SearchAnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// GetZeroResultQueries handles GET /api/analytics/zero-result-queries?kind=...&limit=...
func (h *AnalyticsHandler) GetZeroResultQueries(w http.ResponseWriter, r *http.Request) {
	if !h.analytics.Enabled() {
		respondWithError(w, http.StatusServiceUnavailable, "search analytics are disabled")
		return
	}

	kind := entities.SearchKind(r.URL.Query().Get("kind"))
	switch kind {
	case "", entities.SearchKindLocation, entities.SearchKindReverse, entities.SearchKindEvents:
	default:
		respondWithError(w, http.StatusBadRequest, "kind must be location, reverse or events")
		return
	}

	limit := defaultReportLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondWithError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = min(parsed, maxReportLimit)
	}

	rows, err := h.analytics.GetZeroResultQueries(r.Context(), kind, limit)
	if err != nil {
		respondWithAppError(w, r, err, apperrors.MessageInternal)
		return
	}
	if rows == nil {
		rows = []*entities.SearchEvent{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"queries": rows,
		"count":   len(rows),
	})
}
