package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/zatekoja/eventfinder/internal/application/services"
	apperrors "github.com/zatekoja/eventfinder/pkg/errors"
)

// LocationHandler handles geocoding endpoints
type LocationHandler struct {
	locations *services.LocationService
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(locations *services.LocationService) *LocationHandler {
	return &LocationHandler{locations: locations}
}

// SearchLocations handles GET /api/locations?q=...
func (h *LocationHandler) SearchLocations(w http.ResponseWriter, r *http.Request) {
	places, err := h.locations.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondWithAppError(w, r, err, apperrors.MessageLocationsUnavailable)
		return
	}
	respondWithJSON(w, http.StatusOK, places)
}

// ReverseGeocode handles GET /api/reverse-geocode?lat=...&lon=...
func (h *LocationHandler) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	latStr := strings.TrimSpace(r.URL.Query().Get("lat"))
	lonStr := strings.TrimSpace(r.URL.Query().Get("lon"))
	if latStr == "" || lonStr == "" {
		respondWithError(w, http.StatusBadRequest, "lat and lon parameters are required")
		return
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid lat parameter")
		return
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid lon parameter")
		return
	}

	loc, err := h.locations.Reverse(r.Context(), lat, lon)
	if err != nil {
		respondWithAppError(w, r, err, apperrors.MessageLocationsUnavailable)
		return
	}
	respondWithJSON(w, http.StatusOK, loc)
}
