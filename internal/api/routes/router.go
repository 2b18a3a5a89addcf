package routes

import (
	"net/http"

	"github.com/zatekoja/eventfinder/internal/api/handlers"
	"github.com/zatekoja/eventfinder/internal/api/middleware"
	"github.com/zatekoja/eventfinder/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	locationHandler  *handlers.LocationHandler
	eventHandler     *handlers.EventHandler
	pageHandler      *handlers.PageHandler
	sseHandler       *handlers.SSEHandler
	analyticsHandler *handlers.AnalyticsHandler
	healthHandler    *handlers.HealthHandler

	cacheMiddleware *middleware.CacheMiddleware
	allowedOrigins  []string
	metrics         *observability.Metrics
}

// Handlers groups the handlers the router serves
type Handlers struct {
	Location  *handlers.LocationHandler
	Event     *handlers.EventHandler
	Page      *handlers.PageHandler
	SSE       *handlers.SSEHandler
	Analytics *handlers.AnalyticsHandler
	Health    *handlers.HealthHandler
}

// NewRouter creates a new router. cacheMiddleware and metrics may be nil.
func NewRouter(h Handlers, cacheMiddleware *middleware.CacheMiddleware, allowedOrigins []string, metrics *observability.Metrics) *Router {
	return &Router{
		mux: http.NewServeMux(),

		locationHandler:  h.Location,
		eventHandler:     h.Event,
		pageHandler:      h.Page,
		sseHandler:       h.SSE,
		analyticsHandler: h.Analytics,
		healthHandler:    h.Health,

		cacheMiddleware: cacheMiddleware,
		allowedOrigins:  allowedOrigins,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	if r.healthHandler != nil {
		r.mux.HandleFunc("GET /health", r.healthHandler.Health)
	} else {
		r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
	}

	// Pages
	r.mux.HandleFunc("GET /{$}", r.pageHandler.Index)
	r.mux.HandleFunc("GET /event/{id}", r.pageHandler.EventDetail)

	// Geocoding
	r.mux.HandleFunc("GET /api/locations", r.locationHandler.SearchLocations)
	r.mux.HandleFunc("GET /api/reverse-geocode", r.locationHandler.ReverseGeocode)

	// Events
	r.mux.HandleFunc("POST /api/events", r.eventHandler.SearchEvents)
	r.mux.HandleFunc("GET /api/events/{id}", r.eventHandler.GetEvent)
	r.mux.HandleFunc("POST /api/render-event-card", r.eventHandler.RenderEventCard)
	r.mux.HandleFunc("POST /api/render-map-popup", r.eventHandler.RenderMapPopup)

	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/stream/events", r.sseHandler.StreamEvents)
	}

	if r.analyticsHandler != nil {
		r.mux.HandleFunc("GET /api/analytics/zero-result-queries", r.analyticsHandler.GetZeroResultQueries)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.SessionMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
