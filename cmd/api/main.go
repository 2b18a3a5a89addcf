package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/eventfinder/internal/adapters/cache"
	"github.com/zatekoja/eventfinder/internal/adapters/database"
	"github.com/zatekoja/eventfinder/internal/adapters/events"
	"github.com/zatekoja/eventfinder/internal/adapters/providers/geocoding"
	"github.com/zatekoja/eventfinder/internal/adapters/providers/ticketing"
	"github.com/zatekoja/eventfinder/internal/api/handlers"
	"github.com/zatekoja/eventfinder/internal/api/middleware"
	"github.com/zatekoja/eventfinder/internal/api/routes"
	"github.com/zatekoja/eventfinder/internal/api/views"
	"github.com/zatekoja/eventfinder/internal/application/services"
	"github.com/zatekoja/eventfinder/internal/domain/providers"
	"github.com/zatekoja/eventfinder/internal/domain/repositories"
	"github.com/zatekoja/eventfinder/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/eventfinder/internal/infrastructure/clients/redis"
	"github.com/zatekoja/eventfinder/internal/infrastructure/observability"
	"github.com/zatekoja/eventfinder/pkg/config"
	"github.com/zatekoja/eventfinder/pkg/geo"
	"github.com/zatekoja/eventfinder/pkg/retry"
)

const memoryCacheEntries = 4096

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Log.Environment, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	retryCfg := retry.DefaultConfig()
	notify := func(attempt int, err error, next time.Duration) {
		log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", next).Msg("backing service not ready")
	}

	checks := map[string]handlers.Pinger{}

	// Redis backs the provider cache and the cross-replica event bus. Without
	// it both fall back to in-process implementations.
	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis, retryCfg, notify)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, using in-memory cache and event bus")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient)
			eventBus = events.NewRedisEventBus(redisClient)
			checks["redis"] = redisClient
			log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Redis client initialized")
		}
	}
	if cacheProvider == nil {
		cacheProvider = cache.NewMemoryAdapter(memoryCacheEntries)
		eventBus = events.NewMemoryEventBus()
	}
	defer func() {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("error closing event bus")
		}
	}()

	// Postgres only stores search analytics
	var analyticsRepo repositories.SearchAnalyticsRepository
	if cfg.Database.Enabled {
		pgClient, err := postgres.NewClient(ctx, &cfg.Database, retryCfg, notify)
		if err != nil {
			log.Warn().Err(err).Msg("PostgreSQL unavailable, search analytics disabled")
		} else {
			defer pgClient.Close()
			adapter := database.NewSearchAnalyticsAdapter(pgClient, metrics)
			if err := adapter.EnsureSchema(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to create analytics schema, search analytics disabled")
			} else {
				analyticsRepo = adapter
				checks["postgres"] = pgClient
				log.Info().Msg("search analytics enabled")
			}
		}
	}

	var geocoder providers.GeocodeProvider
	switch cfg.Geocoding.Provider {
	case "mock":
		geocoder = geocoding.NewMockGeocodeProvider()
	default:
		geocoder = geocoding.NewNominatimProvider(&cfg.Geocoding, cacheProvider, metrics)
	}

	var eventProvider providers.EventProvider
	switch cfg.Events.Provider {
	case "mock":
		eventProvider = ticketing.NewMockEventProvider()
	default:
		if cfg.Events.APIKey == "" {
			log.Warn().Msg("TICKETMASTER_API_KEY is not set, event searches will fail")
		}
		eventProvider = ticketing.NewTicketmasterProvider(&cfg.Events, cacheProvider, metrics)
	}
	log.Info().Str("geocoding", cfg.Geocoding.Provider).Str("events", cfg.Events.Provider).Msg("providers configured")

	bounds := geo.RadiusBounds{
		Min:     cfg.Search.MinRadiusKm,
		Max:     cfg.Search.MaxRadiusKm,
		Default: cfg.Search.DefaultRadiusKm,
	}

	analyticsService := services.NewSearchAnalyticsService(analyticsRepo)
	locationService := services.NewLocationService(geocoder, analyticsService, cfg.Search)
	eventService := services.NewEventService(eventProvider, eventBus, analyticsService, bounds)

	renderer, err := views.New()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load templates")
	}

	router := routes.NewRouter(
		routes.Handlers{
			Location:  handlers.NewLocationHandler(locationService),
			Event:     handlers.NewEventHandler(eventService, renderer),
			Page:      handlers.NewPageHandler(eventService, renderer, cfg.Search),
			SSE:       handlers.NewSSEHandler(eventBus, bounds, metrics),
			Analytics: handlers.NewAnalyticsHandler(analyticsService),
			Health:    handlers.NewHealthHandler(checks),
		},
		middleware.NewCacheMiddleware(cacheProvider, int(cfg.Events.DetailCacheTTL.Seconds())),
		middleware.ParseAllowedOrigins(cfg.Server.AllowedOrigins),
		metrics,
	)

	// WriteTimeout stays 0 by default so event streams are not cut off
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.SetupRoutes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	analyticsService.Wait()
	log.Info().Msg("server stopped")
}
