// Command sse serves only the live event stream. It relays notifications
// published through Redis by the API replicas, so long-lived browser
// connections can be scaled apart from the request path.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/eventfinder/internal/adapters/events"
	"github.com/zatekoja/eventfinder/internal/api/handlers"
	"github.com/zatekoja/eventfinder/internal/api/middleware"
	"github.com/zatekoja/eventfinder/internal/infrastructure/clients/redis"
	"github.com/zatekoja/eventfinder/internal/infrastructure/observability"
	"github.com/zatekoja/eventfinder/pkg/config"
	"github.com/zatekoja/eventfinder/pkg/geo"
	"github.com/zatekoja/eventfinder/pkg/retry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	port := flag.Int("port", cfg.Server.Port+1, "listen port")
	flag.Parse()

	observability.InitLogger("eventfinder-sse", cfg.Log.Environment, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// there is nothing to relay without the shared bus
	redisClient, err := redis.NewClient(ctx, &cfg.Redis, retry.DefaultConfig(), func(attempt int, err error, next time.Duration) {
		log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", next).Msg("Redis not ready")
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	sseHandler := handlers.NewSSEHandler(eventBus, geo.RadiusBounds{
		Min:     cfg.Search.MinRadiusKm,
		Max:     cfg.Search.MaxRadiusKm,
		Default: cfg.Search.DefaultRadiusKm,
	}, metrics)
	health := handlers.NewHealthHandler(map[string]handlers.Pinger{"redis": redisClient})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", health.Health)
	mux.HandleFunc("GET /api/stream/events", sseHandler.StreamEvents)
	mux.HandleFunc("GET /api/stream/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"connected_clients":%d}`, sseHandler.ClientCount())
	})

	var handler http.Handler = mux
	handler = middleware.CORSMiddleware(middleware.ParseAllowedOrigins(cfg.Server.AllowedOrigins))(handler)
	handler = middleware.LoggingMiddleware(handler)

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, *port),
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("stream server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("stream server failed to start")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("stream server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}
	if err := eventBus.Close(); err != nil {
		log.Error().Err(err).Msg("error closing event bus")
	}
	log.Info().Msg("stream server stopped")
}
