// Package main provides the entrypoint for the planner API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/breatheroute/planner/internal/api"
	"github.com/breatheroute/planner/internal/api/handler"
	"github.com/breatheroute/planner/internal/api/middleware"
	"github.com/breatheroute/planner/internal/config"
	"github.com/breatheroute/planner/internal/database"
	"github.com/breatheroute/planner/internal/geocoding"
	"github.com/breatheroute/planner/internal/geocoding/googlemaps"
	"github.com/breatheroute/planner/internal/geocoding/nominatim"
	"github.com/breatheroute/planner/internal/leisure"
	"github.com/breatheroute/planner/internal/provider/resilience"
	"github.com/breatheroute/planner/internal/routing"
	"github.com/breatheroute/planner/internal/routing/openrouteservice"
	"github.com/breatheroute/planner/internal/session"
	"github.com/breatheroute/planner/internal/store"
	"github.com/breatheroute/planner/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "planner-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log = log.Level(cfg.Level())

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Env).
		Msg("starting planner API")

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryCfg := cfg.Telemetry
	telemetryCfg.ServiceName = serviceName
	telemetryCfg.ServiceVersion = Version
	telemetryCfg.Environment = cfg.Env

	tp, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryCfg.Enabled {
		log.Info().
			Str("otlp_endpoint", telemetryCfg.OTLPEndpoint).
			Float64("sample_ratio", telemetryCfg.SampleRatio).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize HTTP metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}
	storeMetrics, err := store.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize store metrics")
		os.Exit(1)
	}

	registry := resilience.NewRegistry()

	// Routing
	orsClient := openrouteservice.NewClient(openrouteservice.ClientConfig{
		APIKey:   cfg.Routing.APIKey,
		BaseURL:  cfg.Routing.BaseURL,
		Registry: registry,
		Logger:   log,
	})
	if cfg.Routing.APIKey == "" {
		log.Warn().Msg("ORS_API_KEY not set - route requests will be rejected upstream")
	}
	routes := routing.NewService(routing.ServiceConfig{
		Provider: orsClient,
		Logger:   log,
		Profile:  cfg.Routing.Profile,
		CacheTTL: cfg.Routing.CacheTTL,
	})
	log.Info().Str("profile", string(cfg.Routing.Profile)).Msg("routing service initialized")

	// Geocoding
	geocoder, err := newGeocoder(cfg.Geocoding, registry, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize geocoder")
	}
	log.Info().Str("provider", geocoder.Name()).Msg("geocoder initialized")

	// Leisure catalog
	catalog, pool, err := newCatalog(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize leisure catalog")
	}
	if pool != nil {
		defer pool.Close()
		log.Info().
			Str("host", cfg.Database.Host).
			Int("port", cfg.Database.Port).
			Str("database", cfg.Database.Database).
			Msg("database connected")
	}
	log.Info().Str("store", cfg.Leisure.Store).Msg("leisure catalog initialized")

	sess := session.New(session.Config{
		StartURL: cfg.StartURL,
		Collaborators: store.Collaborators{
			Routes:   routes,
			Geocoder: geocoder,
			Catalog:  catalog,
		},
		Metrics: storeMetrics,
		Logger:  log,
	})
	defer sess.Close()

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     httpMetrics,
		Session:     sess,
		Registry:    registry,
		RouteCaches: []handler.RouteCache{routes},
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

func newGeocoder(cfg config.Geocoding, registry *resilience.Registry, log zerolog.Logger) (geocoding.Geocoder, error) {
	switch cfg.Provider {
	case config.GeocoderGoogleMaps:
		client, err := googlemaps.NewClient(googlemaps.Config{
			APIKey:   cfg.GoogleMapsAPIKey,
			Language: "nl",
			Region:   "nl",
			Registry: registry,
			Logger:   log,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.GeocoderNominatim:
		return nominatim.NewClient(nominatim.ClientConfig{
			BaseURL:  cfg.NominatimURL,
			Limit:    cfg.Limit,
			ViewBox:  cfg.ViewBox,
			Registry: registry,
			Logger:   log,
		}), nil
	default:
		return nil, fmt.Errorf("unknown geocoder %q", cfg.Provider)
	}
}

// newCatalog returns the leisure catalog and, for the postgres store, the
// pool backing it.
func newCatalog(ctx context.Context, cfg config.Config) (leisure.Catalog, *pgxpool.Pool, error) {
	if cfg.Leisure.Store != config.LeisureStorePostgres {
		return leisure.NewInMemoryRepository(cfg.Leisure.Routes...), nil, nil
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return leisure.NewPostgresRepository(pool), pool, nil
}
