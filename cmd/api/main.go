// Package main provides the entrypoint for the GeoCycle API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/geocycle/geocycle/internal/api"
	"github.com/geocycle/geocycle/internal/api/middleware"
	"github.com/geocycle/geocycle/internal/config"
	"github.com/geocycle/geocycle/internal/elevation"
	"github.com/geocycle/geocycle/internal/elevation/googleelevation"
	"github.com/geocycle/geocycle/internal/generation"
	"github.com/geocycle/geocycle/internal/generation/gemini"
	"github.com/geocycle/geocycle/internal/geo"
	"github.com/geocycle/geocycle/internal/photo"
	"github.com/geocycle/geocycle/internal/places"
	"github.com/geocycle/geocycle/internal/places/googleplaces"
	"github.com/geocycle/geocycle/internal/planner"
	"github.com/geocycle/geocycle/internal/provider/googlemaps"
	"github.com/geocycle/geocycle/internal/provider/resilience"
	"github.com/geocycle/geocycle/internal/routing"
	"github.com/geocycle/geocycle/internal/routing/googledirections"
	"github.com/geocycle/geocycle/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const (
	serviceName         = "geocycle-api"
	photoProviderName   = "google-place-photo"
	geminiProviderName  = "vertex-ai-gemini"
	shutdownGracePeriod = 30 * time.Second
)

func main() {
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
	if cfg.IsProduction() {
		log = log.Level(zerolog.InfoLevel)
	}

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Environment).
		Msg("starting GeoCycle API")

	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
		SampleRatio:    cfg.TraceSampleRatio,
	})
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

	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize http metrics")
	}
	upstreamMetrics, err := resilience.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize upstream metrics")
	}

	registry := resilience.NewRegistry()
	newUpstream := func(name string, timeout time.Duration, routes ...string) *resilience.Client {
		cb := resilience.DefaultCircuitBreakerConfig(name)
		cb.ReadyToTrip = resilience.TripAfterConsecutiveFailures(cfg.CircuitBreakerMaxFailures)
		cb.OnStateChange = resilience.LogStateChanges(log)

		cc := resilience.DefaultClientConfig(name)
		cc.Timeout = timeout
		cc.CircuitBreaker = &cb
		cc.Registry = registry
		cc.Routes = routes
		cc.Metrics = upstreamMetrics
		return resilience.NewClient(cc)
	}

	mapsUpstream := newUpstream(googlemaps.ProviderName, cfg.UpstreamTimeout, api.GenerateRoute)
	photoUpstream := newUpstream(photoProviderName, cfg.UpstreamTimeout, api.PlacePhotoRoute)
	geminiUpstream := newUpstream(geminiProviderName, cfg.GenerationTimeout, api.GenerateRoute)

	mapsClient, err := googlemaps.NewClient(googlemaps.Config{
		APIKey:     cfg.MapsAPIKey,
		HTTPClient: mapsUpstream.HTTPClient(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create maps client")
	}

	genaiClient, err := gemini.NewVertexClient(ctx, cfg.GCPProject, cfg.GCPLocation, geminiUpstream)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create vertex ai client")
	}

	placeService := places.NewService(places.ServiceConfig{
		Provider: googleplaces.NewClient(googleplaces.ClientConfig{
			Maps:   mapsClient,
			Logger: log,
		}),
		Logger:      log,
		QuerySuffix: cfg.PlaceQuerySuffix,
		Timeout:     cfg.UpstreamTimeout,
	})

	routingService := routing.NewService(routing.ServiceConfig{
		Provider: googledirections.NewClient(googledirections.ClientConfig{
			Maps:   mapsClient,
			Logger: log,
		}),
		Logger:  log,
		Timeout: cfg.UpstreamTimeout,
	})

	elevationService := elevation.NewService(elevation.ServiceConfig{
		Provider: googleelevation.NewClient(googleelevation.ClientConfig{
			Maps:   mapsClient,
			Logger: log,
		}),
		Logger:  log,
		Timeout: cfg.UpstreamTimeout,
	})

	generationService := generation.NewService(generation.ServiceConfig{
		Generator: gemini.NewClient(gemini.ClientConfig{
			Models: genaiClient.Models,
			Model:  cfg.GeminiModel,
			Logger: log,
		}),
		Logger:  log,
		Timeout: cfg.GenerationTimeout,
	})

	plannerService := planner.NewService(planner.ServiceConfig{
		Places:             placeService,
		Directions:         routingService,
		Elevation:          elevationService,
		Generator:          generationService,
		Logger:             log,
		ReferenceName:      cfg.ReferenceName,
		ReferenceLocation:  geo.Coordinate{Lat: cfg.ReferenceLat, Lng: cfg.ReferenceLng},
		MaxStartDistanceKm: cfg.MaxStartDistanceKm,
		ResolveConcurrency: cfg.ResolveConcurrency,
		PhotoBaseURL:       cfg.PhotoBaseURL,
		PhotoMaxWidth:      cfg.PhotoMaxWidth,
	})

	photoProxy := photo.NewProxy(photo.ProxyConfig{
		HTTPClient:      photoUpstream,
		APIKey:          cfg.MapsAPIKey,
		DefaultMaxWidth: cfg.PhotoMaxWidth,
		Timeout:         cfg.UpstreamTimeout,
		Logger:          log,
	})

	log.Info().
		Str("model", cfg.GeminiModel).
		Str("reference", cfg.ReferenceName).
		Int("providers", registry.ProviderCount()).
		Msg("services initialized")

	router := api.NewRouter(api.RouterConfig{
		Version:                 Version,
		BuildTime:               BuildTime,
		Logger:                  log,
		ServiceName:             serviceName,
		Metrics:                 httpMetrics,
		Planner:                 plannerService,
		Photos:                  photoProxy,
		Providers:               registry,
		GenerateRateLimitPerMin: cfg.GenerateRateLimitPerMin,
		CORSAllowedOrigins:      cfg.CORSAllowedOrigins,
		RequireTLS:              cfg.RequireTLS,
	})

	// Generation plus per-course lookups can take well over a minute.
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.GenerationTimeout + 4*cfg.UpstreamTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped")
}
