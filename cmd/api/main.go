package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/maitricare/emergency-locator/internal/adapters/events"
	"github.com/maitricare/emergency-locator/internal/adapters/providers/geolocation"
	"github.com/maitricare/emergency-locator/internal/adapters/providers/places"
	"github.com/maitricare/emergency-locator/internal/api/handlers"
	"github.com/maitricare/emergency-locator/internal/api/routes"
	"github.com/maitricare/emergency-locator/internal/application/services"
	"github.com/maitricare/emergency-locator/internal/domain/providers"
	"github.com/maitricare/emergency-locator/internal/infrastructure/clients/redis"
	"github.com/maitricare/emergency-locator/internal/infrastructure/observability"
	"github.com/maitricare/emergency-locator/pkg/config"
	"github.com/maitricare/emergency-locator/pkg/retry"
	"github.com/maitricare/emergency-locator/pkg/secrets"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	// Optionally pull sensitive configuration (the maps credential) from
	// Vault before the config layer reads the environment.
	vaultResult, err := secrets.ApplyVaultSecrets(context.Background(), secrets.LoadVaultConfigFromEnv())
	if err != nil {
		fmt.Printf("Warning: failed to apply Vault secrets: %v\n", err)
	} else if vaultResult.Enabled {
		fmt.Printf("Vault secrets applied from %s (loaded %d, skipped %d)\n",
			vaultResult.Path, vaultResult.Loaded, vaultResult.Skipped)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, os.Getenv("APP_ENV"))

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Initialize Redis-backed event bus, falling back to the in-process bus
	// when Redis is unreachable. A single-instance deployment works fine
	// without Redis; presenter streams just stay local to this process.
	var eventBus providers.EventBus
	var redisClient *redis.Client
	err = retry.Do(ctx, retry.DefaultConfig(), func() error {
		var connErr error
		redisClient, connErr = redis.NewClient(ctx, &cfg.Redis)
		return connErr
	})
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, using in-process event bus")
		eventBus = events.NewLocalEventBus()
	} else {
		defer redisClient.Close()
		eventBus = events.NewRedisEventBus(redisClient)
		log.Info().Msg("Redis event bus initialized successfully")
	}

	// Initialize map platform providers
	var (
		locationProvider providers.LocationProvider
		mapService       providers.MapService
		placeSearcher    providers.PlaceSearcher
	)
	if cfg.Maps.Provider == "mock" {
		log.Warn().Msg("Using mock map providers")
		locationProvider = geolocation.NewMockLocationProvider()
		mapService = places.NewMockMapService()
		placeSearcher = places.NewMockSearcher()
	} else {
		locationProvider = geolocation.NewGoogleLocationProviderWithOptions(
			cfg.Maps.APIKey, cfg.Maps.GeolocationEndpoint, nil)
		mapService = places.NewGoogleMapServiceWithOptions(
			cfg.Maps.APIKey, cfg.Maps.DiscoveryEndpoint, nil, cfg.Search.MapServiceTimeout())
		placeSearcher = places.NewGoogleSearcherWithOptions(
			cfg.Maps.APIKey, cfg.Maps.PlacesEndpoint, nil, cfg.Maps.RequestsPerSecond)
	}

	// Initialize the search orchestrator
	orchestrator := services.NewSearchOrchestrator(
		services.OrchestratorConfig{
			CredentialConfigured: cfg.Maps.Provider == "mock" || cfg.Maps.APIKey != "",
			Keyword:              cfg.Search.Keyword,
			RadiusMeters:         cfg.Search.RadiusMeters,
			MaxResults:           cfg.Search.MaxResults,
			LocationTimeout:      cfg.Search.LocationTimeout(),
		},
		locationProvider,
		mapService,
		placeSearcher,
		eventBus,
		metrics,
	)
	defer orchestrator.Close()

	// Initialize handlers
	locatorHandler := handlers.NewLocatorHandler(orchestrator)
	sseHandler := handlers.NewSSEHandler(eventBus)

	// Set up router
	router := routes.NewRouter(locatorHandler, sseHandler, metrics)
	handler := router.SetupRoutes()

	// Create HTTP server. WriteTimeout stays at zero so SSE connections are
	// not cut off; individual handlers bound their own work instead.
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	// Close event bus
	if err := eventBus.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing event bus")
	}

	log.Info().Msg("Server stopped")
}
