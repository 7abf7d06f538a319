// Package main provides the entrypoint for the BillGate API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/billgate/billgate/internal/account"
	"github.com/billgate/billgate/internal/api"
	"github.com/billgate/billgate/internal/api/middleware"
	"github.com/billgate/billgate/internal/auth"
	"github.com/billgate/billgate/internal/bill"
	"github.com/billgate/billgate/internal/database"
	"github.com/billgate/billgate/internal/flags"
	"github.com/billgate/billgate/internal/flagsync"
	"github.com/billgate/billgate/internal/gate"
	"github.com/billgate/billgate/internal/requirements"
	"github.com/billgate/billgate/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "billgate-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting BillGate API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
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

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}
	gateMetrics, err := middleware.NewGateMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize gate metrics")
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Initialize JWT service (get signing key from environment)
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: jwtSigningKey,
		Issuer:     getEnvOrDefault("JWT_ISSUER", "https://api.billgate.dev"),
		Audience:   getEnvOrDefault("JWT_AUDIENCE", "billgate-api"),
	})

	// Flag registry and admin service. Cross-instance propagation over
	// Pub/Sub is optional and enabled by PUBSUB_PROJECT_ID.
	registry := flags.NewRegistry()
	flagRepo := flags.NewPostgresRepository(pool)

	var publisher flags.ChangePublisher
	syncProjectID := os.Getenv("PUBSUB_PROJECT_ID")
	syncCfg := flagsync.Config{
		ProjectID:        syncProjectID,
		TopicName:        getEnvOrDefault("PUBSUB_FLAG_TOPIC", "flag-events"),
		SubscriptionName: getEnvOrDefault("PUBSUB_FLAG_SUBSCRIPTION", "flag-events-sub"),
		Logger:           log,
	}
	if syncProjectID != "" {
		pub, err := flagsync.NewPublisher(ctx, syncCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create flag sync publisher")
		}
		defer pub.Close()
		publisher = pub
		log.Info().Str("topic", syncCfg.TopicName).Msg("flag sync publisher initialized")
	}

	flagService := flags.NewService(flags.ServiceConfig{
		Repository: flagRepo,
		Registry:   registry,
		Publisher:  publisher,
		Logger:     log,
	})
	if err := flagService.LoadIntoRegistry(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to load flags into registry")
	}
	log.Info().Uint64("flag_version", registry.CurrentVersion()).Msg("flag registry seeded")

	if syncProjectID != "" {
		subscriber, err := flagsync.NewSubscriber(ctx, syncCfg, flagService)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create flag sync subscriber")
		}
		defer subscriber.Close()
		go func() {
			if err := subscriber.Start(ctx); err != nil {
				log.Error().Err(err).Msg("flag sync subscriber stopped")
			}
		}()
	}

	// Requirements provider. REQUIREMENTS_URL switches the backing source
	// from the database to a remote configuration service.
	var source requirements.Source
	if baseURL := os.Getenv("REQUIREMENTS_URL"); baseURL != "" {
		source = requirements.NewHTTPSource(baseURL, nil)
		log.Info().Str("url", baseURL).Msg("using remote requirements source")
	} else {
		source = requirements.NewPostgresSource(pool)
	}

	provider := requirements.NewProvider(requirements.ProviderConfig{
		Source: source,
		Logger: log,
	})

	// Guards, one per layer. Each cache is constructed here so the admin
	// invalidation endpoint can purge all three.
	transportCache := gate.NewDecisionCache(registry, gate.DefaultDecisionTTL)
	transportGuard, err := gate.NewTransportGuard(ctx, gate.TransportGuardConfig{
		Registry:     registry,
		Requirements: provider,
		Cache:        transportCache,
		Logger:       log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to construct transport guard")
	}

	repoCache := gate.NewDecisionCache(registry, gate.DefaultDecisionTTL)
	repoGuard, err := gate.NewGuard(gate.GuardConfig{
		Layer:        requirements.LayerRepository,
		Selectors:    account.RepositorySelectors(),
		Registry:     registry,
		Requirements: provider,
		Cache:        repoCache,
		Logger:       log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to construct repository guard")
	}

	svcCache := gate.NewDecisionCache(registry, gate.DefaultDecisionTTL)
	svcGuard, err := gate.NewGuard(gate.GuardConfig{
		Layer:        requirements.LayerService,
		Selectors:    bill.ServiceSelectors(),
		Registry:     registry,
		Requirements: provider,
		Cache:        svcCache,
		Logger:       log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to construct service guard")
	}

	// Domain stacks: the account repository and bill service are wrapped by
	// their layer guards before anything else sees them.
	accountRepo := account.NewGuardedRepository(account.NewPostgresRepository(pool), repoGuard)
	accountService := account.NewService(accountRepo)

	billService := bill.NewGuardedService(bill.NewService(bill.NewPostgresRepository(pool)), svcGuard)
	log.Info().Msg("guarded domain services initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:        Version,
		BuildTime:      BuildTime,
		Logger:         log,
		ServiceName:    serviceName,
		Metrics:        metrics,
		GateMetrics:    gateMetrics,
		JWTService:     jwtService,
		AccountService: accountService,
		BillService:    billService,
		FlagService:    flagService,
		Registry:       registry,
		Requirements:   provider,
		TransportGuard: transportGuard,
		DecisionCaches: []*gate.DecisionCache{transportCache, repoCache, svcCache},
		DB:             pool,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
