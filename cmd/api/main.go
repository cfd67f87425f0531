// Package main provides the entrypoint for the Flagship API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/flagship/flagship/internal/api"
	"github.com/flagship/flagship/internal/api/handler"
	"github.com/flagship/flagship/internal/api/middleware"
	"github.com/flagship/flagship/internal/database"
	"github.com/flagship/flagship/internal/flag"
	"github.com/flagship/flagship/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "flagship-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting Flagship API")

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

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Connect the configured storage backend and build the repository
	repo, cleanup, err := buildRepository(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}
	defer cleanup()

	// Optional circuit breaker around storage calls
	if os.Getenv("STORAGE_BREAKER_ENABLED") == "true" {
		repo = flag.NewResilientRepository(repo, log)
		log.Info().Msg("storage circuit breaker enabled")
	}

	flagService := flag.NewService(flag.ServiceConfig{
		Repository: repo,
		Logger:     log,
	})
	log.Info().Msg("flag service initialized")

	var allowedOrigins []string
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		allowedOrigins = strings.Split(origins, ",")
	}

	router := api.NewRouter(api.RouterConfig{
		Version:        Version,
		BuildTime:      BuildTime,
		Logger:         log,
		ServiceName:    serviceName,
		Metrics:        metrics,
		FlagService:    flagService,
		StoragePinger:  asPinger(repo),
		AllowedOrigins: allowedOrigins,
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

// buildRepository connects the backend selected by STORAGE_BACKEND
// (memory, mongo, or postgres; mongo is the default) and returns the
// repository plus a cleanup closing the connection.
func buildRepository(ctx context.Context, log zerolog.Logger) (flag.Repository, func(), error) {
	backend := os.Getenv("STORAGE_BACKEND")
	if backend == "" {
		backend = "mongo"
	}

	switch backend {
	case "memory":
		log.Info().Msg("using in-memory flag storage")
		return flag.NewMemoryRepository(), func() {}, nil

	case "postgres":
		cfg := database.PostgresConfigFromEnv()
		pool, err := database.ConnectPostgres(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		log.Info().
			Str("host", cfg.Host).
			Int("port", cfg.Port).
			Str("database", cfg.Database).
			Msg("postgres connected")

		repo := flag.NewPostgresRepository(flag.PostgresRepositoryConfig{
			Pool:   pool,
			Logger: log,
		})
		return repo, pool.Close, nil

	default:
		cfg := database.MongoConfigFromEnv()
		m, err := database.ConnectMongo(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		log.Info().
			Str("database", cfg.Database).
			Str("collection", cfg.Collection).
			Msg("mongo connected")

		repo := flag.NewMongoRepository(flag.MongoRepositoryConfig{
			Collection: m.FlagsCollection(),
			Logger:     log,
			OpTimeout:  cfg.OpTimeout,
		})
		cleanup := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := m.Close(closeCtx); err != nil {
				log.Error().Err(err).Msg("failed to close mongo connection")
			}
		}
		return repo, cleanup, nil
	}
}

// asPinger exposes the repository's readiness check when it has one.
func asPinger(repo flag.Repository) handler.Pinger {
	if p, ok := repo.(flag.Pinger); ok {
		return p
	}
	return nil
}
