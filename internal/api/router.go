// Package api provides the HTTP API for Flagship.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/flagship/flagship/internal/api/handler"
	"github.com/flagship/flagship/internal/api/middleware"
	"github.com/flagship/flagship/internal/flag"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version        string
	BuildTime      string
	Logger         zerolog.Logger
	ServiceName    string
	Metrics        *middleware.Metrics
	FlagService    *flag.Service
	StoragePinger  handler.Pinger
	AllowedOrigins []string
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "flagship-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.RequireJSON)

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.StoragePinger)
	flagsHandler := handler.NewFlagsHandler(cfg.FlagService)

	readRateLimit := middleware.RateLimitByIP(middleware.ReadRateLimit)
	writeRateLimit := middleware.RateLimitByIP(middleware.WriteRateLimit)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
		})

		r.Route("/flags", func(r chi.Router) {
			r.With(readRateLimit).Get("/", flagsHandler.ListFlags)
			r.With(writeRateLimit).Post("/", flagsHandler.CreateFlag)
			r.With(readRateLimit).Get("/{flagName}/value", flagsHandler.GetFlagValue)
			r.With(readRateLimit).Get("/{flagID}", flagsHandler.GetFlag)
			r.With(writeRateLimit).Patch("/{flagID}", flagsHandler.UpdateFlag)
			r.With(writeRateLimit).Delete("/{flagID}", flagsHandler.DeleteFlag)
		})
	})

	return r
}
