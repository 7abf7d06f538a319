// Package api provides the HTTP API for BillGate.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/billgate/billgate/internal/account"
	"github.com/billgate/billgate/internal/api/handler"
	"github.com/billgate/billgate/internal/api/middleware"
	"github.com/billgate/billgate/internal/auth"
	"github.com/billgate/billgate/internal/bill"
	"github.com/billgate/billgate/internal/flags"
	"github.com/billgate/billgate/internal/gate"
	"github.com/billgate/billgate/internal/requirements"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	GateMetrics *middleware.GateMetrics

	JWTService     *auth.JWTService
	AccountService *account.Service
	BillService    bill.Service
	FlagService    *flags.Service
	Registry       *flags.Registry
	Requirements   *requirements.Provider
	TransportGuard *gate.TransportGuard

	// DecisionCaches are purged by the admin invalidate endpoint.
	DecisionCaches []*gate.DecisionCache

	// DB is pinged by the readiness check. Nil for in-memory operation.
	DB handler.Pinger
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "billgate-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry, cfg.DB)
	accountsHandler := handler.NewAccountsHandler(cfg.AccountService)
	billsHandler := handler.NewBillsHandler(cfg.BillService)
	flagsHandler := handler.NewFlagsHandler(cfg.FlagService, cfg.Requirements, cfg.DecisionCaches...)

	// Create auth middleware
	authMiddleware := middleware.Auth(cfg.JWTService)

	// Transport-layer feature gate. Applied after auth so the evaluation
	// subject is the authenticated user.
	featureGate := middleware.FeatureGate(cfg.TransportGuard, cfg.GateMetrics)

	// Rate limit middleware for the admin surface
	adminRateLimit := middleware.RateLimitByIP(middleware.AdminRateLimit) // 10 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
		})

		// Accounts (authenticated, transport-gated) - user-based rate limiting
		r.Route("/accounts", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(featureGate)
			r.Use(middleware.RateLimitByUser(middleware.StandardRateLimit)) // 100 req/min per user
			r.Get("/", accountsHandler.ListAccounts)
			r.Post("/", accountsHandler.CreateAccount)
			r.Route("/{accountId}", func(r chi.Router) {
				r.Get("/", accountsHandler.GetAccount)
				r.Put("/", accountsHandler.UpdateAccount)
				r.Delete("/", accountsHandler.DeleteAccount)
			})
		})

		// Bills (authenticated, transport-gated) - user-based rate limiting
		r.Route("/bills", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(featureGate)
			r.Use(middleware.RateLimitByUser(middleware.StandardRateLimit)) // 100 req/min per user
			r.Get("/", billsHandler.ListBills)
			r.Post("/", billsHandler.CreateBill)
			r.Route("/{billId}", func(r chi.Router) {
				r.Get("/", billsHandler.GetBill)
				r.Post("/pay", billsHandler.MarkBillPaid)
				r.Delete("/", billsHandler.DeleteBill)
			})
		})

		// Admin endpoints (admin token required) - strict rate limiting.
		// Deliberately not behind the feature gate: flag administration
		// must stay reachable when flags are off.
		r.Route("/admin", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RequireAdmin())
			r.Use(adminRateLimit)

			r.Route("/flags", func(r chi.Router) {
				r.Get("/", flagsHandler.ListFlags)
				r.Put("/", flagsHandler.UpsertFlags)
				r.Delete("/{key}", flagsHandler.DeleteFlag)
				r.Post("/invalidate", flagsHandler.InvalidateDecisions)
			})
			r.Post("/requirements/invalidate", flagsHandler.InvalidateRequirements)
		})
	})

	return r
}
