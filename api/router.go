// Package api provides the REST API for the trading pipeline. It includes
// routing, handlers, and middleware.
package api

import (
	"net/http"
	"time"

	"github.com/alexherrero/tradepipe/advisory"
	"github.com/alexherrero/tradepipe/audit"
	"github.com/alexherrero/tradepipe/config"
	"github.com/alexherrero/tradepipe/execution"
	"github.com/alexherrero/tradepipe/realtime"
	"github.com/alexherrero/tradepipe/risk"
	"github.com/alexherrero/tradepipe/strategy"
	"github.com/alexherrero/tradepipe/tracing"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

// NewRouter creates and configures the main HTTP router, wiring the
// strategy, risk, execution, and advisory engines plus the audit store
// and websocket broadcaster behind a single authenticated API surface.
func NewRouter(
	cfg *config.Config,
	strategies *strategy.Engine,
	riskEngine *risk.Engine,
	execEngine *execution.Engine,
	advisorySvc *advisory.Service,
	store *audit.Store,
	broadcaster *realtime.WebSocketManager,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(TraceMiddleware)
	r.Use(middleware.RealIP)
	r.Use(zerologLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Global: 100 requests per minute per IP.
	r.Use(httprate.LimitByIP(100, 1*time.Minute))
	// Burst protection: 20 requests per second per IP.
	r.Use(httprate.LimitByIP(20, 1*time.Second))

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, 1048576)
			next.ServeHTTP(w, r)
		})
	})

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("Content-Security-Policy", "default-src 'self'")
			next.ServeHTTP(w, r)
		})
	})

	r.Use(newCORSMiddleware(cfg))

	h := NewHandler(cfg, strategies, riskEngine, execEngine, advisorySvc, store, broadcaster)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"service": "tradepipe-api",
			"version": "1.0.0",
			"status":  "running",
		})
	})

	r.Get("/health", h.HealthHandler)

	if broadcaster != nil {
		r.Get("/events", broadcaster.HandleWebSocket)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(cfg))
		r.Use(AuditMiddleware)

		r.Get("/status", h.StatusHandler)

		r.Route("/strategies", func(r chi.Router) {
			r.Get("/", h.ListStrategiesHandler)
			r.Post("/{name}/activate", h.ActivateStrategyHandler)
			r.Post("/{name}/deactivate", h.DeactivateStrategyHandler)
		})

		r.Route("/risk", func(r chi.Router) {
			r.Get("/status", h.RiskStatusHandler)
			r.Post("/activate", h.ActivateRiskHandler)
			r.Post("/deactivate", h.DeactivateRiskHandler)
		})

		r.Route("/execution", func(r chi.Router) {
			r.Get("/status", h.ExecutionStatusHandler)
			r.Get("/orders", h.ExecutionOrdersHandler)
			r.Get("/history", h.ExecutionHistoryHandler)
		})

		r.Get("/account", h.AccountHandler)
		r.Get("/positions", h.PositionsHandler)

		r.Route("/ai", func(r chi.Router) {
			r.Post("/analyze", h.AnalyzePortfolioHandler)
			r.Post("/ideas/{id}/action", h.IdeaActionHandler)
		})

		r.Post("/market/simulate", h.SimulateMarketEventHandler)
	})

	return r
}

// zerologLogger is middleware that logs requests using zerolog. Includes
// the trace_id from context for request correlation.
func zerologLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger := tracing.Logger(r.Context())
		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request completed")
	})
}

// newCORSMiddleware creates CORS middleware with origin whitelisting.
func newCORSMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			for _, allowedOrigin := range cfg.AllowedOrigins {
				if origin == allowedOrigin {
					allowed = true
					break
				}
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, PATCH, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Max-Age", "3600")
			}

			if r.Method == "OPTIONS" {
				if allowed {
					w.WriteHeader(http.StatusOK)
				} else {
					w.WriteHeader(http.StatusForbidden)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
