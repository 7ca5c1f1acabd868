package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nodoventures/vaultsight/internal/domain"
	"github.com/nodoventures/vaultsight/internal/server/handler"
	"github.com/nodoventures/vaultsight/internal/server/middleware"
	"github.com/nodoventures/vaultsight/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port            int
	CORSOrigins     []string
	APIKey          string // if empty, authentication is disabled
	RateLimitPerMin int    // if zero, rate limiting is disabled
}

// Handlers aggregates all HTTP handlers the server registers.
type Handlers struct {
	Health     *handler.HealthHandler
	Activities *handler.ActivityHandler
	Insights   *handler.InsightHandler
	Holdings   *handler.HoldingHandler
	Breakdowns *handler.BreakdownHandler
	Sessions   *handler.SessionHandler
	Audit      *handler.AuditHandler // nil when the server runs without Postgres
}

// Server is the HTTP + WebSocket API server for vault insights.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered on the ServeMux and
// the middleware chain (rate limit, auth, logging, CORS) wired around it.
// limiter may be nil when rate limiting is disabled.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Vault data endpoints.
	mux.HandleFunc("GET /api/vaults/{id}/activities", handlers.Activities.ListActivities)
	mux.HandleFunc("GET /api/vaults/{id}/insights", handlers.Insights.GetInsights)
	mux.HandleFunc("POST /api/vaults/{id}/insights/refresh", handlers.Insights.RefreshInsights)
	mux.HandleFunc("GET /api/vaults/{id}/holding", handlers.Holdings.GetHolding)
	mux.HandleFunc("GET /api/vaults/{id}/breakdown", handlers.Breakdowns.GetBreakdown)

	// Operational audit log, only available with a database behind it.
	if handlers.Audit != nil {
		mux.HandleFunc("GET /api/audit", handlers.Audit.ListEntries)
	}

	// Wallet session endpoints.
	mux.HandleFunc("POST /api/session/connect", handlers.Sessions.Connect)
	mux.HandleFunc("POST /api/session/disconnect", handlers.Sessions.Disconnect)

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain, innermost first.
	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	if limiter != nil && cfg.RateLimitPerMin > 0 {
		h = middleware.RateLimit(limiter, cfg.RateLimitPerMin, time.Minute)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
