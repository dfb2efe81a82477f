// Package server is the HTTP and WebSocket API over the scan engine.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/solarb/internal/domain"
	"github.com/alanyoungcy/solarb/internal/server/handler"
	"github.com/alanyoungcy/solarb/internal/server/middleware"
	"github.com/alanyoungcy/solarb/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // empty disables authentication
	RateLimit   int
	RateWindow  time.Duration
}

// Handlers aggregates the route handlers. Nil entries leave their routes
// unregistered.
type Handlers struct {
	Health        *handler.HealthHandler
	Status        *handler.StatusHandler
	Opportunities *handler.OpportunityHandler
	Network       *handler.NetworkHandler
	Prices        *handler.PriceHandler
	Catalog       *handler.CatalogHandler
	Scans         *handler.ScansHandler
	Metrics       http.Handler
}

// Server is the API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// publicPaths skip API-key authentication.
var publicPaths = []string{"/api/health", "/metrics"}

// NewServer registers routes and wraps them in CORS, logging, rate limiting
// and auth, outermost first.
func NewServer(cfg Config, handlers Handlers, hub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	registerRoutes(mux, handlers, hub)

	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey, publicPaths...)(h)
	h = middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateWindow, logger)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			// Full scans run inside the request.
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

func registerRoutes(mux *http.ServeMux, h Handlers, hub *ws.Hub) {
	if h.Health != nil {
		mux.HandleFunc("GET /api/health", h.Health.HealthCheck)
	}
	if h.Status != nil {
		mux.HandleFunc("GET /api/status", h.Status.GetStatus)
	}
	if h.Opportunities != nil {
		mux.HandleFunc("GET /api/opportunities", h.Opportunities.ListOpportunities)
		mux.HandleFunc("GET /api/opportunities/{symbol}", h.Opportunities.GetOpportunity)
		mux.HandleFunc("POST /api/opportunities/reprice", h.Opportunities.Reprice)
	}
	if h.Network != nil {
		mux.HandleFunc("GET /api/network", h.Network.GetNetwork)
		mux.HandleFunc("GET /api/network/transactions", h.Network.ListTransactions)
	}
	if h.Prices != nil {
		mux.HandleFunc("GET /api/prices", h.Prices.GetPrices)
		mux.HandleFunc("GET /api/prices/history", h.Prices.GetHistory)
	}
	if h.Catalog != nil {
		mux.HandleFunc("GET /api/catalog", h.Catalog.ListAssets)
	}
	if h.Scans != nil {
		mux.HandleFunc("GET /api/scans", h.Scans.ListScans)
	}
	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics)
	}
	if hub != nil {
		mux.HandleFunc("GET /ws", hub.HandleWS)
	}
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens until the server fails or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown waits for in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
