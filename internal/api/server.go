package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/eshaffer321/travel-backoffice/internal/api/handlers"
	"github.com/eshaffer321/travel-backoffice/internal/api/middleware"
	"github.com/eshaffer321/travel-backoffice/internal/application/service"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8085,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	audits     *service.AuditService
	recon      *service.ReconciliationService
}

// NewServer creates a new API server.
// If recon is nil, reconciliation endpoints will not be available.
func NewServer(cfg Config, audits *service.AuditService, recon *service.ReconciliationService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config: cfg,
		router: chi.NewRouter(),
		logger: logger,
		audits: audits,
		recon:  recon,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.Recoverer)

	// CORS
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = s.config.AllowedOrigins
	s.router.Use(middleware.CORS(corsConfig))

	// Request logging
	s.router.Use(middleware.Logging(s.logger))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler()
	s.router.Get("/health", healthHandler.ServeHTTP)
	s.router.NotFound(healthHandler.NotFound)
	s.router.MethodNotAllowed(healthHandler.MethodNotAllowed)

	s.router.Route("/api", func(r chi.Router) {
		// Flight reports and audit
		if s.audits != nil {
			reportsHandler := handlers.NewReportsHandler(s.audits, s.logger)
			r.Get("/reports", reportsHandler.List)
			r.Post("/reports", reportsHandler.Create)
			r.Get("/reports/{id}", reportsHandler.Get)
			r.Delete("/reports/{id}", reportsHandler.Delete)
			r.Put("/reports/{id}/discount", reportsHandler.UpdateDiscount)
			r.Post("/audit", reportsHandler.Audit)
		}

		// Statement reconciliation
		if s.recon != nil {
			reconHandler := handlers.NewReconciliationHandler(s.recon, s.logger)
			r.Post("/reconcile", reconHandler.Reconcile)
			r.Get("/reconciliation/settings", reconHandler.GetSettings)
			r.Put("/reconciliation/settings", reconHandler.UpdateSettings)
			r.Get("/reconciliation/runs", reconHandler.ListRuns)
			r.Get("/reconciliation/runs/{id}", reconHandler.GetRun)
		}
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}
