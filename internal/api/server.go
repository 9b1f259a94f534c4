// Package api exposes the HTTP surface: campaign management, recipient
// upload, sending, A/B results, batch scheduling and the tracking
// endpoints embedded in outgoing mail.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/foxzi/splitmail/internal/campaign"
	"github.com/foxzi/splitmail/internal/config"
	"github.com/foxzi/splitmail/internal/metrics"
	"github.com/foxzi/splitmail/internal/repository"
	"github.com/foxzi/splitmail/internal/schedule"
)

// Server is the HTTP API server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	campaigns  *campaign.Service
	campRepo   *repository.CampaignRepository
	recipients *repository.RecipientRepository
	store      *schedule.Store
	config     *config.ServerConfig
	metrics    *metrics.Metrics
	logger     *slog.Logger
	startTime  time.Time
}

// NewServer creates a new API server
func NewServer(
	svc *campaign.Service,
	campRepo *repository.CampaignRepository,
	recipients *repository.RecipientRepository,
	store *schedule.Store,
	cfg *config.ServerConfig,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		campaigns:  svc,
		campRepo:   campRepo,
		recipients: recipients,
		store:      store,
		config:     cfg,
		metrics:    m,
		logger:     logger.With("component", "api"),
		startTime:  time.Now(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	// Middleware
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.metrics.HTTPMiddleware)

	// Health check and metrics (no auth required)
	s.router.Get("/health", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	// Tracking endpoints must stay open: they are hit by mail clients,
	// not by API consumers
	s.router.Get("/pixel/{token}", s.handlePixel)
	s.router.Get("/click/{token}", s.handleClick)

	// API v1 routes (auth required)
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Post("/campaigns", s.handleCreateCampaign)
		r.Get("/campaigns", s.handleListCampaigns)
		r.Get("/campaigns/{id}", s.handleGetCampaign)
		r.Get("/campaigns/{id}/variations", s.handleGetVariations)
		r.Get("/campaigns/{id}/results", s.handleGetResults)
		r.Post("/campaigns/{id}/recipients", s.handleUploadRecipients)
		r.Post("/campaigns/{id}/send", s.handleSendCampaign)

		r.Post("/schedule", s.handleSchedule)
		r.Get("/schedule", s.handleListBatches)
	})
}

// Handler returns the root handler, for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting HTTP API server", "addr", s.config.ListenAddr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP API server")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
