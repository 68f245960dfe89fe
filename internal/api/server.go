// Package api exposes the reconciliation service over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eshaffer321/statement-reconciler/internal/api/handlers"
	"github.com/eshaffer321/statement-reconciler/internal/api/middleware"
	"github.com/eshaffer321/statement-reconciler/internal/application/service"
	"github.com/eshaffer321/statement-reconciler/internal/infrastructure/metrics"
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
	router     *gin.Engine
	httpServer *http.Server
	logger     *slog.Logger
	svc        *service.ReconcileService
	metrics    metrics.Collector
	gatherer   prometheus.Gatherer
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records request metrics to collector and serves gatherer on /metrics.
// A nil gatherer leaves /metrics unregistered.
func WithMetrics(collector metrics.Collector, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		if collector != nil {
			s.metrics = collector
		}
		s.gatherer = gatherer
	}
}

// NewServer creates a new API server.
func NewServer(cfg Config, svc *service.ReconcileService, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:  cfg,
		router:  gin.New(),
		logger:  logger,
		svc:     svc,
		metrics: metrics.NoOpCollector{},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // statement extraction can take a while
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())

	// CORS
	corsConfig := middleware.DefaultCORSConfig()
	if len(s.config.AllowedOrigins) > 0 {
		corsConfig.AllowedOrigins = s.config.AllowedOrigins
	}
	s.router.Use(middleware.CORS(corsConfig))

	// Request logging and metrics
	s.router.Use(middleware.Logging(s.logger))
	s.router.Use(middleware.Metrics(s.metrics))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler(s.svc.ExtractionEnabled())
	s.router.GET("/health", healthHandler.Get)

	if s.gatherer != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	api := s.router.Group("/api")
	{
		// Imports
		importsHandler := handlers.NewImportsHandler(s.svc, s.logger)
		api.POST("/imports/csv", importsHandler.CSV)
		api.POST("/imports/extracted", importsHandler.Extracted)
		api.POST("/imports/statement", importsHandler.Statement)
		api.GET("/imports", importsHandler.List)
		api.GET("/imports/:id", importsHandler.Get)

		// Transactions and status transitions
		txHandler := handlers.NewTransactionsHandler(s.svc, s.logger)
		api.GET("/transactions", txHandler.List)
		api.GET("/transactions/:id", txHandler.Get)
		api.GET("/transactions/:id/candidates", txHandler.Candidates)
		api.POST("/transactions/:id/match", txHandler.Match)
		api.POST("/transactions/:id/discrepancy", txHandler.Discrepancy)
		api.POST("/transactions/:id/unmatch", txHandler.Unmatch)
		api.DELETE("/transactions/:id", txHandler.Delete)

		// Ledger
		expensesHandler := handlers.NewExpensesHandler(s.svc, s.logger)
		api.GET("/expenses", expensesHandler.List)
		api.POST("/expenses", expensesHandler.Create)

		// Batch reconciliation
		reconcileHandler := handlers.NewReconcileHandler(s.svc, s.logger)
		api.POST("/reconcile/auto", reconcileHandler.Auto)

		// Reports
		reportsHandler := handlers.NewReportsHandler(s.svc, s.logger)
		api.GET("/reports/recurring", reportsHandler.Recurring)
		api.GET("/reports/top-vendors", reportsHandler.TopVendors)

		// Stats
		statsHandler := handlers.NewStatsHandler(s.svc, s.logger)
		api.GET("/stats", statsHandler.Get)
	}
}

// Start listens and serves until Shutdown is called. A clean shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.httpServer.Addr)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("server error: %w", err)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

// Router returns the HTTP handler for testing.
func (s *Server) Router() http.Handler {
	return s.router
}
