// Package server exposes the splitters over HTTP: synchronous split
// endpoints, asynchronous job endpoints backed by the job store, and
// the usual health probes.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/christian-hnz/functime/pkg/config"
	"github.com/christian-hnz/functime/pkg/dataset"
	"github.com/christian-hnz/functime/pkg/jobs"
	"github.com/christian-hnz/functime/pkg/server/handlers"
	"github.com/christian-hnz/functime/pkg/telemetry"
)

// Server represents the HTTP server
type Server struct {
	config  *config.Config
	router  *gin.Engine
	store   *jobs.Store
	fetcher *dataset.Fetcher
	logger  *slog.Logger
	server  *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, store *jobs.Store, fetcher *dataset.Fetcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:  cfg,
		store:   store,
		fetcher: fetcher,
		logger:  logger,
	}
}

// Setup sets up the server routes and middleware
func (s *Server) Setup() {
	// Set gin mode
	gin.SetMode(s.config.Server.Mode)

	// Create router
	s.router = gin.New()

	// Add middleware
	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())
	s.router.Use(sourceMiddleware())

	// Setup routes
	s.setupRoutes()

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
}

// setupRoutes sets up all the routes
func (s *Server) setupRoutes() {
	// Create handlers
	healthHandler := handlers.NewHealthHandler(s.store)
	splitHandler := handlers.NewSplitHandler(s.fetcher, s.logger)
	jobsHandler := handlers.NewJobsHandler(s.store, s.fetcher, s.config.Output.Dir, s.config.Output.Format, s.logger)

	// Health endpoints
	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/healthcheck", healthHandler.HealthCheck) // Legacy endpoint
	s.router.GET("/ready", healthHandler.ReadinessCheck)
	s.router.GET("/live", healthHandler.LivenessCheck) // Kubernetes liveness probe
	s.router.GET("/health/detailed", healthHandler.DetailedHealthCheck)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		// Synchronous split routes
		split := v1.Group("/split")
		{
			split.POST("/holdout", splitHandler.Holdout)
			split.POST("/expanding", splitHandler.Expanding)
			split.POST("/sliding", splitHandler.Sliding)
		}

		// Asynchronous job routes
		jobsGroup := v1.Group("/jobs")
		{
			jobsGroup.POST("/split", jobsHandler.Submit)
			jobsGroup.GET("", jobsHandler.List)
			jobsGroup.GET("/:id", jobsHandler.Status)
		}
	}
}

// Start starts the server
func (s *Server) Start() error {
	s.logger.Info("Starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping server")
	return s.server.Shutdown(ctx)
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// sourceMiddleware tags request contexts so telemetry records carry
// their origin
func sourceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := telemetry.WithSource(c.Request.Context(), "api")
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
