// Package server provides HTTP server management and lifecycle handling for the govdata API.
// It includes server setup, middleware configuration, route management, and graceful shutdown.
package server

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/giygas/govdata-api/config"
	"github.com/giygas/govdata-api/interfaces"
	"github.com/giygas/govdata-api/logging"
	"github.com/giygas/govdata-api/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server represents the HTTP server
type Server struct {
	server  *http.Server
	router  chi.Router
	handler interfaces.HTTPHandler
	limiter *RateLimiter
	config  *config.Config

	stopCleanup func()
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, handler interfaces.HTTPHandler) *Server {
	return newServer(cfg, handler, NewRateLimiter(3, 1000))
}

func newServer(cfg *config.Config, handler interfaces.HTTPHandler, limiter *RateLimiter) *Server {
	router := chi.NewRouter()

	server := &Server{
		server: &http.Server{
			Handler:      router,
			Addr:         cfg.Address + ":" + cfg.Port,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 2 * time.Minute, // cold cache loads of the upstream files are slow
			IdleTimeout:  60 * time.Second,
		},
		router:  router,
		handler: handler,
		limiter: limiter,
		config:  cfg,
	}

	server.stopCleanup = server.limiter.StartCleanup(30 * time.Minute)
	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	if s.config.Env == config.EnvProduction {
		s.router.Use(BlockDirectAccessMiddleware) // Put BEFORE RealIPMiddleware to see original RemoteAddr
	}
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.LoggingMiddleware(logging.Logger()))
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(s.limiter.Handler)
	s.router.Use(metrics.Metrics)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	h := s.handler

	s.router.Route("/v1", func(r chi.Router) {
		r.Route("/metastore/schemas", func(r chi.Router) {
			r.Get("/", h.ListSchemas)
			r.Get("/{schema}", h.GetSchema)
			r.Get("/{schema}/items", h.ListItems)
			r.Get("/{schema}/items/{id}", h.GetItem)
		})

		r.Get("/datasets/urls", h.DatasetURLs)
		r.Get("/datasets/search", h.SearchDatasets)
		r.Get("/datasets/{id}/distribution-id", h.DatasetToDistribution)

		r.Get("/distributions/search", h.SearchDistributions)
		r.Get("/distributions/{id}/dataset-id", h.DistributionToDataset)

		r.Get("/mortality", h.ServeMortality)
		r.Get("/mortality/chart", h.ServeMortalityChart)

		r.Get("/orangebook/application/{number}", h.FindByApplicationNumber)
		r.Get("/orangebook/ndc/{ndc}", h.FindByNDC)
		r.Get("/orangebook/products", h.FindProducts)
	})

	s.router.Get("/health", h.HealthCheck)
	s.router.Handle("/metrics", promhttp.Handler())
}

// Router exposes the configured router, mainly for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the server
func (s *Server) Start() error {
	// Start profiling server if in development mode
	if s.config.Env == config.EnvDevelopment {
		s.startProfilingServer()
	}

	logging.Info(fmt.Sprintf("Starting server at: %s:%s", s.config.Address, s.config.Port))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")
	s.stopCleanup()

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		// If graceful shutdown fails, force close
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}

// startProfilingServer starts the pprof profiling server in development mode
func (s *Server) startProfilingServer() {
	go func() {
		logging.Info("Profiling server started at http://localhost:6060/debug/pprof/")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			logging.Warn("Profiling server failed", "error", err)
		}
	}()
}
