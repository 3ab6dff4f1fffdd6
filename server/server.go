// Package server wires the HTTP surface of the reconciliation API: router,
// middleware chain, route table and graceful shutdown.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medreconcile/medreconcile-api/auth"
	"github.com/medreconcile/medreconcile-api/config"
	"github.com/medreconcile/medreconcile-api/handlers"
	"github.com/medreconcile/medreconcile-api/interfaces"
	"github.com/medreconcile/medreconcile-api/logging"
	"github.com/medreconcile/medreconcile-api/metrics"
)

// Dependencies carries everything the route table needs.
type Dependencies struct {
	Provider      interfaces.EngineProvider
	Terminology   interfaces.TerminologyGateway
	Scanner       interfaces.LabelScanner
	Simplifier    interfaces.Simplifier
	Records       interfaces.MedicationStore
	Authenticator interfaces.Authenticator
	Checker       interfaces.HealthChecker
	Validator     interfaces.RequestValidator
}

// Server is the HTTP server for the reconciliation API.
type Server struct {
	server *http.Server
	router chi.Router
	deps   Dependencies
	config *config.Config
}

// NewServer builds the server with its middleware chain and routes.
func NewServer(cfg *config.Config, deps Dependencies) *Server {
	router := chi.NewRouter()

	s := &Server{
		server: &http.Server{
			Handler:      router,
			Addr:         cfg.Address + ":" + cfg.Port,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router: router,
		deps:   deps,
		config: cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.RequestLogger(logging.Logger()))
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(metrics.Middleware)
	s.router.Use(RequestSizeMiddleware(s.config.MaxRequestBody))
	s.router.Use(NewRateLimiter().Middleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-User-ID"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Post("/analysis/appropriateness", handlers.AnalyzeAppropriateness(s.deps.Provider, s.deps.Validator))
	s.router.Post("/analysis/dosages", handlers.AnalyzeDosages(s.deps.Provider, s.deps.Validator))
	s.router.Post("/analysis/regimen", handlers.ValidateRegimen(s.deps.Provider, s.deps.Validator))
	s.router.Post("/analysis/reconcile", handlers.Reconcile(s.deps.Provider, s.deps.Terminology, s.deps.Validator))
	s.router.Post("/analysis/interactions", handlers.CheckInteractions(s.deps.Terminology, s.deps.Validator))

	s.router.Get("/evidence/{name}", handlers.MedicationRecommendations(s.deps.Provider, s.deps.Validator))

	s.router.Post("/tools/scan", handlers.ScanLabel(s.deps.Scanner))
	s.router.Post("/tools/simplify", handlers.SimplifyInstructions(s.deps.Simplifier, s.deps.Validator))

	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(s.deps.Authenticator))
		r.Post("/records/medications", handlers.CreateRecord(s.deps.Records, s.deps.Validator))
		r.Get("/records/medications", handlers.ListRecords(s.deps.Records))
		r.Get("/records/medications/{id}", handlers.GetRecord(s.deps.Records))
		r.Put("/records/medications/{id}", handlers.UpdateRecord(s.deps.Records, s.deps.Validator))
		r.Delete("/records/medications/{id}", handlers.DeleteRecord(s.deps.Records))
	})

	s.router.Get("/health", handlers.Health(s.deps.Checker))
	s.router.Handle("/metrics", promhttp.Handler())
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server until it is shut down.
func (s *Server) Start() error {
	logging.Info("Starting server", "addr", s.server.Addr, "env", s.config.Env)
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests, forcing a close when the context
// expires first.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}
