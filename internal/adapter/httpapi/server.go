// Package httpapi exposes the engine's command and query surface over HTTP.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kalasag-ph/suspension-engine/internal/suspension"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server wires the suspension services into an HTTP server with health,
// readiness, and metrics routes alongside the v1 API.
type Server struct {
	httpServer *http.Server
	registry   *suspension.Registry
	workflow   *suspension.Workflow
	logger     *slog.Logger
}

// NewServer builds the router and server. ws may be nil when no websocket
// endpoint is wanted.
func NewServer(addr string, registry *suspension.Registry, workflow *suspension.Workflow, ready ReadinessChecker, ws http.Handler, logger *slog.Logger) *Server {
	s := &Server{
		registry: registry,
		workflow: workflow,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", handleReady(ready))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/suspensions", func(r chi.Router) {
			r.Get("/active", s.handleActive)
			r.Get("/history", s.handleHistory)
			r.Get("/{id}", s.handleGetSuspension)
			r.Post("/", s.handleIssue)
			r.Post("/{id}/extend", s.handleExtend)
			r.Post("/{id}/lift", s.handleLift)
			r.Post("/{id}/reevaluate", s.handleReevaluate)
		})
		r.Route("/requests", func(r chi.Router) {
			r.Get("/", s.handleListRequests)
			r.Get("/pending", s.handlePendingRequests)
			r.Post("/", s.handleSubmitRequest)
			r.Post("/{id}/approve", s.handleApproveRequest)
			r.Post("/{id}/reject", s.handleRejectRequest)
			r.Post("/{id}/cancel", s.handleCancelRequest)
		})
		r.Post("/candidates/evaluate", s.handleEvaluateCandidate)
		r.Get("/cities/{city}/stats", s.handleCityStats)
		if ws != nil {
			r.Method(http.MethodGet, "/ws", ws)
		}
	})

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
