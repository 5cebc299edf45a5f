// Package server implements hubd's HTTP layer: the one-click page, the
// provisioning event stream, session administration and metrics.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hubward/hubward/internal/progress"
	"github.com/hubward/hubward/internal/provisioning"
)

// Provisioner runs one setup pipeline per request.
type Provisioner interface {
	Run(ctx context.Context, req provisioning.Request, sink progress.Sink) (provisioning.State, error)
}

// SessionAdmin is the registry surface the admin endpoints use.
type SessionAdmin interface {
	Keys() []string
	Len() int
	Disconnect(key string) error
}

// Server is hubd's HTTP server.
type Server struct {
	Router      chi.Router
	provisioner Provisioner
	sessions    SessionAdmin
	logger      logr.Logger
	static      http.Handler
}

// Option configures the Server.
type Option func(*Server)

// WithStaticHandler serves the one-click page for paths no API route
// claims.
func WithStaticHandler(h http.Handler) Option {
	return func(s *Server) { s.static = h }
}

// NewServer creates the hubd HTTP server with all routes registered.
func NewServer(prov Provisioner, sessions SessionAdmin, logger logr.Logger, opts ...Option) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		Router:      router,
		provisioner: prov,
		sessions:    sessions,
		logger:      logger.WithName("http"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.Get("/healthz", s.handleHealthz)
	s.Router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	s.Router.Post("/api/provision", s.handleProvision)
	s.Router.Get("/api/sessions", s.handleListSessions)
	s.Router.Delete("/api/sessions/{key}", s.handleDisconnectSession)

	if s.static != nil {
		s.Router.Handle("/*", s.static)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
