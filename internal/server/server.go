// Package server hosts the HTTP surface for serve mode: health and
// version probes, run records and reports, history queries, and the
// Prometheus scrape endpoint.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/dataward/pushlog/internal/errors"
	"github.com/dataward/pushlog/internal/observability"
	"github.com/dataward/pushlog/internal/server/handlers"
	"github.com/dataward/pushlog/internal/server/middleware"
	"github.com/dataward/pushlog/pkg/history"
	"github.com/dataward/pushlog/pkg/runregistry"
)

// Options configures optional server features.
type Options struct {
	// Registry backs the /runs endpoints. Nil disables them.
	Registry *runregistry.Store

	// History backs the /history endpoints. Nil returns 501 from them.
	History *history.Store

	// Metrics mounts /metrics when set.
	Metrics *observability.Collector

	// RateLimit and Burst bound request throughput. Zero disables.
	RateLimit float64
	Burst     int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server wraps the HTTP listener and router.
type Server struct {
	host    string
	port    int
	opts    Options
	router  chi.Router
	httpSrv *http.Server
}

// New creates a Server bound to host:port with default options.
func New(host string, port int) *Server {
	return NewWithOptions(host, port, Options{})
}

// NewWithOptions creates a Server with explicit options.
func NewWithOptions(host string, port int, opts Options) *Server {
	s := &Server{host: host, port: port, opts: opts}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Recovery)
	if s.opts.RateLimit > 0 {
		r.Use(middleware.RateLimit(s.opts.RateLimit, s.opts.Burst))
	}

	r.NotFound(apperrors.NotFoundHandler)
	r.MethodNotAllowed(apperrors.MethodNotAllowedHandler)

	r.Get("/health", handlers.HealthHandler)
	r.Get("/health/live", handlers.LivenessHandler)
	r.Get("/health/ready", handlers.ReadinessHandler)
	r.Get("/health/startup", handlers.StartupHandler)
	r.Get("/version", handlers.VersionHandler)

	if s.opts.Registry != nil {
		runs := handlers.NewRunsHandler(s.opts.Registry, s.opts.History)
		r.Get("/runs", runs.List)
		r.Get("/runs/{run_id}", runs.Get)
		r.Get("/runs/{run_id}/report", runs.Report)
		r.Get("/runs/{run_id}/artifacts/{name}", runs.Artifact)
		r.Get("/history/trend", runs.Trend)
		r.Get("/history/errors", runs.RecurringErrors)
	}

	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics.Handler())
	}

	s.registerAdminEndpoint(r)

	return r
}

// registerAdminEndpoint mounts /admin/signal only when an admin token
// is configured in the environment.
func (s *Server) registerAdminEndpoint(r chi.Router) {
	token := os.Getenv("PUSHLOG_ADMIN_TOKEN")
	if token == "" {
		return
	}

	r.Post("/admin/signal", func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("Authorization") != "Bearer "+token {
			apperrors.RespondWithError(w, req,
				apperrors.NewHTTPError("UNAUTHORIZED", "invalid admin token", http.StatusUnauthorized))
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler { return s.router }

// Port returns the configured listen port.
func (s *Server) Port() int { return s.port }

// Addr returns the configured listen address.
func (s *Server) Addr() string { return net.JoinHostPort(s.host, fmt.Sprintf("%d", s.port)) }

// Start runs the HTTP server until the context is canceled, then
// drains with the given shutdown timeout.
func (s *Server) Start(ctx context.Context, shutdownTimeout time.Duration) error {
	s.httpSrv = &http.Server{
		Addr:         s.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		observability.CLILogger.Info("http server listening", zap.String("addr", s.Addr()))
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return <-errCh
}
