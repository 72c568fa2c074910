// Package httpadapter serves the dashboard API alongside the health,
// readiness and metrics endpoints.
package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/la-crime-etl/internal/dashboard"
	"github.com/couchcryptid/la-crime-etl/internal/source"
)

// SnapshotService builds dashboard snapshots for a filter.
type SnapshotService interface {
	Snapshot(ctx context.Context, filter source.Filter) (dashboard.Snapshot, error)
}

// Server exposes the dashboard API plus /healthz, /readyz and /metrics.
type Server struct {
	httpServer *http.Server
	snapshots  SnapshotService
	location   *time.Location
	logger     *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLocation sets the zone used to interpret timeframes and custom date
// ranges. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) {
		if loc != nil {
			s.location = loc
		}
	}
}

// NewServer creates the HTTP server and its routes.
func NewServer(addr string, snapshots SnapshotService, ready sharedobs.ReadinessChecker, logger *slog.Logger, opts ...Option) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		snapshots: snapshots,
		location:  time.Local,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.logRequests)
		r.Get("/incidents", s.handleIncidents)
		r.Get("/mix", s.handleMix)
		r.Get("/categories", handleCategories)
		r.Get("/forecast", s.handleForecast)
	})

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

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("api request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
