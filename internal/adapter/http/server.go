package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/field-risk-service/internal/domain"
	"github.com/couchcryptid/field-risk-service/internal/monitor"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Service is the screening slot the API drives. *monitor.Monitor implements it.
type Service interface {
	State() monitor.State
	Refresh(ctx context.Context) error
	SetInputs(ctx context.Context, in domain.UserInputs)
	SetLocation(ctx context.Context, loc domain.Location) error
	SearchPlace(ctx context.Context, query string) (domain.Location, error)
	Report() string
	CheckReadiness(ctx context.Context) error
}

// Server exposes the screening API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	svc        Service
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /v1 API, /healthz, /readyz, and /metrics routes.
func NewServer(addr string, svc Service, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		svc:      svc,
		validate: newValidator(),
		logger:   logger,
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(svc))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/assessment", s.handleGetAssessment)
		r.Post("/refresh", s.handleRefresh)
		r.Put("/inputs", s.handlePutInputs)
		r.Put("/location", s.handlePutLocation)
		r.Post("/location/search", s.handleSearchLocation)
		r.Get("/report", s.handleGetReport)
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
