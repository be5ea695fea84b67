package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"keygate/internal/services"
)

// HealthReporter is what the health endpoints need from services.HealthService
type HealthReporter interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) (services.HealthStatus, error)
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() services.VersionInfo
}

// HealthHandler serves the probe and version endpoints
type HealthHandler struct {
	reporter HealthReporter
	logger   *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(reporter HealthReporter, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		reporter: reporter,
		logger:   logger.With(slog.String("handler", "health")),
	}
}

// Routes returns the /health subtree
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Health)
	r.Get("/live", h.Live)
	r.Get("/ready", h.Ready)
	return r
}

// Health handles GET /health. It answers 200 even when degraded.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.reporter.HealthCheck(r.Context()))
}

// Ready handles GET /health/ready, 503 while the store is unreachable
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status, err := h.reporter.ReadinessCheck(r.Context())
	if err != nil {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, status)
}

// Live handles GET /health/live
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.reporter.LivenessCheck(r.Context()))
}

// Version handles GET /version
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.reporter.Version())
}
