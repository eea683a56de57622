package admin

import (
	"log"

	"github.com/go-chi/chi/v5"
	reviewapp "github.com/sngm3741/review-relay/internal/review/application"
)

// Handler wires admin HTTP endpoints to application services.
type Handler struct {
	logger   *log.Logger
	failures reviewapp.FailureQueryService
}

// Config provides dependencies for Handler.
type Config struct {
	Logger   *log.Logger
	Failures reviewapp.FailureQueryService
}

// NewHandler constructs an admin HTTP handler set.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		logger:   cfg.Logger,
		failures: cfg.Failures,
	}
}

// Register mounts admin routes onto router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/enrichment-failures", h.failureListHandler())
	r.Post("/enrichment-failures/{id}/resolve", h.failureResolveHandler())
}
