package public

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sngm3741/review-relay/internal/interfaces/http/common"
	reviewapp "github.com/sngm3741/review-relay/internal/review/application"
)

// Handler wires public HTTP endpoints to application services.
type Handler struct {
	logger      *log.Logger
	submissions reviewapp.SubmissionService
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger      *log.Logger
	Submissions reviewapp.SubmissionService
}

// NewHandler constructs a public HTTP handler set.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		logger:      cfg.Logger,
		submissions: cfg.Submissions,
	}
}

// Register mounts all public routes onto the router.
func (h *Handler) Register(r chi.Router) {
	r.MethodNotAllowed(h.methodNotAllowedHandler())
	r.Post("/api/review", h.reviewSubmitHandler())
}

func (h *Handler) methodNotAllowedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		common.WriteError(h.logger, w, http.StatusMethodNotAllowed, "Method not allowed", "")
	}
}
