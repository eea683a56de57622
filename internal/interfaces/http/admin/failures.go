package admin

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sngm3741/review-relay/internal/interfaces/http/common"
	reviewapp "github.com/sngm3741/review-relay/internal/review/application"
	"github.com/sngm3741/review-relay/internal/review/domain"
)

func (h *Handler) failureListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		filter := reviewapp.FailureFilter{
			Step:     domain.Step(strings.TrimSpace(query.Get("step"))),
			Resolved: common.ParseOptionalBool(query.Get("resolved")),
		}
		limit, _ := common.ParsePositiveInt(query.Get("limit"), common.DefaultListLimit)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		failures, err := h.failures.List(ctx, filter, limit)
		if err != nil {
			h.logger.Printf("admin enrichment failure list fetch failed: %v", err)
			common.WriteError(h.logger, w, http.StatusInternalServerError, "Failed to list enrichment failures", "")
			return
		}

		items := make([]failureResponse, 0, len(failures))
		for _, failure := range failures {
			items = append(items, failureDomainToResponse(failure))
		}
		common.WriteJSON(h.logger, w, http.StatusOK, failureListResponse{Items: items})
	}
}

func (h *Handler) failureResolveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "id"))
		if id == "" {
			common.WriteError(h.logger, w, http.StatusBadRequest, "Failure id is required", "")
			return
		}

		resolvedBy := ""
		if user, ok := common.UserFromContext(r.Context()); ok {
			resolvedBy = user.ID
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := h.failures.Resolve(ctx, id, resolvedBy); err != nil {
			if errors.Is(err, reviewapp.ErrFailureNotFound) {
				common.WriteError(h.logger, w, http.StatusNotFound, "Enrichment failure not found", "")
				return
			}
			h.logger.Printf("admin enrichment failure resolve failed id=%s err=%v", id, err)
			common.WriteError(h.logger, w, http.StatusInternalServerError, "Failed to resolve enrichment failure", "")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
