package public

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sngm3741/review-relay/internal/interfaces/http/common"
	"github.com/sngm3741/review-relay/internal/monitoring"
	reviewapp "github.com/sngm3741/review-relay/internal/review/application"
	"github.com/sngm3741/review-relay/internal/review/domain"
)

const submitSuccessMessage = "Review submitted successfully"

func (h *Handler) reviewSubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.submissions.Ready(); err != nil {
			h.logger.Printf("review submission rejected: %v", err)
			h.writeSubmitError(w, r, err)
			return
		}

		defer r.Body.Close()

		var req submitReviewRequest
		decoder := json.NewDecoder(io.LimitReader(r.Body, common.MaxReviewRequestBody))
		if err := decoder.Decode(&req); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, "Invalid request body", err.Error())
			return
		}

		sub := req.toDomain()
		h.logger.Printf("received submission: name=%q email=%q rating=%q location=%q", sub.Name, sub.Email, sub.Rating.String(), sub.Location)

		if err := sub.Validate(); err != nil {
			h.writeSubmitError(w, r, err)
			return
		}

		result, err := h.submissions.Submit(r.Context(), sub)
		if err != nil {
			h.writeSubmitError(w, r, err)
			return
		}

		h.logger.Printf("review submitted successfully: contact=%s submission=%s", result.ContactID, result.SubmissionID)
		common.WriteJSON(h.logger, w, http.StatusOK, submitReviewResponse{
			Success:   true,
			ContactID: result.ContactID,
			Message:   submitSuccessMessage,
		})
	}
}

// writeSubmitError maps submission errors onto the response contract.
// Anything unrecognised is a server error and goes to Sentry.
func (h *Handler) writeSubmitError(w http.ResponseWriter, r *http.Request, err error) {
	var upstream *reviewapp.UpstreamError
	switch {
	case errors.Is(err, reviewapp.ErrMissingCredentials):
		common.WriteError(h.logger, w, http.StatusInternalServerError, "Server configuration error", "Missing API credentials")
	case errors.Is(err, domain.ErrMissingRequiredFields):
		common.WriteError(h.logger, w, http.StatusBadRequest, "Missing required fields", "Name and email are required")
	case errors.As(err, &upstream) && upstream.Step == domain.StepUpsert:
		common.WriteJSON(h.logger, w, upstream.Status, upstreamErrorResponse{
			Step:  string(upstream.Step),
			Error: upstream.Body,
		})
	case errors.Is(err, reviewapp.ErrNoContactID):
		common.WriteError(h.logger, w, http.StatusInternalServerError, "Failed to create/update contact", "No contact ID returned")
	default:
		h.logger.Printf("server error: %v", err)
		monitoring.CaptureError(err, r, map[string]interface{}{"endpoint": r.URL.Path})
		common.WriteError(h.logger, w, http.StatusInternalServerError, "Server error", err.Error())
	}
}
