package admin

import (
	"time"

	"github.com/sngm3741/review-relay/internal/review/domain"
)

type failureResponse struct {
	ID           string     `json:"id"`
	SubmissionID string     `json:"submissionId"`
	ContactID    string     `json:"contactId"`
	Step         string     `json:"step"`
	Status       int        `json:"status,omitempty"`
	Error        string     `json:"error"`
	Email        string     `json:"email,omitempty"`
	Resolved     bool       `json:"resolved"`
	ResolvedBy   string     `json:"resolvedBy,omitempty"`
	ResolvedAt   *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type failureListResponse struct {
	Items []failureResponse `json:"items"`
}

func failureDomainToResponse(f domain.EnrichmentFailure) failureResponse {
	return failureResponse{
		ID:           f.ID,
		SubmissionID: f.SubmissionID,
		ContactID:    f.ContactID,
		Step:         string(f.Step),
		Status:       f.Status,
		Error:        f.Error,
		Email:        f.Email,
		Resolved:     f.Resolved,
		ResolvedBy:   f.ResolvedBy,
		ResolvedAt:   f.ResolvedAt,
		CreatedAt:    f.CreatedAt,
	}
}
