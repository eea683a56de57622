package mongo

import (
	"time"

	"github.com/sngm3741/review-relay/internal/review/domain"
)

// EnrichmentFailureDocument は失敗したエンリッチメント手順 1 件分の MongoDB スキーマを表す。
type EnrichmentFailureDocument struct {
	ID           string     `bson:"_id"`
	SubmissionID string     `bson:"submissionId"`
	ContactID    string     `bson:"contactId"`
	Step         string     `bson:"step"`
	Status       int        `bson:"status,omitempty"`
	Error        string     `bson:"error"`
	Email        string     `bson:"email,omitempty"`
	Resolved     bool       `bson:"resolved"`
	ResolvedBy   string     `bson:"resolvedBy,omitempty"`
	ResolvedAt   *time.Time `bson:"resolvedAt,omitempty"`
	CreatedAt    time.Time  `bson:"createdAt"`
}

func enrichmentFailureToDocument(f domain.EnrichmentFailure) EnrichmentFailureDocument {
	return EnrichmentFailureDocument{
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

func (d EnrichmentFailureDocument) toDomain() domain.EnrichmentFailure {
	return domain.EnrichmentFailure{
		ID:           d.ID,
		SubmissionID: d.SubmissionID,
		ContactID:    d.ContactID,
		Step:         domain.Step(d.Step),
		Status:       d.Status,
		Error:        d.Error,
		Email:        d.Email,
		Resolved:     d.Resolved,
		ResolvedBy:   d.ResolvedBy,
		ResolvedAt:   d.ResolvedAt,
		CreatedAt:    d.CreatedAt,
	}
}
