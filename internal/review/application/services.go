package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sngm3741/review-relay/internal/review/domain"
)

var (
	// ErrMissingCredentials means the CRM token or location id was not configured.
	ErrMissingCredentials = errors.New("missing API credentials")
	// ErrNoContactID means the upsert succeeded but neither contact.id nor id came back.
	ErrNoContactID = errors.New("no contact ID returned")
	// ErrFailureNotFound is returned when resolving an unknown ledger entry.
	ErrFailureNotFound = errors.New("enrichment failure not found")
)

// UpstreamError is a non-2xx answer from the CRM. Body is the raw response text.
type UpstreamError struct {
	Step   domain.Step
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s failed: status=%d body=%s", e.Step, e.Status, e.Body)
}

// CustomFieldMode selects how custom fields reach the CRM.
type CustomFieldMode string

const (
	// CustomFieldsInline sends custom fields inside the upsert body.
	CustomFieldsInline CustomFieldMode = "inline"
	// CustomFieldsUpdate upserts first, then sets custom fields with a separate PUT.
	CustomFieldsUpdate CustomFieldMode = "update"
)

// ParseCustomFieldMode falls back to inline for anything it does not recognise.
func ParseCustomFieldMode(raw string) CustomFieldMode {
	if CustomFieldMode(raw) == CustomFieldsUpdate {
		return CustomFieldsUpdate
	}
	return CustomFieldsInline
}

// CustomFieldIDs are the CRM's opaque ids for the review fields.
type CustomFieldIDs struct {
	Rating         string
	ReviewLocation string
	ReviewDate     string
	Feedback       string
}

// CustomFieldValue sets one custom field on a contact.
type CustomFieldValue struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// ContactUpsert is the create-or-update payload keyed by email.
type ContactUpsert struct {
	LocationID   string
	Name         string
	Email        string
	Phone        string
	Source       string
	CustomFields []CustomFieldValue
}

// UpsertedContact carries the parsed upsert response.
// Found is false when the response named no contact.
type UpsertedContact struct {
	ID    string
	Found bool
	Shape string
}

// CRMClient is the outbound port to the CRM.
type CRMClient interface {
	UpsertContact(ctx context.Context, in ContactUpsert) (UpsertedContact, error)
	UpdateCustomFields(ctx context.Context, contactID string, fields []CustomFieldValue) error
	CreateNote(ctx context.Context, contactID, body string) error
	AddTags(ctx context.Context, contactID string, tags []string) error
}

// FailureRecorder stores best-effort steps that failed.
type FailureRecorder interface {
	Record(ctx context.Context, failure domain.EnrichmentFailure) error
}

// FailureRepository is the ledger behind the admin API.
type FailureRepository interface {
	FailureRecorder
	Find(ctx context.Context, filter FailureFilter, limit int) ([]domain.EnrichmentFailure, error)
	Resolve(ctx context.Context, id, resolvedBy string, at time.Time) error
}

// FailureFilter narrows ledger listings. Nil Resolved lists everything.
type FailureFilter struct {
	Step     domain.Step
	Resolved *bool
}

// StepObserver receives every step outcome, for metrics.
type StepObserver interface {
	ObserveStep(outcome domain.StepOutcome)
}

// Credentials are the server-side secrets every CRM call needs.
type Credentials struct {
	AccessToken string
	LocationID  string
}

// SubmissionService forwards review submissions into the CRM.
type SubmissionService interface {
	// Ready reports ErrMissingCredentials when the CRM cannot be called at all.
	Ready() error
	Submit(ctx context.Context, sub domain.Submission) (*domain.Result, error)
}

// FailureQueryService is the admin view over the failure ledger.
type FailureQueryService interface {
	List(ctx context.Context, filter FailureFilter, limit int) ([]domain.EnrichmentFailure, error)
	Resolve(ctx context.Context, id, resolvedBy string) error
}
