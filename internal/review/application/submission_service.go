package application

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/sngm3741/review-relay/internal/review/domain"
)

// isoMillis matches the browser's Date.toISOString output.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// SubmissionConfig provides dependencies for the submission service.
type SubmissionConfig struct {
	Logger        *log.Logger
	CRM           CRMClient
	Credentials   Credentials
	FieldIDs      CustomFieldIDs
	Mode          CustomFieldMode
	DefaultSource string
	Failures      FailureRecorder
	Observer      StepObserver
	Now           func() time.Time
	NewID         func() string
}

type submissionService struct {
	logger        *log.Logger
	crm           CRMClient
	credentials   Credentials
	fieldIDs      CustomFieldIDs
	mode          CustomFieldMode
	defaultSource string
	failures      FailureRecorder
	observer      StepObserver
	now           func() time.Time
	newID         func() string
}

// NewSubmissionService creates a SubmissionService.
func NewSubmissionService(cfg SubmissionConfig) SubmissionService {
	s := &submissionService{
		logger:        cfg.Logger,
		crm:           cfg.CRM,
		credentials:   cfg.Credentials,
		fieldIDs:      cfg.FieldIDs,
		mode:          cfg.Mode,
		defaultSource: cfg.DefaultSource,
		failures:      cfg.Failures,
		observer:      cfg.Observer,
		now:           cfg.Now,
		newID:         cfg.NewID,
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.mode == "" {
		s.mode = CustomFieldsInline
	}
	if s.defaultSource == "" {
		s.defaultSource = domain.DefaultSource
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

func (s *submissionService) Ready() error {
	if s.credentials.AccessToken == "" || s.credentials.LocationID == "" {
		return ErrMissingCredentials
	}
	return nil
}

// Submit upserts the contact and then enriches it. Only the upsert can fail the call;
// note, tag and custom-field failures end up in the result and the failure ledger.
func (s *submissionService) Submit(ctx context.Context, sub domain.Submission) (*domain.Result, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	// The browser may go away mid-sequence; the contact is already saved by then.
	ctx = context.WithoutCancel(ctx)

	result := &domain.Result{SubmissionID: s.newID()}
	date := sub.Date
	if date == "" {
		date = s.now().UTC().Format(isoMillis)
	}
	source := sub.Source
	if source == "" {
		source = s.defaultSource
	}
	fields := s.customFields(sub, date)

	s.logger.Printf("submission %s: upserting contact email=%q rating=%q location=%q", result.SubmissionID, sub.Email, sub.Rating.String(), sub.Location)
	upsert := ContactUpsert{
		LocationID: s.credentials.LocationID,
		Name:       sub.Name,
		Email:      sub.Email,
		Phone:      sub.Phone,
		Source:     source,
	}
	if s.mode == CustomFieldsInline {
		upsert.CustomFields = fields
	}
	contact, err := s.crm.UpsertContact(ctx, upsert)
	if err != nil {
		s.observe(result, domain.StepUpsert, err)
		s.logger.Printf("submission %s: upsert failed: %v", result.SubmissionID, err)
		return nil, err
	}
	if !contact.Found {
		s.observe(result, domain.StepUpsert, ErrNoContactID)
		s.logger.Printf("submission %s: upsert returned no contact id", result.SubmissionID)
		return nil, ErrNoContactID
	}
	s.observe(result, domain.StepUpsert, nil)
	result.ContactID = contact.ID
	s.logger.Printf("submission %s: contact %s saved (id from %s)", result.SubmissionID, contact.ID, contact.Shape)

	if s.mode == CustomFieldsUpdate {
		err := s.crm.UpdateCustomFields(ctx, contact.ID, fields)
		s.enrichmentDone(ctx, result, sub, domain.StepCustomFields, err)
	}

	err = s.crm.CreateNote(ctx, contact.ID, domain.BuildNote(sub, date, source))
	s.enrichmentDone(ctx, result, sub, domain.StepNote, err)

	if tag, ok := domain.LowRatingTag(sub.Rating); ok {
		s.logger.Printf("submission %s: tagging contact %s with %q", result.SubmissionID, contact.ID, tag)
		err := s.crm.AddTags(ctx, contact.ID, []string{tag})
		s.enrichmentDone(ctx, result, sub, domain.StepTag, err)
	}

	if failed := result.Failed(); len(failed) > 0 {
		s.logger.Printf("submission %s: contact %s saved with %d failed enrichment step(s)", result.SubmissionID, contact.ID, len(failed))
	}
	return result, nil
}

func (s *submissionService) customFields(sub domain.Submission, date string) []CustomFieldValue {
	return []CustomFieldValue{
		{ID: s.fieldIDs.Rating, Value: sub.Rating.String()},
		{ID: s.fieldIDs.ReviewLocation, Value: sub.Location},
		{ID: s.fieldIDs.ReviewDate, Value: date},
		{ID: s.fieldIDs.Feedback, Value: sub.Feedback},
	}
}

func (s *submissionService) observe(result *domain.Result, step domain.Step, err error) domain.StepOutcome {
	outcome := domain.StepOutcome{Step: step, OK: err == nil}
	if err != nil {
		outcome.Error = err.Error()
		var upstream *UpstreamError
		if errors.As(err, &upstream) {
			outcome.Status = upstream.Status
			outcome.Error = upstream.Body
		}
	}
	result.Steps = append(result.Steps, outcome)
	if s.observer != nil {
		s.observer.ObserveStep(outcome)
	}
	return outcome
}

func (s *submissionService) enrichmentDone(ctx context.Context, result *domain.Result, sub domain.Submission, step domain.Step, err error) {
	outcome := s.observe(result, step, err)
	if outcome.OK {
		return
	}
	s.logger.Printf("submission %s: %s failed for contact %s: %v", result.SubmissionID, step, result.ContactID, err)
	if s.failures == nil {
		return
	}
	failure := domain.EnrichmentFailure{
		ID:           s.newID(),
		SubmissionID: result.SubmissionID,
		ContactID:    result.ContactID,
		Step:         step,
		Status:       outcome.Status,
		Error:        outcome.Error,
		Email:        sub.Email,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.failures.Record(ctx, failure); err != nil {
		s.logger.Printf("submission %s: failed to record %s failure: %v", result.SubmissionID, step, err)
	}
}
