package application

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/sngm3741/review-relay/internal/review/domain"
)

var errMockNetwork = errors.New("connection refused")

// crmCall is one recorded call against the mock CRM.
type crmCall struct {
	Method    string
	ContactID string
	Upsert    ContactUpsert
	Fields    []CustomFieldValue
	Note      string
	Tags      []string
}

// MockCRM implements CRMClient for testing.
type MockCRM struct {
	UpsertFunc       func(ctx context.Context, in ContactUpsert) (UpsertedContact, error)
	UpdateFieldsFunc func(ctx context.Context, contactID string, fields []CustomFieldValue) error
	CreateNoteFunc   func(ctx context.Context, contactID, body string) error
	AddTagsFunc      func(ctx context.Context, contactID string, tags []string) error

	Calls []crmCall
}

func (m *MockCRM) UpsertContact(ctx context.Context, in ContactUpsert) (UpsertedContact, error) {
	m.Calls = append(m.Calls, crmCall{Method: "upsert", Upsert: in})
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, in)
	}
	return UpsertedContact{ID: "contact-1", Found: true, Shape: "contact.id"}, nil
}

func (m *MockCRM) UpdateCustomFields(ctx context.Context, contactID string, fields []CustomFieldValue) error {
	m.Calls = append(m.Calls, crmCall{Method: "custom_fields", ContactID: contactID, Fields: fields})
	if m.UpdateFieldsFunc != nil {
		return m.UpdateFieldsFunc(ctx, contactID, fields)
	}
	return nil
}

func (m *MockCRM) CreateNote(ctx context.Context, contactID, body string) error {
	m.Calls = append(m.Calls, crmCall{Method: "note", ContactID: contactID, Note: body})
	if m.CreateNoteFunc != nil {
		return m.CreateNoteFunc(ctx, contactID, body)
	}
	return nil
}

func (m *MockCRM) AddTags(ctx context.Context, contactID string, tags []string) error {
	m.Calls = append(m.Calls, crmCall{Method: "tag", ContactID: contactID, Tags: tags})
	if m.AddTagsFunc != nil {
		return m.AddTagsFunc(ctx, contactID, tags)
	}
	return nil
}

func (m *MockCRM) methods() []string {
	methods := make([]string, 0, len(m.Calls))
	for _, c := range m.Calls {
		methods = append(methods, c.Method)
	}
	return methods
}

func (m *MockCRM) call(method string) (crmCall, bool) {
	for _, c := range m.Calls {
		if c.Method == method {
			return c, true
		}
	}
	return crmCall{}, false
}

// MockRecorder implements FailureRecorder for testing.
type MockRecorder struct {
	Err      error
	Recorded []domain.EnrichmentFailure
}

func (m *MockRecorder) Record(_ context.Context, failure domain.EnrichmentFailure) error {
	m.Recorded = append(m.Recorded, failure)
	return m.Err
}

// MockObserver implements StepObserver for testing.
type MockObserver struct {
	Outcomes []domain.StepOutcome
}

func (m *MockObserver) ObserveStep(outcome domain.StepOutcome) {
	m.Outcomes = append(m.Outcomes, outcome)
}

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 123000000, time.UTC)

func testFieldIDs() CustomFieldIDs {
	return CustomFieldIDs{Rating: "f-rating", ReviewLocation: "f-location", ReviewDate: "f-date", Feedback: "f-feedback"}
}

func newTestService(crm CRMClient, mode CustomFieldMode, recorder FailureRecorder, observer StepObserver) SubmissionService {
	cfg := SubmissionConfig{
		Logger:      log.New(io.Discard, "", 0),
		CRM:         crm,
		Credentials: Credentials{AccessToken: "token", LocationID: "loc-1"},
		FieldIDs:    testFieldIDs(),
		Mode:        mode,
		Now:         func() time.Time { return fixedNow },
		NewID:       func() string { return "id-1" },
	}
	if recorder != nil {
		cfg.Failures = recorder
	}
	if observer != nil {
		cfg.Observer = observer
	}
	return NewSubmissionService(cfg)
}
