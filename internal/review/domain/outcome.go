package domain

import "time"

// Step names one CRM call in the submission sequence.
type Step string

const (
	StepUpsert       Step = "upsert"
	StepCustomFields Step = "custom_fields"
	StepNote         Step = "note"
	StepTag          Step = "tag"
)

// StepOutcome records how a single CRM call went.
type StepOutcome struct {
	Step   Step
	OK     bool
	Status int
	Error  string
}

// Result is what a successful submission produced.
// Steps lists every CRM call that was attempted, in order.
type Result struct {
	SubmissionID string
	ContactID    string
	Steps        []StepOutcome
}

// Failed returns the outcomes of calls that did not succeed.
func (r *Result) Failed() []StepOutcome {
	var failed []StepOutcome
	for _, step := range r.Steps {
		if !step.OK {
			failed = append(failed, step)
		}
	}
	return failed
}

// EnrichmentFailure is a best-effort step that failed after the contact was saved.
type EnrichmentFailure struct {
	ID           string
	SubmissionID string
	ContactID    string
	Step         Step
	Status       int
	Error        string
	Email        string
	CreatedAt    time.Time
	Resolved     bool
	ResolvedBy   string
	ResolvedAt   *time.Time
}
