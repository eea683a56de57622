package domain

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrMissingRequiredFields is returned when name or email is blank.
var ErrMissingRequiredFields = errors.New("name and email are required")

// Submission is a single review form post.
type Submission struct {
	Name     string
	Email    string
	Phone    string
	Feedback string
	Rating   Rating
	Location string
	Date     string
	Source   string
}

// Validate checks the fields the CRM cannot upsert a contact without.
func (s Submission) Validate() error {
	if strings.TrimSpace(s.Name) == "" || strings.TrimSpace(s.Email) == "" {
		return ErrMissingRequiredFields
	}
	return nil
}

// Rating keeps the text the reviewer sent alongside its numeric reading.
// Forms post either a JSON number or a string, and the CRM tag reuses the original text.
type Rating struct {
	text    string
	value   float64
	numeric bool
}

// RatingFromNumber builds a rating from a JSON number. Zero means "not provided".
func RatingFromNumber(v float64) Rating {
	if v == 0 || math.IsNaN(v) {
		return Rating{}
	}
	return Rating{
		text:    strconv.FormatFloat(v, 'f', -1, 64),
		value:   v,
		numeric: true,
	}
}

// RatingFromText builds a rating from a JSON string. Empty means "not provided".
func RatingFromText(s string) Rating {
	if s == "" {
		return Rating{}
	}
	r := Rating{text: s}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return r
	}
	if v, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(v) {
		r.value = v
		r.numeric = true
	}
	return r
}

// Present reports whether a rating was supplied at all.
func (r Rating) Present() bool {
	return r.text != ""
}

// String returns the rating as the reviewer wrote it.
func (r Rating) String() string {
	return r.text
}

// Value returns the numeric reading; ok is false for text that is not a number.
func (r Rating) Value() (float64, bool) {
	return r.value, r.numeric
}

// IsLow reports whether the rating is present and at most LowRatingThreshold.
func (r Rating) IsLow() bool {
	v, ok := r.Value()
	return r.Present() && ok && v <= LowRatingThreshold
}
