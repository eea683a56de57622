package domain

import "strings"

const (
	// DefaultSource labels submissions that do not name where they came from.
	DefaultSource = "Website Review Widget"
	// LowRatingThreshold is the highest star rating that gets tagged for follow-up.
	LowRatingThreshold = 3

	noteHeader          = "=== Review Submission ==="
	ratingPlaceholder   = "Not provided"
	locationPlaceholder = "Not specified"
	feedbackPlaceholder = "(No feedback provided)"
)

// BuildNote renders the CRM note body for a submission.
// date and source must already carry their defaults.
func BuildNote(s Submission, date, source string) string {
	rating := ratingPlaceholder
	if s.Rating.Present() {
		rating = s.Rating.String()
	}
	location := s.Location
	if location == "" {
		location = locationPlaceholder
	}
	feedback := s.Feedback
	if feedback == "" {
		feedback = feedbackPlaceholder
	}

	lines := []string{
		noteHeader,
		"Star Rating: " + rating,
		"Location: " + location,
		"Date: " + date,
		"",
		"Feedback:",
		feedback,
		"",
		"Source: " + source,
	}
	return strings.Join(lines, "\n")
}

// LowRatingTag returns the follow-up tag for ratings at or below the threshold.
func LowRatingTag(r Rating) (string, bool) {
	if !r.IsLow() {
		return "", false
	}
	return r.String() + "-star-rating", true
}
