package common

const (
	// MaxReviewRequestBody limits JSON request bodies for the review endpoint.
	MaxReviewRequestBody = 1 << 20
	// DefaultListLimit caps admin listings when no limit is given.
	DefaultListLimit = 50
)
