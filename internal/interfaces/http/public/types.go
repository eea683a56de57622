package public

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/sngm3741/review-relay/internal/review/domain"
)

type submitReviewRequest struct {
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Phone    string        `json:"phone"`
	Feedback string        `json:"feedback"`
	Rating   ratingPayload `json:"rating"`
	Location string        `json:"location"`
	Date     string        `json:"date"`
	Source   string        `json:"source"`
}

func (req submitReviewRequest) toDomain() domain.Submission {
	return domain.Submission{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Feedback: req.Feedback,
		Rating:   req.Rating.rating,
		Location: req.Location,
		Date:     req.Date,
		Source:   req.Source,
	}
}

// ratingPayload accepts the star rating as a JSON number or string.
type ratingPayload struct {
	rating domain.Rating
}

func (p *ratingPayload) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		p.rating = domain.Rating{}
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		p.rating = domain.RatingFromText(text)
		return nil
	}
	var number float64
	if err := json.Unmarshal(trimmed, &number); err != nil {
		return errors.New("rating must be a number or a string")
	}
	p.rating = domain.RatingFromNumber(number)
	return nil
}

type submitReviewResponse struct {
	Success   bool   `json:"success"`
	ContactID string `json:"contactId"`
	Message   string `json:"message"`
}

type upstreamErrorResponse struct {
	Step  string `json:"step"`
	Error string `json:"error"`
}
