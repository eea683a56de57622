package application

import (
	"context"
	"time"

	"github.com/sngm3741/review-relay/internal/review/domain"
)

const defaultFailureListLimit = 50

// failureQueryService implements FailureQueryService.
type failureQueryService struct {
	repo FailureRepository
	now  func() time.Time
}

// NewFailureQueryService creates a new FailureQueryService.
func NewFailureQueryService(repo FailureRepository) FailureQueryService {
	return &failureQueryService{repo: repo, now: time.Now}
}

func (s *failureQueryService) List(ctx context.Context, filter FailureFilter, limit int) ([]domain.EnrichmentFailure, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultFailureListLimit
	}
	return s.repo.Find(ctx, filter, limit)
}

func (s *failureQueryService) Resolve(ctx context.Context, id, resolvedBy string) error {
	return s.repo.Resolve(ctx, id, resolvedBy, s.now().UTC())
}
