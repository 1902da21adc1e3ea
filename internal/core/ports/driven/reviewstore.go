package driven

import (
	"context"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
)

// ReviewStore persists review workflow instances.
type ReviewStore interface {
	// Save stores or updates a review.
	Save(ctx context.Context, review *domain.Review) error

	// Get retrieves a review by ID.
	// Returns domain.ErrNotFound if the review does not exist.
	Get(ctx context.Context, id string) (*domain.Review, error)

	// List returns every review.
	List(ctx context.Context) ([]domain.Review, error)
}
