package driving

import (
	"context"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
)

// ReviewFlow routes scored affinity sets through human review.
// Lookup failures are reported in results, never as errors; errors are
// reserved for storage failures.
type ReviewFlow interface {
	// SubmitForReview routes a scored affinity set to auto-approval or review.
	SubmitForReview(ctx context.Context, affinities *domain.ThemeRecord, qualityScore float64, destination string, priority domain.ReviewPriority) (*domain.SubmissionResult, error)

	// SubmitReviewerFeedback records a reviewer's feedback.
	SubmitReviewerFeedback(ctx context.Context, reviewID, reviewerID string, feedback domain.ReviewerFeedback) (*domain.FeedbackResult, error)

	// GetReview returns a review by ID.
	GetReview(ctx context.Context, reviewID string) (*domain.Review, error)

	// ReviewQueue lists reviews, optionally filtered, by priority then age.
	ReviewQueue(ctx context.Context, reviewerID string, status domain.ReviewStatus) ([]domain.ReviewSummary, error)
}
