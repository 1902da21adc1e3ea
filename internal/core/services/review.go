package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driven"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driving"
	"github.com/custodia-labs/affinity-cli/internal/logger"
)

// Ensure ReviewService implements the interface.
var _ driving.ReviewFlow = (*ReviewService)(nil)

// Review routing actions.
const (
	actionAutoApprove = "auto_approve"
	actionHumanReview = "human_review"
)

// Feedback defaults applied when a reviewer leaves them out.
const (
	defaultReviewerRole  = "quality_assurance"
	defaultReviewMinutes = 30
	defaultCategoryScore = 0.8
)

// ReviewService routes affinity sets through human review.
type ReviewService struct {
	store    driven.ReviewStore
	settings domain.QASettings
	opts     options
}

// NewReviewService creates a new review service.
func NewReviewService(store driven.ReviewStore, settings domain.Settings, opts ...Option) *ReviewService {
	qa := settings.QA
	if len(qa.Reviewers) == 0 {
		qa.Reviewers = domain.DefaultReviewers()
	}
	return &ReviewService{
		store:    store,
		settings: qa,
		opts:     newOptions(opts),
	}
}

// SubmitForReview routes a scored affinity set. Sets at or above the
// auto-approve threshold are approved without creating a review.
func (s *ReviewService) SubmitForReview(
	ctx context.Context,
	affinities *domain.ThemeRecord,
	qualityScore float64,
	destination string,
	priority domain.ReviewPriority,
) (*domain.SubmissionResult, error) {
	logger.Info("Submitting affinities for review: %s (quality: %.3f)", destination, qualityScore)

	now := s.opts.now()
	if affinities.IsEmpty() {
		return &domain.SubmissionResult{
			Status:       domain.ResultError,
			Destination:  destination,
			QualityScore: qualityScore,
			Timestamp:    now,
			ErrorMessage: "no affinities to review",
		}, nil
	}

	path := s.reviewPath(qualityScore)
	s.opts.metrics.ReviewRouted(path.Action)

	if path.Action == actionAutoApprove {
		return &domain.SubmissionResult{
			Status:       domain.ResultAutoApproved,
			Destination:  destination,
			QualityScore: qualityScore,
			Path:         path,
			Timestamp:    now,
		}, nil
	}

	if priority.Rank() == domain.PriorityNormal.Rank() {
		priority = domain.PriorityNormal
	}

	assigned := s.assignReviewers(path.RequiredReviewers)
	if len(assigned) < path.RequiredReviewers {
		logger.Warn("Reviewer pool has %d of %d required reviewers, requiring %d",
			len(assigned), path.RequiredReviewers, len(assigned))
		path.RequiredReviewers = len(assigned)
	}

	review := &domain.Review{
		ID:                uuid.NewString(),
		Destination:       destination,
		Affinities:        *affinities.Clone(),
		QualityScore:      qualityScore,
		Priority:          priority,
		Status:            domain.ReviewPending,
		SubmittedAt:       now,
		RequiredReviewers: path.RequiredReviewers,
		Criteria:          path.Criteria,
		AssignedReviewers: assigned,
		Reviews:           []domain.ReviewEntry{},
		Metadata: domain.ReviewMetadata{
			AffinityCount:     len(affinities.Affinities),
			CategoriesCovered: len(affinities.Categories()),
			AvgConfidence:     domain.MeanConfidence(affinities.Affinities),
		},
	}
	if err := s.store.Save(ctx, review); err != nil {
		return nil, fmt.Errorf("save review: %w", err)
	}

	logger.Info("Created review %s for %s with %d reviewers", review.ID, destination, len(review.AssignedReviewers))
	return &domain.SubmissionResult{
		Status:            domain.ResultSubmittedForReview,
		ReviewID:          review.ID,
		Destination:       destination,
		QualityScore:      qualityScore,
		AssignedReviewers: review.AssignedReviewers,
		Path:              path,
		Timestamp:         now,
	}, nil
}

// reviewPath decides how a submission with qualityScore is routed.
func (s *ReviewService) reviewPath(qualityScore float64) domain.ReviewPath {
	switch {
	case qualityScore >= s.settings.AutoApproveThreshold:
		return domain.ReviewPath{
			Action:   actionAutoApprove,
			Reason:   fmt.Sprintf("quality score %.3f meets auto-approval threshold", qualityScore),
			Criteria: []string{},
		}
	case qualityScore < s.settings.RequireReviewThreshold:
		return domain.ReviewPath{
			Action:            actionHumanReview,
			Reason:            fmt.Sprintf("quality score %.3f below review threshold", qualityScore),
			RequiredReviewers: 2,
			Criteria: []string{
				domain.CriterionFactualAccuracy,
				domain.CriterionCompleteness,
				domain.CriterionActionability,
				domain.CriterionLocalRelevance,
			},
		}
	default:
		return domain.ReviewPath{
			Action:            actionHumanReview,
			Reason:            fmt.Sprintf("quality score %.3f requires validation", qualityScore),
			RequiredReviewers: 1,
			Criteria:          []string{domain.CriterionFactualAccuracy, domain.CriterionActionability},
		}
	}
}

// assignReviewers takes the first n reviewers of the configured pool, or the
// whole pool when it is smaller.
func (s *ReviewService) assignReviewers(n int) []string {
	if n > len(s.settings.Reviewers) {
		n = len(s.settings.Reviewers)
	}
	return append([]string(nil), s.settings.Reviewers[:n]...)
}

// SubmitReviewerFeedback records a reviewer's feedback and completes the
// review once enough reviewers have responded.
func (s *ReviewService) SubmitReviewerFeedback(
	ctx context.Context, reviewID, reviewerID string, feedback domain.ReviewerFeedback,
) (*domain.FeedbackResult, error) {
	now := s.opts.now()
	fail := func(format string, args ...any) (*domain.FeedbackResult, error) {
		return &domain.FeedbackResult{
			Status:       domain.ResultError,
			ReviewID:     reviewID,
			Timestamp:    now,
			ErrorMessage: fmt.Sprintf(format, args...),
		}, nil
	}

	review, err := s.store.Get(ctx, reviewID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fail("%v: %s", domain.ErrReviewNotFound, reviewID)
		}
		return nil, fmt.Errorf("load review: %w", err)
	}
	if review.Status.IsTerminal() {
		return fail("%v: %s is %s", domain.ErrReviewCompleted, reviewID, review.Status)
	}
	if !review.IsAssigned(reviewerID) {
		return fail("%v: %s on %s", domain.ErrReviewerNotAssigned, reviewerID, reviewID)
	}
	if review.HasReviewed(reviewerID) {
		return fail("reviewer %s already submitted feedback for review %s", reviewerID, reviewID)
	}

	review.Reviews = append(review.Reviews, domain.ReviewEntry{
		ReviewerID:  reviewerID,
		SubmittedAt: now,
		Feedback:    normaliseFeedback(feedback),
	})
	review.Status = domain.ReviewInProgress

	completed := review.IsComplete()
	if completed {
		decision := finalDecision(review.Reviews)
		review.Status = decision.Status
		review.FinalDecision = &decision
		completedAt := now
		review.CompletedAt = &completedAt
	}

	if err := s.store.Save(ctx, review); err != nil {
		return nil, fmt.Errorf("save review: %w", err)
	}

	result := &domain.FeedbackResult{
		Status:           domain.ResultFeedbackRecorded,
		ReviewID:         reviewID,
		Destination:      review.Destination,
		ReviewsCompleted: len(review.Reviews),
		ReviewsPending:   len(review.AssignedReviewers) - len(review.Reviews),
		Timestamp:        now,
	}
	if completed {
		result.Status = domain.ResultReviewCompleted
		result.FinalDecision = review.FinalDecision
		logger.Info("Review %s completed with decision: %s", reviewID, review.Status)
	} else {
		logger.Info("Review %s updated, awaiting additional feedback", reviewID)
	}
	return result, nil
}

// normaliseFeedback fills in defaults. Decisions other than a terminal
// status count as approval.
func normaliseFeedback(f domain.ReviewerFeedback) domain.ReviewerFeedback {
	if !f.Decision.IsTerminal() {
		f.Decision = domain.ReviewApproved
	}
	if f.ReviewerRole == "" {
		f.ReviewerRole = defaultReviewerRole
	}
	if f.ReviewMinutes == 0 {
		f.ReviewMinutes = defaultReviewMinutes
	}
	if len(f.CategoryScores) == 0 {
		f.CategoryScores = map[string]float64{
			domain.CriterionFactualAccuracy: defaultCategoryScore,
			domain.CriterionCompleteness:    defaultCategoryScore,
			domain.CriterionActionability:   defaultCategoryScore,
			domain.CriterionLocalRelevance:  defaultCategoryScore,
		}
	}
	return f
}

// finalDecision takes the majority decision. On a tie the decision whose
// first vote came earliest wins. Confidence is the majority's share of votes.
func finalDecision(entries []domain.ReviewEntry) domain.FinalDecision {
	if len(entries) == 0 {
		return domain.FinalDecision{
			Status: domain.ReviewRejected,
			Reason: "no reviewer feedback received",
		}
	}

	counts := make(map[domain.ReviewStatus]int)
	var order []domain.ReviewStatus
	scores := make(map[string][]float64)
	for _, e := range entries {
		d := e.Feedback.Decision
		if counts[d] == 0 {
			order = append(order, d)
		}
		counts[d]++
		for category, score := range e.Feedback.CategoryScores {
			scores[category] = append(scores[category], score)
		}
	}

	winner := order[0]
	for _, d := range order[1:] {
		if counts[d] > counts[winner] {
			winner = d
		}
	}

	averages := make(map[string]float64, len(scores))
	for category, values := range scores {
		averages[category] = mean(values)
	}

	total := len(entries)
	return domain.FinalDecision{
		Status:         winner,
		Reason:         fmt.Sprintf("majority decision from %d reviewers", total),
		Confidence:     float64(counts[winner]) / float64(total),
		CategoryScores: averages,
		TotalReviewers: total,
	}
}

// GetReview returns a review by ID.
func (s *ReviewService) GetReview(ctx context.Context, reviewID string) (*domain.Review, error) {
	review, err := s.store.Get(ctx, reviewID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrReviewNotFound, reviewID)
		}
		return nil, err
	}
	return review, nil
}

// ReviewQueue lists reviews, optionally filtered by assigned reviewer and
// status, ordered by priority then submission time.
func (s *ReviewService) ReviewQueue(
	ctx context.Context, reviewerID string, status domain.ReviewStatus,
) ([]domain.ReviewSummary, error) {
	reviews, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	queue := make([]domain.ReviewSummary, 0, len(reviews))
	for i := range reviews {
		r := &reviews[i]
		if status != "" && r.Status != status {
			continue
		}
		if reviewerID != "" && !r.IsAssigned(reviewerID) {
			continue
		}
		queue = append(queue, domain.ReviewSummary{
			ReviewID:          r.ID,
			Destination:       r.Destination,
			QualityScore:      r.QualityScore,
			Priority:          r.Priority,
			Status:            r.Status,
			SubmittedAt:       r.SubmittedAt,
			AffinityCount:     r.Metadata.AffinityCount,
			AssignedReviewers: r.AssignedReviewers,
			ReviewsCompleted:  len(r.Reviews),
		})
	}

	sort.SliceStable(queue, func(i, j int) bool {
		pi, pj := queue[i].Priority.Rank(), queue[j].Priority.Rank()
		if pi != pj {
			return pi < pj
		}
		if !queue[i].SubmittedAt.Equal(queue[j].SubmittedAt) {
			return queue[i].SubmittedAt.Before(queue[j].SubmittedAt)
		}
		return queue[i].ReviewID < queue[j].ReviewID
	})
	return queue, nil
}
