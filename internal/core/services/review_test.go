package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/affinity-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/affinity-cli/internal/core/domain"
)

func newReview(t *testing.T) (*ReviewService, *memory.ReviewStore, *testClock, *recordingMetrics) {
	t.Helper()
	store := memory.NewReviewStore()
	clock := newTestClock()
	metrics := newRecordingMetrics()
	svc := NewReviewService(store, domain.DefaultSettings(), WithClock(clock.Now), WithMetrics(metrics))
	return svc, store, clock, metrics
}

func reviewRecord() *domain.ThemeRecord {
	return themeRecord(paris, 0.7, baseTime,
		affinity("Museums", "culture", 0.8),
		affinity("Cafes", "food", 0.6),
	)
}

func TestSubmitForReview_AutoApprove(t *testing.T) {
	svc, store, _, metrics := newReview(t)
	ctx := context.Background()

	result, err := svc.SubmitForReview(ctx, reviewRecord(), 0.85, paris, domain.PriorityNormal)

	require.NoError(t, err)
	assert.Equal(t, domain.ResultAutoApproved, result.Status)
	assert.Empty(t, result.ReviewID)
	assert.Equal(t, 0, result.Path.RequiredReviewers)
	assert.Empty(t, result.Path.Criteria)
	assert.Equal(t, []string{actionAutoApprove}, metrics.routes)

	reviews, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, reviews, "auto-approved sets must not create a review")
}

func TestSubmitForReview_SingleReviewer(t *testing.T) {
	svc, _, _, _ := newReview(t)
	ctx := context.Background()

	result, err := svc.SubmitForReview(ctx, reviewRecord(), 0.7, paris, domain.PriorityHigh)

	require.NoError(t, err)
	assert.Equal(t, domain.ResultSubmittedForReview, result.Status)
	require.NotEmpty(t, result.ReviewID)
	assert.Equal(t, []string{"reviewer_subject_expert_001"}, result.AssignedReviewers)
	assert.Equal(t, []string{domain.CriterionFactualAccuracy, domain.CriterionActionability}, result.Path.Criteria)

	review, err := svc.GetReview(ctx, result.ReviewID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewPending, review.Status)
	assert.Equal(t, domain.PriorityHigh, review.Priority)
	assert.Equal(t, 2, review.Metadata.AffinityCount)
	assert.Equal(t, 2, review.Metadata.CategoriesCovered)
	assert.InDelta(t, 0.7, review.Metadata.AvgConfidence, 1e-9)
}

func TestSubmitForReview_LowQualityNeedsTwoReviewers(t *testing.T) {
	svc, _, _, _ := newReview(t)

	result, err := svc.SubmitForReview(context.Background(), reviewRecord(), 0.5, paris, "")

	require.NoError(t, err)
	assert.Equal(t, 2, result.Path.RequiredReviewers)
	assert.Len(t, result.Path.Criteria, 4)
	assert.Equal(t, []string{"reviewer_subject_expert_001", "reviewer_editorial_002"}, result.AssignedReviewers)
}

func TestSubmitForReview_ThresholdBoundaries(t *testing.T) {
	svc, _, _, _ := newReview(t)
	ctx := context.Background()

	atReview, err := svc.SubmitForReview(ctx, reviewRecord(), 0.6, paris, "")
	require.NoError(t, err)
	assert.Equal(t, 1, atReview.Path.RequiredReviewers)

	below, err := svc.SubmitForReview(ctx, reviewRecord(), 0.5999, paris, "")
	require.NoError(t, err)
	assert.Equal(t, 2, below.Path.RequiredReviewers)
}

func TestSubmitForReview_EmptyAffinities(t *testing.T) {
	svc, _, _, metrics := newReview(t)

	result, err := svc.SubmitForReview(context.Background(), &domain.ThemeRecord{Destination: paris}, 0.9, paris, "")

	require.NoError(t, err)
	assert.Equal(t, domain.ResultError, result.Status)
	assert.Equal(t, "no affinities to review", result.ErrorMessage)
	assert.Empty(t, metrics.routes)
}

func TestSubmitForReview_UnknownPriorityIsNormal(t *testing.T) {
	svc, _, _, _ := newReview(t)
	ctx := context.Background()

	result, err := svc.SubmitForReview(ctx, reviewRecord(), 0.7, paris, "whenever")
	require.NoError(t, err)

	review, err := svc.GetReview(ctx, result.ReviewID)
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityNormal, review.Priority)
}

func TestSubmitReviewerFeedback_SingleReviewerCompletes(t *testing.T) {
	svc, _, _, _ := newReview(t)
	ctx := context.Background()
	submitted, err := svc.SubmitForReview(ctx, reviewRecord(), 0.7, paris, "")
	require.NoError(t, err)

	result, err := svc.SubmitReviewerFeedback(ctx, submitted.ReviewID, "reviewer_subject_expert_001",
		domain.ReviewerFeedback{Decision: domain.ReviewApproved, Comments: "accurate"})

	require.NoError(t, err)
	assert.Equal(t, domain.ResultReviewCompleted, result.Status)
	require.NotNil(t, result.FinalDecision)
	assert.Equal(t, domain.ReviewApproved, result.FinalDecision.Status)
	assert.InDelta(t, 1.0, result.FinalDecision.Confidence, 1e-9)
	assert.InDelta(t, 0.8, result.FinalDecision.CategoryScores[domain.CriterionCompleteness], 1e-9)
	assert.Equal(t, 0, result.ReviewsPending)

	review, err := svc.GetReview(ctx, submitted.ReviewID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewApproved, review.Status)
	require.NotNil(t, review.CompletedAt)
	assert.Equal(t, defaultReviewerRole, review.Reviews[0].Feedback.ReviewerRole)
	assert.Equal(t, defaultReviewMinutes, review.Reviews[0].Feedback.ReviewMinutes)
}

func TestSubmitReviewerFeedback_TwoReviewersGate(t *testing.T) {
	svc, _, clock, _ := newReview(t)
	ctx := context.Background()
	submitted, err := svc.SubmitForReview(ctx, reviewRecord(), 0.4, paris, "")
	require.NoError(t, err)

	first, err := svc.SubmitReviewerFeedback(ctx, submitted.ReviewID, "reviewer_subject_expert_001",
		domain.ReviewerFeedback{
			Decision:       domain.ReviewRejected,
			CategoryScores: map[string]float64{domain.CriterionFactualAccuracy: 0.4},
		})
	require.NoError(t, err)
	assert.Equal(t, domain.ResultFeedbackRecorded, first.Status)
	assert.Equal(t, 1, first.ReviewsCompleted)
	assert.Equal(t, 1, first.ReviewsPending)
	assert.Nil(t, first.FinalDecision)

	review, err := svc.GetReview(ctx, submitted.ReviewID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewInProgress, review.Status)

	clock.Advance(time.Minute)
	second, err := svc.SubmitReviewerFeedback(ctx, submitted.ReviewID, "reviewer_editorial_002",
		domain.ReviewerFeedback{
			Decision:       domain.ReviewApproved,
			CategoryScores: map[string]float64{domain.CriterionFactualAccuracy: 0.8},
		})
	require.NoError(t, err)
	assert.Equal(t, domain.ResultReviewCompleted, second.Status)
	require.NotNil(t, second.FinalDecision)

	// A one-one split goes to the decision voted first.
	assert.Equal(t, domain.ReviewRejected, second.FinalDecision.Status)
	assert.InDelta(t, 0.5, second.FinalDecision.Confidence, 1e-9)
	assert.InDelta(t, 0.6, second.FinalDecision.CategoryScores[domain.CriterionFactualAccuracy], 1e-9)
	assert.Equal(t, 2, second.FinalDecision.TotalReviewers)
	assert.Equal(t, "majority decision from 2 reviewers", second.FinalDecision.Reason)
}

func TestSubmitReviewerFeedback_Errors(t *testing.T) {
	svc, _, _, _ := newReview(t)
	ctx := context.Background()
	submitted, err := svc.SubmitForReview(ctx, reviewRecord(), 0.4, paris, "")
	require.NoError(t, err)

	missing, err := svc.SubmitReviewerFeedback(ctx, "no-such-review", "reviewer_qa_004", domain.ReviewerFeedback{})
	require.NoError(t, err)
	assert.Equal(t, domain.ResultError, missing.Status)
	assert.Contains(t, missing.ErrorMessage, domain.ErrReviewNotFound.Error())

	unassigned, err := svc.SubmitReviewerFeedback(ctx, submitted.ReviewID, "reviewer_qa_004", domain.ReviewerFeedback{})
	require.NoError(t, err)
	assert.Equal(t, domain.ResultError, unassigned.Status)
	assert.Contains(t, unassigned.ErrorMessage, domain.ErrReviewerNotAssigned.Error())

	_, err = svc.SubmitReviewerFeedback(ctx, submitted.ReviewID, "reviewer_subject_expert_001", domain.ReviewerFeedback{})
	require.NoError(t, err)
	twice, err := svc.SubmitReviewerFeedback(ctx, submitted.ReviewID, "reviewer_subject_expert_001", domain.ReviewerFeedback{})
	require.NoError(t, err)
	assert.Equal(t, domain.ResultError, twice.Status)
	assert.Contains(t, twice.ErrorMessage, "already submitted")

	_, err = svc.SubmitReviewerFeedback(ctx, submitted.ReviewID, "reviewer_editorial_002", domain.ReviewerFeedback{})
	require.NoError(t, err)
	late, err := svc.SubmitReviewerFeedback(ctx, submitted.ReviewID, "reviewer_editorial_002", domain.ReviewerFeedback{})
	require.NoError(t, err)
	assert.Equal(t, domain.ResultError, late.Status)
	assert.Contains(t, late.ErrorMessage, domain.ErrReviewCompleted.Error())
}

func TestSubmitReviewerFeedback_NonTerminalDecisionCountsAsApproval(t *testing.T) {
	svc, _, _, _ := newReview(t)
	ctx := context.Background()
	submitted, err := svc.SubmitForReview(ctx, reviewRecord(), 0.7, paris, "")
	require.NoError(t, err)

	result, err := svc.SubmitReviewerFeedback(ctx, submitted.ReviewID, "reviewer_subject_expert_001",
		domain.ReviewerFeedback{Decision: domain.ReviewPending})

	require.NoError(t, err)
	require.NotNil(t, result.FinalDecision)
	assert.Equal(t, domain.ReviewApproved, result.FinalDecision.Status)
}

func TestGetReview_NotFound(t *testing.T) {
	svc, _, _, _ := newReview(t)

	_, err := svc.GetReview(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrReviewNotFound)
}

func TestReviewQueue_OrderAndFilters(t *testing.T) {
	svc, _, clock, _ := newReview(t)
	ctx := context.Background()

	normalOld, err := svc.SubmitForReview(ctx, reviewRecord(), 0.7, paris, domain.PriorityNormal)
	require.NoError(t, err)
	clock.Advance(time.Minute)
	urgent, err := svc.SubmitForReview(ctx, reviewRecord(), 0.7, kyoto, domain.PriorityUrgent)
	require.NoError(t, err)
	clock.Advance(time.Minute)
	normalNew, err := svc.SubmitForReview(ctx, reviewRecord(), 0.4, paris, domain.PriorityNormal)
	require.NoError(t, err)
	clock.Advance(time.Minute)
	low, err := svc.SubmitForReview(ctx, reviewRecord(), 0.7, paris, domain.PriorityLow)
	require.NoError(t, err)

	queue, err := svc.ReviewQueue(ctx, "", "")
	require.NoError(t, err)
	ids := make([]string, len(queue))
	for i, q := range queue {
		ids[i] = q.ReviewID
	}
	assert.Equal(t, []string{urgent.ReviewID, normalOld.ReviewID, normalNew.ReviewID, low.ReviewID}, ids)

	// Only the low-quality review assigns a second reviewer.
	editorial, err := svc.ReviewQueue(ctx, "reviewer_editorial_002", "")
	require.NoError(t, err)
	require.Len(t, editorial, 1)
	assert.Equal(t, normalNew.ReviewID, editorial[0].ReviewID)

	_, err = svc.SubmitReviewerFeedback(ctx, urgent.ReviewID, "reviewer_subject_expert_001",
		domain.ReviewerFeedback{Decision: domain.ReviewApproved})
	require.NoError(t, err)

	pending, err := svc.ReviewQueue(ctx, "", domain.ReviewPending)
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	approved, err := svc.ReviewQueue(ctx, "", domain.ReviewApproved)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, urgent.ReviewID, approved[0].ReviewID)
}

func TestNewReviewService_DefaultReviewerPool(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.QA.Reviewers = nil
	svc := NewReviewService(memory.NewReviewStore(), settings)

	assert.Equal(t, domain.DefaultReviewers(), svc.settings.Reviewers)
}

func TestSubmitReviewerFeedback_SingleReviewerPoolCompletesLowQuality(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.QA.Reviewers = []string{"alice"}
	svc := NewReviewService(memory.NewReviewStore(), settings)
	ctx := context.Background()

	submitted, err := svc.SubmitForReview(ctx, reviewRecord(), 0.4, paris, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, submitted.AssignedReviewers)
	assert.Equal(t, 1, submitted.Path.RequiredReviewers)

	result, err := svc.SubmitReviewerFeedback(ctx, submitted.ReviewID, "alice",
		domain.ReviewerFeedback{Decision: domain.ReviewApproved})
	require.NoError(t, err)
	assert.Equal(t, domain.ResultReviewCompleted, result.Status)
	assert.Equal(t, 0, result.ReviewsPending)

	review, err := svc.GetReview(ctx, submitted.ReviewID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewApproved, review.Status)
	assert.Equal(t, 1, review.RequiredReviewers)
}
