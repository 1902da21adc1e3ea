package domain

import "time"

// ReviewStatus is the state of a review workflow instance.
// pending → in_progress → {approved, rejected, requires_revision}.
type ReviewStatus string

// Review statuses.
const (
	ReviewPending          ReviewStatus = "pending"
	ReviewInProgress       ReviewStatus = "in_progress"
	ReviewApproved         ReviewStatus = "approved"
	ReviewRejected         ReviewStatus = "rejected"
	ReviewRequiresRevision ReviewStatus = "requires_revision"
)

// IsValid returns true if the status is recognised.
func (s ReviewStatus) IsValid() bool {
	switch s {
	case ReviewPending, ReviewInProgress, ReviewApproved, ReviewRejected, ReviewRequiresRevision:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further feedback is accepted.
func (s ReviewStatus) IsTerminal() bool {
	return s == ReviewApproved || s == ReviewRejected || s == ReviewRequiresRevision
}

// ReviewPriority orders the review queue.
type ReviewPriority string

// Review priorities, most urgent first.
const (
	PriorityUrgent ReviewPriority = "urgent"
	PriorityHigh   ReviewPriority = "high"
	PriorityNormal ReviewPriority = "normal"
	PriorityLow    ReviewPriority = "low"
)

// Rank returns the queue position of the priority; unknown values rank as normal.
func (p ReviewPriority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityLow:
		return 3
	default:
		return 2
	}
}

// Review criteria.
const (
	CriterionFactualAccuracy = "factual_accuracy"
	CriterionCompleteness    = "completeness"
	CriterionActionability   = "actionability"
	CriterionLocalRelevance  = "local_relevance"
)

// ReviewerFeedback is what a reviewer submits.
type ReviewerFeedback struct {
	Decision       ReviewStatus       `json:"decision"`
	ReviewerRole   string             `json:"reviewer_role,omitempty"`
	Comments       string             `json:"comments,omitempty"`
	CategoryScores map[string]float64 `json:"category_scores,omitempty"`
	ReviewMinutes  int                `json:"review_time_minutes,omitempty"`
}

// ReviewEntry is one recorded reviewer submission.
type ReviewEntry struct {
	ReviewerID  string           `json:"reviewer_id"`
	SubmittedAt time.Time        `json:"submitted_at"`
	Feedback    ReviewerFeedback `json:"feedback"`
}

// FinalDecision is the aggregated outcome of a completed review.
type FinalDecision struct {
	Status         ReviewStatus       `json:"status"`
	Reason         string             `json:"reason"`
	Confidence     float64            `json:"confidence"`
	CategoryScores map[string]float64 `json:"category_scores,omitempty"`
	TotalReviewers int                `json:"total_reviewers"`
}

// ReviewMetadata summarises the affinity set under review.
type ReviewMetadata struct {
	AffinityCount     int     `json:"affinity_count"`
	CategoriesCovered int     `json:"categories_covered"`
	AvgConfidence     float64 `json:"avg_confidence"`
}

// Review is one human-review workflow instance.
type Review struct {
	ID                string         `json:"review_id"`
	Destination       string         `json:"destination"`
	Affinities        ThemeRecord    `json:"affinities"`
	QualityScore      float64        `json:"quality_score"`
	Priority          ReviewPriority `json:"priority"`
	Status            ReviewStatus   `json:"status"`
	SubmittedAt       time.Time      `json:"submitted_at"`
	CompletedAt       *time.Time     `json:"completed_at,omitempty"`
	RequiredReviewers int            `json:"required_reviewers"`
	Criteria          []string       `json:"review_criteria"`
	AssignedReviewers []string       `json:"assigned_reviewers"`
	Reviews           []ReviewEntry  `json:"reviews"`
	FinalDecision     *FinalDecision `json:"final_decision,omitempty"`
	Metadata          ReviewMetadata `json:"metadata"`
}

// IsAssigned reports whether reviewerID may submit feedback.
func (r *Review) IsAssigned(reviewerID string) bool {
	return containsString(r.AssignedReviewers, reviewerID)
}

// HasReviewed reports whether reviewerID already submitted feedback.
func (r *Review) HasReviewed(reviewerID string) bool {
	for i := range r.Reviews {
		if r.Reviews[i].ReviewerID == reviewerID {
			return true
		}
	}
	return false
}

// IsComplete reports whether enough reviewers have responded. A review can
// never require more responses than it has assigned reviewers.
func (r *Review) IsComplete() bool {
	required := r.RequiredReviewers
	if n := len(r.AssignedReviewers); n > 0 && n < required {
		required = n
	}
	return len(r.Reviews) >= required
}

// Result statuses returned by the review flow.
const (
	ResultAutoApproved       = "auto_approved"
	ResultSubmittedForReview = "submitted_for_review"
	ResultFeedbackRecorded   = "feedback_recorded"
	ResultReviewCompleted    = "review_completed"
	ResultError              = "error"
)

// ReviewPath describes how a submission is routed.
type ReviewPath struct {
	Action            string   `json:"action"`
	Reason            string   `json:"reason"`
	RequiredReviewers int      `json:"required_reviewers"`
	Criteria          []string `json:"review_criteria"`
}

// SubmissionResult is returned from a review submission.
// An empty ReviewID means the set was auto-approved or rejected with an error.
type SubmissionResult struct {
	Status            string     `json:"status"`
	ReviewID          string     `json:"review_id,omitempty"`
	Destination       string     `json:"destination,omitempty"`
	QualityScore      float64    `json:"quality_score"`
	AssignedReviewers []string   `json:"assigned_reviewers,omitempty"`
	Path              ReviewPath `json:"review_decision"`
	Timestamp         time.Time  `json:"timestamp"`
	ErrorMessage      string     `json:"error_message,omitempty"`
}

// FeedbackResult is returned from a feedback submission.
type FeedbackResult struct {
	Status           string         `json:"status"`
	ReviewID         string         `json:"review_id,omitempty"`
	Destination      string         `json:"destination,omitempty"`
	ReviewsCompleted int            `json:"reviews_completed"`
	ReviewsPending   int            `json:"reviews_pending"`
	FinalDecision    *FinalDecision `json:"final_decision,omitempty"`
	Timestamp        time.Time      `json:"timestamp"`
	ErrorMessage     string         `json:"error_message,omitempty"`
}

// ReviewSummary is one row of the review queue.
type ReviewSummary struct {
	ReviewID          string         `json:"review_id"`
	Destination       string         `json:"destination"`
	QualityScore      float64        `json:"quality_score"`
	Priority          ReviewPriority `json:"priority"`
	Status            ReviewStatus   `json:"status"`
	SubmittedAt       time.Time      `json:"submitted_at"`
	AffinityCount     int            `json:"affinity_count"`
	AssignedReviewers []string       `json:"assigned_reviewers"`
	ReviewsCompleted  int            `json:"reviews_completed"`
}
