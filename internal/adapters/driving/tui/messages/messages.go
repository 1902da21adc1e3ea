// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/affinity-cli/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewConsolidate is the destination input and consolidated themes view.
	ViewConsolidate
	// ViewReviews is the review queue.
	ViewReviews
	// ViewReviewDetail shows a single review and records feedback.
	ViewReviewDetail
	// ViewSettings is the settings view.
	ViewSettings
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewConsolidate:
		return "consolidate"
	case ViewReviews:
		return "reviews"
	case ViewReviewDetail:
		return "review_detail"
	case ViewSettings:
		return "settings"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// ConsolidationCompleted carries a consolidated record back to the model.
type ConsolidationCompleted struct {
	Destination string
	Data        *domain.ConsolidatedData
	Cached      bool
	Err         error
	// CacheErr is set when the fresh record could not be written to the cache.
	CacheErr error
}

// ReviewsLoaded carries the review queue.
type ReviewsLoaded struct {
	Reviews []domain.ReviewSummary
	Err     error
}

// ReviewSelected signals a queue entry was opened.
type ReviewSelected struct {
	ReviewID string
}

// ReviewLoaded carries a full review.
type ReviewLoaded struct {
	Review *domain.Review
	Err    error
}

// FeedbackSubmitted carries the result of recording a reviewer decision.
type FeedbackSubmitted struct {
	Result *domain.FeedbackResult
	Err    error
}

// SubmittedForReview carries the result of submitting consolidated themes.
type SubmittedForReview struct {
	Result *domain.SubmissionResult
	Err    error
}

// SettingsLoaded carries the application settings.
type SettingsLoaded struct {
	Settings *domain.Settings
	Err      error
}

// SettingsSaved signals a setting was saved.
type SettingsSaved struct {
	Key string
	Err error
}
