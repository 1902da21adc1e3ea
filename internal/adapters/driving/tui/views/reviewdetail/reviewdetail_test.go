package reviewdetail

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/affinity-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/affinity-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/affinity-cli/internal/core/domain"
	"github.com/custodia-labs/affinity-cli/internal/core/services"
)

func key(r rune) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}} }

// submitted creates a review service holding one pending review that needs a
// single reviewer.
func submitted(t *testing.T) (*services.ReviewService, string, string) {
	t.Helper()
	flow := services.NewReviewService(memory.NewReviewStore(), domain.DefaultSettings())
	themes := &domain.ThemeRecord{
		Destination: "Kyoto, Japan",
		Affinities: []domain.Affinity{
			{Theme: "Temple Gardens", Category: "culture", Confidence: 0.9},
			{Theme: "Street Food", Category: "food", Confidence: 0.7},
		},
	}
	result, err := flow.SubmitForReview(context.Background(), themes, 0.7, "Kyoto, Japan", domain.PriorityNormal)
	require.NoError(t, err)
	require.Equal(t, domain.ResultSubmittedForReview, result.Status)
	require.Len(t, result.AssignedReviewers, 1)
	return flow, result.ReviewID, result.AssignedReviewers[0]
}

// opened returns a view showing reviewID.
func opened(t *testing.T, flow *services.ReviewService, reviewID, reviewerID string) *View {
	t.Helper()
	view := NewView(nil, flow, reviewerID)
	view.SetDimensions(120, 60)
	view.Update(view.Load(reviewID)())
	require.NoError(t, view.Err())
	require.NotNil(t, view.Review())
	return view
}

func TestNewView(t *testing.T) {
	view := NewView(nil, nil, "")

	require.NotNil(t, view)
	assert.Nil(t, view.Init())
	assert.Nil(t, view.Review())
	assert.Contains(t, view.View(), "Loading review...")
}

func TestView_Load_NoService(t *testing.T) {
	view := NewView(nil, nil, "")

	view.Update(view.Load("review-1")())

	assert.ErrorIs(t, view.Err(), ErrNoReviewFlow)
	assert.NotContains(t, view.View(), "Loading review...")
}

func TestView_Load_NotFound(t *testing.T) {
	flow := services.NewReviewService(memory.NewReviewStore(), domain.DefaultSettings())
	view := NewView(nil, flow, "")

	view.Update(view.Load("missing")())

	assert.ErrorIs(t, view.Err(), domain.ErrReviewNotFound)
}

func TestView_RendersReview(t *testing.T) {
	flow, reviewID, reviewer := submitted(t)
	view := opened(t, flow, reviewID, reviewer)

	out := view.View()

	assert.Contains(t, out, reviewID)
	assert.Contains(t, out, "Kyoto, Japan")
	assert.Contains(t, out, "pending")
	assert.Contains(t, out, "Themes (2)")
	assert.Contains(t, out, "Temple Gardens")
	assert.Contains(t, out, "0/1")
	assert.Contains(t, out, "[a] approve")
}

func TestView_Approve(t *testing.T) {
	flow, reviewID, reviewer := submitted(t)
	view := opened(t, flow, reviewID, reviewer)

	_, cmd := view.Update(key('a'))
	require.NotNil(t, cmd)
	_, reload := view.Update(cmd())
	require.NoError(t, view.Err())
	assert.Equal(t, "Review completed: approved", view.Notice())

	require.NotNil(t, reload)
	view.Update(reload())
	assert.Equal(t, domain.ReviewApproved, view.Review().Status)
	assert.Equal(t, "Review completed: approved", view.Notice(), "notice survives the reload")

	out := view.View()
	assert.Contains(t, out, "Final decision")
	assert.NotContains(t, out, "[a] approve")
}

func TestView_Decisions(t *testing.T) {
	tests := []struct {
		key      rune
		expected domain.ReviewStatus
	}{
		{'x', domain.ReviewRejected},
		{'v', domain.ReviewRequiresRevision},
	}

	for _, tt := range tests {
		t.Run(string(tt.expected), func(t *testing.T) {
			flow, reviewID, reviewer := submitted(t)
			view := opened(t, flow, reviewID, reviewer)

			_, cmd := view.Update(key(tt.key))
			_, reload := view.Update(cmd())
			view.Update(reload())

			assert.Equal(t, tt.expected, view.Review().Status)
		})
	}
}

func TestView_UnassignedReviewer(t *testing.T) {
	flow, reviewID, _ := submitted(t)
	view := opened(t, flow, reviewID, "reviewer_unknown_999")

	_, cmd := view.Update(key('a'))
	_, reload := view.Update(cmd())

	assert.Nil(t, reload)
	require.Error(t, view.Err())
	assert.Contains(t, view.Err().Error(), "not assigned")
}

func TestView_NoReviewer(t *testing.T) {
	flow, reviewID, _ := submitted(t)
	view := opened(t, flow, reviewID, "")

	_, cmd := view.Update(key('a'))
	require.NotNil(t, cmd)
	view.Update(cmd())

	assert.ErrorIs(t, view.Err(), ErrNoReviewer)
}

func TestView_DecisionWithoutReview(t *testing.T) {
	view := NewView(nil, nil, "reviewer_qa_004")

	_, cmd := view.Update(key('a'))

	assert.Nil(t, cmd)
}

func TestView_FeedbackServiceError(t *testing.T) {
	view := NewView(nil, nil, "")

	_, cmd := view.Update(messages.FeedbackSubmitted{Err: errors.New("store closed")})

	assert.Nil(t, cmd)
	assert.EqualError(t, view.Err(), "store closed")
}

func TestView_Scroll(t *testing.T) {
	flow, reviewID, reviewer := submitted(t)
	view := NewView(nil, flow, reviewer)
	view.SetDimensions(120, 8)
	view.Update(view.Load(reviewID)())

	view.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, view.scrollOffset)

	for range 50 {
		view.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	assert.Equal(t, view.maxScrollOffset(), view.scrollOffset)
	assert.Positive(t, view.scrollOffset)
}

func TestView_EscReturnsToQueue(t *testing.T) {
	view := NewView(nil, nil, "")

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewReviews}, cmd())
}
