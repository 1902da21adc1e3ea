// Package reviewdetail provides the single review view for the TUI.
package reviewdetail

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/affinity-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/affinity-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/affinity-cli/internal/core/domain"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driving"
)

var (
	// ErrNoReviewFlow indicates that no review service was provided.
	ErrNoReviewFlow = errors.New("review service is required")

	// ErrNoReviewer indicates feedback was attempted without a reviewer identity.
	ErrNoReviewer = errors.New("no reviewer configured; start with --reviewer")
)

// View shows one review and records the configured reviewer's decision.
type View struct {
	styles  *styles.Styles
	reviews driving.ReviewFlow
	ctx     context.Context

	reviewerID   string
	review       *domain.Review
	notice       string
	scrollOffset int
	width        int
	height       int
	ready        bool
	err          error
}

// NewView creates a review detail view acting as reviewerID.
func NewView(s *styles.Styles, reviews driving.ReviewFlow, reviewerID string) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:     s,
		reviews:    reviews,
		ctx:        context.Background(),
		reviewerID: reviewerID,
		width:      80,
		height:     24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Load returns a command that fetches the review.
func (v *View) Load(reviewID string) tea.Cmd {
	return func() tea.Msg {
		if v.reviews == nil {
			return messages.ReviewLoaded{Err: ErrNoReviewFlow}
		}
		review, err := v.reviews.GetReview(v.ctx, reviewID)
		return messages.ReviewLoaded{Review: review, Err: err}
	}
}

// SetReview sets the review to display.
func (v *View) SetReview(review *domain.Review) {
	v.review = review
	v.scrollOffset = 0
	v.err = nil
	v.notice = ""
}

// Update handles messages for the review detail view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.ReviewLoaded:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		notice := v.notice
		v.SetReview(msg.Review)
		v.notice = notice
		return v, nil

	case messages.FeedbackSubmitted:
		return v.handleFeedback(msg)

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case "down", "j":
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case "a":
		return v, v.decide(domain.ReviewApproved)
	case "x":
		return v, v.decide(domain.ReviewRejected)
	case "v":
		return v, v.decide(domain.ReviewRequiresRevision)
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewReviews}
		}
	}
	return v, nil
}

// decide submits decision as the configured reviewer.
func (v *View) decide(decision domain.ReviewStatus) tea.Cmd {
	if v.review == nil {
		return nil
	}
	reviewID := v.review.ID
	return func() tea.Msg {
		if v.reviews == nil {
			return messages.ErrorOccurred{Err: ErrNoReviewFlow}
		}
		if v.reviewerID == "" {
			return messages.ErrorOccurred{Err: ErrNoReviewer}
		}
		result, err := v.reviews.SubmitReviewerFeedback(v.ctx, reviewID, v.reviewerID,
			domain.ReviewerFeedback{Decision: decision})
		return messages.FeedbackSubmitted{Result: result, Err: err}
	}
}

func (v *View) handleFeedback(msg messages.FeedbackSubmitted) (*View, tea.Cmd) {
	switch {
	case msg.Err != nil:
		v.err = msg.Err
		return v, nil
	case msg.Result == nil:
		return v, nil
	case msg.Result.Status == domain.ResultError:
		v.err = errors.New(msg.Result.ErrorMessage)
		return v, nil
	}

	v.err = nil
	if msg.Result.FinalDecision != nil {
		v.notice = fmt.Sprintf("Review completed: %s", msg.Result.FinalDecision.Status)
	} else {
		v.notice = fmt.Sprintf("Feedback recorded (%d pending)", msg.Result.ReviewsPending)
	}
	return v, v.Load(msg.Result.ReviewID)
}

func (v *View) visibleLines() int {
	return max(v.height-6, 1)
}

func (v *View) maxScrollOffset() int {
	return max(len(v.buildContent())-v.visibleLines(), 0)
}

func (v *View) buildContent() []string {
	r := v.review
	if r == nil {
		return nil
	}

	lines := []string{
		v.field("Review", r.ID),
		v.field("Destination", r.Destination),
		v.field("Status", v.styles.ForStatus(r.Status).Render(string(r.Status))),
		v.field("Priority", string(r.Priority)),
		v.field("Quality", v.styles.ForScore(r.QualityScore).Render(fmt.Sprintf("%.2f", r.QualityScore))),
		v.field("Submitted", r.SubmittedAt.Format("2006-01-02 15:04")),
		v.field("Reviewers", fmt.Sprintf("%d/%d  %s", len(r.Reviews), r.RequiredReviewers,
			strings.Join(r.AssignedReviewers, ", "))),
		v.field("Criteria", strings.Join(r.Criteria, ", ")),
		"",
		v.styles.Subtitle.Render(fmt.Sprintf("Themes (%d)", len(r.Affinities.Affinities))),
	}
	for _, a := range r.Affinities.Affinities {
		lines = append(lines, fmt.Sprintf("  %-32s %-12s %s", a.Theme, a.Category,
			v.styles.ForScore(a.Confidence).Render(fmt.Sprintf("%.2f", a.Confidence))))
	}

	if len(r.Reviews) > 0 {
		lines = append(lines, "", v.styles.Subtitle.Render("Feedback"))
		for _, e := range r.Reviews {
			line := fmt.Sprintf("  %s: %s", e.ReviewerID, e.Feedback.Decision)
			if e.Feedback.Comments != "" {
				line += " - " + e.Feedback.Comments
			}
			lines = append(lines, line)
		}
	}

	if d := r.FinalDecision; d != nil {
		lines = append(lines, "", v.styles.Subtitle.Render("Final decision"),
			v.field("Status", v.styles.ForStatus(d.Status).Render(string(d.Status))),
			v.field("Reason", d.Reason),
			v.field("Confidence", fmt.Sprintf("%.2f", d.Confidence)))
		names := make([]string, 0, len(d.CategoryScores))
		for name := range d.CategoryScores {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			lines = append(lines, fmt.Sprintf("  %-20s %.2f", name, d.CategoryScores[name]))
		}
	}

	return lines
}

func (v *View) field(label, value string) string {
	return v.styles.Muted.Render(fmt.Sprintf("%-12s", label)) + " " + v.styles.Normal.Render(value)
}

// View renders the review.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Review"))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	}

	if v.review == nil {
		if v.err == nil {
			b.WriteString(v.styles.Muted.Render("Loading review..."))
			b.WriteString("\n\n")
		}
		b.WriteString(v.styles.Help.Render("[esc] back"))
		return b.String()
	}

	lines := v.buildContent()
	end := min(v.scrollOffset+v.visibleLines(), len(lines))
	for _, line := range lines[v.scrollOffset:end] {
		b.WriteString(line)
		b.WriteString("\n")
	}

	if v.notice != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Success.Render(v.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if v.review.Status.IsTerminal() {
		b.WriteString(v.styles.Help.Render("[↑/↓] scroll  [esc] back"))
	} else {
		b.WriteString(v.styles.Help.Render("[a] approve  [x] reject  [v] needs revision  [↑/↓] scroll  [esc] back"))
	}
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Review returns the review on display.
func (v *View) Review() *domain.Review {
	return v.review
}

// Notice returns the last informational message.
func (v *View) Notice() string {
	return v.notice
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
