// Package reviews provides the review queue view for the TUI.
package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/affinity-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/affinity-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/affinity-cli/internal/core/domain"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driving"
)

// ErrNoReviewFlow indicates that no review service was provided.
var ErrNoReviewFlow = errors.New("review service is required")

// statusFilters is the cycle order of the queue filter; empty means all.
var statusFilters = []domain.ReviewStatus{
	"",
	domain.ReviewPending,
	domain.ReviewInProgress,
	domain.ReviewApproved,
	domain.ReviewRejected,
	domain.ReviewRequiresRevision,
}

// View lists reviews ordered by priority.
type View struct {
	styles  *styles.Styles
	reviews driving.ReviewFlow
	ctx     context.Context

	reviewerID   string
	filter       int
	queue        []domain.ReviewSummary
	selected     int
	scrollOffset int
	width        int
	height       int
	ready        bool
	loading      bool
	err          error
}

// NewView creates a queue view. A non-empty reviewerID limits the queue to
// that reviewer's assignments.
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

// Load returns a command that fetches the queue.
func (v *View) Load() tea.Cmd {
	v.loading = true
	status := v.Filter()
	return func() tea.Msg {
		if v.reviews == nil {
			return messages.ReviewsLoaded{Err: ErrNoReviewFlow}
		}
		queue, err := v.reviews.ReviewQueue(v.ctx, v.reviewerID, status)
		return messages.ReviewsLoaded{Reviews: queue, Err: err}
	}
}

// Update handles messages for the queue view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.ReviewsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.queue = msg.Reviews
			v.selected = 0
			v.scrollOffset = 0
		}
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case "down", "j":
		if v.selected < len(v.queue)-1 {
			v.selected++
			v.adjustScroll()
		}
	case "enter":
		if r := v.SelectedReview(); r != nil {
			id := r.ReviewID
			return v, func() tea.Msg {
				return messages.ReviewSelected{ReviewID: id}
			}
		}
	case "f":
		v.filter = (v.filter + 1) % len(statusFilters)
		return v, v.Load()
	case "r":
		return v, v.Load()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}
	return v, nil
}

func (v *View) adjustScroll() {
	visible := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visible {
		v.scrollOffset = v.selected - visible + 1
	}
}

func (v *View) visibleItemCount() int {
	return max(v.height-8, 1)
}

// View renders the queue.
func (v *View) View() string {
	var b strings.Builder

	filter := "all"
	if f := v.Filter(); f != "" {
		filter = string(f)
	}
	title := fmt.Sprintf("Review Queue (%d) - %s", len(v.queue), filter)
	if v.reviewerID != "" {
		title += " - " + v.reviewerID
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading reviews..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.queue) == 0:
		b.WriteString(v.styles.Muted.Render("No reviews."))
	default:
		visible := v.visibleItemCount()
		end := min(v.scrollOffset+visible, len(v.queue))
		for i := v.scrollOffset; i < end; i++ {
			b.WriteString(v.renderReview(i, &v.queue[i]))
			b.WriteString("\n")
		}
		if len(v.queue) > visible {
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]", v.scrollOffset+1, end, len(v.queue))))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] open  [f] filter  [r] reload  [esc] back"))
	return b.String()
}

func (v *View) renderReview(index int, r *domain.ReviewSummary) string {
	required := len(r.AssignedReviewers)
	line := fmt.Sprintf("%-7s %-24s %d themes  %d/%d reviews  ",
		r.Priority, r.Destination, r.AffinityCount, r.ReviewsCompleted, required)

	if index == v.selected {
		return v.styles.Selected.Render("> "+line) + v.styles.ForStatus(r.Status).Render(string(r.Status))
	}
	return v.styles.Normal.Render("  "+line) + v.styles.ForStatus(r.Status).Render(string(r.Status))
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Filter returns the active status filter; empty means all statuses.
func (v *View) Filter() domain.ReviewStatus {
	return statusFilters[v.filter]
}

// Queue returns the loaded reviews.
func (v *View) Queue() []domain.ReviewSummary {
	return v.queue
}

// SelectedReview returns the highlighted review, if any.
func (v *View) SelectedReview() *domain.ReviewSummary {
	if v.selected < 0 || v.selected >= len(v.queue) {
		return nil
	}
	return &v.queue[v.selected]
}

// Loading reports whether a queue fetch is in flight.
func (v *View) Loading() bool {
	return v.loading
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
