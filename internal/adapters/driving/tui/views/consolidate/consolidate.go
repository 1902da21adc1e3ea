// Package consolidate provides the destination consolidation view for the TUI.
package consolidate

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/affinity-cli/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/affinity-cli/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/affinity-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/affinity-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/affinity-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/affinity-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/affinity-cli/internal/core/domain"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driving"
)

// View reads a destination, shows its consolidated themes and submits them
// for review.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.DestinationInput
	list      *list.ThemeList
	statusbar *status.Bar

	consolidator driving.Consolidator
	cache        driving.DataCache
	reviews      driving.ReviewFlow
	ctx          context.Context

	width      int
	height     int
	ready      bool
	err        error
	focusInput bool // true while typing a destination
	data       *domain.ConsolidatedData
	notice     string
}

// NewView creates a new consolidation view. The cache may be nil.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	consolidator driving.Consolidator,
	cache driving.DataCache,
	reviews driving.ReviewFlow,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:       s,
		keymap:       km,
		input:        input.NewDestinationInput(s),
		list:         list.NewThemeList(s),
		statusbar:    status.NewBar(s, km),
		consolidator: consolidator,
		cache:        cache,
		reviews:      reviews,
		ctx:          context.Background(),
		width:        80,
		height:       24,
		focusInput:   true,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the consolidation view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.ConsolidationCompleted:
		v.handleConsolidated(msg)
		return v, nil

	case messages.SubmittedForReview:
		v.handleSubmitted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			destination := v.input.Value()
			if destination == "" {
				return v, nil
			}
			return v, v.startConsolidation(destination, false)
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch msg.String() {
	case "up", "k":
		v.list.MoveUp()
	case "down", "j":
		v.list.MoveDown()
	case "n":
		v.Reset()
	case "r":
		if v.data != nil {
			return v, v.startConsolidation(v.data.Destination, true)
		}
	case "s":
		return v, v.submit()
	}
	return v, nil
}

func (v *View) startConsolidation(destination string, refresh bool) tea.Cmd {
	v.err = nil
	v.notice = ""
	v.focusInput = false
	v.input.Blur()
	v.statusbar.SetState(status.StateConsolidating)
	return v.consolidate(destination, refresh)
}

// consolidate serves the destination from the cache unless refresh is set,
// and caches freshly built records.
func (v *View) consolidate(destination string, refresh bool) tea.Cmd {
	return func() tea.Msg {
		if v.consolidator == nil {
			return messages.ErrorOccurred{Err: ErrNoConsolidator}
		}

		if v.cache != nil && !refresh {
			if data := v.cache.GetConsolidatedData(v.ctx, destination); data != nil {
				return messages.ConsolidationCompleted{Destination: destination, Data: data, Cached: true}
			}
		}

		data, err := v.consolidator.ConsolidateDestination(v.ctx, destination)
		if err != nil {
			return messages.ConsolidationCompleted{Destination: destination, Err: err}
		}

		done := messages.ConsolidationCompleted{Destination: destination, Data: data}
		if v.cache != nil {
			_, done.CacheErr = v.cache.CacheConsolidatedData(v.ctx, destination, data)
		}
		return done
	}
}

func (v *View) submit() tea.Cmd {
	if !v.data.HasThemes() {
		v.notice = "Nothing to submit"
		return nil
	}
	data := v.data
	return func() tea.Msg {
		if v.reviews == nil {
			return messages.ErrorOccurred{Err: ErrNoReviewFlow}
		}
		result, err := v.reviews.SubmitForReview(
			v.ctx, data.Themes, data.Themes.Quality(), data.Destination, domain.PriorityNormal,
		)
		return messages.SubmittedForReview{Result: result, Err: err}
	}
}

func (v *View) handleConsolidated(msg messages.ConsolidationCompleted) {
	if msg.Err != nil {
		v.setError(msg.Err)
		v.focusInput = true
		v.input.Focus()
		return
	}

	v.err = nil
	v.data = msg.Data
	v.input.SetValue(msg.Destination)
	if msg.Data.HasThemes() {
		v.list.SetThemes(msg.Data.Themes.Affinities)
	} else {
		v.list.SetThemes(nil)
	}
	v.statusbar.SetState(status.StateThemes)
	v.statusbar.SetMessage("")
	v.statusbar.SetThemeCount(v.list.Count(), msg.Cached)
	if msg.CacheErr != nil {
		v.notice = "Not cached: " + msg.CacheErr.Error()
	}
}

func (v *View) handleSubmitted(msg messages.SubmittedForReview) {
	switch {
	case msg.Err != nil:
		v.setError(msg.Err)
	case msg.Result == nil:
		v.notice = ""
	case msg.Result.Status == domain.ResultError:
		v.setError(errors.New(msg.Result.ErrorMessage))
	case msg.Result.Status == domain.ResultAutoApproved:
		v.notice = fmt.Sprintf("Auto-approved (quality %.2f)", msg.Result.QualityScore)
	default:
		v.notice = fmt.Sprintf("Review %s created for %d reviewer(s)",
			msg.Result.ReviewID, len(msg.Result.AssignedReviewers))
	}
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// View renders the consolidation view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 12)
	sections = append(sections, v.styles.Title.Render("Consolidate"), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	if v.data != nil {
		sections = append(sections, v.renderSummary(), "", v.list.View())
	}

	if v.notice != "" {
		sections = append(sections, "", v.styles.Success.Render(v.notice))
	}

	sections = append(sections, "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderSummary() string {
	d := v.data
	quality := d.Themes.Quality()
	line := fmt.Sprintf("%s  strategy %s  sessions %d  nuances %d  images %d  evidence %d  ",
		d.Destination, d.Metadata.Strategy, len(d.SourceSessions),
		d.Nuances.Count(), len(d.Images), len(d.Evidence))
	return v.styles.Normal.Render(line) + v.styles.ForScore(quality).Render(fmt.Sprintf("quality %.2f", quality))
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-12)
	v.statusbar.SetWidth(width)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Destination returns the current destination input.
func (v *View) Destination() string {
	return v.input.Value()
}

// SetDestination sets the destination input.
func (v *View) SetDestination(destination string) {
	v.input.SetValue(destination)
}

// Data returns the consolidated record on display, if any.
func (v *View) Data() *domain.ConsolidatedData {
	return v.data
}

// SelectedTheme returns the highlighted theme.
func (v *View) SelectedTheme() *domain.Affinity {
	return v.list.SelectedTheme()
}

// Notice returns the last informational message.
func (v *View) Notice() string {
	return v.notice
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// InputFocused returns whether the destination input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Reset returns the view to destination entry.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.list.SetThemes(nil)
	v.data = nil
	v.err = nil
	v.notice = ""
	v.statusbar.Clear()
}
