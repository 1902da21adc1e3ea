package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/affinity-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/affinity-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/affinity-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/affinity-cli/internal/adapters/driving/tui/views/consolidate"
	"github.com/custodia-labs/affinity-cli/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/affinity-cli/internal/adapters/driving/tui/views/reviewdetail"
	"github.com/custodia-labs/affinity-cli/internal/adapters/driving/tui/views/reviews"
	"github.com/custodia-labs/affinity-cli/internal/adapters/driving/tui/views/settings"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles

	menuView        *menu.View
	consolidateView *consolidate.View
	reviewsView     *reviews.View
	detailView      *reviewdetail.View
	settingsView    *settings.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if ports == nil {
		return nil, fmt.Errorf("creating app: %w", ErrMissingConsolidator)
	}
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:           ports,
		ctx:             context.Background(),
		styles:          s,
		menuView:        menu.NewView(s),
		consolidateView: consolidate.NewView(s, km, ports.Consolidator, ports.Cache, ports.Reviews),
		reviewsView:     reviews.NewView(s, ports.Reviews, ports.ReviewerID),
		detailView:      reviewdetail.NewView(s, ports.Reviews, ports.ReviewerID),
		settingsView:    settings.NewView(s, ports.Settings),
		currentView:     messages.ViewMenu,
	}, nil
}

// WithContext sets the context used by every view's service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.consolidateView.WithContext(ctx)
	a.reviewsView.WithContext(ctx)
	a.detailView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("affinity - Theme Review"),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.currentView == messages.ViewHelp {
			if msg.Type == tea.KeyEsc {
				a.currentView = messages.ViewMenu
			}
			return a, nil
		}
		return a, a.forward(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewConsolidate:
			return a, a.consolidateView.Init()
		case messages.ViewReviews:
			return a, a.reviewsView.Load()
		case messages.ViewSettings:
			return a, a.settingsView.Init()
		case messages.ViewMenu, messages.ViewReviewDetail, messages.ViewHelp:
		}
		return a, nil

	case messages.ConsolidationCompleted, messages.SubmittedForReview:
		a.consolidateView, cmd = a.consolidateView.Update(msg)
		return a, cmd

	case messages.ReviewsLoaded:
		a.reviewsView, cmd = a.reviewsView.Update(msg)
		return a, cmd

	case messages.ReviewSelected:
		a.currentView = messages.ViewReviewDetail
		a.detailView.SetReview(nil)
		return a, a.detailView.Load(msg.ReviewID)

	case messages.ReviewLoaded, messages.FeedbackSubmitted:
		a.detailView, cmd = a.detailView.Update(msg)
		return a, cmd

	case messages.SettingsLoaded, messages.SettingsSaved:
		a.settingsView, cmd = a.settingsView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, a.forward(msg)

	case messages.Quit:
		return a, tea.Quit
	}

	return a, a.forward(msg)
}

// forward passes msg to the active view.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewConsolidate:
		a.consolidateView, cmd = a.consolidateView.Update(msg)
	case messages.ViewReviews:
		a.reviewsView, cmd = a.reviewsView.Update(msg)
	case messages.ViewReviewDetail:
		a.detailView, cmd = a.detailView.Update(msg)
	case messages.ViewSettings:
		a.settingsView, cmd = a.settingsView.Update(msg)
	case messages.ViewHelp:
	}
	return cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewConsolidate:
		return a.consolidateView.View()
	case messages.ViewReviews:
		return a.reviewsView.View()
	case messages.ViewReviewDetail:
		return a.detailView.View()
	case messages.ViewSettings:
		return a.settingsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

func (a *App) viewHelp() string {
	reviewer := a.ports.ReviewerID
	if reviewer == "" {
		reviewer = "(none; decisions disabled)"
	}
	return a.styles.Title.Render("Help") + `

Navigation:
  esc         Back
  ctrl+c      Quit

Consolidate:
  (type)      Destination, e.g. "Kyoto, Japan"
  enter       Consolidate (served from cache when fresh)
  r           Re-consolidate ignoring the cache
  s           Submit themes for review
  n           New destination

Review queue:
  j/k, ↑/↓    Navigate
  enter       Open review
  f           Cycle status filter

Review:
  a / x / v   Approve / reject / needs revision

Settings:
  enter       Cycle the highlighted setting

Reviewer: ` + reviewer + `

[esc] back to menu`
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.consolidateView.SetDimensions(width, height)
	a.reviewsView.SetDimensions(width, height)
	a.detailView.SetDimensions(width, height)
	a.settingsView.SetDimensions(width, height)
}
