// Package settings provides the settings view for the TUI.
package settings

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/affinity-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/affinity-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/affinity-cli/internal/core/domain"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driving"
)

// ErrNoSettingsService indicates that no settings service was provided.
var ErrNoSettingsService = errors.New("settings service not available")

// Option is one setting that can be cycled through its choices.
type Option struct {
	Label   string
	Key     string
	Choices []string
	Current func(*domain.Settings) string
}

func defaultOptions() []Option {
	return []Option{
		{
			Label:   "Merge strategy",
			Key:     "theme_processing.merge_strategy",
			Choices: []string{string(domain.MergeQualityBased), string(domain.MergeAdditive), string(domain.MergeReplace)},
			Current: func(s *domain.Settings) string { return string(s.Themes.MergeStrategy) },
		},
		{
			Label:   "Incremental updates",
			Key:     "theme_processing.enable_incremental_updates",
			Choices: []string{"false", "true"},
			Current: func(s *domain.Settings) string { return strconv.FormatBool(s.Themes.EnableIncrementalUpdates) },
		},
		{
			Label: "Consolidation strategy",
			Key:   "session_management.consolidation_strategy",
			Choices: []string{
				string(domain.ConsolidationQualityBased),
				string(domain.ConsolidationLatestWins),
				string(domain.ConsolidationAdditive),
			},
			Current: func(s *domain.Settings) string { return string(s.Sessions.ConsolidationStrategy) },
		},
		{
			Label:   "Data versioning",
			Key:     "enhanced_caching.data_versioning",
			Choices: []string{"true", "false"},
			Current: func(s *domain.Settings) string { return strconv.FormatBool(s.Cache.DataVersioning) },
		},
		{
			Label:   "Export format",
			Key:     "export_system.default_format",
			Choices: []string{string(domain.ExportStructured), string(domain.ExportJSON)},
			Current: func(s *domain.Settings) string { return string(s.Export.DefaultFormat) },
		},
		{
			Label:   "Copy images",
			Key:     "export_system.copy_images_to_export",
			Choices: []string{"true", "false"},
			Current: func(s *domain.Settings) string { return strconv.FormatBool(s.Export.CopyImages) },
		},
	}
}

// View shows the effective settings and cycles the common choices.
type View struct {
	styles          *styles.Styles
	settingsService driving.SettingsService

	options  []Option
	settings *domain.Settings
	selected int
	notice   string
	err      error

	width  int
	height int
	ready  bool
}

// NewView creates a new settings view.
func NewView(s *styles.Styles, settingsService driving.SettingsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:          s,
		settingsService: settingsService,
		options:         defaultOptions(),
	}
}

// Init loads the settings.
func (v *View) Init() tea.Cmd {
	return v.loadSettings()
}

func (v *View) loadSettings() tea.Cmd {
	return func() tea.Msg {
		if v.settingsService == nil {
			return messages.SettingsLoaded{Err: ErrNoSettingsService}
		}
		settings, err := v.settingsService.Get()
		return messages.SettingsLoaded{Settings: settings, Err: err}
	}
}

// Update handles messages for the settings view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.SettingsLoaded:
		v.err = msg.Err
		if msg.Err == nil {
			v.settings = msg.Settings
		}
		return v, nil

	case messages.SettingsSaved:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.notice = "Saved " + msg.Key
		return v, v.loadSettings()

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "j":
		if v.selected < len(v.options)-1 {
			v.selected++
		}
	case "enter", " ":
		return v, v.cycle(v.options[v.selected])
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}
	return v, nil
}

// cycle saves the choice after the option's current value.
func (v *View) cycle(opt Option) tea.Cmd {
	if v.settings == nil {
		return nil
	}
	next := NextChoice(opt.Choices, opt.Current(v.settings))
	return func() tea.Msg {
		if v.settingsService == nil {
			return messages.SettingsSaved{Key: opt.Key, Err: ErrNoSettingsService}
		}
		return messages.SettingsSaved{Key: opt.Key, Err: v.settingsService.Set(opt.Key, next)}
	}
}

// NextChoice returns the choice after current, wrapping around. An unknown
// current value yields the first choice.
func NextChoice(choices []string, current string) string {
	i := slices.Index(choices, current)
	return choices[(i+1)%len(choices)]
}

// View renders the settings.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Settings"))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	}

	if v.settings == nil {
		if v.err == nil {
			b.WriteString(v.styles.Muted.Render("Loading settings..."))
			b.WriteString("\n\n")
		}
		b.WriteString(v.styles.Help.Render("[esc] back"))
		return b.String()
	}

	for i, opt := range v.options {
		line := fmt.Sprintf("%-24s %s", opt.Label, opt.Current(v.settings))
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render("> " + line))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + line))
		}
		b.WriteString("\n")
	}

	s := v.settings
	b.WriteString("\n")
	b.WriteString(v.styles.Subtitle.Render("Paths"))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  outputs %s  cache %s  exports %s",
		s.Paths.Outputs, s.Paths.Cache, s.Paths.Exports)))
	b.WriteString("\n")
	b.WriteString(v.styles.Subtitle.Render("Review thresholds"))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  auto-approve %.2f  require review %.2f  reviewers %d",
		s.QA.AutoApproveThreshold, s.QA.RequireReviewThreshold, len(s.QA.Reviewers))))
	b.WriteString("\n")

	if v.notice != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Success.Render(v.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] change  [esc] back"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Settings returns the loaded settings.
func (v *View) Settings() *domain.Settings {
	return v.settings
}

// Selected returns the highlighted option index.
func (v *View) Selected() int {
	return v.selected
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
