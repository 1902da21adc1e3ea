// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/affinity-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/affinity-cli/internal/core/domain"
)

// ThemeList displays affinities in a navigable list.
type ThemeList struct {
	themes   []domain.Affinity
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewThemeList creates an empty theme list.
func NewThemeList(s *styles.Styles) *ThemeList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ThemeList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the theme list.
func (l *ThemeList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *ThemeList) Update(msg tea.Msg) (*ThemeList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the visible window of themes.
func (l *ThemeList) View() string {
	if len(l.themes) == 0 {
		return l.styles.Muted.Render("No themes")
	}

	lines := make([]string, 0, len(l.themes)*2+2)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Themes (%d)", len(l.themes))), "")

	// Each theme takes two lines.
	visibleCount := max((l.height-4)/2, 1)
	start := 0
	if l.selected >= visibleCount {
		start = l.selected - visibleCount + 1
	}
	end := min(start+visibleCount, len(l.themes))

	for i := start; i < end; i++ {
		lines = append(lines, l.renderTheme(i, &l.themes[i]))
	}

	return strings.Join(lines, "\n")
}

func (l *ThemeList) renderTheme(index int, a *domain.Affinity) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	name := a.Theme
	if name == "" {
		name = "(unnamed)"
	}
	maxNameLen := max(l.width-20, 10)
	if len(name) > maxNameLen {
		name = name[:maxNameLen-3] + "..."
	}
	confidence := fmt.Sprintf("%.2f", a.Confidence)

	var nameLine string
	if index == l.selected {
		nameLine = l.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, maxNameLen, name, confidence))
	} else {
		nameLine = l.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, maxNameLen, name)) +
			l.styles.Muted.Render(confidence)
	}

	detail := a.Category
	if len(a.SubThemes) > 0 {
		if detail != "" {
			detail += ": "
		}
		detail += strings.Join(a.SubThemes, ", ")
	}
	maxDetailLen := max(l.width-6, 20)
	if len(detail) > maxDetailLen {
		detail = detail[:maxDetailLen-3] + "..."
	}

	return nameLine + "\n" + l.styles.Muted.Render("    "+detail)
}

// SetThemes replaces the list contents and resets the selection.
func (l *ThemeList) SetThemes(themes []domain.Affinity) {
	l.themes = themes
	l.selected = 0
}

// Themes returns the current themes.
func (l *ThemeList) Themes() []domain.Affinity {
	return l.themes
}

// Selected returns the index of the selected theme.
func (l *ThemeList) Selected() int {
	return l.selected
}

// SelectedTheme returns the selected theme, or nil if the list is empty.
func (l *ThemeList) SelectedTheme() *domain.Affinity {
	if l.selected < 0 || l.selected >= len(l.themes) {
		return nil
	}
	return &l.themes[l.selected]
}

// MoveUp moves selection up.
func (l *ThemeList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *ThemeList) MoveDown() {
	if l.selected < len(l.themes)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *ThemeList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of themes.
func (l *ThemeList) Count() int {
	return len(l.themes)
}

// IsEmpty returns whether the list is empty.
func (l *ThemeList) IsEmpty() bool {
	return len(l.themes) == 0
}
