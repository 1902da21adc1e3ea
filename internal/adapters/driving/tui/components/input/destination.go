// Package input provides text input components for the TUI.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/affinity-cli/internal/adapters/driving/tui/styles"
)

const minInputWidth = 20

// DestinationInput reads a destination name such as "Kyoto, Japan".
type DestinationInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int
}

// NewDestinationInput creates a focused destination input.
func NewDestinationInput(s *styles.Styles) *DestinationInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "City, Country"
	ti.Focus()
	ti.CharLimit = 128
	ti.Width = 50

	return &DestinationInput{
		textinput: ti,
		styles:    s,
		width:     50,
	}
}

// Init starts the cursor blinking.
func (d *DestinationInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update forwards messages to the wrapped textinput.
func (d *DestinationInput) Update(msg tea.Msg) (*DestinationInput, tea.Cmd) {
	var cmd tea.Cmd
	d.textinput, cmd = d.textinput.Update(msg)
	return d, cmd
}

// View renders the labelled input.
func (d *DestinationInput) View() string {
	label := d.styles.Title.Render("Destination: ")
	field := d.styles.InputField.Render(d.textinput.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center, label, field)
}

// Value returns the trimmed destination.
func (d *DestinationInput) Value() string {
	return strings.TrimSpace(d.textinput.Value())
}

// SetValue sets the input value.
func (d *DestinationInput) SetValue(value string) {
	d.textinput.SetValue(value)
}

// Focus sets focus on the input.
func (d *DestinationInput) Focus() tea.Cmd {
	return d.textinput.Focus()
}

// Blur removes focus from the input.
func (d *DestinationInput) Blur() {
	d.textinput.Blur()
}

// Focused returns whether the input is focused.
func (d *DestinationInput) Focused() bool {
	return d.textinput.Focused()
}

// SetWidth sets the width, leaving room for the label.
func (d *DestinationInput) SetWidth(width int) {
	d.width = width
	d.textinput.Width = max(width-15, minInputWidth)
}

// Width returns the current width.
func (d *DestinationInput) Width() int {
	return d.width
}

// Reset clears the input.
func (d *DestinationInput) Reset() {
	d.textinput.Reset()
}
