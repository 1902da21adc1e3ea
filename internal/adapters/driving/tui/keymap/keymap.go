// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	// Quit exits the application.
	Quit key.Binding

	// Help shows the help view.
	Help key.Binding

	// Back returns to the previous view.
	Back key.Binding

	// Consolidate submits the destination input.
	Consolidate key.Binding

	// Up navigates up in a list.
	Up key.Binding

	// Down navigates down in a list.
	Down key.Binding

	// Select confirms a selection.
	Select key.Binding

	// NewDestination starts a new destination from the themes view.
	NewDestination key.Binding

	// Submit sends consolidated themes to review.
	Submit key.Binding

	// Approve records an approved decision.
	Approve key.Binding

	// Reject records a rejected decision.
	Reject key.Binding

	// Revise records a requires_revision decision.
	Revise key.Binding

	// Reload refreshes the current view.
	Reload key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Consolidate: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "consolidate"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		NewDestination: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new destination"),
		),
		Submit: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "submit for review"),
		),
		Approve: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "approve"),
		),
		Reject: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "reject"),
		),
		Revise: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "needs revision"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
	}
}

// ShortHelp returns a short list of keybindings for the help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Help}
}

// ThemesHelp returns keybindings for the consolidated themes view.
func (k *KeyMap) ThemesHelp() []key.Binding {
	return []key.Binding{k.NewDestination, k.Submit, k.Up, k.Back}
}

// DecisionHelp returns keybindings for recording a review decision.
func (k *KeyMap) DecisionHelp() []key.Binding {
	return []key.Binding{k.Approve, k.Reject, k.Revise, k.Back}
}

// FullHelp returns the full list of keybindings for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select},
		{k.Consolidate, k.NewDestination, k.Submit},
		{k.Approve, k.Reject, k.Revise},
		{k.Reload, k.Back, k.Help, k.Quit},
	}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
