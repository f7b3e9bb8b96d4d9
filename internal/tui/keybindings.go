package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the chat key bindings.
type KeyMap struct {
	Send     key.Binding
	NewLine  key.Binding
	Quit     key.Binding
	ScrollUp key.Binding
	ScrollDn key.Binding
}

// DefaultKeyMap provides the default key bindings.
var DefaultKeyMap = KeyMap{
	Send: key.NewBinding(
		key.WithKeys(KeyEnter),
		key.WithHelp("enter", "send"),
	),
	NewLine: key.NewBinding(
		key.WithKeys(KeyCtrlJ),
		key.WithHelp("ctrl+j", "new line"),
	),
	Quit: key.NewBinding(
		key.WithKeys(KeyCtrlC, KeyEsc),
		key.WithHelp("esc", "quit"),
	),
	ScrollUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("pgup", "scroll up"),
	),
	ScrollDn: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("pgdn", "scroll down"),
	),
}

func (k KeyMap) help() string {
	var out string
	for i, b := range []key.Binding{k.Send, k.NewLine, k.ScrollUp, k.Quit} {
		if i > 0 {
			out += " · "
		}
		out += b.Help().Key + ": " + b.Help().Desc
	}
	return out
}
