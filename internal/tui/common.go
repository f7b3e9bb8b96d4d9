// Package tui implements the terminal chat for a simulation using Bubble Tea.
package tui

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// Common key binding constants.
const (
	KeyCtrlC = "ctrl+c"
	KeyCtrlJ = "ctrl+j"
	KeyEnter = "enter"
	KeyEsc   = "esc"
)

// quitWords end the session from the input box, matching the line REPL.
var quitWords = map[string]bool{"exit": true, "quit": true, "q": true}

// IsTTY returns true if stdout is connected to a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Run starts the chat program in alternate screen mode and returns the
// final model.
func Run(m ChatModel) (ChatModel, error) {
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return m, err
	}
	if cm, ok := final.(ChatModel); ok {
		return cm, nil
	}
	return m, nil
}
