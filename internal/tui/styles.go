package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/berth-dev/cutover/internal/simulation"
)

const (
	primaryColor   = "#7C3AED" // Purple
	secondaryColor = "#10B981" // Green
	warningColor   = "#F59E0B" // Amber
	errorColor     = "#EF4444" // Red
	dimColor       = "#6B7280" // Gray
)

var (
	// BoxStyle provides a rounded border box with primary color.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(primaryColor)).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(primaryColor)).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(dimColor))

	UserStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(secondaryColor)).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(errorColor))

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(warningColor)).
			Bold(true)

	// StatusBarStyle provides styling for the status bar.
	StatusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#1F2937")).
			Foreground(lipgloss.Color("#9CA3AF")).
			Padding(0, 1)
)

// personaStyles colours each stakeholder's attribution.
var personaStyles = map[simulation.PersonaID]lipgloss.Style{
	simulation.PersonaPM:     lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6")).Bold(true),
	simulation.PersonaDevOps: lipgloss.NewStyle().Foreground(lipgloss.Color(warningColor)).Bold(true),
	simulation.PersonaCTO:    lipgloss.NewStyle().Foreground(lipgloss.Color("#EC4899")).Bold(true),
}

func personaStyle(p simulation.PersonaID) lipgloss.Style {
	if s, ok := personaStyles[p]; ok {
		return s
	}
	return TitleStyle
}
