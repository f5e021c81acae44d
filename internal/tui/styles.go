package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette shared by the stage reporter and the setup wizard.
var (
	ColorPrimary = lipgloss.Color("#9b59b6") // wizard titles, selection
	ColorMuted   = lipgloss.Color("#95a5a6") // timings, help, pipeline prefixes
	ColorStage   = lipgloss.Color("#27ae60")
	ColorModel   = lipgloss.Color("#3498db")
	ColorOK      = lipgloss.Color("#2ecc71")
	ColorWarning = lipgloss.Color("#f39c12")
	ColorError   = lipgloss.Color("#e74c3c")
)

// Stage lines and the run summary.
var (
	PendingStyle = lipgloss.NewStyle().Foreground(ColorPrimary)
	StageStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorStage)
	ModelStyle   = lipgloss.NewStyle().Foreground(ColorModel)
	CostStyle    = lipgloss.NewStyle().Foreground(ColorStage)
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorOK)
	WarningStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorError)

	// prefixStyle renders the "tasks/" part of a task stage name.
	prefixStyle = lipgloss.NewStyle().Foreground(ColorMuted)
)

// Setup wizard.
var (
	TitleStyle      = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	SelectedStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	UnselectedStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	HelpStyle       = lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)
)

// StageLabel renders a stage name. Task stages ("tasks/frontend") show the
// category in the stage colour behind a muted pipeline prefix.
func StageLabel(name string) string {
	prefix, category, ok := strings.Cut(name, "/")
	if !ok {
		return StageStyle.Render(name)
	}
	return prefixStyle.Render(prefix+"/") + StageStyle.Render(category)
}
