package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/me/sheetify/internal/workspace"
)

var (
	dimColor     = lipgloss.Color("7")
	accentColor  = lipgloss.Color("12")
	successColor = lipgloss.Color("10")
	warningColor = lipgloss.Color("11")
	dangerColor  = lipgloss.Color("9")

	titleStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(dimColor)
	infoStyle     = lipgloss.NewStyle().Foreground(accentColor)
	successStyle  = lipgloss.NewStyle().Foreground(successColor)
	warningStyle  = lipgloss.NewStyle().Foreground(warningColor)
	errorStyle    = lipgloss.NewStyle().Foreground(dangerColor)
	selectedStyle = lipgloss.NewStyle().Foreground(warningColor).Bold(true)
)

// toneStyle returns the style for a status tone.
func toneStyle(t workspace.Tone) lipgloss.Style {
	switch t {
	case workspace.ToneSuccess:
		return successStyle
	case workspace.ToneWarning:
		return warningStyle
	case workspace.ToneError:
		return errorStyle
	default:
		return infoStyle
	}
}
