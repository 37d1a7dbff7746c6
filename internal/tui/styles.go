package tui

import "github.com/charmbracelet/lipgloss"

// Colors
var (
	ColorPrimary = lipgloss.Color("#7D56F4")
	ColorAccent  = lipgloss.Color("#F4A261")
	ColorSuccess = lipgloss.Color("#2A9D8F")
	ColorDanger  = lipgloss.Color("#E63946")
	ColorInfo    = lipgloss.Color("#457B9D")
	ColorMuted   = lipgloss.Color("#6C757D")
	ColorBorder  = lipgloss.Color("#3C3C3C")
)

// Base styles
var (
	AppStyle = lipgloss.NewStyle().Padding(1, 2)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(ColorPrimary).
			Padding(0, 1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true)

	TabStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(ColorMuted)

	ActiveTabStyle = TabStyle.
			Bold(true).
			Foreground(ColorPrimary).
			Underline(true)

	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	StatusStyle = lipgloss.NewStyle().Foreground(ColorInfo)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorAccent)
	ErrorStyle  = lipgloss.NewStyle().Foreground(ColorDanger).Bold(true)
	OKStyle     = lipgloss.NewStyle().Foreground(ColorSuccess)
)
