package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorInk       = lipgloss.Color("#E5E9F0")
	ColorDim       = lipgloss.Color("#7A8291")
	ColorAccent    = lipgloss.Color("#88C0D0")
	ColorAccentAlt = lipgloss.Color("#5E81AC")
	ColorSuccess   = lipgloss.Color("#A3BE8C")
	ColorWarn      = lipgloss.Color("#EBCB8B")
	ColorError     = lipgloss.Color("#BF616A")
)

var (
	// ErrorStyle and WarnStyle are shared with plain-mode output.
	ErrorStyle = lipgloss.NewStyle().Foreground(ColorError)
	WarnStyle  = lipgloss.NewStyle().Foreground(ColorWarn)
)
