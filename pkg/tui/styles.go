package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Minimal color palette
var (
	DimColor     = lipgloss.Color("#6c6c6c")
	TextColor    = lipgloss.Color("#e0e0e0")
	AccentColor  = lipgloss.Color("#7aa2f7")
	ErrorColor   = lipgloss.Color("#f7768e")
	SuccessColor = lipgloss.Color("#9ece6a")
	WarnColor    = lipgloss.Color("#e0af68")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(AccentColor).
			Bold(true)

	TextStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimColor)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	WarnStyle = lipgloss.NewStyle().
			Foreground(WarnColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	KeyStyle = lipgloss.NewStyle().
			Foreground(AccentColor)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)
)

// Line prefixes
const (
	ItemPrefix     = "  "
	SelectedPrefix = "* "
	ErrorPrefix    = "error "
	NoticePrefix   = "note "
)

// StatusStyle picks a colour for an HTTP status code.
func StatusStyle(code int) lipgloss.Style {
	switch {
	case code >= 500:
		return ErrorStyle.Bold(true)
	case code >= 400:
		return WarnStyle.Bold(true)
	case code >= 300:
		return TitleStyle
	default:
		return SuccessStyle.Bold(true)
	}
}
