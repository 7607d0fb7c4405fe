package display

import "github.com/charmbracelet/lipgloss"

// Colors of the widget: white on black.
const (
	colorBackground = "#000000"
	colorText       = "#FFFFFF"
	colorMuted      = "#A0A0A0"
	colorFaint      = "#5C5C5C"
)

type styles struct {
	Frame  lipgloss.Style
	Track  lipgloss.Style
	Artist lipgloss.Style
	Help   lipgloss.Style
	Status lipgloss.Style
}

func newStyles(width int) styles {
	return styles{
		Frame: lipgloss.NewStyle().
			Background(lipgloss.Color(colorBackground)).
			Padding(1, 2),

		Track: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorText)).
			Bold(true).
			Inline(true).
			MaxWidth(width),

		Artist: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorMuted)).
			Inline(true).
			MaxWidth(width),

		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorFaint)),

		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorFaint)).
			Italic(true),
	}
}
