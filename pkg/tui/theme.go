package tui

import "github.com/charmbracelet/lipgloss"

// Theme keeps all driver colors in one place.
type Theme struct {
	Border    lipgloss.Style
	Title     lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Dim       lipgloss.Style
	InFlight  lipgloss.Style
	Idle      lipgloss.Style
	OK        lipgloss.Style
	Failed    lipgloss.Style
	Highlight lipgloss.Style
}

// NewDefaultTheme returns the default palette.
func NewDefaultTheme() Theme {
	purple := lipgloss.Color("#874BFD")

	return Theme{
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(purple).
			Padding(0, 1),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(purple).
			Padding(0, 1),
		Label:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#61AFEF")).Width(10),
		Value:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA")),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		InFlight:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00")),
		Idle:      lipgloss.NewStyle().Foreground(lipgloss.Color("#444444")),
		OK:        lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")),
		Failed:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")),
		Highlight: lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B")),
	}
}
