package tui

import (
	"charm.land/lipgloss/v2"

	"github.com/baaaaaaaka/cursor-cli-manager/internal/tui/theme"
)

// Styles holds the computed lipgloss styles for the TUI.
type Styles struct {
	Page      lipgloss.Style
	Title     lipgloss.Style
	StatusBar lipgloss.Style
	Help      lipgloss.Style
	ErrorBar  lipgloss.Style

	Unknown  lipgloss.Style // unresolved workspace marker
	Degraded lipgloss.Style // unreadable session marker

	UserLabel lipgloss.Style
	AsstLabel lipgloss.Style

	ViewerBorder lipgloss.Style
}

func buildStyles(t theme.Theme) Styles {
	return Styles{
		Page:      lipgloss.NewStyle().Padding(1, 2),
		Title:     lipgloss.NewStyle().Foreground(lipgloss.Color(t.Title)).Bold(true),
		StatusBar: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Muted)),
		Help:      lipgloss.NewStyle().Foreground(lipgloss.Color(t.Muted)),
		ErrorBar:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Error)).Bold(true),

		Unknown:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Unknown)),
		Degraded: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Degraded)),

		UserLabel: lipgloss.NewStyle().Foreground(lipgloss.Color(t.UserLabel)).Bold(true),
		AsstLabel: lipgloss.NewStyle().Foreground(lipgloss.Color(t.AsstLabel)).Bold(true),

		ViewerBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Border)),
	}
}
