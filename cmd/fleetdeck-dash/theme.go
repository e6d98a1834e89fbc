package main

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual styling for the fleetdeck dashboard.
type Theme struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Muted     lipgloss.Color
}

// DefaultTheme returns the default theme for fleetdeck dash.
func DefaultTheme() Theme {
	return Theme{
		Primary:   lipgloss.Color("12"),  // Blue
		Secondary: lipgloss.Color("14"),  // Cyan
		Success:   lipgloss.Color("10"),  // Green
		Warning:   lipgloss.Color("11"),  // Yellow
		Error:     lipgloss.Color("9"),   // Red
		Muted:     lipgloss.Color("240"), // Gray
	}
}

// Styles are the pre-built lipgloss styles shared by the render helpers.
type Styles struct {
	Muted       lipgloss.Style
	AgentCol    lipgloss.Style
	FeedTime    lipgloss.Style
	FeedTitle   lipgloss.Style
	StatusOK    lipgloss.Style
	StatusWarn  lipgloss.Style
	StatusError lipgloss.Style
}

// DefaultStyles builds the style set from a theme.
func DefaultStyles(theme Theme) Styles {
	return Styles{
		Muted:       lipgloss.NewStyle().Foreground(theme.Muted),
		AgentCol:    lipgloss.NewStyle().MaxHeight(1),
		FeedTime:    lipgloss.NewStyle().Foreground(theme.Muted),
		FeedTitle:   lipgloss.NewStyle().Bold(true).Foreground(theme.Secondary),
		StatusOK:    lipgloss.NewStyle().Foreground(theme.Success),
		StatusWarn:  lipgloss.NewStyle().Foreground(theme.Warning),
		StatusError: lipgloss.NewStyle().Foreground(theme.Error),
	}
}
