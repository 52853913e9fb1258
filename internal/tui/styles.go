// Package tui holds the interactive terminal surfaces: lipgloss styles,
// huh prompts for credentials and drafts, and the bubbletea chat view.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/schoolblog/blogctl/internal/alerts"
)

// Styles contains the lipgloss styles shared across commands
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Muted    lipgloss.Style
	Border   lipgloss.Style
	Author   lipgloss.Style
	Liked    lipgloss.Style
	Help     lipgloss.Style
}

// DefaultStyles returns the default lipgloss styles
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")). // Purple
			MarginBottom(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")). // Gray
			MarginBottom(1),
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")), // Red
		Success: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("46")), // Green
		Warning: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("226")), // Yellow
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")), // Gray
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")). // Purple
			Padding(1, 2),
		Author: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")), // Cyan
		Liked: lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")), // Pink
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")). // Gray
			MarginTop(1),
	}
}

// RenderAlert formats one alert with its severity color
func (s Styles) RenderAlert(a alerts.Alert) string {
	switch a.Severity {
	case alerts.SeverityError:
		return s.Error.Render("✗ " + a.Message)
	case alerts.SeveritySuccess:
		return s.Success.Render("✓ " + a.Message)
	default:
		return s.Warning.Render("• " + a.Message)
	}
}
