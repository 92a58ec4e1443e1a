package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss renderers used by the configuration view.
type Styles struct {
	Title    lipgloss.Style
	Section  lipgloss.Style
	Normal   lipgloss.Style
	Dimmed   lipgloss.Style
	Selected lipgloss.Style
	Cursor   lipgloss.Style
	Input    lipgloss.Style
	Error    lipgloss.Style
	OK       lipgloss.Style
	Panel    lipgloss.Style
}

// DefaultStyles returns the adaptive default palette.
func DefaultStyles() *Styles {
	accent := lipgloss.AdaptiveColor{Light: "#8839ef", Dark: "#cba6f7"}
	subtle := lipgloss.AdaptiveColor{Light: "#6c6f85", Dark: "#a6adc8"}
	red := lipgloss.AdaptiveColor{Light: "#d20f39", Dark: "#f38ba8"}
	green := lipgloss.AdaptiveColor{Light: "#40a02b", Dark: "#a6e3a1"}

	return &Styles{
		Title:    lipgloss.NewStyle().Foreground(accent).Bold(true),
		Section:  lipgloss.NewStyle().Bold(true).MarginTop(1),
		Normal:   lipgloss.NewStyle(),
		Dimmed:   lipgloss.NewStyle().Foreground(subtle),
		Selected: lipgloss.NewStyle().Foreground(green).Bold(true),
		Cursor:   lipgloss.NewStyle().Foreground(accent),
		Input:    lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(accent).Padding(0, 1),
		Error:    lipgloss.NewStyle().Foreground(red),
		OK:       lipgloss.NewStyle().Foreground(green),
		Panel:    lipgloss.NewStyle().Padding(1, 2),
	}
}
