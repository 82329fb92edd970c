package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles for the review screen.
type Styles struct {
	Title      lipgloss.Style
	Selected   lipgloss.Style
	Ready      lipgloss.Style
	NeedsWork  lipgloss.Style
	Failed     lipgloss.Style
	Dim        lipgloss.Style
	DialogBox  lipgloss.Style
	StatusLine lipgloss.Style
}

// DefaultStyles returns the default style set.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")),
		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")),
		Ready: lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")),
		NeedsWork: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")),
		Failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),
		Dim: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		DialogBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(1, 2),
		StatusLine: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1),
	}
}
