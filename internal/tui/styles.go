package tui

import "github.com/charmbracelet/lipgloss"

// Theme groups the styles used by the views.
type Theme struct {
	Base     lipgloss.Style
	Title    lipgloss.Style
	Box      lipgloss.Style
	Item     lipgloss.Style
	Selected lipgloss.Style
	Work     lipgloss.Style
	Break    lipgloss.Style
	Paused   lipgloss.Style
	Timer    lipgloss.Style
	Dim      lipgloss.Style
	Success  lipgloss.Style
	Failure  lipgloss.Style
	Footer   lipgloss.Style
	Input    lipgloss.Style
}

var defaultTheme = Theme{
	Base:     lipgloss.NewStyle().Margin(1, 2),
	Title:    lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
	Box:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1),
	Item:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
	Selected: lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
	Work:     lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true),
	Break:    lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),
	Paused:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
	Timer:    lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Bold(true).Padding(0, 1),
	Dim:      lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	Success:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	Failure:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	Footer:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true),
	Input:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("205")).Padding(0, 1).Width(60),
}
