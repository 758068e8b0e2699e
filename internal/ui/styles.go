// Package ui renders scan progress and search results for the terminal.
package ui

import "github.com/charmbracelet/lipgloss"

// Color palette. Single violet accent, quiet grays for metadata.
const (
	ColorViolet   = "135" // Primary accent
	ColorGray     = "245" // Secondary text, paths
	ColorDarkGray = "238" // Separators
	ColorRed      = "196" // Errors
	ColorYellow   = "220" // Warnings
	ColorGreen    = "114" // Success
)

// Styles holds the terminal styles for rendering.
type Styles struct {
	Title   lipgloss.Style
	Score   lipgloss.Style
	Path    lipgloss.Style
	Snippet lipgloss.Style
	Badge   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
}

// DefaultStyles returns the styled set for TTY output.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true),
		Score:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorViolet)),
		Path:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Snippet: lipgloss.NewStyle(),
		Badge:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorViolet)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGreen)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
	}
}

// NoColorStyles returns unstyled components for pipes and CI.
func NoColorStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle(),
		Score:   lipgloss.NewStyle(),
		Path:    lipgloss.NewStyle(),
		Snippet: lipgloss.NewStyle(),
		Badge:   lipgloss.NewStyle(),
		Success: lipgloss.NewStyle(),
		Warning: lipgloss.NewStyle(),
		Error:   lipgloss.NewStyle(),
		Dim:     lipgloss.NewStyle(),
	}
}
