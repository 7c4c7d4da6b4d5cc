package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/mobil-koeln/stopsync/internal/catalog"
)

// Colors matching the output/colors.go scheme
var (
	colorCyan   = lipgloss.Color("6")  // Cyan - routes
	colorYellow = lipgloss.Color("3")  // Yellow - arriving soon
	colorRed    = lipgloss.Color("1")  // Red - due, errors
	colorGreen  = lipgloss.Color("2")  // Green - later arrivals
	colorWhite  = lipgloss.Color("15") // White - stop titles, text
	colorGray   = lipgloss.Color("8")  // Gray - muted text
)

// Text styles
var (
	styleStop   = lipgloss.NewStyle().Foreground(colorWhite).Bold(true)
	styleRoute  = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	styleDue    = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	styleSoon   = lipgloss.NewStyle().Foreground(colorYellow)
	styleLater  = lipgloss.NewStyle().Foreground(colorGreen)
	styleMuted  = lipgloss.NewStyle().Foreground(colorGray)
	styleHeader = lipgloss.NewStyle().Foreground(colorWhite).Bold(true)
)

// Panel border styles
var (
	stylePanelFocused = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorCyan)

	stylePanelNormal = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorGray)
)

// Selected item in a list
var styleSelected = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)

// Status bar at the bottom
var styleStatusBar = lipgloss.NewStyle().
	Foreground(colorGray).
	Background(lipgloss.Color("0"))

// Loading indicator
var styleLoading = lipgloss.NewStyle().Foreground(colorYellow).Italic(true)

// Error text
var styleError = lipgloss.NewStyle().Foreground(colorRed)

// Logo/brand style
var styleLogo = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)

// formatPrediction returns a styled prediction such as "3 & 10 mins"
func formatPrediction(p catalog.Prediction, label string) string {
	if p == nil {
		return styleMuted.Render("?")
	}
	next, ok := p.Next()
	if !ok {
		return styleMuted.Render(p.String())
	}

	text := p.String()
	if label != "" {
		text += " " + label
	}
	switch {
	case next <= 1:
		return styleDue.Render(text)
	case next <= 5:
		return styleSoon.Render(text)
	default:
		return styleLater.Render(text)
	}
}
