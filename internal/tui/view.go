package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mobil-koeln/stopsync/internal/catalog"
)

// View renders the entire TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	// Layout: header + filter bar + panels + status bar
	header := renderHeader()
	filterBar := m.renderFilterBar()
	statusBar := m.renderStatusBar()

	headerHeight := lipgloss.Height(header)
	filterHeight := lipgloss.Height(filterBar)
	statusHeight := lipgloss.Height(statusBar)
	panelHeight := m.height - headerHeight - filterHeight - statusHeight
	if panelHeight < 3 {
		panelHeight = 3
	}

	// Panel widths: ~35% left, ~65% right
	leftWidth := m.width*35/100 - 2 // subtract border
	rightWidth := m.width - leftWidth - 4
	if leftWidth < 20 {
		leftWidth = 20
	}
	if rightWidth < 20 {
		rightWidth = 20
	}

	leftPanel := m.renderSectionList(leftWidth, panelHeight-2)
	rightPanel := m.renderRightPanel(rightWidth, panelHeight-2)

	// Apply borders
	leftBorder := stylePanelNormal
	if m.focus == focusSections {
		leftBorder = stylePanelFocused
	}
	leftPanel = leftBorder.
		Width(leftWidth).
		Height(panelHeight - 2).
		Render(leftPanel)

	rightBorder := stylePanelNormal
	if m.focus == focusStops {
		rightBorder = stylePanelFocused
	}
	rightPanel = rightBorder.
		Width(rightWidth).
		Height(panelHeight - 2).
		Render(rightPanel)

	panels := lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, rightPanel)

	return lipgloss.JoinVertical(lipgloss.Left, header, filterBar, panels, statusBar)
}

// renderHeader renders the brand name.
func renderHeader() string {
	title := "" +
		"     _                                \n" +
		" ___| |_ ___ _ __  ____  _ _ _  __ \n" +
		"(_-<  _/ _ \\ '_ \\(_-< || | ' \\/ _|\n" +
		"/__/\\__\\___/ .__//__/\\_, |_||_\\__|\n" +
		"           |_|       |__/         "

	return styleLogo.Render(title)
}

// renderSyncState renders the crawl progress or failure while no catalog is shown.
func (m Model) renderSyncState() string {
	if m.syncing {
		return m.spinner.View() + styleLoading.Render(
			fmt.Sprintf(" Syncing stop catalog... attempt %d/%d", m.syncFailures+1, maxSyncAttempts))
	}
	if m.syncErr != nil {
		return styleError.Render(" Error: "+m.syncErr.Error()) + "\n" +
			styleMuted.Render(" Press r to retry")
	}
	if m.loopErr != nil {
		return styleError.Render(" Channel stopped: " + m.loopErr.Error())
	}
	return styleMuted.Render(" Press r to sync")
}

// renderSectionList renders the left section panel.
func (m Model) renderSectionList(width, height int) string {
	title := styleHeader.Render("SECTIONS")

	if m.catalog == nil {
		return title + "\n" + m.renderSyncState()
	}

	sections := m.visibleSections()
	if len(sections) == 0 {
		if filter := m.routeFilter(); filter != "" {
			return title + "\n" + styleMuted.Render(" No stops for route "+filter)
		}
		return title + "\n" + styleMuted.Render(" No stops found")
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")

	// Calculate visible range to keep cursor in view
	maxVisible := height - 2 // account for title + spacing
	if maxVisible < 1 {
		maxVisible = 1
	}
	start, end := visibleRange(m.sectionCursor, len(sections), maxVisible)

	for i := start; i < end; i++ {
		name := truncate(sections[i].StopTitle, width-4)
		if i == m.sectionCursor {
			b.WriteString(styleSelected.Render(" > " + name))
		} else {
			b.WriteString("   " + name)
		}
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

// renderRightPanel renders the stops of the selected section and, once a
// prediction was requested, the detail of that stop below them.
func (m Model) renderRightPanel(width, height int) string {
	if m.predictionStop == nil {
		return m.renderStopList(width, height)
	}

	// Split: top 60% stops, bottom 40% prediction detail
	stopHeight := height * 60 / 100
	if stopHeight < 4 {
		stopHeight = 4
	}

	stopView := m.renderStopList(width, stopHeight)
	separator := styleMuted.Render(strings.Repeat("─", width))
	return stopView + "\n" + separator + "\n" + m.renderPrediction(width)
}

// renderStopList renders the route table of the selected section.
func (m Model) renderStopList(width, height int) string {
	section := m.selectedSection()

	title := "STOPS"
	if section != nil {
		title += " at " + truncate(section.StopTitle, width-9)
	}
	titleStr := styleHeader.Render(title)

	if m.catalog == nil {
		return titleStr + "\n" + styleMuted.Render(" Waiting for the stop catalog")
	}
	if section == nil {
		return titleStr + "\n" + styleMuted.Render(" Select a section to view its stops")
	}

	stops := m.visibleStops()
	if len(stops) == 0 {
		return titleStr + "\n" + styleMuted.Render(" No routes")
	}

	var b strings.Builder
	b.WriteString(titleStr)
	b.WriteString("\n")

	maxVisible := height - 2
	if maxVisible < 1 {
		maxVisible = 1
	}
	start, end := visibleRange(m.stopCursor, len(stops), maxVisible)

	for i := start; i < end; i++ {
		b.WriteString(renderStopLine(stops[i], width, i == m.stopCursor && m.focus == focusStops))
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

// renderStopLine renders a single route entry.
func renderStopLine(stop *catalog.Stop, width int, selected bool) string {
	route := stop.RouteTag
	if len(route) > 6 {
		route = route[:6]
	}
	routeStr := fmt.Sprintf("%-6s", route)

	prediction := ""
	if stop.HasPrediction() {
		prediction = "  " + formatPrediction(stop.Prediction, stop.MinutesLabel)
	}

	// Calculate remaining width for direction
	fixedWidth := 6 + 2 + 16 // route+sp+prediction
	direction := truncate(stop.DirectionTitle, width-fixedWidth-2)

	entry := fmt.Sprintf("%s  %s%s", styleRoute.Render(routeStr), direction, prediction)
	if selected {
		return styleSelected.Render(">") + entry
	}
	return " " + entry
}

// renderPrediction renders the detail of the stop a prediction was requested for.
func (m Model) renderPrediction(width int) string {
	stop := m.predictionStop

	var b strings.Builder
	b.WriteString(styleRoute.Render(stop.RouteTag))
	b.WriteString(" ")
	b.WriteString(styleStop.Render(truncate(stop.RouteTitle, width-len(stop.RouteTag)-1)))
	b.WriteString("\n")
	if stop.DirectionTitle != "" {
		b.WriteString(styleMuted.Render(truncate(stop.DirectionTitle, width)))
		b.WriteString("\n")
	}

	switch {
	case m.predictionLoading:
		b.WriteString(m.spinner.View() + styleLoading.Render(" Waiting for prediction..."))
	case m.predictionErr != nil:
		b.WriteString(styleError.Render("Error: " + m.predictionErr.Error()))
	case !stop.HasPrediction():
		b.WriteString(styleMuted.Render("No prediction yet"))
	case len(stop.Prediction) == 0:
		b.WriteString(styleMuted.Render("No arrivals predicted"))
	default:
		b.WriteString("Next: " + formatPrediction(stop.Prediction, stop.MinutesLabel))
	}

	return b.String()
}

// renderStatusBar renders context-aware keyboard hints at the bottom.
func (m Model) renderStatusBar() string {
	var hints string
	switch m.focus {
	case focusFilter:
		hints = "Type:filter  Enter:sections  Esc:clear  Ctrl+C:quit"
	case focusSections:
		hints = "j/k:navigate  Enter:stops  /:filter  r:resync  q:quit"
	case focusStops:
		hints = "j/k:navigate  Enter:predict  a:auto-refresh  Esc:sections  r:resync  q:quit"
	}

	if m.catalog != nil {
		hints += fmt.Sprintf("  |  %d sections, %d stops", m.catalog.SectionCount(), m.catalog.StopTotal())
	}

	return styleStatusBar.Width(m.width).Render(" " + hints)
}

// visibleRange calculates the start and end indices for a scrollable list.
func visibleRange(cursor, total, maxVisible int) (int, int) {
	if total <= maxVisible {
		return 0, total
	}

	start := cursor - maxVisible/2
	if start < 0 {
		start = 0
	}
	end := start + maxVisible
	if end > total {
		end = total
		start = end - maxVisible
		if start < 0 {
			start = 0
		}
	}
	return start, end
}

// truncate truncates a string to the given width.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if len(s) <= width {
		return s
	}
	if width <= 3 {
		return s[:width]
	}
	return s[:width-1] + "~"
}
