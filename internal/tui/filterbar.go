package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// renderFilterBar renders the route filter input and the auto-refresh chip
// as two bordered boxes side by side, with the last update time above them.
func (m Model) renderFilterBar() string {
	// --- Route filter box ---
	filterBorder := stylePanelNormal
	if m.focus == focusFilter {
		filterBorder = stylePanelFocused
	}
	filterBox := filterBorder.Render(styleHeader.Render("Route: ") + m.filterInput.View())

	// --- Auto-refresh box ---
	refreshChip := renderChip("Auto-refresh 30s", m.autoRefresh)
	refreshBox := stylePanelNormal.Render(refreshChip)

	boxes := lipgloss.JoinHorizontal(lipgloss.Top, filterBox, refreshBox)

	if !m.lastUpdate.IsZero() {
		updateText := "  Last update:\t" + m.lastUpdate.Format("15:04:05")

		// Add countdown if auto-refresh is enabled
		if m.autoRefresh {
			remaining := autoRefreshInterval - time.Since(m.lastUpdate)
			if remaining < 0 {
				remaining = 0
			}
			updateText += fmt.Sprintf("\t(refresh in %ds)", int(remaining.Seconds()))
		}

		return styleMuted.Render(updateText) + "\n" + boxes
	}

	return boxes
}

// renderChip renders a toggle chip, bracketed when active.
func renderChip(label string, active bool) string {
	if active {
		return styleRoute.Render("[" + label + "]")
	}
	return styleMuted.Render(" " + label + " ")
}

// handleFilterKeys handles key events when the route filter is focused.
// Typing narrows the section list immediately.
func (m Model) handleFilterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "tab":
		m.focus = focusSections
		m.filterInput.Blur()
		return m, nil

	case "shift+tab":
		m.filterInput.Blur()
		if len(m.visibleStops()) > 0 {
			m.focus = focusStops
		} else {
			m.focus = focusSections
		}
		return m, nil

	case "esc":
		if m.filterInput.Value() == "" {
			m.focus = focusSections
			m.filterInput.Blur()
			return m, nil
		}
		m.filterInput.SetValue("")
		m.sectionCursor = 0
		m.stopCursor = 0
		return m, nil
	}

	before := m.filterInput.Value()
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	if m.filterInput.Value() != before {
		m.sectionCursor = 0
		m.stopCursor = 0
	}
	return m, cmd
}
