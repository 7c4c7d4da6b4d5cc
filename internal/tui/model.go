package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mobil-koeln/stopsync/internal/catalog"
	"github.com/mobil-koeln/stopsync/internal/output"
)

type focusPanel int

const (
	focusFilter focusPanel = iota
	focusSections
	focusStops
)

// Model is the root Bubble Tea model for the TUI.
type Model struct {
	session *Session
	width   int
	height  int

	focus       focusPanel
	filterInput textinput.Model
	spinner     spinner.Model

	// Sync state
	syncing      bool
	syncAttempt  int
	syncFailures int
	syncErr      error
	loopErr      error
	catalog      *catalog.StopList
	lastSync     time.Time

	sectionCursor int
	stopCursor    int

	// Prediction of the selected stop
	autoRefresh       bool
	predictionSeq     int
	predictionLoading bool
	predictionErr     error
	predictionStop    *catalog.Stop
	lastUpdate        time.Time
}

// New creates a new TUI model. The crawl starts from Init.
func New(session *Session) Model {
	ti := textinput.New()
	ti.Placeholder = "Filter by route..."
	ti.CharLimit = 20
	ti.Width = 20

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styleLoading

	return Model{
		session:     session,
		filterInput: ti,
		spinner:     sp,
		focus:       focusSections,
	}
}

// Init starts the first sync and begins pumping channel callbacks.
func (m Model) Init() tea.Cmd {
	return tea.Batch(startSync, waitForLoop(m.session))
}

// routeFilter returns the active route filter
func (m Model) routeFilter() string {
	return strings.TrimSpace(m.filterInput.Value())
}

// visibleSections returns the sections that have a stop matching the route
// filter, or all populated sections when no filter is set.
func (m Model) visibleSections() []*catalog.StopSection {
	if m.catalog == nil {
		return nil
	}
	filter := m.routeFilter()
	var sections []*catalog.StopSection
	for _, section := range m.catalog.Sections() {
		if section == nil {
			continue
		}
		if filter != "" && len(output.FilterStops(section, filter)) == 0 {
			continue
		}
		sections = append(sections, section)
	}
	return sections
}

// selectedSection returns the section under the cursor, or nil
func (m Model) selectedSection() *catalog.StopSection {
	sections := m.visibleSections()
	if m.sectionCursor < 0 || m.sectionCursor >= len(sections) {
		return nil
	}
	return sections[m.sectionCursor]
}

// visibleStops returns the stops of the selected section matching the filter
func (m Model) visibleStops() []*catalog.Stop {
	section := m.selectedSection()
	if section == nil {
		return nil
	}
	return output.FilterStops(section, m.routeFilter())
}

// selectedStop returns the stop under the cursor, or nil
func (m Model) selectedStop() *catalog.Stop {
	stops := m.visibleStops()
	if m.stopCursor < 0 || m.stopCursor >= len(stops) {
		return nil
	}
	return stops[m.stopCursor]
}
