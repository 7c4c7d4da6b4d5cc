package tui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mobil-koeln/stopsync/internal/catalog"
)

var errPredictionTimeout = errors.New("no answer from companion")

// Update handles all messages and key events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if !m.syncing && !m.predictionLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case startSyncMsg:
		return m.beginSync()

	case loopMsg:
		return m.handleLoop(msg)

	case loopStoppedMsg:
		m.loopErr = msg.err
		return m, nil

	case syncDoneMsg:
		return m.handleSyncDone(msg)

	case syncTimeoutMsg:
		return m.handleSyncTimeout(msg)

	case predictionMsg:
		return m.handlePrediction(msg)

	case predictionTimeoutMsg:
		return m.handlePredictionTimeout(msg)

	case autoRefreshTickMsg:
		return m.handleAutoRefreshTick()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Pass remaining messages to textinput when focused
	if m.focus == focusFilter {
		var cmd tea.Cmd
		m.filterInput, cmd = m.filterInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleLoop runs one channel callback and applies whatever the engine
// reported while it ran
func (m Model) handleLoop(msg loopMsg) (tea.Model, tea.Cmd) {
	msg.fn()

	cmds := []tea.Cmd{waitForLoop(m.session)}
	for _, ev := range m.session.drain() {
		next, cmd := m.Update(ev)
		m = next.(Model)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) beginSync() (tea.Model, tea.Cmd) {
	m.syncAttempt++
	attempt := m.syncAttempt
	m.syncing = true
	m.syncErr = nil

	s := m.session
	err := s.syncer.BeginSync(func(list *catalog.StopList) {
		s.post(syncDoneMsg{attempt: attempt, list: list})
	})
	if err != nil {
		// The timeout below retries
		m.syncErr = err
	}
	return m, tea.Batch(m.spinner.Tick, syncTimeoutTick(attempt))
}

func (m Model) handleSyncDone(msg syncDoneMsg) (tea.Model, tea.Cmd) {
	// Ignore results of superseded attempts
	if msg.attempt != m.syncAttempt {
		msg.list.Destroy()
		return m, nil
	}

	if m.catalog != nil {
		m.catalog.Destroy()
	}
	m.catalog = msg.list
	m.syncing = false
	m.syncErr = nil
	m.syncFailures = 0
	m.lastSync = time.Now()
	m.sectionCursor = 0
	m.stopCursor = 0
	m.predictionStop = nil
	m.predictionLoading = false
	m.predictionErr = nil
	if m.focus != focusFilter {
		m.focus = focusSections
	}
	return m, nil
}

func (m Model) handleSyncTimeout(msg syncTimeoutMsg) (tea.Model, tea.Cmd) {
	if msg.attempt != m.syncAttempt || !m.syncing {
		return m, nil
	}

	m.syncFailures++
	if m.syncFailures >= maxSyncAttempts {
		m.syncing = false
		m.syncErr = fmt.Errorf("sync timed out after %d attempts", m.syncFailures)
		return m, nil
	}
	return m.beginSync()
}

// requestPrediction asks for the prediction of the selected stop. An
// outstanding request is abandoned first.
func (m Model) requestPrediction() (Model, tea.Cmd) {
	section := m.selectedSection()
	stop := m.selectedStop()
	if section == nil || stop == nil {
		return m, nil
	}

	s := m.session
	if m.predictionLoading {
		s.syncer.CancelPrediction()
	}

	m.predictionSeq++
	seq := m.predictionSeq
	m.predictionStop = stop
	err := s.syncer.RequestPrediction(stop.RouteTag, section.StopTag, func(p catalog.Prediction, label string) {
		s.post(predictionMsg{seq: seq, prediction: p, minutesLabel: label})
	})
	if err != nil {
		m.predictionLoading = false
		m.predictionErr = err
		return m, nil
	}

	m.predictionLoading = true
	m.predictionErr = nil
	return m, tea.Batch(m.spinner.Tick, predictionTimeoutTick(seq))
}

func (m Model) handlePrediction(msg predictionMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.predictionSeq || m.predictionStop == nil {
		return m, nil
	}
	m.predictionLoading = false
	m.predictionErr = m.predictionStop.SetPrediction(msg.prediction, msg.minutesLabel)
	m.lastUpdate = time.Now()
	return m, nil
}

func (m Model) handlePredictionTimeout(msg predictionTimeoutMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.predictionSeq || !m.predictionLoading {
		return m, nil
	}
	m.session.syncer.CancelPrediction()
	m.predictionLoading = false
	m.predictionErr = errPredictionTimeout
	return m, nil
}

func (m Model) handleAutoRefreshTick() (tea.Model, tea.Cmd) {
	if !m.autoRefresh {
		return m, nil
	}

	cmds := []tea.Cmd{autoRefreshTick()}
	// Silently refresh the prediction shown in the detail panel
	if m.predictionStop != nil && m.predictionStop == m.selectedStop() && !m.predictionLoading {
		var cmd tea.Cmd
		m, cmd = m.requestPrediction()
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	}

	switch m.focus {
	case focusFilter:
		return m.handleFilterKeys(msg)
	case focusSections:
		return m.handleSectionKeys(msg)
	case focusStops:
		return m.handleStopKeys(msg)
	}

	return m, nil
}

// pageSize returns how many list rows a page key moves
func (m Model) pageSize() int {
	pageSize := m.height - 10 // conservative estimate: minus header, filter bar, status
	if pageSize < 1 {
		pageSize = 10 // fallback
	}
	return pageSize
}

// moveCursor applies a navigation key to a list cursor. It reports false
// when key is not a navigation key.
func moveCursor(cursor, total, pageSize int, key string) (int, bool) {
	switch key {
	case "j", "down":
		cursor++
	case "k", "up":
		cursor--
	case "pgdown":
		cursor += pageSize
	case "pgup":
		cursor -= pageSize
	case "home":
		cursor = 0
	case "end":
		cursor = total - 1
	default:
		return cursor, false
	}

	if cursor >= total {
		cursor = total - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	return cursor, true
}

// handleCommonKeys handles the keys shared by both list panels
func (m Model) handleCommonKeys(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch msg.String() {
	case "q":
		return m, tea.Quit, true

	case "/":
		m.focus = focusFilter
		cmd := m.filterInput.Focus()
		return m, cmd, true

	case "r":
		if m.syncing {
			return m, nil, true
		}
		m.syncFailures = 0
		next, cmd := m.beginSync()
		return next.(Model), cmd, true
	}
	return m, nil, false
}

func (m Model) handleSectionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if next, cmd, ok := m.handleCommonKeys(msg); ok {
		return next, cmd
	}

	sections := m.visibleSections()
	if cursor, ok := moveCursor(m.sectionCursor, len(sections), m.pageSize(), msg.String()); ok {
		if cursor != m.sectionCursor {
			m.sectionCursor = cursor
			m.stopCursor = 0
		}
		return m, nil
	}

	switch msg.String() {
	case "tab", "enter", "l", "right":
		if len(m.visibleStops()) > 0 {
			m.focus = focusStops
		}
		return m, nil

	case "shift+tab":
		m.focus = focusFilter
		cmd := m.filterInput.Focus()
		return m, cmd
	}

	return m, nil
}

func (m Model) handleStopKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if next, cmd, ok := m.handleCommonKeys(msg); ok {
		return next, cmd
	}

	stops := m.visibleStops()
	if cursor, ok := moveCursor(m.stopCursor, len(stops), m.pageSize(), msg.String()); ok {
		m.stopCursor = cursor
		return m, nil
	}

	switch msg.String() {
	case "enter":
		return m.requestPrediction()

	case "a":
		m.autoRefresh = !m.autoRefresh
		if !m.autoRefresh {
			return m, nil
		}
		// Refresh immediately when enabling auto-refresh
		next, cmd := m.requestPrediction()
		return next, tea.Batch(autoRefreshTick(), cmd)

	case "tab":
		m.focus = focusFilter
		cmd := m.filterInput.Focus()
		return m, cmd

	case "esc", "shift+tab", "h", "left":
		m.focus = focusSections
		return m, nil
	}

	return m, nil
}
