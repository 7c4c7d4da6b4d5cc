package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	syncTimeout         = 10 * time.Second
	maxSyncAttempts     = 3
	predictionTimeout   = 5 * time.Second
	autoRefreshInterval = 30 * time.Second
)

func startSync() tea.Msg {
	return startSyncMsg{}
}

// syncTimeoutTick returns a tea.Cmd that reports a timeout for attempt
func syncTimeoutTick(attempt int) tea.Cmd {
	return tea.Tick(syncTimeout, func(time.Time) tea.Msg {
		return syncTimeoutMsg{attempt: attempt}
	})
}

// predictionTimeoutTick returns a tea.Cmd that reports a timeout for request seq
func predictionTimeoutTick(seq int) tea.Cmd {
	return tea.Tick(predictionTimeout, func(time.Time) tea.Msg {
		return predictionTimeoutMsg{seq: seq}
	})
}

// autoRefreshTick returns a tea.Cmd that sends a tick after the refresh interval.
func autoRefreshTick() tea.Cmd {
	return tea.Tick(autoRefreshInterval, func(t time.Time) tea.Msg {
		return autoRefreshTickMsg(t)
	})
}
