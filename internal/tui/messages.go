package tui

import (
	"time"

	"github.com/mobil-koeln/stopsync/internal/catalog"
)

// startSyncMsg asks Update to begin a crawl
type startSyncMsg struct{}

// loopMsg carries one channel callback to run on the Update goroutine
type loopMsg struct {
	fn func()
}

// loopStoppedMsg is sent once the callback loop has stopped
type loopStoppedMsg struct {
	err error
}

// syncDoneMsg carries the finished catalog of a sync attempt
type syncDoneMsg struct {
	attempt int
	list    *catalog.StopList
}

// syncTimeoutMsg fires when a sync attempt has taken too long.
// attempt is used for stale-timeout detection.
type syncTimeoutMsg struct {
	attempt int
}

// predictionMsg carries a prediction for the stop it was requested for
type predictionMsg struct {
	seq          int
	prediction   catalog.Prediction
	minutesLabel string
}

// predictionTimeoutMsg fires when a prediction request has gone unanswered
type predictionTimeoutMsg struct {
	seq int
}

// autoRefreshTickMsg is sent every 30 seconds when auto-refresh is enabled.
type autoRefreshTickMsg time.Time
