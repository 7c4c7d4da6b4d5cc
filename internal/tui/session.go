package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mobil-koeln/stopsync/internal/channel"
	"github.com/mobil-koeln/stopsync/internal/engine"
)

// Syncer is the part of the engine the TUI drives
type Syncer interface {
	BeginSync(onComplete engine.CompleteFunc) error
	RequestPrediction(routeTag, stopTag string, onPrediction engine.PredictionFunc) error
	CancelPrediction()
}

// Session ties a Syncer to the loop its channel posts callbacks to. The TUI
// runs those callbacks inside Update, so the engine only ever sees the
// Bubble Tea goroutine.
type Session struct {
	syncer Syncer
	loop   *channel.Loop

	// messages produced by engine callbacks, applied after the callback returns
	pending []tea.Msg
}

// NewSession creates a session. loop may be nil when callbacks are
// delivered some other way, as in tests.
func NewSession(syncer Syncer, loop *channel.Loop) *Session {
	return &Session{syncer: syncer, loop: loop}
}

func (s *Session) post(msg tea.Msg) {
	s.pending = append(s.pending, msg)
}

func (s *Session) drain() []tea.Msg {
	msgs := s.pending
	s.pending = nil
	return msgs
}

// waitForLoop blocks until the loop has a callback and hands it to Update
func waitForLoop(s *Session) tea.Cmd {
	if s.loop == nil {
		return nil
	}
	return func() tea.Msg {
		fn, err := s.loop.Next(context.Background())
		if err != nil {
			return loopStoppedMsg{err: err}
		}
		return loopMsg{fn: fn}
	}
}
