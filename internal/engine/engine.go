// Package engine implements the watch side of the stop catalog sync: a
// strictly sequential crawl that requests sections, then each section's
// stops, one message at a time, and builds a catalog.StopList from the
// responses. It also runs single-shot prediction requests.
//
// An Engine is not safe for concurrent use. All methods, including the
// channel callbacks returned by Handlers, must be called from one goroutine,
// usually a channel.Loop.
package engine

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mobil-koeln/stopsync/internal/catalog"
	"github.com/mobil-koeln/stopsync/internal/channel"
	"github.com/mobil-koeln/stopsync/internal/message"
)

var (
	// ErrNoChannel is returned when the engine has no channel to send on
	ErrNoChannel = errors.New("no channel")

	// ErrPredictionPending is returned by RequestPrediction while an earlier
	// prediction request has not been answered
	ErrPredictionPending = errors.New("prediction request already pending")
)

// Sender sends one dictionary message
type Sender interface {
	Send(d message.Dict) error
}

// CompleteFunc receives the finished catalog. The callee owns the list.
type CompleteFunc func(list *catalog.StopList)

// PredictionFunc receives a prediction and its minutes label
type PredictionFunc func(prediction catalog.Prediction, minutesLabel string)

type pendingPrediction struct {
	routeTag string
	stopTag  string
	callback PredictionFunc
}

// Engine drives a crawl of the companion's stop catalog
type Engine struct {
	sender Sender
	logger zerolog.Logger

	cursor     Cursor
	list       *catalog.StopList
	onComplete CompleteFunc
	prediction *pendingPrediction
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger protocol problems are reported to
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an idle engine sending requests on sender
func New(sender Sender, opts ...Option) *Engine {
	e := &Engine{
		sender: sender,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cursor returns the current crawl position
func (e *Engine) Cursor() Cursor {
	return e.cursor
}

// Pending reports whether a prediction request is outstanding
func (e *Engine) Pending() bool {
	return e.prediction != nil
}

// BeginSync starts a new crawl, discarding any catalog built so far. The
// callback runs once, when the last stop has arrived. Responses to an earlier
// crawl that arrive afterwards are ignored.
//
// If the first request cannot be sent the error is returned and the crawl
// stays in AwaitingSectionsMetadata; calling BeginSync again retries.
func (e *Engine) BeginSync(onComplete CompleteFunc) error {
	if e.sender == nil {
		return ErrNoChannel
	}

	e.list.Destroy()
	e.list = nil
	e.onComplete = onComplete
	e.cursor = awaitingSectionsMetadata()

	e.logger.Debug().Msg("Beginning sync")
	if err := e.send(message.SectionsMetadataRequest{}); err != nil {
		return fmt.Errorf("begin sync: %w", err)
	}
	return nil
}

// RequestPrediction asks the companion for the prediction of a route at a
// stop. It runs alongside a crawl without affecting it. Only one prediction
// request may be outstanding; CancelPrediction abandons it.
func (e *Engine) RequestPrediction(routeTag, stopTag string, onPrediction PredictionFunc) error {
	if e.sender == nil {
		return ErrNoChannel
	}
	if e.prediction != nil {
		return ErrPredictionPending
	}

	e.prediction = &pendingPrediction{routeTag: routeTag, stopTag: stopTag, callback: onPrediction}
	if err := e.send(message.StopPredictionRequest{RouteTag: routeTag, StopTag: stopTag}); err != nil {
		e.prediction = nil
		return fmt.Errorf("request prediction: %w", err)
	}
	return nil
}

// CancelPrediction forgets the outstanding prediction request. A response
// arriving later is discarded.
func (e *Engine) CancelPrediction() {
	if e.prediction != nil {
		e.logger.Debug().
			Str("route", e.prediction.routeTag).
			Str("stop", e.prediction.stopTag).
			Msg("Cancelled prediction request")
	}
	e.prediction = nil
}

// Handlers returns the engine's channel callbacks
func (e *Engine) Handlers() channel.Handlers {
	return channel.Handlers{
		Received: e.HandleReceived,
		Dropped:  e.HandleDropped,
		Sent:     e.HandleSent,
		Failed:   e.HandleFailed,
	}
}

// HandleReceived processes one inbound message. Malformed, unknown and
// stale messages are logged and dropped without changing the cursor.
func (e *Engine) HandleReceived(d message.Dict) {
	msg, err := message.Decode(d)
	if err != nil {
		var unknown *message.UnknownTypeError
		if errors.As(err, &unknown) {
			e.logger.Warn().Uint8("type", uint8(unknown.Type)).Msg("Ignoring message of unknown type")
			return
		}
		e.logger.Error().Err(err).Str("type", d.TypeName()).Msg("Dropping malformed message")
		return
	}

	switch m := msg.(type) {
	case message.SectionsMetadata:
		e.onSectionsMetadata(m)
	case message.SectionData:
		e.onSectionData(m)
	case message.StopData:
		e.onStopData(m)
	case message.StopPrediction:
		e.onStopPrediction(m)
	default:
		e.logger.Warn().Str("type", msg.Type().String()).Msg("Ignoring request sent to the watch")
	}
}

// HandleDropped logs an inbound message the channel could not accept
func (e *Engine) HandleDropped(result channel.Result) {
	e.logger.Warn().Stringer("result", result).Stringer("cursor", e.cursor).Msg("Inbound message dropped")
}

// HandleSent logs a delivered request
func (e *Engine) HandleSent(d message.Dict) {
	e.logger.Debug().Str("type", d.TypeName()).Msg("Outbound message sent")
}

// HandleFailed logs a request that could not be delivered. Nothing is
// retried; the crawl waits in its current state until BeginSync is called.
func (e *Engine) HandleFailed(d message.Dict, result channel.Result) {
	e.logger.Error().
		Str("type", d.TypeName()).
		Stringer("result", result).
		Stringer("cursor", e.cursor).
		Msg("Outbound message failed")
	if e.cursor.Awaiting() {
		e.logger.Warn().Stringer("cursor", e.cursor).Msg("Crawl stalled, BeginSync restarts it")
	}
}

func (e *Engine) onSectionsMetadata(m message.SectionsMetadata) {
	if e.cursor.State != StateAwaitingSectionsMetadata {
		e.stale(m)
		return
	}

	list, err := catalog.NewStopList(int(m.SectionCount))
	if err != nil {
		e.logger.Error().Err(err).Msg("Dropping sections metadata")
		return
	}
	e.list = list
	e.logger.Debug().Uint16("sections", m.SectionCount).Msg("Received sections metadata")

	if m.SectionCount == 0 {
		e.complete()
		return
	}
	e.requestSection(0)
}

func (e *Engine) onSectionData(m message.SectionData) {
	i := int(m.SectionIndex)
	if e.cursor.State != StateAwaitingSectionData || e.cursor.Section != i {
		e.stale(m)
		return
	}

	if _, err := e.list.AddSection(i, m.StopTag, m.StopTitle, int(m.StopCount)); err != nil {
		e.logger.Error().Err(err).Int("section", i).Msg("Dropping section data")
		return
	}
	e.logger.Debug().
		Int("section", i).
		Str("stop_tag", m.StopTag).
		Uint16("stops", m.StopCount).
		Msg("Received section data")

	if m.StopCount == 0 {
		e.advanceSection(i)
		return
	}
	e.requestStop(i, 0)
}

func (e *Engine) onStopData(m message.StopData) {
	i, j := int(m.SectionIndex), int(m.StopIndex)
	if e.cursor.State != StateAwaitingStopData || e.cursor.Section != i || e.cursor.Stop != j {
		e.stale(m)
		return
	}

	section := e.list.Section(i)
	if _, err := section.AddStop(j, m.RouteTag, m.RouteTitle, m.DirectionTag, m.DirectionTitle); err != nil {
		e.logger.Error().Err(err).Int("section", i).Int("stop", j).Msg("Dropping stop data")
		return
	}
	e.logger.Debug().
		Int("section", i).
		Int("stop", j).
		Str("route_tag", m.RouteTag).
		Msg("Received stop data")

	if j+1 < section.StopCount() {
		e.requestStop(i, j+1)
		return
	}
	e.advanceSection(i)
}

func (e *Engine) onStopPrediction(m message.StopPrediction) {
	pending := e.prediction
	if pending == nil {
		e.logger.Debug().Msg("Discarding prediction with no pending request")
		return
	}
	e.prediction = nil

	e.logger.Debug().
		Str("route", pending.routeTag).
		Str("stop", pending.stopTag).
		Stringer("prediction", m.Prediction).
		Msg("Received prediction")
	if pending.callback != nil {
		pending.callback(m.Prediction, m.MinutesLabel)
	}
}

func (e *Engine) advanceSection(i int) {
	if i+1 < e.list.SectionCount() {
		e.requestSection(i + 1)
		return
	}
	e.complete()
}

func (e *Engine) requestSection(i int) {
	e.cursor = awaitingSectionData(i)
	if err := e.send(message.SectionDataRequest{SectionIndex: uint16(i)}); err != nil {
		e.logger.Error().Err(err).Int("section", i).Msg("Failed to request section data")
	}
}

func (e *Engine) requestStop(i, j int) {
	e.cursor = awaitingStopData(i, j)
	if err := e.send(message.StopDataRequest{SectionIndex: uint16(i), StopIndex: uint16(j)}); err != nil {
		e.logger.Error().Err(err).Int("section", i).Int("stop", j).Msg("Failed to request stop data")
	}
}

// complete hands the list to the callback. State is cleared first so the
// callback may start another crawl.
func (e *Engine) complete() {
	list, onComplete := e.list, e.onComplete
	e.list = nil
	e.onComplete = nil
	e.cursor = Cursor{State: StateComplete}

	e.logger.Info().
		Int("sections", list.SectionCount()).
		Int("stops", list.StopTotal()).
		Msg("Sync complete")
	if onComplete != nil {
		onComplete(list)
	}
}

func (e *Engine) stale(m message.Message) {
	e.logger.Debug().
		Str("type", m.Type().String()).
		Stringer("cursor", e.cursor).
		Msg("Discarding stale message")
}

func (e *Engine) send(m message.Message) error {
	d := m.Dict()
	e.logger.Debug().Str("type", m.Type().String()).Msg("Sending request")
	return e.sender.Send(d)
}
