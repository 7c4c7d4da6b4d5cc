// Package channel provides the dictionary message channel between the watch
// side sync engine and the companion: the callback contract, the event loop
// callbacks are delivered on, and transports (in-process, Redis and STOMP).
package channel

import (
	"errors"
	"fmt"

	"github.com/mobil-koeln/stopsync/internal/message"
)

// Common errors
var (
	// ErrBusy indicates the outbox cannot take another message right now
	ErrBusy = errors.New("channel busy")

	// ErrNotOpen indicates Send or Close on a channel that is not open
	ErrNotOpen = errors.New("channel not open")

	// ErrAlreadyOpen indicates Open on a channel that is already open
	ErrAlreadyOpen = errors.New("channel already open")
)

// Result is a delivery outcome reported through Handlers
type Result int

// Delivery results. The set mirrors the watch platform's message results.
const (
	ResultOK Result = iota
	ResultSendTimeout
	ResultSendRejected
	ResultNotConnected
	ResultAppNotRunning
	ResultInvalidArgs
	ResultBusy
	ResultBufferOverflow
	ResultAlreadyReleased
	ResultCallbackAlreadyRegistered
	ResultCallbackNotRegistered
	ResultOutOfMemory
	ResultClosed
	ResultInternalError
)

var resultNames = [...]string{
	ResultOK:                        "OK",
	ResultSendTimeout:               "SEND_TIMEOUT",
	ResultSendRejected:              "SEND_REJECTED",
	ResultNotConnected:              "NOT_CONNECTED",
	ResultAppNotRunning:             "APP_NOT_RUNNING",
	ResultInvalidArgs:               "INVALID_ARGS",
	ResultBusy:                      "BUSY",
	ResultBufferOverflow:            "BUFFER_OVERFLOW",
	ResultAlreadyReleased:           "ALREADY_RELEASED",
	ResultCallbackAlreadyRegistered: "CALLBACK_ALREADY_REGISTERED",
	ResultCallbackNotRegistered:     "CALLBACK_NOT_REGISTERED",
	ResultOutOfMemory:               "OUT_OF_MEMORY",
	ResultClosed:                    "CLOSED",
	ResultInternalError:             "INTERNAL_ERROR",
}

func (r Result) String() string {
	if r >= 0 && int(r) < len(resultNames) {
		return resultNames[r]
	}
	return fmt.Sprintf("UNKNOWN_ERROR(%d)", int(r))
}

// Handlers are the callbacks a channel invokes. All of them run serially on
// the channel's Dispatcher, never concurrently with each other. Nil handlers
// are skipped.
type Handlers struct {
	// Received is called with every inbound message
	Received func(message.Dict)

	// Dropped is called when an inbound message could not be accepted
	Dropped func(Result)

	// Sent is called when an outbound message was delivered
	Sent func(message.Dict)

	// Failed is called when an outbound message could not be delivered
	Failed func(message.Dict, Result)
}

// Channel is one endpoint of a dictionary message channel
type Channel interface {
	// Open registers the handlers and starts delivering messages
	Open(h Handlers) error

	// Send queues one message. A nil error only means the message was
	// accepted; the outcome arrives later through Sent or Failed.
	Send(d message.Dict) error

	// Close stops delivery and releases the transport
	Close() error
}

// Dispatcher runs callbacks on a single execution context
type Dispatcher interface {
	Post(fn func())
}

// DispatcherFunc adapts a function to the Dispatcher interface
type DispatcherFunc func(fn func())

func (f DispatcherFunc) Post(fn func()) { f(fn) }

func (h Handlers) received(d Dispatcher, msg message.Dict) {
	if h.Received != nil {
		d.Post(func() { h.Received(msg) })
	}
}

func (h Handlers) dropped(d Dispatcher, r Result) {
	if h.Dropped != nil {
		d.Post(func() { h.Dropped(r) })
	}
}

func (h Handlers) sent(d Dispatcher, msg message.Dict) {
	if h.Sent != nil {
		d.Post(func() { h.Sent(msg) })
	}
}

func (h Handlers) failed(d Dispatcher, msg message.Dict, r Result) {
	if h.Failed != nil {
		d.Post(func() { h.Failed(msg, r) })
	}
}
