package channel

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mobil-koeln/stopsync/internal/message"
)

// Responder answers one request from the watch. A nil response means the
// request has no answer.
type Responder interface {
	Respond(ctx context.Context, req message.Dict) (message.Dict, error)
}

// ResponderFunc adapts a function to the Responder interface
type ResponderFunc func(ctx context.Context, req message.Dict) (message.Dict, error)

func (f ResponderFunc) Respond(ctx context.Context, req message.Dict) (message.Dict, error) {
	return f(ctx, req)
}

// DropFunc decides whether an outbound message is lost in transit
type DropFunc func(d message.Dict) bool

const defaultOutboxSize = 1

// Loopback pairs the watch endpoint with an in-process companion Responder.
// Requests are answered on a worker goroutine; every callback is posted to
// the dispatcher.
type Loopback struct {
	responder  Responder
	dispatcher Dispatcher
	logger     zerolog.Logger
	maxPayload int
	outboxSize int
	drop       DropFunc

	mu       sync.Mutex
	open     bool
	outbox   chan message.Dict
	handlers Handlers
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// LoopbackOption configures a Loopback
type LoopbackOption func(*Loopback)

// WithMaxPayload sets the per-message size limit in bytes
func WithMaxPayload(n int) LoopbackOption {
	return func(l *Loopback) {
		l.maxPayload = n
	}
}

// WithOutboxSize sets how many requests may be queued before Send returns ErrBusy
func WithOutboxSize(n int) LoopbackOption {
	return func(l *Loopback) {
		if n > 0 {
			l.outboxSize = n
		}
	}
}

// WithDropFunc injects message loss: requests for which fn returns true
// never reach the responder and fail with SEND_TIMEOUT
func WithDropFunc(fn DropFunc) LoopbackOption {
	return func(l *Loopback) {
		l.drop = fn
	}
}

// WithLoopbackLogger sets the logger
func WithLoopbackLogger(logger zerolog.Logger) LoopbackOption {
	return func(l *Loopback) {
		l.logger = logger
	}
}

// NewLoopback creates a loopback channel answering requests with responder
func NewLoopback(responder Responder, dispatcher Dispatcher, opts ...LoopbackOption) *Loopback {
	l := &Loopback{
		responder:  responder,
		dispatcher: dispatcher,
		logger:     zerolog.Nop(),
		maxPayload: message.DefaultMaxPayload,
		outboxSize: defaultOutboxSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loopback) Open(h Handlers) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.open {
		return ErrAlreadyOpen
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.open = true
	l.handlers = h
	l.cancel = cancel
	l.outbox = make(chan message.Dict, l.outboxSize)

	l.wg.Add(1)
	go l.run(ctx, l.outbox)
	return nil
}

func (l *Loopback) Send(d message.Dict) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.open {
		return ErrNotOpen
	}

	if err := message.CheckSize(d, l.maxPayload); err != nil {
		l.logger.Warn().Err(err).Msg("Outbound message exceeds payload limit")
		l.handlers.failed(l.dispatcher, d, ResultBufferOverflow)
		return nil
	}

	select {
	case l.outbox <- d:
		return nil
	default:
		return ErrBusy
	}
}

func (l *Loopback) Close() error {
	l.mu.Lock()
	if !l.open {
		l.mu.Unlock()
		return ErrNotOpen
	}
	l.open = false
	l.cancel()
	close(l.outbox)
	l.mu.Unlock()

	l.wg.Wait()
	return nil
}

func (l *Loopback) run(ctx context.Context, outbox <-chan message.Dict) {
	defer l.wg.Done()

	for req := range outbox {
		if ctx.Err() != nil {
			continue
		}
		l.deliver(ctx, req)
	}
}

func (l *Loopback) deliver(ctx context.Context, req message.Dict) {
	h := l.handlers

	if l.drop != nil && l.drop(req) {
		l.logger.Debug().Str("type", req.TypeName()).Msg("Dropping outbound message")
		h.failed(l.dispatcher, req, ResultSendTimeout)
		return
	}
	h.sent(l.dispatcher, req)

	resp, err := l.responder.Respond(ctx, req)
	if err != nil {
		l.logger.Debug().Err(err).Str("type", req.TypeName()).Msg("Companion did not answer")
		return
	}
	if resp == nil {
		return
	}

	if err := message.CheckSize(resp, l.maxPayload); err != nil {
		l.logger.Warn().Err(err).Msg("Inbound message exceeds payload limit")
		h.dropped(l.dispatcher, ResultBufferOverflow)
		return
	}
	h.received(l.dispatcher, resp)
}
