package channel

import (
	"context"
	"errors"
	"sync"
)

// ErrLoopStopped is returned by Next once Stop has been called
var ErrLoopStopped = errors.New("loop stopped")

// Loop is a single goroutine event loop. Functions posted to it run one at a
// time in the order they were posted. Post never blocks, so callbacks running
// on the loop may post further work.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	stop    chan struct{}
	stopped bool
}

// NewLoop creates a loop; call Run to start processing
func NewLoop() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
	}
}

// Post queues fn to run on the loop. Posting to a stopped loop is a no-op.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run processes posted functions until the context is cancelled or Stop is
// called. It returns ctx.Err() on cancellation and nil after Stop.
func (l *Loop) Run(ctx context.Context) error {
	for {
		fn, err := l.Next(ctx)
		if errors.Is(err, ErrLoopStopped) {
			return nil
		}
		if err != nil {
			return err
		}
		fn()
	}
}

// Next blocks until a posted function is available and returns it without
// running it. Callers that own their own event loop use it in place of Run.
func (l *Loop) Next(ctx context.Context) (func(), error) {
	for {
		if l.isStopped() {
			return nil, ErrLoopStopped
		}
		if fn := l.next(); fn != nil {
			return fn, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-l.stop:
			return nil, ErrLoopStopped
		case <-l.wake:
		}
	}
}

// Stop makes Run return after the function currently running. Queued
// functions are discarded.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	l.stopped = true
	l.queue = nil
	close(l.stop)
}

func (l *Loop) next() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn
}

func (l *Loop) isStopped() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stopped
}
