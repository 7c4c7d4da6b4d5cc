package main

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/mobil-koeln/stopsync/internal/catalog"
	"github.com/mobil-koeln/stopsync/internal/channel"
	"github.com/mobil-koeln/stopsync/internal/companion"
	"github.com/mobil-koeln/stopsync/internal/engine"
	"github.com/mobil-koeln/stopsync/internal/message"
)

const (
	channelLoopback = "loopback"
	channelRedis    = "redis"
	channelStomp    = "stomp"
)

// watchSession is an engine attached to an open channel. Channel callbacks
// are posted to loop; the caller decides who drains it.
type watchSession struct {
	engine *engine.Engine
	loop   *channel.Loop
	ch     channel.Channel

	// catalog served by the built-in companion, nil on a broker channel
	catalog *catalog.StopList

	closeConn func()
}

// Close closes the channel and releases the connection behind it
func (w *watchSession) Close() {
	if err := w.ch.Close(); err != nil {
		logger.Debug().Err(err).Msg("Closing channel")
	}
	w.closeConn()
	w.catalog.Destroy()
}

// openWatch opens the channel selected by --channel and attaches a new engine to it
func openWatch(ctx context.Context) (*watchSession, error) {
	w := &watchSession{
		loop:      channel.NewLoop(),
		closeConn: func() {},
	}

	switch flagChannel {
	case channelLoopback:
		list, predictor, err := loadCompanion()
		if err != nil {
			return nil, err
		}
		responder := companion.NewResponder(list, predictor, companion.WithLogger(logger))

		opts := []channel.LoopbackOption{
			channel.WithMaxPayload(cfg.MaxPayload),
			channel.WithLoopbackLogger(logger),
		}
		if flagDropRate > 0 {
			rate := flagDropRate
			opts = append(opts, channel.WithDropFunc(func(message.Dict) bool {
				return rand.Float64() < rate
			}))
		}
		w.ch = channel.NewLoopback(responder, w.loop, opts...)
		w.catalog = list

	default:
		ch, closeConn, err := openBroker(ctx, channel.RoleWatch, w.loop)
		if err != nil {
			return nil, err
		}
		w.ch = ch
		w.closeConn = closeConn
	}

	w.engine = engine.New(w.ch, engine.WithLogger(logger))
	if err := w.ch.Open(w.engine.Handlers()); err != nil {
		w.closeConn()
		w.catalog.Destroy()
		return nil, fmt.Errorf("failed to open %s channel: %w", flagChannel, err)
	}
	return w, nil
}

// openBroker connects to the broker selected by --channel and returns an
// unopened channel endpoint for role
func openBroker(ctx context.Context, role channel.Role, loop *channel.Loop) (channel.Channel, func(), error) {
	switch flagChannel {
	case channelRedis:
		conn, client, err := channel.OpenRedisConnection(ctx, cfg.Redis(), logger)
		if err != nil {
			return nil, nil, err
		}
		ch := channel.NewRedisChannel(conn, loop,
			channel.WithRedisRole(role),
			channel.WithRedisPrefix(cfg.QueuePrefix),
			channel.WithRedisMaxPayload(cfg.MaxPayload),
			channel.WithRedisLogger(logger),
		)
		return ch, func() {
			<-conn.StopAllConsuming()
			_ = client.Close()
		}, nil

	case channelStomp:
		conn, err := channel.DialStomp(cfg.Stomp())
		if err != nil {
			return nil, nil, err
		}
		ch := channel.NewStompChannel(conn, loop,
			channel.WithStompRole(role),
			channel.WithStompPrefix(cfg.QueuePrefix),
			channel.WithStompMaxPayload(cfg.MaxPayload),
			channel.WithStompLogger(logger),
		)
		return ch, func() { _ = conn.Disconnect() }, nil
	}

	return nil, nil, fmt.Errorf("unknown channel %q (use %s, %s or %s)", flagChannel, channelLoopback, channelRedis, channelStomp)
}
