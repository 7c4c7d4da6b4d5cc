package channel

import (
	"fmt"
	"sync"

	"github.com/go-stomp/stomp/v3"
	"github.com/rs/zerolog"

	"github.com/mobil-koeln/stopsync/internal/message"
)

const jsonContentType = "application/json"

// StompConfig holds STOMP broker connection settings
type StompConfig struct {
	Address  string
	Username string
	Password string
}

// DialStomp connects to a STOMP broker
func DialStomp(cfg StompConfig) (*stomp.Conn, error) {
	var stompOptions []func(*stomp.Conn) error
	if cfg.Username != "" {
		stompOptions = append(stompOptions, stomp.ConnOpt.Login(cfg.Username, cfg.Password))
	}

	conn, err := stomp.Dial("tcp", cfg.Address, stompOptions...)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to stomp broker at %s: %w", cfg.Address, err)
	}
	return conn, nil
}

// StompChannel carries messages over a pair of STOMP queues
type StompChannel struct {
	brokerEndpoint
	conn *stomp.Conn

	mu      sync.Mutex
	open    bool
	sendDst string
	sub     *stomp.Subscription
	done    chan struct{}
	wg      sync.WaitGroup
}

// StompOption configures a StompChannel
type StompOption func(*StompChannel)

// WithStompPrefix sets the queue name prefix
func WithStompPrefix(prefix string) StompOption {
	return func(c *StompChannel) {
		c.prefix = prefix
	}
}

// WithStompRole selects the watch or companion end
func WithStompRole(role Role) StompOption {
	return func(c *StompChannel) {
		c.role = role
	}
}

// WithStompMaxPayload sets the per-message size limit in bytes
func WithStompMaxPayload(n int) StompOption {
	return func(c *StompChannel) {
		c.maxPayload = n
	}
}

// WithStompLogger sets the logger
func WithStompLogger(logger zerolog.Logger) StompOption {
	return func(c *StompChannel) {
		c.logger = logger
	}
}

// NewStompChannel creates a channel on a connected STOMP session
func NewStompChannel(conn *stomp.Conn, dispatcher Dispatcher, opts ...StompOption) *StompChannel {
	c := &StompChannel{
		brokerEndpoint: brokerEndpoint{
			role:       RoleWatch,
			prefix:     DefaultQueuePrefix,
			maxPayload: message.DefaultMaxPayload,
			dispatcher: dispatcher,
			logger:     zerolog.Nop(),
		},
		conn: conn,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func destination(queue string) string {
	return "/queue/" + queue
}

func (c *StompChannel) Open(h Handlers) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.open {
		return ErrAlreadyOpen
	}

	sendName, recvName := c.role.Queues(c.prefix)
	c.handlers = h

	sub, err := c.conn.Subscribe(destination(recvName), stomp.AckAuto)
	if err != nil {
		return fmt.Errorf("cannot subscribe to %s: %w", recvName, err)
	}

	c.sub = sub
	c.sendDst = destination(sendName)
	c.done = make(chan struct{})
	c.open = true

	c.wg.Add(1)
	go c.read(sub, c.done)

	c.logger.Info().Str("send", sendName).Str("recv", recvName).Msg("STOMP channel open")
	return nil
}

func (c *StompChannel) Send(d message.Dict) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return ErrNotOpen
	}

	data, err := c.encode(d)
	if err != nil {
		return err
	}
	if data == nil {
		return nil
	}

	if err := c.conn.Send(c.sendDst, jsonContentType, data); err != nil {
		c.logger.Debug().Err(err).Str("type", d.TypeName()).Msg("Send failed")
		c.handlers.failed(c.dispatcher, d, ResultNotConnected)
		return nil
	}
	c.handlers.sent(c.dispatcher, d)
	return nil
}

// Close unsubscribes. The STOMP connection stays open and belongs to the caller.
func (c *StompChannel) Close() error {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return ErrNotOpen
	}
	c.open = false
	close(c.done)
	sub := c.sub
	c.mu.Unlock()

	err := sub.Unsubscribe()
	c.wg.Wait()
	if err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}
	return nil
}

func (c *StompChannel) read(sub *stomp.Subscription, done <-chan struct{}) {
	defer c.wg.Done()

	for {
		select {
		case <-done:
			return
		case msg, ok := <-sub.C:
			if !ok {
				return
			}
			if msg.Err != nil {
				c.logger.Error().Err(msg.Err).Msg("STOMP subscription failed")
				c.handlers.dropped(c.dispatcher, ResultNotConnected)
				return
			}
			c.accept(msg.Body)
		}
	}
}
