package channel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mobil-koeln/stopsync/internal/message"
)

const (
	defaultPollDuration = 100 * time.Millisecond
	redisPrefetchLimit  = 10
)

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Address  string
	Password string
	Database int
}

// OpenRedisConnection connects to Redis and opens an rmq connection on it.
// Background queue errors are logged until ctx is done.
func OpenRedisConnection(ctx context.Context, cfg RedisConfig, logger zerolog.Logger) (rmq.Connection, *redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.Database,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Address, err)
	}

	errChan := make(chan error, 10)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-errChan:
				logger.Warn().Err(err).Msg("Redis queue error")
			}
		}
	}()

	conn, err := rmq.OpenConnectionWithRedisClient("stopsync", client, errChan)
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to open queue connection: %w", err)
	}
	return conn, client, nil
}

// RedisChannel carries messages over a pair of rmq queues
type RedisChannel struct {
	brokerEndpoint
	conn         rmq.Connection
	pollDuration time.Duration

	mu        sync.Mutex
	open      bool
	sendQueue rmq.Queue
	recvQueue rmq.Queue
}

// RedisOption configures a RedisChannel
type RedisOption func(*RedisChannel)

// WithRedisPrefix sets the queue name prefix
func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisChannel) {
		c.prefix = prefix
	}
}

// WithRedisRole selects the watch or companion end
func WithRedisRole(role Role) RedisOption {
	return func(c *RedisChannel) {
		c.role = role
	}
}

// WithRedisMaxPayload sets the per-message size limit in bytes
func WithRedisMaxPayload(n int) RedisOption {
	return func(c *RedisChannel) {
		c.maxPayload = n
	}
}

// WithPollDuration sets how often the consumer polls the queue
func WithPollDuration(d time.Duration) RedisOption {
	return func(c *RedisChannel) {
		c.pollDuration = d
	}
}

// WithRedisLogger sets the logger
func WithRedisLogger(logger zerolog.Logger) RedisOption {
	return func(c *RedisChannel) {
		c.logger = logger
	}
}

// NewRedisChannel creates a channel on an open rmq connection
func NewRedisChannel(conn rmq.Connection, dispatcher Dispatcher, opts ...RedisOption) *RedisChannel {
	c := &RedisChannel{
		brokerEndpoint: brokerEndpoint{
			role:       RoleWatch,
			prefix:     DefaultQueuePrefix,
			maxPayload: message.DefaultMaxPayload,
			dispatcher: dispatcher,
			logger:     zerolog.Nop(),
		},
		conn:         conn,
		pollDuration: defaultPollDuration,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisChannel) Open(h Handlers) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.open {
		return ErrAlreadyOpen
	}

	sendName, recvName := c.role.Queues(c.prefix)
	sendQueue, err := c.conn.OpenQueue(sendName)
	if err != nil {
		return fmt.Errorf("failed to open queue %s: %w", sendName, err)
	}
	recvQueue, err := c.conn.OpenQueue(recvName)
	if err != nil {
		return fmt.Errorf("failed to open queue %s: %w", recvName, err)
	}

	c.handlers = h
	if err := recvQueue.StartConsuming(redisPrefetchLimit, c.pollDuration); err != nil {
		return fmt.Errorf("failed to consume %s: %w", recvName, err)
	}
	if _, err := recvQueue.AddConsumerFunc(c.role.String(), c.consume); err != nil {
		<-recvQueue.StopConsuming()
		return fmt.Errorf("failed to add consumer to %s: %w", recvName, err)
	}

	c.sendQueue = sendQueue
	c.recvQueue = recvQueue
	c.open = true
	c.logger.Info().Str("send", sendName).Str("recv", recvName).Msg("Redis channel open")
	return nil
}

func (c *RedisChannel) Send(d message.Dict) error {
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

	if err := c.sendQueue.PublishBytes(data); err != nil {
		c.logger.Debug().Err(err).Str("type", d.TypeName()).Msg("Publish failed")
		c.handlers.failed(c.dispatcher, d, ResultNotConnected)
		return nil
	}
	c.handlers.sent(c.dispatcher, d)
	return nil
}

func (c *RedisChannel) Close() error {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return ErrNotOpen
	}
	c.open = false
	recvQueue := c.recvQueue
	c.mu.Unlock()

	<-recvQueue.StopConsuming()
	return nil
}

func (c *RedisChannel) consume(delivery rmq.Delivery) {
	c.accept([]byte(delivery.Payload()))
	if err := delivery.Ack(); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to ack delivery")
	}
}
