package channel

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mobil-koeln/stopsync/internal/message"
)

// DefaultQueuePrefix names the broker queues when no prefix is configured
const DefaultQueuePrefix = "stopsync"

// Role selects which end of a broker channel an endpoint is
type Role int

const (
	// RoleWatch sends requests and receives responses
	RoleWatch Role = iota

	// RoleCompanion receives requests and sends responses
	RoleCompanion
)

func (r Role) String() string {
	switch r {
	case RoleWatch:
		return "watch"
	case RoleCompanion:
		return "companion"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Queues returns the queue names the role publishes to and consumes from.
// Names are relative to the watch: it publishes to the outbox and reads its
// inbox.
func (r Role) Queues(prefix string) (send, recv string) {
	outbox, inbox := prefix+".outbox", prefix+".inbox"
	if r == RoleCompanion {
		return inbox, outbox
	}
	return outbox, inbox
}

// brokerEndpoint holds what the Redis and STOMP transports share: payload
// limits and turning broker payloads into handler calls.
type brokerEndpoint struct {
	role       Role
	prefix     string
	maxPayload int
	dispatcher Dispatcher
	logger     zerolog.Logger
	handlers   Handlers
}

// encode checks the size limit and produces the broker payload. A message
// over the limit is reported as failed and nil data is returned.
func (b *brokerEndpoint) encode(d message.Dict) ([]byte, error) {
	if err := message.CheckSize(d, b.maxPayload); err != nil {
		b.logger.Warn().Err(err).Msg("Outbound message exceeds payload limit")
		b.handlers.failed(b.dispatcher, d, ResultBufferOverflow)
		return nil, nil
	}
	return message.Marshal(d)
}

// accept decodes an inbound payload and posts Received or Dropped. It returns
// false when the payload was not a usable message.
func (b *brokerEndpoint) accept(payload []byte) bool {
	d, err := message.Unmarshal(payload)
	if err != nil {
		b.logger.Warn().Err(err).Msg("Discarding undecodable payload")
		b.handlers.dropped(b.dispatcher, ResultInvalidArgs)
		return false
	}
	if err := message.CheckSize(d, b.maxPayload); err != nil {
		b.logger.Warn().Err(err).Msg("Inbound message exceeds payload limit")
		b.handlers.dropped(b.dispatcher, ResultBufferOverflow)
		return false
	}
	b.handlers.received(b.dispatcher, d)
	return true
}
