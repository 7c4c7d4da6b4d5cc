package testutil

import (
	"github.com/mobil-koeln/stopsync/internal/channel"
	"github.com/mobil-koeln/stopsync/internal/message"
)

// RecordingChannel is a channel.Channel that records every sent message and
// never delivers anything. Tests drive the handlers directly.
type RecordingChannel struct {
	Sent     []message.Dict
	Handlers channel.Handlers
	Opened   bool

	// SendErr, when set, is returned by Send and the message is not recorded
	SendErr error
}

// NewRecordingChannel creates an empty recording channel
func NewRecordingChannel() *RecordingChannel {
	return &RecordingChannel{}
}

func (c *RecordingChannel) Open(h channel.Handlers) error {
	if c.Opened {
		return channel.ErrAlreadyOpen
	}
	c.Handlers = h
	c.Opened = true
	return nil
}

func (c *RecordingChannel) Send(d message.Dict) error {
	if c.SendErr != nil {
		return c.SendErr
	}
	c.Sent = append(c.Sent, d)
	return nil
}

func (c *RecordingChannel) Close() error {
	if !c.Opened {
		return channel.ErrNotOpen
	}
	c.Opened = false
	return nil
}

// Last returns the most recently sent message, or nil
func (c *RecordingChannel) Last() message.Dict {
	if len(c.Sent) == 0 {
		return nil
	}
	return c.Sent[len(c.Sent)-1]
}

// SentCount returns the number of recorded messages
func (c *RecordingChannel) SentCount() int {
	return len(c.Sent)
}

// Reset clears the sent history
func (c *RecordingChannel) Reset() {
	c.Sent = nil
}
