package companion

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mobil-koeln/stopsync/internal/channel"
	"github.com/mobil-koeln/stopsync/internal/message"
)

// Server answers requests arriving on a broker channel. The channel must
// have been created with the server's loop as its dispatcher.
type Server struct {
	ch        channel.Channel
	loop      *channel.Loop
	responder channel.Responder
	logger    zerolog.Logger

	answered int
}

// NewServer creates a server answering requests on ch with responder
func NewServer(ch channel.Channel, loop *channel.Loop, responder channel.Responder, logger zerolog.Logger) *Server {
	return &Server{
		ch:        ch,
		loop:      loop,
		responder: responder,
		logger:    logger,
	}
}

// Serve opens the channel and answers requests until ctx is cancelled
func (s *Server) Serve(ctx context.Context) error {
	if err := s.ch.Open(s.handlers(ctx)); err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer func() {
		if err := s.ch.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Failed to close channel")
		}
	}()

	s.logger.Info().Msg("Companion ready")
	err := s.loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	s.logger.Info().Int("answered", s.answered).Msg("Companion stopped")
	return err
}

func (s *Server) handlers(ctx context.Context) channel.Handlers {
	return channel.Handlers{
		Received: func(req message.Dict) {
			resp, err := s.responder.Respond(ctx, req)
			if err != nil || resp == nil {
				return
			}
			if err := s.ch.Send(resp); err != nil {
				s.logger.Error().Err(err).Str("type", resp.TypeName()).Msg("Failed to send response")
				return
			}
			s.answered++
		},
		Dropped: func(result channel.Result) {
			s.logger.Warn().Stringer("result", result).Msg("Inbound request dropped")
		},
		Failed: func(d message.Dict, result channel.Result) {
			s.logger.Error().Str("type", d.TypeName()).Stringer("result", result).Msg("Response failed")
		},
	}
}
