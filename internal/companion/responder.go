// Package companion is the phone side of the stop catalog sync. It answers
// the watch's requests from a catalog and a live prediction source.
package companion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mobil-koeln/stopsync/internal/catalog"
	"github.com/mobil-koeln/stopsync/internal/message"
)

const defaultPredictTimeout = 5 * time.Second

var (
	// ErrUnsupportedRequest is returned for messages the companion does not answer
	ErrUnsupportedRequest = errors.New("unsupported request")

	// ErrNoPredictor is returned for prediction requests when no predictor is configured
	ErrNoPredictor = errors.New("no predictor configured")
)

// Responder answers watch requests. Requests it cannot answer produce an
// error and no response, which the watch sees as a lost message. Respond
// updates stored predictions and must not be called concurrently.
type Responder struct {
	catalog        *catalog.StopList
	predictor      Predictor
	logger         zerolog.Logger
	predictTimeout time.Duration
}

// ResponderOption configures a Responder
type ResponderOption func(*Responder)

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) ResponderOption {
	return func(r *Responder) {
		r.logger = logger
	}
}

// WithPredictTimeout bounds each call to the predictor
func WithPredictTimeout(d time.Duration) ResponderOption {
	return func(r *Responder) {
		r.predictTimeout = d
	}
}

// NewResponder creates a responder serving list. predictor may be nil, in
// which case prediction requests are answered from predictions stored on the
// catalog.
func NewResponder(list *catalog.StopList, predictor Predictor, opts ...ResponderOption) *Responder {
	r := &Responder{
		catalog:        list,
		predictor:      predictor,
		logger:         zerolog.Nop(),
		predictTimeout: defaultPredictTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Respond implements channel.Responder
func (r *Responder) Respond(ctx context.Context, req message.Dict) (message.Dict, error) {
	msg, err := message.Decode(req)
	if err != nil {
		return nil, err
	}

	var resp message.Message
	switch m := msg.(type) {
	case message.SectionsMetadataRequest:
		resp = message.SectionsMetadata{SectionCount: uint16(r.catalog.SectionCount())}
	case message.SectionDataRequest:
		resp, err = r.sectionData(m)
	case message.StopDataRequest:
		resp, err = r.stopData(m)
	case message.StopPredictionRequest:
		resp, err = r.stopPrediction(ctx, m)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedRequest, msg.Type())
	}
	if err != nil {
		r.logger.Warn().Err(err).Str("type", msg.Type().String()).Msg("Not answering request")
		return nil, err
	}

	r.logger.Debug().
		Str("request", msg.Type().String()).
		Str("response", resp.Type().String()).
		Msg("Answering request")
	return resp.Dict(), nil
}

func (r *Responder) sectionData(m message.SectionDataRequest) (message.Message, error) {
	i := int(m.SectionIndex)
	section := r.catalog.Section(i)
	if section == nil {
		return nil, fmt.Errorf("section %d of %d: %w", i, r.catalog.SectionCount(), catalog.ErrIndexOutOfRange)
	}
	return message.SectionData{
		SectionIndex: m.SectionIndex,
		StopTag:      section.StopTag,
		StopTitle:    section.StopTitle,
		StopCount:    uint16(section.StopCount()),
	}, nil
}

func (r *Responder) stopData(m message.StopDataRequest) (message.Message, error) {
	i, j := int(m.SectionIndex), int(m.StopIndex)
	section := r.catalog.Section(i)
	if section == nil {
		return nil, fmt.Errorf("section %d of %d: %w", i, r.catalog.SectionCount(), catalog.ErrIndexOutOfRange)
	}
	stop := section.Stop(j)
	if stop == nil {
		return nil, fmt.Errorf("stop %d of %d in section %d: %w", j, section.StopCount(), i, catalog.ErrIndexOutOfRange)
	}
	return message.StopData{
		SectionIndex:   m.SectionIndex,
		StopIndex:      m.StopIndex,
		RouteTag:       stop.RouteTag,
		RouteTitle:     stop.RouteTitle,
		DirectionTag:   stop.DirectionTag,
		DirectionTitle: stop.DirectionTitle,
	}, nil
}

// stopPrediction asks the predictor and falls back to the last prediction
// stored on the catalog when the predictor fails
func (r *Responder) stopPrediction(ctx context.Context, m message.StopPredictionRequest) (message.Message, error) {
	stored := r.catalog.FindStop(m.RouteTag, m.StopTag)

	if r.predictor != nil {
		ctx, cancel := context.WithTimeout(ctx, r.predictTimeout)
		defer cancel()

		prediction, err := r.predictor.Predict(ctx, m.RouteTag, m.StopTag)
		if err == nil {
			prediction, err = normalizePrediction(prediction)
		}
		if err == nil {
			label := catalog.MinutesLabelFor(prediction)
			if stored != nil {
				if err := stored.SetPrediction(prediction, label); err != nil {
					return nil, fmt.Errorf("store prediction for %s at %s: %w", m.RouteTag, m.StopTag, err)
				}
			}
			return message.StopPrediction{Prediction: prediction, MinutesLabel: label}, nil
		}
		if !stored.HasPrediction() {
			return nil, fmt.Errorf("predict %s at %s: %w", m.RouteTag, m.StopTag, err)
		}
		r.logger.Warn().Err(err).
			Str("route", m.RouteTag).
			Str("stop", m.StopTag).
			Msg("Predictor failed, answering with stored prediction")
	} else if !stored.HasPrediction() {
		return nil, ErrNoPredictor
	}

	return message.StopPrediction{Prediction: stored.Prediction, MinutesLabel: stored.MinutesLabel}, nil
}
