package companion

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/mobil-koeln/stopsync/internal/catalog"
)

// ErrNoPrediction is returned by a predictor that knows nothing about a route at a stop
var ErrNoPrediction = errors.New("no prediction available")

// Predictor is a source of live arrival predictions. The NextBus client
// satisfies it.
type Predictor interface {
	Predict(ctx context.Context, routeTag, stopTag string) (catalog.Prediction, error)
}

// PredictorFunc adapts a function to the Predictor interface
type PredictorFunc func(ctx context.Context, routeTag, stopTag string) (catalog.Prediction, error)

func (f PredictorFunc) Predict(ctx context.Context, routeTag, stopTag string) (catalog.Prediction, error) {
	return f(ctx, routeTag, stopTag)
}

// normalizePrediction returns the earliest catalog.MaxPredictions minutes of
// p, soonest first. Negative minutes are rejected.
func normalizePrediction(p catalog.Prediction) (catalog.Prediction, error) {
	for _, m := range p {
		if m < 0 {
			return nil, fmt.Errorf("%w: negative minutes %d", catalog.ErrInvalidArgument, m)
		}
	}
	minutes := slices.Clone(p)
	slices.Sort(minutes)
	if len(minutes) > catalog.MaxPredictions {
		minutes = minutes[:catalog.MaxPredictions]
	}
	return minutes, nil
}

type predictionKey struct {
	routeTag string
	stopTag  string
}

// StaticPredictor answers from a fixed table
type StaticPredictor struct {
	mu          sync.RWMutex
	predictions map[predictionKey]catalog.Prediction
}

// NewStaticPredictor creates an empty predictor
func NewStaticPredictor() *StaticPredictor {
	return &StaticPredictor{
		predictions: make(map[predictionKey]catalog.Prediction),
	}
}

// Set stores the prediction for a route at a stop. A nil prediction is
// stored as "no arrivals".
func (p *StaticPredictor) Set(routeTag, stopTag string, minutes []int) {
	prediction := make(catalog.Prediction, len(minutes))
	copy(prediction, minutes)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.predictions[predictionKey{routeTag, stopTag}] = prediction
}

func (p *StaticPredictor) Predict(_ context.Context, routeTag, stopTag string) (catalog.Prediction, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	prediction, ok := p.predictions[predictionKey{routeTag, stopTag}]
	if !ok {
		return nil, ErrNoPrediction
	}
	out := make(catalog.Prediction, len(prediction))
	copy(out, prediction)
	return out, nil
}
