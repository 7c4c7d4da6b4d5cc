package companion

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"github.com/mobil-koeln/stopsync/internal/catalog"
)

type warmed struct {
	stop       *catalog.Stop
	prediction catalog.Prediction
}

// Warm fetches a prediction for every stop in list, at most concurrency at a
// time, and stores the results on the stops. It returns the number of stops
// updated; failures are joined into the returned error and leave the stop as
// it was.
func Warm(ctx context.Context, predictor Predictor, list *catalog.StopList, concurrency int) (int, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	p := pool.NewWithResults[warmed]().
		WithContext(ctx).
		WithMaxGoroutines(concurrency)

	for _, section := range list.Sections() {
		if section == nil {
			continue
		}
		for _, stop := range section.Stops() {
			if stop == nil {
				continue
			}
			stop := stop
			stopTag := section.StopTag
			p.Go(func(ctx context.Context) (warmed, error) {
				prediction, err := predictor.Predict(ctx, stop.RouteTag, stopTag)
				if err != nil {
					log.Debug().Err(err).Str("route", stop.RouteTag).Str("stop", stopTag).Msg("Failed to warm prediction")
					return warmed{}, err
				}
				return warmed{stop: stop, prediction: prediction}, nil
			})
		}
	}

	results, err := p.Wait()

	// The catalog is only written from the calling goroutine
	updated := 0
	for _, w := range results {
		if w.stop.SetPrediction(w.prediction, catalog.MinutesLabelFor(w.prediction)) == nil {
			updated++
		}
	}
	return updated, err
}
