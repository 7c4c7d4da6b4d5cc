package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"github.com/mobil-koeln/stopsync/internal/catalog"
	"github.com/mobil-koeln/stopsync/internal/channel"
	"github.com/mobil-koeln/stopsync/internal/engine"
)

var errCrawlTimeout = errors.New("crawl attempt timed out")

// crawl runs BeginSync on the loop until a crawl completes. An attempt that
// does not finish within timeout is abandoned and a fresh crawl is started
// after a backoff, at most retries times.
func crawl(ctx context.Context, e *engine.Engine, loop channel.Dispatcher, timeout time.Duration, retries int) (*catalog.StopList, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxInterval = 2 * time.Second

	var b backoff.BackOff = policy
	if retries >= 0 {
		b = backoff.WithMaxRetries(b, uint64(retries))
	}
	b = backoff.WithContext(b, ctx)

	attempt := 0
	operation := func() (*catalog.StopList, error) {
		attempt++
		done := make(chan *catalog.StopList, 1)
		errs := make(chan error, 1)

		loop.Post(func() {
			errs <- e.BeginSync(func(list *catalog.StopList) { done <- list })
		})

		timer := time.NewTimer(timeout)
		defer timer.Stop()

		for {
			select {
			case list := <-done:
				return list, nil
			case err := <-errs:
				if err != nil {
					return nil, err
				}
			case <-timer.C:
				return nil, fmt.Errorf("%w after %s", errCrawlTimeout, timeout)
			case <-ctx.Done():
				return nil, backoff.Permanent(ctx.Err())
			}
		}
	}

	notify := func(err error, wait time.Duration) {
		log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", wait).Msg("Crawl failed, retrying")
	}

	list, err := backoff.RetryNotifyWithData(operation, b, notify)
	if err != nil {
		return nil, fmt.Errorf("sync failed after %d attempts: %w", attempt, err)
	}
	return list, nil
}

type predictionResult struct {
	prediction catalog.Prediction
	label      string
}

// predict requests one prediction on the loop and waits up to timeout for it
func predict(ctx context.Context, e *engine.Engine, loop channel.Dispatcher, routeTag, stopTag string, timeout time.Duration) (catalog.Prediction, string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan predictionResult, 1)
	errs := make(chan error, 1)
	loop.Post(func() {
		errs <- e.RequestPrediction(routeTag, stopTag, func(p catalog.Prediction, label string) {
			done <- predictionResult{p, label}
		})
	})

	for {
		select {
		case r := <-done:
			return r.prediction, r.label, nil
		case err := <-errs:
			if err != nil {
				return nil, "", err
			}
		case <-ctx.Done():
			loop.Post(e.CancelPrediction)
			return nil, "", fmt.Errorf("no prediction for route %s at stop %s: %w", routeTag, stopTag, ctx.Err())
		}
	}
}
