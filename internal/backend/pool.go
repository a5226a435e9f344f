package backend

import (
	"context"
	"errors"

	"golang.org/x/sync/semaphore"
	"railway.tracker.org/internal/models"
)

// pooled runs every call of the wrapped client on a bounded set of workers
// and gives up waiting after the configured timeout.
type pooled struct {
	next    Client
	config  Config
	workers *semaphore.Weighted
}

// WithTimeout wraps next so no call blocks its caller longer than
// config.Timeout. A timed out call fails with KindTimeout; the worker keeps
// running until next returns.
func WithTimeout(next Client, config Config) Client {
	config = config.withDefaults()
	return &pooled{
		next:    next,
		config:  config,
		workers: semaphore.NewWeighted(int64(config.Workers)),
	}
}

func (p *pooled) Locations(ctx context.Context, query string) ([]models.Place, error) {
	return run(ctx, p, "locations", func(ctx context.Context) ([]models.Place, error) {
		return p.next.Locations(ctx, query)
	})
}

func (p *pooled) Journeys(ctx context.Context, from, to models.Place, opts models.JourneysOptions) (models.JourneysResponse, error) {
	return run(ctx, p, "journeys", func(ctx context.Context) (models.JourneysResponse, error) {
		return p.next.Journeys(ctx, from, to, opts)
	})
}

func (p *pooled) RefreshJourney(ctx context.Context, token string, opts models.RefreshOptions) (models.Journey, error) {
	return run(ctx, p, "refresh_journey", func(ctx context.Context) (models.Journey, error) {
		return p.next.RefreshJourney(ctx, token, opts)
	})
}

type result[T any] struct {
	value T
	err   error
}

func run[T any](ctx context.Context, p *pooled, op string, call func(context.Context) (T, error)) (T, error) {
	var zero T

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	if err := p.workers.Acquire(ctx, 1); err != nil {
		return zero, classify(ctx, op, err)
	}

	done := make(chan result[T], 1)
	go func() {
		defer p.workers.Release(1)
		value, err := call(ctx)
		done <- result[T]{value: value, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return zero, classify(ctx, op, r.err)
		}
		return r.value, nil
	case <-ctx.Done():
		return zero, classify(ctx, op, ctx.Err())
	}
}

// classify turns an expired deadline into KindTimeout and everything else
// into KindBackend.
func classify(ctx context.Context, op string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Op: op, Err: ErrTimeout}
	}
	return wrap(op, err)
}
