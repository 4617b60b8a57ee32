// Package batch runs independent units of work with bounded concurrency and
// a minimum spacing between starts.
package batch

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Config configures a Runner.
type Config struct {
	// Concurrency caps the number of items in flight. Values below 1 mean 1.
	Concurrency int
	// Delay is the minimum gap between two item starts. Zero disables pacing.
	Delay time.Duration
}

// WorkFunc processes one item. It reports failures through its result.
type WorkFunc[T any, R any] func(ctx context.Context, item T) R

// FailFunc builds the result of an item that was never started.
type FailFunc[T any, R any] func(item T, err error) R

// Runner fans items out to a WorkFunc.
type Runner[T any, R any] struct {
	config Config
}

// NewRunner creates a runner with the given configuration.
func NewRunner[T any, R any](config Config) *Runner[T, R] {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if config.Delay < 0 {
		config.Delay = 0
	}
	return &Runner[T, R]{config: config}
}

// Run calls work for every item and returns the results in item order.
// One failing item never stops the others. An item whose start cannot be
// paced, because ctx is done or the next slot lies past its deadline, is not
// handed to work; its result comes from fail.
func (r *Runner[T, R]) Run(ctx context.Context, items []T, work WorkFunc[T, R], fail FailFunc[T, R]) []R {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results
	}

	limit := rate.Inf
	if r.config.Delay > 0 {
		limit = rate.Every(r.config.Delay)
	}
	limiter := rate.NewLimiter(limit, 1)

	var g errgroup.Group
	g.SetLimit(r.config.Concurrency)
	for i, item := range items {
		g.Go(func() error {
			if err := limiter.Wait(ctx); err != nil {
				results[i] = fail(item, err)
				return nil
			}
			results[i] = work(ctx, item)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
