package scheduler

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Dispatcher is the compute execution context: CPU-bound work runs on
// its own goroutines, at most ComputeWorkers at a time, while the caller
// waits for the result.
type Dispatcher struct {
	slots *semaphore.Weighted
}

// NewDispatcher creates a compute dispatcher.
func NewDispatcher(cfg *Config) *Dispatcher {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Dispatcher{slots: semaphore.NewWeighted(cfg.computeWorkers())}
}

// Compute runs fn on the dispatcher and returns its result. If ctx ends
// first, Compute returns ctx.Err() and the result of fn is discarded.
func Compute[T any](ctx context.Context, d *Dispatcher, fn func() T) (T, error) {
	var zero T
	if err := d.slots.Acquire(ctx, 1); err != nil {
		return zero, err
	}

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)

	go func() {
		defer d.slots.Release(1)
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("compute panic: %v", r)}
			}
		}()
		done <- result{v: fn()}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
