// Package executor runs batches of asynchronous work items with a
// concurrency cap and per-item retry.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultMaxInFlight = 500
	DefaultRetryTimes  = 5
	DefaultCooldown    = 10 * time.Second
)

// Task is one unit of work in a batch.
type Task func(ctx context.Context) error

// Executor throttles a batch of tasks and wraps each one in retry with a
// progressive backoff. Failure of one item never aborts the rest.
type Executor struct {
	maxInFlight int64
	retryTimes  int
	cooldown    time.Duration
	jitter      bool
	sleep       func(ctx context.Context, d time.Duration) error
}

type Option func(*Executor)

func WithMaxInFlight(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxInFlight = int64(n)
		}
	}
}

func WithRetry(times int, cooldown time.Duration) Option {
	return func(e *Executor) {
		e.retryTimes = times
		e.cooldown = cooldown
	}
}

// WithoutJitter disables the random backoff entropy, for deterministic tests.
func WithoutJitter() Option {
	return func(e *Executor) {
		e.jitter = false
	}
}

func New(opts ...Option) *Executor {
	e := &Executor{
		maxInFlight: DefaultMaxInFlight,
		retryTimes:  DefaultRetryTimes,
		cooldown:    DefaultCooldown,
		jitter:      true,
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes all tasks with at most maxInFlight concurrently. The returned
// slice has one entry per task, nil on success or the task's final error
// after retries were exhausted.
func (e *Executor) Run(ctx context.Context, tasks []Task) []error {
	results := make([]error, len(tasks))
	sem := semaphore.NewWeighted(e.maxInFlight)

	g, gctx := errgroup.WithContext(ctx)
	for i, task := range tasks {
		if err := sem.Acquire(gctx, 1); err != nil {
			results[i] = err
			continue
		}

		i, task := i, task
		g.Go(func() error {
			defer sem.Release(1)
			results[i] = e.runWithRetry(gctx, task)
			// Per-item isolation: errors live in results, never fail the group
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// RunAll is Run collapsed into a single error, reporting how many items
// failed.
func (e *Executor) RunAll(ctx context.Context, tasks []Task) error {
	failed := 0
	for _, err := range e.Run(ctx, tasks) {
		if err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d tasks failed", failed, len(tasks))
	}
	return nil
}

func (e *Executor) runWithRetry(ctx context.Context, task Task) error {
	var err error
	for attempt := 1; attempt <= e.retryTimes+1; attempt++ {
		err = task(ctx)
		if err == nil {
			return nil
		}
		if attempt > e.retryTimes {
			break
		}

		cooldown := e.backoff(attempt)
		slog.Debug("Task failed, retrying",
			slog.String("type", "job"),
			slog.Int("attempt", attempt),
			slog.Duration("cooldown", cooldown),
			slog.Any("error", err))

		if serr := e.sleep(ctx, cooldown); serr != nil {
			return err
		}
	}
	return err
}

// backoff grows linearly with the attempt number, with a small random
// fraction added so parallel retries don't cluster in time.
func (e *Executor) backoff(attempt int) time.Duration {
	cooldown := e.cooldown
	if e.jitter {
		entropy := 0.1 + rand.Float64()
		cooldown += time.Duration(entropy * float64(time.Second))
	}
	return cooldown * time.Duration(attempt)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
