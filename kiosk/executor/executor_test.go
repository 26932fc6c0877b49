package executor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestExecutor(opts ...Option) *Executor {
	e := New(append([]Option{WithoutJitter()}, opts...)...)
	e.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return e
}

func TestRun_RetryBound(t *testing.T) {
	tests := []struct {
		name         string
		retryTimes   int
		failures     int
		wantAttempts int
		wantErr      bool
	}{
		{"succeeds first try", 3, 0, 1, false},
		{"succeeds after one retry", 3, 1, 2, false},
		{"exhausts retries", 2, 10, 3, true},
		{"no retries configured", 0, 10, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestExecutor(WithRetry(tt.retryTimes, time.Millisecond))

			var attempts int
			task := func(ctx context.Context) error {
				attempts++
				if attempts <= tt.failures {
					return errors.New("transient")
				}
				return nil
			}

			results := e.Run(context.Background(), []Task{task})
			if len(results) != 1 {
				t.Fatalf("Run() returned %d results, want 1", len(results))
			}
			if (results[0] != nil) != tt.wantErr {
				t.Errorf("Run() error = %v, wantErr %v", results[0], tt.wantErr)
			}
			if attempts != tt.wantAttempts {
				t.Errorf("task ran %d times, want %d", attempts, tt.wantAttempts)
			}
		})
	}
}

func TestRun_PerItemIsolation(t *testing.T) {
	e := newTestExecutor(WithRetry(0, time.Millisecond))

	boom := errors.New("boom")
	var succeeded atomic.Int32
	tasks := []Task{
		func(ctx context.Context) error { succeeded.Add(1); return nil },
		func(ctx context.Context) error { return boom },
		func(ctx context.Context) error { succeeded.Add(1); return nil },
	}

	results := e.Run(context.Background(), tasks)

	if succeeded.Load() != 2 {
		t.Errorf("successful tasks = %d, want 2", succeeded.Load())
	}
	if results[0] != nil || results[2] != nil {
		t.Errorf("successful tasks reported errors: %v, %v", results[0], results[2])
	}
	if !errors.Is(results[1], boom) {
		t.Errorf("results[1] = %v, want %v", results[1], boom)
	}
}

func TestRun_ConcurrencyCap(t *testing.T) {
	const limit = 3
	e := newTestExecutor(WithMaxInFlight(limit), WithRetry(0, time.Millisecond))

	var mu sync.Mutex
	inFlight := 0
	maxSeen := 0

	tasks := make([]Task, 20)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) error {
			mu.Lock()
			inFlight++
			if inFlight > maxSeen {
				maxSeen = inFlight
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			inFlight--
			mu.Unlock()
			return nil
		}
	}

	e.Run(context.Background(), tasks)

	if maxSeen > limit {
		t.Errorf("max in-flight tasks = %d, want <= %d", maxSeen, limit)
	}
}

func TestRunAll_CollapsesFailures(t *testing.T) {
	e := newTestExecutor(WithRetry(0, time.Millisecond))

	tasks := []Task{
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { return errors.New("first") },
		func(ctx context.Context) error { return errors.New("second") },
	}

	err := e.RunAll(context.Background(), tasks)
	if err == nil {
		t.Fatal("RunAll() = nil, want error")
	}
	if got, want := err.Error(), "2 of 3 tasks failed"; got != want {
		t.Errorf("RunAll() error = %q, want %q", got, want)
	}

	if err := e.RunAll(context.Background(), nil); err != nil {
		t.Errorf("RunAll(no tasks) = %v, want nil", err)
	}
}

func TestBackoff_GrowsWithAttempt(t *testing.T) {
	e := New(WithoutJitter(), WithRetry(5, 10*time.Second))

	if got := e.backoff(1); got != 10*time.Second {
		t.Errorf("backoff(1) = %v, want 10s", got)
	}
	if got := e.backoff(3); got != 30*time.Second {
		t.Errorf("backoff(3) = %v, want 30s", got)
	}
}
