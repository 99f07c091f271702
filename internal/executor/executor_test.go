package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdmoraes/jurisdigest/internal/llm"
)

func TestRunBoundsParallelism(t *testing.T) {
	const limit = 3
	e := New(nil, WithMaxParallel(limit), WithBaseDelay(time.Millisecond))

	var inFlight, peak int64
	results := e.Run(context.Background(), 20, func(ctx context.Context, i int) (string, error) {
		cur := atomic.AddInt64(&inFlight, 1)
		for {
			old := atomic.LoadInt64(&peak)
			if cur <= old || atomic.CompareAndSwapInt64(&peak, old, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return fmt.Sprintf("out-%d", i), nil
	})

	if got := atomic.LoadInt64(&peak); got > limit {
		t.Errorf("peak in-flight = %d, want <= %d", got, limit)
	}
	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("task %d failed: %v", i, r.Err)
		}
		if r.Index != i || r.Output != fmt.Sprintf("out-%d", i) {
			t.Errorf("result %d mistagged: index=%d output=%q", i, r.Index, r.Output)
		}
	}
}

func TestRunRetriesTransientThenSucceeds(t *testing.T) {
	e := New(nil, WithMaxRetries(3), WithBaseDelay(time.Millisecond))

	var calls int32
	results := e.Run(context.Background(), 1, func(ctx context.Context, i int) (string, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return "", llm.NewTransientError(429, "rate limited", nil)
		}
		return "ok", nil
	})

	r := results[0]
	if r.Err != nil {
		t.Fatalf("expected success after retries, got %v", r.Err)
	}
	if r.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", r.Attempts)
	}
	if r.Output != "ok" {
		t.Errorf("output = %q", r.Output)
	}
}

func TestRunFatalNotRetried(t *testing.T) {
	e := New(nil, WithMaxRetries(3), WithBaseDelay(time.Millisecond))

	var calls int32
	results := e.Run(context.Background(), 1, func(ctx context.Context, i int) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", llm.NewFatalError(401, "bad api key", nil)
	})

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("fatal error was retried: %d calls", got)
	}
	var be *llm.BackendError
	if !errors.As(results[0].Err, &be) || be.Transient {
		t.Errorf("expected fatal BackendError, got %v", results[0].Err)
	}
}

func TestRunExhaustsRetries(t *testing.T) {
	e := New(nil, WithMaxRetries(3), WithBaseDelay(time.Millisecond))

	var calls int32
	results := e.Run(context.Background(), 1, func(ctx context.Context, i int) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", llm.NewTransientError(503, "unavailable", nil)
	})

	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("calls = %d, want 3 attempts", got)
	}
	if !errors.Is(results[0].Err, ErrRetriesExhausted) {
		t.Errorf("err = %v, want ErrRetriesExhausted", results[0].Err)
	}
	// Cause stays visible for diagnostics.
	var be *llm.BackendError
	if !errors.As(results[0].Err, &be) || !be.Transient {
		t.Errorf("exhausted error should wrap the transient cause, got %v", results[0].Err)
	}
}

func TestRunCancelStopsDispatchButFinishesInFlight(t *testing.T) {
	e := New(nil, WithMaxParallel(1), WithBaseDelay(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	var results []Result
	go func() {
		defer wg.Done()
		results = e.Run(ctx, 3, func(taskCtx context.Context, i int) (string, error) {
			if i == 0 {
				close(started)
				<-release
				// The dispatched call keeps a live context after cancel.
				if taskCtx.Err() != nil {
					return "", taskCtx.Err()
				}
			}
			return fmt.Sprintf("out-%d", i), nil
		})
	}()

	<-started
	cancel()
	close(release)
	wg.Wait()

	if results[0].Err != nil || results[0].Output != "out-0" {
		t.Errorf("in-flight task should finish: %+v", results[0])
	}
	canceled := 0
	for _, r := range results[1:] {
		if errors.Is(r.Err, context.Canceled) {
			canceled++
		}
	}
	if canceled == 0 {
		t.Errorf("expected undispatched tasks to carry the context error, got %+v", results[1:])
	}
}
