// Package executor bounds concurrent in-flight calls to the summarization
// backend and applies exponential-backoff retry on transient failures.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/semaphore"

	"github.com/pdmoraes/jurisdigest/internal/llm"
)

// ErrRetriesExhausted marks a per-task failure after all retry attempts.
// It is recoverable at the document level: other tasks may still succeed.
var ErrRetriesExhausted = errors.New("executor: retries exhausted")

// Task produces the output for one index (one chunk or one merge batch).
type Task func(ctx context.Context, index int) (string, error)

// Result is one task outcome, tagged with its originating index so
// downstream reduction can reorder deterministically.
type Result struct {
	Index    int
	Output   string
	Err      error
	Attempts int
}

type Executor struct {
	logger      *slog.Logger
	maxParallel int64
	maxRetries  int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

type Option func(*Executor)

func WithMaxParallel(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxParallel = int64(n)
		}
	}
}

// WithMaxRetries sets the total attempt count per task (first try included).
func WithMaxRetries(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxRetries = n
		}
	}
}

func WithBaseDelay(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.baseDelay = d
		}
	}
}

func New(logger *slog.Logger, opts ...Option) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Executor{
		logger:      logger,
		maxParallel: 5,
		maxRetries:  3,
		baseDelay:   time.Second,
		maxDelay:    30 * time.Second,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Run executes n tasks with at most maxParallel in flight. Completion order
// is unconstrained; the returned slice is ordered by index, one Result per
// task. When ctx is canceled, tasks already dispatched finish (the external
// call is not interrupted) but no new task is dispatched and no further
// retry is attempted; undispatched indices carry the context error.
func (e *Executor) Run(ctx context.Context, n int, task Task) []Result {
	results := make([]Result, n)
	sem := semaphore.NewWeighted(e.maxParallel)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		// Acquire can succeed on free capacity even under a canceled
		// context; check first so cancellation always halts dispatch.
		if err := ctx.Err(); err != nil {
			for j := i; j < n; j++ {
				results[j] = Result{Index: j, Err: err}
			}
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			for j := i; j < n; j++ {
				results[j] = Result{Index: j, Err: err}
			}
			break
		}
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer sem.Release(1)

			// The dispatched call itself must survive caller cancellation;
			// the retry loop still watches ctx between attempts.
			out, attempts, err := e.runWithRetry(ctx, context.WithoutCancel(ctx), idx, task)
			results[idx] = Result{Index: idx, Output: out, Err: err, Attempts: attempts}
		}(i)
	}

	wg.Wait()
	return results
}

func (e *Executor) runWithRetry(ctx, callCtx context.Context, idx int, task Task) (string, int, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.baseDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0.25
	bo.MaxInterval = e.maxDelay
	bo.MaxElapsedTime = 0
	bo.Reset()

	attempts := 0
	for {
		attempts++
		out, err := task(callCtx, idx)
		if err == nil {
			return out, attempts, nil
		}
		if !llm.IsTransient(err) {
			e.logger.Error("executor.task.fatal", "index", idx, "attempt", attempts, "error", err)
			return "", attempts, err
		}
		if attempts >= e.maxRetries {
			e.logger.Error("executor.task.exhausted", "index", idx, "attempts", attempts, "error", err)
			return "", attempts, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempts, err)
		}

		wait := bo.NextBackOff()
		e.logger.Warn("executor.task.retry",
			"index", idx,
			"attempt", attempts,
			"max_attempts", e.maxRetries,
			"backoff_ms", wait.Milliseconds(),
			"error", err,
		)
		select {
		case <-ctx.Done():
			return "", attempts, ctx.Err()
		case <-time.After(wait):
		}
	}
}
