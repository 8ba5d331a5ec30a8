// Package poll provides the polling engine that drives a generation job from
// submission to a terminal state. It owns the attempt budget, the fixed
// polling cadence, cancellable sleeps, bounded inline retry of transport
// errors and throttled progress reporting, independent of any provider.
package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/promovia/videogen-api/internal/mediagen"
)

// Static errors returned by Wait alongside the last job snapshot.
var (
	// ErrTimedOut is returned when the attempt budget is exhausted without
	// a terminal provider state. Distinct from a provider failure: the job
	// may still complete server-side and can be re-polled with the same
	// handle.
	ErrTimedOut = errors.New("poll: attempt budget exhausted")
	// ErrCancelled is returned when the caller's context is cancelled
	// during a sleep or a status call.
	ErrCancelled = errors.New("poll: cancelled")
	// ErrAdapterUnavailable is returned when the status endpoint keeps
	// failing after the inline transport retries.
	ErrAdapterUnavailable = errors.New("poll: status endpoint unavailable")
)

// Defaults for the engine parameters.
const (
	DefaultMaxAttempts      = 120
	DefaultInterval         = 5 * time.Second
	DefaultTransportRetries = 2
	DefaultProgressStep     = 5
)

// StatusFunc returns the current snapshot of the job being polled.
type StatusFunc func(ctx context.Context) (mediagen.Job, error)

// ProgressFunc is invoked when the job's progress changes enough to report.
type ProgressFunc func(progress int, message string)

// Engine polls a job with a fixed cadence and a bounded attempt budget.
type Engine struct {
	maxAttempts      int
	interval         time.Duration
	transportRetries int
	progressStep     int
	logger           *slog.Logger
}

// Option is a function that configures an Engine.
type Option func(*Engine)

// WithMaxAttempts sets the total status-call budget.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithInterval sets the fixed delay between attempts.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// WithTransportRetries sets how many times a failing status call is retried
// inline before the attempt counts as a persistent transport failure.
func WithTransportRetries(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.transportRetries = n
		}
	}
}

// WithProgressStep sets the minimum progress change that triggers the
// progress callback. Reaching 100 always triggers it.
func WithProgressStep(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.progressStep = n
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates a polling engine with the given options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		maxAttempts:      DefaultMaxAttempts,
		interval:         DefaultInterval,
		transportRetries: DefaultTransportRetries,
		progressStep:     DefaultProgressStep,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Wait polls status until the job reaches a terminal provider state, the
// attempt budget runs out, or ctx is cancelled.
//
// On StatusCompleted or StatusFailed the snapshot is returned with a nil
// error. Engine-level outcomes come back as the last snapshot plus a sentinel
// error: ErrTimedOut, ErrCancelled or ErrAdapterUnavailable. Progress is
// forced monotonically non-decreasing across snapshots, and onProgress fires
// only when it moved by at least the configured step or reached 100.
func (e *Engine) Wait(ctx context.Context, status StatusFunc, onProgress ProgressFunc) (mediagen.Job, error) {
	last := mediagen.Job{Status: mediagen.StatusSubmitted}
	reported := 0

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		job, err := e.statusWithRetry(ctx, status)
		if err != nil {
			if ctx.Err() != nil {
				last.Status = mediagen.StatusCancelled
				return last, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
			}
			last.Status = mediagen.StatusFailed
			last.Message = err.Error()
			return last, fmt.Errorf("%w: %v", ErrAdapterUnavailable, err)
		}

		// Providers occasionally report regressing percentages; keep the
		// high-water mark.
		if job.Progress < last.Progress {
			job.Progress = last.Progress
		}
		last = job

		if onProgress != nil {
			if job.Progress-reported >= e.progressStep || (job.Progress == 100 && reported < 100) {
				onProgress(job.Progress, job.Message)
				reported = job.Progress
			}
		}

		switch job.Status {
		case mediagen.StatusCompleted, mediagen.StatusFailed:
			return job, nil
		}

		if attempt == e.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			last.Status = mediagen.StatusCancelled
			return last, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		case <-time.After(e.interval):
		}
	}

	e.logger.Warn("polling attempt budget exhausted",
		slog.String("handle", last.Handle),
		slog.Int("attempts", e.maxAttempts),
	)
	last.Status = mediagen.StatusTimedOut
	return last, ErrTimedOut
}

// statusWithRetry calls status, retrying transient failures a bounded number
// of times before giving up. These inline retries do not count against the
// overall attempt budget.
func (e *Engine) statusWithRetry(ctx context.Context, status StatusFunc) (mediagen.Job, error) {
	var lastErr error

	for try := 0; try <= e.transportRetries; try++ {
		if try > 0 {
			e.logger.Debug("retrying status call after transport error",
				slog.Int("try", try),
				slog.String("error", lastErr.Error()),
			)
			select {
			case <-ctx.Done():
				return mediagen.Job{}, fmt.Errorf("context cancelled: %w", ctx.Err())
			case <-time.After(e.interval):
			}
		}

		job, err := status(ctx)
		if err == nil {
			return job, nil
		}
		if ctx.Err() != nil {
			return mediagen.Job{}, fmt.Errorf("context cancelled: %w", ctx.Err())
		}
		lastErr = err
	}

	return mediagen.Job{}, fmt.Errorf("transport retries exceeded: %w", lastErr)
}
