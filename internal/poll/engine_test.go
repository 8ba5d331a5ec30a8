package poll

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promovia/videogen-api/internal/mediagen"
)

// runningThenCompleted returns a StatusFunc that reports RUNNING for n calls
// and COMPLETED afterwards, counting invocations.
func runningThenCompleted(n int, calls *atomic.Int64) StatusFunc {
	return func(ctx context.Context) (mediagen.Job, error) {
		c := calls.Add(1)
		if c <= int64(n) {
			return mediagen.Job{Status: mediagen.StatusRunning}, nil
		}
		return mediagen.Job{Status: mediagen.StatusCompleted, Progress: 100}, nil
	}
}

func fastEngine(maxAttempts int) *Engine {
	return NewEngine(
		WithMaxAttempts(maxAttempts),
		WithInterval(time.Millisecond),
		WithTransportRetries(2),
	)
}

func TestEngine_Wait_CompletesAfterExactCalls(t *testing.T) {
	const runningCalls = 3

	var calls atomic.Int64
	engine := fastEngine(10)

	job, err := engine.Wait(context.Background(), runningThenCompleted(runningCalls, &calls), nil)
	require.NoError(t, err)
	assert.Equal(t, mediagen.StatusCompleted, job.Status)
	// RUNNING N times plus the final COMPLETED call, and nothing after.
	assert.Equal(t, int64(runningCalls+1), calls.Load())
}

func TestEngine_Wait_ReturnsFailedImmediately(t *testing.T) {
	var calls atomic.Int64
	engine := fastEngine(10)

	status := func(ctx context.Context) (mediagen.Job, error) {
		calls.Add(1)
		return mediagen.Job{Status: mediagen.StatusFailed, Message: "provider exploded"}, nil
	}

	job, err := engine.Wait(context.Background(), status, nil)
	require.NoError(t, err)
	assert.Equal(t, mediagen.StatusFailed, job.Status)
	assert.Equal(t, "provider exploded", job.Message)
	assert.Equal(t, int64(1), calls.Load())
}

func TestEngine_Wait_TimesOutAfterExactBudget(t *testing.T) {
	const maxAttempts = 7

	var calls atomic.Int64
	engine := fastEngine(maxAttempts)

	status := func(ctx context.Context) (mediagen.Job, error) {
		calls.Add(1)
		return mediagen.Job{Status: mediagen.StatusRunning}, nil
	}

	job, err := engine.Wait(context.Background(), status, nil)
	require.ErrorIs(t, err, ErrTimedOut)
	assert.Equal(t, mediagen.StatusTimedOut, job.Status)
	assert.Equal(t, int64(maxAttempts), calls.Load())
}

func TestEngine_Wait_CancelledDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int64
	engine := NewEngine(
		WithMaxAttempts(10),
		WithInterval(50*time.Millisecond),
	)

	status := func(ctx context.Context) (mediagen.Job, error) {
		if calls.Add(1) == 2 {
			// Fire the cancellation while the engine sleeps before
			// attempt 3.
			time.AfterFunc(10*time.Millisecond, cancel)
		}
		return mediagen.Job{Status: mediagen.StatusRunning}, nil
	}

	job, err := engine.Wait(ctx, status, nil)
	require.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, mediagen.StatusCancelled, job.Status)
	assert.Equal(t, int64(2), calls.Load(), "attempt 3 must not be issued")
}

func TestEngine_Wait_TransientTransportErrorRetriedInline(t *testing.T) {
	var calls atomic.Int64
	engine := fastEngine(3)

	status := func(ctx context.Context) (mediagen.Job, error) {
		c := calls.Add(1)
		if c <= 2 {
			return mediagen.Job{}, errors.New("connection reset")
		}
		return mediagen.Job{Status: mediagen.StatusCompleted, Progress: 100}, nil
	}

	job, err := engine.Wait(context.Background(), status, nil)
	require.NoError(t, err)
	assert.Equal(t, mediagen.StatusCompleted, job.Status)
	assert.Equal(t, int64(3), calls.Load())
}

func TestEngine_Wait_PersistentTransportError(t *testing.T) {
	var calls atomic.Int64
	engine := NewEngine(
		WithMaxAttempts(10),
		WithInterval(time.Millisecond),
		WithTransportRetries(2),
	)

	status := func(ctx context.Context) (mediagen.Job, error) {
		calls.Add(1)
		return mediagen.Job{}, errors.New("connection refused")
	}

	job, err := engine.Wait(context.Background(), status, nil)
	require.ErrorIs(t, err, ErrAdapterUnavailable)
	assert.Equal(t, mediagen.StatusFailed, job.Status)
	// Initial call plus the two inline retries, then no further attempts.
	assert.Equal(t, int64(3), calls.Load())
}

func TestEngine_Wait_ProgressCallbackThrottled(t *testing.T) {
	progress := []int{2, 4, 10, 12, 50, 100}
	var calls atomic.Int64

	status := func(ctx context.Context) (mediagen.Job, error) {
		i := calls.Add(1) - 1
		job := mediagen.Job{Status: mediagen.StatusRunning, Progress: progress[i]}
		if job.Progress == 100 {
			job.Status = mediagen.StatusCompleted
		}
		return job, nil
	}

	var reported []int
	engine := NewEngine(
		WithMaxAttempts(10),
		WithInterval(time.Millisecond),
		WithProgressStep(5),
	)

	job, err := engine.Wait(context.Background(), status, func(p int, _ string) {
		reported = append(reported, p)
	})
	require.NoError(t, err)
	assert.Equal(t, mediagen.StatusCompleted, job.Status)
	// 2 and 4 are below the step; 10 fires; 12 is within 5 of 10; 50 and
	// 100 fire.
	assert.Equal(t, []int{10, 50, 100}, reported)
}

func TestEngine_Wait_ProgressMonotonic(t *testing.T) {
	progress := []int{40, 20, 100}
	var calls atomic.Int64

	status := func(ctx context.Context) (mediagen.Job, error) {
		i := calls.Add(1) - 1
		job := mediagen.Job{Status: mediagen.StatusRunning, Progress: progress[i]}
		if i == int64(len(progress)-1) {
			job.Status = mediagen.StatusCompleted
		}
		return job, nil
	}

	var reported []int
	engine := NewEngine(
		WithMaxAttempts(10),
		WithInterval(time.Millisecond),
		WithProgressStep(5),
	)

	_, err := engine.Wait(context.Background(), status, func(p int, _ string) {
		reported = append(reported, p)
	})
	require.NoError(t, err)
	// The regression to 20 is held at the 40 high-water mark, which is not
	// a change, so it is not reported.
	assert.Equal(t, []int{40, 100}, reported)
}

func TestEngine_Wait_CancelledDuringStatusCall(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	status := func(ctx context.Context) (mediagen.Job, error) {
		cancel()
		return mediagen.Job{}, ctx.Err()
	}

	engine := fastEngine(10)
	job, err := engine.Wait(ctx, status, nil)
	require.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, mediagen.StatusCancelled, job.Status)
}
