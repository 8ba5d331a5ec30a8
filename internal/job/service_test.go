package job

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promovia/videogen-api/internal/mediagen"
	"github.com/promovia/videogen-api/internal/orchestrator"
	"github.com/promovia/videogen-api/internal/poll"
)

// stubOrchestrator returns a canned result, optionally reporting progress
// first or blocking until the context is cancelled.
type stubOrchestrator struct {
	result       orchestrator.Result
	progress     []int
	blockOnCtx   bool
	cancelResult orchestrator.Result
}

func (o *stubOrchestrator) Generate(ctx context.Context, _ mediagen.Request, onProgress poll.ProgressFunc) orchestrator.Result {
	for _, p := range o.progress {
		if onProgress != nil {
			onProgress(p, "rendering")
		}
	}
	if o.blockOnCtx {
		<-ctx.Done()
		return o.cancelResult
	}
	return o.result
}

func TestGenerationService_CreateJob(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewGenerationService(repo, &stubOrchestrator{}, nil)

	j, err := svc.CreateJob(context.Background(), mediagen.Request{
		Prompt:   "p",
		Provider: mediagen.ProviderRunway,
	})
	require.NoError(t, err)

	stored, err := repo.FindByID(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, mediagen.StatusSubmitted, stored.Status)
}

func TestGenerationService_Run_Success(t *testing.T) {
	repo := NewMemoryRepository()
	artifact := mediagen.Artifact{URL: "https://cdn.example.com/out.mp4", ContentType: "video/mp4"}
	orch := &stubOrchestrator{
		progress: []int{25, 80},
		result: orchestrator.Result{
			Job:      mediagen.Job{Handle: "task-1", Status: mediagen.StatusCompleted},
			Artifact: &artifact,
		},
	}
	svc := NewGenerationService(repo, orch, nil)

	req := mediagen.Request{Prompt: "p", Provider: mediagen.ProviderVidu}
	j, err := svc.CreateJob(context.Background(), req)
	require.NoError(t, err)

	svc.Run(context.Background(), j, req)

	stored, err := repo.FindByID(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, mediagen.StatusCompleted, stored.Status)
	assert.Equal(t, "task-1", stored.Handle)
	assert.Equal(t, "https://cdn.example.com/out.mp4", stored.ArtifactURL)
	assert.Equal(t, 100, stored.Progress)
}

func TestGenerationService_Run_ProviderFailure(t *testing.T) {
	repo := NewMemoryRepository()
	orch := &stubOrchestrator{
		result: orchestrator.Result{
			Job: mediagen.Job{Handle: "task-1", Status: mediagen.StatusFailed},
			Failure: &orchestrator.Failure{
				Kind:    orchestrator.FailureProvider,
				Message: "moderation rejected the prompt",
			},
		},
	}
	svc := NewGenerationService(repo, orch, nil)

	req := mediagen.Request{Prompt: "p", Provider: mediagen.ProviderVidu}
	j, err := svc.CreateJob(context.Background(), req)
	require.NoError(t, err)

	svc.Run(context.Background(), j, req)

	stored, err := repo.FindByID(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, mediagen.StatusFailed, stored.Status)
	assert.Equal(t, string(orchestrator.FailureProvider), stored.FailureKind)
	assert.Equal(t, "moderation rejected the prompt", stored.Message)
}

func TestGenerationService_Run_Timeout(t *testing.T) {
	repo := NewMemoryRepository()
	orch := &stubOrchestrator{
		result: orchestrator.Result{
			Job: mediagen.Job{Handle: "task-1", Status: mediagen.StatusTimedOut},
			Failure: &orchestrator.Failure{
				Kind:    orchestrator.FailureTimedOut,
				Message: `re-poll with handle "task-1"`,
			},
		},
	}
	svc := NewGenerationService(repo, orch, nil)

	req := mediagen.Request{Prompt: "p", Provider: mediagen.ProviderVidu}
	j, err := svc.CreateJob(context.Background(), req)
	require.NoError(t, err)

	svc.Run(context.Background(), j, req)

	stored, err := repo.FindByID(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, mediagen.StatusTimedOut, stored.Status)
	assert.Equal(t, "task-1", stored.Handle, "the handle survives for manual re-polling")
}

func TestGenerationService_CancelJob(t *testing.T) {
	repo := NewMemoryRepository()
	orch := &stubOrchestrator{
		blockOnCtx: true,
		cancelResult: orchestrator.Result{
			Job: mediagen.Job{Handle: "task-1", Status: mediagen.StatusCancelled},
			Failure: &orchestrator.Failure{
				Kind:    orchestrator.FailureCancelled,
				Message: "context canceled",
			},
		},
	}
	svc := NewGenerationService(repo, orch, nil)

	req := mediagen.Request{Prompt: "p", Provider: mediagen.ProviderVidu}
	j, err := svc.CreateJob(context.Background(), req)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		svc.Run(context.Background(), j, req)
		close(done)
	}()

	// Wait for the orchestration to register its cancel func.
	require.Eventually(t, func() bool {
		return svc.CancelJob(j.ID) == nil
	}, time.Second, 5*time.Millisecond)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	stored, err := repo.FindByID(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, mediagen.StatusCancelled, stored.Status)
}

func TestGenerationService_CancelJob_NotRunning(t *testing.T) {
	svc := NewGenerationService(NewMemoryRepository(), &stubOrchestrator{}, nil)

	err := svc.CancelJob("gen-unknown")
	require.ErrorIs(t, err, ErrNotRunning)
}

func TestGenerationService_DeleteJob(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewGenerationService(repo, &stubOrchestrator{}, nil)

	j, err := svc.CreateJob(context.Background(), mediagen.Request{
		Prompt:   "p",
		Provider: mediagen.ProviderVidu,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteJob(context.Background(), j.ID))

	_, err = svc.GetJob(context.Background(), j.ID)
	require.ErrorIs(t, err, ErrJobNotFound)
}
