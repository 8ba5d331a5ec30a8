package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/promovia/videogen-api/internal/mediagen"
	"github.com/promovia/videogen-api/internal/orchestrator"
	"github.com/promovia/videogen-api/internal/poll"
)

// ErrNotRunning is returned when a cancel is requested for a job that has no
// active orchestration.
var ErrNotRunning = errors.New("job is not running")

// Orchestrator runs one generation to completion. Implemented by
// orchestrator.Service.
type Orchestrator interface {
	Generate(ctx context.Context, req mediagen.Request, onProgress poll.ProgressFunc) orchestrator.Result
}

// GenerationService runs orchestrations in the background and keeps their
// records up to date for the HTTP API.
type GenerationService struct {
	repo   Repository
	orch   Orchestrator
	logger *slog.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewGenerationService creates a new GenerationService.
func NewGenerationService(repo Repository, orch Orchestrator, logger *slog.Logger) *GenerationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerationService{
		repo:    repo,
		orch:    orch,
		logger:  logger,
		cancels: make(map[string]context.CancelFunc),
	}
}

// CreateJob creates and persists a new record for the request.
func (s *GenerationService) CreateJob(ctx context.Context, req mediagen.Request) (*Job, error) {
	j := New(req.Provider, req.Prompt)

	s.logger.Info("creating generation record",
		slog.String("job_id", j.ID),
		slog.String("provider", string(req.Provider)),
		slog.Int("reference_images", len(req.ReferenceImages)),
	)

	if err := s.repo.Save(ctx, j); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}
	return j, nil
}

// Run executes the orchestration for a previously created record and keeps
// the record current. It blocks until the generation reaches a terminal
// state, so callers normally run it in a goroutine with a detached context.
func (s *GenerationService) Run(ctx context.Context, j *Job, req mediagen.Request) {
	ctx, cancel := context.WithCancel(ctx)
	s.registerCancel(j.ID, cancel)
	defer s.unregisterCancel(j.ID)

	if err := j.Start(); err != nil {
		s.logger.Error("cannot start job",
			slog.String("job_id", j.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	s.save(ctx, j)

	onProgress := func(progress int, message string) {
		j.UpdateProgress(progress, message)
		s.save(ctx, j)
	}

	result := s.orch.Generate(ctx, req, onProgress)

	j.SetHandle(result.Job.Handle)

	switch {
	case result.Succeeded():
		if err := j.Complete(*result.Artifact); err != nil {
			s.logger.Error("cannot complete job",
				slog.String("job_id", j.ID),
				slog.String("error", err.Error()),
			)
		}
	case result.Failure.Kind == orchestrator.FailureCancelled:
		if err := j.Cancel(); err != nil {
			s.logger.Warn("cannot cancel job",
				slog.String("job_id", j.ID),
				slog.String("error", err.Error()),
			)
		}
	case result.Failure.Kind == orchestrator.FailureTimedOut:
		if err := j.Timeout(result.Failure.Message); err != nil {
			s.logger.Warn("cannot time out job",
				slog.String("job_id", j.ID),
				slog.String("error", err.Error()),
			)
		}
	default:
		if err := j.Fail(string(result.Failure.Kind), result.Failure.Message); err != nil {
			s.logger.Warn("cannot fail job",
				slog.String("job_id", j.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	// Persist the terminal state even when ctx was cancelled.
	s.save(context.WithoutCancel(ctx), j)

	s.logger.Info("generation finished",
		slog.String("job_id", j.ID),
		slog.String("status", string(j.GetStatus())),
	)
}

// GetJob retrieves a job record by ID.
func (s *GenerationService) GetJob(ctx context.Context, id string) (*Job, error) {
	return s.repo.FindByID(ctx, id)
}

// ListJobs returns all job records.
func (s *GenerationService) ListJobs(ctx context.Context) ([]*Job, error) {
	return s.repo.List(ctx)
}

// CancelJob aborts a running orchestration. Returns ErrNotRunning when the
// job has no active orchestration.
func (s *GenerationService) CancelJob(id string) error {
	s.mu.Lock()
	cancel, ok := s.cancels[id]
	s.mu.Unlock()
	if !ok {
		return ErrNotRunning
	}
	cancel()
	return nil
}

// DeleteJob removes a finished job record.
func (s *GenerationService) DeleteJob(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *GenerationService) registerCancel(id string, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels[id] = cancel
}

func (s *GenerationService) unregisterCancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cancels, id)
}

func (s *GenerationService) save(ctx context.Context, j *Job) {
	if err := s.repo.Save(ctx, j); err != nil {
		s.logger.Error("failed to save job",
			slog.String("job_id", j.ID),
			slog.String("error", err.Error()),
		)
	}
}
