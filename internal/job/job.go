// Package job provides the generation record tracked by the HTTP API while
// an orchestration runs in the background. The record mirrors the shared
// status vocabulary and guards its state transitions; orchestration itself
// never reads it.
//
// Records live in memory only. A process restart loses in-flight records and
// their provider handles; callers must resubmit. This is a documented
// limitation, not silent data loss.
package job

import (
	"errors"
	"sync"
	"time"

	"github.com/promovia/videogen-api/internal/job/id"
	"github.com/promovia/videogen-api/internal/mediagen"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
// A job submitted to a fast provider can go terminal without ever being
// observed in the running state.
var validTransitions = map[mediagen.Status][]mediagen.Status{
	mediagen.StatusSubmitted: {
		mediagen.StatusRunning,
		mediagen.StatusCompleted,
		mediagen.StatusFailed,
		mediagen.StatusTimedOut,
		mediagen.StatusCancelled,
	},
	mediagen.StatusRunning: {
		mediagen.StatusCompleted,
		mediagen.StatusFailed,
		mediagen.StatusTimedOut,
		mediagen.StatusCancelled,
	},
	mediagen.StatusCompleted: {},
	mediagen.StatusFailed:    {},
	mediagen.StatusTimedOut:  {},
	mediagen.StatusCancelled: {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to mediagen.Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Job is the API-visible record of one generation.
type Job struct {
	mu sync.RWMutex

	// ID is the unique identifier for this record.
	ID string
	// Provider is the generation backend.
	Provider mediagen.Provider
	// Prompt is the text prompt of the request.
	Prompt string
	// Handle is the provider's job handle, set once submission succeeds.
	Handle string
	// Status is the current state.
	Status mediagen.Status
	// Progress is the percentage of completion (0-100).
	Progress int
	// Message is the last status or failure detail.
	Message string
	// FailureKind categorizes a failure, empty on success.
	FailureKind string
	// ArtifactURL is the hosted output location, if any.
	ArtifactURL string
	// ArtifactDataURI is the inline-encoded output, if any.
	ArtifactDataURI string
	// ArtifactContentType is the media type of the output.
	ArtifactContentType string
	// CreatedAt is when the record was created.
	CreatedAt time.Time
	// UpdatedAt is when the record was last updated.
	UpdatedAt time.Time
	// CompletedAt is when the record reached a terminal state.
	CompletedAt time.Time
}

// New creates a new Job with a generated ID and initial SUBMITTED status.
func New(provider mediagen.Provider, prompt string) *Job {
	now := time.Now()
	return &Job{
		ID:        id.Generate(),
		Provider:  provider,
		Prompt:    prompt,
		Status:    mediagen.StatusSubmitted,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TransitionTo attempts to change the job status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(status mediagen.Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}

	j.Status = status
	j.UpdatedAt = time.Now()

	if status.IsTerminal() {
		j.CompletedAt = j.UpdatedAt
	}

	return nil
}

// Start transitions the job from SUBMITTED to RUNNING.
func (j *Job) Start() error {
	return j.TransitionTo(mediagen.StatusRunning)
}

// Complete transitions the job to COMPLETED and records the artifact.
func (j *Job) Complete(artifact mediagen.Artifact) error {
	j.mu.Lock()
	j.ArtifactURL = artifact.URL
	j.ArtifactDataURI = artifact.DataURI
	j.ArtifactContentType = artifact.ContentType
	j.Progress = 100
	j.mu.Unlock()
	return j.TransitionTo(mediagen.StatusCompleted)
}

// Fail transitions the job to FAILED with a failure kind and message.
func (j *Job) Fail(kind, message string) error {
	j.mu.Lock()
	j.FailureKind = kind
	j.Message = message
	j.mu.Unlock()
	return j.TransitionTo(mediagen.StatusFailed)
}

// Cancel transitions the job to CANCELLED.
func (j *Job) Cancel() error {
	return j.TransitionTo(mediagen.StatusCancelled)
}

// Timeout transitions the job to TIMED_OUT with a message.
func (j *Job) Timeout(message string) error {
	j.mu.Lock()
	j.Message = message
	j.mu.Unlock()
	return j.TransitionTo(mediagen.StatusTimedOut)
}

// SetHandle records the provider's job handle.
func (j *Job) SetHandle(handle string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Handle = handle
	j.UpdatedAt = time.Now()
}

// UpdateProgress sets the progress percentage (0-100) and status message.
func (j *Job) UpdateProgress(progress int, message string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	j.Progress = progress
	if message != "" {
		j.Message = message
	}
	j.UpdatedAt = time.Now()
}

// GetStatus returns the current job status (thread-safe).
func (j *Job) GetStatus() mediagen.Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// IsTerminal returns true if the job is in a terminal state.
func (j *Job) IsTerminal() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status.IsTerminal()
}

// Clone creates a deep copy of the job for safe reads.
func (j *Job) Clone() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return &Job{
		ID:                  j.ID,
		Provider:            j.Provider,
		Prompt:              j.Prompt,
		Handle:              j.Handle,
		Status:              j.Status,
		Progress:            j.Progress,
		Message:             j.Message,
		FailureKind:         j.FailureKind,
		ArtifactURL:         j.ArtifactURL,
		ArtifactDataURI:     j.ArtifactDataURI,
		ArtifactContentType: j.ArtifactContentType,
		CreatedAt:           j.CreatedAt,
		UpdatedAt:           j.UpdatedAt,
		CompletedAt:         j.CompletedAt,
	}
}
