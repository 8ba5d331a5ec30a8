package mediagen

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/promovia/videogen-api/internal/runway"
)

// RunwayAdapter adapts the Runway client to the Adapter interface.
// Runway is image-to-video only: every submission needs exactly one hosted
// reference image.
type RunwayAdapter struct {
	client runway.Client
	logger *slog.Logger
}

// NewRunwayAdapter creates a new Runway adapter.
func NewRunwayAdapter(client runway.Client, logger *slog.Logger) *RunwayAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunwayAdapter{client: client, logger: logger}
}

// Provider returns ProviderRunway.
func (a *RunwayAdapter) Provider() Provider {
	return ProviderRunway
}

// Capabilities returns Runway's reference-image contract: exactly one hosted
// image, always.
func (a *RunwayAdapter) Capabilities() Capabilities {
	return Capabilities{
		MinReferenceImages: 1,
		MaxReferenceImages: 1,
		InlineReferences:   false,
	}
}

// Submit sends an image-to-video task to Runway.
// Text-only requests are rejected before any network call.
func (a *RunwayAdapter) Submit(ctx context.Context, req Request, assets []PreparedAsset) (string, error) {
	if len(assets) == 0 {
		return "", fmt.Errorf("%w: runway requires exactly one reference image", ErrUnsupportedCombination)
	}

	taskID, err := a.client.CreateTask(ctx, runway.TaskRequest{
		Model:       req.Model,
		PromptText:  req.Prompt,
		PromptImage: assets[0].URL,
		Ratio:       runwayRatio(req.AspectRatio),
		DurationSec: runwayDuration(req.DurationSec),
	})
	if err != nil {
		return "", fmt.Errorf("runway adapter submit: %w", err)
	}
	return taskID, nil
}

// Status queries Runway for the task's current state.
func (a *RunwayAdapter) Status(ctx context.Context, handle string) (Job, error) {
	if handle == "" {
		return Job{}, ErrHandleRequired
	}

	result, err := a.client.GetTask(ctx, handle)
	if err != nil {
		return Job{}, fmt.Errorf("runway adapter status: %w", err)
	}

	job := Job{
		Handle:   handle,
		Provider: ProviderRunway,
		Message:  result.Error,
		Progress: int(result.Progress * 100),
	}

	switch result.Status {
	case runway.StatusPending, runway.StatusThrottled:
		job.Status = StatusSubmitted
	case runway.StatusRunning:
		job.Status = StatusRunning
	case runway.StatusSucceeded:
		job.Status = StatusCompleted
		job.Progress = 100
	case runway.StatusFailed:
		job.Status = StatusFailed
	default:
		// Unrecognized vocabulary fails open: keep polling instead of
		// dropping an in-flight job.
		a.logger.Warn("runway returned unknown task status",
			slog.String("handle", handle),
			slog.String("status", string(result.Status)),
		)
		job.Status = StatusRunning
	}

	return job, nil
}

// Retrieve returns the hosted output URL of a succeeded task.
func (a *RunwayAdapter) Retrieve(ctx context.Context, handle string) (Artifact, error) {
	result, err := a.client.GetTask(ctx, handle)
	if err != nil {
		return Artifact{}, fmt.Errorf("runway adapter retrieve: %w", err)
	}
	if result.Status != runway.StatusSucceeded {
		return Artifact{}, fmt.Errorf("%w: runway task is %s", ErrNotCompleted, result.Status)
	}

	return Artifact{
		URL:         result.OutputURL,
		ContentType: "video/mp4",
	}, nil
}

// runwayRatio maps a generic aspect to the pixel ratios Runway accepts.
func runwayRatio(aspect string) string {
	switch aspect {
	case "9:16":
		return "768:1280"
	default:
		return "1280:768"
	}
}

// runwayDuration clamps the requested duration to Runway's 5s/10s clips.
func runwayDuration(sec int) int {
	switch {
	case sec == 0:
		return 0
	case sec <= 5:
		return 5
	default:
		return 10
	}
}

// Compile-time check that RunwayAdapter implements Adapter.
var _ Adapter = (*RunwayAdapter)(nil)
