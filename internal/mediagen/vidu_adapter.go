package mediagen

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/promovia/videogen-api/internal/vidu"
)

// maxViduReferences is the hard cap Vidu imposes on reference images.
const maxViduReferences = 3

// ViduAdapter adapts the Vidu client to the Adapter interface.
// Vidu accepts zero to three hosted reference images; the generation endpoint
// changes with the image count.
type ViduAdapter struct {
	client vidu.Client
	logger *slog.Logger
}

// NewViduAdapter creates a new Vidu adapter.
func NewViduAdapter(client vidu.Client, logger *slog.Logger) *ViduAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ViduAdapter{client: client, logger: logger}
}

// Provider returns ProviderVidu.
func (a *ViduAdapter) Provider() Provider {
	return ProviderVidu
}

// Capabilities returns Vidu's reference-image contract.
func (a *ViduAdapter) Capabilities() Capabilities {
	return Capabilities{
		MinReferenceImages: 0,
		MaxReferenceImages: maxViduReferences,
		InlineReferences:   false,
	}
}

// Submit sends a generation task to Vidu, choosing the endpoint by image
// count: no images is text-to-video, one image animates that frame, two or
// more use the multi-reference endpoint. Images beyond the third are dropped
// with a warning rather than rejected.
func (a *ViduAdapter) Submit(ctx context.Context, req Request, assets []PreparedAsset) (string, error) {
	if len(assets) > maxViduReferences {
		a.logger.Warn("dropping reference images beyond vidu cap",
			slog.Int("supplied", len(assets)),
			slog.Int("cap", maxViduReferences),
			slog.Int("dropped", len(assets)-maxViduReferences),
		)
		assets = assets[:maxViduReferences]
	}

	var mode vidu.Mode
	switch len(assets) {
	case 0:
		mode = vidu.ModeText2Video
	case 1:
		mode = vidu.ModeImg2Video
	default:
		mode = vidu.ModeReference2Video
	}

	urls := make([]string, 0, len(assets))
	for _, asset := range assets {
		urls = append(urls, asset.URL)
	}

	taskID, err := a.client.Generate(ctx, mode, vidu.GenerationRequest{
		Model:       req.Model,
		Prompt:      req.Prompt,
		Images:      urls,
		DurationSec: req.DurationSec,
		AspectRatio: req.AspectRatio,
	})
	if err != nil {
		return "", fmt.Errorf("vidu adapter submit: %w", err)
	}
	return taskID, nil
}

// Status queries Vidu for the task's current state.
func (a *ViduAdapter) Status(ctx context.Context, handle string) (Job, error) {
	if handle == "" {
		return Job{}, ErrHandleRequired
	}

	result, err := a.client.GetCreations(ctx, handle)
	if err != nil {
		return Job{}, fmt.Errorf("vidu adapter status: %w", err)
	}

	job := Job{
		Handle:   handle,
		Provider: ProviderVidu,
		Message:  result.Error,
	}

	switch result.State {
	case vidu.StateCreated, vidu.StateQueueing:
		job.Status = StatusSubmitted
	case vidu.StateProcessing:
		job.Status = StatusRunning
	case vidu.StateSuccess:
		job.Status = StatusCompleted
		job.Progress = 100
	case vidu.StateFailed:
		job.Status = StatusFailed
	default:
		a.logger.Warn("vidu returned unknown task state",
			slog.String("handle", handle),
			slog.String("state", string(result.State)),
		)
		job.Status = StatusRunning
	}

	return job, nil
}

// Retrieve returns the hosted creation URL of a successful task.
func (a *ViduAdapter) Retrieve(ctx context.Context, handle string) (Artifact, error) {
	result, err := a.client.GetCreations(ctx, handle)
	if err != nil {
		return Artifact{}, fmt.Errorf("vidu adapter retrieve: %w", err)
	}
	if result.State != vidu.StateSuccess {
		return Artifact{}, fmt.Errorf("%w: vidu task is %s", ErrNotCompleted, result.State)
	}

	return Artifact{
		URL:         result.CreationURL,
		ContentType: "video/mp4",
	}, nil
}

// Compile-time check that ViduAdapter implements Adapter.
var _ Adapter = (*ViduAdapter)(nil)
