package mediagen

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/promovia/videogen-api/internal/minimax"
)

// MiniMaxAdapter adapts the MiniMax client to the Adapter interface.
// MiniMax takes the optional seed image inline in the generation call, so no
// upload step runs for this provider.
type MiniMaxAdapter struct {
	client minimax.Client
	logger *slog.Logger
}

// NewMiniMaxAdapter creates a new MiniMax adapter.
func NewMiniMaxAdapter(client minimax.Client, logger *slog.Logger) *MiniMaxAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &MiniMaxAdapter{client: client, logger: logger}
}

// Provider returns ProviderMiniMax.
func (a *MiniMaxAdapter) Provider() Provider {
	return ProviderMiniMax
}

// Capabilities returns MiniMax's reference-image contract: zero or one image,
// submitted inline.
func (a *MiniMaxAdapter) Capabilities() Capabilities {
	return Capabilities{
		MinReferenceImages: 0,
		MaxReferenceImages: 1,
		InlineReferences:   true,
	}
}

// Submit sends a generation task to MiniMax. The reference image, when
// present, is inlined as a data URI in the same call; prepared assets are not
// used by this adapter.
func (a *MiniMaxAdapter) Submit(ctx context.Context, req Request, _ []PreparedAsset) (string, error) {
	if len(req.ReferenceImages) > 1 {
		return "", fmt.Errorf("%w: minimax accepts at most one reference image, got %d",
			ErrUnsupportedCombination, len(req.ReferenceImages))
	}

	var firstFrame string
	if len(req.ReferenceImages) == 1 {
		firstFrame = inlineDataURI(req.ReferenceImages[0])
	}

	taskID, err := a.client.CreateTask(ctx, minimax.TaskRequest{
		Model:           req.Model,
		Prompt:          req.Prompt,
		FirstFrameImage: firstFrame,
		DurationSec:     req.DurationSec,
		Resolution:      req.Style["resolution"],
	})
	if err != nil {
		return "", fmt.Errorf("minimax adapter submit: %w", err)
	}
	return taskID, nil
}

// Status queries MiniMax for the task's current state.
func (a *MiniMaxAdapter) Status(ctx context.Context, handle string) (Job, error) {
	if handle == "" {
		return Job{}, ErrHandleRequired
	}

	result, err := a.client.QueryTask(ctx, handle)
	if err != nil {
		return Job{}, fmt.Errorf("minimax adapter status: %w", err)
	}

	job := Job{
		Handle:   handle,
		Provider: ProviderMiniMax,
		Message:  result.Error,
	}

	switch result.Status {
	case minimax.StatusPreparing, minimax.StatusQueueing:
		job.Status = StatusSubmitted
	case minimax.StatusProcessing:
		job.Status = StatusRunning
	case minimax.StatusSuccess:
		job.Status = StatusCompleted
		job.Progress = 100
	case minimax.StatusFail:
		job.Status = StatusFailed
	default:
		a.logger.Warn("minimax returned unknown task status",
			slog.String("handle", handle),
			slog.String("status", string(result.Status)),
		)
		job.Status = StatusRunning
	}

	return job, nil
}

// Retrieve resolves the generated file to its download URL. The URL MiniMax
// hands out expires after a few hours, so the artifact is marked ephemeral
// and the result resolver downloads and inlines it.
func (a *MiniMaxAdapter) Retrieve(ctx context.Context, handle string) (Artifact, error) {
	result, err := a.client.QueryTask(ctx, handle)
	if err != nil {
		return Artifact{}, fmt.Errorf("minimax adapter retrieve: %w", err)
	}
	if result.Status != minimax.StatusSuccess {
		return Artifact{}, fmt.Errorf("%w: minimax task is %s", ErrNotCompleted, result.Status)
	}

	downloadURL, err := a.client.RetrieveFile(ctx, result.FileID)
	if err != nil {
		return Artifact{}, fmt.Errorf("minimax adapter retrieve file: %w", err)
	}

	return Artifact{
		URL:         downloadURL,
		ContentType: "video/mp4",
		Ephemeral:   true,
	}, nil
}

// inlineDataURI encodes a reference image as a data URI, sniffing the media
// type when the caller did not declare one.
func inlineDataURI(img ReferenceImage) string {
	contentType := img.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(img.Data)
	}
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(img.Data))
}

// Compile-time check that MiniMaxAdapter implements Adapter.
var _ Adapter = (*MiniMaxAdapter)(nil)
