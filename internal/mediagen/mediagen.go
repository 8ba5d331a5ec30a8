// Package mediagen provides the common vocabulary and adapter interface for
// video generation providers. Runway, Vidu and MiniMax adapters implement the
// Adapter interface and map each provider's own status values onto the shared
// Status set.
package mediagen

import (
	"context"
	"errors"
	"time"
)

// Status represents the status of a generation job.
type Status string

// Common job statuses across providers.
const (
	StatusSubmitted Status = "SUBMITTED"  // Job accepted by the provider, not yet running
	StatusRunning   Status = "RUNNING"    // Job is currently processing
	StatusCompleted Status = "COMPLETED"  // Job finished successfully
	StatusFailed    Status = "FAILED"     // Provider reported a generation failure
	StatusTimedOut  Status = "TIMED_OUT"  // Polling deadline elapsed before a terminal provider state
	StatusCancelled Status = "CANCELLED"  // Caller aborted the orchestration
)

// IsTerminal returns true if the status represents a final state.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusTimedOut, StatusCancelled:
		return true
	default:
		return false
	}
}

// Provider identifies a video generation provider.
type Provider string

// Supported providers.
const (
	ProviderRunway  Provider = "runway"
	ProviderVidu    Provider = "vidu"
	ProviderMiniMax Provider = "minimax"
)

// IsValid returns true if the provider is one of the supported values.
func (p Provider) IsValid() bool {
	switch p {
	case ProviderRunway, ProviderVidu, ProviderMiniMax:
		return true
	default:
		return false
	}
}

// Static errors shared by all adapters.
var (
	// ErrUnsupportedCombination is returned when a request violates the
	// provider's reference-image cardinality (for example, no image for a
	// provider that requires one). The request must be fixed by the caller;
	// it is never retried.
	ErrUnsupportedCombination = errors.New("mediagen: unsupported provider input combination")
	// ErrNotCompleted is returned by Retrieve when the job has not reached
	// the completed state on the provider side.
	ErrNotCompleted = errors.New("mediagen: job is not completed")
	// ErrHandleRequired is returned when an empty job handle is supplied.
	ErrHandleRequired = errors.New("mediagen: job handle is required")
)

// ReferenceImage is a caller-supplied image used to steer or seed generation.
// Data holds the raw decoded bytes; ContentType is the declared media type
// and may be empty, in which case it is sniffed from the payload.
type ReferenceImage struct {
	Data        []byte
	ContentType string
}

// Request is the normalized, immutable input for one generation.
type Request struct {
	// Prompt is the text description of the desired video.
	Prompt string `validate:"required"`
	// Provider selects the generation backend.
	Provider Provider `validate:"required"`
	// Model is the provider-specific model identifier. Empty selects the
	// adapter's default.
	Model string
	// ReferenceImages steer the generation. Cardinality limits are
	// provider-specific; see Capabilities.
	ReferenceImages []ReferenceImage
	// AspectRatio is the target aspect, e.g. "16:9".
	AspectRatio string
	// DurationSec is the target clip length in seconds. Zero selects the
	// provider default.
	DurationSec int `validate:"min=0,max=60"`
	// Style holds optional provider-specific style parameters.
	Style map[string]string
}

// PreparedAsset is a reference image after upload to durable public storage.
// It is produced by the asset preparer, consumed once by an adapter's Submit
// call, and then discarded.
type PreparedAsset struct {
	// SourceIndex is the position of the original image in the request.
	SourceIndex int
	// URL is the publicly retrievable location of the uploaded image.
	URL string
	// Backend names the storage backend that holds the asset.
	Backend string
}

// Job is a point-in-time snapshot of a generation job. It is owned by the
// orchestration call that created it; there is no registry shared between
// concurrent orchestrations.
type Job struct {
	// Handle is the opaque identifier issued by the provider at submission.
	Handle string
	// Provider is the backend processing the job.
	Provider Provider
	// Status is the last observed state.
	Status Status
	// Progress is the completion percentage (0-100), best effort.
	Progress int
	// Message is the last status detail reported by the provider.
	Message string
	// CreatedAt is when the job was submitted.
	CreatedAt time.Time
}

// Artifact describes the final output of a completed job. Exactly one of URL
// and DataURI is set once resolution finishes. Adapters that only expose a
// short-lived download location set Ephemeral; the result resolver then
// downloads the content and inlines it as a data URI.
type Artifact struct {
	// URL is the hosted location of the generated video.
	URL string
	// DataURI is the inline-encoded payload ("data:<type>;base64,...").
	DataURI string
	// ContentType is the media type of the artifact.
	ContentType string
	// Ephemeral marks URL as short-lived and not suitable to hand to the
	// caller directly.
	Ephemeral bool
}

// Capabilities describes a provider's reference-image contract. The
// orchestrator branches on these values rather than on provider names.
type Capabilities struct {
	// MinReferenceImages is the number of reference images the provider
	// requires. Submissions below this count are rejected.
	MinReferenceImages int
	// MaxReferenceImages is the cap on reference images. Extra images are
	// dropped with a warning before submission.
	MaxReferenceImages int
	// InlineReferences is true when the provider accepts raw image bytes in
	// the submission call itself, making the upload step unnecessary.
	InlineReferences bool
}

// Adapter translates between the normalized generation contract and one
// provider's API. Implementations keep all provider-specific knowledge
// (endpoints, generation modes, status vocabulary) behind this interface.
type Adapter interface {
	// Provider returns the identifier of the backend this adapter serves.
	Provider() Provider

	// Capabilities returns the provider's reference-image contract.
	Capabilities() Capabilities

	// Submit sends a generation request and returns the provider's job
	// handle. Assets carry uploaded reference URLs for providers that need
	// hosted inputs; inline providers read image bytes from the request
	// instead. Returns ErrUnsupportedCombination when the input cardinality
	// violates the provider's contract, before any network call.
	Submit(ctx context.Context, req Request, assets []PreparedAsset) (handle string, err error)

	// Status queries the provider for the job's current state. Status
	// values the adapter does not recognize map to StatusRunning so an
	// in-flight job is never dropped silently.
	Status(ctx context.Context, handle string) (Job, error)

	// Retrieve returns the artifact of a completed job. It must only be
	// called after Status has reported StatusCompleted.
	Retrieve(ctx context.Context, handle string) (Artifact, error)
}
