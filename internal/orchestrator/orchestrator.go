// Package orchestrator coordinates one generation end to end: request
// validation, capability branching, reference-asset preparation, submission,
// polling and artifact resolution. Each Generate call is one independent unit
// of work; nothing is shared between concurrent calls and no job state
// survives the call.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/promovia/videogen-api/internal/asset"
	"github.com/promovia/videogen-api/internal/mediagen"
	"github.com/promovia/videogen-api/internal/poll"
	"github.com/promovia/videogen-api/internal/resolve"
)

// ErrProviderNotConfigured is returned at registration time; at Generate
// time an unknown provider is reported as an unsupported combination.
var ErrProviderNotConfigured = errors.New("orchestrator: provider not configured")

// FailureKind categorizes a generation failure. The kind tells the caller
// what a sensible reaction is: fix the request, retry retrieval, re-poll, or
// give up.
type FailureKind string

// Failure kinds.
const (
	// FailureUnsupportedCombination: the request violates the provider's
	// input contract. Fix the request; never retried.
	FailureUnsupportedCombination FailureKind = "UNSUPPORTED_COMBINATION"
	// FailureUploadFailed: a required reference image could not be uploaded.
	FailureUploadFailed FailureKind = "UPLOAD_FAILED"
	// FailureAdapterUnavailable: persistent transport failure talking to
	// the provider, after bounded retries.
	FailureAdapterUnavailable FailureKind = "ADAPTER_UNAVAILABLE"
	// FailureProvider: the provider itself reported a generation failure.
	// Its error detail is passed through verbatim.
	FailureProvider FailureKind = "PROVIDER_FAILED"
	// FailureTimedOut: the polling deadline elapsed while the job was still
	// in flight. The job may yet complete server-side.
	FailureTimedOut FailureKind = "TIMED_OUT"
	// FailureRetrieval: the job succeeded but the artifact could not be
	// fetched or encoded. Retrieval alone can be retried.
	FailureRetrieval FailureKind = "RETRIEVAL_FAILED"
	// FailureCancelled: the caller aborted the orchestration.
	FailureCancelled FailureKind = "CANCELLED"
)

// Failure describes why a generation did not produce an artifact.
type Failure struct {
	Kind    FailureKind
	Message string
}

// Result is the terminal outcome of one Generate call: an artifact on
// success, a failure descriptor otherwise. Never both.
type Result struct {
	// Job is the last known snapshot, including the provider handle.
	// Callers can use the handle to re-poll after a timeout.
	Job mediagen.Job
	// Artifact is set on success.
	Artifact *mediagen.Artifact
	// Failure is set when no artifact was produced.
	Failure *Failure
}

// Succeeded returns true if the generation produced an artifact.
func (r Result) Succeeded() bool {
	return r.Artifact != nil
}

// Preparer uploads one reference image. Implemented by asset.Preparer.
type Preparer interface {
	Prepare(ctx context.Context, img mediagen.ReferenceImage) (mediagen.PreparedAsset, error)
}

// Engine drives polling to a terminal state. Implemented by poll.Engine.
type Engine interface {
	Wait(ctx context.Context, status poll.StatusFunc, onProgress poll.ProgressFunc) (mediagen.Job, error)
}

// Resolver resolves completed jobs to artifacts. Implemented by
// resolve.Resolver.
type Resolver interface {
	Resolve(ctx context.Context, adapter mediagen.Adapter, handle string) (mediagen.Artifact, error)
}

// Service orchestrates generations across the registered provider adapters.
type Service struct {
	adapters map[mediagen.Provider]mediagen.Adapter
	preparer Preparer
	engine   Engine
	resolver Resolver
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService creates an orchestrator with the given collaborators.
func NewService(preparer Preparer, engine Engine, resolver Resolver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		adapters: make(map[mediagen.Provider]mediagen.Adapter),
		preparer: preparer,
		engine:   engine,
		resolver: resolver,
		validate: validator.New(),
		logger:   logger,
	}
}

// RegisterAdapter makes a provider available for generation.
func (s *Service) RegisterAdapter(a mediagen.Adapter) {
	s.adapters[a.Provider()] = a
}

// Providers returns the registered provider identifiers.
func (s *Service) Providers() []mediagen.Provider {
	providers := make([]mediagen.Provider, 0, len(s.adapters))
	for p := range s.adapters {
		providers = append(providers, p)
	}
	return providers
}

// Generate runs one generation to completion and returns a typed result.
// All failure modes come back inside the Result; nothing panics or escapes
// as an unstructured error. onProgress may be nil.
func (s *Service) Generate(ctx context.Context, req mediagen.Request, onProgress poll.ProgressFunc) Result {
	adapter, failure := s.checkRequest(req)
	if failure != nil {
		return Result{Failure: failure}
	}
	caps := adapter.Capabilities()

	// Enforce the provider's cap before any upload happens: extra images
	// would cost an upload each and be ignored anyway.
	if limit := caps.MaxReferenceImages; len(req.ReferenceImages) > limit {
		s.logger.Warn("truncating reference images to provider cap",
			slog.String("provider", string(req.Provider)),
			slog.Int("supplied", len(req.ReferenceImages)),
			slog.Int("cap", limit),
			slog.Int("dropped", len(req.ReferenceImages)-limit),
		)
		req.ReferenceImages = req.ReferenceImages[:limit]
	}

	assets, failure := s.prepareAssets(ctx, req, caps)
	if failure != nil {
		return Result{Failure: failure}
	}

	handle, err := adapter.Submit(ctx, req, assets)
	if err != nil {
		return Result{Failure: submitFailure(ctx, err)}
	}

	job := mediagen.Job{
		Handle:    handle,
		Provider:  req.Provider,
		Status:    mediagen.StatusSubmitted,
		CreatedAt: time.Now(),
	}
	s.logger.Info("generation submitted",
		slog.String("provider", string(req.Provider)),
		slog.String("handle", handle),
		slog.Int("reference_images", len(req.ReferenceImages)),
	)

	statusFn := func(ctx context.Context) (mediagen.Job, error) {
		return adapter.Status(ctx, handle)
	}

	polled, err := s.engine.Wait(ctx, statusFn, onProgress)
	polled.Handle = handle
	polled.Provider = req.Provider
	polled.CreatedAt = job.CreatedAt
	job = polled

	if err != nil {
		return Result{Job: job, Failure: pollFailure(err, job)}
	}
	if job.Status == mediagen.StatusFailed {
		return Result{Job: job, Failure: &Failure{
			Kind:    FailureProvider,
			Message: job.Message,
		}}
	}

	artifact, err := s.resolver.Resolve(ctx, adapter, handle)
	if err != nil {
		if ctx.Err() != nil {
			job.Status = mediagen.StatusCancelled
			return Result{Job: job, Failure: &Failure{Kind: FailureCancelled, Message: ctx.Err().Error()}}
		}
		return Result{Job: job, Failure: &Failure{
			Kind:    FailureRetrieval,
			Message: err.Error(),
		}}
	}

	s.logger.Info("generation completed",
		slog.String("provider", string(req.Provider)),
		slog.String("handle", handle),
		slog.Bool("inline_artifact", artifact.DataURI != ""),
	)

	return Result{Job: job, Artifact: &artifact}
}

// checkRequest validates the request shape and the provider's input
// cardinality. It runs before any network call.
func (s *Service) checkRequest(req mediagen.Request) (mediagen.Adapter, *Failure) {
	if err := s.validate.Struct(req); err != nil {
		return nil, &Failure{
			Kind:    FailureUnsupportedCombination,
			Message: err.Error(),
		}
	}
	if !req.Provider.IsValid() {
		return nil, &Failure{
			Kind:    FailureUnsupportedCombination,
			Message: fmt.Sprintf("unknown provider %q", req.Provider),
		}
	}

	adapter, ok := s.adapters[req.Provider]
	if !ok {
		return nil, &Failure{
			Kind:    FailureUnsupportedCombination,
			Message: fmt.Sprintf("provider %q is not configured", req.Provider),
		}
	}

	if minimum := adapter.Capabilities().MinReferenceImages; len(req.ReferenceImages) < minimum {
		return nil, &Failure{
			Kind: FailureUnsupportedCombination,
			Message: fmt.Sprintf("provider %q requires at least %d reference image(s), got %d",
				req.Provider, minimum, len(req.ReferenceImages)),
		}
	}

	return adapter, nil
}

// prepareAssets uploads reference images for providers that need hosted
// inputs. For providers where images are an optional enhancement a single
// failed upload is logged and skipped; for providers that require the image
// the failure aborts the request.
func (s *Service) prepareAssets(ctx context.Context, req mediagen.Request, caps mediagen.Capabilities) ([]mediagen.PreparedAsset, *Failure) {
	if caps.InlineReferences || len(req.ReferenceImages) == 0 {
		return nil, nil
	}

	required := caps.MinReferenceImages > 0
	assets := make([]mediagen.PreparedAsset, 0, len(req.ReferenceImages))

	for i, img := range req.ReferenceImages {
		prepared, err := s.preparer.Prepare(ctx, img)
		if err != nil {
			if required {
				return nil, &Failure{
					Kind:    FailureUploadFailed,
					Message: fmt.Sprintf("reference image %d: %v", i, err),
				}
			}
			s.logger.Warn("skipping reference image after upload failure",
				slog.String("provider", string(req.Provider)),
				slog.Int("index", i),
				slog.String("error", err.Error()),
			)
			continue
		}
		prepared.SourceIndex = i
		assets = append(assets, prepared)
	}

	return assets, nil
}

// submitFailure maps a submission error to a failure descriptor.
func submitFailure(ctx context.Context, err error) *Failure {
	switch {
	case errors.Is(err, mediagen.ErrUnsupportedCombination):
		return &Failure{Kind: FailureUnsupportedCombination, Message: err.Error()}
	case ctx.Err() != nil:
		return &Failure{Kind: FailureCancelled, Message: err.Error()}
	default:
		return &Failure{Kind: FailureAdapterUnavailable, Message: err.Error()}
	}
}

// pollFailure maps an engine sentinel to a failure descriptor.
func pollFailure(err error, job mediagen.Job) *Failure {
	switch {
	case errors.Is(err, poll.ErrCancelled):
		return &Failure{Kind: FailureCancelled, Message: err.Error()}
	case errors.Is(err, poll.ErrTimedOut):
		return &Failure{Kind: FailureTimedOut, Message: fmt.Sprintf(
			"generation still in flight after polling deadline; re-poll with handle %q", job.Handle)}
	case errors.Is(err, poll.ErrAdapterUnavailable):
		return &Failure{Kind: FailureAdapterUnavailable, Message: err.Error()}
	default:
		return &Failure{Kind: FailureProvider, Message: err.Error()}
	}
}

// Compile-time checks that the concrete collaborators satisfy the local
// interfaces.
var (
	_ Preparer = (*asset.Preparer)(nil)
	_ Engine   = (*poll.Engine)(nil)
	_ Resolver = (*resolve.Resolver)(nil)
)
