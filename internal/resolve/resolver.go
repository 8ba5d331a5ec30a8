// Package resolve turns a completed generation job into a final artifact the
// caller can use: either the provider's hosted URL passed through unchanged,
// or an inline-encoded payload when the provider only exposes a short-lived
// download location.
package resolve

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/promovia/videogen-api/internal/mediagen"
)

// ErrRetrievalFailed is returned when the artifact cannot be fetched or
// encoded. The generation itself already succeeded on the provider side, so
// callers can retry resolution alone instead of resubmitting the job.
var ErrRetrievalFailed = errors.New("resolve: artifact retrieval failed")

// defaultContentType is assumed when neither the response headers nor the
// adapter declare a media type.
const defaultContentType = "video/mp4"

// Resolver resolves completed jobs to artifacts.
type Resolver struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// Option is a function that configures a Resolver.
type Option func(*Resolver)

// WithHTTPClient sets the client used for the download fallback path.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) {
		if c != nil {
			r.httpClient = c
		}
	}
}

// WithLogger sets the resolver logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a new Resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve retrieves the artifact of a completed job from its adapter.
// Durable URLs pass through unchanged. Ephemeral URLs are downloaded and
// inline-encoded as a data URI, with the media type taken from the response
// headers and falling back to the adapter's declared type.
func (r *Resolver) Resolve(ctx context.Context, adapter mediagen.Adapter, handle string) (mediagen.Artifact, error) {
	artifact, err := adapter.Retrieve(ctx, handle)
	if err != nil {
		return mediagen.Artifact{}, fmt.Errorf("%w: %v", ErrRetrievalFailed, err)
	}

	if !artifact.Ephemeral {
		return artifact, nil
	}

	inlined, err := r.download(ctx, artifact)
	if err != nil {
		return mediagen.Artifact{}, fmt.Errorf("%w: %v", ErrRetrievalFailed, err)
	}
	return inlined, nil
}

// download fetches an ephemeral artifact and inlines it.
func (r *Resolver) download(ctx context.Context, artifact mediagen.Artifact) (mediagen.Artifact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, artifact.URL, nil)
	if err != nil {
		return mediagen.Artifact{}, fmt.Errorf("create download request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return mediagen.Artifact{}, fmt.Errorf("download request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return mediagen.Artifact{}, fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return mediagen.Artifact{}, fmt.Errorf("read download body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = artifact.ContentType
	}
	if contentType == "" {
		contentType = defaultContentType
	}

	r.logger.Debug("artifact downloaded and inlined",
		slog.Int("bytes", len(data)),
		slog.String("content_type", contentType),
	)

	return mediagen.Artifact{
		DataURI:     fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data)),
		ContentType: contentType,
	}, nil
}
