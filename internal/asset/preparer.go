// Package asset prepares reference images for providers that need hosted
// inputs: it uploads the raw bytes to durable public storage and hands back
// the resulting URL.
package asset

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/promovia/videogen-api/internal/mediagen"
	"github.com/promovia/videogen-api/internal/storage"
)

// Static errors for asset preparation.
var (
	// ErrUploadFailed is returned when the storage backend rejects the
	// upload. It is not retried here; the orchestrator decides whether the
	// failure aborts the request or just drops one optional image.
	ErrUploadFailed = errors.New("asset: upload failed")
	// ErrNotImage is returned when the payload is empty or does not sniff
	// as an image.
	ErrNotImage = errors.New("asset: payload is not an image")
)

// extensions maps sniffed image types to file extensions for storage keys.
var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Preparer uploads reference images and returns prepared assets.
type Preparer struct {
	store  storage.Storage
	logger *slog.Logger
}

// NewPreparer creates a new Preparer backed by the given storage.
func NewPreparer(store storage.Storage, logger *slog.Logger) *Preparer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Preparer{store: store, logger: logger}
}

// Prepare uploads one reference image and returns its public URL.
// The payload must sniff as an image; size limits are the caller's concern.
func (p *Preparer) Prepare(ctx context.Context, img mediagen.ReferenceImage) (mediagen.PreparedAsset, error) {
	if len(img.Data) == 0 {
		return mediagen.PreparedAsset{}, fmt.Errorf("%w: empty payload", ErrNotImage)
	}

	contentType := img.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(img.Data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return mediagen.PreparedAsset{}, fmt.Errorf("%w: detected %s", ErrNotImage, contentType)
	}

	key := referenceKey(contentType)

	url, err := p.store.Upload(ctx, key, contentType, bytes.NewReader(img.Data))
	if err != nil {
		return mediagen.PreparedAsset{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	p.logger.Debug("reference image uploaded",
		slog.String("key", key),
		slog.String("backend", p.store.Name()),
		slog.Int("bytes", len(img.Data)),
	)

	return mediagen.PreparedAsset{
		URL:     url,
		Backend: p.store.Name(),
	}, nil
}

// referenceKey builds a unique storage key for a reference image.
// Format: references/<timestamp>-<random><ext>
func referenceKey(contentType string) string {
	random := make([]byte, 4)
	suffix := ""
	if _, err := rand.Read(random); err == nil {
		suffix = "-" + hex.EncodeToString(random)
	}
	return fmt.Sprintf("references/%d%s%s", time.Now().Unix(), suffix, extensions[contentType])
}
