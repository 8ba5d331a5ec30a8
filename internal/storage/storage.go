// Package storage provides durable, publicly retrievable storage for
// reference assets. It defines the Storage interface (port) and
// implementations for S3 and local disk.
package storage

import (
	"context"
	"io"
)

// Storage uploads content and returns a publicly retrievable URL.
// Generation providers that need hosted inputs fetch the uploaded asset from
// that URL, so implementations must make objects readable without
// authentication.
type Storage interface {
	// Upload stores data under key with the given content type and returns
	// the public URL of the stored object.
	Upload(ctx context.Context, key, contentType string, data io.Reader) (url string, err error)

	// Name identifies the backend, e.g. "s3" or "local".
	Name() string
}
