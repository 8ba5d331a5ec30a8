package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage implements the Storage interface on local disk. Files are
// written under a base directory that is expected to be served statically at
// baseURL. Intended for development; providers cannot fetch from a URL that
// is not reachable from the public internet.
type LocalStorage struct {
	dir     string
	baseURL string
}

// NewLocalStorage creates a new LocalStorage instance.
// The dir is created if it doesn't exist. baseURL is the public prefix under
// which dir is served, e.g. "http://localhost:8080/assets".
func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "videogen-assets")
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create asset directory: %w", err)
	}

	return &LocalStorage{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Dir returns the asset directory path.
func (s *LocalStorage) Dir() string {
	return s.dir
}

// Upload writes data to disk and returns the URL it is served from.
func (s *LocalStorage) Upload(ctx context.Context, key, _ string, data io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return "", fmt.Errorf("create asset subdirectory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 - key is generated internally
	if err != nil {
		return "", fmt.Errorf("create asset file: %w", err)
	}

	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write asset file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close asset file: %w", err)
	}

	return s.baseURL + "/" + key, nil
}

// Name identifies the backend.
func (s *LocalStorage) Name() string {
	return "local"
}

// Compile-time check that LocalStorage implements Storage.
var _ Storage = (*LocalStorage)(nil)
