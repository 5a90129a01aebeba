package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/avolkov/photoflow/internal/blobstore"
)

// Store keeps objects as plain files under baseDir/<bucket>/<key>.
type Store struct {
	baseDir string
}

// New creates the base directory if needed and returns a filesystem store.
func New(baseDir string) (*Store, error) {
	if baseDir == "" {
		return nil, errors.New("base directory is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create base directory: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// Upload writes to a temp file in the bucket directory and renames it into
// place, so readers never observe a half-written object.
func (s *Store) Upload(ctx context.Context, bucket, key string, r io.Reader) (int64, error) {
	dir := filepath.Join(s.baseDir, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create bucket directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(dir, key)); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("rename into place: %w", err)
	}
	return n, nil
}

func (s *Store) Download(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.baseDir, bucket, key))
	if os.IsNotExist(err) {
		return nil, blobstore.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("open object: %w", err)
	}
	return f, nil
}

func (s *Store) Delete(ctx context.Context, bucket, key string) error {
	err := os.Remove(filepath.Join(s.baseDir, bucket, key))
	if os.IsNotExist(err) {
		return blobstore.ErrNotFound
	} else if err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}
