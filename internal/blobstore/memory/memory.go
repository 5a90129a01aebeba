package memory

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/avolkov/photoflow/internal/blobstore"
)

// Store is an in-memory blob store used in tests and local development.
type Store struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func New() *Store {
	return &Store{objects: make(map[string][]byte)}
}

func objectKey(bucket, key string) string { return bucket + "/" + key }

func (s *Store) Upload(ctx context.Context, bucket, key string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.objects[objectKey(bucket, key)] = data
	s.mu.Unlock()
	return int64(len(data)), nil
}

func (s *Store) Download(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	data, ok := s.objects[objectKey(bucket, key)]
	s.mu.RUnlock()
	if !ok {
		return nil, blobstore.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *Store) Delete(ctx context.Context, bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[objectKey(bucket, key)]; !ok {
		return blobstore.ErrNotFound
	}
	delete(s.objects, objectKey(bucket, key))
	return nil
}
