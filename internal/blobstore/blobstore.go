package blobstore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when the requested object does not exist in the
// backend. Callers must be able to tell it apart from transport or disk
// failures.
var ErrNotFound = errors.New("blob not found")

// Store holds raw byte payloads partitioned into named buckets. Metadata
// lives in the repository layer; a Store only sees bytes.
//
// Upload must not make a partially written object visible to readers: a
// failed upload leaves nothing behind.
type Store interface {
	// Upload streams r into the bucket under key and returns the number of
	// bytes written.
	Upload(ctx context.Context, bucket, key string, r io.Reader) (int64, error)

	// Download opens a stream positioned at the start of the object.
	// Returns ErrNotFound when the object is absent.
	Download(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// Delete removes the object. Deleting a missing object returns
	// ErrNotFound.
	Delete(ctx context.Context, bucket, key string) error
}
