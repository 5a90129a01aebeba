package mediastore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/avolkov/photoflow/internal/blobstore"
	"github.com/avolkov/photoflow/internal/entities"
	"github.com/avolkov/photoflow/internal/repository"
)

// Bucket names. Originals hold uploaded bytes; derivatives hold worker
// output keyed by the same filename.
const (
	BucketOriginals   = "originals"
	BucketDerivatives = "derivatives"
)

var (
	// ErrNotFound covers both a missing metadata record and a missing blob.
	ErrNotFound = errors.New("media not found")

	// ErrWriteFailed indicates the byte payload could not be stored. No
	// partial object is visible after this error.
	ErrWriteFailed = errors.New("media write failed")

	// ErrReadFailed indicates an I/O failure on an object that exists.
	ErrReadFailed = errors.New("media read failed")
)

// Store is the object store the pipeline talks to: streamed byte payloads in
// buckets plus a metadata record per object.
type Store struct {
	blobs blobstore.Store
	repo  repository.MediaRepository
}

func New(blobs blobstore.Store, repo repository.MediaRepository) *Store {
	return &Store{blobs: blobs, repo: repo}
}

// Put streams r into the bucket under meta.Filename and records its
// metadata. The byte payload lands first; if the metadata insert fails the
// blob is removed so readers never see an object without a record.
func (s *Store) Put(ctx context.Context, bucket string, meta entities.Media, r io.Reader) (uuid.UUID, error) {
	n, err := s.blobs.Upload(ctx, bucket, meta.Filename, r)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	meta.Bucket = bucket
	meta.Size = n
	id, err := s.repo.Insert(ctx, &meta)
	if err != nil {
		_ = s.blobs.Delete(ctx, bucket, meta.Filename)
		return uuid.Nil, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return id, nil
}

// OpenStream opens the object named by filename in the given bucket,
// returning its read stream and metadata.
func (s *Store) OpenStream(ctx context.Context, bucket, filename string) (io.ReadCloser, *entities.Media, error) {
	m, err := s.repo.GetByFilename(ctx, bucket, filename)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrNotFound
	} else if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}

	rc, err := s.blobs.Download(ctx, bucket, filename)
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil, nil, ErrNotFound
	} else if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	return rc, m, nil
}

// Get returns the metadata record for an object id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*entities.Media, error) {
	m, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	return m, nil
}

// PatchMetadata merges the patch into an existing record without touching
// the byte payload.
func (s *Store) PatchMetadata(ctx context.Context, id uuid.UUID, patch entities.MetadataPatch) error {
	if patch.Empty() {
		return errors.New("empty metadata patch")
	}
	err := s.repo.Patch(ctx, id, patch)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// FindByBusiness lists a bucket's objects referencing a business.
func (s *Store) FindByBusiness(ctx context.Context, bucket, businessID string) ([]entities.Media, error) {
	return s.repo.ListByBusiness(ctx, bucket, businessID)
}
