package mediastore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blobmemory "github.com/avolkov/photoflow/internal/blobstore/memory"
	"github.com/avolkov/photoflow/internal/entities"
	repomemory "github.com/avolkov/photoflow/internal/repository/memory"
)

func newTestStore() *Store {
	return New(blobmemory.New(), repomemory.New())
}

func TestPutAndOpenStream(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	id, err := s.Put(ctx, BucketOriginals, entities.Media{
		Filename:   "a.jpg",
		UserID:     "u1",
		BusinessID: "b1",
		MimeType:   "image/jpeg",
	}, strings.NewReader("jpeg bytes"))
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	rc, m, err := s.OpenStream(ctx, BucketOriginals, "a.jpg")
	require.NoError(t, err)
	defer rc.Close()

	assert.Equal(t, id, m.ID)
	assert.Equal(t, "image/jpeg", m.MimeType)
	assert.Equal(t, int64(len("jpeg bytes")), m.Size)

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))
}

func TestOpenStreamMissingIsNotFound(t *testing.T) {
	s := newTestStore()

	_, _, err := s.OpenStream(context.Background(), BucketOriginals, "nope.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetMissingIsNotFound(t *testing.T) {
	s := newTestStore()

	_, err := s.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPatchMetadata(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	id, err := s.Put(ctx, BucketOriginals, entities.Media{Filename: "a.jpg", MimeType: "image/jpeg"},
		strings.NewReader("x"))
	require.NoError(t, err)

	thumb := uuid.New()
	require.NoError(t, s.PatchMetadata(ctx, id, entities.MetadataPatch{ThumbID: &thumb}))

	m, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, m.ThumbID)
	assert.Equal(t, thumb, *m.ThumbID)

	assert.Error(t, s.PatchMetadata(ctx, id, entities.MetadataPatch{}))
	assert.ErrorIs(t, s.PatchMetadata(ctx, uuid.New(), entities.MetadataPatch{ThumbID: &thumb}), ErrNotFound)
}

func TestFindByBusiness(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	_, err := s.Put(ctx, BucketOriginals, entities.Media{Filename: "a.jpg", BusinessID: "b1"}, strings.NewReader("x"))
	require.NoError(t, err)
	_, err = s.Put(ctx, BucketOriginals, entities.Media{Filename: "b.jpg", BusinessID: "b1"}, strings.NewReader("y"))
	require.NoError(t, err)

	list, err := s.FindByBusiness(ctx, BucketOriginals, "b1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

// brokenBlobs serves metadata lookups but fails byte reads, to prove read
// failures surface as ErrReadFailed, not ErrNotFound.
type brokenBlobs struct{}

func (brokenBlobs) Upload(ctx context.Context, bucket, key string, r io.Reader) (int64, error) {
	return io.Copy(io.Discard, r)
}

func (brokenBlobs) Download(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	return nil, errors.New("disk on fire")
}

func (brokenBlobs) Delete(ctx context.Context, bucket, key string) error { return nil }

func TestReadFailureIsDistinguishableFromNotFound(t *testing.T) {
	s := New(brokenBlobs{}, repomemory.New())
	ctx := context.Background()

	_, err := s.Put(ctx, BucketOriginals, entities.Media{Filename: "a.jpg"}, strings.NewReader("x"))
	require.NoError(t, err)

	_, _, err = s.OpenStream(ctx, BucketOriginals, "a.jpg")
	assert.ErrorIs(t, err, ErrReadFailed)
	assert.NotErrorIs(t, err, ErrNotFound)
}

// failingWrites rejects every upload.
type failingWrites struct{ blobmemory.Store }

func (*failingWrites) Upload(ctx context.Context, bucket, key string, r io.Reader) (int64, error) {
	return 0, errors.New("no space left")
}

func TestWriteFailureLeavesNoRecord(t *testing.T) {
	repo := repomemory.New()
	s := New(&failingWrites{}, repo)
	ctx := context.Background()

	_, err := s.Put(ctx, BucketOriginals, entities.Media{Filename: "a.jpg"}, strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrWriteFailed)

	_, err = repo.GetByFilename(ctx, BucketOriginals, "a.jpg")
	assert.Error(t, err)
}
