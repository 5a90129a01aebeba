package worker

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/avolkov/photoflow/internal/blobstore"
	blobmemory "github.com/avolkov/photoflow/internal/blobstore/memory"
	"github.com/avolkov/photoflow/internal/entities"
	"github.com/avolkov/photoflow/internal/mediastore"
	repomemory "github.com/avolkov/photoflow/internal/repository/memory"
)

type fakeDelivery struct {
	filename string
	acked    bool
}

func (d *fakeDelivery) Filename() string              { return d.filename }
func (d *fakeDelivery) Ack(ctx context.Context) error { d.acked = true; return nil }

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	buf := new(bytes.Buffer)
	require.NoError(t, jpeg.Encode(buf, img, nil))
	return buf.Bytes()
}

func uploadOriginal(t *testing.T, store *mediastore.Store, filename string, data []byte) *entities.Media {
	t.Helper()
	id, err := store.Put(context.Background(), mediastore.BucketOriginals, entities.Media{
		Filename:   filename,
		UserID:     "u1",
		BusinessID: "b1",
		MimeType:   "image/jpeg",
	}, bytes.NewReader(data))
	require.NoError(t, err)
	m, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	return m
}

func TestHandleGeneratesAndLinksThumbnail(t *testing.T) {
	store := mediastore.New(blobmemory.New(), repomemory.New())
	w := New(store, nil, 100, zap.NewNop())
	ctx := context.Background()

	orig := uploadOriginal(t, store, "photo.jpg", testJPEG(t, 400, 300))

	d := &fakeDelivery{filename: "photo.jpg"}
	w.Handle(ctx, d)

	assert.True(t, d.acked)

	// The original now links a thumbnail.
	m, err := store.Get(ctx, orig.ID)
	require.NoError(t, err)
	require.NotNil(t, m.ThumbID)

	// The derivative exists under the original's filename, decodes, and
	// fits the bounding box.
	rc, dm, err := store.OpenStream(ctx, mediastore.BucketDerivatives, "photo.jpg")
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, "photo.jpg", dm.SourceFilename)
	assert.Equal(t, *m.ThumbID, dm.ID)

	img, _, err := image.Decode(rc)
	require.NoError(t, err)
	assert.LessOrEqual(t, img.Bounds().Dx(), 100)
	assert.LessOrEqual(t, img.Bounds().Dy(), 100)
}

func TestHandleRedeliveryConvergesToOneLink(t *testing.T) {
	store := mediastore.New(blobmemory.New(), repomemory.New())
	w := New(store, nil, 100, zap.NewNop())
	ctx := context.Background()

	orig := uploadOriginal(t, store, "photo.jpg", testJPEG(t, 400, 300))

	first := &fakeDelivery{filename: "photo.jpg"}
	w.Handle(ctx, first)
	second := &fakeDelivery{filename: "photo.jpg"}
	w.Handle(ctx, second)

	assert.True(t, first.acked)
	assert.True(t, second.acked)

	m, err := store.Get(ctx, orig.ID)
	require.NoError(t, err)
	require.NotNil(t, m.ThumbID)

	// The link points at a real, decodable derivative.
	rc, dm, err := store.OpenStream(ctx, mediastore.BucketDerivatives, "photo.jpg")
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, *m.ThumbID, dm.ID)
	_, _, err = image.Decode(rc)
	require.NoError(t, err)
}

func TestHandleMissingOriginalAcksAndDrops(t *testing.T) {
	store := mediastore.New(blobmemory.New(), repomemory.New())
	w := New(store, nil, 100, zap.NewNop())

	d := &fakeDelivery{filename: "never-uploaded.jpg"}
	w.Handle(context.Background(), d)

	// No point redelivering a job whose original is gone.
	assert.True(t, d.acked)
}

func TestHandleCorruptImageAcksAndDrops(t *testing.T) {
	store := mediastore.New(blobmemory.New(), repomemory.New())
	w := New(store, nil, 100, zap.NewNop())
	ctx := context.Background()

	orig := uploadOriginal(t, store, "broken.jpg", []byte("not a jpeg at all"))

	d := &fakeDelivery{filename: "broken.jpg"}
	w.Handle(ctx, d)

	assert.True(t, d.acked)

	// Nothing was linked and no derivative appeared.
	m, err := store.Get(ctx, orig.ID)
	require.NoError(t, err)
	assert.Nil(t, m.ThumbID)
	_, _, err = store.OpenStream(ctx, mediastore.BucketDerivatives, "broken.jpg")
	assert.ErrorIs(t, err, mediastore.ErrNotFound)
}

// derivativeRejectingBlobs accepts originals but fails derivative writes.
type derivativeRejectingBlobs struct {
	inner blobstore.Store
}

func (b *derivativeRejectingBlobs) Upload(ctx context.Context, bucket, key string, r io.Reader) (int64, error) {
	if bucket == mediastore.BucketDerivatives {
		return 0, errors.New("derivatives volume unavailable")
	}
	return b.inner.Upload(ctx, bucket, key, r)
}

func (b *derivativeRejectingBlobs) Download(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	return b.inner.Download(ctx, bucket, key)
}

func (b *derivativeRejectingBlobs) Delete(ctx context.Context, bucket, key string) error {
	return b.inner.Delete(ctx, bucket, key)
}

func TestHandleStoreFailureLeavesJobUnacked(t *testing.T) {
	store := mediastore.New(&derivativeRejectingBlobs{inner: blobmemory.New()}, repomemory.New())
	w := New(store, nil, 100, zap.NewNop())
	ctx := context.Background()

	orig := uploadOriginal(t, store, "photo.jpg", testJPEG(t, 400, 300))

	d := &fakeDelivery{filename: "photo.jpg"}
	w.Handle(ctx, d)

	// Transient storage failure: no ack, so the queue redelivers.
	assert.False(t, d.acked)

	m, err := store.Get(ctx, orig.ID)
	require.NoError(t, err)
	assert.Nil(t, m.ThumbID)
}

func TestHandleInvalidatesMetadataCache(t *testing.T) {
	store := mediastore.New(blobmemory.New(), repomemory.New())
	removed := &recordingCache{}
	w := New(store, removed, 100, zap.NewNop())
	ctx := context.Background()

	orig := uploadOriginal(t, store, "photo.jpg", testJPEG(t, 50, 50))

	w.Handle(ctx, &fakeDelivery{filename: "photo.jpg"})

	require.Len(t, removed.keys, 1)
	assert.Equal(t, orig.ID.String(), removed.keys[0])
}

type recordingCache struct{ keys []string }

func (c *recordingCache) Remove(ctx context.Context, key string) error {
	c.keys = append(c.keys, key)
	return nil
}
