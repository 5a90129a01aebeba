package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/photoflow/internal/entities"
	"github.com/avolkov/photoflow/internal/repository"
)

func TestInsertAndLookup(t *testing.T) {
	r := New()
	ctx := context.Background()

	id, err := r.Insert(ctx, &entities.Media{
		Bucket:     "originals",
		Filename:   "a.jpg",
		BusinessID: "b1",
		MimeType:   "image/jpeg",
		Size:       10,
	})
	require.NoError(t, err)

	byID, err := r.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a.jpg", byID.Filename)
	assert.Nil(t, byID.ThumbID)

	byName, err := r.GetByFilename(ctx, "originals", "a.jpg")
	require.NoError(t, err)
	assert.Equal(t, id, byName.ID)

	_, err = r.GetByFilename(ctx, "derivatives", "a.jpg")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestInsertSameFilenameConverges(t *testing.T) {
	r := New()
	ctx := context.Background()

	first, err := r.Insert(ctx, &entities.Media{Bucket: "derivatives", Filename: "a.jpg", Size: 5})
	require.NoError(t, err)

	second, err := r.Insert(ctx, &entities.Media{Bucket: "derivatives", Filename: "a.jpg", Size: 9})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	m, err := r.GetByID(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, int64(9), m.Size)
}

func TestPatchThumbIsFirstWriteWins(t *testing.T) {
	r := New()
	ctx := context.Background()

	id, err := r.Insert(ctx, &entities.Media{Bucket: "originals", Filename: "a.jpg"})
	require.NoError(t, err)

	firstThumb := uuid.New()
	require.NoError(t, r.Patch(ctx, id, entities.MetadataPatch{ThumbID: &firstThumb}))

	secondThumb := uuid.New()
	require.NoError(t, r.Patch(ctx, id, entities.MetadataPatch{ThumbID: &secondThumb}))

	m, err := r.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, m.ThumbID)
	assert.Equal(t, firstThumb, *m.ThumbID)
}

func TestPatchMissingIsNotFound(t *testing.T) {
	r := New()
	thumb := uuid.New()
	err := r.Patch(context.Background(), uuid.New(), entities.MetadataPatch{ThumbID: &thumb})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPatchTags(t *testing.T) {
	r := New()
	ctx := context.Background()

	id, err := r.Insert(ctx, &entities.Media{Bucket: "originals", Filename: "a.jpg"})
	require.NoError(t, err)

	require.NoError(t, r.Patch(ctx, id, entities.MetadataPatch{Tags: []string{"food", "patio"}}))

	m, err := r.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"food", "patio"}, m.Tags)
}

func TestListByBusiness(t *testing.T) {
	r := New()
	ctx := context.Background()

	for _, f := range []string{"a.jpg", "b.jpg"} {
		_, err := r.Insert(ctx, &entities.Media{Bucket: "originals", Filename: f, BusinessID: "b1"})
		require.NoError(t, err)
	}
	_, err := r.Insert(ctx, &entities.Media{Bucket: "originals", Filename: "c.jpg", BusinessID: "b2"})
	require.NoError(t, err)

	list, err := r.ListByBusiness(ctx, "originals", "b1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
