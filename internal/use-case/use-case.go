package use_case

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/avolkov/photoflow/internal/entities"
	"github.com/avolkov/photoflow/internal/mediastore"
	"github.com/avolkov/photoflow/internal/transport/handler"
)

// JobPublisher enqueues a thumbnail job for a stored original.
type JobPublisher interface {
	Publish(ctx context.Context, filename string) error
}

// MetadataCache caches serialized media records keyed by id.
type MetadataCache interface {
	Get(ctx context.Context, key string) (string, error)
	Store(ctx context.Context, key string, ttl int, value string) error
	Remove(ctx context.Context, key string) error
}

type useCase struct {
	store    *mediastore.Store
	wqueue   JobPublisher
	cache    MetadataCache
	cacheTTL int
	log      *zap.Logger
}

func New(store *mediastore.Store, wqueue JobPublisher, cache MetadataCache, cacheTTL int, log *zap.Logger) *useCase {
	return &useCase{
		store:    store,
		wqueue:   wqueue,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

// UploadMedia streams the original into the store under a fresh random
// filename, then publishes the thumbnail job. The response goes out before
// any thumbnail exists; if publishing fails after the original landed, the
// original is kept but no thumbnail will ever be generated for it (a
// reconciliation sweep could re-publish such orphans; not implemented here).
func (c *useCase) UploadMedia(ctx context.Context, file io.Reader, mimeType, ext string, p handler.UploadMediaParams) (entities.Media, error) {
	filename, err := randomFilename(ext)
	if err != nil {
		return entities.Media{}, fmt.Errorf("generate filename: %w", err)
	}

	meta := entities.Media{
		Filename:   filename,
		UserID:     p.UserID,
		BusinessID: p.BusinessID,
		Caption:    p.Caption,
		MimeType:   mimeType,
	}

	id, err := c.store.Put(ctx, mediastore.BucketOriginals, meta, file)
	if err != nil {
		return entities.Media{}, err
	}

	if err := c.wqueue.Publish(ctx, filename); err != nil {
		sentry.CaptureException(err)
		c.log.Error("publish thumbnail job failed; original kept without thumbnail",
			zap.String("filename", filename), zap.Error(err))
		return entities.Media{}, fmt.Errorf("publish thumbnail job: %w", err)
	}

	m, err := c.store.Get(ctx, id)
	if err != nil {
		return entities.Media{}, err
	}
	return *m, nil
}

// GetMedia looks up an original by its id, consulting the metadata cache
// first. An unparseable id is simply not found.
func (c *useCase) GetMedia(ctx context.Context, id string) (entities.Media, error) {
	if c.cache != nil {
		if raw, err := c.cache.Get(ctx, id); err == nil && raw != "" {
			var m entities.Media
			if err := json.Unmarshal([]byte(raw), &m); err == nil {
				return m, nil
			}
		}
	}

	mid, err := uuid.Parse(id)
	if err != nil {
		return entities.Media{}, mediastore.ErrNotFound
	}

	m, err := c.store.Get(ctx, mid)
	if err != nil {
		return entities.Media{}, err
	}

	if c.cache != nil {
		if raw, err := json.Marshal(m); err == nil {
			if err := c.cache.Store(ctx, id, c.cacheTTL, string(raw)); err != nil {
				c.log.Warn("cache store failed", zap.Error(err))
			}
		}
	}
	return *m, nil
}

// OpenMediaStream opens an object's byte stream by bucket and filename.
func (c *useCase) OpenMediaStream(ctx context.Context, bucket, filename string) (io.ReadCloser, *entities.Media, error) {
	return c.store.OpenStream(ctx, bucket, filename)
}

// UpdateTags replaces an original's tags through the typed metadata patch.
func (c *useCase) UpdateTags(ctx context.Context, id string, tags []string) error {
	mid, err := uuid.Parse(id)
	if err != nil {
		return mediastore.ErrNotFound
	}
	if err := c.store.PatchMetadata(ctx, mid, entities.MetadataPatch{Tags: tags}); err != nil {
		return err
	}
	if c.cache != nil {
		_ = c.cache.Remove(ctx, id)
	}
	return nil
}

// randomFilename returns 16 random bytes as hex plus the type's extension,
// e.g. "3f9c...b2.jpg". Collision-resistant and unguessable.
func randomFilename(ext string) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf) + ext, nil
}
