package worker

import (
	"bytes"
	"context"
	"errors"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/avolkov/photoflow/internal/entities"
	"github.com/avolkov/photoflow/internal/mediastore"
	"github.com/avolkov/photoflow/internal/processor"
	"github.com/avolkov/photoflow/internal/queue"
)

// MetadataCache invalidates cached metadata once a thumbnail is linked.
// Optional; a nil cache is skipped.
type MetadataCache interface {
	Remove(ctx context.Context, key string) error
}

// Worker turns queued originals into thumbnails. It holds no state between
// jobs: a crash mid-job loses only in-flight work, which the queue
// redelivers to the next consumer.
type Worker struct {
	store *mediastore.Store
	cache MetadataCache
	log   *zap.Logger

	thumbSize int
}

func New(store *mediastore.Store, cache MetadataCache, thumbSize int, log *zap.Logger) *Worker {
	return &Worker{
		store:     store,
		cache:     cache,
		log:       log,
		thumbSize: thumbSize,
	}
}

// Handle processes one delivery: fetch the original, decode, fit into the
// bounding box, store the thumbnail, link it on the original, then ack.
//
// The ack is the last effectful statement on the success path; every
// transient failure before it returns without acking so the queue
// redelivers. A redelivered job re-derives the thumbnail (the derivative
// upsert and the first-write-wins link make that converge), which is the
// accepted cost of at-least-once processing. Unrecoverable inputs (original
// gone, payload undecodable) are acked and dropped: retrying them forever
// helps nobody, and the uploader already got its 201.
func (w *Worker) Handle(ctx context.Context, d queue.Delivery) {
	filename := d.Filename()
	log := w.log.With(zap.String("filename", filename))

	rc, orig, err := w.store.OpenStream(ctx, mediastore.BucketOriginals, filename)
	if errors.Is(err, mediastore.ErrNotFound) {
		log.Warn("original missing, dropping job")
		w.ack(ctx, d, log)
		return
	} else if err != nil {
		log.Error("fetch original failed", zap.Error(err))
		return
	}

	proc := &processor.ImageProcessor{}
	err = proc.Load(rc, orig.MimeType)
	rc.Close()
	if err != nil {
		log.Warn("undecodable original, dropping job", zap.Error(err))
		sentry.CaptureException(err)
		w.ack(ctx, d, log)
		return
	}

	proc.Fit(w.thumbSize)

	thumbBytes, err := proc.Encode()
	if err != nil {
		log.Warn("thumbnail encode failed, dropping job", zap.Error(err))
		sentry.CaptureException(err)
		w.ack(ctx, d, log)
		return
	}

	thumbID, err := w.store.Put(ctx, mediastore.BucketDerivatives, entities.Media{
		Filename:       orig.Filename,
		UserID:         orig.UserID,
		BusinessID:     orig.BusinessID,
		MimeType:       orig.MimeType,
		SourceFilename: orig.Filename,
	}, bytes.NewReader(thumbBytes))
	if err != nil {
		log.Error("store thumbnail failed", zap.Error(err))
		return
	}

	err = w.store.PatchMetadata(ctx, orig.ID, entities.MetadataPatch{ThumbID: &thumbID})
	if err != nil {
		log.Error("link thumbnail failed", zap.Error(err))
		return
	}

	if w.cache != nil {
		if err := w.cache.Remove(ctx, orig.ID.String()); err != nil {
			log.Warn("cache invalidation failed", zap.Error(err))
		}
	}

	w.ack(ctx, d, log)
	log.Info("thumbnail generated", zap.String("thumb_id", thumbID.String()))
}

func (w *Worker) ack(ctx context.Context, d queue.Delivery, log *zap.Logger) {
	if err := d.Ack(ctx); err != nil {
		log.Warn("ack failed", zap.Error(err))
	}
}
