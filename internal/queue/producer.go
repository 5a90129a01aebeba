package queue

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Producer appends thumbnail jobs to the Redis stream. Publish returning nil
// means the broker accepted the entry, nothing more; delivery to a consumer
// is at-least-once and asynchronous.
type Producer struct {
	rc     redis.UniversalClient
	stream string
	maxLen int64
}

func NewProducer(rc redis.UniversalClient, stream string, maxLen int64) *Producer {
	return &Producer{rc: rc, stream: stream, maxLen: maxLen}
}

// Publish enqueues the original's filename. The message carries nothing
// else; workers re-read everything from store metadata.
func (p *Producer) Publish(ctx context.Context, filename string) error {
	return p.rc.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{fieldFilename: filename},
	}).Err()
}
