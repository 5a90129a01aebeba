package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/avolkov/photoflow/internal/config"
)

const fieldFilename = "filename"

// Delivery is one message handed to a Handler. The handler owns the
// acknowledgement: an unacked delivery stays in the group's pending list and
// is redelivered after this consumer dies or goes idle.
type Delivery interface {
	Filename() string
	Ack(ctx context.Context) error
}

// Handler processes one delivery. It must call Ack only once the message's
// effects are durable; returning without acking requests redelivery.
type Handler func(ctx context.Context, d Delivery)

// Consumer reads thumbnail jobs from a Redis Stream consumer group, one
// message at a time. Horizontal scaling is more consumer processes in the
// same group; the broker never hands the same unacked entry to two of them.
type Consumer struct {
	rc  redis.UniversalClient
	cfg config.QueueConfig
	log *zap.Logger
}

func NewConsumer(rc redis.UniversalClient, cfg config.QueueConfig, log *zap.Logger) *Consumer {
	return &Consumer{rc: rc, cfg: cfg, log: log}
}

// EnsureGroup creates the stream and consumer group if they do not exist.
// Safe to call repeatedly.
func (c *Consumer) EnsureGroup(ctx context.Context) error {
	// Without MkStream, Redis errors out when the group is created before
	// any message exists in the stream.
	err := c.rc.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err()
	// BUSYGROUP means the group already exists.
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// Start blocks, delivering messages to h until ctx is canceled. On startup
// and then every ClaimInterval it reclaims messages other consumers left
// pending, so crashed workers' jobs are retried here.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	if err := c.EnsureGroup(ctx); err != nil {
		return fmt.Errorf("failed to ensure consumer group: %w", err)
	}

	c.log.Info("consumer started",
		zap.String("stream", c.cfg.Stream),
		zap.String("group", c.cfg.Group),
		zap.String("consumer", c.cfg.Consumer),
	)

	c.claimStuck(ctx, h)
	lastClaim := time.Now()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if time.Since(lastClaim) >= c.cfg.ClaimInterval {
			c.claimStuck(ctx, h)
			lastClaim = time.Now()
		}

		streams, err := c.rc.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.cfg.Group,
			Consumer: c.cfg.Consumer,
			Streams:  []string{c.cfg.Stream, ">"},
			Count:    1,
			Block:    c.cfg.BlockTimeout,
		}).Result()
		if err != nil && err != redis.Nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn("read from stream failed", zap.Error(err))
			continue
		}

		for _, s := range streams {
			for _, m := range s.Messages {
				c.dispatch(ctx, h, m)
			}
		}
	}
}

// claimStuck scans the group's pending entries for messages delivered to
// consumers that never acked them (a crashed or wedged worker) and takes
// ownership, feeding them through the handler like fresh deliveries. This is
// the redelivery half of the at-least-once contract.
func (c *Consumer) claimStuck(ctx context.Context, h Handler) {
	next := "0-0"
	minIdle := c.minIdle()

	for {
		msgs, start, err := c.rc.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   c.cfg.Stream,
			Group:    c.cfg.Group,
			Consumer: c.cfg.Consumer,
			MinIdle:  minIdle,
			Start:    next,
			Count:    100,
		}).Result()
		if err != nil {
			if ctx.Err() == nil {
				c.log.Warn("autoclaim failed", zap.Error(err))
			}
			return
		}
		for _, m := range msgs {
			c.dispatch(ctx, h, m)
		}
		if len(msgs) == 0 || start == "0-0" {
			return
		}
		next = start
	}
}

// minIdle is how long a pending message must sit untouched before another
// consumer may steal it. Scaled off the block timeout so slow-but-alive
// workers keep their messages.
func (c *Consumer) minIdle() time.Duration {
	minIdle := 30 * time.Second
	if t := c.cfg.BlockTimeout * 6; t > minIdle {
		minIdle = t
	}
	return minIdle
}

func (c *Consumer) dispatch(ctx context.Context, h Handler, m redis.XMessage) {
	filename, ok := m.Values[fieldFilename].(string)
	if !ok || filename == "" {
		// Malformed entry; ack so it does not circulate forever.
		c.log.Warn("dropping malformed stream entry", zap.String("id", m.ID))
		_ = c.rc.XAck(ctx, c.cfg.Stream, c.cfg.Group, m.ID).Err()
		return
	}
	h(ctx, &streamDelivery{consumer: c, id: m.ID, filename: filename})
}

type streamDelivery struct {
	consumer *Consumer
	id       string
	filename string
}

func (d *streamDelivery) Filename() string { return d.filename }

func (d *streamDelivery) Ack(ctx context.Context) error {
	c := d.consumer
	return c.rc.XAck(ctx, c.cfg.Stream, c.cfg.Group, d.id).Err()
}
