package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a namespaced Redis cache for serialized media metadata. The
// worker removes an original's entry after linking its thumbnail so readers
// see the link without waiting for the TTL.
type Cache struct {
	Redis     redis.UniversalClient
	Namespace string
}

func NewCache(namespace string, redisCl redis.UniversalClient) *Cache {
	return &Cache{
		Namespace: namespace,
		Redis:     redisCl,
	}
}

// Get value from Redis. Returns redis.Nil error on a miss.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	cmd := c.Redis.Get(ctx, c.Namespace+":"+key)
	return cmd.Val(), cmd.Err()
}

// Store data to Redis with a TTL in seconds.
func (c *Cache) Store(ctx context.Context, key string, ttl int, value string) error {
	dur, err := time.ParseDuration(strconv.Itoa(ttl) + "s")
	if err != nil {
		return err
	}
	return c.Redis.Set(ctx, c.Namespace+":"+key, value, dur).Err()
}

// Remove key from Redis.
func (c *Cache) Remove(ctx context.Context, key string) error {
	return c.Redis.Del(ctx, c.Namespace+":"+key).Err()
}
