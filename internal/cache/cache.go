// Package cache holds dashboard figures in redis so repeated dashboard
// loads skip the aggregation queries. The cache is optional: without a
// configured redis the cache is a no-op and every read is a miss.
//
// Every ledger write invalidates all dashboard keys. Figures are cheap
// to recompute and a stale committed total is worse than a slow
// dashboard.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// keyPrefix namespaces all dashboard cache keys.
const keyPrefix = "dashboard:"

// TTL bounds staleness if an invalidation is ever missed.
const ttl = 5 * time.Minute

// Cache is a redis-backed store for computed dashboard figures.
type Cache struct {
	rdb *redis.Client
}

// New returns a cache for the redis at url. An empty url returns a
// disabled cache where every Get is a miss.
func New(url string) (*Cache, error) {
	if url == "" {
		return &Cache{}, nil
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing the redis URL failed: %w", err)
	}

	return &Cache{rdb: redis.NewClient(opt)}, nil
}

// NewWithClient wraps an existing client, used in tests.
func NewWithClient(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// Enabled reports whether a redis connection is configured.
func (c *Cache) Enabled() bool {
	return c.rdb != nil
}

// Get loads the cached value for the key into target and reports
// whether there was one. Redis failures count as a miss and are logged,
// the dashboard then recomputes.
func (c *Cache) Get(ctx context.Context, key string, target any) bool {
	if !c.Enabled() {
		return false
	}

	data, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("dashboard cache read failed")
		return false
	}

	err = json.Unmarshal(data, target)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("dashboard cache entry is not valid JSON")
		return false
	}

	return true
}

// Set stores a computed value under the key. Failures are logged and
// ignored.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	if !c.Enabled() {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("marshaling dashboard cache entry failed")
		return
	}

	err = c.rdb.Set(ctx, keyPrefix+key, data, ttl).Err()
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("dashboard cache write failed")
	}
}

// Invalidate drops all dashboard keys. Called after every ledger write.
func (c *Cache) Invalidate(ctx context.Context) {
	if !c.Enabled() {
		return
	}

	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		err := c.rdb.Del(ctx, iter.Val()).Err()
		if err != nil {
			log.Error().Err(err).Str("key", iter.Val()).Msg("dashboard cache invalidation failed")
		}
	}

	if err := iter.Err(); err != nil {
		log.Error().Err(err).Msg("dashboard cache invalidation scan failed")
	}
}
