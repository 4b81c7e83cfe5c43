package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/grocerly/grocerly-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "grocerly:review:"
	versionKey = keyPrefix + "version"
)

// Generation identifies one version of the review data. Pages are stored
// under the generation they were read at, so a page computed before a
// mutation can never be served after it.
type Generation int64

// ReviewCache is the shared read cache behind every review surface.
// Any mutation bumps the generation, which orphans all cached pages at once.
type ReviewCache interface {
	// Get reports the current generation along with the lookup. Pass that
	// generation to Set when filling a miss.
	Get(ctx context.Context, key string, dest interface{}) (Generation, bool, error)
	Set(ctx context.Context, gen Generation, key string, value interface{}) error
	Invalidate(ctx context.Context) error
}

type redisReviewCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisReviewCache(client *redis.Client, ttl time.Duration) ReviewCache {
	return &redisReviewCache{client: client, ttl: ttl}
}

func (c *redisReviewCache) generation(ctx context.Context) (Generation, error) {
	v, err := c.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return Generation(v), err
}

func fullKey(gen Generation, key string) string {
	return fmt.Sprintf("%sg%d:%s", keyPrefix, gen, key)
}

func (c *redisReviewCache) Get(ctx context.Context, key string, dest interface{}) (Generation, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return 0, false, err
	}
	full := fullKey(gen, key)

	raw, err := c.client.Get(ctx, full).Bytes()
	if errors.Is(err, redis.Nil) {
		return gen, false, nil
	}
	if err != nil {
		return gen, false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		logger.Warn("Discarding undecodable review cache entry", map[string]interface{}{
			"key": full,
		})
		return gen, false, nil
	}
	return gen, true, nil
}

func (c *redisReviewCache) Set(ctx context.Context, gen Generation, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, fullKey(gen, key), raw, c.ttl).Err()
}

func (c *redisReviewCache) Invalidate(ctx context.Context) error {
	gen, err := c.client.Incr(ctx, versionKey).Result()
	if err != nil {
		logger.Error("Failed to invalidate review cache", err)
		return err
	}
	logger.Debug("Review cache invalidated", map[string]interface{}{
		"generation": gen,
	})
	return nil
}

type noopReviewCache struct{}

// NewNoopReviewCache is used when redis is unavailable; every read misses.
func NewNoopReviewCache() ReviewCache {
	return noopReviewCache{}
}

func (noopReviewCache) Get(context.Context, string, interface{}) (Generation, bool, error) {
	return 0, false, nil
}
func (noopReviewCache) Set(context.Context, Generation, string, interface{}) error { return nil }
func (noopReviewCache) Invalidate(context.Context) error                           { return nil }

func ListKey(status, query string, page, pageSize int) string {
	return fmt.Sprintf("list:%s:%s:%d:%d", status, strings.ToLower(strings.TrimSpace(query)), page, pageSize)
}
