// Package cache stores generated plans in Redis, keyed by the normalised request.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dhabedank/learnstack/internal/core"
)

const keyPrefix = "plan:"

// PlanCache wraps a Redis client. A nil *PlanCache is valid and never hits.
type PlanCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// New creates a plan cache using the provided Redis client and TTL.
func New(client *redis.Client, ttl time.Duration) *PlanCache {
	if ttl < 0 {
		ttl = 0
	}
	return &PlanCache{redis: client, ttl: ttl}
}

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, url string, ttl time.Duration) (*PlanCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return New(client, ttl), nil
}

// Key returns the cache key for a request.
func Key(req core.PlanRequest) string {
	sum := sha256.Sum256([]byte(req.CacheKeyMaterial()))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Get returns a cached plan for req. Any Redis or decoding failure is a miss.
func (c *PlanCache) Get(ctx context.Context, req core.PlanRequest) (*core.Plan, bool) {
	if c == nil || c.redis == nil {
		return nil, false
	}
	key := Key(req)
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var plan core.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		// Entries that no longer decode are dropped.
		_ = c.redis.Del(ctx, key).Err()
		return nil, false
	}
	return &plan, true
}

// Put stores a plan if it is clean: no warnings and a real tech stack.
// It reports whether the plan was written.
func (c *PlanCache) Put(ctx context.Context, req core.PlanRequest, plan *core.Plan) bool {
	if c == nil || c.redis == nil || c.ttl == 0 || !Cacheable(plan) {
		return false
	}
	data, err := json.Marshal(plan)
	if err != nil {
		return false
	}
	return c.redis.Set(ctx, Key(req), data, c.ttl).Err() == nil
}

// Cacheable reports whether a plan is fit to be served again.
func Cacheable(plan *core.Plan) bool {
	return plan != nil && len(plan.Warnings) == 0 && plan.TechStack.Error == ""
}

// Close releases the Redis connection.
func (c *PlanCache) Close() error {
	if c == nil || c.redis == nil {
		return nil
	}
	return c.redis.Close()
}
