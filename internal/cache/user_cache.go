package cache

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const DefaultUserCacheTTL = 1 * time.Hour

// AllUsersKey caches the full user listing.
const AllUsersKey = "users:all"

// generationTTL outlives any in-flight refill by a wide margin.
const generationTTL = 24 * time.Hour

//go:embed set_if_generation.lua
var setIfGenerationScript string

var setIfGeneration = redis.NewScript(setIfGenerationScript)

// UserCache stores JSON payloads next to a per-key generation counter.
// Invalidate bumps the generation so refills that started earlier are discarded.
type UserCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewUserCache(client *redis.Client, ttl time.Duration) *UserCache {
	if ttl <= 0 {
		ttl = DefaultUserCacheTTL
	}
	return &UserCache{client: client, ttl: ttl}
}

// Get returns nil, nil on a cache miss.
func (c *UserCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Generation returns the current generation of key, 0 if it was never invalidated.
func (c *UserCache) Generation(ctx context.Context, key string) (int64, error) {
	gen, err := c.client.Get(ctx, GenerationKey(key)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

// SetIfGeneration stores data as JSON with the cache TTL unless key was invalidated
// after gen was read. It reports whether the value was written.
func (c *UserCache) SetIfGeneration(ctx context.Context, key string, gen int64, data interface{}) (bool, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return false, err
	}

	stored, err := setIfGeneration.Run(ctx, c.client,
		[]string{key, GenerationKey(key)},
		gen,
		jsonData,
		c.ttl.Milliseconds(),
	).Int64()
	if err != nil {
		return false, err
	}
	return stored == 1, nil
}

// Invalidate deletes keys and bumps their generations in one transaction.
func (c *UserCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		for _, key := range keys {
			pipe.Incr(ctx, GenerationKey(key))
			pipe.Expire(ctx, GenerationKey(key), generationTTL)
		}
		return nil
	})
	return err
}

// UserKey builds the cache key for a single user
func UserKey(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

func GenerationKey(key string) string {
	return key + ":gen"
}
