package token

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores acquired tokens until their area's TTL expires. Reads vastly
// outnumber writes; implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, token string, ttl time.Duration)
}

const cachePrefix = "wealthgate:token:"

// RedisCache shares tokens across instances.
type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.rdb.Get(ctx, cachePrefix+key).Result()
	if err != nil {
		// A cache miss and an unreachable redis look the same to the caller:
		// the handshake simply runs again.
		return "", false
	}
	return val, true
}

func (c *RedisCache) Set(ctx context.Context, key string, token string, ttl time.Duration) {
	c.rdb.Set(ctx, cachePrefix+key, token, ttl)
}

// MemoryCache is the in-process fallback used in tests and single-node
// deployments.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	token   string
	expires time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (string, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expires) {
		return "", false
	}
	return entry.token, true
}

func (c *MemoryCache) Set(ctx context.Context, key string, token string, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = memoryEntry{token: token, expires: time.Now().Add(ttl)}
	c.mu.Unlock()
}
