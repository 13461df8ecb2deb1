// Package refnum issues gateway reference numbers. Every instruction carries
// a reference number that must be unique per submitting member across
// concurrent callers: the gateway treats a reused number as a duplicate and
// may silently reject or misattribute the instruction.
package refnum

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Generator issues submitter-scoped unique reference numbers. Issuance is
// serialized per member id; failure is fatal to the enclosing orchestration
// and is never retried here.
type Generator interface {
	Next(ctx context.Context, memberID string) (string, error)
}

// sequenceTTL keeps day-scoped counters around well past the gateway's
// duplicate-rejection window before redis may reclaim them.
const sequenceTTL = 72 * time.Hour

// RedisGenerator issues numbers from a redis INCR per member and day. Redis
// serializes the increment, so concurrent registrations by the same advisor
// (the expected contention point) can never observe the same value.
type RedisGenerator struct {
	rdb *redis.Client
}

func NewRedisGenerator(rdb *redis.Client) *RedisGenerator {
	return &RedisGenerator{rdb: rdb}
}

func (g *RedisGenerator) Next(ctx context.Context, memberID string) (string, error) {
	day := time.Now().UTC().Format("20060102")
	key := fmt.Sprintf("wealthgate:refnum:%s:%s", memberID, day)

	seq, err := g.rdb.Incr(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("failed to advance reference sequence for member %s: %w", memberID, err)
	}
	if seq == 1 {
		// Best effort; an unexpired counter only keeps numbers monotonic.
		g.rdb.Expire(ctx, key, sequenceTTL)
	}
	return format(memberID, day, seq), nil
}

// MemoryGenerator is the single-node implementation backed by in-process
// counters. Used in tests and deployments without redis.
type MemoryGenerator struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewMemoryGenerator() *MemoryGenerator {
	return &MemoryGenerator{counters: make(map[string]int64)}
}

func (g *MemoryGenerator) Next(ctx context.Context, memberID string) (string, error) {
	day := time.Now().UTC().Format("20060102")
	key := memberID + ":" + day

	g.mu.Lock()
	g.counters[key]++
	seq := g.counters[key]
	g.mu.Unlock()

	return format(memberID, day, seq), nil
}

func format(memberID, day string, seq int64) string {
	return fmt.Sprintf("%s%s%06d", memberID, day, seq)
}
