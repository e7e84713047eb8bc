package hierarchy

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lookup caching is an optimization, not a correctness requirement: a stale
// entry can only widen or narrow visibility for at most the TTL, and entries
// are bounded by it. Cache failures fall through to the underlying directory.

// DefaultCacheTTL bounds how stale a cached placement may be.
const DefaultCacheTTL = 5 * time.Minute

// RedisCache decorates a Directory with a redis-backed TTL cache.
type RedisCache struct {
	next   Directory
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisCache(next Directory, client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{next: next, client: client, ttl: ttl, logger: logger}
}

func cacheKey(userID string) string { return "hierarchy:entry:" + userID }

// negative cache marker for unknown users, so repeated lookups of a missing
// inserter do not hammer the directory.
const missMarker = "__miss__"

func (c *RedisCache) Resolve(ctx context.Context, userID string) (*Entry, error) {
	key := cacheKey(userID)

	raw, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		if raw == missMarker {
			return nil, nil
		}
		var e Entry
		if jsonErr := json.Unmarshal([]byte(raw), &e); jsonErr == nil {
			return &e, nil
		}
		// fall through on corrupt payload
	case err != redis.Nil:
		c.logger.WarnContext(ctx, "hierarchy cache read failed", "error", err)
	}

	entry, err := c.next.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	payload := missMarker
	if entry != nil {
		if buf, jsonErr := json.Marshal(entry); jsonErr == nil {
			payload = string(buf)
		}
	}
	if setErr := c.client.Set(ctx, key, payload, c.ttl).Err(); setErr != nil {
		c.logger.WarnContext(ctx, "hierarchy cache write failed", "error", setErr)
	}

	return entry, nil
}

// Invalidate drops a user's cached placement, for callers that reassign users.
func (c *RedisCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, cacheKey(userID)).Err()
}

// LocalCache is the in-process fallback when redis is not configured.
type LocalCache struct {
	next Directory
	ttl  time.Duration

	mu      sync.RWMutex
	entries map[string]localCacheEntry
}

type localCacheEntry struct {
	entry     *Entry
	expiresAt time.Time
}

func NewLocalCache(next Directory, ttl time.Duration) *LocalCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &LocalCache{next: next, ttl: ttl, entries: make(map[string]localCacheEntry)}
}

func (c *LocalCache) Resolve(ctx context.Context, userID string) (*Entry, error) {
	now := time.Now()

	c.mu.RLock()
	cached, ok := c.entries[userID]
	c.mu.RUnlock()
	if ok && now.Before(cached.expiresAt) {
		if cached.entry == nil {
			return nil, nil
		}
		out := *cached.entry
		return &out, nil
	}

	entry, err := c.next.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[userID] = localCacheEntry{entry: entry, expiresAt: now.Add(c.ttl)}
	// drop expired entries opportunistically to keep the map bounded
	for k, v := range c.entries {
		if now.After(v.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()

	if entry == nil {
		return nil, nil
	}
	out := *entry
	return &out, nil
}
