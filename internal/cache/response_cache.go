// Package cache provides the Redis-backed memoization of resolved answers.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unach-dtic/chatbot-api/internal/embedding"
	"github.com/unach-dtic/chatbot-api/internal/models"
)

const (
	responseCachePrefix = "chatbot:response:"
	defaultResponseTTL  = 15 * time.Minute
)

// ResponseCacheStats counts cache traffic since startup.
type ResponseCacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`

	mu sync.Mutex
}

// ResponseCache memoizes resolved answers keyed by the normalized question,
// so a repeated question skips the embedding round trip entirely. Entries
// are flushed whenever the FAQ snapshot is reloaded.
type ResponseCache struct {
	client *redis.Client
	ttl    time.Duration
	stats  *ResponseCacheStats
}

// NewResponseCache builds the cache. Returns nil when no Redis client is
// configured; a nil cache is a valid no-op receiver for Get and Set.
func NewResponseCache(client *redis.Client, ttl time.Duration) *ResponseCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultResponseTTL
	}
	return &ResponseCache{client: client, ttl: ttl, stats: &ResponseCacheStats{}}
}

func responseKey(question string) string {
	sum := sha256.Sum256([]byte(embedding.NormalizeText(question)))
	return responseCachePrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached answer for question, if any. Redis errors are
// treated as misses.
func (c *ResponseCache) Get(ctx context.Context, question string) (*models.QueryResponse, bool) {
	if c == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, responseKey(question)).Bytes()
	if err != nil {
		c.count(&c.stats.Misses)
		return nil, false
	}

	var resp models.QueryResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		c.count(&c.stats.Misses)
		return nil, false
	}
	c.count(&c.stats.Hits)
	return &resp, true
}

// Set stores a resolved answer. Failures are silent; the cache is an
// optimization, never a source of truth.
func (c *ResponseCache) Set(ctx context.Context, question string, resp *models.QueryResponse) {
	if c == nil || resp == nil {
		return
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, responseKey(question), data, c.ttl).Err(); err != nil {
		return
	}
	c.count(&c.stats.Sets)
}

// Invalidate drops every cached answer. Called after a FAQ reload so stale
// answers never outlive the snapshot they came from.
func (c *ResponseCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}

	iter := c.client.Scan(ctx, 0, responseCachePrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= 100 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) > 0 {
		return c.client.Del(ctx, keys...).Err()
	}
	return nil
}

// Stats returns a copy of the current counters.
func (c *ResponseCache) Stats() ResponseCacheStats {
	if c == nil {
		return ResponseCacheStats{}
	}
	c.stats.mu.Lock()
	defer c.stats.mu.Unlock()
	return ResponseCacheStats{Hits: c.stats.Hits, Misses: c.stats.Misses, Sets: c.stats.Sets}
}

func (c *ResponseCache) count(field *int64) {
	c.stats.mu.Lock()
	*field++
	c.stats.mu.Unlock()
}
