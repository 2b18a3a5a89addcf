package upstream

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/zatekoja/eventfinder/internal/domain/providers"
	"github.com/zatekoja/eventfinder/internal/infrastructure/observability"
)

// CacheKey builds "prefix:" followed by the sha256 of the joined parts
func CacheKey(prefix string, parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return prefix + ":" + hex.EncodeToString(sum[:])
}

// Cache wraps a CacheProvider with JSON encoding. A nil provider disables
// caching; cache failures are logged and never fail the caller.
type Cache struct {
	provider providers.CacheProvider
	metrics  *observability.Metrics
}

// NewCache creates a JSON cache over provider
func NewCache(provider providers.CacheProvider, metrics *observability.Metrics) *Cache {
	return &Cache{provider: provider, metrics: metrics}
}

// Load decodes the value at key into out and reports whether it was found
func (c *Cache) Load(ctx context.Context, prefix, key string, out any) bool {
	if c == nil || c.provider == nil {
		return false
	}
	data, err := c.provider.Get(ctx, key)
	if err != nil || len(data) == 0 {
		observability.RecordCacheMiss(ctx, c.metrics, prefix)
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		observability.LoggerFromContext(ctx).Debug().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		observability.RecordCacheMiss(ctx, c.metrics, prefix)
		return false
	}
	observability.RecordCacheHit(ctx, c.metrics, prefix)
	return true
}

// Store encodes value at key for ttl
func (c *Cache) Store(ctx context.Context, key string, value any, ttl time.Duration) {
	if c == nil || c.provider == nil || ttl <= 0 {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	seconds := int(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	if err := c.provider.Set(ctx, key, payload, seconds); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("failed to write cache entry")
	}
}
