package data

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"renewables-pnl/internal/model"
)

// ResponseCache keeps recent Grid Status responses so overlapping refresh windows of several
// sources sharing a hub do not refetch the same series. A nil cache is valid and never hits.
type ResponseCache struct {
	store *cache.Cache
}

// NewResponseCache returns a cache whose entries expire after ttl. A non-positive ttl
// returns nil (caching disabled).
func NewResponseCache(ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		return nil
	}
	return &ResponseCache{store: cache.New(ttl, 5*time.Minute)}
}

// Get retrieves a cached response if available and not expired
func (c *ResponseCache) Get(key string) (*model.GridStatusLMPResponse, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*model.GridStatusLMPResponse), true
}

// Set stores a response in the cache
func (c *ResponseCache) Set(key string, response *model.GridStatusLMPResponse) {
	if c == nil {
		return
	}
	c.store.SetDefault(key, response)
}

// Clear removes all entries from the cache
func (c *ResponseCache) Clear() {
	if c == nil {
		return
	}
	c.store.Flush()
}

// GenerateCacheKey creates a cache key from query parameters
func GenerateCacheKey(params QueryLocationParams) string {
	keyStr := fmt.Sprintf("%s:%s:%s:%s:%s",
		params.DatasetID,
		params.LocationID,
		params.StartTime.UTC().Format(time.RFC3339),
		params.EndTime.UTC().Format(time.RFC3339),
		params.Timezone,
	)

	hash := sha256.Sum256([]byte(keyStr))
	return hex.EncodeToString(hash[:])
}
