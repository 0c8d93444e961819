package document

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// URLCache memoizes signed document URLs per invoice so repeat requests
// within the expiry window reuse the stored object instead of re-rendering.
type URLCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewURLCache builds the cache. The ttl should stay below the signed URL
// expiry so a cached URL is never handed out dead.
func NewURLCache(client *redis.Client, ttl time.Duration) *URLCache {
	return &URLCache{client: client, ttl: ttl}
}

func cacheKey(invoiceID uuid.UUID) string {
	return fmt.Sprintf("invoice:%s:document", invoiceID)
}

// Get returns the cached reference, or nil on miss or cache trouble.
func (c *URLCache) Get(ctx context.Context, invoiceID uuid.UUID) *Ref {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := c.client.Get(ctx, cacheKey(invoiceID)).Bytes()
	if err != nil {
		return nil
	}
	var ref Ref
	if err := json.Unmarshal(data, &ref); err != nil {
		return nil
	}
	return &ref
}

// Set stores the reference; failures are swallowed since the cache is an
// optimization, not a source of truth.
func (c *URLCache) Set(ctx context.Context, invoiceID uuid.UUID, ref *Ref) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(ref)
	if err != nil {
		return
	}
	c.client.Set(ctx, cacheKey(invoiceID), data, c.ttl)
}
