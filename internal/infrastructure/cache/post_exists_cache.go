package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/joacominatel/pulsefeed/internal/application"
	"github.com/joacominatel/pulsefeed/internal/domain"
)

// PostExistsCache caches post existence checks.
// avoids hitting the database on every interaction request.
// both positive and negative answers are cached until the ttl runs out.
type PostExistsCache struct {
	lru  *expirable.LRU[domain.PostID, bool]
	next application.PostChecker
}

// NewPostExistsCache wraps next with a bounded ttl cache.
func NewPostExistsCache(next application.PostChecker, size int, ttl time.Duration) *PostExistsCache {
	if size <= 0 {
		size = 1
	}
	return &PostExistsCache{
		lru:  expirable.NewLRU[domain.PostID, bool](size, nil, ttl),
		next: next,
	}
}

// Exists checks the cache first, then the wrapped checker.
// errors are never cached.
func (c *PostExistsCache) Exists(ctx context.Context, id domain.PostID) (bool, error) {
	// fast path
	if exists, ok := c.lru.Get(id); ok {
		return exists, nil
	}

	// slow path
	exists, err := c.next.Exists(ctx, id)
	if err != nil {
		return false, err
	}
	c.lru.Add(id, exists)
	return exists, nil
}

// Invalidate removes a post from the cache.
func (c *PostExistsCache) Invalidate(id domain.PostID) {
	c.lru.Remove(id)
}

// Size returns the current number of cached entries.
func (c *PostExistsCache) Size() int {
	return c.lru.Len()
}
