package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/joacominatel/pulsefeed/internal/application"
)

// CandidateCache is a bounded in-memory cache of candidate fetches.
// entries expire after the ttl so counters never go stale for long.
// implements application.CandidateCache.
type CandidateCache struct {
	lru *expirable.LRU[string, application.CandidateBatch]
}

// NewCandidateCache creates a cache holding at most size batches.
func NewCandidateCache(size int, ttl time.Duration) *CandidateCache {
	if size <= 0 {
		size = 1
	}
	return &CandidateCache{
		lru: expirable.NewLRU[string, application.CandidateBatch](size, nil, ttl),
	}
}

// Get returns the cached batch for key.
func (c *CandidateCache) Get(key string) (application.CandidateBatch, bool) {
	return c.lru.Get(key)
}

// Add stores a batch, evicting the least recently used one when full.
func (c *CandidateCache) Add(key string, batch application.CandidateBatch) {
	c.lru.Add(key, batch)
}

// Len returns the current number of cached batches.
func (c *CandidateCache) Len() int {
	return c.lru.Len()
}

// Purge drops every entry.
func (c *CandidateCache) Purge() {
	c.lru.Purge()
}
