package spacetraveling

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/eringen/spacetraveling/posts"
	"github.com/eringen/spacetraveling/prismic"
)

// ListingCache is an in-memory cache of the listing's first page and the
// full summary list (for the sitemap and feed), each with a TTL. Loads run
// outside the lock and concurrent misses share one load.
type ListingCache struct {
	mu        sync.RWMutex
	first     *prismic.Response
	firstAt   time.Time
	all       []posts.Summary
	allAt     time.Time
	gen       uint64
	ttl       time.Duration
	group     singleflight.Group
	loadFirst func(context.Context) (*prismic.Response, error)
	loadAll   func(context.Context) ([]posts.Summary, error)
}

// NewListingCache creates a ListingCache backed by the given loaders.
func NewListingCache(ttl time.Duration, loadFirst func(context.Context) (*prismic.Response, error), loadAll func(context.Context) ([]posts.Summary, error)) *ListingCache {
	return &ListingCache{ttl: ttl, loadFirst: loadFirst, loadAll: loadAll}
}

// Invalidate clears the cache so the next read triggers a fresh load. A load
// already running when Invalidate is called is not stored.
func (c *ListingCache) Invalidate() {
	c.mu.Lock()
	c.first = nil
	c.all = nil
	c.gen++
	c.mu.Unlock()
}

// FirstPage returns the cached first listing page, reloading it when stale.
func (c *ListingCache) FirstPage(ctx context.Context) (*prismic.Response, error) {
	c.mu.RLock()
	first, at, gen := c.first, c.firstAt, c.gen
	c.mu.RUnlock()
	if first != nil && time.Since(at) < c.ttl {
		return first, nil
	}

	v, err, _ := c.group.Do("first", func() (interface{}, error) {
		first, err := c.loadFirst(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gen == gen {
			c.first = first
			c.firstAt = time.Now()
		}
		c.mu.Unlock()
		return first, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*prismic.Response), nil
}

// Summaries returns every post summary, reloading when stale.
func (c *ListingCache) Summaries(ctx context.Context) ([]posts.Summary, error) {
	c.mu.RLock()
	all, at, gen := c.all, c.allAt, c.gen
	c.mu.RUnlock()
	if all != nil && time.Since(at) < c.ttl {
		return all, nil
	}

	v, err, _ := c.group.Do("all", func() (interface{}, error) {
		all, err := c.loadAll(ctx)
		if err != nil {
			return nil, err
		}
		if all == nil {
			all = []posts.Summary{}
		}
		c.mu.Lock()
		if c.gen == gen {
			c.all = all
			c.allAt = time.Now()
		}
		c.mu.Unlock()
		return all, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]posts.Summary), nil
}
