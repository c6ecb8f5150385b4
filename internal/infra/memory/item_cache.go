package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"pathfinder-service/internal/domain"
)

// ItemLoader fetches a block's items from a backing store.
type ItemLoader interface {
	ListItems(ctx context.Context, block domain.Block) ([]domain.Item, error)
}

// ItemCache caches block item lists with TTL to avoid repeated store hits.
// Each Invalidate bumps the block's generation; a load that started under an
// older generation returns its result without caching it.
type ItemCache struct {
	loader ItemLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[domain.Block]cachedItems
	gens  map[domain.Block]uint64
}

type cachedItems struct {
	items     []domain.Item
	expiresAt time.Time
}

func NewItemCache(loader ItemLoader, ttl time.Duration) *ItemCache {
	return NewItemCacheWithClock(loader, ttl, time.Now)
}

// NewItemCacheWithClock is used by tests to control expiry.
func NewItemCacheWithClock(loader ItemLoader, ttl time.Duration, clock func() time.Time) *ItemCache {
	return &ItemCache{
		loader: loader,
		ttl:    ttl,
		clock:  clock,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[domain.Block]cachedItems),
		gens:   make(map[domain.Block]uint64),
	}
}

func (c *ItemCache) ListItems(ctx context.Context, block domain.Block) ([]domain.Item, error) {
	if items, ok := c.lookup(block); ok {
		return items, nil
	}

	result, err, _ := c.sf.Do(string(block), func() (interface{}, error) {
		if items, ok := c.lookup(block); ok {
			return items, nil
		}
		gen := c.generation(block)
		items, err := c.loader.ListItems(ctx, block)
		if err != nil {
			return nil, err
		}
		expiresAt := c.clock().Add(c.ttlWithJitter())
		c.mu.Lock()
		if c.gens[block] == gen {
			c.cache[block] = cachedItems{items: cloneItems(items), expiresAt: expiresAt}
		}
		c.mu.Unlock()
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneItems(result.([]domain.Item)), nil
}

// Invalidate drops the cached list for block.
func (c *ItemCache) Invalidate(_ context.Context, block domain.Block) {
	c.mu.Lock()
	delete(c.cache, block)
	c.gens[block]++
	c.mu.Unlock()
	c.sf.Forget(string(block))
}

func (c *ItemCache) generation(block domain.Block) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gens[block]
}

func (c *ItemCache) lookup(block domain.Block) ([]domain.Item, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[block]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return nil, false
	}
	return cloneItems(entry.items), true
}

func (c *ItemCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
