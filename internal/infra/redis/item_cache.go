package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"pathfinder-service/internal/domain"
)

// ItemLoader fetches a block's items from the system of record.
type ItemLoader interface {
	ListItems(ctx context.Context, block domain.Block) ([]domain.Item, error)
}

var errStaleLoad = errors.New("item list changed during load")

// ItemCache keeps block item lists in Redis as JSON and falls back to a loader on miss.
// Lists are stored as: SET questions:{block} <json array> EX <ttl>
// Invalidate bumps questions:{block}:gen; a load only writes back if the
// generation it started under is still current.
type ItemCache struct {
	client *redis.Client
	loader ItemLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewItemCache(client *redis.Client, loader ItemLoader, ttl time.Duration) *ItemCache {
	return &ItemCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *ItemCache) ListItems(ctx context.Context, block domain.Block) ([]domain.Item, error) {
	if items, ok := c.lookup(ctx, block); ok {
		return items, nil
	}

	result, err, _ := c.sf.Do(string(block), func() (interface{}, error) {
		// Re-check in case another caller filled it.
		if items, ok := c.lookup(ctx, block); ok {
			return items, nil
		}

		gen, genErr := c.generation(ctx, c.client, block)
		items, err := c.loader.ListItems(ctx, block)
		if err != nil {
			return nil, err
		}
		if genErr != nil {
			log.Printf("item cache: read generation %s: %v", block, genErr)
			return items, nil
		}

		raw, err := json.Marshal(items)
		if err != nil {
			return nil, err
		}
		c.store(ctx, block, gen, raw)
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Item), nil
}

// Invalidate drops the cached list for block and fences off running loads.
func (c *ItemCache) Invalidate(ctx context.Context, block domain.Block) {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, c.key(block))
		pipe.Incr(ctx, c.genKey(block))
		return nil
	})
	if err != nil {
		log.Printf("item cache: invalidate %s: %v", block, err)
	}
	c.sf.Forget(string(block))
}

// store writes raw unless the block was invalidated since gen was read.
func (c *ItemCache) store(ctx context.Context, block domain.Block, gen int64, raw []byte) {
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := c.generation(ctx, tx, block)
		if err != nil {
			return err
		}
		if current != gen {
			return errStaleLoad
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key(block), raw, c.ttlWithJitter())
			return nil
		})
		return err
	}, c.genKey(block))
	switch {
	case err == nil, errors.Is(err, errStaleLoad), errors.Is(err, redis.TxFailedErr):
	default:
		log.Printf("item cache: write %s: %v", block, err)
	}
}

func (c *ItemCache) generation(ctx context.Context, cmd redis.Cmdable, block domain.Block) (int64, error) {
	gen, err := cmd.Get(ctx, c.genKey(block)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *ItemCache) lookup(ctx context.Context, block domain.Block) ([]domain.Item, bool) {
	raw, err := c.client.Get(ctx, c.key(block)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("item cache: read %s: %v", block, err)
		}
		return nil, false
	}
	var items []domain.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		log.Printf("item cache: decode %s: %v", block, err)
		return nil, false
	}
	return items, true
}

func (c *ItemCache) key(block domain.Block) string {
	return "questions:" + string(block)
}

func (c *ItemCache) genKey(block domain.Block) string {
	return c.key(block) + ":gen"
}

func (c *ItemCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
