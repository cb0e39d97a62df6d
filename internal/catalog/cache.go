package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	candyKeyPrefix = "catalog:candy:"
	listGenKey     = "catalog:candies:gen"
)

// Cache holds candy detail payloads and list pages in Redis. List pages are
// keyed under a generation counter, so one INCR retires every cached page
// whatever filters produced it.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache returns a cache; a nil client or non-positive ttl disables it.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

func candyKey(id string) string { return candyKeyPrefix + id }

func (c *Cache) candy(ctx context.Context, id string) (Candy, bool) {
	var out Candy
	return out, c.load(ctx, candyKey(id), &out)
}

func (c *Cache) putCandy(ctx context.Context, dto Candy) {
	c.store(ctx, candyKey(dto.ID), dto)
}

// listKey derives the page key for params under the current generation.
func (c *Cache) listKey(ctx context.Context, p ListParams) (string, bool) {
	if !c.enabled() {
		return "", false
	}
	gen, err := c.client.Get(ctx, listGenKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", false
	}
	avail := "-"
	if p.Available != nil {
		avail = strconv.FormatBool(*p.Available)
	}
	sum := sha256.Sum256(fmt.Appendf(nil, "%d|%d|%s|%s|%s", p.Page, p.Limit, p.Category, avail, p.Query))
	return fmt.Sprintf("catalog:candies:%d:%s", gen, hex.EncodeToString(sum[:8])), true
}

func (c *Cache) list(ctx context.Context, key string) (cachedList, bool) {
	var out cachedList
	return out, c.load(ctx, key, &out)
}

func (c *Cache) putList(ctx context.Context, key string, page cachedList) {
	c.store(ctx, key, page)
}

// Invalidate drops the detail entries for ids and retires all list pages.
func (c *Cache) Invalidate(ctx context.Context, ids ...string) error {
	if !c.enabled() {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, listGenKey)
		if len(ids) > 0 {
			keys := make([]string, len(ids))
			for i, id := range ids {
				keys[i] = candyKey(id)
			}
			p.Del(ctx, keys...)
		}
		return nil
	})
	return err
}

// load reports a hit only when the key exists and decodes cleanly.
func (c *Cache) load(ctx context.Context, key string, dst any) bool {
	if !c.enabled() || key == "" {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func (c *Cache) store(ctx context.Context, key string, v any) {
	if !c.enabled() || key == "" {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, raw, c.ttl).Err()
}
