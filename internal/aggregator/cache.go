package aggregator

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"time"

	"github.com/coocood/freecache"
	"github.com/gofiber/fiber/v2/log"

	"github.com/dbytex91/streamfusion/internal/metrics"
	"github.com/dbytex91/streamfusion/internal/model"
	"github.com/dbytex91/streamfusion/internal/provider"
)

// Cached serves repeated requests to an adapter from an in-process cache.
// Only successful fetches are stored. Cache failures are logged and the
// adapter is called as if there was no cache.
type Cached struct {
	adapter  provider.Adapter
	cache    *freecache.Cache
	ttl      time.Duration
	identity string
}

// NewCached wraps adapter. identity must change whenever the adapter would
// answer differently, e.g. another URL or credential.
func NewCached(adapter provider.Adapter, cache *freecache.Cache, ttl time.Duration, identity string) *Cached {
	return &Cached{
		adapter:  adapter,
		cache:    cache,
		ttl:      ttl,
		identity: identity,
	}
}

func (c *Cached) Name() string {
	return c.adapter.Name()
}

func (c *Cached) Timeout() time.Duration {
	if t, ok := c.adapter.(provider.TimeoutAware); ok {
		return t.Timeout()
	}
	return 0
}

func (c *Cached) Fetch(ctx context.Context, req model.Request) ([]model.Stream, error) {
	key := c.key(req)

	if raw, err := c.cache.Get(key); err == nil {
		var streams []model.Stream
		if err := json.Unmarshal(raw, &streams); err == nil {
			metrics.CacheHitsTotal.Inc()
			return streams, nil
		}
		log.WithContext(ctx).Warnf("Dropping unreadable cache entry for %s", c.Name())
		c.cache.Del(key)
	}
	metrics.CacheMissesTotal.Inc()

	streams, err := c.adapter.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(streams)
	if err != nil {
		log.WithContext(ctx).Warnf("Failed to encode streams of %s for the cache: %v", c.Name(), err)
		return streams, nil
	}

	if err := c.cache.Set(key, raw, int(c.ttl.Seconds())); err != nil {
		log.WithContext(ctx).Warnf("Failed to cache streams of %s: %v", c.Name(), err)
	}

	return streams, nil
}

// key hashes the identity so credentials never sit in the cache in clear.
func (c *Cached) key(req model.Request) []byte {
	h := sha1.New()
	h.Write([]byte(c.identity))
	h.Write([]byte{0})
	h.Write([]byte(string(req.Kind) + "/" + req.StremioID()))
	return h.Sum(nil)
}
