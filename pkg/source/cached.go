package source

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/creatornet/pkg/cache"
	"github.com/matzehuels/creatornet/pkg/network"
	"github.com/matzehuels/creatornet/pkg/observability"
)

// DefaultCacheTTL is how long a fetched network is served from cache.
const DefaultCacheTTL = 10 * time.Minute

// Cached serves networks from a cache, loading from the wrapped source on
// a miss. Cache failures are logged and never fail a load.
type Cached struct {
	Source
	cache   cache.Cache
	keyer   cache.Keyer
	ttl     time.Duration
	refresh bool
	logger  *log.Logger
}

// CachedOptions configures [NewCached]. Zero values take defaults.
type CachedOptions struct {
	Keyer cache.Keyer
	TTL   time.Duration
	// Refresh bypasses cached entries but still stores fresh ones.
	Refresh bool
	Logger  *log.Logger
}

// NewCached wraps src with c.
func NewCached(src Source, c cache.Cache, opts CachedOptions) *Cached {
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultCacheTTL
	}
	if opts.Logger == nil {
		opts.Logger = Options{}.withDefaults().Logger
	}
	return &Cached{Source: src, cache: c, keyer: opts.Keyer, ttl: opts.TTL, refresh: opts.Refresh, logger: opts.Logger}
}

func (c *Cached) Load(ctx context.Context, platform string) (network.Payload, error) {
	p, _, err := c.LoadWithCacheInfo(ctx, platform)
	return p, err
}

// LoadWithCacheInfo is [Cached.Load] that also reports whether the payload
// came from the cache.
func (c *Cached) LoadWithCacheInfo(ctx context.Context, platform string) (network.Payload, bool, error) {
	platform, err := platformOrDefault(platform)
	if err != nil {
		return network.Payload{}, false, err
	}
	key := c.keyer.NetworkKey(c.Source.Name(), platform)
	hooks := observability.Cache()

	if !c.refresh {
		data, hit, err := c.cache.Get(ctx, key)
		switch {
		case err != nil:
			c.logger.Warn("cache read failed", "key", key, "err", err)
		case hit:
			if p, err := network.Unmarshal(data); err == nil {
				hooks.OnCacheHit(ctx, "network")
				return p, true, nil
			}
			c.logger.Warn("dropping corrupt cache entry", "key", key)
			_ = c.cache.Delete(ctx, key)
		}
	}
	hooks.OnCacheMiss(ctx, "network")

	p, err := c.Source.Load(ctx, platform)
	if err != nil {
		return network.Payload{}, false, err
	}
	if data, err := network.Marshal(p); err == nil {
		if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.Warn("cache write failed", "key", key, "err", err)
		} else {
			hooks.OnCacheSet(ctx, "network", len(data))
		}
	}
	return p, false, nil
}
