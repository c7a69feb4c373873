// Package cache stores fetched networks and rendered artifacts.
//
// Backends implement [Cache]: [FileCache] for the CLI, [RedisCache] for
// servers sharing a cache, and [NullCache] when caching is disabled. Keys
// come from a [Keyer] so that every backend uses the same key space:
//
//	k := cache.NewDefaultKeyer()
//	key := k.NetworkKey("mongodb://db", "xiaohongshu")
//	data, hit, err := c.Get(ctx, key)
//
// A miss is reported as (nil, false, nil); errors are reserved for backend
// failures.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// NetworkKey addresses a payload fetched from source for platform.
	NetworkKey(source, platform string) string
	// LayoutKey addresses a computed frame for a network.
	LayoutKey(networkHash string, opts LayoutKeyOpts) string
	// RenderKey addresses a rendered artifact for a frame.
	RenderKey(layoutHash string, opts RenderKeyOpts) string
}

// LayoutKeyOpts are the layout parameters that change a frame.
type LayoutKeyOpts struct {
	Metric string  `json:"metric"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Seed   uint64  `json:"seed"`
	Ticks  int     `json:"ticks"`
}

// RenderKeyOpts are the render parameters that change an artifact.
type RenderKeyOpts struct {
	Format   string  `json:"format"`
	Selected string  `json:"selected,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
	Style    string  `json:"style,omitempty"`
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// NetworkKey returns "network:<source>:<platform>". Sources are hashed so
// credentials in connection strings never appear in keys.
func (DefaultKeyer) NetworkKey(source, platform string) string {
	return "network:" + Hash([]byte(source))[:16] + ":" + platform
}

// LayoutKey returns a key hashed over the network hash and opts.
func (DefaultKeyer) LayoutKey(networkHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", networkHash, opts)
}

// RenderKey returns a key hashed over the layout hash and opts.
func (DefaultKeyer) RenderKey(layoutHash string, opts RenderKeyOpts) string {
	return hashKey("render", layoutHash, opts)
}
