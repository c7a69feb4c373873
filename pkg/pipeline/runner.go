package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/creatornet/pkg/cache"
	"github.com/matzehuels/creatornet/pkg/errors"
	"github.com/matzehuels/creatornet/pkg/layout"
	"github.com/matzehuels/creatornet/pkg/network"
	"github.com/matzehuels/creatornet/pkg/observability"
	"github.com/matzehuels/creatornet/pkg/source"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for its source, cache and logger - it
// doesn't store pipeline results. Multiple goroutines can safely use the
// same Runner with different options.
type Runner struct {
	Source source.Source
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner reading from src.
// If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (caching disabled).
func NewRunner(src source.Source, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Source: src,
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	p, networkHit, err := r.LoadNetworkWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Network = p
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.NodeCount = len(p.Creators)
	result.Stats.EdgeCount = len(p.CreatorEdges)
	result.CacheInfo.NetworkHit = networkHit
	result.NetworkHash = networkHash(p)

	r.Logger.Info("loaded network",
		"platform", opts.Platform,
		"creators", len(p.Creators),
		"edges", len(p.CreatorEdges),
		"duration", result.Stats.LoadTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	frame, layoutHit, err := r.LayoutWithCacheInfo(ctx, p, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Frame = frame
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.Ticks = frame.Tick
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"nodes", len(frame.Nodes),
		"ticks", frame.Tick,
		"alpha", frame.Alpha,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, frame, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LoadNetworkWithCacheInfo loads the platform's network and reports whether
// it came from cache.
func (r *Runner) LoadNetworkWithCacheInfo(ctx context.Context, opts Options) (network.Payload, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLoad(); err != nil {
		return network.Payload{}, false, err
	}
	if r.Source == nil {
		return network.Payload{}, false, errors.New(errors.ErrCodeInvalidConfig, "no network source configured")
	}

	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, r.Source.Name(), opts.Platform)
	start := time.Now()

	cached := source.NewCached(r.Source, r.Cache, source.CachedOptions{
		Keyer:   r.Keyer,
		TTL:     TTLNetwork,
		Refresh: opts.Refresh,
		Logger:  opts.Logger,
	})
	p, hit, err := cached.LoadWithCacheInfo(ctx, opts.Platform)
	hooks.OnLoadComplete(ctx, r.Source.Name(), opts.Platform, len(p.Creators), time.Since(start), err)
	return p, hit, err
}

// LoadNetwork is a convenience wrapper that calls LoadNetworkWithCacheInfo and discards the cache hit info.
func (r *Runner) LoadNetwork(ctx context.Context, opts Options) (network.Payload, error) {
	p, _, err := r.LoadNetworkWithCacheInfo(ctx, opts)
	return p, err
}

// ComputeLayout builds a live engine for p and runs it as far as opts.Ticks
// asks. The engine is returned so callers can keep interacting with it.
func (r *Runner) ComputeLayout(ctx context.Context, p network.Payload, opts Options) (*layout.Engine, layout.Frame, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return nil, layout.Frame{}, err
	}
	return computeLayout(ctx, p, opts)
}

// LayoutWithCacheInfo returns the settled frame for p, from cache when
// possible.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, p network.Payload, opts Options) (layout.Frame, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return layout.Frame{}, false, err
	}

	cacheKey := r.Keyer.LayoutKey(networkHash(p), opts.LayoutKeyOpts())
	hooks := observability.Cache()

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var f layout.Frame
			if err := json.Unmarshal(data, &f); err == nil {
				hooks.OnCacheHit(ctx, "layout")
				return f, true, nil // Cache hit
			}
			// If deserialization fails, fall through to recompute
		}
	}
	hooks.OnCacheMiss(ctx, "layout")

	engine, frame, err := computeLayout(ctx, p, opts)
	if err != nil {
		return layout.Frame{}, false, err
	}
	engine.Stop()

	if data, err := json.Marshal(frame); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, TTLLayout); err == nil {
			hooks.OnCacheSet(ctx, "layout", len(data))
		}
	}
	return frame, false, nil // Cache miss
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, p network.Payload, opts Options) (layout.Frame, error) {
	f, _, err := r.LayoutWithCacheInfo(ctx, p, opts)
	return f, err
}

// RenderWithCacheInfo draws frame in every requested format and reports
// whether all artifacts came from cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, frame layout.Frame, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	frameData, err := json.Marshal(frame)
	if err != nil {
		return nil, false, fmt.Errorf("serialize frame for cache key: %w", err)
	}
	frameHash := cache.Hash(frameData)
	hooks := observability.Cache()

	// Try to get all formats from cache
	artifacts := make(map[string][]byte, len(opts.Formats))
	if !opts.Refresh {
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.RenderKey(frameHash, opts.RenderKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, cacheKey)
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			hooks.OnCacheHit(ctx, "render")
			return artifacts, true, nil // All artifacts from cache
		}
	}
	hooks.OnCacheMiss(ctx, "render")

	rendered, err := RenderFrame(ctx, frame, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.RenderKey(frameHash, opts.RenderKeyOpts(format))
		if err := r.Cache.Set(ctx, cacheKey, data, TTLRender); err == nil {
			hooks.OnCacheSet(ctx, "render", len(data))
		}
	}
	return rendered, false, nil // Cache miss
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, frame layout.Frame, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, frame, opts)
	return artifacts, err
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	var errs []error
	if r.Source != nil {
		if err := r.Source.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if r.Cache != nil {
		if err := r.Cache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// networkHash hashes the canonical JSON encoding of p.
func networkHash(p network.Payload) string {
	data, err := network.Marshal(p)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}
