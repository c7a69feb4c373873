// Package config loads the creatornet configuration file.
//
// The file lives at $XDG_CONFIG_HOME/creatornet/config.toml (falling back to
// ~/.config/creatornet/config.toml). A missing file yields [Default]. Values
// set on the command line override the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/creatornet/pkg/cache"
	"github.com/matzehuels/creatornet/pkg/errors"
	"github.com/matzehuels/creatornet/pkg/interact"
	"github.com/matzehuels/creatornet/pkg/layout"
	"github.com/matzehuels/creatornet/pkg/network"
	"github.com/matzehuels/creatornet/pkg/render"
	"github.com/matzehuels/creatornet/pkg/scene"
	"github.com/matzehuels/creatornet/pkg/session"
	"github.com/matzehuels/creatornet/pkg/source"
)

// Config holds creatornet configuration.
type Config struct {
	Source      SourceConfig      `toml:"source"`
	Mongo       MongoConfig       `toml:"mongo"`
	SQLite      SQLiteConfig      `toml:"sqlite"`
	Redis       RedisConfig       `toml:"redis"`
	Cache       CacheConfig       `toml:"cache"`
	Layout      LayoutConfig      `toml:"layout"`
	Interaction InteractionConfig `toml:"interaction"`
	Render      RenderConfig      `toml:"render"`
	Server      ServerConfig      `toml:"server"`
}

// SourceConfig selects where networks are loaded from.
type SourceConfig struct {
	// Spec is a file path, http(s) URL, mongodb:// URI or sqlite: path.
	Spec     string   `toml:"spec"`
	Platform string   `toml:"platform"`
	Timeout  Duration `toml:"timeout"`
}

// MongoConfig overrides the names used by mongodb:// sources.
type MongoConfig struct {
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// SQLiteConfig configures sqlite: sources.
type SQLiteConfig struct {
	Table string `toml:"table"`
	// Keep is how many snapshots per platform `fetch` retains; 0 keeps all.
	Keep int `toml:"keep"`
}

// RedisConfig configures the redis cache backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend string `toml:"backend"` // "file", "redis", "none"
	Dir     string `toml:"dir"`
}

// LayoutConfig mirrors the force settings of layout.Options.
type LayoutConfig struct {
	Width          float64 `toml:"width"`
	Height         float64 `toml:"height"`
	Metric         string  `toml:"metric"`
	Seed           uint64  `toml:"seed"`
	WarmStartTicks int     `toml:"warm_start_ticks"`
	WeightedLinks  bool    `toml:"weighted_links"`
	LinkDistance   float64 `toml:"link_distance"`
	Charge         float64 `toml:"charge"`
	AlphaDecay     float64 `toml:"alpha_decay"`
	VelocityDecay  float64 `toml:"velocity_decay"`
	MinRadius      float64 `toml:"min_radius"`
	MaxRadius      float64 `toml:"max_radius"`
}

// InteractionConfig tunes drag and click handling.
type InteractionConfig struct {
	ClickWindow   Duration `toml:"click_window"`
	MoveTolerance float64  `toml:"move_tolerance"`
}

// RenderConfig controls static exports.
type RenderConfig struct {
	Formats []string    `toml:"formats"`
	Scale   float64     `toml:"scale"`
	Style   scene.Style `toml:"style"`
}

// ServerConfig controls `creatornet serve`.
type ServerConfig struct {
	Addr            string   `toml:"addr"`
	FrameInterval   Duration `toml:"frame_interval"`
	SessionTTL      Duration `toml:"session_ttl"`
	CleanupInterval Duration `toml:"cleanup_interval"`
}

// Default returns the default configuration.
func Default() *Config {
	lo := layout.DefaultOptions()
	return &Config{
		Source: SourceConfig{
			Platform: source.DefaultPlatform,
			Timeout:  Duration(15 * time.Second),
		},
		Mongo:  MongoConfig{Collection: "creator_networks"},
		SQLite: SQLiteConfig{Table: "creator_networks", Keep: 20},
		Redis:  RedisConfig{Addr: "localhost:6379", Prefix: "creatornet:"},
		Cache:  CacheConfig{Backend: "file"},
		Layout: LayoutConfig{
			Width:          lo.Width,
			Height:         lo.Height,
			Metric:         string(network.MetricFollowers),
			Seed:           lo.Seed,
			WarmStartTicks: lo.WarmStartTicks,
			LinkDistance:   lo.LinkDistance,
			Charge:         lo.Charge,
			AlphaDecay:     lo.AlphaDecay,
			VelocityDecay:  lo.VelocityDecay,
			MinRadius:      lo.MinRadius,
			MaxRadius:      lo.MaxRadius,
		},
		Interaction: InteractionConfig{ClickWindow: Duration(interact.DefaultClickWindow)},
		Render: RenderConfig{
			Formats: []string{string(render.FormatSVG)},
			Scale:   2,
			Style:   scene.DefaultStyle(),
		},
		Server: ServerConfig{
			Addr:            "localhost:8080",
			FrameInterval:   Duration(session.DefaultFrameInterval),
			SessionTTL:      Duration(session.DefaultTTL),
			CleanupInterval: Duration(time.Minute),
		},
	}
}

// ConfigDir returns the creatornet config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "creatornet")
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config at path over the defaults. An empty path means
// [Path]; a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = Path()
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config")
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path, creating its directory.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
// It reports whether a file was written.
func EnsureExists(path string) (bool, error) {
	if path == "" {
		path = Path()
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	return true, Save(Default(), path)
}

// Validate rejects settings no command can run with.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return errors.New(errors.ErrCodeInvalidConfig, format, args...)
	}
	if err := c.LayoutOptions().Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "layout")
	}
	if c.Layout.Width <= 0 || c.Layout.Height <= 0 {
		return invalid("layout canvas must be positive, got %gx%g", c.Layout.Width, c.Layout.Height)
	}
	if c.Layout.AlphaDecay <= 0 {
		return invalid("layout alpha_decay must be in (0,1), got %g", c.Layout.AlphaDecay)
	}
	if _, err := network.ParseMetric(c.Layout.Metric); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "layout metric")
	}
	if c.Source.Platform != "" {
		if err := errors.ValidatePlatform(c.Source.Platform); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "source platform")
		}
	}
	switch c.Cache.Backend {
	case "", "file", "redis", "none":
	default:
		return invalid("unknown cache backend %q", c.Cache.Backend)
	}
	for _, f := range c.Render.Formats {
		if _, err := render.ParseFormat(f); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "render formats")
		}
	}
	if c.Interaction.ClickWindow < 0 || c.Server.FrameInterval < 0 || c.Server.SessionTTL < 0 {
		return invalid("durations must not be negative")
	}
	return nil
}

// LayoutOptions converts the [layout] section.
func (c *Config) LayoutOptions() layout.Options {
	lo := layout.DefaultOptions()
	lo.Width = c.Layout.Width
	lo.Height = c.Layout.Height
	lo.Seed = c.Layout.Seed
	lo.WarmStartTicks = c.Layout.WarmStartTicks
	lo.WeightedLinks = c.Layout.WeightedLinks
	lo.LinkDistance = c.Layout.LinkDistance
	lo.Charge = c.Layout.Charge
	lo.AlphaDecay = c.Layout.AlphaDecay
	lo.VelocityDecay = c.Layout.VelocityDecay
	lo.MinRadius = c.Layout.MinRadius
	lo.MaxRadius = c.Layout.MaxRadius
	return lo
}

// InteractOptions converts the [interaction] section.
func (c *Config) InteractOptions() interact.Options {
	return interact.Options{
		ClickWindow:   c.Interaction.ClickWindow.Std(),
		MoveTolerance: c.Interaction.MoveTolerance,
	}
}

// SourceOptions converts the [source], [mongo] and [sqlite] sections for
// the backend named by spec.
func (c *Config) SourceOptions(spec string) source.Options {
	opts := source.Options{
		Timeout:    c.Source.Timeout.Std(),
		Database:   c.Mongo.Database,
		Collection: c.Mongo.Collection,
	}
	if strings.HasPrefix(spec, "sqlite:") {
		opts.Collection = c.SQLite.Table
	}
	return opts
}

// RedisCacheConfig converts the [redis] section.
func (c *Config) RedisCacheConfig() cache.RedisConfig {
	return cache.RedisConfig{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		Prefix:   c.Redis.Prefix,
	}
}

// SessionOptions converts the [server] and [interaction] sections.
func (c *Config) SessionOptions() session.Options {
	return session.Options{
		Layout:        c.LayoutOptions(),
		Interact:      c.InteractOptions(),
		FrameInterval: c.Server.FrameInterval.Std(),
		TTL:           c.Server.SessionTTL.Std(),
	}
}

// Duration is a time.Duration written as a string ("200ms") in TOML.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", b, err)
	}
	*d = Duration(v)
	return nil
}
