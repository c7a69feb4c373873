// Package cli implements the creatornet command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/creatornet/internal/config"
	"github.com/matzehuels/creatornet/pkg/buildinfo"
	"github.com/matzehuels/creatornet/pkg/cache"
	"github.com/matzehuels/creatornet/pkg/errors"
	"github.com/matzehuels/creatornet/pkg/observability"
	"github.com/matzehuels/creatornet/pkg/pipeline"
	"github.com/matzehuels/creatornet/pkg/source"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "creatornet"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before any command runs.
	Config     *config.Config
	configPath string
	noCache    bool
	sourceSpec string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Creatornet lays out and explores creator similarity networks",
		Long: `Creatornet loads a platform's creator network, lays it out with a
force-directed simulation and renders it, either as static files or live in the
terminal and over HTTP where creators can be dragged and selected.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default: "+config.Path()+")")
	flags.BoolVar(&c.noCache, "no-cache", false, "disable caching")
	flags.StringVarP(&c.sourceSpec, "source", "s", "", "network source: file, http(s) URL, mongodb:// URI or sqlite:path")

	root.AddCommand(c.fetchCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file and registers log-backed hooks.
func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	if c.sourceSpec == "" {
		c.sourceSpec = cfg.Source.Spec
	}
	hooks := &logHooks{logger: c.Logger}
	observability.SetPipelineHooks(hooks)
	observability.SetCacheHooks(hooks)
	observability.SetHTTPHooks(hooks)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. A non-empty input file
// takes precedence over the configured source.
func (c *CLI) newRunner(ctx context.Context, input string) (*pipeline.Runner, error) {
	src, err := c.openSource(ctx, input)
	if err != nil {
		return nil, err
	}
	ch, err := c.newCache(ctx)
	if err != nil {
		src.Close()
		return nil, err
	}
	return pipeline.NewRunner(src, ch, nil, c.Logger), nil
}

func (c *CLI) openSource(ctx context.Context, input string) (source.Source, error) {
	spec := c.sourceSpec
	if input != "" {
		spec = input
	}
	if spec == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig,
			"no network source: pass a network file, --source, or set source.spec in %s", config.Path())
	}
	opts := c.Config.SourceOptions(spec)
	opts.Logger = c.Logger
	return source.Open(ctx, spec, opts)
}

func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Config.Cache.Backend {
	case "none":
		return cache.NewNullCache(), nil
	case "redis":
		rc, err := cache.NewRedisCache(ctx, c.Config.RedisCacheConfig())
		if err != nil {
			c.Logger.Warn("redis cache unavailable, caching disabled", "addr", c.Config.Redis.Addr, "err", err)
			return cache.NewNullCache(), nil
		}
		return rc, nil
	}
	dir, err := c.cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// baseOptions returns pipeline options seeded from the config file.
func (c *CLI) baseOptions() pipeline.Options {
	cfg := c.Config
	return pipeline.Options{
		Platform:      cfg.Source.Platform,
		Metric:        cfg.Layout.Metric,
		Width:         cfg.Layout.Width,
		Height:        cfg.Layout.Height,
		Seed:          cfg.Layout.Seed,
		WeightedLinks: cfg.Layout.WeightedLinks,
		Formats:       cfg.Render.Formats,
		Scale:         cfg.Render.Scale,
		LabelBudget:   cfg.Render.Style.LabelBudget,
		Style:         cfg.Render.Style,
		Logger:        c.Logger,
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory, or the XDG default.
func (c *CLI) cacheDir() (string, error) {
	if c.Config != nil && c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return cacheDir()
}

// cacheDir returns the cache directory using XDG standard (~/.cache/creatornet/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// basePath returns the output path without extension. Without an explicit
// output it is derived from the input file, or from the platform.
func basePath(output, input, platform string) string {
	if output != "" {
		return strings.TrimSuffix(output, filepath.Ext(output))
	}
	input = strings.TrimPrefix(input, "file:")
	if input != "" && !strings.Contains(input, "://") && !strings.HasPrefix(input, "sqlite:") {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	return fmt.Sprintf("%s-network", platform)
}
