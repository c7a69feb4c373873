// Package pipeline runs the load → layout → render pipeline for creatornet.
//
// The CLI and the HTTP server both go through a [Runner], so a network
// loaded, laid out and rendered from either entry point comes out the same
// and shares cache entries.
//
// The pipeline has three stages:
//
//  1. Load: fetch the latest creator network for a platform from a source
//  2. Layout: run the force simulation until it settles
//  3. Render: draw the settled frame in one or more formats
//
// Each stage can run on its own:
//
//	runner := pipeline.NewRunner(src, c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Platform: "xiaohongshu",
//	    Formats:  []string{"svg", "png"},
//	})
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/creatornet/pkg/cache"
	"github.com/matzehuels/creatornet/pkg/errors"
	"github.com/matzehuels/creatornet/pkg/layout"
	"github.com/matzehuels/creatornet/pkg/network"
	"github.com/matzehuels/creatornet/pkg/render"
	"github.com/matzehuels/creatornet/pkg/scene"
	"github.com/matzehuels/creatornet/pkg/source"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultMaxTicks caps how long a static layout may run to settle after
	// its warm-start.
	DefaultMaxTicks = 2000

	// DefaultScale is the PNG raster scale.
	DefaultScale = 2.0

	// DefaultFormat is rendered when no format is requested.
	DefaultFormat = string(render.FormatSVG)
)

// Cache lifetimes per stage.
const (
	TTLNetwork = 10 * time.Minute
	TTLLayout  = 24 * time.Hour
	TTLRender  = 24 * time.Hour
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options
	Platform string `json:"platform,omitempty"`
	Refresh  bool   `json:"refresh,omitempty"`

	// Layout options
	Metric string  `json:"metric,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Seed   uint64  `json:"seed,omitempty"`
	// Ticks is how many ticks to run after the warm-start. Zero runs until
	// the layout settles; a negative value keeps the warm-start frame.
	Ticks int `json:"ticks,omitempty"`
	// WeightedLinks scales link strength by edge weight.
	WeightedLinks bool `json:"weighted_links,omitempty"`

	// Render options
	Formats     []string    `json:"formats,omitempty"`
	Selected    string      `json:"selected,omitempty"`
	Scale       float64     `json:"scale,omitempty"`
	Title       string      `json:"title,omitempty"`
	Interactive bool        `json:"interactive,omitempty"`
	LabelBudget int         `json:"label_budget,omitempty"`
	Style       scene.Style `json:"-"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Network is the loaded payload.
	Network network.Payload

	// NetworkHash is the content hash of the payload.
	NetworkHash string

	// Frame is the settled layout.
	Frame layout.Frame

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	Ticks      uint64
	LoadTime   time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	NetworkHit bool // Whether the payload came from cache
	LayoutHit  bool // Whether the frame came from cache
	RenderHit  bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	f, err := render.ParseFormat(format)
	if err != nil {
		return err
	}
	if string(f) != format {
		return errors.New(errors.ErrCodeInvalidFormat, "format %q must be lower case", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateMetric checks that a metric is valid.
func ValidateMetric(metric string) error {
	if _, err := network.ParseMetric(metric); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid metric")
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks the platform and applies load defaults.
func (o *Options) ValidateForLoad() error {
	if o.Platform == "" {
		o.Platform = source.DefaultPlatform
	}
	if err := errors.ValidatePlatform(o.Platform); err != nil {
		return err
	}
	o.setLogger()
	return nil
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	if err := ValidateMetric(o.Metric); err != nil {
		return err
	}
	m, _ := network.ParseMetric(o.Metric)
	o.Metric = string(m)
	if o.Width < 0 || o.Height < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "canvas size must be positive, got %gx%g", o.Width, o.Height)
	}
	if o.Width == 0 {
		o.Width = layout.DefaultWidth
	}
	if o.Height == 0 {
		o.Height = layout.DefaultHeight
	}
	if o.Seed == 0 {
		o.Seed = layout.DefaultSeed
	}
	o.setLogger()
	return nil
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	if o.Style == (scene.Style{}) {
		o.Style = scene.DefaultStyle()
	}
	if o.LabelBudget > 0 {
		o.Style.LabelBudget = o.LabelBudget
	}
	o.setLogger()
	return nil
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// LayoutOptions returns the engine options for these pipeline options.
func (o *Options) LayoutOptions() layout.Options {
	lo := layout.DefaultOptions()
	lo.Width, lo.Height = o.Width, o.Height
	lo.Seed = o.Seed
	lo.WeightedLinks = o.WeightedLinks
	lo.Logger = o.Logger
	return lo
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	metric := o.Metric
	if o.WeightedLinks {
		metric += "+weighted"
	}
	return cache.LayoutKeyOpts{
		Metric: metric,
		Width:  o.Width,
		Height: o.Height,
		Seed:   o.Seed,
		Ticks:  o.Ticks,
	}
}

// RenderKeyOpts returns cache key options for rendering format.
func (o *Options) RenderKeyOpts(format string) cache.RenderKeyOpts {
	return cache.RenderKeyOpts{
		Format:   format,
		Selected: o.Selected,
		Scale:    o.Scale,
		Style:    styleHash(o.Style, o.Title, o.Interactive),
	}
}

func styleHash(s scene.Style, title string, interactive bool) string {
	return cache.Hash(fmt.Appendf(nil, "%+v|%s|%t", s, title, interactive))[:16]
}
