package layout

import (
	"fmt"

	"github.com/charmbracelet/log"
)

// Default values, matching the dashboard's canvas and force settings.
const (
	DefaultWidth           = 800
	DefaultHeight          = 640
	DefaultPadding         = 40
	DefaultLinkDistance    = 80
	DefaultLinkStrength    = 0.8
	DefaultCharge          = -400
	DefaultTheta           = 0.9
	DefaultCenterStrength  = 0.1
	DefaultCollideMargin   = 15
	DefaultCollideStrength = 1
	DefaultAlpha           = 1
	DefaultAlphaMin        = 0.001
	DefaultAlphaDecay      = 0.01
	DefaultVelocityDecay   = 0.3
	DefaultWarmStartTicks  = 700 // alpha ends just below DefaultAlphaMin
	DefaultMinRadius       = 18
	DefaultMaxRadius       = 36
	DefaultJitter          = 100
	DefaultSeed            = 42
)

// Options configures an [Engine]. Zero fields take the defaults above.
// Set WarmStartTicks to a negative value to skip the warm-start.
type Options struct {
	Width   float64
	Height  float64
	Padding float64

	LinkDistance float64
	LinkStrength float64
	// WeightedLinks scales each link's strength by 0.5 + 0.5*weight.
	WeightedLinks bool

	Charge float64 // negative repels
	Theta  float64 // Barnes-Hut accuracy, lower is more exact

	CenterStrength  float64
	CollideMargin   float64
	CollideStrength float64

	Alpha         float64
	AlphaMin      float64
	AlphaDecay    float64
	AlphaTarget   float64
	VelocityDecay float64

	WarmStartTicks int

	MinRadius float64
	MaxRadius float64

	// Jitter is the half-width of the square around the center in which
	// unseeded nodes are placed.
	Jitter float64
	Seed   uint64

	Logger *log.Logger
}

// DefaultOptions returns the dashboard defaults.
func DefaultOptions() Options {
	return Options{
		Width:           DefaultWidth,
		Height:          DefaultHeight,
		Padding:         DefaultPadding,
		LinkDistance:    DefaultLinkDistance,
		LinkStrength:    DefaultLinkStrength,
		Charge:          DefaultCharge,
		Theta:           DefaultTheta,
		CenterStrength:  DefaultCenterStrength,
		CollideMargin:   DefaultCollideMargin,
		CollideStrength: DefaultCollideStrength,
		Alpha:           DefaultAlpha,
		AlphaMin:        DefaultAlphaMin,
		AlphaDecay:      DefaultAlphaDecay,
		VelocityDecay:   DefaultVelocityDecay,
		WarmStartTicks:  DefaultWarmStartTicks,
		MinRadius:       DefaultMinRadius,
		MaxRadius:       DefaultMaxRadius,
		Jitter:          DefaultJitter,
		Seed:            DefaultSeed,
	}
}

// Validate reports options that cannot produce a layout. Zero values are
// accepted since they are replaced with defaults.
func (o Options) Validate() error {
	switch {
	case o.Width < 0 || o.Height < 0:
		return fmt.Errorf("canvas size must be positive, got %gx%g", o.Width, o.Height)
	case o.Padding < 0:
		return fmt.Errorf("padding must not be negative, got %g", o.Padding)
	case o.LinkStrength < 0 || o.LinkStrength > 1:
		return fmt.Errorf("link strength must be in [0,1], got %g", o.LinkStrength)
	case o.AlphaDecay < 0 || o.AlphaDecay >= 1:
		return fmt.Errorf("alpha decay must be in (0,1), got %g", o.AlphaDecay)
	case o.VelocityDecay < 0 || o.VelocityDecay >= 1:
		return fmt.Errorf("velocity decay must be in (0,1), got %g", o.VelocityDecay)
	case o.MinRadius < 0 || o.MaxRadius < 0:
		return fmt.Errorf("radii must not be negative")
	case o.MaxRadius != 0 && o.MinRadius > o.MaxRadius:
		return fmt.Errorf("min radius %g exceeds max radius %g", o.MinRadius, o.MaxRadius)
	}
	return nil
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.Padding <= 0 {
		o.Padding = d.Padding
	}
	if o.LinkDistance <= 0 {
		o.LinkDistance = d.LinkDistance
	}
	if o.LinkStrength <= 0 || o.LinkStrength > 1 {
		o.LinkStrength = d.LinkStrength
	}
	if o.Charge == 0 {
		o.Charge = d.Charge
	}
	if o.Theta <= 0 {
		o.Theta = d.Theta
	}
	if o.CenterStrength <= 0 || o.CenterStrength > 1 {
		o.CenterStrength = d.CenterStrength
	}
	if o.CollideMargin <= 0 {
		o.CollideMargin = d.CollideMargin
	}
	if o.CollideStrength <= 0 || o.CollideStrength > 1 {
		o.CollideStrength = d.CollideStrength
	}
	if o.Alpha <= 0 {
		o.Alpha = d.Alpha
	}
	if o.AlphaMin <= 0 {
		o.AlphaMin = d.AlphaMin
	}
	if o.AlphaDecay <= 0 || o.AlphaDecay >= 1 {
		o.AlphaDecay = d.AlphaDecay
	}
	if o.AlphaTarget < 0 {
		o.AlphaTarget = 0
	}
	if o.VelocityDecay <= 0 || o.VelocityDecay >= 1 {
		o.VelocityDecay = d.VelocityDecay
	}
	switch {
	case o.WarmStartTicks == 0:
		o.WarmStartTicks = d.WarmStartTicks
	case o.WarmStartTicks < 0:
		o.WarmStartTicks = 0
	}
	if o.MinRadius <= 0 {
		o.MinRadius = d.MinRadius
	}
	if o.MaxRadius <= 0 {
		o.MaxRadius = d.MaxRadius
	}
	if o.MinRadius > o.MaxRadius {
		o.MinRadius, o.MaxRadius = o.MaxRadius, o.MinRadius
	}
	if o.Jitter <= 0 {
		o.Jitter = d.Jitter
	}
	return o
}
