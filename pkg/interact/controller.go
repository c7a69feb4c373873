// Package interact turns pointer events into pin overrides and selections
// on a running layout.
//
// A [Controller] is either Idle or Dragging one node. Pressing a node pins it
// under the pointer and reheats the simulation; moving drags the pin;
// releasing schedules the unpin. A click selects a node unless it ends a drag
// that moved and started less than ClickWindow ago, which is how a drag is
// told apart from a click when the platform reports both.
//
//	c := interact.NewController(engine, interact.FitView(800, 640, w, h), interact.Options{
//	    OnSelect: func(id string) { selected = id },
//	})
//	c.PointerDown("42", interact.Point{X: 310, Y: 220})
//	c.PointerMove(interact.Point{X: 360, Y: 240})
//	c.PointerUp()
//
// Events for nodes that no longer exist are ignored and leave the controller
// Idle. The controller is not safe for concurrent use; it belongs to the
// goroutine that owns the simulation.
package interact

import (
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/creatornet/pkg/errors"
)

// Defaults for [Options].
const (
	DefaultClickWindow  = 200 * time.Millisecond
	DefaultGrabAlpha    = 0.3
	DefaultDragAlpha    = 0.5
	DefaultReleaseAlpha = 0.3
)

// Simulation is the part of a layout engine the controller drives.
// *layout.Engine implements it.
type Simulation interface {
	Has(id string) bool
	Pin(id string, x, y float64) bool
	Unpin(id string) bool
	Reheat(alpha float64)
}

// State is the controller's gesture state.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Options configures a [Controller]. Zero fields take defaults.
type Options struct {
	// ClickWindow is how long after a press a click is still treated as
	// the end of a drag that moved.
	ClickWindow time.Duration
	// MoveTolerance is the screen distance from the press point a move must
	// reach to count as movement. Zero counts every move.
	MoveTolerance float64

	GrabAlpha    float64
	DragAlpha    float64
	ReleaseAlpha float64

	// Now returns the current time; tests substitute a fake clock.
	Now func() time.Time
	// OnSelect is called with the id of a clicked node.
	OnSelect func(id string)
	Logger   *log.Logger
}

func (o Options) withDefaults() Options {
	if o.ClickWindow <= 0 {
		o.ClickWindow = DefaultClickWindow
	}
	if o.MoveTolerance < 0 {
		o.MoveTolerance = 0
	}
	if o.GrabAlpha <= 0 {
		o.GrabAlpha = DefaultGrabAlpha
	}
	if o.DragAlpha <= 0 {
		o.DragAlpha = DefaultDragAlpha
	}
	if o.ReleaseAlpha <= 0 {
		o.ReleaseAlpha = DefaultReleaseAlpha
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o
}

// Controller is the pointer state machine for one simulation.
type Controller struct {
	sim  Simulation
	view View
	opts Options

	state State
	node  string
	press Point

	// Gesture bookkeeping survives the release so that the click the
	// platform sends after pointer up can be classified.
	start time.Time
	moved bool
}

// NewController returns an Idle controller for sim.
func NewController(sim Simulation, view View, opts Options) *Controller {
	return &Controller{sim: sim, view: view, opts: opts.withDefaults()}
}

// Attach replaces the simulation after the input changed. Any drag in
// progress is abandoned.
func (c *Controller) Attach(sim Simulation) {
	c.sim = sim
	c.reset()
	c.moved = false
}

// SetView updates the screen transform, for example after a resize.
func (c *Controller) SetView(v View) { c.view = v }

// View returns the current screen transform.
func (c *Controller) View() View { return c.view }

// State returns the gesture state.
func (c *Controller) State() State { return c.state }

// DragNode returns the node being dragged.
func (c *Controller) DragNode() (string, bool) {
	return c.node, c.state == Dragging
}

// PointerDown starts dragging id from screen point p. It returns false when
// a drag is already in progress or id is not in the simulation.
func (c *Controller) PointerDown(id string, p Point) bool {
	if c.state == Dragging {
		c.opts.Logger.Debug("ignored pointer down during drag",
			"node", id, "dragging", c.node, "code", errors.ErrCodeInteractionRace)
		return false
	}
	if c.sim == nil || !c.sim.Has(id) {
		c.stale(id)
		return false
	}

	c.state = Dragging
	c.node = id
	c.press = p
	c.start = c.opts.Now()
	c.moved = false

	s := c.view.ScreenToSimulation(p)
	c.sim.Pin(id, s.X, s.Y)
	c.sim.Reheat(c.opts.GrabAlpha)
	return true
}

// PointerMove drags the pinned node to screen point p.
func (c *Controller) PointerMove(p Point) {
	if c.state != Dragging {
		return
	}
	if !c.sim.Has(c.node) {
		c.stale(c.node)
		c.reset()
		return
	}

	s := c.view.ScreenToSimulation(p)
	c.sim.Pin(c.node, s.X, s.Y)
	if math.Hypot(p.X-c.press.X, p.Y-c.press.Y) >= c.opts.MoveTolerance {
		c.moved = true
	}
	c.sim.Reheat(c.opts.DragAlpha)
}

// PointerUp ends the drag. The pin is released on the simulation's next tick.
func (c *Controller) PointerUp() {
	if c.state != Dragging {
		return
	}
	if c.sim.Has(c.node) {
		c.sim.Unpin(c.node)
		c.sim.Reheat(c.opts.ReleaseAlpha)
	} else {
		c.stale(c.node)
	}
	c.reset()
}

// PointerLeave ends the drag like [Controller.PointerUp].
func (c *Controller) PointerLeave() { c.PointerUp() }

// Click reports a click on id. It calls OnSelect and returns true unless
// the click ends a drag that moved and started within ClickWindow, or id is
// not in the simulation.
func (c *Controller) Click(id string) bool {
	if c.moved && c.opts.Now().Sub(c.start) < c.opts.ClickWindow {
		c.opts.Logger.Debug("suppressed click after drag", "node", id)
		c.moved = false
		return false
	}
	if c.sim == nil || !c.sim.Has(id) {
		c.stale(id)
		return false
	}
	if c.opts.OnSelect != nil {
		c.opts.OnSelect(id)
	}
	return true
}

func (c *Controller) reset() {
	c.state = Idle
	c.node = ""
}

func (c *Controller) stale(id string) {
	c.opts.Logger.Debug("ignored event for unknown node", "node", id, "code", errors.ErrCodeInteractionRace)
}
