package layout

import (
	"io"
	"math"
	"math/rand/v2"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/creatornet/pkg/errors"
	"github.com/matzehuels/creatornet/pkg/network"
)

type body struct {
	id        string
	name      string
	magnitude float64

	x, y   float64
	vx, vy float64
	r      float64
	degree int

	pinned bool
	fx, fy float64
}

type link struct {
	source, target int
	weight         float64
	strength       float64
	bias           float64 // share of the correction applied to the target
}

// Engine is a force-directed simulation over a fixed set of nodes and links.
type Engine struct {
	opts   Options
	logger *log.Logger
	rng    *rand.Rand

	nodes   []body
	index   map[string]int
	links   []link
	dropped []network.Edge

	alpha       float64
	alphaTarget float64
	tick        uint64
	stopped     bool
	unpin       []int

	dv        []r2.Vec
	particles particles
}

// New builds an engine for g and runs the warm-start. It never fails:
// malformed input is repaired and logged.
func New(g network.Graph, opts Options) *Engine {
	opts = opts.withDefaults()
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	e := &Engine{
		opts:        opts,
		logger:      logger,
		rng:         rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
		index:       make(map[string]int, len(g.Nodes)),
		alpha:       opts.Alpha,
		alphaTarget: opts.AlphaTarget,
	}
	e.addNodes(g.Nodes)
	e.addLinks(g.Edges)
	e.dv = make([]r2.Vec, len(e.nodes))

	for i := 0; i < opts.WarmStartTicks; i++ {
		e.step()
	}
	e.logger.Debug("layout ready",
		"nodes", len(e.nodes), "links", len(e.links), "dropped", len(e.dropped),
		"ticks", e.tick, "alpha", e.alpha)
	return e
}

func (e *Engine) addNodes(nodes []network.Node) {
	e.nodes = make([]body, 0, len(nodes))
	for _, n := range nodes {
		if n.ID == "" {
			e.logger.Warn("dropped node", "reason", "empty id", "code", errors.ErrCodeDataIntegrity)
			continue
		}
		if _, dup := e.index[n.ID]; dup {
			e.logger.Warn("dropped node", "id", n.ID, "reason", "duplicate id", "code", errors.ErrCodeDataIntegrity)
			continue
		}
		e.index[n.ID] = len(e.nodes)
		b := body{id: n.ID, name: n.Name, magnitude: n.Magnitude}
		if n.Position.IsSet() {
			b.x = n.Position.X / 100 * e.opts.Width
			b.y = n.Position.Y / 100 * e.opts.Height
		} else {
			b.x, b.y = e.seedPoint()
		}
		e.clamp(&b)
		e.nodes = append(e.nodes, b)
	}

	mags := make([]float64, len(e.nodes))
	for i := range e.nodes {
		mags[i] = e.nodes[i].magnitude
	}
	for i, r := range Radii(mags, e.opts.MinRadius, e.opts.MaxRadius) {
		e.nodes[i].r = r
	}
}

func (e *Engine) addLinks(edges []network.Edge) {
	for _, edge := range edges {
		s, okS := e.index[edge.Source]
		t, okT := e.index[edge.Target]
		reason := ""
		switch {
		case !okS || !okT:
			reason = "unknown node"
		case s == t:
			reason = "self loop"
		}
		if reason != "" {
			e.dropped = append(e.dropped, edge)
			e.logger.Warn("dropped edge",
				"source", edge.Source, "target", edge.Target,
				"reason", reason, "code", errors.ErrCodeDataIntegrity)
			continue
		}

		w := edge.Weight
		if !finite(w) {
			w = 0
		}
		w = math.Max(0, math.Min(1, w))
		strength := e.opts.LinkStrength
		if e.opts.WeightedLinks {
			strength *= 0.5 + 0.5*w
		}
		e.links = append(e.links, link{source: s, target: t, weight: w, strength: strength})
		e.nodes[s].degree++
		e.nodes[t].degree++
	}
	for i := range e.links {
		l := &e.links[i]
		ds, dt := e.nodes[l.source].degree, e.nodes[l.target].degree
		l.bias = float64(ds) / float64(ds+dt)
	}
}

// seedPoint returns a point within Jitter of the canvas center.
func (e *Engine) seedPoint() (float64, float64) {
	cx, cy := e.opts.Width/2, e.opts.Height/2
	return cx + (e.rng.Float64()-0.5)*2*e.opts.Jitter, cy + (e.rng.Float64()-0.5)*2*e.opts.Jitter
}

// Tick advances the simulation by one step. It returns false, without
// changing anything, once the engine has been stopped.
func (e *Engine) Tick() bool {
	if e.stopped {
		return false
	}
	e.step()
	return true
}

// Step runs up to n ticks and returns how many ran.
func (e *Engine) Step(n int) int {
	ran := 0
	for ; ran < n && e.Tick(); ran++ {
	}
	return ran
}

func (e *Engine) step() {
	e.alpha += (e.alphaTarget - e.alpha) * e.opts.AlphaDecay

	for _, i := range e.unpin {
		e.nodes[i].pinned = false
	}
	e.unpin = e.unpin[:0]

	if e.Settled() {
		e.rest()
		return
	}

	clear(e.dv)
	e.applyLinks()
	e.applyCharge()
	e.applyCollide()
	shift := e.centerShift()

	keep := 1 - e.opts.VelocityDecay
	for i := range e.nodes {
		b := &e.nodes[i]
		if b.pinned {
			b.x, b.y = b.fx, b.fy
			b.vx, b.vy = 0, 0
		} else {
			b.vx = (b.vx + e.dv[i].X) * keep
			b.vy = (b.vy + e.dv[i].Y) * keep
			b.x += b.vx + shift.X
			b.y += b.vy + shift.Y
		}
		if !finite(b.x) || !finite(b.y) || !finite(b.vx) || !finite(b.vy) {
			e.logger.Warn("reseeded node", "id", b.id, "tick", e.tick, "code", errors.ErrCodeNumericInstability)
			b.x, b.y = e.seedPoint()
			b.vx, b.vy = 0, 0
		}
		e.clamp(b)
	}
	e.tick++
}

// rest is a tick below AlphaMin: no forces run, free nodes stay where they
// are and pinned nodes follow their pins.
func (e *Engine) rest() {
	for i := range e.nodes {
		b := &e.nodes[i]
		b.vx, b.vy = 0, 0
		if b.pinned {
			b.x, b.y = b.fx, b.fy
			e.clamp(b)
		}
	}
	e.tick++
}

// clamp keeps b inside the padded canvas. Velocity pointing out of the
// canvas is dropped so nodes do not keep pushing against the border.
func (e *Engine) clamp(b *body) {
	b.x, b.vx = clampAxis(b.x, b.vx, e.opts.Padding, e.opts.Width-e.opts.Padding)
	b.y, b.vy = clampAxis(b.y, b.vy, e.opts.Padding, e.opts.Height-e.opts.Padding)
}

func clampAxis(p, v, lo, hi float64) (float64, float64) {
	if hi < lo {
		return (lo + hi) / 2, 0
	}
	switch {
	case p < lo:
		return lo, math.Max(v, 0)
	case p > hi:
		return hi, math.Min(v, 0)
	}
	return p, v
}

// Stop halts the engine. Later ticks are no-ops. Stop is idempotent.
func (e *Engine) Stop() {
	if e.stopped {
		return
	}
	e.stopped = true
	e.unpin = nil
	e.logger.Debug("layout stopped", "ticks", e.tick, "alpha", e.alpha)
}

// Stopped reports whether Stop was called.
func (e *Engine) Stopped() bool { return e.stopped }

// Alpha returns the current simulation temperature.
func (e *Engine) Alpha() float64 { return e.alpha }

// Ticks returns the number of ticks run, warm-start included.
func (e *Engine) Ticks() uint64 { return e.tick }

// Settled reports whether alpha has dropped below AlphaMin. Ticks on a
// settled engine only move pinned nodes; frame loops use this to go idle.
func (e *Engine) Settled() bool { return e.alpha < e.opts.AlphaMin }

// Reheat sets alpha so that a settled layout moves again.
func (e *Engine) Reheat(alpha float64) {
	if e.stopped || !finite(alpha) || alpha < 0 {
		return
	}
	e.alpha = alpha
}

// Has reports whether id is a node of this engine.
func (e *Engine) Has(id string) bool {
	_, ok := e.index[id]
	return ok
}

// Len returns the number of nodes.
func (e *Engine) Len() int { return len(e.nodes) }

// Pin fixes a node at (x, y) until [Engine.Unpin]. The node's committed
// position is still clamped into the canvas. It returns false for unknown
// ids, non-finite coordinates or a stopped engine.
func (e *Engine) Pin(id string, x, y float64) bool {
	i, ok := e.index[id]
	if !ok || e.stopped {
		return false
	}
	if !finite(x) || !finite(y) {
		e.logger.Debug("ignored pin", "id", id, "code", errors.ErrCodeNumericInstability)
		return false
	}
	b := &e.nodes[i]
	b.pinned = true
	b.fx, b.fy = x, y
	e.unpin = deleteIndex(e.unpin, i)
	return true
}

// Unpin releases a pinned node at the start of the next tick.
func (e *Engine) Unpin(id string) bool {
	i, ok := e.index[id]
	if !ok || e.stopped || !e.nodes[i].pinned {
		return false
	}
	for _, j := range e.unpin {
		if j == i {
			return true
		}
	}
	e.unpin = append(e.unpin, i)
	return true
}

func deleteIndex(s []int, v int) []int {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

// Radius returns the radius of the node with the given id.
func (e *Engine) Radius(id string) (float64, bool) {
	i, ok := e.index[id]
	if !ok {
		return 0, false
	}
	return e.nodes[i].r, true
}

// Degree returns the number of links touching the node.
func (e *Engine) Degree(id string) int {
	if i, ok := e.index[id]; ok {
		return e.nodes[i].degree
	}
	return 0
}

// Dropped returns the edges discarded during construction.
func (e *Engine) Dropped() []network.Edge {
	return append([]network.Edge(nil), e.dropped...)
}

// Options returns the effective options, defaults applied.
func (e *Engine) Options() Options { return e.opts }

// Snapshot copies the current state. The frame shares no memory with the
// engine.
func (e *Engine) Snapshot() Frame {
	f := Frame{
		Tick:   e.tick,
		Alpha:  e.alpha,
		Width:  e.opts.Width,
		Height: e.opts.Height,
		Nodes:  make([]NodeState, len(e.nodes)),
		Links:  make([]Link, len(e.links)),
	}
	for i := range e.nodes {
		b := &e.nodes[i]
		n := NodeState{
			ID:        b.id,
			Name:      b.name,
			Magnitude: b.magnitude,
			X:         b.x,
			Y:         b.y,
			VX:        b.vx,
			VY:        b.vy,
			Radius:    b.r,
			Degree:    b.degree,
		}
		if b.pinned {
			fx, fy := b.fx, b.fy
			n.FX, n.FY = &fx, &fy
		}
		f.Nodes[i] = n
	}
	for i, l := range e.links {
		f.Links[i] = Link{Source: e.nodes[l.source].id, Target: e.nodes[l.target].id, Weight: l.weight}
	}
	return f
}
