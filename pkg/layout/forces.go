package layout

import (
	"math"

	"gonum.org/v1/gonum/spatial/barneshut"
	"gonum.org/v1/gonum/spatial/r2"
)

// minDistance2 bounds the squared distance used by the charge force so that
// near-coincident nodes do not receive unbounded impulses.
const minDistance2 = 1

// jiggle returns a tiny non-zero offset used to separate coincident nodes.
func (e *Engine) jiggle() float64 {
	return (e.rng.Float64() - 0.5) * 1e-6
}

// applyLinks pulls linked nodes toward LinkDistance, using positions
// extrapolated by one step of velocity.
func (e *Engine) applyLinks() {
	for _, l := range e.links {
		s, t := &e.nodes[l.source], &e.nodes[l.target]
		dx := t.x + t.vx - s.x - s.vx
		dy := t.y + t.vy - s.y - s.vy
		if dx == 0 {
			dx = e.jiggle()
		}
		if dy == 0 {
			dy = e.jiggle()
		}
		d := math.Hypot(dx, dy)
		k := (d - e.opts.LinkDistance) / d * e.alpha * l.strength
		dx, dy = dx*k, dy*k

		e.dv[l.target].X -= dx * l.bias
		e.dv[l.target].Y -= dy * l.bias
		e.dv[l.source].X += dx * (1 - l.bias)
		e.dv[l.source].Y += dy * (1 - l.bias)
	}
}

type particle struct {
	pos r2.Vec
}

func (p *particle) Coord2() r2.Vec { return p.pos }
func (p *particle) Mass() float64  { return 1 }

// particles is the reusable Barnes-Hut input, one entry per node.
type particles struct {
	items []particle
	refs  []barneshut.Particle2
	seen  map[r2.Vec]struct{}
}

func (ps *particles) reset(nodes []body, jiggle func() float64) []barneshut.Particle2 {
	if cap(ps.items) < len(nodes) {
		ps.items = make([]particle, len(nodes))
		ps.refs = make([]barneshut.Particle2, len(nodes))
	}
	ps.items = ps.items[:len(nodes)]
	ps.refs = ps.refs[:len(nodes)]
	if ps.seen == nil {
		ps.seen = make(map[r2.Vec]struct{}, len(nodes))
	}
	clear(ps.seen)

	for i := range nodes {
		pos := r2.Vec{X: nodes[i].x, Y: nodes[i].y}
		// The quadtree cannot separate identical coordinates.
		for {
			if _, dup := ps.seen[pos]; !dup {
				break
			}
			pos.X += jiggle()
			pos.Y += jiggle()
		}
		ps.seen[pos] = struct{}{}
		ps.items[i].pos = pos
		ps.refs[i] = &ps.items[i]
	}
	return ps.refs
}

// applyCharge applies many-body repulsion. Far groups of nodes are
// aggregated by the quadtree when their size over distance is below Theta.
func (e *Engine) applyCharge() {
	if len(e.nodes) < 2 {
		return
	}
	refs := e.particles.reset(e.nodes, e.jiggle)
	strength := e.opts.Charge * e.alpha

	force := func(p1, p2 barneshut.Particle2, _, m2 float64, v r2.Vec) r2.Vec {
		if p2 != nil && p1 == p2 {
			return r2.Vec{}
		}
		l2 := v.X*v.X + v.Y*v.Y
		if l2 == 0 {
			return r2.Vec{}
		}
		if l2 < minDistance2 {
			l2 = math.Sqrt(minDistance2 * l2)
		}
		return r2.Scale(strength*m2/l2, v)
	}

	plane, err := barneshut.NewPlane(refs)
	if err != nil {
		e.logger.Debug("quadtree unavailable, using exact repulsion", "err", err)
		for i := range refs {
			for j := range refs {
				if i == j {
					continue
				}
				v := r2.Sub(refs[j].Coord2(), refs[i].Coord2())
				e.dv[i] = r2.Add(e.dv[i], force(refs[i], refs[j], 1, 1, v))
			}
		}
		return
	}
	for i, p := range refs {
		e.dv[i] = r2.Add(e.dv[i], plane.ForceOn(p, e.opts.Theta, force))
	}
}

// applyCollide separates overlapping circles of radius r + CollideMargin.
// Candidate pairs come from a grid whose cells are as wide as the largest
// possible contact distance, so only neighbouring cells need checking.
func (e *Engine) applyCollide() {
	n := len(e.nodes)
	if n < 2 {
		return
	}
	maxR := 0.0
	for i := range e.nodes {
		maxR = math.Max(maxR, e.nodes[i].r+e.opts.CollideMargin)
	}
	cell := 2 * maxR
	if cell <= 0 {
		return
	}

	type key struct{ x, y int }
	grid := make(map[key][]int, n)
	cellOf := func(b *body) key {
		return key{int(math.Floor((b.x + b.vx) / cell)), int(math.Floor((b.y + b.vy) / cell))}
	}
	for i := range e.nodes {
		k := cellOf(&e.nodes[i])
		grid[k] = append(grid[k], i)
	}

	for i := range e.nodes {
		a := &e.nodes[i]
		ra := a.r + e.opts.CollideMargin
		k := cellOf(a)
		for gx := k.x - 1; gx <= k.x+1; gx++ {
			for gy := k.y - 1; gy <= k.y+1; gy++ {
				for _, j := range grid[key{gx, gy}] {
					if j <= i {
						continue
					}
					b := &e.nodes[j]
					rb := b.r + e.opts.CollideMargin
					r := ra + rb
					dx := a.x + a.vx - b.x - b.vx
					dy := a.y + a.vy - b.y - b.vy
					l2 := dx*dx + dy*dy
					if l2 >= r*r {
						continue
					}
					if dx == 0 {
						dx = e.jiggle()
						l2 += dx * dx
					}
					if dy == 0 {
						dy = e.jiggle()
						l2 += dy * dy
					}
					l := math.Sqrt(l2)
					f := (r - l) / l * e.opts.CollideStrength
					dx, dy = dx*f, dy*f
					ra2, rb2 := ra*ra, rb*rb
					share := rb2 / (ra2 + rb2)
					e.dv[i].X += dx * share
					e.dv[i].Y += dy * share
					e.dv[j].X -= dx * (1 - share)
					e.dv[j].Y -= dy * (1 - share)
				}
			}
		}
	}
}

// centerShift returns the translation moving the centroid of all nodes a
// CenterStrength fraction of the way to the canvas center.
func (e *Engine) centerShift() r2.Vec {
	if len(e.nodes) == 0 {
		return r2.Vec{}
	}
	var sum r2.Vec
	for i := range e.nodes {
		sum.X += e.nodes[i].x
		sum.Y += e.nodes[i].y
	}
	n := float64(len(e.nodes))
	return r2.Vec{
		X: (e.opts.Width/2 - sum.X/n) * e.opts.CenterStrength,
		Y: (e.opts.Height/2 - sum.Y/n) * e.opts.CenterStrength,
	}
}
