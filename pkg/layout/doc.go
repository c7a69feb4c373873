// Package layout computes force-directed positions for a creator network.
//
// An [Engine] owns one simulation. [New] builds it from a [network.Graph],
// assigns radii from node magnitudes, seeds positions and runs a warm-start
// so the first frame is already close to equilibrium:
//
//	e := layout.New(g, layout.DefaultOptions())
//	defer e.Stop()
//	for !e.Settled() {
//	    e.Tick()
//	}
//	frame := e.Snapshot()
//
// # Forces
//
// Each tick applies four forces, all scaled by the current alpha except
// collision:
//
//   - link: a spring pulling linked nodes toward LinkDistance
//   - charge: inverse-distance repulsion, approximated with a Barnes-Hut
//     quadtree from gonum's spatial/barneshut
//   - center: a translation of the free nodes toward the canvas center
//   - collide: separation of circles that overlap by radius plus margin,
//     using a uniform grid to find candidate pairs
//
// Forces read positions and velocities as they were at the start of the tick
// and only accumulate velocity changes. Positions are committed once all
// forces have run, so the result does not depend on iteration order.
//
// Alpha follows alpha += (target - alpha) * AlphaDecay before every tick and
// velocities are multiplied by 1 - VelocityDecay. After every tick each node
// is clamped into [Padding, Width-Padding] x [Padding, Height-Padding].
// Once alpha is below AlphaMin the layout rests: ticks still count, but only
// pinned nodes move until [Engine.Reheat] raises alpha again. The default
// warm-start of 700 ticks ends at rest.
//
// # Pins
//
// [Engine.Pin] fixes a node to a point, which is how interactive drags move
// nodes. [Engine.Unpin] releases it at the start of the next tick.
//
// # Malformed input
//
// Construction never fails. Edges whose endpoints are unknown are dropped with
// one warning each, non-finite seeds and magnitudes are ignored, and a node
// whose state becomes non-finite is reseeded near the center.
//
// An Engine is not safe for concurrent use. One goroutine owns it; other
// goroutines read copies returned by [Engine.Snapshot].
package layout
