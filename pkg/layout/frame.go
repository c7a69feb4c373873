package layout

import "github.com/matzehuels/creatornet/pkg/network"

// NodeState is a node's simulation state at the time of a snapshot.
type NodeState struct {
	ID        string   `json:"id"`
	Name      string   `json:"name,omitempty"`
	Magnitude float64  `json:"magnitude"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	VX        float64  `json:"vx"`
	VY        float64  `json:"vy"`
	Radius    float64  `json:"radius"`
	Degree    int      `json:"degree"`
	FX        *float64 `json:"fx,omitempty"`
	FY        *float64 `json:"fy,omitempty"`
}

// Pinned reports whether the node had a pin override.
func (n NodeState) Pinned() bool { return n.FX != nil }

// Link is an edge whose endpoints both resolved to nodes.
type Link struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// Frame is an immutable copy of an engine's state after a tick.
type Frame struct {
	Tick   uint64      `json:"tick"`
	Alpha  float64     `json:"alpha"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
	Nodes  []NodeState `json:"nodes"`
	Links  []Link      `json:"links"`
}

// Node returns the state of the node with the given id.
func (f *Frame) Node(id string) (NodeState, bool) {
	for _, n := range f.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeState{}, false
}

// Graph converts the frame back into layout input whose positions are the
// frame's positions as percentages of the canvas. Feeding it to [New]
// reproduces the arrangement on a canvas of any size.
func (f *Frame) Graph() network.Graph {
	g := network.Graph{
		Nodes: make([]network.Node, len(f.Nodes)),
		Edges: make([]network.Edge, len(f.Links)),
	}
	for i, n := range f.Nodes {
		g.Nodes[i] = network.Node{
			ID:        n.ID,
			Name:      n.Name,
			Magnitude: n.Magnitude,
			Position:  &network.Position{X: percent(n.X, f.Width), Y: percent(n.Y, f.Height)},
		}
	}
	for i, l := range f.Links {
		g.Edges[i] = network.Edge(l)
	}
	return g
}

func percent(v, dim float64) float64 {
	if dim <= 0 {
		return 0
	}
	return v / dim * 100
}
