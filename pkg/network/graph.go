package network

import (
	"fmt"
	"strings"
)

// Metric selects which creator attribute drives node magnitude.
type Metric string

const (
	MetricFollowers  Metric = "followers"
	MetricEngagement Metric = "engagement"
)

// Metrics lists the supported metrics.
var Metrics = []Metric{MetricFollowers, MetricEngagement}

// ParseMetric parses a metric name. The empty string selects followers.
func ParseMetric(s string) (Metric, error) {
	switch Metric(strings.ToLower(strings.TrimSpace(s))) {
	case "", MetricFollowers:
		return MetricFollowers, nil
	case MetricEngagement:
		return MetricEngagement, nil
	}
	return "", fmt.Errorf("unknown metric %q (want one of %v)", s, Metrics)
}

// Node is the layout engine's view of a creator.
type Node struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Magnitude float64   `json:"magnitude"`
	Position  *Position `json:"position,omitempty"`
}

// Edge links two nodes by id. Weight is expected in [0,1].
type Edge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// Graph is the input of a layout: nodes and the edges between them.
// Edges may reference ids that are not in Nodes; the engine drops them.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Graph converts the payload into layout input using m for magnitudes.
func (p *Payload) Graph(m Metric) Graph {
	g := Graph{
		Nodes: make([]Node, len(p.Creators)),
		Edges: make([]Edge, len(p.CreatorEdges)),
	}
	for i := range p.Creators {
		c := &p.Creators[i]
		n := Node{ID: c.ID, Name: c.DisplayName()}
		switch m {
		case MetricEngagement:
			n.Magnitude = c.EngagementIndex
		default:
			n.Magnitude = float64(c.Followers)
		}
		if c.Position.IsSet() {
			pos := *c.Position
			n.Position = &pos
		}
		g.Nodes[i] = n
	}
	for i, e := range p.CreatorEdges {
		g.Edges[i] = Edge{Source: e.Source, Target: e.Target, Weight: e.Weight}
	}
	return g
}
