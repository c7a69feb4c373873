// Package scene converts layout frames into a renderer-neutral visual
// description.
//
// [Build] is a pure function of a frame, the current selection and hover and
// a [Style]. The resulting [Scene] lists edges and then nodes in paint order
// with every visual attribute resolved, so sinks (SVG, PNG, DOT, terminal)
// only have to draw primitives.
package scene

import (
	"math"
	"unicode/utf8"

	"github.com/matzehuels/creatornet/pkg/layout"
)

// Tier is a node's highlight level relative to the selection.
type Tier int

const (
	TierDefault Tier = iota
	TierConnected
	TierSelected
)

func (t Tier) String() string {
	switch t {
	case TierSelected:
		return "selected"
	case TierConnected:
		return "connected"
	default:
		return "default"
	}
}

// Selection is the interaction state a scene reflects. Empty ids mean none.
type Selection struct {
	Selected string `json:"selected,omitempty"`
	Hovered  string `json:"hovered,omitempty"`
	Dragging string `json:"dragging,omitempty"`
}

// Node is a circle with a label below it.
type Node struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	R           float64 `json:"r"`
	Tier        Tier    `json:"tier"`
	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
	LabelX      float64 `json:"labelX"`
	LabelY      float64 `json:"labelY"`
	Hovered     bool    `json:"hovered,omitempty"`
	Pinned      bool    `json:"pinned,omitempty"`
	Cursor      string  `json:"cursor"`
}

// Edge is a straight line between two node centers.
type Edge struct {
	Source      string  `json:"source"`
	Target      string  `json:"target"`
	X1          float64 `json:"x1"`
	Y1          float64 `json:"y1"`
	X2          float64 `json:"x2"`
	Y2          float64 `json:"y2"`
	Weight      float64 `json:"weight"`
	Width       float64 `json:"width"`
	Color       string  `json:"color"`
	Opacity     float64 `json:"opacity"`
	Highlighted bool    `json:"highlighted,omitempty"`
}

// Scene is everything needed to draw one frame.
type Scene struct {
	Width      float64   `json:"width"`
	Height     float64   `json:"height"`
	Background string    `json:"background"`
	Selection  Selection `json:"selection"`
	Style      Style     `json:"-"`
	Edges      []Edge    `json:"edges"`
	Nodes      []Node    `json:"nodes"`
}

// Build describes frame f under sel. It never fails; an empty frame yields
// an empty scene.
func Build(f layout.Frame, sel Selection, style Style) Scene {
	style = style.withDefaults()
	s := Scene{
		Width:      f.Width,
		Height:     f.Height,
		Background: style.Background,
		Selection:  sel,
		Style:      style,
		Edges:      make([]Edge, 0, len(f.Links)),
		Nodes:      make([]Node, 0, len(f.Nodes)),
	}

	pos := make(map[string]*layout.NodeState, len(f.Nodes))
	for i := range f.Nodes {
		pos[f.Nodes[i].ID] = &f.Nodes[i]
	}

	connected := make(map[string]bool)
	for _, l := range f.Links {
		src, okS := pos[l.Source]
		dst, okT := pos[l.Target]
		if !okS || !okT {
			continue
		}
		lit := sel.Selected != "" && (l.Source == sel.Selected || l.Target == sel.Selected)
		if lit {
			connected[l.Source] = true
			connected[l.Target] = true
		}
		w := l.Weight
		if math.IsNaN(w) {
			w = 0
		}
		w = math.Max(0, math.Min(1, w))
		e := Edge{
			Source: l.Source,
			Target: l.Target,
			X1:     src.X,
			Y1:     src.Y,
			X2:     dst.X,
			Y2:     dst.Y,
			Weight: w,
			Width:  style.EdgeBaseWidth + style.EdgeWeightWidth*w,
		}
		if lit {
			e.Color, e.Opacity, e.Highlighted = style.EdgeHighlightColor, style.EdgeHighlightOpacity, true
		} else {
			e.Color, e.Opacity = style.EdgeColor, style.EdgeOpacity
		}
		s.Edges = append(s.Edges, e)
	}

	for _, n := range f.Nodes {
		label := n.Name
		if label == "" {
			label = n.ID
		}
		v := Node{
			ID:          n.ID,
			Label:       Truncate(label, style.LabelBudget),
			X:           n.X,
			Y:           n.Y,
			R:           n.Radius,
			Stroke:      style.NodeStroke,
			StrokeWidth: style.NodeStrokeWidth,
			LabelX:      n.X,
			LabelY:      n.Y + n.Radius + style.LabelOffset,
			Pinned:      n.Pinned(),
			Cursor:      "grab",
		}
		switch {
		case n.ID == sel.Selected:
			v.Tier, v.Fill = TierSelected, style.SelectedFill
		case connected[n.ID]:
			v.Tier, v.Fill = TierConnected, style.ConnectedFill
		default:
			v.Tier, v.Fill = TierDefault, style.DefaultFill
		}
		if n.ID == sel.Hovered {
			v.Hovered = true
			v.Stroke, v.StrokeWidth = style.HoverStroke, style.HoverStrokeWidth
		}
		if n.ID == sel.Dragging {
			v.Cursor = "grabbing"
		}
		s.Nodes = append(s.Nodes, v)
	}
	return s
}

// Node returns the scene node with the given id.
func (s *Scene) Node(id string) (Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// HitTest returns the top-most node whose circle contains (x, y), in
// simulation coordinates.
func (s *Scene) HitTest(x, y float64) (string, bool) {
	for i := len(s.Nodes) - 1; i >= 0; i-- {
		n := &s.Nodes[i]
		if math.Hypot(x-n.X, y-n.Y) <= n.R {
			return n.ID, true
		}
	}
	return "", false
}

// Ellipsis marks a truncated label.
const Ellipsis = "…"

// Truncate shortens s to budget runes, replacing the tail with an ellipsis.
// A budget of zero or less disables truncation.
func Truncate(s string, budget int) string {
	if budget <= 0 || utf8.RuneCountInString(s) <= budget {
		return s
	}
	if budget == 1 {
		return Ellipsis
	}
	runes := []rune(s)
	return string(runes[:budget-1]) + Ellipsis
}
