package sink

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/creatornet/pkg/scene"
)

// pointsPerInch converts Graphviz node sizes, given in inches.
const pointsPerInch = 72.0

// DOT converts s to an undirected Graphviz graph. Every node is pinned at
// its scene position (Graphviz's y axis points up, so y is flipped) and
// carries the scene's colors, so neato reproduces the layout instead of
// computing its own.
func DOT(s scene.Scene) string {
	var buf bytes.Buffer
	buf.WriteString("graph creators {\n")
	buf.WriteString("  layout=neato;\n")
	fmt.Fprintf(&buf, "  bgcolor=%q;\n", s.Background)
	fmt.Fprintf(&buf, "  node [shape=circle, style=filled, fixedsize=true, fontsize=%s, fontcolor=%q, labelloc=b];\n",
		num(s.Style.LabelSize), s.Style.LabelColor)
	buf.WriteString("\n")

	for _, n := range s.Nodes {
		attrs := []string{
			fmt.Sprintf("label=%q", n.Label),
			fmt.Sprintf("pos=\"%s,%s!\"", num(n.X), num(s.Height-n.Y)),
			fmt.Sprintf("width=%s", num(2*n.R/pointsPerInch)),
			fmt.Sprintf("fillcolor=%q", n.Fill),
			fmt.Sprintf("color=%q", n.Stroke),
			fmt.Sprintf("penwidth=%s", num(n.StrokeWidth)),
		}
		if n.Tier != scene.TierDefault {
			attrs = append(attrs, fmt.Sprintf("class=%q", n.Tier.String()))
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range s.Edges {
		fmt.Fprintf(&buf, "  %q -- %q [penwidth=%s, color=%q];\n",
			e.Source, e.Target, num(e.Width), flatten(e.Color, s.Background, e.Opacity))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderDOT lays out dot with neato, honoring pinned positions, and renders
// it in the given Graphviz format ("svg" or "png").
func RenderDOT(ctx context.Context, dot string, format string) ([]byte, error) {
	var gvFormat graphviz.Format
	switch format {
	case "svg":
		gvFormat = graphviz.SVG
	case "png":
		gvFormat = graphviz.PNG
	default:
		return nil, fmt.Errorf("unsupported graphviz format %q", format)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	gv.SetLayout(graphviz.NEATO)

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, gvFormat, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
