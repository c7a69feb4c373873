package sink

import (
	"bytes"
	"fmt"
	"html"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/matzehuels/creatornet/pkg/scene"
)

const nodeInteractionCSS = `
    .node circle { transition: stroke-width 0.15s ease; }
    .node:hover circle { stroke: #1e3a8a; stroke-width: 3; }
    .node { cursor: grab; }
    .node.selected circle { filter: drop-shadow(0 0 6px rgba(29,78,184,0.6)); }`

// SVGOption configures [SVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	title       string
	interactive bool
}

// WithTitle sets the document title.
func WithTitle(t string) SVGOption { return func(r *svgRenderer) { r.title = t } }

// WithInteraction embeds hover styling for browsers.
func WithInteraction() SVGOption { return func(r *svgRenderer) { r.interactive = true } }

// SVG renders s as an SVG document.
func SVG(s scene.Scene, opts ...SVGOption) []byte {
	var r svgRenderer
	for _, opt := range opts {
		opt(&r)
	}

	w, h := px(s.Width), px(s.Height)
	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(w, h, fmt.Sprintf(`viewBox="0 0 %d %d"`, w, h))
	if r.title != "" {
		canvas.Title(r.title)
	}
	if r.interactive {
		canvas.Style("text/css", nodeInteractionCSS)
	}
	canvas.Rect(0, 0, w, h, "fill:"+s.Background)

	canvas.Gid("edges")
	for _, e := range s.Edges {
		canvas.Line(px(e.X1), px(e.Y1), px(e.X2), px(e.Y2),
			fmt.Sprintf("stroke:%s;stroke-width:%s;stroke-opacity:%s", e.Color, num(e.Width), num(e.Opacity)),
			attr("data-source", e.Source), attr("data-target", e.Target))
	}
	canvas.Gend()

	canvas.Gid("nodes")
	for _, n := range s.Nodes {
		class := "node " + n.Tier.String()
		canvas.Group(attr("class", class), attr("data-id", n.ID))
		if n.Tier == scene.TierSelected {
			canvas.Circle(px(n.X), px(n.Y), px(n.R+6), "fill:"+s.Style.SelectionGlow)
		}
		canvas.Circle(px(n.X), px(n.Y), px(n.R),
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:%s;cursor:%s", n.Fill, n.Stroke, num(n.StrokeWidth), n.Cursor))
		canvas.Text(px(n.LabelX), px(n.LabelY), n.Label,
			fmt.Sprintf("fill:%s;font-size:%spx;font-family:system-ui,sans-serif;text-anchor:middle;pointer-events:none",
				s.Style.LabelColor, num(s.Style.LabelSize)))
		canvas.Gend()
	}
	canvas.Gend()

	canvas.End()
	return buf.Bytes()
}

func px(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Round(v))
}

func num(v float64) string {
	return fmt.Sprintf("%g", math.Round(v*100)/100)
}

func attr(name, value string) string {
	return fmt.Sprintf(`%s="%s"`, name, html.EscapeString(value))
}
