package sink

import (
	"bytes"
	"fmt"
	"math"

	"github.com/fogleman/gg"

	"github.com/matzehuels/creatornet/pkg/scene"
)

// PNG rasterizes s at the given scale. Labels use gg's built-in face.
func PNG(s scene.Scene, scale float64) ([]byte, error) {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		scale = 1
	}
	w := max(1, int(math.Ceil(s.Width*scale)))
	h := max(1, int(math.Ceil(s.Height*scale)))

	dc := gg.NewContext(w, h)
	setColor(dc, s.Background, 1)
	dc.Clear()
	dc.Scale(scale, scale)

	dc.SetLineCapRound()
	for _, e := range s.Edges {
		setColor(dc, e.Color, e.Opacity)
		dc.SetLineWidth(e.Width)
		dc.DrawLine(e.X1, e.Y1, e.X2, e.Y2)
		dc.Stroke()
	}

	for _, n := range s.Nodes {
		if n.Tier == scene.TierSelected {
			setColor(dc, s.Style.SelectionGlow, 1)
			dc.DrawCircle(n.X, n.Y, n.R+6)
			dc.Fill()
		}
		dc.DrawCircle(n.X, n.Y, n.R)
		setColor(dc, n.Fill, 1)
		dc.FillPreserve()
		setColor(dc, n.Stroke, 1)
		dc.SetLineWidth(n.StrokeWidth)
		dc.Stroke()

		setColor(dc, s.Style.LabelColor, 1)
		dc.DrawStringAnchored(n.Label, n.LabelX, n.LabelY, 0.5, 0)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func setColor(dc *gg.Context, hex string, opacity float64) {
	c, a := parseColor(hex)
	dc.SetRGBA(c.R, c.G, c.B, clamp01(a*opacity))
}
