package sink

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// parseColor accepts #rgb, #rrggbb and rgba(r,g,b,a) and returns the color
// with its own alpha. Unparseable input yields opaque black.
func parseColor(s string) (colorful.Color, float64) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "rgba(") {
		var r, g, b int
		var a float64
		if _, err := fmt.Sscanf(strings.ReplaceAll(s, " ", ""), "rgba(%d,%d,%d,%g)", &r, &g, &b, &a); err == nil {
			return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}, a
		}
		return colorful.Color{}, 1
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, 1
	}
	return c, 1
}

// flatten blends fg at opacity over bg and returns a hex color.
func flatten(fg, bg string, opacity float64) string {
	f, a := parseColor(fg)
	b, _ := parseColor(bg)
	t := clamp01(a * opacity)
	return b.BlendRgb(f, t).Clamped().Hex()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
