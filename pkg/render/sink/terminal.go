package sink

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/creatornet/pkg/scene"
)

// TerminalOptions configures [Terminal].
type TerminalOptions struct {
	Cols, Rows int
	// Background is the color edge opacity is blended against. Terminals
	// are usually dark, so it defaults to black rather than the scene's.
	Background string
	// LabelColor overrides the scene's label color, which is chosen for a
	// white page.
	LabelColor string
	// Labels draws node labels below the nodes.
	Labels bool
}

type cell struct {
	ch    rune
	color string
	bold  bool
}

// Terminal rasterizes s into Rows lines of Cols cells. Each axis is scaled
// independently to fill the grid, the same mapping as
// interact.StretchView(s.Width, s.Height, Cols, Rows), so cell coordinates
// from mouse events can be mapped back with that view.
func Terminal(s scene.Scene, opts TerminalOptions) string {
	if opts.Cols <= 0 || opts.Rows <= 0 {
		return ""
	}
	if opts.Background == "" {
		opts.Background = "#000000"
	}
	if opts.LabelColor == "" {
		opts.LabelColor = "#e5e7eb"
	}

	grid := make([][]cell, opts.Rows)
	for y := range grid {
		grid[y] = make([]cell, opts.Cols)
		for x := range grid[y] {
			grid[y][x] = cell{ch: ' '}
		}
	}
	sx, sy := 1.0, 1.0
	if s.Width > 0 && s.Height > 0 {
		sx, sy = float64(opts.Cols)/s.Width, float64(opts.Rows)/s.Height
	}
	put := func(x, y int, c cell) {
		if y >= 0 && y < opts.Rows && x >= 0 && x < opts.Cols {
			grid[y][x] = c
		}
	}

	for _, e := range s.Edges {
		ch := '·'
		if e.Highlighted {
			ch = '•'
		}
		c := cell{ch: ch, color: flatten(e.Color, opts.Background, math.Max(e.Opacity, 0.45))}
		x0, y0, x1, y1 := cellOf(e.X1, sx), cellOf(e.Y1, sy), cellOf(e.X2, sx), cellOf(e.Y2, sy)
		if !near(x0, opts.Cols) || !near(x1, opts.Cols) || !near(y0, opts.Rows) || !near(y1, opts.Rows) {
			continue
		}
		line(x0, y0, x1, y1, func(x, y int) { put(x, y, c) })
	}

	for _, n := range s.Nodes {
		cx, cy := cellOf(n.X, sx), cellOf(n.Y, sy)
		rx, ry := n.R*sx, n.R*sy
		body := cell{ch: '█', color: n.Fill, bold: n.Tier == scene.TierSelected}
		for y := int(math.Floor(-ry)); y <= int(math.Ceil(ry)); y++ {
			for x := int(math.Floor(-rx)); x <= int(math.Ceil(rx)); x++ {
				if ry > 0 && rx > 0 && sq(float64(x)/rx)+sq(float64(y)/ry) <= 1 {
					put(cx+x, cy+y, body)
				}
			}
		}
		center := '●'
		switch {
		case n.Hovered:
			center = '◉'
		case n.Pinned:
			center = '◆'
		}
		put(cx, cy, cell{ch: center, color: n.Fill, bold: true})

		if opts.Labels && n.Label != "" {
			ly := cy + int(math.Ceil(ry)) + 1
			runes := []rune(n.Label)
			lx := cx - len(runes)/2
			for i, r := range runes {
				put(lx+i, ly, cell{ch: r, color: opts.LabelColor, bold: n.Tier == scene.TierSelected})
			}
		}
	}

	var out strings.Builder
	for y, row := range grid {
		if y > 0 {
			out.WriteByte('\n')
		}
		writeRow(&out, row)
	}
	return out.String()
}

// writeRow emits runs of equally styled cells through one lipgloss style each.
func writeRow(out *strings.Builder, row []cell) {
	start := 0
	for i := 1; i <= len(row); i++ {
		if i < len(row) && row[i].color == row[start].color && row[i].bold == row[start].bold {
			continue
		}
		var run strings.Builder
		for _, c := range row[start:i] {
			run.WriteRune(c.ch)
		}
		if row[start].color == "" {
			out.WriteString(run.String())
		} else {
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(row[start].color)).Bold(row[start].bold)
			out.WriteString(style.Render(run.String()))
		}
		start = i
	}
}

func cellOf(v, scale float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return -1
	}
	return int(math.Floor(v * scale))
}

// near bounds the work of drawing a segment whose endpoints left the grid.
func near(v, n int) bool { return v >= -4*n && v <= 5*n }

func sq(v float64) float64 { return v * v }

// line visits the cells of the segment (x0,y0)-(x1,y1) using Bresenham's
// algorithm.
func line(x0, y0, x1, y1 int, visit func(x, y int)) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	stepX, stepY := 1, 1
	if x0 > x1 {
		stepX = -1
	}
	if y0 > y1 {
		stepY = -1
	}
	err := dx + dy
	for {
		visit(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += stepX
		}
		if e2 <= dx {
			err += dx
			y0 += stepY
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
