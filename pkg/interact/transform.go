package interact

import "math"

// Point is a 2D coordinate, in screen or simulation space depending on context.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// View is the affine transform from simulation space to screen space:
//
//	screen = simulation*Scale + Offset
//
// A zero scale on either axis is treated as 1 so the transform stays
// invertible.
type View struct {
	ScaleX  float64 `json:"scaleX"`
	ScaleY  float64 `json:"scaleY"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// Identity returns the view that maps simulation space onto itself.
func Identity() View {
	return View{ScaleX: 1, ScaleY: 1}
}

func (v View) scale() (float64, float64) {
	sx, sy := v.ScaleX, v.ScaleY
	if sx == 0 || !finite(sx) {
		sx = 1
	}
	if sy == 0 || !finite(sy) {
		sy = 1
	}
	return sx, sy
}

// ScreenToSimulation maps a pointer position to simulation coordinates.
func (v View) ScreenToSimulation(p Point) Point {
	sx, sy := v.scale()
	return Point{X: (p.X - v.OffsetX) / sx, Y: (p.Y - v.OffsetY) / sy}
}

// SimulationToScreen maps simulation coordinates to the screen.
func (v View) SimulationToScreen(p Point) Point {
	sx, sy := v.scale()
	return Point{X: p.X*sx + v.OffsetX, Y: p.Y*sy + v.OffsetY}
}

// FitView scales a simW x simH canvas uniformly to fit a screenW x screenH
// viewport and centers it, like an SVG viewBox with xMidYMid meet.
func FitView(simW, simH, screenW, screenH float64) View {
	if simW <= 0 || simH <= 0 || screenW <= 0 || screenH <= 0 {
		return Identity()
	}
	s := math.Min(screenW/simW, screenH/simH)
	return View{
		ScaleX:  s,
		ScaleY:  s,
		OffsetX: (screenW - simW*s) / 2,
		OffsetY: (screenH - simH*s) / 2,
	}
}

// StretchView scales each axis independently so the canvas fills the
// viewport. Terminal cells are not square, so the explorer uses this.
func StretchView(simW, simH, screenW, screenH float64) View {
	if simW <= 0 || simH <= 0 || screenW <= 0 || screenH <= 0 {
		return Identity()
	}
	return View{ScaleX: screenW / simW, ScaleY: screenH / simH}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
