package interact

import (
	"math"
	"testing"
)

func TestViewRoundTrip(t *testing.T) {
	views := []View{
		Identity(),
		{ScaleX: 2, ScaleY: 2, OffsetX: 10, OffsetY: -4},
		{ScaleX: 0.5, ScaleY: 1.25, OffsetX: 3, OffsetY: 7},
		FitView(800, 640, 1920, 1080),
		StretchView(800, 640, 120, 40),
	}
	points := []Point{{}, {X: 400, Y: 320}, {X: -12.5, Y: 9000}}

	for _, v := range views {
		for _, p := range points {
			got := v.ScreenToSimulation(v.SimulationToScreen(p))
			if math.Abs(got.X-p.X) > 1e-9 || math.Abs(got.Y-p.Y) > 1e-9 {
				t.Errorf("view %+v: round trip of %+v = %+v", v, p, got)
			}
		}
	}
}

func TestZeroScaleIsInvertible(t *testing.T) {
	v := View{OffsetX: 5, OffsetY: 5}
	got := v.ScreenToSimulation(Point{X: 15, Y: 25})
	if got != (Point{X: 10, Y: 20}) {
		t.Errorf("ScreenToSimulation() = %+v, want {10 20}", got)
	}
}

func TestFitView(t *testing.T) {
	tests := []struct {
		name           string
		screenW, scrH  float64
		wantScale      float64
		wantOX, wantOY float64
	}{
		{"SameSize", 800, 640, 1, 0, 0},
		{"Wide", 1600, 640, 1, 400, 0},
		{"Tall", 400, 640, 0.5, 0, 160},
		{"Double", 1600, 1280, 2, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := FitView(800, 640, tt.screenW, tt.scrH)
			if v.ScaleX != tt.wantScale || v.ScaleY != tt.wantScale {
				t.Errorf("scale = (%v, %v), want %v", v.ScaleX, v.ScaleY, tt.wantScale)
			}
			if v.OffsetX != tt.wantOX || v.OffsetY != tt.wantOY {
				t.Errorf("offset = (%v, %v), want (%v, %v)", v.OffsetX, v.OffsetY, tt.wantOX, tt.wantOY)
			}
		})
	}

	if v := FitView(0, 640, 100, 100); v != Identity() {
		t.Errorf("FitView with empty canvas = %+v, want identity", v)
	}
}

func TestStretchView(t *testing.T) {
	v := StretchView(800, 640, 100, 40)
	got := v.SimulationToScreen(Point{X: 800, Y: 640})
	if got != (Point{X: 100, Y: 40}) {
		t.Errorf("far corner maps to %+v, want {100 40}", got)
	}
}
