package cli

import (
	"strings"
	"testing"

	"github.com/matzehuels/creatornet/pkg/interact"
	"github.com/matzehuels/creatornet/pkg/layout"
	"github.com/matzehuels/creatornet/pkg/network"
	"github.com/matzehuels/creatornet/pkg/scene"
)

func TestSparkline(t *testing.T) {
	points := func(vals ...float64) []network.IndexPoint {
		out := make([]network.IndexPoint, len(vals))
		for i, v := range vals {
			out[i] = network.IndexPoint{Value: v}
		}
		return out
	}

	tests := []struct {
		name   string
		series []network.IndexPoint
		width  int
		want   string
	}{
		{"empty", nil, 10, ""},
		{"rising", points(0, 1, 2, 3, 4, 5, 6, 7), 10, "▁▂▃▄▅▆▇█"},
		{"flat", points(3, 3, 3), 10, "▁▁▁"},
		{"keeps most recent", points(9, 0, 7), 2, "▁█"},
		{"influence wins", []network.IndexPoint{{Value: 100, Influence: 1}, {Value: 0, Influence: 2}}, 5, "▁█"},
		{"no width", points(1, 2), 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sparkline(tt.series, tt.width); got != tt.want {
				t.Errorf("sparkline() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCreatorDetails(t *testing.T) {
	p := &network.Payload{
		Creators: []network.Creator{
			{ID: "a", Name: "Alpha", Followers: 123456, FollowersDelta: 300, PrimaryTrack: "beauty",
				RecentKeywords: []string{"lipstick", "spring"}, IndexSeries: []network.IndexPoint{{Value: 1}, {Value: 2}}},
			{ID: "b", Name: "Beta"},
			{ID: "c"},
		},
		CreatorEdges: []network.CreatorEdge{
			{Source: "a", Target: "b", Weight: 0.4},
			{Source: "c", Target: "a", Weight: 0.9},
		},
		TrackClusters: map[string][]string{"makeup": {"a"}},
	}

	got := creatorDetails(p, "a")
	for _, want := range []string{"Alpha", "123.5k", "+300", "beauty", "makeup", "lipstick", "Beta", "0.90", "▁█"} {
		if !strings.Contains(got, want) {
			t.Errorf("details missing %q:\n%s", want, got)
		}
	}
	if strings.Index(got, "0.90") > strings.Index(got, "0.40") {
		t.Error("neighbors not ordered by weight")
	}

	if got := creatorDetails(p, "zz"); !strings.Contains(got, "Hover or click") {
		t.Errorf("empty details = %q", got)
	}
}

func TestHitNode(t *testing.T) {
	f := layout.Frame{
		Width: 800, Height: 600,
		Nodes: []layout.NodeState{
			{ID: "a", X: 100, Y: 100, Radius: 20},
			{ID: "b", X: 600, Y: 450, Radius: 30},
		},
	}
	s := scene.Build(f, scene.Selection{}, scene.DefaultStyle())
	view := interact.StretchView(800, 600, 80, 30)

	tests := []struct {
		name string
		x, y int
		want string
	}{
		{"center of a", 10, 5, "a"},
		{"center of b", 60, 22, "b"},
		{"empty space", 40, 15, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hitNode(s, view, cellCenter(tt.x, tt.y)); got != tt.want {
				t.Errorf("hitNode(%d,%d) = %q, want %q", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestNextNode(t *testing.T) {
	f := layout.Frame{Nodes: []layout.NodeState{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	tests := []struct{ current, want string }{
		{"", "a"},
		{"a", "b"},
		{"c", "a"},
		{"gone", "a"},
	}
	for _, tt := range tests {
		if got := nextNode(f, tt.current); got != tt.want {
			t.Errorf("nextNode(%q) = %q, want %q", tt.current, got, tt.want)
		}
	}
	if got := nextNode(layout.Frame{}, "a"); got != "" {
		t.Errorf("nextNode(empty) = %q", got)
	}
}
