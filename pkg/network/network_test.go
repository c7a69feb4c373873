package network

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/creatornet/pkg/errors"
)

const samplePayload = `{
  "creators": [
    {"id": "a", "name": "Alpha", "followers": 1000, "engagementIndex": 3.5, "position": {"x": 0, "y": 0}},
    {"id": "b", "name": "", "followers": 10, "engagementIndex": 9.1, "position": {"x": 25, "y": 75}},
    {"id": "c", "name": "Gamma", "followers": 500, "engagementIndex": 1.2}
  ],
  "creatorEdges": [
    {"source": "a", "target": "b", "weight": 0.4, "types": {"style": 0.4}},
    {"source": "c", "target": "a", "weight": 0.9},
    {"source": "a", "target": "ghost", "weight": 0.5}
  ],
  "trackClusters": {"travel": ["a", "c"], "food": ["b"]}
}`

func TestUnmarshal(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantNodes int
		wantEdges int
		wantErr   bool
	}{
		{"Full", samplePayload, 3, 3, false},
		{"LegacyEdges", `{"creators": [], "edges": [{"source": "a", "target": "b", "weight": 1}]}`, 0, 1, false},
		{"PreferCreatorEdges", `{"creatorEdges": [], "edges": [{"source": "a", "target": "b"}]}`, 0, 0, false},
		{"Empty", `{}`, 0, 0, false},
		{"Malformed", `{"creators": [`, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Unmarshal([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, errors.ErrCodeInvalidNetwork) {
					t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidNetwork)
				}
				return
			}
			if len(p.Creators) != tt.wantNodes {
				t.Errorf("creators = %d, want %d", len(p.Creators), tt.wantNodes)
			}
			if len(p.CreatorEdges) != tt.wantEdges {
				t.Errorf("edges = %d, want %d", len(p.CreatorEdges), tt.wantEdges)
			}
		})
	}
}

func TestPayloadGraph(t *testing.T) {
	p, err := Unmarshal([]byte(samplePayload))
	if err != nil {
		t.Fatal(err)
	}

	t.Run("Followers", func(t *testing.T) {
		g := p.Graph(MetricFollowers)
		if len(g.Nodes) != 3 || len(g.Edges) != 3 {
			t.Fatalf("got %d nodes, %d edges", len(g.Nodes), len(g.Edges))
		}
		if g.Nodes[0].Magnitude != 1000 {
			t.Errorf("magnitude = %v, want 1000", g.Nodes[0].Magnitude)
		}
		if g.Nodes[0].Position != nil {
			t.Errorf("zero position should be dropped, got %+v", g.Nodes[0].Position)
		}
		if g.Nodes[1].Position == nil || g.Nodes[1].Position.X != 25 {
			t.Errorf("position = %+v, want {25 75}", g.Nodes[1].Position)
		}
		if g.Nodes[1].Name != "b" {
			t.Errorf("blank name should fall back to id, got %q", g.Nodes[1].Name)
		}
	})

	t.Run("Engagement", func(t *testing.T) {
		g := p.Graph(MetricEngagement)
		if g.Nodes[1].Magnitude != 9.1 {
			t.Errorf("magnitude = %v, want 9.1", g.Nodes[1].Magnitude)
		}
	})

	t.Run("PositionIsCopied", func(t *testing.T) {
		g := p.Graph(MetricFollowers)
		g.Nodes[1].Position.X = 99
		if p.Creators[1].Position.X != 25 {
			t.Error("graph shares position with payload")
		}
	})
}

func TestPositionIsSet(t *testing.T) {
	tests := []struct {
		name string
		pos  *Position
		want bool
	}{
		{"Nil", nil, false},
		{"Origin", &Position{}, false},
		{"Set", &Position{X: 10, Y: 0}, true},
		{"NaN", &Position{X: math.NaN(), Y: 3}, false},
		{"Inf", &Position{X: 2, Y: math.Inf(1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pos.IsSet(); got != tt.want {
				t.Errorf("IsSet() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNeighborsAndCluster(t *testing.T) {
	p, err := Unmarshal([]byte(samplePayload))
	if err != nil {
		t.Fatal(err)
	}

	got := p.Neighbors("a")
	want := []string{"c", "ghost", "b"}
	if len(got) != len(want) {
		t.Fatalf("Neighbors(a) = %v, want %v", got, want)
	}
	for i, n := range got {
		if n.ID != want[i] {
			t.Errorf("Neighbors(a)[%d] = %s, want %s", i, n.ID, want[i])
		}
	}

	if track, ok := p.Cluster("c"); !ok || track != "travel" {
		t.Errorf("Cluster(c) = %q, %v", track, ok)
	}
	if _, ok := p.Cluster("ghost"); ok {
		t.Error("Cluster(ghost) should not be found")
	}
}

func TestParseMetric(t *testing.T) {
	for _, s := range []string{"", "followers", "FOLLOWERS", " engagement "} {
		if _, err := ParseMetric(s); err != nil {
			t.Errorf("ParseMetric(%q) error = %v", s, err)
		}
	}
	if _, err := ParseMetric("likes"); err == nil {
		t.Error("ParseMetric(likes) should fail")
	}
}

func TestFileRoundTrip(t *testing.T) {
	p, err := Unmarshal([]byte(samplePayload))
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"network.json", "network.yaml", "network.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := WriteFile(p, path); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
			got, err := ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile() error = %v", err)
			}
			if len(got.Creators) != 3 || len(got.CreatorEdges) != 3 {
				t.Errorf("got %d creators, %d edges", len(got.Creators), len(got.CreatorEdges))
			}
			if got.CreatorEdges[0].Types["style"] != 0.4 {
				t.Errorf("edge types lost: %+v", got.CreatorEdges[0])
			}
		})
	}
}

func TestReadFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	doc := strings.Join([]string{
		"creators:",
		"  - id: a",
		"    name: Alpha",
		"    followers: 12",
		"creatorEdges:",
		"  - source: a",
		"    target: b",
		"    weight: 0.5",
	}, "\n")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if p.Creators[0].Followers != 12 || p.CreatorEdges[0].Target != "b" {
		t.Errorf("unexpected payload: %+v", p)
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want %s", err, errors.ErrCodeFileNotFound)
	}
}
