package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/creatornet/pkg/network"
	"github.com/matzehuels/creatornet/pkg/pipeline"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"single format", "svg", []string{"svg"}},
		{"multiple formats", "svg,pdf,png", []string{"svg", "pdf", "png"}},
		{"spaces and case", " SVG , Dot ", []string{"svg", "dot"}},
		{"empty entries", "svg,,json,", []string{"svg", "json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFormats(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i, v := range got {
				if v != tt.want[i] {
					t.Errorf("parseFormats(%q)[%d] = %q, want %q", tt.input, i, v, tt.want[i])
				}
			}
		})
	}
}

func TestValidateFormats(t *testing.T) {
	tests := []struct {
		name    string
		formats []string
		wantErr bool
	}{
		{"valid svg", []string{"svg"}, false},
		{"valid all", []string{"svg", "pdf", "png", "dot", "json"}, false},
		{"invalid format", []string{"gif"}, true},
		{"mixed valid invalid", []string{"svg", "gif"}, true},
		{"empty slice", []string{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pipeline.ValidateFormats(parseFormats(strings.Join(tt.formats, ",")))
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFormats(%v) error = %v, wantErr %v", tt.formats, err, tt.wantErr)
			}
		})
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		name                    string
		output, input, platform string
		want                    string
	}{
		{"explicit output", "out/graph.svg", "net.json", "douyin", "out/graph"},
		{"from input file", "", "data/net.json", "douyin", "data/net"},
		{"from platform", "", "", "douyin", "douyin-network"},
		{"url input", "", "https://example.com/api", "xiaohongshu", "xiaohongshu-network"},
		{"sqlite input", "", "sqlite:networks.db", "douyin", "douyin-network"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := basePath(tt.output, tt.input, tt.platform); got != tt.want {
				t.Errorf("basePath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteArtifacts(t *testing.T) {
	base := filepath.Join(t.TempDir(), "net")
	paths, err := writeArtifacts(base, map[string][]byte{
		"svg":  []byte("<svg/>"),
		"json": []byte("{}"),
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{base + ".json", base + ".svg"}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
	for i, p := range paths {
		if p != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, p, want[i])
		}
	}
	data, err := os.ReadFile(base + ".svg")
	if err != nil || string(data) != "<svg/>" {
		t.Errorf("svg = %q, %v", data, err)
	}
}

func TestRunRender(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "net.json")
	p := network.Payload{
		Creators: []network.Creator{
			{ID: "a", Name: "Alpha", Followers: 1000},
			{ID: "b", Name: "Beta", Followers: 10},
		},
		CreatorEdges: []network.CreatorEdge{{Source: "a", Target: "b", Weight: 0.5}},
	}
	if err := network.WriteFile(p, input); err != nil {
		t.Fatal(err)
	}

	c := New(os.Stderr, LogInfo)
	c.noCache = true
	opts := c.baseOptions()
	opts.Formats = []string{"svg", "dot"}
	opts.Selected = "a"

	if err := c.runRender(context.Background(), input, opts, ""); err != nil {
		t.Fatalf("runRender: %v", err)
	}
	for _, ext := range []string{".svg", ".dot"} {
		if _, err := os.Stat(filepath.Join(dir, "net"+ext)); err != nil {
			t.Errorf("missing output %s: %v", ext, err)
		}
	}
}
