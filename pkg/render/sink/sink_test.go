package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"regexp"
	"strings"
	"testing"

	"github.com/matzehuels/creatornet/pkg/layout"
	"github.com/matzehuels/creatornet/pkg/scene"
)

func testScene() scene.Scene {
	f := layout.Frame{
		Width:  400,
		Height: 300,
		Nodes: []layout.NodeState{
			{ID: "a", Name: "Alpha", X: 100, Y: 100, Radius: 30},
			{ID: `b"&<1>`, Name: "Beta", X: 300, Y: 200, Radius: 20},
		},
		Links: []layout.Link{{Source: "a", Target: `b"&<1>`, Weight: 0.5}},
	}
	return scene.Build(f, scene.Selection{Selected: `b"&<1>`}, scene.DefaultStyle())
}

func TestSVG(t *testing.T) {
	out := string(SVG(testScene(), WithTitle("creators"), WithInteraction()))

	for _, want := range []string{
		"<svg",
		`width="400"`,
		`data-id="a"`,
		`data-id="b&#34;&amp;&lt;1&gt;"`,
		"fill:#1d4ed8",
		"fill:#2563eb",
		"stroke-width:3",
		"<title>creators</title>",
		"cursor: grab",
		"</svg>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("SVG output missing %q", want)
		}
	}
	if strings.Contains(out, `<1>`) {
		t.Error("id was not escaped")
	}
}

func TestSVGEmpty(t *testing.T) {
	out := string(SVG(scene.Build(layout.Frame{Width: 100, Height: 80}, scene.Selection{}, scene.DefaultStyle())))
	if !strings.Contains(out, "</svg>") {
		t.Fatal("empty scene did not produce a document")
	}
	if strings.Contains(out, "data-id") {
		t.Error("empty scene produced nodes")
	}
}

func TestPNG(t *testing.T) {
	data, err := PNG(testScene(), 1)
	if err != nil {
		t.Fatalf("PNG() error: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() error: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 300 {
		t.Fatalf("size = %dx%d, want 400x300", b.Dx(), b.Dy())
	}

	r, g, b, _ := img.At(100, 100).RGBA()
	if !closeTo(r>>8, 0x25) || !closeTo(g>>8, 0x63) || !closeTo(b>>8, 0xeb) {
		t.Errorf("node a center = #%02x%02x%02x, want #2563eb", r>>8, g>>8, b>>8)
	}
	r, g, b, _ = img.At(5, 295).RGBA()
	if r>>8 != 0xff || g>>8 != 0xff || b>>8 != 0xff {
		t.Errorf("background = #%02x%02x%02x, want white", r>>8, g>>8, b>>8)
	}
}

func TestPNGScale(t *testing.T) {
	data, err := PNG(testScene(), 2)
	if err != nil {
		t.Fatalf("PNG() error: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeConfig() error: %v", err)
	}
	if cfg.Width != 800 || cfg.Height != 600 {
		t.Errorf("size = %dx%d, want 800x600", cfg.Width, cfg.Height)
	}
}

func closeTo(got uint32, want uint32) bool {
	d := int(got) - int(want)
	return d >= -2 && d <= 2
}

func TestDOT(t *testing.T) {
	dot := DOT(testScene())
	for _, want := range []string{
		"graph creators {",
		"layout=neato;",
		`"a" [label="Alpha", pos="100,200!"`,
		`"b\"&<1>" [label="Beta", pos="300,100!"`,
		`"a" -- "b\"&<1>" [penwidth=3`,
		`class="selected"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT output missing %q:\n%s", want, dot)
		}
	}
}

func TestRenderDOT(t *testing.T) {
	out, err := RenderDOT(context.Background(), DOT(testScene()), "svg")
	if err != nil {
		t.Fatalf("RenderDOT() error: %v", err)
	}
	if !bytes.Contains(out, []byte("<svg")) {
		t.Error("RenderDOT() did not produce SVG")
	}
	if _, err := RenderDOT(context.Background(), "graph {}", "gif"); err == nil {
		t.Error("RenderDOT() accepted an unsupported format")
	}
}

func TestJSON(t *testing.T) {
	data, err := JSON(testScene())
	if err != nil {
		t.Fatalf("JSON() error: %v", err)
	}
	var out scene.Scene
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("json.Unmarshal() error: %v", err)
	}
	if len(out.Nodes) != 2 || len(out.Edges) != 1 {
		t.Fatalf("decoded %d nodes, %d edges", len(out.Nodes), len(out.Edges))
	}
	if out.Selection.Selected != `b"&<1>` || out.Edges[0].Width != 3 {
		t.Errorf("decoded scene = %+v", out)
	}

	data, err = JSON(scene.Scene{})
	if err != nil {
		t.Fatalf("JSON(empty) error: %v", err)
	}
	if !bytes.Contains(data, []byte(`"nodes": []`)) || !bytes.Contains(data, []byte(`"edges": []`)) {
		t.Errorf("empty scene encoded as %s", data)
	}
}

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func TestTerminal(t *testing.T) {
	out := Terminal(testScene(), TerminalOptions{Cols: 40, Rows: 15, Labels: true})
	plain := ansiRe.ReplaceAllString(out, "")
	lines := strings.Split(plain, "\n")
	if len(lines) != 15 {
		t.Fatalf("rows = %d, want 15", len(lines))
	}
	for i, l := range lines {
		if n := len([]rune(l)); n != 40 {
			t.Errorf("row %d has %d cells, want 40", i, n)
		}
	}
	// Node a sits at (100,100) on a 400x300 canvas: cell (10,5).
	if got := []rune(lines[5])[10]; got != '●' {
		t.Errorf("cell (10,5) = %q, want node center", got)
	}
	if !strings.Contains(plain, "Alpha") {
		t.Error("label missing")
	}
	if !strings.ContainsAny(plain, "·•") {
		t.Error("edge missing")
	}
}

func TestTerminalEmpty(t *testing.T) {
	if out := Terminal(scene.Scene{}, TerminalOptions{}); out != "" {
		t.Errorf("zero grid = %q, want empty", out)
	}
	out := ansiRe.ReplaceAllString(Terminal(scene.Scene{}, TerminalOptions{Cols: 3, Rows: 2}), "")
	if out != "   \n   " {
		t.Errorf("empty scene = %q", out)
	}
}

func TestLine(t *testing.T) {
	var got [][2]int
	line(0, 0, 3, 1, func(x, y int) { got = append(got, [2]int{x, y}) })
	if len(got) != 4 || got[0] != [2]int{0, 0} || got[3] != [2]int{3, 1} {
		t.Errorf("line = %v", got)
	}
}

func TestFlatten(t *testing.T) {
	tests := []struct {
		fg, bg  string
		opacity float64
		want    string
	}{
		{"#ffffff", "#000000", 1, "#ffffff"},
		{"#ffffff", "#000000", 0, "#000000"},
		{"#2563eb", "#ffffff", 1, "#2563eb"},
		{"rgba(255,255,255,0.5)", "#000000", 1, "#808080"},
	}
	for _, tt := range tests {
		if got := flatten(tt.fg, tt.bg, tt.opacity); got != tt.want {
			t.Errorf("flatten(%s, %s, %v) = %s, want %s", tt.fg, tt.bg, tt.opacity, got, tt.want)
		}
	}
}
