package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/creatornet/pkg/errors"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Layout.Width != 800 || cfg.Layout.Height != 640 {
		t.Errorf("canvas = %gx%g, want 800x640", cfg.Layout.Width, cfg.Layout.Height)
	}
	if cfg.Interaction.ClickWindow.Std() != 200*time.Millisecond {
		t.Errorf("click window = %v, want 200ms", cfg.Interaction.ClickWindow)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[source]
spec = "sqlite:networks.db"
platform = "douyin"

[sqlite]
table = "snapshots"

[layout]
width = 1200
weighted_links = true

[interaction]
click_window = "350ms"

[server]
session_ttl = "5m"

[render.style]
label_budget = 4
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Source.Platform != "douyin" {
		t.Errorf("platform = %q", cfg.Source.Platform)
	}
	if cfg.Layout.Width != 1200 || cfg.Layout.Height != 640 {
		t.Errorf("canvas = %gx%g, want 1200x640", cfg.Layout.Width, cfg.Layout.Height)
	}
	if lo := cfg.LayoutOptions(); !lo.WeightedLinks || lo.Width != 1200 {
		t.Errorf("LayoutOptions() = %+v", lo)
	}
	if got := cfg.InteractOptions().ClickWindow; got != 350*time.Millisecond {
		t.Errorf("click window = %v, want 350ms", got)
	}
	if got := cfg.SessionOptions().TTL; got != 5*time.Minute {
		t.Errorf("session ttl = %v, want 5m", got)
	}
	if got := cfg.Render.Style.LabelBudget; got != 4 {
		t.Errorf("label budget = %d, want 4", got)
	}
	if got := cfg.Render.Style.DefaultFill; got == "" {
		t.Error("unset style fields lost their defaults")
	}
	if got := cfg.SourceOptions(cfg.Source.Spec).Collection; got != "snapshots" {
		t.Errorf("sqlite collection = %q, want snapshots", got)
	}
	if got := cfg.SourceOptions("mongodb://db").Collection; got != "creator_networks" {
		t.Errorf("mongo collection = %q", got)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"Syntax", "[layout\nwidth = 1"},
		{"NegativeCanvas", "[layout]\nwidth = -5"},
		{"DecayOutOfRange", "[layout]\nalpha_decay = 1.5"},
		{"RadiusOrder", "[layout]\nmin_radius = 50\nmax_radius = 10"},
		{"Metric", "[layout]\nmetric = \"likes\""},
		{"CacheBackend", "[cache]\nbackend = \"memcached\""},
		{"Format", "[render]\nformats = [\"gif\"]"},
		{"Duration", "[interaction]\nclick_window = \"soon\""},
		{"Platform", "[source]\nplatform = \"Bad Platform\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.data), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Load() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Server.Addr = ":9999"
	cfg.Interaction.ClickWindow = Duration(time.Second)
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Server.Addr != ":9999" || got.Interaction.ClickWindow.Std() != time.Second {
		t.Errorf("round trip lost values: %+v", got.Server)
	}
}

func TestEnsureExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	created, err := EnsureExists(path)
	if err != nil || !created {
		t.Fatalf("EnsureExists() = %v, %v, want true, nil", created, err)
	}
	created, err = EnsureExists(path)
	if err != nil || created {
		t.Errorf("second EnsureExists() = %v, %v, want false, nil", created, err)
	}
}

func TestConfigDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if got, want := Path(), filepath.Join(dir, "creatornet", "config.toml"); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}
