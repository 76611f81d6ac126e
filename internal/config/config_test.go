package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/seenimoa/optionocean/internal/scene"
)

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port: got %d, want 8080", cfg.Server.Port)
	}
	if !cfg.Server.ServeUI {
		t.Error("Server.ServeUI should be true by default")
	}
	if cfg.Server.FrameRate != 30 {
		t.Errorf("Server.FrameRate: got %d, want 30", cfg.Server.FrameRate)
	}
	if cfg.Data.DefaultFile != "spy_quotedata.csv" {
		t.Errorf("Data.DefaultFile: got %q", cfg.Data.DefaultFile)
	}
	if cfg.View.Metric != "Ask" || !cfg.View.ShowCalls || !cfg.View.ShowPuts {
		t.Errorf("View: got %+v", cfg.View)
	}
	if cfg.View.Alpha != 0.7 {
		t.Errorf("View.Alpha: got %f, want 0.7", cfg.View.Alpha)
	}
	if cfg.Grid.SpacingX != 14 || cfg.Grid.SpacingZ != 6 || cfg.Grid.MarkerRadius != 2.5 {
		t.Errorf("Grid: got %+v", cfg.Grid)
	}
	if len(cfg.Camera.Position) != 3 || cfg.Camera.Position[2] != 180 {
		t.Errorf("Camera.Position: got %v", cfg.Camera.Position)
	}
	if cfg.UI.Background != "#101428" {
		t.Errorf("UI.Background: got %q", cfg.UI.Background)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Logging: got %+v", cfg.Logging)
	}
	if cfg.File != "" {
		t.Errorf("File: got %q, want empty", cfg.File)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPTIONOCEAN_SERVER_PORT", "9191")
	t.Setenv("OPTIONOCEAN_VIEW_METRIC", "IV.1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("Server.Port: got %d, want 9191", cfg.Server.Port)
	}
	if cfg.View.Metric != "IV.1" {
		t.Errorf("View.Metric: got %q, want IV.1", cfg.View.Metric)
	}
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
server:
  port: 9090
  frame_rate: 60
data:
  default_file: "qqq_quotedata.csv"
view:
  metric: "Delta.1"
  show_calls: false
  glow: 2.5
  color1: "#112233"
  blend: "lab"
camera:
  position: [10, 20, 30]
logging:
  level: "debug"
  format: "json"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port: got %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.FrameRate != 60 {
		t.Errorf("Server.FrameRate: got %d, want 60", cfg.Server.FrameRate)
	}
	if cfg.Data.DefaultFile != "qqq_quotedata.csv" {
		t.Errorf("Data.DefaultFile: got %q", cfg.Data.DefaultFile)
	}
	if cfg.View.Metric != "Delta.1" || cfg.View.ShowCalls {
		t.Errorf("View: got %+v", cfg.View)
	}
	// unset keys keep their defaults
	if !cfg.View.ShowPuts || cfg.View.Color2 != "#ff50b4" {
		t.Errorf("View defaults lost: %+v", cfg.View)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging: got %+v", cfg.Logging)
	}
	if cfg.File != cfgPath {
		t.Errorf("File: got %q, want %q", cfg.File, cfgPath)
	}

	p := cfg.View.Params()
	if p.Metric != "Delta.1" || p.Glow != 2.5 || p.Blend != scene.BlendLab || p.Color1.Hex() != "#112233" {
		t.Errorf("Params(): got %+v", p)
	}
	cc := cfg.Camera.Config()
	if cc.Position != (mgl64.Vec3{10, 20, 30}) {
		t.Errorf("Camera.Config().Position: got %v", cc.Position)
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

// ── Validate ──

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"frame rate", func(c *Config) { c.Server.FrameRate = -1 }, "server.frame_rate"},
		{"metric", func(c *Config) { c.View.Metric = "Theta" }, "view.metric"},
		{"glow", func(c *Config) { c.View.Glow = 5 }, "view.glow"},
		{"wave speed", func(c *Config) { c.View.WaveSpeed = 0 }, "view.wave_speed"},
		{"alpha", func(c *Config) { c.View.Alpha = 0.05 }, "view.alpha"},
		{"color", func(c *Config) { c.View.Color2 = "pink" }, "view.color2"},
		{"background", func(c *Config) { c.UI.Background = "#12" }, "ui.background"},
		{"blend", func(c *Config) { c.View.Blend = "cmyk" }, "view.blend"},
		{"grid", func(c *Config) { c.Grid.SpacingX = 0 }, "grid"},
		{"camera position", func(c *Config) { c.Camera.Position = []float64{1, 2} }, "camera.position"},
		{"fov", func(c *Config) { c.Camera.FOV = 180 }, "camera.fov"},
		{"distance", func(c *Config) { c.Camera.MaxDistance = 10 }, "camera distance"},
		{"upload", func(c *Config) { c.Data.MaxUploadMB = 0 }, "data.max_upload_mb"},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

// ── Dump ──

func TestDumpRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.View.Metric = "Gamma"
	out, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error: %v", err)
	}
	if !strings.Contains(string(out), "metric: Gamma") {
		t.Errorf("dump missing metric:\n%s", out)
	}

	var back Config
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal dump: %v", err)
	}
	if back.View.Metric != "Gamma" || back.Server.Port != cfg.Server.Port {
		t.Errorf("round trip lost values: %+v", back)
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir on newer Go).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
