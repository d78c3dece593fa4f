package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Window.Width != 800 || cfg.Window.Height != 600 {
		t.Errorf("window = %dx%d, want 800x600", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Compute.Size != 1<<20 {
		t.Errorf("size = %d, want %d", cfg.Compute.Size, 1<<20)
	}
	if cfg.Compute.Coefficient != 5432.1 {
		t.Errorf("coefficient = %v, want 5432.1", cfg.Compute.Coefficient)
	}
	if cfg.Window.ClearColor != [4]float64{0, 0.5, 1, 1} {
		t.Errorf("clear colour = %v", cfg.Window.ClearColor)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "interop.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
window:
  title: custom
  fps: 30
compute:
  backend: cpu
  size: 4096
  timeout: 250ms
logging:
  format: json
overlay: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.Window.Title != "custom" || cfg.Window.FPS != 30 {
		t.Errorf("window = %+v", cfg.Window)
	}
	if cfg.Window.Width != 800 {
		t.Errorf("width = %d, want default 800", cfg.Window.Width)
	}
	if cfg.Compute.Backend != BackendCPU || cfg.Compute.Size != 4096 {
		t.Errorf("compute = %+v", cfg.Compute)
	}
	if cfg.Compute.Timeout != 250*time.Millisecond {
		t.Errorf("timeout = %v, want 250ms", cfg.Compute.Timeout)
	}
	if cfg.Compute.Coefficient != 5432.1 {
		t.Errorf("coefficient = %v, want default", cfg.Compute.Coefficient)
	}
	if !cfg.Overlay || cfg.Logging.Format != LogFormatJSON {
		t.Errorf("overlay=%v format=%q", cfg.Overlay, cfg.Logging.Format)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want os.ErrNotExist", err)
	}
	if _, err := Load(writeConfig(t, "compute: [unterminated")); err == nil {
		t.Error("malformed YAML: want error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Window.Width = 0 }},
		{"zero fps", func(c *Config) { c.Window.FPS = 0 }},
		{"zero size", func(c *Config) { c.Compute.Size = 0 }},
		{"negative rows", func(c *Config) { c.Compute.Rows = -1 }},
		{"empty range", func(c *Config) { c.Compute.Min, c.Compute.Max = 5, 5 }},
		{"zero timeout", func(c *Config) { c.Compute.Timeout = 0 }},
		{"clear colour", func(c *Config) { c.Window.ClearColor[2] = 1.5 }},
		{"backend", func(c *Config) { c.Compute.Backend = "opencl" }},
		{"shader", func(c *Config) { c.Compute.Shader = "glsl" }},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}
}
