// Package config holds the settings of the interop commands.
//
// Defaults reproduce the fixed constants of the demo: a 800x600 window
// cleared to (0, 0.5, 1, 1), a data set of 1<<20 floats in [0, 20)
// multiplied by 5432.1, and 20 printed rows. A YAML file may override any
// of them; command-line flags are applied on top by the commands.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/interop/internal/dataset"
	"github.com/gogpu/interop/internal/frame"
)

// Backend names accepted in compute.backend.
const (
	BackendGPU = "gpu"
	BackendCPU = "cpu"
)

// Log formats accepted in logging.format.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
	LogFormatAuto = "auto"
)

// DefaultTitle is the window title used when none is configured.
const DefaultTitle = "gogpu + compute interop"

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid value")

// Config is the full command configuration.
type Config struct {
	Window   Window  `yaml:"window"`
	Compute  Compute `yaml:"compute"`
	Logging  Logging `yaml:"logging"`
	Overlay  bool    `yaml:"overlay"`
	NoWindow bool    `yaml:"no_window"`
}

// Window configures the presentation side.
type Window struct {
	Title      string     `yaml:"title"`
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	ClearColor [4]float64 `yaml:"clear_color"`
	FPS        int        `yaml:"fps"`
}

// Compute configures the kernel run.
type Compute struct {
	Backend     string        `yaml:"backend"`
	Size        int           `yaml:"size"`
	Coefficient float32       `yaml:"coefficient"`
	Seed        uint64        `yaml:"seed"`
	Min         float32       `yaml:"min"`
	Max         float32       `yaml:"max"`
	Rows        int           `yaml:"rows"`
	Shader      string        `yaml:"shader"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Logging configures the slog handler built by the commands.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Window: Window{
			Title:      DefaultTitle,
			Width:      800,
			Height:     600,
			ClearColor: [4]float64{0, 0.5, 1, 1},
			FPS:        frame.DefaultFPS,
		},
		Compute: Compute{
			Backend:     BackendGPU,
			Size:        dataset.DefaultSize,
			Coefficient: dataset.DefaultCoefficient,
			Seed:        1,
			Min:         dataset.DefaultMin,
			Max:         dataset.DefaultMax,
			Rows:        dataset.DefaultRows,
			Shader:      "wgsl",
			Timeout:     5 * time.Second,
		},
		Logging: Logging{
			Level:  "info",
			Format: LogFormatAuto,
		},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	case c.Window.FPS <= 0:
		return fmt.Errorf("%w: fps %d", ErrInvalid, c.Window.FPS)
	case c.Compute.Size <= 0:
		return fmt.Errorf("%w: size %d", ErrInvalid, c.Compute.Size)
	case c.Compute.Rows < 0:
		return fmt.Errorf("%w: rows %d", ErrInvalid, c.Compute.Rows)
	case !(c.Compute.Min < c.Compute.Max):
		return fmt.Errorf("%w: range [%v, %v)", ErrInvalid, c.Compute.Min, c.Compute.Max)
	case c.Compute.Timeout <= 0:
		return fmt.Errorf("%w: timeout %v", ErrInvalid, c.Compute.Timeout)
	}
	for i, v := range c.Window.ClearColor {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: clear_color[%d] = %v", ErrInvalid, i, v)
		}
	}
	switch c.Compute.Backend {
	case BackendGPU, BackendCPU:
	default:
		return fmt.Errorf("%w: backend %q", ErrInvalid, c.Compute.Backend)
	}
	switch c.Compute.Shader {
	case "wgsl", "spirv":
	default:
		return fmt.Errorf("%w: shader %q", ErrInvalid, c.Compute.Shader)
	}
	switch strings.ToLower(c.Logging.Format) {
	case LogFormatText, LogFormatJSON, LogFormatAuto:
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalid, c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log level %q", ErrInvalid, c.Logging.Level)
	}
	return nil
}
