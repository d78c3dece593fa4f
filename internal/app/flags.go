package app

import (
	"flag"
	"fmt"
	"io"

	"github.com/gogpu/interop/internal/config"
)

// ParseFlags parses the command line of the interop commands.
//
// The config file named by -config is loaded first; flags given explicitly
// on the command line override it.
func ParseFlags(name string, args []string, stderr io.Writer) (config.Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)

	def := config.Default()
	var (
		path      = fs.String("config", "", "YAML config file")
		size      = fs.Int("size", def.Compute.Size, "number of float32 elements")
		coeff     = fs.Float64("coeff", float64(def.Compute.Coefficient), "scalar multiplier")
		seed      = fs.Uint64("seed", def.Compute.Seed, "data set seed")
		rows      = fs.Int("rows", def.Compute.Rows, "rows printed in the report")
		backend   = fs.String("backend", def.Compute.Backend, "kernel backend: gpu or cpu")
		shader    = fs.String("shader", def.Compute.Shader, "shader format: wgsl or spirv")
		logLevel  = fs.String("log-level", def.Logging.Level, "log level: debug, info, warn, error")
		logFormat = fs.String("log-format", def.Logging.Format, "log format: text, json, auto")
		overlay   = fs.Bool("overlay", def.Overlay, "draw status text in the window")
		noWindow  = fs.Bool("no-window", def.NoWindow, "run the compute part only")
	)
	if err := fs.Parse(args); err != nil {
		return def, err
	}
	if fs.NArg() > 0 {
		return def, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	cfg := def
	if *path != "" {
		var err error
		if cfg, err = config.Load(*path); err != nil {
			return cfg, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "size":
			cfg.Compute.Size = *size
		case "coeff":
			cfg.Compute.Coefficient = float32(*coeff)
		case "seed":
			cfg.Compute.Seed = *seed
		case "rows":
			cfg.Compute.Rows = *rows
		case "backend":
			cfg.Compute.Backend = *backend
		case "shader":
			cfg.Compute.Shader = *shader
		case "log-level":
			cfg.Logging.Level = *logLevel
		case "log-format":
			cfg.Logging.Format = *logFormat
		case "overlay":
			cfg.Overlay = *overlay
		case "no-window":
			cfg.NoWindow = *noWindow
		}
	})
	return cfg, cfg.Validate()
}
