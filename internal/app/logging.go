package app

import (
	"io"
	"log/slog"
	"strings"

	"golang.org/x/term"

	"github.com/gogpu/interop"
	"github.com/gogpu/interop/internal/config"
)

// NewLogger builds a slog logger writing to w.
//
// Format "auto" selects the text handler when w is a terminal and the JSON
// handler otherwise.
func NewLogger(cfg config.Logging, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if useJSON(cfg.Format, w) {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// SetupLogging installs the logger as the slog default and hands it to the
// interop packages.
func SetupLogging(cfg config.Logging, w io.Writer) *slog.Logger {
	l := NewLogger(cfg, w)
	slog.SetDefault(l)
	interop.SetLogger(l)
	return l
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func useJSON(format string, w io.Writer) bool {
	switch strings.ToLower(format) {
	case config.LogFormatJSON:
		return true
	case config.LogFormatText:
		return false
	}
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return true
	}
	return !term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits int
}
