// Package logging builds the slog loggers used by the vatsim-scope programs.
package logging

import (
	"io"
	"log/slog"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/unklstewy/vatsim-scope/pkg/config"
)

// New returns a logger for cfg. When cfg.File is set, output goes to a
// size-rotated file and the returned Closer closes it; otherwise output goes
// to stderr and Close is a no-op.
func New(cfg config.LoggingConfig) (*slog.Logger, io.Closer) {
	if cfg.File == "" {
		return NewWithWriter(cfg, os.Stderr), nopCloser{}
	}

	w := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB, // MB
		MaxBackups: cfg.MaxBackups,
		Compress:   true,
	}
	return NewWithWriter(cfg, w), w
}

// NewWithWriter returns a logger for cfg that writes to w.
func NewWithWriter(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// ParseLevel maps a level name to a slog level. Unknown names map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// LogStartup records the program name and build details.
func LogStartup(l *slog.Logger, program string) {
	attrs := []any{
		slog.String("program", program),
		slog.String("goos", runtime.GOOS),
		slog.String("goarch", runtime.GOARCH),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		attrs = append(attrs,
			slog.String("go_version", bi.GoVersion),
			slog.String("module_version", bi.Main.Version))
	}
	l.Info("starting", attrs...)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
