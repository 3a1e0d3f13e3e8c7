package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cratechef/internal/config"
)

// LogFileName is the file NewFromConfig appends to under paths.log_dir.
const LogFileName = "cratechef.log"

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Output receives every line. Nil means stderr.
	Output io.Writer
}

// New constructs a slog logger writing console or JSON lines to opts.Output.
// Debug loggers also report the caller.
func New(opts Options) (*slog.Logger, error) {
	f, err := parseFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	level := parseLevel(opts.Level)
	return slog.New(newLineHandler(out, f, level, level <= slog.LevelDebug)), nil
}

// NewFromConfig creates a logger from the [logging] section. Lines go to
// stderr so command summaries on stdout stay clean, and a copy is appended to
// LogFileName under the configured log directory.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{})
	}
	out := io.Writer(os.Stderr)
	if dir := strings.TrimSpace(cfg.Paths.LogDir); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
		path := filepath.Join(dir, LogFileName)
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", path, err)
		}
		out = io.MultiWriter(os.Stderr, file)
	}
	return New(Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: out})
}

type format int

const (
	formatConsole format = iota
	formatJSON
)

func parseFormat(value string) (format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "console":
		return formatConsole, nil
	case "json":
		return formatJSON, nil
	default:
		return 0, fmt.Errorf("log format: unsupported value %q", value)
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
