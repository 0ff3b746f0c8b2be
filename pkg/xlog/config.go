package xlog

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewConfig returns the default logging configuration: info level, text
// format on stdout, source locations enabled, no file output.
func NewConfig() Config {
	return Config{
		Level:      slog.LevelInfo,
		AddSource:  true,
		Format:     "text",
		Writer:     os.Stdout,
		MaxSize:    30,
		MaxAge:     0,
		MaxBackups: 0,
	}
}

// Config describes how log records are formatted and where they go.
type Config struct {
	// Level is the minimum level emitted.
	Level slog.Level
	// AddSource includes the file and line of the logging call.
	AddSource bool
	// Format selects the standard output encoding, one of ["text", "json"].
	Format string
	// Writer is the standard output destination, os.Stdout when nil.
	Writer io.Writer

	// Path enables rotated file output when non-empty. Files are always
	// JSON-encoded regardless of Format.
	Path string
	// MaxSize is the size in MB at which the file is rotated.
	MaxSize int
	// MaxAge is the maximum number of days to retain rotated files.
	MaxAge int
	// MaxBackups is the maximum number of rotated files to retain.
	MaxBackups int
}

// BuildHandler creates a slog.Handler from the config.
func (c Config) BuildHandler() slog.Handler {
	opts := &slog.HandlerOptions{
		AddSource:   c.AddSource,
		Level:       c.Level,
		ReplaceAttr: normalizeSourceAttr,
	}
	w := c.Writer
	if w == nil {
		w = os.Stdout
	}

	var handlers []slog.Handler
	if c.Format == "json" {
		handlers = append(handlers, slog.NewJSONHandler(w, opts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(w, opts))
	}
	if c.Path != "" {
		fw := &lumberjack.Logger{
			Filename:   c.Path,
			MaxSize:    c.MaxSize,
			MaxAge:     c.MaxAge,
			MaxBackups: c.MaxBackups,
		}
		handlers = append(handlers, slog.NewJSONHandler(fw, opts))
	}
	if len(handlers) == 1 {
		return handlers[0]
	}
	return MultiHandler(handlers...)
}

// normalizeSourceAttr rewrites the source file path as its basename.
func normalizeSourceAttr(groups []string, attr slog.Attr) slog.Attr {
	if attr.Key == slog.SourceKey {
		if source, ok := attr.Value.Any().(*slog.Source); ok {
			source.File = filepath.Base(source.File)
		}
	}
	return attr
}
