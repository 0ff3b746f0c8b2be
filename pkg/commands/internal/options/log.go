package options

import (
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/wharfd/wharfd/pkg/xlog"
)

// LogFlagCategory is the category of the logging flags.
const LogFlagCategory = "[Log]"

// NewLogOptions returns a new *LogOptions with default values.
func NewLogOptions() *LogOptions {
	return &LogOptions{
		Level:  "info",
		Format: "text",
	}
}

// LogOptions defines the options for logging output.
type LogOptions struct {
	// Level is the minimum level emitted, oneof ["debug", "info", "warn",
	// "error"].
	Level string

	// Format selects the output encoding, oneof ["text", "json"].
	Format string

	// File enables rotated JSON file output when non-empty.
	File string
}

// Flags returns the []cli.Flag related to current options.
func (o *LogOptions) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       `log level, oneof ["debug", "info", "warn", "error"]`,
			Sources:     cli.EnvVars("WHARFD_LOG_LEVEL"),
			Value:       o.Level,
			Destination: &o.Level,
			Category:    LogFlagCategory,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       `log output format, oneof ["text", "json"]`,
			Sources:     cli.EnvVars("WHARFD_LOG_FORMAT"),
			Value:       o.Format,
			Destination: &o.Format,
			Category:    LogFlagCategory,
		},
		&cli.StringFlag{
			Name:        "log-file",
			Usage:       "write rotated JSON logs to this file in addition to stdout",
			Sources:     cli.EnvVars("WHARFD_LOG_FILE"),
			Value:       o.File,
			Destination: &o.File,
			Category:    LogFlagCategory,
		},
	}
}

// Config converts to an xlog.Config.
func (o *LogOptions) Config() xlog.Config {
	c := xlog.NewConfig()
	switch o.Level {
	case "debug":
		c.Level = slog.LevelDebug
	case "warn":
		c.Level = slog.LevelWarn
	case "error":
		c.Level = slog.LevelError
	default:
		c.Level = slog.LevelInfo
	}
	c.Format = o.Format
	c.Path = o.File
	return c
}
