package options

import (
	"github.com/urfave/cli/v3"

	"github.com/wharfd/wharfd/pkg/registry/index"
)

// DatabaseFlagCategory is the category of the database flags.
const DatabaseFlagCategory = "[Database]"

// NewDatabaseOptions returns a new *DatabaseOptions with default values.
func NewDatabaseOptions() *DatabaseOptions {
	return &DatabaseOptions{
		Path:     "wharfd.db",
		MaxConns: index.DefaultMaxConns,
	}
}

// DatabaseOptions defines the options for the SQLite index.
type DatabaseOptions struct {
	// Path is the SQLite database file, created when absent.
	Path string

	// MaxConns bounds the connection pool.
	MaxConns int64

	// LogStatements logs every SQL statement at debug level.
	LogStatements bool
}

// Flags returns the []cli.Flag related to current options.
func (o *DatabaseOptions) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "database-path",
			Usage:       "path of the SQLite index database",
			Sources:     cli.EnvVars("WHARFD_DATABASE_PATH"),
			Value:       o.Path,
			Destination: &o.Path,
			Category:    DatabaseFlagCategory,
		},
		&cli.IntFlag{
			Name:        "database-max-conns",
			Usage:       "maximum number of open database connections",
			Sources:     cli.EnvVars("WHARFD_DATABASE_MAX_CONNS"),
			Value:       o.MaxConns,
			Destination: &o.MaxConns,
			Category:    DatabaseFlagCategory,
		},
		&cli.BoolFlag{
			Name:        "database-log-statements",
			Usage:       "log every SQL statement at debug level",
			Sources:     cli.EnvVars("WHARFD_DATABASE_LOG_STATEMENTS"),
			Value:       o.LogStatements,
			Destination: &o.LogStatements,
			Category:    DatabaseFlagCategory,
		},
	}
}

// IndexOptions converts to the index package's option struct.
func (o *DatabaseOptions) IndexOptions() index.Options {
	return index.Options{
		MaxConns:      int(o.MaxConns),
		LogStatements: o.LogStatements,
	}
}
