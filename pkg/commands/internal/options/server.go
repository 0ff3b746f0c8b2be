// Package options defines the flag groups shared by the wharfd commands.
package options

import (
	"fmt"

	"github.com/urfave/cli/v3"
)

const (
	// ServerFlagCategory is the category of the server flags.
	ServerFlagCategory = "[Server]"

	// DefaultServerPort is the default port for the server to listen on.
	DefaultServerPort int64 = 8000

	// DefaultServerHost is the default host for the server to listen on.
	DefaultServerHost = "0.0.0.0"
)

// NewServerOptions returns a new *ServerOptions with default values.
func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		Port:      DefaultServerPort,
		Host:      DefaultServerHost,
		PublicURL: fmt.Sprintf("http://%s:%d", DefaultServerHost, DefaultServerPort),
	}
}

// ServerOptions defines the options for the registry server.
type ServerOptions struct {
	// Port is the port for the server to listen on.
	Port int64

	// Host is the host for the server to listen on.
	Host string

	// PublicURL is the externally reachable URL of the registry.
	PublicURL string
}

// Flags returns the []cli.Flag related to current options.
func (o *ServerOptions) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "port",
			Aliases:     []string{"p"},
			Usage:       "port to listen on",
			Sources:     cli.EnvVars("WHARFD_SERVER_PORT"),
			Value:       o.Port,
			Destination: &o.Port,
			Category:    ServerFlagCategory,
		},
		&cli.StringFlag{
			Name:        "host",
			Usage:       "host to listen on",
			Sources:     cli.EnvVars("WHARFD_SERVER_HOST"),
			Value:       o.Host,
			Destination: &o.Host,
			Category:    ServerFlagCategory,
		},
		&cli.StringFlag{
			Name:        "public-url",
			Usage:       "externally reachable URL of the registry",
			Sources:     cli.EnvVars("WHARFD_PUBLIC_URL"),
			Value:       o.PublicURL,
			Destination: &o.PublicURL,
			Category:    ServerFlagCategory,
		},
	}
}

// Address returns the server address format as host:port.
func (o *ServerOptions) Address() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}
