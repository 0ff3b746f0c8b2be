// Package serve implements the serve command: it wires the index, content
// store, auth resolver and HTTP shell together and runs the registry server.
package serve

import (
	"context"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/wharfd/wharfd/pkg/cmdhelper"
	"github.com/wharfd/wharfd/pkg/commands/internal/options"
	"github.com/wharfd/wharfd/pkg/registry"
	"github.com/wharfd/wharfd/pkg/registry/auth"
	"github.com/wharfd/wharfd/pkg/registry/content"
	"github.com/wharfd/wharfd/pkg/registry/httpapi"
	"github.com/wharfd/wharfd/pkg/registry/index"
	"github.com/wharfd/wharfd/pkg/xlog"
)

const shutdownTimeout = 5 * time.Second

// New creates a new Command.
func New() *Command {
	return NewCommand()
}

// NewCommand returns a command with default values.
func NewCommand() *Command {
	return &Command{
		ServerOptions:   options.NewServerOptions(),
		DatabaseOptions: options.NewDatabaseOptions(),
		StorageOptions:  options.NewStorageOptions(),
		AuthOptions:     options.NewAuthOptions(),
		LogOptions:      options.NewLogOptions(),
	}
}

// Command is a command to start the registry server.
type Command struct {
	ServerOptions   *options.ServerOptions
	DatabaseOptions *options.DatabaseOptions
	StorageOptions  *options.StorageOptions
	AuthOptions     *options.AuthOptions
	LogOptions      *options.LogOptions
}

// ToCLI transforms to a *cli.Command.
func (c *Command) ToCLI() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"server"},
		Usage:   "Start the registry server",
		UsageText: `wharfd serve [OPTIONS]

# Start the registry with default settings
$ wharfd serve

# Start the registry on a custom port with a custom storage root
$ wharfd serve --port 9000 --storage-root /var/lib/wharfd
`,
		Flags:  c.Flags(),
		Before: cli.BeforeFunc(cmdhelper.NoArgs()),
		Action: c.Run,
	}
}

// Flags defines the flags related to the current command.
func (c *Command) Flags() []cli.Flag {
	flags := []cli.Flag{}
	flags = append(flags, c.ServerOptions.Flags()...)
	flags = append(flags, c.DatabaseOptions.Flags()...)
	flags = append(flags, c.StorageOptions.Flags()...)
	flags = append(flags, c.AuthOptions.Flags()...)
	flags = append(flags, c.LogOptions.Flags()...)
	return flags
}

// Run is the main function for the current command.
func (c *Command) Run(ctx context.Context, cmd *cli.Command) error {
	xlog.SetDefault(xlog.New(c.LogOptions.Config()))

	idx, err := index.Open(c.DatabaseOptions.Path, c.DatabaseOptions.IndexOptions())
	if err != nil {
		return err
	}
	defer idx.Close()

	reg := registry.New(idx, content.NewStore(c.StorageOptions.Root))
	resolver := auth.NewHTTPResolver(c.AuthOptions.MeEndpoint, nil)
	api := httpapi.New(reg, resolver, httpapi.Config{
		AuthRealm:   c.AuthOptions.Realm,
		AuthService: c.AuthOptions.Service,
	})

	address := c.ServerOptions.Address()
	xlog.C(ctx).Infof("Starting registry %s", address)

	srv := &http.Server{
		Addr:              address,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			xlog.C(ctx).Error("Server error", "error", err)
		}
	}()

	cmdhelper.Fprintf(cmd.Writer, "Registry started at http://%s\n", address)
	cmdhelper.Fprintf(cmd.Writer, "Press Ctrl+C to stop the server\n")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		xlog.C(ctx).Error("Server shutdown failed", "error", err)
		return err
	}

	xlog.C(ctx).Info("Server stopped")
	return nil
}
