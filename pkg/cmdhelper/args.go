package cmdhelper

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// NoArgs returns a Before function that rejects positional arguments.
func NoArgs() func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	return func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
		if cmd.Args().Len() > 0 {
			return ctx, fmt.Errorf("command %q accepts no arguments, got %q", cmd.Name, cmd.Args().Slice())
		}
		return ctx, nil
	}
}
