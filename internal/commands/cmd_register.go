package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/devaloi/namechat/internal/registry"
)

type RegisterCmd struct {
	flags *Flags
}

// NewRegisterCmd creates a new register command
func NewRegisterCmd(flags *Flags) *RegisterCmd {
	return &RegisterCmd{flags: flags}
}

// Register adds the register command to the application
func (cmd *RegisterCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "register",
		Usage:       "Register a name for the connected owner",
		UsageText:   "namechat --owner <address> register <name>",
		Description: "Names are trimmed and lowercased. A name already held by anyone is rejected.",
		Action:      cmd.run,
	})

	return app
}

func (cmd *RegisterCmd) run(ctx context.Context, c *cli.Command) error {
	if err := requireOwner(cmd.flags); err != nil {
		return err
	}

	name, err := cmd.flags.Store.Register(ctx, cmd.flags.Owner, c.Args().First())
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}

	fmt.Fprintf(c.Root().Writer, "Registered %s\n", registry.Label(name))
	return nil
}
