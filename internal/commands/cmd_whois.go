package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"
)

type WhoisCmd struct {
	flags *Flags
}

// NewWhoisCmd creates a new whois command
func NewWhoisCmd(flags *Flags) *WhoisCmd {
	return &WhoisCmd{flags: flags}
}

// Register adds the whois command to the application
func (cmd *WhoisCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "whois",
		Usage:     "Show the display name of an address",
		UsageText: "namechat whois <address>",
		Action:    cmd.run,
	})

	return app
}

func (cmd *WhoisCmd) run(ctx context.Context, c *cli.Command) error {
	owner := c.Args().First()
	if owner == "" {
		owner = cmd.flags.Owner
	}
	if owner == "" {
		return errors.New("whois: address required")
	}

	fmt.Fprintln(c.Root().Writer, cmd.flags.Store.ResolveDisplayName(owner))
	return nil
}
