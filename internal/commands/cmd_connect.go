package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/devaloi/namechat/internal/registry"
	"github.com/devaloi/namechat/internal/wallet"
)

type ConnectCmd struct {
	flags *Flags
}

// NewConnectCmd creates a new connect command
func NewConnectCmd(flags *Flags) *ConnectCmd {
	return &ConnectCmd{flags: flags}
}

// Register adds the connect command to the application
func (cmd *ConnectCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "connect",
		Usage:     "Connect a wallet address",
		UsageText: "namechat connect [address]",
		Description: `Connects the given address, or generates a mock wallet address when none
is given, and reports the name it holds.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *ConnectCmd) run(ctx context.Context, c *cli.Command) error {
	var provider wallet.Provider = wallet.Mock{}
	if c.NArg() > 0 {
		provider = wallet.Static(c.Args().First())
	}

	addr, err := provider.Address(ctx)
	if err != nil {
		return fmt.Errorf("connect wallet: %w", err)
	}

	out := c.Root().Writer
	fmt.Fprintf(out, "Connected as %s\n", addr)
	if name, ok := cmd.flags.Store.NameOf(addr); ok {
		fmt.Fprintf(out, "Registered name: %s\n", registry.Label(name))
	} else {
		fmt.Fprintln(out, "No name registered yet")
	}
	fmt.Fprintf(out, "export NAMECHAT_OWNER=%s\n", addr)
	return nil
}
