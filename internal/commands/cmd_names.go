package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/devaloi/namechat/internal/registry"
)

type NamesCmd struct {
	flags *Flags
}

// NewNamesCmd creates a new names command
func NewNamesCmd(flags *Flags) *NamesCmd {
	return &NamesCmd{flags: flags}
}

// Register adds the names command to the application
func (cmd *NamesCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "names",
		Usage:       "List registered names",
		UsageText:   "namechat names",
		Description: "Displays a table of every registered name with its label and owner.",
		Action:      cmd.run,
	})

	return app
}

func (cmd *NamesCmd) run(ctx context.Context, c *cli.Command) error {
	out := c.Root().Writer

	names := cmd.flags.Store.Names()
	if len(names) == 0 {
		fmt.Fprintln(out, "No names registered")
		return nil
	}

	table := newTable(out)
	table.SetHeader([]string{"Name", "Label", "Owner"})
	for _, r := range names {
		table.Append([]string{r.Name, registry.Label(r.Name), r.Owner})
	}
	table.Render()
	return nil
}
