package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

type LogCmd struct {
	flags *Flags
	last  int
}

// NewLogCmd creates a new log command
func NewLogCmd(flags *Flags) *LogCmd {
	return &LogCmd{flags: flags}
}

// Register adds the log command to the application
func (cmd *LogCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "log",
		Usage:     "Show the chat log",
		UsageText: "namechat log [--last N]",
		Description: `Displays messages oldest first. Authors are shown by their current display
name.`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "last",
				Aliases:     []string{"n"},
				Usage:       "show only the last N messages (0 for all)",
				Value:       20,
				Destination: &cmd.last,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *LogCmd) run(ctx context.Context, c *cli.Command) error {
	out := c.Root().Writer

	msgs := cmd.flags.Store.Messages()
	if cmd.last > 0 {
		msgs = cmd.flags.Store.Recent(cmd.last)
	}
	if len(msgs) == 0 {
		fmt.Fprintln(out, "No messages yet")
		return nil
	}

	table := newTable(out)
	table.SetHeader([]string{"ID", "Time", "From", "Message", "Age"})
	for _, m := range msgs {
		view := cmd.flags.Store.View(m)
		table.Append([]string{
			strconv.FormatInt(view.ID, 10),
			view.Timestamp,
			view.DisplayName,
			view.Content,
			humanize.Time(view.CreatedAt),
		})
	}
	table.Render()
	return nil
}

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}
