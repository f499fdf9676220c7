package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"
)

type PostCmd struct {
	flags *Flags
}

// NewPostCmd creates a new post command
func NewPostCmd(flags *Flags) *PostCmd {
	return &PostCmd{flags: flags}
}

// Register adds the post command to the application
func (cmd *PostCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "post",
		Usage:     "Post a chat message",
		UsageText: "namechat --owner <address> post <text...>",
		Action:    cmd.run,
	})

	return app
}

func (cmd *PostCmd) run(ctx context.Context, c *cli.Command) error {
	if err := requireOwner(cmd.flags); err != nil {
		return err
	}

	msg, err := cmd.flags.Store.PostMessage(ctx, cmd.flags.Owner, strings.Join(c.Args().Slice(), " "))
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}

	view := cmd.flags.Store.View(msg)
	fmt.Fprintf(c.Root().Writer, "[%s] %s: %s\n", view.Timestamp, view.DisplayName, view.Content)
	return nil
}
