package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/devaloi/namechat/internal/hub"
	"github.com/devaloi/namechat/internal/server"
	"github.com/devaloi/namechat/internal/wallet"
)

type ServeCmd struct {
	flags *Flags
	port  string
}

// NewServeCmd creates a new serve command
func NewServeCmd(flags *Flags) *ServeCmd {
	return &ServeCmd{flags: flags}
}

// Register adds the serve command to the application
func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "serve",
		Usage:       "Serve the registry over HTTP and WebSocket",
		UsageText:   "namechat serve [--port 8080]",
		Description: "Runs the REST API and the /ws endpoint over the configured store until interrupted.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "port",
				Aliases:     []string{"p"},
				Usage:       "port to listen on (defaults to PORT)",
				Destination: &cmd.port,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ServeCmd) run(ctx context.Context, c *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := cmd.flags.Config
	port := cmd.port
	if port == "" {
		port = cfg.Port
	}

	log := cmd.flags.Logger
	h := hub.New(cmd.flags.Store, cfg.MaxHistory, log.With().Str("component", "hub").Logger())
	go h.Run()
	defer h.Stop()

	var wallets wallet.Provider = wallet.Disabled{}
	if cfg.MockWallets {
		wallets = wallet.Mock{}
	}

	return server.New(h, wallets, log).Run(ctx, ":"+port)
}
