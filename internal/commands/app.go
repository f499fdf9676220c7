// Package commands implements the namechat command line interface.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/gookit/color"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/devaloi/namechat/internal/config"
	"github.com/devaloi/namechat/internal/kv"
	"github.com/devaloi/namechat/internal/registry"
)

// NewApp builds the namechat root command. Subcommands share flags, which
// the Before hook fills with the loaded config and the opened store.
func NewApp(flags *Flags, version string) *cli.Command {
	app := &cli.Command{
		Name:      "namechat",
		Usage:     "Register names and chat through a local message store",
		UsageText: "namechat [global options] command [command options]",
		Description: `namechat keeps a registry of unique display names and a shared chat log.

Run 'namechat connect' to get an owner address, then pass it with --owner
(or NAMECHAT_OWNER) to register a name and post messages. Run 'namechat serve'
to expose the same store over HTTP and WebSocket.`,
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Sources:     cli.EnvVars("LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "driver",
				Usage:       "storage driver (memory, file, sqlite, badger, dynamodb)",
				Sources:     cli.EnvVars("STORAGE_DRIVER"),
				Destination: &flags.Driver,
			},
			&cli.StringFlag{
				Name:        "path",
				Usage:       "database file, JSON file or Badger directory for the driver",
				Destination: &flags.Path,
			},
			&cli.StringFlag{
				Name:        "owner",
				Aliases:     []string{"o"},
				Usage:       "owner address used by register and post",
				Sources:     cli.EnvVars("NAMECHAT_OWNER"),
				Destination: &flags.Owner,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, err := newLogger(flags.LogLevel, c.Root().ErrWriter)
			if err != nil {
				return ctx, err
			}
			flags.Logger = logger

			cfg, err := config.Load()
			if err != nil {
				return ctx, err
			}
			if flags.Driver != "" {
				cfg.StorageDriver = flags.Driver
			}
			flags.Config = cfg

			opts := cfg.Storage()
			if flags.Path != "" {
				opts.Path = flags.Path
			}
			storage, err := kv.Open(ctx, opts)
			if err != nil {
				return ctx, fmt.Errorf("open storage: %w", err)
			}
			flags.Storage = storage

			storeOpts := []registry.Option{registry.WithLogger(logger)}
			if cfg.OneNamePerOwner {
				storeOpts = append(storeOpts, registry.WithOneNamePerOwner())
			}
			flags.Store = registry.Open(logger.WithContext(ctx), storage, storeOpts...)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if flags.Storage == nil {
				return nil
			}
			return flags.Storage.Close()
		},
	}

	app = NewConnectCmd(flags).Register(app)
	app = NewRegisterCmd(flags).Register(app)
	app = NewPostCmd(flags).Register(app)
	app = NewWhoisCmd(flags).Register(app)
	app = NewNamesCmd(flags).Register(app)
	app = NewLogCmd(flags).Register(app)
	app = NewServeCmd(flags).Register(app)

	return app
}

// PrintError writes err to w in red.
func PrintError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(w, color.New(color.FgRed, color.OpBold).Render("error:"), err.Error())
}

func newLogger(level string, w io.Writer) (zerolog.Logger, error) {
	parsedLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("failed to parse log level: %w", err)
	}
	if w == nil {
		w = os.Stderr
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(parsedLevel).With().Timestamp().Logger(), nil
}

// requireOwner fails when no owner address was given.
func requireOwner(flags *Flags) error {
	if flags.Owner == "" {
		return fmt.Errorf("%w: run 'namechat connect' and pass the address with --owner", registry.ErrEmptyOwner)
	}
	return nil
}
