package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/devaloi/namechat/internal/config"
	"github.com/devaloi/namechat/internal/hub"
	"github.com/devaloi/namechat/internal/kv"
	"github.com/devaloi/namechat/internal/registry"
	"github.com/devaloi/namechat/internal/server"
	"github.com/devaloi/namechat/internal/wallet"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("log level")
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = log.Logger.WithContext(ctx)

	storage, err := kv.Open(ctx, cfg.Storage())
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("storage")
	}
	defer storage.Close()

	opts := []registry.Option{registry.WithLogger(log.Logger)}
	if cfg.OneNamePerOwner {
		opts = append(opts, registry.WithOneNamePerOwner())
	}
	s := registry.Open(ctx, storage, opts...)

	h := hub.New(s, cfg.MaxHistory, log.With().Str("component", "hub").Logger())
	go h.Run()
	defer h.Stop()

	var wallets wallet.Provider = wallet.Disabled{}
	if cfg.MockWallets {
		wallets = wallet.Mock{}
	}

	if err := server.New(h, wallets, log.Logger).Run(ctx, ":"+cfg.Port); err != nil {
		log.Error().Err(err).Msg("server error")
	}
}
