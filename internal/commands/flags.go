package commands

import (
	"github.com/rs/zerolog"

	"github.com/devaloi/namechat/internal/config"
	"github.com/devaloi/namechat/internal/kv"
	"github.com/devaloi/namechat/internal/registry"
)

type Flags struct {
	LogLevel string
	Driver   string
	Path     string
	Owner    string

	// Config is loaded in the Before hook and available to all commands
	Config config.Config

	// Logger writes to the root command's error writer
	Logger zerolog.Logger

	// Storage backs Store and is closed in the After hook
	Storage kv.Storage

	// Store is the registry opened over Storage
	Store *registry.Store
}
