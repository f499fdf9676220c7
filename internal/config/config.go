package config

import (
	"fmt"

	env "github.com/Netflix/go-env"

	"github.com/devaloi/namechat/internal/kv"
)

// Config holds server configuration loaded from environment variables.
type Config struct {
	Port            string `env:"PORT,default=8080"`
	StorageDriver   string `env:"STORAGE_DRIVER,default=sqlite"`
	DBPath          string `env:"DB_PATH,default=namechat.db"`
	BadgerDir       string `env:"BADGER_DIR,default=namechat.badger"`
	JSONPath        string `env:"JSON_PATH,default=namechat.json"`
	DynamoTable     string `env:"DYNAMODB_TABLE,default=namechat"`
	MaxHistory      int    `env:"MAX_HISTORY,default=50"`
	OneNamePerOwner bool   `env:"ONE_NAME_PER_OWNER,default=false"`
	MockWallets     bool   `env:"MOCK_WALLETS,default=true"`
	LogLevel        string `env:"LOG_LEVEL,default=info"`
}

// Load reads configuration from environment variables with sensible defaults.
// A value that does not parse is an error.
func Load() (Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if cfg.MaxHistory <= 0 {
		return Config{}, fmt.Errorf("load config: MAX_HISTORY must be positive, got %d", cfg.MaxHistory)
	}
	return cfg, nil
}

// StoragePath returns the location used by the configured storage driver.
func (c Config) StoragePath() string {
	switch c.StorageDriver {
	case kv.DriverBadger:
		return c.BadgerDir
	case kv.DriverFile:
		return c.JSONPath
	default:
		return c.DBPath
	}
}

// Storage returns the options for opening the configured storage backend.
func (c Config) Storage() kv.Options {
	return kv.Options{Driver: c.StorageDriver, Path: c.StoragePath(), Table: c.DynamoTable}
}
