package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.StorageDriver != "sqlite" {
		t.Errorf("expected default driver sqlite, got %s", cfg.StorageDriver)
	}
	if cfg.DBPath != "namechat.db" {
		t.Errorf("expected default db path namechat.db, got %s", cfg.DBPath)
	}
	if cfg.MaxHistory != 50 {
		t.Errorf("expected default max history 50, got %d", cfg.MaxHistory)
	}
	if cfg.OneNamePerOwner {
		t.Error("expected one name per owner to be off by default")
	}
	if !cfg.MockWallets {
		t.Error("expected mock wallets on by default")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level info, got %s", cfg.LogLevel)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "badger")
	t.Setenv("BADGER_DIR", "/tmp/badger")
	t.Setenv("MAX_HISTORY", "25")
	t.Setenv("ONE_NAME_PER_OWNER", "true")
	t.Setenv("MOCK_WALLETS", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.StoragePath() != "/tmp/badger" {
		t.Errorf("expected storage path /tmp/badger, got %s", cfg.StoragePath())
	}
	if cfg.MaxHistory != 25 {
		t.Errorf("expected max history 25, got %d", cfg.MaxHistory)
	}
	if !cfg.OneNamePerOwner {
		t.Error("expected one name per owner")
	}
	if cfg.MockWallets {
		t.Error("expected mock wallets off")
	}
}

func TestStoragePath(t *testing.T) {
	t.Parallel()
	cfg := Config{DBPath: "a.db", BadgerDir: "b", JSONPath: "c.json"}

	tests := []struct {
		driver string
		want   string
	}{
		{"sqlite", "a.db"},
		{"badger", "b"},
		{"file", "c.json"},
		{"memory", "a.db"},
	}
	for _, tt := range tests {
		cfg.StorageDriver = tt.driver
		if got := cfg.StoragePath(); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.driver, tt.want, got)
		}
	}
}

func TestLoadInvalidInt(t *testing.T) {
	t.Setenv("MAX_HISTORY", "notanumber")

	if _, err := Load(); err == nil {
		t.Error("expected error for invalid MAX_HISTORY")
	}
}

func TestLoadNonPositiveHistory(t *testing.T) {
	t.Setenv("MAX_HISTORY", "0")

	if _, err := Load(); err == nil {
		t.Error("expected error for zero MAX_HISTORY")
	}
}
