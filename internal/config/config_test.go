package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}

	if cfg.ListenAddr != ":8080" {
		t.Errorf("expected default listen addr :8080, got %s", cfg.ListenAddr)
	}
	if cfg.RequestTimeout() != 15*time.Second {
		t.Errorf("expected default request timeout 15s, got %v", cfg.RequestTimeout())
	}
	if cfg.CacheTTL() != 3*time.Second {
		t.Errorf("expected default cache TTL 3s, got %v", cfg.CacheTTL())
	}
	if cfg.BinanceBaseURL != "https://api.binance.com" {
		t.Errorf("unexpected default base URL %s", cfg.BinanceBaseURL)
	}
	if len(cfg.Symbols) != 1 || cfg.Symbols[0] != "BTCUSDT" {
		t.Errorf("expected default symbols [BTCUSDT], got %v", cfg.Symbols)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("SYMBOLS", " btcusdt, ethusdt ,SOLUSDT")
	t.Setenv("USE_MEMORY", "true")
	t.Setenv("SNAPSHOT_INTERVAL_SEC", "30")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}

	if cfg.ListenAddr != ":9999" {
		t.Errorf("expected :9999, got %s", cfg.ListenAddr)
	}
	if !cfg.UseMemory {
		t.Error("expected UseMemory true")
	}
	if cfg.SnapshotInterval() != 30*time.Second {
		t.Errorf("expected 30s snapshot interval, got %v", cfg.SnapshotInterval())
	}

	// Symbols are trimmed and uppercased
	want := []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}
	if len(cfg.Symbols) != len(want) {
		t.Fatalf("expected %d symbols, got %v", len(want), cfg.Symbols)
	}
	for i, s := range want {
		if cfg.Symbols[i] != s {
			t.Errorf("symbol %d: expected %s, got %s", i, s, cfg.Symbols[i])
		}
	}
}

func TestValidate(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}

	// No DSN and no memory flag is invalid
	cfg.UseMemory = false
	cfg.PostgresDSN = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error without a postgres DSN")
	}

	cfg.UseMemory = true
	if err := cfg.Validate(); err != nil {
		t.Errorf("memory mode should validate: %v", err)
	}

	cfg.UseMemory = false
	cfg.PostgresDSN = "postgres://localhost/orderflow"
	if err := cfg.Validate(); err != nil {
		t.Errorf("postgres mode with DSN should validate: %v", err)
	}
}
