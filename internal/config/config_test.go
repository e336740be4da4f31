package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Calculator.Rulebook != nil || cfg.Serve.Addr != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[calculator]
rulebook = "old"
step = 0.05

[serve]
addr = ":9090"

[log]
level = "debug"

[history]
last = 20
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Calculator.Rulebook == nil || *cfg.Calculator.Rulebook != "old" {
		t.Fatalf("unexpected rulebook: %v", cfg.Calculator.Rulebook)
	}
	if cfg.Calculator.Step == nil || *cfg.Calculator.Step != 0.05 {
		t.Fatalf("unexpected step: %v", cfg.Calculator.Step)
	}
	if cfg.Serve.Addr == nil || *cfg.Serve.Addr != ":9090" {
		t.Fatalf("unexpected addr: %v", cfg.Serve.Addr)
	}
	if cfg.Log.Level == nil || *cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log level: %v", cfg.Log.Level)
	}
	if cfg.History.Last == nil || *cfg.History.Last != 20 {
		t.Fatalf("unexpected history last: %v", cfg.History.Last)
	}
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[calculator]\nspeed = 3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestDefaultPathsUseXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_DATA_HOME", "/tmp/data")
	if got := DefaultConfigPath(); got != filepath.Join("/tmp/cfg", "ropescore", "config.toml") {
		t.Fatalf("config path = %q", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/tmp/data", "ropescore", "ropescore.db") {
		t.Fatalf("db path = %q", got)
	}
}
