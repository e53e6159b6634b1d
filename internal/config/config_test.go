package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Bar.Height != DefaultConfig.Bar.Height {
		t.Errorf("expected default height %d, got %d", DefaultConfig.Bar.Height, cfg.Bar.Height)
	}
	if len(cfg.Modules.Enabled) != 4 {
		t.Errorf("expected 4 default modules, got %v", cfg.Modules.Enabled)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
socket_path = "/tmp/other.sock"

[bar]
height = 32

[modules]
enabled = ["clock", "battery"]

[modules.battery]
interval = 60

[history]
enabled = false
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.SocketPath != "/tmp/other.sock" {
		t.Errorf("socket_path not applied: %q", cfg.SocketPath)
	}
	if cfg.Bar.Height != 32 {
		t.Errorf("height not applied: %d", cfg.Bar.Height)
	}
	if len(cfg.Modules.Enabled) != 2 {
		t.Errorf("module list not applied: %v", cfg.Modules.Enabled)
	}
	if got := cfg.BatteryInterval(); got != 60*time.Second {
		t.Errorf("battery interval: expected 60s, got %v", got)
	}
	if cfg.History.Enabled {
		t.Error("history should be disabled")
	}
}

func TestLoadConfigRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[bar\nheight=32"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestIntervalFallbacks(t *testing.T) {
	cfg := Config{}

	if got := cfg.ClockInterval(); got != time.Second {
		t.Errorf("clock fallback: %v", got)
	}
	if got := cfg.BatteryInterval(); got != 30*time.Second {
		t.Errorf("battery fallback: %v", got)
	}
	if got := cfg.BrightnessInterval(); got != 5*time.Second {
		t.Errorf("brightness fallback: %v", got)
	}
}

func TestHistoryPath(t *testing.T) {
	cfg := Config{CacheDir: "/var/cache/strut"}
	if got := cfg.HistoryPath(); got != "/var/cache/strut/battery-history.json" {
		t.Errorf("unexpected history path: %q", got)
	}

	cfg.History.Path = "/tmp/hist.json"
	if got := cfg.HistoryPath(); got != "/tmp/hist.json" {
		t.Errorf("explicit path not honored: %q", got)
	}
}
