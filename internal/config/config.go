package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	SocketPath string        `toml:"socket_path"`
	CacheDir   string        `toml:"cache_dir"`
	LogFile    string        `toml:"log_file"`
	Bar        BarConfig     `toml:"bar"`
	Modules    ModulesConfig `toml:"modules"`
	History    HistoryConfig `toml:"history"`
}

type BarConfig struct {
	Height    int    `toml:"height"`
	Separator string `toml:"separator"`
}

type ModulesConfig struct {
	Enabled    []string         `toml:"enabled"`
	Clock      ClockConfig      `toml:"clock"`
	Battery    BatteryConfig    `toml:"battery"`
	Brightness BrightnessConfig `toml:"brightness"`
}

type ClockConfig struct {
	Format   string `toml:"format"`
	Interval int    `toml:"interval"` // seconds
}

type BatteryConfig struct {
	Interval  int    `toml:"interval"` // seconds
	SysfsRoot string `toml:"sysfs_root"`
}

type BrightnessConfig struct {
	Interval int    `toml:"interval"` // seconds
	Device   string `toml:"device"`
	Root     string `toml:"root"`
}

type HistoryConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// DefaultConfig is the compiled-in configuration used when no file exists.
var DefaultConfig = Config{
	SocketPath: "/tmp/strut.sock",
	CacheDir:   "~/.cache/strut",
	LogFile:    "/tmp/strut.log",
	Bar: BarConfig{
		Height:    28,
		Separator: "  ",
	},
	Modules: ModulesConfig{
		Enabled: []string{"tags", "battery", "clock", "brightness"},
		Clock: ClockConfig{
			Format:   "Mon Jan 2 15:04",
			Interval: 1,
		},
		Battery: BatteryConfig{
			Interval: 30,
		},
		Brightness: BrightnessConfig{
			Interval: 5,
		},
	},
	History: HistoryConfig{
		Enabled: true,
	},
}

// LoadConfig reads a TOML config, applying defaults for anything unset. A
// missing file returns the defaults unchanged.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig

	path = ExpandHome(path)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.CacheDir = ExpandHome(cfg.CacheDir)
	cfg.LogFile = ExpandHome(cfg.LogFile)
	cfg.SocketPath = ExpandHome(cfg.SocketPath)

	return &cfg, nil
}

// HistoryPath resolves where battery history is stored.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return ExpandHome(c.History.Path)
	}
	return filepath.Join(ExpandHome(c.CacheDir), "battery-history.json")
}

// ClockInterval returns the clock cadence as a duration.
func (c *Config) ClockInterval() time.Duration {
	return seconds(c.Modules.Clock.Interval, time.Second)
}

// BatteryInterval returns the battery cadence as a duration.
func (c *Config) BatteryInterval() time.Duration {
	return seconds(c.Modules.Battery.Interval, 30*time.Second)
}

// BrightnessInterval returns the brightness cadence as a duration.
func (c *Config) BrightnessInterval() time.Duration {
	return seconds(c.Modules.Brightness.Interval, 5*time.Second)
}

func seconds(n int, fallback time.Duration) time.Duration {
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	usr, err := user.Current()
	if err != nil {
		return path
	}
	return filepath.Join(usr.HomeDir, path[1:])
}
