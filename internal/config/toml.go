// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Calculator CalculatorConfig `toml:"calculator"`
	Serve      ServeConfig      `toml:"serve"`
	Log        LogConfig        `toml:"log"`
	History    HistoryConfig    `toml:"history"`
}

// CalculatorConfig maps calculator defaults.
type CalculatorConfig struct {
	Rulebook *string  `toml:"rulebook"`
	Step     *float64 `toml:"step"`
}

// ServeConfig maps HTTP service settings.
type ServeConfig struct {
	Addr         *string `toml:"addr"`
	ReadTimeout  *string `toml:"read-timeout"`
	SaveRequests *bool   `toml:"save"`
}

// LogConfig maps logger settings.
type LogConfig struct {
	Level  *string `toml:"level"`
	Format *string `toml:"format"`
}

// HistoryConfig maps history browsing defaults.
type HistoryConfig struct {
	Last        *int `toml:"last"`
	TrendWindow *int `toml:"trend-window"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
