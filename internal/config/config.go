// Package config holds the application configuration: everything that is
// not part of a campaign workbook (browser profiles, logging, history DB,
// notifications).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the root application configuration.
type Config struct {
	Workbook string        `yaml:"workbook"` // default campaign workbook directory
	Browser  BrowserConfig `yaml:"browser"`
	Logging  LoggingConfig `yaml:"logging"`
	History  HistoryConfig `yaml:"history"`
	Bus      BusConfig     `yaml:"bus"`
	Notify   NotifyConfig  `yaml:"notify"`
}

type BrowserConfig struct {
	ProfileRoot string `yaml:"profileRoot"` // base dir for per-instance Chrome profiles
	Headless    bool   `yaml:"headless"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`          // debug | info | warn | error
	File  string `yaml:"file,omitempty"` // optional log file; empty = stderr only
}

type HistoryConfig struct {
	DBPath string `yaml:"dbPath"`
}

type BusConfig struct {
	Buffer int `yaml:"buffer"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token,omitempty"`
	ChatID  int64  `yaml:"chatId,omitempty"`
}

// DefaultConfigDir returns ~/.wablaster.
func DefaultConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".wablaster")
}

// DefaultConfigPath returns ~/.wablaster/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Defaults returns a usable configuration rooted under the user's home.
func Defaults() Config {
	dir := DefaultConfigDir()
	return Config{
		Workbook: filepath.Join(dir, "workbook"),
		Browser: BrowserConfig{
			ProfileRoot: filepath.Join(dir, "chrome-profiles"),
			Headless:    false,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(dir, "wablaster.log"),
		},
		History: HistoryConfig{
			DBPath: filepath.Join(dir, "history.db"),
		},
		Bus: BusConfig{
			Buffer: 100,
		},
	}
}

// Load reads a YAML config file. Missing fields keep their zero value; use
// Defaults() as the fallback when the file does not exist.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
