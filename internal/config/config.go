package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration
type Config struct {
	General       GeneralConfig       `toml:"general"`
	Notifications NotificationsConfig `toml:"notifications"`
	Schedule      ScheduleConfig      `toml:"schedule"`
	Web           WebConfig           `toml:"web"`
}

// GeneralConfig holds general settings
type GeneralConfig struct {
	BaseURL         string `toml:"base_url"`
	AccountsPath    string `toml:"accounts_path"`
	DatabasePath    string `toml:"database_path"`
	HTTPTimeoutSecs int    `toml:"http_timeout_secs"`
}

// NotificationsConfig holds notification settings
type NotificationsConfig struct {
	Desktop      bool   `toml:"desktop"`
	SlackWebhook string `toml:"slack_webhook"`
}

// ScheduleConfig holds the check-in reminder settings
type ScheduleConfig struct {
	Enabled bool   `toml:"enabled"`
	Cron    string `toml:"cron"`
}

// WebConfig holds web UI settings
type WebConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// HTTPTimeout returns the per-call timeout as a duration
func (g GeneralConfig) HTTPTimeout() time.Duration {
	return time.Duration(g.HTTPTimeoutSecs) * time.Second
}

// Default returns a Config with sensible defaults
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		General: GeneralConfig{
			BaseURL:         "http://mfapi.818long.com",
			AccountsPath:    filepath.Join(home, ".mfo-claim", "accounts.txt"),
			DatabasePath:    filepath.Join(home, ".mfo-claim", "history.db"),
			HTTPTimeoutSecs: 15,
		},
		Notifications: NotificationsConfig{
			Desktop: true,
		},
		Schedule: ScheduleConfig{
			Enabled: true,
			Cron:    "0 9 * * *",
		},
		Web: WebConfig{
			Port: 8080,
			Host: "127.0.0.1",
		},
	}
}

// Load reads configuration from a TOML file, falling back to defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Expand paths
	cfg.General.AccountsPath = ExpandPath(cfg.General.AccountsPath)
	cfg.General.DatabasePath = ExpandPath(cfg.General.DatabasePath)

	return cfg, nil
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// DefaultConfigPath returns the default config file location
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "mfo-claim", "config.toml")
}
