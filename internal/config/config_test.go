package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Default()

	if cfg.General.BaseURL != "http://mfapi.818long.com" {
		t.Errorf("BaseURL = %q", cfg.General.BaseURL)
	}
	if cfg.General.HTTPTimeoutSecs != 15 {
		t.Errorf("HTTPTimeoutSecs = %d, want 15", cfg.General.HTTPTimeoutSecs)
	}
	if cfg.Web.Port != 8080 {
		t.Errorf("Web.Port = %d, want 8080", cfg.Web.Port)
	}
	if cfg.Web.Host != "127.0.0.1" {
		t.Errorf("Web.Host = %q, want 127.0.0.1", cfg.Web.Host)
	}
	if !cfg.Schedule.Enabled || cfg.Schedule.Cron != "0 9 * * *" {
		t.Errorf("Schedule = %+v", cfg.Schedule)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")

	content := `
[general]
base_url = "http://localhost:9999"
http_timeout_secs = 5

[schedule]
enabled = false

[web]
port = 9000
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.General.BaseURL != "http://localhost:9999" {
		t.Errorf("BaseURL = %q", cfg.General.BaseURL)
	}
	if cfg.General.HTTPTimeout() != 5*time.Second {
		t.Errorf("HTTPTimeout = %v, want 5s", cfg.General.HTTPTimeout())
	}
	if cfg.Schedule.Enabled {
		t.Error("Schedule.Enabled = true, want false")
	}
	if cfg.Web.Port != 9000 {
		t.Errorf("Web.Port = %d, want 9000", cfg.Web.Port)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.General.BaseURL == "" {
		t.Error("missing file should fall back to defaults")
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		input string
		want  string
	}{
		{"~/test", filepath.Join(home, "test")},
		{"/absolute/path", "/absolute/path"},
		{"relative", "relative"},
	}

	for _, tt := range tests {
		got := ExpandPath(tt.input)
		if got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
