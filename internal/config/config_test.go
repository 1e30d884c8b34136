package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider.Model != DefaultModel {
		t.Errorf("model = %q, want %q", cfg.Provider.Model, DefaultModel)
	}
	if cfg.Provider.BaseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q, want %q", cfg.Provider.BaseURL, DefaultBaseURL)
	}
	if cfg.Tracker.Timezone != DefaultTimezone {
		t.Errorf("timezone = %q, want %q", cfg.Tracker.Timezone, DefaultTimezone)
	}
	if cfg.Channels.Telegram.Enabled {
		t.Error("telegram should be disabled by default")
	}
}

func TestLoadConfig_NoFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Provider.Model != DefaultModel {
		t.Errorf("model = %q, want default", cfg.Provider.Model)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("STILLWATER_API_KEY", "env-key")
	t.Setenv("STILLWATER_BASE_URL", "http://env:1234/v1")
	t.Setenv("STILLWATER_MODEL", "env-model")
	t.Setenv("STILLWATER_TIMEZONE", "UTC")
	t.Setenv("STILLWATER_DB_PATH", "/tmp/env.db")
	t.Setenv("STILLWATER_TELEGRAM_TOKEN", "env-token")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Provider.APIKey != "env-key" {
		t.Errorf("apiKey = %q, want env-key", cfg.Provider.APIKey)
	}
	if cfg.Provider.BaseURL != "http://env:1234/v1" {
		t.Errorf("baseURL = %q, want env override", cfg.Provider.BaseURL)
	}
	if cfg.Provider.Model != "env-model" {
		t.Errorf("model = %q, want env-model", cfg.Provider.Model)
	}
	if cfg.Tracker.Timezone != "UTC" {
		t.Errorf("timezone = %q, want UTC", cfg.Tracker.Timezone)
	}
	if cfg.Tracker.DBPath != "/tmp/env.db" {
		t.Errorf("dbPath = %q, want env override", cfg.Tracker.DBPath)
	}
	if cfg.Channels.Telegram.Token != "env-token" {
		t.Errorf("telegram token = %q, want env-token", cfg.Channels.Telegram.Token)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.Provider.Model = "saved-model"
	cfg.Channels.Telegram.Enabled = true
	cfg.Channels.Telegram.AllowFrom = []string{"111"}

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig error: %v", err)
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if loaded.Provider.Model != "saved-model" {
		t.Errorf("model = %q, want saved-model", loaded.Provider.Model)
	}
	if !loaded.Channels.Telegram.Enabled {
		t.Error("telegram enabled flag lost")
	}
	if len(loaded.Channels.Telegram.AllowFrom) != 1 || loaded.Channels.Telegram.AllowFrom[0] != "111" {
		t.Errorf("allowFrom = %v, want [111]", loaded.Channels.Telegram.AllowFrom)
	}
}

func TestLoadConfig_CorruptFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".stillwater")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for corrupt config")
	}
}

func TestDBPath(t *testing.T) {
	t.Setenv("HOME", "/home/still")

	cfg := DefaultConfig()
	want := filepath.Join("/home/still", ".stillwater", "data", "tracker.db")
	if got := cfg.DBPath(); got != want {
		t.Errorf("DBPath = %q, want %q", got, want)
	}

	cfg.Tracker.DBPath = "/custom/path.db"
	if got := cfg.DBPath(); got != "/custom/path.db" {
		t.Errorf("DBPath = %q, want custom override", got)
	}
}
