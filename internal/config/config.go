package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	DefaultModel    = "qwen2.5:3b"
	DefaultBaseURL  = "http://localhost:11434/v1"
	DefaultTimezone = "Asia/Kolkata"
	DefaultBufSize  = 100
)

type Config struct {
	Provider ProviderConfig `json:"provider"`
	Tracker  TrackerConfig  `json:"tracker"`
	Channels ChannelsConfig `json:"channels"`
}

// ProviderConfig points at an OpenAI-compatible chat-completions endpoint.
// Ollama's /v1 surface works with an empty API key.
type ProviderConfig struct {
	APIKey  string `json:"apiKey,omitempty"`
	BaseURL string `json:"baseUrl"`
	Model   string `json:"model"`
}

// TrackerConfig fixes the store location and the reporting timezone. Both
// are resolved once at process start; there is no hot reload.
type TrackerConfig struct {
	DBPath   string `json:"dbPath,omitempty"`
	Timezone string `json:"timezone"`
}

type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
}

type TelegramConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token"`
	AllowFrom []string `json:"allowFrom"`
	Proxy     string   `json:"proxy,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			BaseURL: DefaultBaseURL,
			Model:   DefaultModel,
		},
		Tracker: TrackerConfig{
			Timezone: DefaultTimezone,
		},
		Channels: ChannelsConfig{},
	}
}

func ConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".stillwater")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// DBPath resolves the tracker database location.
func (c *Config) DBPath() string {
	if c.Tracker.DBPath != "" {
		return c.Tracker.DBPath
	}
	return filepath.Join(ConfigDir(), "data", "tracker.db")
}

func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if key := os.Getenv("STILLWATER_API_KEY"); key != "" {
		cfg.Provider.APIKey = key
	}
	if url := os.Getenv("STILLWATER_BASE_URL"); url != "" {
		cfg.Provider.BaseURL = url
	}
	if model := os.Getenv("STILLWATER_MODEL"); model != "" {
		cfg.Provider.Model = model
	}
	if tz := os.Getenv("STILLWATER_TIMEZONE"); tz != "" {
		cfg.Tracker.Timezone = tz
	}
	if dbPath := os.Getenv("STILLWATER_DB_PATH"); dbPath != "" {
		cfg.Tracker.DBPath = dbPath
	}
	if token := os.Getenv("STILLWATER_TELEGRAM_TOKEN"); token != "" {
		cfg.Channels.Telegram.Token = token
	}

	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = DefaultBaseURL
	}
	if cfg.Provider.Model == "" {
		cfg.Provider.Model = DefaultModel
	}
	if cfg.Tracker.Timezone == "" {
		cfg.Tracker.Timezone = DefaultTimezone
	}

	return cfg, nil
}

func SaveConfig(cfg *Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(ConfigPath(), data, 0644)
}
