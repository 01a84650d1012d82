package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ClientConfig holds configuration for the sheetify client.
type ClientConfig struct {
	Server    string `yaml:"server"`     // Backend base URL (default "http://localhost:8000")
	DBPath    string `yaml:"db_path"`    // SQLite path for durable client state (":memory:" for testing)
	UIAddr    string `yaml:"ui_addr"`    // Listen address for `sheetify serve` (default "127.0.0.1:8090")
	LogLevel  string `yaml:"log_level"`  // Log level: debug, info, warn, error
	LogFormat string `yaml:"log_format"` // Log format: text, json
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Server:    "http://localhost:8000",
		DBPath:    defaultDBPath(),
		UIAddr:    "127.0.0.1:8090",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Dir returns the per-user configuration directory (~/.sheetify).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sheetify"
	}
	return filepath.Join(home, ".sheetify")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

func defaultDBPath() string {
	return filepath.Join(Dir(), "sheetify.db")
}

// Load builds a ClientConfig from defaults, the YAML file at path (missing
// files are ignored), a .env file in the working directory, then SHEETIFY_*
// environment variables. Later sources win.
func Load(path string) (ClientConfig, error) {
	cfg := DefaultClientConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	// .env is optional; values already in the environment take precedence.
	_ = godotenv.Load()

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *ClientConfig) {
	overrides := []struct {
		key string
		dst *string
	}{
		{"SHEETIFY_SERVER", &cfg.Server},
		{"SHEETIFY_DB", &cfg.DBPath},
		{"SHEETIFY_UI_ADDR", &cfg.UIAddr},
		{"SHEETIFY_LOG_LEVEL", &cfg.LogLevel},
		{"SHEETIFY_LOG_FORMAT", &cfg.LogFormat},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.key); v != "" {
			*o.dst = v
		}
	}
}
