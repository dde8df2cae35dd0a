// Package config loads graphsight settings from an optional TOML file and the
// environment. Environment variables win over the file; a .env file next to
// the working directory is picked up automatically.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds settings for both the proxy and the batch classifier.
type Config struct {
	// BaseURL is the upstream model server, without the /v1 suffix.
	BaseURL string `toml:"base_url"`

	// APIKey is sent upstream as a bearer credential when non-empty.
	APIKey string `toml:"api_key"`

	// Model is the model identifier used for classification requests and as
	// the fallback model name in proxied responses.
	Model string `toml:"model"`

	// ListenAddr is the proxy's listen address (e.g. ":8080").
	ListenAddr string `toml:"listen"`

	// TimeoutSeconds bounds each upstream HTTP call. Local vision models can
	// be slow on large images.
	TimeoutSeconds int `toml:"timeout_seconds"`

	// InputDir is the directory the classifier scans for images.
	InputDir string `toml:"input_dir"`

	// OutputPath is where the classifier writes its xlsx results.
	OutputPath string `toml:"output_path"`

	// HistoryDB is the SQLite file recording past classification runs.
	// Empty disables run history.
	HistoryDB string `toml:"history_db"`
}

// Default returns the documented defaults.
func Default() Config {
	return Config{
		BaseURL:        "http://localhost:1234",
		Model:          "local",
		ListenAddr:     ":8080",
		TimeoutSeconds: 300,
		InputDir:       ".",
		OutputPath:     "graph_results.xlsx",
	}
}

// Load builds the configuration from defaults, then the TOML file at path
// (skipped when path is empty or missing), then environment variables.
func Load(path string) (Config, error) {
	// Best effort; absence of a .env file is the normal case.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg, nil
}

// Timeout returns the upstream call timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func applyEnv(cfg *Config) {
	setString(&cfg.BaseURL, "LMSTUDIO_API_BASE")
	setString(&cfg.APIKey, "LMSTUDIO_API_KEY")
	setString(&cfg.Model, "LMSTUDIO_MODEL")
	setString(&cfg.ListenAddr, "LISTEN_ADDR")
	setString(&cfg.InputDir, "GRAPH_DIR")
	setString(&cfg.OutputPath, "OUT_XLSX")
	setString(&cfg.HistoryDB, "HISTORY_DB")

	if v := os.Getenv("PROXY_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.TimeoutSeconds = secs
		}
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = strings.TrimSpace(v)
	}
}
