package config

import (
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Load decodes a TOML config file, applies defaults and validates it.
// Environment overrides are applied separately by ApplyEnvOverrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.Root) == "" {
		cfg.Root = "."
	}

	if cfg.Walk.Workers <= 0 {
		cfg.Walk.Workers = 1
	}
	if cfg.Walk.ExcludeDirs == nil {
		cfg.Walk.ExcludeDirs = []string{".git", ".venv", "venv", "node_modules", ".tox"}
	}

	if strings.TrimSpace(cfg.DB.Path) == "" {
		cfg.DB.Path = ".pyindex/index.db"
	}
	if strings.TrimSpace(cfg.DB.ProjectKey) == "" {
		cfg.DB.ProjectKey = "default"
	}
	if cfg.DB.BusyTimeout <= 0 {
		cfg.DB.BusyTimeout = 5 * time.Second
	}

	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.MaxRebuildsPerSecond <= 0 {
		cfg.Watch.MaxRebuildsPerSecond = 2
	}

	if strings.TrimSpace(cfg.Log.Level) == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.MaxSizeMB <= 0 {
		cfg.Log.MaxSizeMB = 10
	}
	if cfg.Log.MaxBackups <= 0 {
		cfg.Log.MaxBackups = 3
	}
	if cfg.Log.MaxAgeDays <= 0 {
		cfg.Log.MaxAgeDays = 28
	}

	if strings.TrimSpace(cfg.Observability.Address) == "" {
		cfg.Observability.Address = "127.0.0.1:9464"
	}
	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "pyindex"
	}

	if strings.TrimSpace(cfg.Output.Format) == "" {
		cfg.Output.Format = FormatTree
	}
	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
}
