package config

import (
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/gobwas/glob"
)

// Validate checks a configuration after defaults and overrides have been
// applied.
func Validate(cfg *Config) error {
	if err := validateVersion(cfg); err != nil {
		return err
	}
	if err := validateWalk(cfg); err != nil {
		return err
	}
	if err := validateDatabase(cfg); err != nil {
		return err
	}
	if err := validateWatch(cfg); err != nil {
		return err
	}
	if err := validateLog(cfg); err != nil {
		return err
	}
	if err := validateObservability(cfg); err != nil {
		return err
	}
	return validateOutput(cfg)
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateWalk(cfg *Config) error {
	if strings.TrimSpace(cfg.Root) == "" {
		return fmt.Errorf("root must not be empty")
	}
	if cfg.Walk.Workers < 1 || cfg.Walk.Workers > 256 {
		return fmt.Errorf("walk.workers must be between 1 and 256, got %d", cfg.Walk.Workers)
	}
	for i, p := range cfg.Walk.ExcludeDirs {
		if _, err := glob.Compile(p); err != nil {
			return fmt.Errorf("walk.exclude_dirs[%d]: invalid pattern %q: %w", i, p, err)
		}
	}
	for i, p := range cfg.Walk.ExcludeFiles {
		if _, err := glob.Compile(p); err != nil {
			return fmt.Errorf("walk.exclude_files[%d]: invalid pattern %q: %w", i, p, err)
		}
		if p == initFile {
			slog.Warn("walk.exclude_files never excludes the package initializer", "pattern", p)
		}
	}
	return nil
}

const initFile = "__init__.py"

func validateDatabase(cfg *Config) error {
	if !cfg.DB.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.DB.Path) == "" {
		return fmt.Errorf("db.path must not be empty")
	}
	if strings.TrimSpace(cfg.DB.ProjectKey) == "" {
		return fmt.Errorf("db.project_key must not be empty")
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce <= 0 {
		return fmt.Errorf("watch.debounce must be positive")
	}
	if cfg.Watch.MaxRebuildsPerSecond <= 0 {
		return fmt.Errorf("watch.max_rebuilds_per_second must be positive")
	}
	return nil
}

func validateLog(cfg *Config) error {
	switch strings.ToLower(strings.TrimSpace(cfg.Log.Level)) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}
	if cfg.Log.MaxSizeMB < 1 {
		return fmt.Errorf("log.max_size_mb must be >= 1")
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if !cfg.Observability.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(cfg.Observability.Address); err != nil {
		return fmt.Errorf("observability.address %q: %w", cfg.Observability.Address, err)
	}
	return nil
}

func validateOutput(cfg *Config) error {
	switch cfg.Output.Format {
	case FormatTree, FormatTable, FormatTSV, FormatDOT:
		return nil
	}
	return fmt.Errorf("output.format must be one of: tree, table, tsv, dot; got %q", cfg.Output.Format)
}
