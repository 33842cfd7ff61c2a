package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: PYINDEX_[SECTION]_[KEY] (e.g., PYINDEX_WALK_WORKERS).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Root, "PYINDEX_ROOT")

	// Walk
	setEnvInt(&cfg.Walk.Workers, "PYINDEX_WALK_WORKERS")
	setEnvList(&cfg.Walk.ExcludeDirs, "PYINDEX_WALK_EXCLUDE_DIRS")
	setEnvList(&cfg.Walk.ExcludeFiles, "PYINDEX_WALK_EXCLUDE_FILES")

	// Database
	setEnvBool(&cfg.DB.Enabled, "PYINDEX_DB_ENABLED")
	setEnvString(&cfg.DB.Path, "PYINDEX_DB_PATH")
	setEnvString(&cfg.DB.ProjectKey, "PYINDEX_DB_PROJECT_KEY")
	setEnvDuration(&cfg.DB.BusyTimeout, "PYINDEX_DB_BUSY_TIMEOUT")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "PYINDEX_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.MaxRebuildsPerSecond, "PYINDEX_WATCH_MAX_REBUILDS_PER_SECOND")

	// Log
	setEnvString(&cfg.Log.File, "PYINDEX_LOG_FILE")
	setEnvString(&cfg.Log.Level, "PYINDEX_LOG_LEVEL")

	// Observability
	setEnvBool(&cfg.Observability.Enabled, "PYINDEX_OBSERVABILITY_ENABLED")
	setEnvString(&cfg.Observability.Address, "PYINDEX_OBSERVABILITY_ADDRESS")
	setEnvString(&cfg.Observability.OTLPEndpoint, "PYINDEX_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvString(&cfg.Observability.ServiceName, "PYINDEX_OBSERVABILITY_SERVICE_NAME")

	// Output
	setEnvString(&cfg.Output.Format, "PYINDEX_OUTPUT_FORMAT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

// setEnvList splits a comma-separated value; empty items are dropped.
func setEnvList(target *[]string, key string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	var items []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	slog.Debug("applying env override", "key", key, "value", val)
	*target = items
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
