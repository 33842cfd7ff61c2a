package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ResolvedPaths holds the absolute locations derived from a config.
type ResolvedPaths struct {
	Root   string
	DBPath string
}

// ResolvePaths makes root and db.path absolute. Relative entries are taken
// relative to base, normally the directory holding the config file.
func ResolvePaths(cfg *Config, base string) (ResolvedPaths, error) {
	if strings.TrimSpace(base) == "" {
		return ResolvedPaths{}, fmt.Errorf("base directory must not be empty")
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return ResolvedPaths{}, fmt.Errorf("resolve base directory: %w", err)
	}
	return ResolvedPaths{
		Root:   ResolveRelative(base, cfg.Root),
		DBPath: ResolveRelative(base, cfg.DB.Path),
	}, nil
}

func ResolveRelative(base, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(base, path))
}
