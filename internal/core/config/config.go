package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultFile is looked up in the working directory when no --config flag
// is given.
const DefaultFile = "pyindex.toml"

type Config struct {
	Version       int           `toml:"version"`
	Root          string        `toml:"root"`
	Walk          Walk          `toml:"walk"`
	DB            Database      `toml:"db"`
	Watch         Watch         `toml:"watch"`
	Log           Log           `toml:"log"`
	Observability Observability `toml:"observability"`
	Output        Output        `toml:"output"`
}

type Walk struct {
	Workers      int      `toml:"workers"`
	ExcludeDirs  []string `toml:"exclude_dirs"`
	ExcludeFiles []string `toml:"exclude_files"`
}

type Database struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	ProjectKey  string        `toml:"project_key"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Watch struct {
	Debounce             time.Duration `toml:"debounce"`
	MaxRebuildsPerSecond float64       `toml:"max_rebuilds_per_second"`
}

type Log struct {
	File       string `toml:"file"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

type Observability struct {
	Enabled      bool   `toml:"enabled"`
	Address      string `toml:"address"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
	ServiceName  string `toml:"service_name"`
}

type Output struct {
	Format string `toml:"format"`
}

const (
	FormatTree  = "tree"
	FormatTable = "table"
	FormatTSV   = "tsv"
	FormatDOT   = "dot"
)

// Default returns a configuration with every default applied. It is what
// the CLI runs with when no config file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Write encodes cfg as TOML to path, refusing to overwrite an existing file.
func Write(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// Summary is a one-line description used in debug logs.
func (c *Config) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "root=%s workers=%d", c.Root, c.Walk.Workers)
	if c.DB.Enabled {
		fmt.Fprintf(&b, " db=%s", c.DB.Path)
	}
	fmt.Fprintf(&b, " format=%s", c.Output.Format)
	return b.String()
}
