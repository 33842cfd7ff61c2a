package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pyindex/internal/core/config"
	"pyindex/internal/core/errors"
	"pyindex/internal/core/ports"
	"pyindex/internal/core/watcher"
	"pyindex/internal/data/store"
	"pyindex/internal/engine/index"
	"pyindex/internal/engine/object"
	"pyindex/internal/engine/project"
	"pyindex/internal/engine/pysyntax"
)

type App struct {
	Config *config.Config
	Paths  config.ResolvedPaths

	parser *pysyntax.Parser
	store  ports.ProjectStore

	mu      sync.RWMutex
	current *ports.ScanResult
	watcher *watcher.Watcher
}

// Option customises an App during New.
type Option func(*App)

// WithStore replaces the store that New would otherwise open from the
// db section of the config.
func WithStore(s ports.ProjectStore) Option {
	return func(a *App) { a.store = s }
}

// New prepares an App for cfg. base is the directory relative config paths
// are resolved against.
func New(cfg *config.Config, base string, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	paths, err := config.ResolvePaths(cfg, base)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidPath, "resolve config paths")
	}

	a := &App{
		Config: cfg,
		Paths:  paths,
		parser: pysyntax.NewParser(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.store == nil && cfg.DB.Enabled {
		s, err := store.Open(paths.DBPath, cfg.DB.BusyTimeout)
		if err != nil {
			if store.IsCorruptError(err) {
				return nil, errors.WithPath(err, errors.CodeCorruptStore,
					"index store is unreadable; remove it or change db.path", paths.DBPath)
			}
			return nil, errors.WithPath(err, errors.CodeIO, "open index store", paths.DBPath)
		}
		a.store = s
		slog.Debug("index store opened", "path", paths.DBPath)
	}
	return a, nil
}

func (a *App) walkOptions() project.Options {
	return project.Options{
		Workers:      a.Config.Walk.Workers,
		ExcludeDirs:  a.Config.Walk.ExcludeDirs,
		ExcludeFiles: a.Config.Walk.ExcludeFiles,
		Parser:       a.parser,
	}
}

// Build walks the configured root and indexes the result without touching
// the store or the current result.
func (a *App) Build(ctx context.Context) (ports.ScanResult, error) {
	proj, err := project.Create(ctx, a.Paths.Root, a.walkOptions())
	if err != nil {
		return ports.ScanResult{}, err
	}
	return ports.ScanResult{Project: proj, Index: index.Build(proj.Root)}, nil
}

func (a *App) setCurrent(res ports.ScanResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current = &res
}

// Current returns the result of the last successful scan.
func (a *App) Current() (ports.ScanResult, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.current == nil {
		return ports.ScanResult{}, false
	}
	return *a.current, true
}

// Lookup resolves filename:line against the last successful scan.
func (a *App) Lookup(filename string, line int) (object.Object, error) {
	res, ok := a.Current()
	if !ok {
		return nil, fmt.Errorf("no scan available")
	}
	pos := object.Position{Filename: filename, Start: line}
	o, found := res.Index.Lookup(pos)
	if !found {
		return nil, errors.AddContext(
			errors.WithPath(nil, errors.CodeNotFound, "no object defined at position", filename),
			errors.CtxLine, line,
		)
	}
	return o, nil
}

// SetWatchDebounce changes watch.debounce, including for a running Watch.
func (a *App) SetWatchDebounce(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Config.Watch.Debounce = d
	if a.watcher != nil {
		a.watcher.SetDebounce(d)
	}
}

func (a *App) setWatcher(w *watcher.Watcher) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.watcher = w
}

func (a *App) Store() ports.ProjectStore {
	return a.store
}

func (a *App) Close() error {
	if a == nil || a.store == nil {
		return nil
	}
	return a.store.Close()
}
