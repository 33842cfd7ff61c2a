package app

import (
	"context"
	"log/slog"
	"time"

	"pyindex/internal/core/ports"
	"pyindex/internal/core/watcher"
	"pyindex/internal/engine/project"
	"pyindex/internal/shared/observability"
	"pyindex/internal/shared/util"
)

// Watch rebuilds through svc whenever sources below the root change and
// reports every rebuild to handler. It returns when ctx is done. Rebuilds are
// rate limited by watch.max_rebuilds_per_second; change batches that arrive
// while a rebuild waits are merged into it.
func (a *App) Watch(ctx context.Context, svc ports.IndexService, handler func(ports.WatchUpdate)) error {
	excludes, err := project.NewExcludes(a.Config.Walk.ExcludeDirs, a.Config.Walk.ExcludeFiles)
	if err != nil {
		return err
	}

	changes := make(chan []string, 1)
	a.mu.RLock()
	debounce := a.Config.Watch.Debounce
	a.mu.RUnlock()
	w, err := watcher.NewWatcher(debounce, excludes, func(paths []string) {
		select {
		case changes <- paths:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Watch(a.Paths.Root); err != nil {
		return err
	}
	a.setWatcher(w)
	defer a.setWatcher(nil)
	slog.Info("watching for changes", "root", a.Paths.Root, "debounce", debounce)

	limiter := util.NewLimiter(a.Config.Watch.MaxRebuildsPerSecond, 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-changes:
			if err := limiter.Wait(ctx, 1); err != nil {
				return nil
			}
			paths = drain(changes, paths)
			a.rebuild(ctx, svc, paths, handler)
		}
	}
}

func drain(changes <-chan []string, paths []string) []string {
	for {
		select {
		case more := <-changes:
			paths = append(paths, more...)
		default:
			return paths
		}
	}
}

func (a *App) rebuild(ctx context.Context, svc ports.IndexService, paths []string, handler func(ports.WatchUpdate)) {
	start := time.Now()
	slog.Debug("sources changed", "count", len(paths))

	res, err := svc.Scan(ctx)
	update := ports.WatchUpdate{Changed: paths, Result: res, Err: err, Duration: time.Since(start)}
	if err != nil {
		observability.WatchRebuildsTotal.WithLabelValues("error").Inc()
		slog.Warn("rebuild failed", "error", err)
		update.Result, _ = a.Current()
	} else {
		observability.WatchRebuildsTotal.WithLabelValues("ok").Inc()
	}
	if handler != nil {
		handler(update)
	}
}
