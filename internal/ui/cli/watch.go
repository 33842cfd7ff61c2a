package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"pyindex/internal/core/app"
	"pyindex/internal/core/config"
	"pyindex/internal/core/ports"

	"github.com/spf13/cobra"
)

func newWatchCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [DIR]",
		Short: "Index a package and rebuild whenever its sources change",
		Long: `Index the package, then rebuild after every burst of changes to .py files.
With observability.enabled, /metrics and /health are served while watching.
Changes to the config file adjust the log level and watch.debounce without
a restart.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.withRoot(args); err != nil {
				return err
			}
			ctx := cmd.Context()

			svc, a, err := s.openService()
			if err != nil {
				return err
			}
			defer svc.Close()

			res, err := svc.Scan(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printSummary(out, res, 0)

			if s.cfg.Observability.Enabled {
				srv := NewObservabilityServer(s.cfg.Observability.Address, app.NewHealthService(a))
				if err := srv.Start(ctx); err != nil {
					return err
				}
				defer func() {
					stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Stop(stopCtx)
				}()
			}

			if s.cfgPath != "" {
				cw := config.NewWatcher(s.cfgPath, func(cfg *config.Config) { s.reloadConfig(a, cfg) })
				if err := cw.Start(ctx); err != nil {
					slog.Warn("config reload disabled", "path", s.cfgPath, "error", err)
				} else {
					defer cw.Stop()
				}
			}

			return svc.Watch(ctx, func(u ports.WatchUpdate) {
				if u.Err != nil {
					fmt.Fprintf(out, "rebuild failed after %d change(s): %v\n", len(u.Changed), u.Err)
					return
				}
				printSummary(out, u.Result, len(u.Changed))
			})
		},
	}
}

// reloadConfig applies the settings that can change while watching.
func (s *session) reloadConfig(a *app.App, cfg *config.Config) {
	if d := cfg.Watch.Debounce; d > 0 && d != a.Config.Watch.Debounce {
		a.SetWatchDebounce(d)
		slog.Info("watch debounce updated", "debounce", d)
	}
	if s.logs == nil || s.opts.verbose {
		return
	}
	level, err := parseLevel(cfg.Log.Level)
	if err != nil {
		return
	}
	s.logs.SetLevel(level)
	slog.Info("log level updated", "level", level)
}

func printSummary(w io.Writer, res ports.ScanResult, changed int) {
	st := res.Index.Stats()
	prefix := "indexed"
	if changed > 0 {
		prefix = fmt.Sprintf("rebuilt after %d change(s):", changed)
	}
	fmt.Fprintf(w, "%s %s: %d files, %d classes, %d functions (%d alt) in %s\n",
		prefix,
		filepath.Base(res.Project.Dir),
		res.Project.Files,
		st.Classes,
		st.Functions,
		st.Alts,
		res.Project.Duration.Round(time.Millisecond),
	)
}
