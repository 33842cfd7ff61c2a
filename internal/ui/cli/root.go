// Package cli wires the pyindex commands onto cobra.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"pyindex/internal/core/app"
	"pyindex/internal/core/config"
	"pyindex/internal/core/ports"
	"pyindex/internal/shared/observability"

	"github.com/spf13/cobra"
)

const rootLongDescription = `pyindex builds an object model of a Python package: every module,
class and function with its source span, its dotted path and the statements
of each function body. Redefinitions are kept as alternates (name#1, name#2).`

type rootOptions struct {
	configPath string
	root       string
	workers    int
	format     string
	verbose    bool
}

// session carries what PersistentPreRunE prepared for one invocation.
type session struct {
	opts    rootOptions
	cfg     *config.Config
	cfgPath string
	base    string

	logs     *logSink
	shutdown func(context.Context) error
}

// Run executes the command line and returns the process exit code.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Execute(ctx, args, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

// Execute runs one command line against a fresh command tree. Log files
// and the tracer are released before it returns, also on failure.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root, s := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if terr := s.teardown(context.Background()); err == nil {
		err = terr
	}
	return err
}

func newRootCmd(stdout, stderr io.Writer) (*cobra.Command, *session) {
	s := &session{}

	root := &cobra.Command{
		Use:           "pyindex",
		Short:         "Index the objects of a Python package",
		Long:          rootLongDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if skipSetup(cmd) {
				return nil
			}
			return s.setup(cmd, stderr)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&s.opts.configPath, "config", "c", config.DefaultFile, "path to the config file")
	flags.StringVar(&s.opts.root, "root", "", "package directory to index (overrides config root)")
	flags.IntVarP(&s.opts.workers, "workers", "w", 0, "number of files parsed concurrently")
	flags.StringVarP(&s.opts.format, "format", "f", "", "output format: tree, table, tsv or dot")
	flags.BoolVarP(&s.opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newScanCmd(s),
		newDumpCmd(s),
		newLsCmd(s),
		newLookupCmd(s),
		newStoreCmd(s),
		newHistoryCmd(s),
		newWatchCmd(s),
		newInitCmd(s),
		newVersionCmd(),
	)
	return root, s
}

// skipSetup reports whether cmd runs without a loaded config.
func skipSetup(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "init", "help":
		return true
	}
	return false
}

func (s *session) setup(cmd *cobra.Command, stderr io.Writer) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("detect working directory: %w", err)
	}

	cfg, cfgPath, err := loadConfig(s.opts.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	s.base = cwd
	if cfgPath != "" {
		s.base = filepath.Dir(cfgPath)
	}

	config.ApplyEnvOverrides(cfg)
	s.applyFlags(cfg, cwd)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	s.cfg = cfg
	s.cfgPath = cfgPath

	logs, err := configureLogging(cfg.Log, s.base, s.opts.verbose, stderr)
	if err != nil {
		return err
	}
	s.logs = logs
	slog.Debug("configuration loaded", "path", cfgPath, "summary", cfg.Summary())

	shutdown, err := observability.SetupTracing(cmd.Context(), cfg.Observability.OTLPEndpoint, cfg.Observability.ServiceName)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	s.shutdown = shutdown
	return nil
}

// applyFlags layers command line flags over the file and environment. A
// --root flag is relative to the working directory, not the config file.
func (s *session) applyFlags(cfg *config.Config, cwd string) {
	if root := strings.TrimSpace(s.opts.root); root != "" {
		cfg.Root = config.ResolveRelative(cwd, root)
	}
	if s.opts.workers > 0 {
		cfg.Walk.Workers = s.opts.workers
	}
	if format := strings.TrimSpace(s.opts.format); format != "" {
		cfg.Output.Format = strings.ToLower(format)
	}
}

func (s *session) teardown(ctx context.Context) error {
	var firstErr error
	if s.shutdown != nil {
		if err := s.shutdown(ctx); err != nil {
			firstErr = fmt.Errorf("shutdown tracing: %w", err)
		}
		s.shutdown = nil
	}
	if s.logs != nil {
		if err := s.logs.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.logs = nil
	}
	return firstErr
}

// loadConfig reads path. A missing default file falls back to built-in
// defaults; a missing explicitly requested file is an error. The returned
// path is empty when no file was read.
func loadConfig(path string, explicit bool) (*config.Config, string, error) {
	cfg, err := config.Load(path)
	if err == nil {
		abs, absErr := filepath.Abs(path)
		if absErr != nil {
			return nil, "", absErr
		}
		return cfg, abs, nil
	}
	if os.IsNotExist(err) && !explicit {
		return config.Default(), "", nil
	}
	return nil, "", err
}

// withRoot lets a command take the package directory as its only argument.
func (s *session) withRoot(args []string) error {
	if len(args) == 0 {
		return nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	s.cfg.Root = config.ResolveRelative(cwd, args[0])
	return nil
}

// openService creates the app for the loaded config.
func (s *session) openService() (ports.IndexService, *app.App, error) {
	a, err := app.New(s.cfg, s.base)
	if err != nil {
		return nil, nil, err
	}
	return a.IndexService(), a, nil
}

// scan opens the service and runs one scan. The caller closes the service.
func (s *session) scan(ctx context.Context) (ports.IndexService, ports.ScanResult, error) {
	svc, _, err := s.openService()
	if err != nil {
		return nil, ports.ScanResult{}, err
	}
	res, err := svc.Scan(ctx)
	if err != nil {
		_ = svc.Close()
		return nil, ports.ScanResult{}, err
	}
	return svc, res, nil
}
