package cli

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"pyindex/internal/core/errors"
	"pyindex/internal/core/ports"
	"pyindex/internal/engine/object"
	"pyindex/internal/shared/util"
	"pyindex/internal/ui/report"

	"github.com/spf13/cobra"
)

func newScanCmd(s *session) *cobra.Command {
	var statements bool
	var out string

	cmd := &cobra.Command{
		Use:   "scan [DIR]",
		Short: "Index a package and render its object tree",
		Long: `Index the package rooted at DIR (default: the configured root) and render
it in the configured output format. With db.enabled the scan is also stored.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.withRoot(args); err != nil {
				return err
			}
			svc, res, err := s.scan(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			return emit(cmd, out, func(w io.Writer) error {
				return report.Render(w, s.cfg.Output.Format, res, statements)
			})
		},
	}
	cmd.Flags().BoolVarP(&statements, "statements", "s", false, "include the statements of every function")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the report to a file instead of stdout")
	return cmd
}

func newDumpCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "dump [DIR]",
		Short: "Print the raw object tree, one object per line",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.withRoot(args); err != nil {
				return err
			}
			svc, res, err := s.scan(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()
			return object.DumpTree(cmd.OutOrStdout(), res.Project.Root)
		},
	}
}

func newLsCmd(s *session) *cobra.Command {
	var functionsOnly bool

	cmd := &cobra.Command{
		Use:   "ls [DIR]",
		Short: "List every indexed object in a table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.withRoot(args); err != nil {
				return err
			}
			svc, res, err := s.scan(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			if functionsOnly {
				return report.RenderFunctionTable(cmd.OutOrStdout(), res.Index, res.Project.Dir)
			}
			return report.RenderTable(cmd.OutOrStdout(), res.Index, res.Project.Dir)
		},
	}
	cmd.Flags().BoolVar(&functionsOnly, "functions", false, "list functions only")
	return cmd
}

func newLookupCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup FILE:LINE | DOTTED.PATH",
		Short: "Show the object defined at a position or path",
		Long: `Resolve FILE:LINE, where LINE is the line number of a def or class
statement, or a dotted object path such as pkg.mod.Class.method#1.
Functions are shown with their parameters and statements.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, res, err := s.scan(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			o, err := resolveTarget(cmd, svc, res, args[0])
			if err != nil {
				return err
			}
			return describe(cmd.OutOrStdout(), o, res.Project.Dir)
		},
	}
}

func resolveTarget(cmd *cobra.Command, svc ports.IndexService, res ports.ScanResult, target string) (object.Object, error) {
	file, line, ok := splitPosition(target)
	if !ok {
		o, found := res.Index.ByPath(target)
		if !found {
			return nil, errors.AddContext(
				errors.New(errors.CodeNotFound, "no object with this path"),
				errors.CtxObject, target,
			)
		}
		return o, nil
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, errors.WithPath(err, errors.CodeInvalidPath, "resolve file", file)
	}
	return svc.Lookup(cmd.Context(), abs, line)
}

// splitPosition parses FILE:LINE. Drive letters are left to the file part.
func splitPosition(target string) (string, int, bool) {
	i := strings.LastIndex(target, ":")
	if i <= 0 || i == len(target)-1 {
		return "", 0, false
	}
	line, err := strconv.Atoi(target[i+1:])
	if err != nil || line < 0 {
		return "", 0, false
	}
	return target[:i], line, true
}

func describe(w io.Writer, o object.Object, root string) error {
	if fn, ok := object.Unwrap(o).(*object.Function); ok {
		if _, isAlt := o.(*object.AltObject); isAlt {
			if _, err := fmt.Fprintln(w, o); err != nil {
				return err
			}
		}
		return report.RenderFunction(w, fn, root)
	}
	span := o.Data().Span()
	_, err := fmt.Fprintf(w, "%s\n%s:%d-%d\n", o, span.Path(), span.Start(), span.End())
	return err
}

// emit renders to stdout, or atomically to path.
func emit(cmd *cobra.Command, path string, render func(io.Writer) error) error {
	if strings.TrimSpace(path) == "" {
		return render(cmd.OutOrStdout())
	}
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	if err := util.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return errors.WithPath(err, errors.CodeIO, "write report", path)
	}
	slog.Info("report written", "path", path, "bytes", buf.Len())
	return nil
}
