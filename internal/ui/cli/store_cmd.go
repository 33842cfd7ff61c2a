package cli

import (
	"fmt"
	"path/filepath"

	"pyindex/internal/core/app"
	"pyindex/internal/core/config"
	"pyindex/internal/core/ports"
	"pyindex/internal/data/store"
	"pyindex/internal/ui/report"

	"github.com/spf13/cobra"
)

// openStore opens the app without scanning and returns its store.
func (s *session) openStore() (*app.App, ports.ProjectStore, error) {
	if !s.cfg.DB.Enabled {
		return nil, nil, fmt.Errorf("the index store is disabled; set db.enabled = true")
	}
	_, a, err := s.openService()
	if err != nil {
		return nil, nil, err
	}
	return a, a.Store(), nil
}

func newStoreCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Inspect and maintain stored scans",
	}
	cmd.AddCommand(
		newStoreListCmd(s),
		newStoreObjectsCmd(s),
		newStoreLookupCmd(s),
		newStorePruneCmd(s),
	)
	return cmd
}

func newStoreListCmd(s *session) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored scans, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, st, err := s.openStore()
			if err != nil {
				return err
			}
			defer a.Close()

			scans, err := st.ListScans(cmd.Context(), s.cfg.DB.ProjectKey, limit)
			if err != nil {
				return err
			}
			return report.RenderScans(cmd.OutOrStdout(), scans)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of scans; 0 lists all")
	return cmd
}

func newStoreObjectsCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "objects [SCAN_ID]",
		Short: "List the objects of a stored scan (default: the latest)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, st, err := s.openStore()
			if err != nil {
				return err
			}
			defer a.Close()

			scanID, root, err := s.resolveScan(cmd, st, args)
			if err != nil {
				return err
			}
			rows, err := st.LoadObjects(cmd.Context(), scanID)
			if err != nil {
				return err
			}
			return report.RenderObjectRows(cmd.OutOrStdout(), rows, root)
		},
	}
}

func newStoreLookupCmd(s *session) *cobra.Command {
	var scanID string

	cmd := &cobra.Command{
		Use:   "lookup FILE:LINE",
		Short: "Find the innermost stored object enclosing a line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, line, ok := splitPosition(args[0])
			if !ok {
				return fmt.Errorf("expected FILE:LINE, got %q", args[0])
			}
			a, st, err := s.openStore()
			if err != nil {
				return err
			}
			defer a.Close()

			var scanArgs []string
			if scanID != "" {
				scanArgs = []string{scanID}
			}
			id, root, err := s.resolveScan(cmd, st, scanArgs)
			if err != nil {
				return err
			}
			abs, err := filepath.Abs(file)
			if err != nil {
				return err
			}
			row, err := st.LookupPosition(cmd.Context(), id, abs, line)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := report.RenderObjectRows(out, []store.ObjectRow{row}, root); err != nil {
				return err
			}
			stmts, err := st.LoadStatements(cmd.Context(), id, row.Path)
			if err != nil {
				return err
			}
			return report.RenderStatementRows(out, stmts)
		},
	}
	cmd.Flags().StringVar(&scanID, "scan", "", "scan to search (default: the latest)")
	return cmd
}

func newStorePruneCmd(s *session) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest scans of the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if keep < 0 {
				return fmt.Errorf("--keep must not be negative")
			}
			a, st, err := s.openStore()
			if err != nil {
				return err
			}
			defer a.Close()

			removed, err := st.PruneScans(cmd.Context(), s.cfg.DB.ProjectKey, keep)
			if err != nil {
				return err
			}
			cmd.Printf("pruned %d scan(s), kept %d\n", removed, keep)
			return nil
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 10, "number of newest scans to keep")
	return cmd
}

// resolveScan picks args[0] as scan id, or the latest scan of the project.
// The returned root is the scanned directory, used to shorten file names.
func (s *session) resolveScan(cmd *cobra.Command, st ports.ProjectStore, args []string) (string, string, error) {
	if len(args) > 0 {
		return args[0], "", nil
	}
	latest, err := st.LatestScan(cmd.Context(), s.cfg.DB.ProjectKey)
	if err != nil {
		return "", "", err
	}
	return latest.ID, latest.Root, nil
}

func newHistoryCmd(s *session) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show how the stored scans of the project changed over time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !s.cfg.DB.Enabled {
				return fmt.Errorf("history requires db.enabled = true")
			}
			svc, _, err := s.openService()
			if err != nil {
				return err
			}
			defer svc.Close()

			points, err := svc.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				data, err := report.RenderTrendJSON(points)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			case s.cfg.Output.Format == config.FormatTSV:
				data, err := report.RenderTrendTSV(points)
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			default:
				return report.RenderTrendTable(out, points)
			}
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of newest scans to compare; 0 uses all")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print trend points as JSON")
	return cmd
}
