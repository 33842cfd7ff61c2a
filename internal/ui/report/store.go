package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"pyindex/internal/data/store"
	"pyindex/internal/engine/object"

	"github.com/olekukonko/tablewriter"
)

// RenderScans lists persisted scans, newest first as given.
func RenderScans(w io.Writer, scans []store.Scan) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Scan", "When", "Root Module", "Files", "Functions", "Alts", "Duration"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	for _, sc := range scans {
		table.Append([]string{
			sc.ID,
			sc.Timestamp.Local().Format("2006-01-02 15:04:05"),
			sc.RootModule,
			strconv.Itoa(sc.FileCount),
			strconv.Itoa(sc.FunctionCount),
			strconv.Itoa(sc.AltCount),
			sc.Duration.Round(time.Millisecond).String(),
		})
	}
	table.Render()
	return nil
}

// RenderObjectRows renders stored objects the way RenderTable renders a
// live index.
func RenderObjectRows(w io.Writer, rows []store.ObjectRow, root string) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Path", "Kind", "Location", "Signature"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	for _, r := range rows {
		kind := r.Kind
		if r.Alt {
			kind += "*"
		}
		sig := ""
		if r.Signature != "" || r.Kind == string(object.KindFunction) {
			sig = "(" + r.Signature + ")"
		}
		table.Append([]string{
			r.Path,
			kind,
			fmt.Sprintf("%s:%d-%d", shortFile(root, r.Filename), r.StartLine, r.EndLine),
			sig,
		})
	}
	table.SetFooter([]string{"", "", "", fmt.Sprintf("%d objects", len(rows))})
	table.Render()
	return nil
}

// RenderStatementRows prints one "line kind" pair per row.
func RenderStatementRows(w io.Writer, rows []store.StatementRow) error {
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%6d  %s\n", r.Line, r.Kind); err != nil {
			return err
		}
	}
	return nil
}
