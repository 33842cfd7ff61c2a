package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"pyindex/internal/engine/index"
	"pyindex/internal/engine/object"

	"github.com/olekukonko/tablewriter"
)

// RenderTable writes one row per indexed object with a totals footer.
func RenderTable(w io.Writer, idx *index.Index, root string) error {
	table := newObjectTable(w, idx.Items(), root)
	st := idx.Stats()
	table.SetFooter([]string{
		fmt.Sprintf("%d objects", idx.Len()),
		fmt.Sprintf("%d alt", st.Alts),
		fmt.Sprintf("%d modules", st.Modules),
		fmt.Sprintf("%d classes, %d functions", st.Classes, st.Functions),
	})
	table.Render()
	return nil
}

// RenderFunctionTable is RenderTable restricted to functions.
func RenderFunctionTable(w io.Writer, idx *index.Index, root string) error {
	fns := idx.Functions()
	table := newObjectTable(w, fns, root)
	table.SetFooter([]string{fmt.Sprintf("%d functions", len(fns)), "", "", ""})
	table.Render()
	return nil
}

func newObjectTable(w io.Writer, entries []index.Entry, root string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Path", "Kind", "Location", "Signature"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
	})

	for _, e := range entries {
		span := e.Object.Data().Span()
		kind := string(e.Kind)
		if e.Alt {
			kind += "*"
		}
		sig := ""
		if fn, ok := object.Unwrap(e.Object).(*object.Function); ok {
			sig = "(" + fn.FormatArgs() + ")"
		}
		table.Append([]string{
			e.Path,
			kind,
			fmt.Sprintf("%s:%d-%d", shortFile(root, span.Path()), span.Start(), span.End()),
			sig,
		})
	}
	return table
}

// RenderFunction writes the signature and harvested statements of fn.
func RenderFunction(w io.Writer, fn *object.Function, root string) error {
	span := fn.Data().Span()
	if _, err := fmt.Fprintf(w, "%s\n%s:%d-%d\n\n", fn, shortFile(root, span.Path()), span.Start(), span.End()); err != nil {
		return err
	}

	params := tablewriter.NewWriter(w)
	params.SetHeader([]string{"Param", "Kind", "Default"})
	params.SetBorder(false)
	params.SetCenterSeparator("")
	for _, p := range fn.FormalParams() {
		params.Append([]string{p.Name, p.Kind.String(), fmt.Sprintf("%t", p.HasDefault)})
	}
	if v, ok := fn.Vararg(); ok {
		params.Append([]string{"*" + v, "vararg", "false"})
	}
	if fn.HasKwargsDict() {
		params.Append([]string{"**" + fn.KwargsName(), "kwargs", "false"})
	}
	params.Render()

	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}

	stmts := fn.Statements()
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Line", "Statement"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT})
	for _, line := range fn.StatementLines() {
		table.Append([]string{fmt.Sprintf("%d", line), string(stmts[line])})
	}
	table.Render()
	return nil
}

func shortFile(root, filename string) string {
	if root == "" {
		return filename
	}
	rel, err := filepath.Rel(root, filename)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filename
	}
	return filepath.ToSlash(rel)
}
