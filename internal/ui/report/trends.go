package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"pyindex/internal/data/store"

	"github.com/olekukonko/tablewriter"
)

func RenderTrendTSV(points []store.TrendPoint) ([]byte, error) {
	var buf strings.Builder

	buf.WriteString("Timestamp\tScan\tFiles\tModules\tClasses\tFunctions\tAlts\tStatements\tDurationMs\tDeltaFiles\tDeltaClasses\tDeltaFunctions\tDeltaAlts\tFunctionGrowthPct\n")
	for _, p := range points {
		buf.WriteString(fmt.Sprintf(
			"%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%.2f\n",
			p.Scan.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
			p.Scan.ID,
			p.Scan.FileCount,
			p.Scan.ModuleCount,
			p.Scan.ClassCount,
			p.Scan.FunctionCount,
			p.Scan.AltCount,
			p.Scan.StatementCount,
			p.Scan.Duration.Milliseconds(),
			p.DeltaFiles,
			p.DeltaClasses,
			p.DeltaFunctions,
			p.DeltaAlts,
			p.FunctionGrowth,
		))
	}

	return []byte(buf.String()), nil
}

func RenderTrendJSON(points []store.TrendPoint) ([]byte, error) {
	return json.MarshalIndent(points, "", "  ")
}

func RenderTrendTable(w io.Writer, points []store.TrendPoint) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"When", "Files", "Classes", "Functions", "Alts", "Δ Functions"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	for _, p := range points {
		table.Append([]string{
			p.Scan.Timestamp.Local().Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%d", p.Scan.FileCount),
			fmt.Sprintf("%d", p.Scan.ClassCount),
			fmt.Sprintf("%d", p.Scan.FunctionCount),
			fmt.Sprintf("%d", p.Scan.AltCount),
			fmt.Sprintf("%+d (%.2f%%)", p.DeltaFunctions, p.FunctionGrowth),
		})
	}
	table.Render()
	return nil
}
