// Package report renders indexed object trees for terminals and tools.
package report

import (
	"fmt"
	"io"

	"pyindex/internal/core/config"
	"pyindex/internal/core/ports"
)

// Render writes res in format, one of the config.Format* values.
func Render(w io.Writer, format string, res ports.ScanResult, statements bool) error {
	root := res.Project.Dir
	switch format {
	case config.FormatTree, "":
		return RenderTree(w, res.Project.Root, TreeOptions{Root: root, Statements: statements})
	case config.FormatTable:
		return RenderTable(w, res.Index, root)
	case config.FormatTSV:
		gen := NewTSVGenerator(res.Index, root)
		out, err := gen.Generate()
		if err != nil {
			return err
		}
		if statements {
			more, err := gen.GenerateStatements()
			if err != nil {
				return err
			}
			out += "\n" + more
		}
		_, err = io.WriteString(w, out)
		return err
	case config.FormatDOT:
		out, err := NewDOTGenerator(res.Project.Root).Generate()
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
