package formats

import (
	"fmt"
	"strings"

	"pyindex/internal/engine/index"
	"pyindex/internal/engine/object"
)

type TSVGenerator struct {
	index *index.Index
	root  string
}

// NewTSVGenerator renders idx with file names relative to root. An empty
// root keeps absolute file names.
func NewTSVGenerator(idx *index.Index, root string) *TSVGenerator {
	return &TSVGenerator{index: idx, root: root}
}

// Generate emits one row per object, ordered by file and start line.
func (t *TSVGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("Path\tKind\tAlt\tFile\tStart\tEnd\tDepth\tSignature\n")
	for _, e := range t.index.Items() {
		span := e.Object.Data().Span()
		buf.WriteString(fmt.Sprintf("%s\t%s\t%t\t%s\t%d\t%d\t%d\t%s\n",
			e.Path,
			e.Kind,
			e.Alt,
			relFile(t.root, span.Path()),
			span.Start(),
			span.End(),
			e.Depth,
			signature(e),
		))
	}

	return buf.String(), nil
}

// GenerateStatements emits the harvested statements of every function.
func (t *TSVGenerator) GenerateStatements() (string, error) {
	var buf strings.Builder

	buf.WriteString("Function\tFile\tLine\tStatement\n")
	for _, e := range t.index.Functions() {
		fn, ok := object.Unwrap(e.Object).(*object.Function)
		if !ok {
			continue
		}
		file := relFile(t.root, e.Position.Filename)
		stmts := fn.Statements()
		for _, line := range fn.StatementLines() {
			buf.WriteString(fmt.Sprintf("%s\t%s\t%d\t%s\n", e.Path, file, line, stmts[line]))
		}
	}

	return buf.String(), nil
}
