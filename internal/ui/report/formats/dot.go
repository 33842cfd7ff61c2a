package formats

import (
	"fmt"
	"strings"

	"pyindex/internal/engine/index"
	"pyindex/internal/engine/object"
)

type DOTGenerator struct {
	root object.Object
}

func NewDOTGenerator(root object.Object) *DOTGenerator {
	return &DOTGenerator{root: root}
}

// Generate renders the containment tree: one node per object and an edge
// from every object to each of its children. Alt-objects are dashed.
func (d *DOTGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("digraph objects {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8, penwidth=1.2];\n")
	buf.WriteString("  ranksep=1.2;\n")
	buf.WriteString("  nodesep=0.4;\n\n")

	idx := index.Build(d.root)
	items := idx.Items()
	ids := makeIDs(items)

	for _, e := range items {
		buf.WriteString(fmt.Sprintf("  %s [label=\"%s\"%s];\n", ids[e.Position], escapeLabel(objectLabel(e)), nodeStyle(e)))
	}
	buf.WriteString("\n")

	object.Walk(d.root, func(o object.Object, _ int) bool {
		from := ids[o.Data().Position()]
		for _, child := range object.Unwrap(o).Data().Children() {
			buf.WriteString(fmt.Sprintf("  %s -> %s;\n", from, ids[child.Data().Position()]))
		}
		return true
	})

	buf.WriteString("}\n")
	return buf.String(), nil
}

func nodeStyle(e index.Entry) string {
	switch {
	case e.Alt:
		return ", style=\"rounded,dashed\", color=\"gray40\""
	case e.Kind == object.KindModule:
		return ", style=\"rounded,filled\", fillcolor=\"lightsteelblue\""
	case e.Kind == object.KindClass:
		return ", style=\"rounded,filled\", fillcolor=\"lightyellow\""
	default:
		return ""
	}
}
