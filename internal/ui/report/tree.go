package report

import (
	"fmt"
	"io"
	"strings"

	"pyindex/internal/engine/object"

	"github.com/charmbracelet/lipgloss"
)

type treeStyles struct {
	module   lipgloss.Style
	class    lipgloss.Style
	function lipgloss.Style
	alt      lipgloss.Style
	location lipgloss.Style
	guide    lipgloss.Style
}

// newTreeStyles binds styles to w, so colour is only emitted when w is a
// terminal that supports it.
func newTreeStyles(w io.Writer) treeStyles {
	r := lipgloss.NewRenderer(w)
	return treeStyles{
		module:   r.NewStyle().Foreground(lipgloss.Color("#3B82F6")).Bold(true),
		class:    r.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true),
		function: r.NewStyle().Foreground(lipgloss.Color("#E2E8F0")),
		alt:      r.NewStyle().Foreground(lipgloss.Color("#FBBF24")).Italic(true),
		location: r.NewStyle().Foreground(lipgloss.Color("#64748B")),
		guide:    r.NewStyle().Foreground(lipgloss.Color("#475569")),
	}
}

// TreeOptions controls RenderTree. Root shortens file names to be relative
// to it.
type TreeOptions struct {
	Root       string
	Statements bool
}

// RenderTree writes o and its descendants as an indented tree.
func RenderTree(w io.Writer, o object.Object, opts TreeOptions) error {
	st := newTreeStyles(w)
	var b strings.Builder
	b.WriteString(treeLine(st, o, opts))
	b.WriteString("\n")
	writeSubtree(&b, st, o, "", opts)
	_, err := io.WriteString(w, b.String())
	return err
}

func writeSubtree(b *strings.Builder, st treeStyles, o object.Object, prefix string, opts TreeOptions) {
	target := object.Unwrap(o)
	children := target.Data().Children()

	var stmtLines []string
	if fn, ok := target.(*object.Function); ok && opts.Statements {
		stmts := fn.Statements()
		for _, line := range fn.StatementLines() {
			stmtLines = append(stmtLines, fmt.Sprintf("%d %s", line, stmts[line]))
		}
	}

	total := len(stmtLines) + len(children)
	i := 0
	for _, s := range stmtLines {
		i++
		b.WriteString(st.guide.Render(prefix + connector(i == total)))
		b.WriteString(st.location.Render(s))
		b.WriteString("\n")
	}
	for _, child := range children {
		i++
		last := i == total
		b.WriteString(st.guide.Render(prefix + connector(last)))
		b.WriteString(treeLine(st, child, opts))
		b.WriteString("\n")
		next := prefix + "│   "
		if last {
			next = prefix + "    "
		}
		writeSubtree(b, st, child, next, opts)
	}
}

func connector(last bool) string {
	if last {
		return "└── "
	}
	return "├── "
}

func treeLine(st treeStyles, o object.Object, opts TreeOptions) string {
	d := o.Data()
	span := d.Span()
	name := d.Name()

	var label string
	switch target := object.Unwrap(o).(type) {
	case *object.Module:
		label = st.module.Render(name)
	case *object.Class:
		label = st.class.Render("class " + name)
	case *object.Function:
		prefix := "def "
		if target.IsAsync() {
			prefix = "async def "
		}
		label = st.function.Render(fmt.Sprintf("%s%s(%s)", prefix, name, target.FormatArgs()))
	}
	if _, ok := o.(*object.AltObject); ok {
		label += " " + st.alt.Render("[alt]")
	}

	file := shortFile(opts.Root, span.Path())
	loc := fmt.Sprintf("%s:%d", file, span.Start())
	if _, isMod := o.(*object.Module); !isMod {
		loc = fmt.Sprintf("%s:%d-%d", file, span.Start(), span.End())
	}
	return label + " " + st.location.Render(loc)
}
