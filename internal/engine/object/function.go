package object

import (
	"fmt"
	"sort"

	"pyindex/internal/engine/pysyntax"
)

// Function is a Python function or method. Its argument list is fixed at
// construction; classification is computed on demand by FormalParams.
type Function struct {
	data       ObjectData
	args       pysyntax.Arguments
	stmts      map[int]pysyntax.StmtKind
	async      bool
	decorators []string
}

func (f *Function) Data() *ObjectData { return &f.data }
func (*Function) object()             {}

func (f *Function) String() string {
	return fmt.Sprintf("function %s(%s)", f.data.objPath, f.FormatArgs())
}

func (f *Function) Args() pysyntax.Arguments { return f.args }

func (f *Function) IsAsync() bool { return f.async }

func (f *Function) Decorators() []string { return append([]string(nil), f.decorators...) }

// Statements returns a copy of the line to statement-kind map of the body.
func (f *Function) Statements() map[int]pysyntax.StmtKind {
	out := make(map[int]pysyntax.StmtKind, len(f.stmts))
	for line, kind := range f.stmts {
		out[line] = kind
	}
	return out
}

func (f *Function) NumStatements() int { return len(f.stmts) }

func (f *Function) StatementAt(line int) (pysyntax.StmtKind, bool) {
	k, ok := f.stmts[line]
	return k, ok
}

// StatementLines returns the harvested lines in ascending order.
func (f *Function) StatementLines() []int {
	lines := make([]int, 0, len(f.stmts))
	for line := range f.stmts {
		lines = append(lines, line)
	}
	sort.Ints(lines)
	return lines
}

func (f *Function) HasKwargsDict() bool { return f.args.Kwarg != nil }

// KwargsName returns the name of the **kwargs parameter. Check
// HasKwargsDict first; calling it on a function without one panics.
func (f *Function) KwargsName() string {
	if f.args.Kwarg == nil {
		panic(fmt.Sprintf("object: %s has no **kwargs parameter", f.data.objPath))
	}
	return f.args.Kwarg.Name
}

// Vararg returns the name of the *args parameter, if any.
func (f *Function) Vararg() (string, bool) {
	if f.args.Vararg == nil {
		return "", false
	}
	return f.args.Vararg.Name, true
}
