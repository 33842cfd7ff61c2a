// Package pysyntax is the boundary between pyindex and the Python grammar.
//
// It parses Python source with tree-sitter and lowers the concrete syntax
// tree into a small statement model: every statement carries its kind and
// 1-based line range, compound statements carry their nested bodies and
// definitions carry their name and formal arguments. Expressions are kept
// only as source text.
package pysyntax

import "fmt"

// StmtKind names a statement the way Python's own ast module does.
type StmtKind string

const (
	KindFunctionDef      StmtKind = "FunctionDef"
	KindAsyncFunctionDef StmtKind = "AsyncFunctionDef"
	KindClassDef         StmtKind = "ClassDef"
	KindReturn           StmtKind = "Return"
	KindDelete           StmtKind = "Delete"
	KindAssign           StmtKind = "Assign"
	KindAugAssign        StmtKind = "AugAssign"
	KindAnnAssign        StmtKind = "AnnAssign"
	KindTypeAlias        StmtKind = "TypeAlias"
	KindFor              StmtKind = "For"
	KindAsyncFor         StmtKind = "AsyncFor"
	KindWhile            StmtKind = "While"
	KindIf               StmtKind = "If"
	KindWith             StmtKind = "With"
	KindAsyncWith        StmtKind = "AsyncWith"
	KindMatch            StmtKind = "Match"
	KindRaise            StmtKind = "Raise"
	KindTry              StmtKind = "Try"
	KindTryStar          StmtKind = "TryStar"
	KindAssert           StmtKind = "Assert"
	KindImport           StmtKind = "Import"
	KindImportFrom       StmtKind = "ImportFrom"
	KindGlobal           StmtKind = "Global"
	KindNonlocal         StmtKind = "Nonlocal"
	KindExpr             StmtKind = "Expr"
	KindPass             StmtKind = "Pass"
	KindBreak            StmtKind = "Break"
	KindContinue         StmtKind = "Continue"
)

// IsDefinition reports whether k introduces a nested function or class.
func (k StmtKind) IsDefinition() bool {
	switch k {
	case KindFunctionDef, KindAsyncFunctionDef, KindClassDef:
		return true
	}
	return false
}

// Stmt is one statement of a parsed file.
//
// Which fields are populated depends on Kind: Name and Args for
// definitions (Args only for functions), Body for every compound statement,
// Orelse for if/for/while/try (an elif is a nested If inside Orelse),
// Handlers and Finalbody for try, Cases for match.
type Stmt struct {
	Kind       StmtKind
	Line       int
	EndLine    int
	Name       string
	Args       *Arguments
	Decorators []string
	Body       []Stmt
	Orelse     []Stmt
	Handlers   []ExceptHandler
	Finalbody  []Stmt
	Cases      []MatchCase
}

// Blocks returns the nested statement bodies of s in source order:
// body, handlers, else, finally for try; body then else for if/for/while;
// one block per case for match.
func (s Stmt) Blocks() [][]Stmt {
	var out [][]Stmt
	if len(s.Body) > 0 {
		out = append(out, s.Body)
	}
	for _, c := range s.Cases {
		out = append(out, c.Body)
	}
	for _, h := range s.Handlers {
		out = append(out, h.Body)
	}
	if len(s.Orelse) > 0 {
		out = append(out, s.Orelse)
	}
	if len(s.Finalbody) > 0 {
		out = append(out, s.Finalbody)
	}
	return out
}

type ExceptHandler struct {
	Line    int
	EndLine int
	Body    []Stmt
}

type MatchCase struct {
	Line    int
	EndLine int
	Body    []Stmt
}

// Arg is a single formal parameter. Default holds the default expression's
// source text and is empty when the parameter declares none.
type Arg struct {
	Name       string
	Annotation string
	Default    string
}

func (a Arg) HasDefault() bool { return a.Default != "" }

// Arguments is the raw formal-argument list of a function definition,
// grouped the way Python groups them.
//
// Defaults counts the defaults of the combined positional-only + normal run;
// KwDefaults counts the keyword-only parameters that declare a default.
type Arguments struct {
	PosOnly    []Arg
	Args       []Arg
	Vararg     *Arg
	KwOnly     []Arg
	Kwarg      *Arg
	Defaults   int
	KwDefaults int
}

// SyntaxError reports malformed source. Line and Column are 1-based.
type SyntaxError struct {
	File    string
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
}
