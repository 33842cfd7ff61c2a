package pysyntax

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// lowerer converts tree-sitter nodes into Stmt values.
type lowerer struct {
	source []byte
}

func (l *lowerer) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(l.source[node.StartByte():node.EndByte()])
}

func line(node *sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

// endLine is the 1-based line holding the node's last character. A node
// whose end point sits at column 0 ends with a newline that belongs to the
// previous line.
func endLine(node *sitter.Node) int {
	start, end := node.StartPosition(), node.EndPosition()
	if end.Column == 0 && end.Row > start.Row {
		return int(end.Row)
	}
	return int(end.Row) + 1
}

func hasAsync(node *sitter.Node) bool {
	return node.ChildCount() > 0 && node.Child(0).Kind() == "async"
}

// block lowers the statements directly under a module or block node.
func (l *lowerer) block(node *sitter.Node) []Stmt {
	if node == nil {
		return nil
	}
	var out []Stmt
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if st, ok := l.stmt(node.NamedChild(i)); ok {
			out = append(out, st)
		}
	}
	return out
}

func (l *lowerer) stmt(node *sitter.Node) (Stmt, bool) {
	base := Stmt{Line: line(node), EndLine: endLine(node)}

	switch node.Kind() {
	case "function_definition":
		return l.function(node, nil), true
	case "class_definition":
		return l.class(node, nil), true
	case "decorated_definition":
		return l.decorated(node)
	case "if_statement":
		return l.ifStmt(node), true
	case "for_statement":
		base.Kind = KindFor
		if hasAsync(node) {
			base.Kind = KindAsyncFor
		}
		base.Body = l.block(node.ChildByFieldName("body"))
		base.Orelse = l.elseBody(node.ChildByFieldName("alternative"))
	case "while_statement":
		base.Kind = KindWhile
		base.Body = l.block(node.ChildByFieldName("body"))
		base.Orelse = l.elseBody(node.ChildByFieldName("alternative"))
	case "with_statement":
		base.Kind = KindWith
		if hasAsync(node) {
			base.Kind = KindAsyncWith
		}
		base.Body = l.block(node.ChildByFieldName("body"))
	case "match_statement":
		base.Kind = KindMatch
		base.Cases = l.cases(node.ChildByFieldName("body"))
	case "try_statement":
		return l.tryStmt(node), true
	case "expression_statement":
		base.Kind = l.expressionKind(node)
	case "return_statement":
		base.Kind = KindReturn
	case "delete_statement":
		base.Kind = KindDelete
	case "pass_statement":
		base.Kind = KindPass
	case "break_statement":
		base.Kind = KindBreak
	case "continue_statement":
		base.Kind = KindContinue
	case "raise_statement":
		base.Kind = KindRaise
	case "assert_statement":
		base.Kind = KindAssert
	case "import_statement":
		base.Kind = KindImport
	case "import_from_statement", "future_import_statement":
		base.Kind = KindImportFrom
	case "global_statement":
		base.Kind = KindGlobal
	case "nonlocal_statement":
		base.Kind = KindNonlocal
	case "type_alias_statement":
		base.Kind = KindTypeAlias
	case "print_statement", "exec_statement":
		base.Kind = KindExpr
	default:
		// comments and other extras
		return Stmt{}, false
	}
	return base, true
}

func (l *lowerer) expressionKind(node *sitter.Node) StmtKind {
	if node.NamedChildCount() == 0 {
		return KindExpr
	}
	inner := node.NamedChild(0)
	switch inner.Kind() {
	case "assignment":
		if inner.ChildByFieldName("type") != nil {
			return KindAnnAssign
		}
		return KindAssign
	case "augmented_assignment":
		return KindAugAssign
	}
	return KindExpr
}

func (l *lowerer) decorated(node *sitter.Node) (Stmt, bool) {
	var decorators []string
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Kind() != "decorator" {
			continue
		}
		dec := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(l.text(child)), "@"))
		if dec != "" {
			decorators = append(decorators, dec)
		}
	}

	def := node.ChildByFieldName("definition")
	if def == nil {
		return Stmt{}, false
	}
	switch def.Kind() {
	case "function_definition":
		return l.function(def, decorators), true
	case "class_definition":
		return l.class(def, decorators), true
	}
	return Stmt{}, false
}

func (l *lowerer) function(node *sitter.Node, decorators []string) Stmt {
	kind := KindFunctionDef
	if hasAsync(node) {
		kind = KindAsyncFunctionDef
	}
	return Stmt{
		Kind:       kind,
		Line:       line(node),
		EndLine:    endLine(node),
		Name:       l.text(node.ChildByFieldName("name")),
		Args:       l.arguments(node.ChildByFieldName("parameters")),
		Decorators: decorators,
		Body:       l.block(node.ChildByFieldName("body")),
	}
}

func (l *lowerer) class(node *sitter.Node, decorators []string) Stmt {
	return Stmt{
		Kind:       KindClassDef,
		Line:       line(node),
		EndLine:    endLine(node),
		Name:       l.text(node.ChildByFieldName("name")),
		Decorators: decorators,
		Body:       l.block(node.ChildByFieldName("body")),
	}
}

// ifStmt mirrors Python's ast: each elif becomes a nested If in Orelse.
func (l *lowerer) ifStmt(node *sitter.Node) Stmt {
	st := Stmt{
		Kind:    KindIf,
		Line:    line(node),
		EndLine: endLine(node),
		Body:    l.block(node.ChildByFieldName("consequence")),
	}
	var alts []*sitter.Node
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Kind() == "elif_clause" || child.Kind() == "else_clause" {
			alts = append(alts, child)
		}
	}
	st.Orelse = l.elseChain(alts, st.EndLine)
	return st
}

func (l *lowerer) elseChain(alts []*sitter.Node, end int) []Stmt {
	if len(alts) == 0 {
		return nil
	}
	first := alts[0]
	if first.Kind() == "else_clause" {
		return l.elseBody(first)
	}
	elif := Stmt{
		Kind:    KindIf,
		Line:    line(first),
		EndLine: end,
		Body:    l.block(first.ChildByFieldName("consequence")),
		Orelse:  l.elseChain(alts[1:], end),
	}
	return []Stmt{elif}
}

func (l *lowerer) elseBody(clause *sitter.Node) []Stmt {
	if clause == nil {
		return nil
	}
	return l.block(clause.ChildByFieldName("body"))
}

func (l *lowerer) cases(body *sitter.Node) []MatchCase {
	if body == nil {
		return nil
	}
	var out []MatchCase
	for i := uint(0); i < body.NamedChildCount(); i++ {
		child := body.NamedChild(i)
		if child.Kind() != "case_clause" {
			continue
		}
		out = append(out, MatchCase{
			Line:    line(child),
			EndLine: endLine(child),
			Body:    l.block(child.ChildByFieldName("consequence")),
		})
	}
	return out
}

func (l *lowerer) tryStmt(node *sitter.Node) Stmt {
	st := Stmt{
		Kind:    KindTry,
		Line:    line(node),
		EndLine: endLine(node),
		Body:    l.block(node.ChildByFieldName("body")),
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "except_clause":
			if isExceptStar(child) {
				st.Kind = KindTryStar
			}
			st.Handlers = append(st.Handlers, ExceptHandler{
				Line:    line(child),
				EndLine: endLine(child),
				Body:    l.block(childOfKind(child, "block")),
			})
		case "else_clause":
			st.Orelse = l.elseBody(child)
		case "finally_clause":
			st.Finalbody = l.block(childOfKind(child, "block"))
		}
	}
	return st
}

func isExceptStar(clause *sitter.Node) bool {
	return clause.ChildCount() > 1 && clause.Child(1).Kind() == "*"
}

func childOfKind(node *sitter.Node, kind string) *sitter.Node {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Kind() == kind {
			return child
		}
	}
	return nil
}

// arguments groups a parameters node the way Python's ast.arguments does.
func (l *lowerer) arguments(params *sitter.Node) *Arguments {
	args := &Arguments{}
	if params == nil {
		return args
	}

	var positional []Arg
	afterStar := false
	for i := uint(0); i < params.NamedChildCount(); i++ {
		child := params.NamedChild(i)
		switch child.Kind() {
		case "positional_separator":
			args.PosOnly = append(args.PosOnly, positional...)
			positional = nil
			continue
		case "keyword_separator":
			afterStar = true
			continue
		case "list_splat_pattern":
			args.Vararg = &Arg{Name: splatName(l.text(child))}
			afterStar = true
			continue
		case "dictionary_splat_pattern":
			args.Kwarg = &Arg{Name: splatName(l.text(child))}
			continue
		case "typed_parameter":
			if splat := l.typedSplat(child); splat != nil {
				if strings.HasPrefix(l.text(child), "**") {
					args.Kwarg = splat
				} else {
					args.Vararg = splat
					afterStar = true
				}
				continue
			}
		case "comment":
			continue
		}

		arg, ok := l.param(child)
		if !ok {
			continue
		}
		if afterStar {
			args.KwOnly = append(args.KwOnly, arg)
			if arg.HasDefault() {
				args.KwDefaults++
			}
			continue
		}
		positional = append(positional, arg)
		if arg.HasDefault() {
			args.Defaults++
		}
	}
	args.Args = positional
	return args
}

func (l *lowerer) param(node *sitter.Node) (Arg, bool) {
	switch node.Kind() {
	case "identifier", "tuple_pattern":
		return Arg{Name: l.text(node)}, true
	case "typed_parameter":
		return Arg{
			Name:       l.text(childOfKind(node, "identifier")),
			Annotation: l.text(node.ChildByFieldName("type")),
		}, true
	case "default_parameter":
		return Arg{
			Name:    l.text(node.ChildByFieldName("name")),
			Default: l.text(node.ChildByFieldName("value")),
		}, true
	case "typed_default_parameter":
		return Arg{
			Name:       l.text(node.ChildByFieldName("name")),
			Annotation: l.text(node.ChildByFieldName("type")),
			Default:    l.text(node.ChildByFieldName("value")),
		}, true
	}
	return Arg{}, false
}

// typedSplat handles annotated `*args: T` and `**kw: T`.
func (l *lowerer) typedSplat(node *sitter.Node) *Arg {
	splat := childOfKind(node, "list_splat_pattern")
	if splat == nil {
		splat = childOfKind(node, "dictionary_splat_pattern")
	}
	if splat == nil {
		return nil
	}
	return &Arg{
		Name:       splatName(l.text(splat)),
		Annotation: l.text(node.ChildByFieldName("type")),
	}
}

func splatName(text string) string {
	return strings.TrimSpace(strings.TrimLeft(text, "*"))
}
