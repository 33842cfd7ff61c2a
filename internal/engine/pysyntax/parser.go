package pysyntax

import (
	"fmt"
	"time"

	"pyindex/internal/shared/observability"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// Parser turns Python source text into statements. It is safe for
// concurrent use; each call leases its own tree-sitter parser.
type Parser struct {
	lang *sitter.Language
	pool *ParserPool
}

func NewParser() *Parser {
	lang := sitter.NewLanguage(tree_sitter_python.Language())
	return &Parser{
		lang: lang,
		pool: NewParserPool(lang),
	}
}

// Parse parses source and returns its top-level statements in file order.
// name is used only for diagnostics. Source containing syntax errors yields
// a *SyntaxError pointing at the first offending node.
func (p *Parser) Parse(source []byte, name string) ([]Stmt, error) {
	start := time.Now()
	defer func() {
		observability.ParsingDuration.Observe(time.Since(start).Seconds())
	}()

	sp := p.pool.Get()
	defer p.pool.Put(sp)

	tree := sp.Parse(source, nil)
	if tree == nil {
		return nil, &SyntaxError{File: name, Line: 1, Column: 1, Message: "parser returned no tree"}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		observability.ParseErrorsTotal.Inc()
		return nil, firstSyntaxError(root, source, name)
	}

	l := &lowerer{source: source}
	return l.block(root), nil
}

// firstSyntaxError locates the first ERROR or MISSING node in document order.
func firstSyntaxError(root *sitter.Node, source []byte, name string) *SyntaxError {
	bad := findErrorNode(root)
	if bad == nil {
		return &SyntaxError{File: name, Line: 1, Column: 1, Message: "invalid syntax"}
	}

	pos := bad.StartPosition()
	serr := &SyntaxError{
		File:   name,
		Line:   int(pos.Row) + 1,
		Column: int(pos.Column) + 1,
	}
	if bad.IsMissing() {
		serr.Message = fmt.Sprintf("missing %q", bad.Kind())
		return serr
	}

	snippet := string(source[bad.StartByte():bad.EndByte()])
	if len(snippet) > 40 {
		snippet = snippet[:40] + "..."
	}
	serr.Message = fmt.Sprintf("invalid syntax near %q", snippet)
	return serr
}

func findErrorNode(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.IsError() || node.IsMissing() {
		return node
	}
	if !node.HasError() {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if found := findErrorNode(node.Child(i)); found != nil {
			return found
		}
	}
	return nil
}
