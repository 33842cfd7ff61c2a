package object

import (
	"path/filepath"
	"strings"

	"pyindex/internal/engine/pysyntax"
	"pyindex/internal/shared/observability"
)

const initFile = "__init__.py"

// ModuleCreator builds the Module of one parsed file.
type ModuleCreator struct {
	filename string
	lineCnt  int
	parPath  ObjectPath
}

// NewModuleCreator prepares a creator for filename, which has lineCnt lines
// and lives under the package path parPath (empty for a project root).
func NewModuleCreator(filename string, lineCnt int, parPath ObjectPath) *ModuleCreator {
	return &ModuleCreator{
		filename: filename,
		lineCnt:  lineCnt,
		parPath:  parPath.Clone(),
	}
}

// ModName is the module name contributed by the file: its base name without
// the .py suffix, or the parent directory's name for __init__.py.
func (c *ModuleCreator) ModName() string {
	return ModName(c.filename)
}

func ModName(filename string) string {
	base := filepath.Base(filename)
	if base == initFile {
		return filepath.Base(filepath.Dir(filename))
	}
	return strings.TrimSuffix(base, ".py")
}

// Create builds the module from the file's top-level statements. The module
// span runs from line 0 to the file's line count.
func (c *ModuleCreator) Create(stmts []pysyntax.Stmt) *Module {
	path := c.parPath.Child(c.ModName())
	mod := &Module{
		data: NewObjectData(NewSourceSpan(c.filename, 0, c.lineCnt), path),
	}
	mod.data.AppendChildren(ObjectsFromStmts(stmts, path, c.filename))
	observability.ObjectsTotal.WithLabelValues(string(KindModule)).Inc()
	return mod
}

// LineCount returns the number of lines in source: newlines plus one.
func LineCount(source []byte) int {
	return strings.Count(string(source), "\n") + 1
}

// ObjectsFromStmts builds the classes and functions defined by stmts, in
// file order, under parPath. Definitions nested in if, for, while, with,
// match and try bodies belong to the same lexical parent and are included
// where they occur. Other statements produce nothing.
func ObjectsFromStmts(stmts []pysyntax.Stmt, parPath ObjectPath, filePath string) []Object {
	var out []Object
	for _, st := range stmts {
		switch st.Kind {
		case pysyntax.KindClassDef:
			out = append(out, newClass(st, parPath, filePath))
		case pysyntax.KindFunctionDef, pysyntax.KindAsyncFunctionDef:
			out = append(out, newFunction(st, parPath, filePath))
		default:
			for _, block := range st.Blocks() {
				out = append(out, ObjectsFromStmts(block, parPath, filePath)...)
			}
		}
	}
	return out
}

func newClass(st pysyntax.Stmt, parPath ObjectPath, filePath string) *Class {
	path := parPath.Child(st.Name)
	cls := &Class{
		data:       NewObjectData(NewSourceSpan(filePath, st.Line, st.EndLine), path),
		decorators: st.Decorators,
	}
	cls.data.AppendChildren(ObjectsFromStmts(st.Body, path, filePath))
	observability.ObjectsTotal.WithLabelValues(string(KindClass)).Inc()
	return cls
}

func newFunction(st pysyntax.Stmt, parPath ObjectPath, filePath string) *Function {
	path := parPath.Child(st.Name)
	fn := &Function{
		data:       NewObjectData(NewSourceSpan(filePath, st.Line, st.EndLine), path),
		stmts:      HarvestStatements(st.Body),
		async:      st.Kind == pysyntax.KindAsyncFunctionDef,
		decorators: st.Decorators,
	}
	if st.Args != nil {
		fn.args = *st.Args
	}
	fn.data.AppendChildren(ObjectsFromStmts(st.Body, path, filePath))
	observability.ObjectsTotal.WithLabelValues(string(KindFunction)).Inc()
	return fn
}
