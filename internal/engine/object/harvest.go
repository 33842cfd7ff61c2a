package object

import "pyindex/internal/engine/pysyntax"

// HarvestStatements flattens a function body into a map from start line to
// statement kind. Nested function and class definitions leave no entry on
// their line and are not descended; every other compound statement records itself and
// then each of its bodies. When two statements share a line, the later one
// in source order wins.
func HarvestStatements(body []pysyntax.Stmt) map[int]pysyntax.StmtKind {
	out := make(map[int]pysyntax.StmtKind)
	harvestInto(out, body)
	return out
}

func harvestInto(out map[int]pysyntax.StmtKind, stmts []pysyntax.Stmt) {
	for _, st := range stmts {
		if st.Kind.IsDefinition() {
			delete(out, st.Line)
			continue
		}
		out[st.Line] = st.Kind
		for _, block := range st.Blocks() {
			harvestInto(out, block)
		}
	}
}
