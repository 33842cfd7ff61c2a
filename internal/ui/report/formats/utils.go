package formats

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"pyindex/internal/engine/index"
	"pyindex/internal/engine/object"
)

// relFile shortens filename to be relative to root when it lies below it.
func relFile(root, filename string) string {
	if root == "" {
		return filename
	}
	rel, err := filepath.Rel(root, filename)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filename
	}
	return filepath.ToSlash(rel)
}

// signature is the rendered parameter list for functions and "" otherwise.
func signature(e index.Entry) string {
	if fn, ok := object.Unwrap(e.Object).(*object.Function); ok {
		return fn.FormatArgs()
	}
	return ""
}

func objectLabel(e index.Entry) string {
	name := e.Object.Data().Name()
	kind := string(e.Kind)
	if e.Alt {
		kind = "alt " + kind
	}
	if e.Kind == object.KindFunction {
		return fmt.Sprintf("%s(%s)\\n(%s)", name, signature(e), kind)
	}
	return fmt.Sprintf("%s\\n(%s)", name, kind)
}

func sanitizeID(path string) string {
	if path == "" {
		return "o"
	}
	var b strings.Builder
	for _, r := range path {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	out := b.String()
	first := rune(out[0])
	if unicode.IsDigit(first) {
		return "o_" + out
	}
	return out
}

// makeIDs assigns a unique DOT identifier to every entry, keyed by
// position since nested definitions of an alt-object share dotted paths
// with those of the object it shadows. Entries that sanitize to the same
// identifier get a numeric suffix in input order.
func makeIDs(entries []index.Entry) map[object.Position]string {
	ids := make(map[object.Position]string, len(entries))
	used := make(map[string]int, len(entries))
	for _, e := range entries {
		base := sanitizeID(e.Path)
		idx := used[base]
		used[base] = idx + 1
		if idx == 0 {
			ids[e.Position] = base
			continue
		}
		ids[e.Position] = fmt.Sprintf("%s_%d", base, idx+1)
	}
	return ids
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
