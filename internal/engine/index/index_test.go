package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"pyindex/internal/engine/object"
	"pyindex/internal/engine/project"
)

func buildProject(t *testing.T) (*Index, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "shop")
	files := map[string]string{
		"__init__.py": "",
		"cart.py": `class Cart:
    def add(self, item, qty=1):
        self.items.append(item)
        return self

def total(cart):
    return sum(cart.items)

def total(cart, tax):
    if tax:
        return 0
    return 1
`,
	}
	for name, content := range files {
		if err := os.MkdirAll(root, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	proj, err := project.Create(context.Background(), root, project.Options{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return Build(proj.Root), root
}

func TestLookupByPositionAndPath(t *testing.T) {
	t.Parallel()

	idx, root := buildProject(t)
	cart := filepath.Join(root, "cart.py")

	if idx.Len() != 6 {
		t.Fatalf("expected 6 entries, got %d", idx.Len())
	}

	o, ok := idx.Lookup(object.Position{Filename: cart, Start: 2})
	if !ok {
		t.Fatal("expected object at cart.py:2")
	}
	if got := o.Data().Path().String(); got != "shop.cart.Cart.add" {
		t.Fatalf("unexpected path %q", got)
	}

	if _, ok := idx.ByPath("shop.cart.total#1"); !ok {
		t.Fatal("expected alt entry for second total")
	}
	if !idx.Has(object.Position{Filename: filepath.Join(root, "__init__.py"), Start: 0}) {
		t.Fatal("expected package module at its __init__ position")
	}
	if idx.Has(object.Position{Filename: cart, Start: 3}) {
		t.Fatal("no object is defined at line 3")
	}
}

func TestByPathReachesAltSubtree(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "compat")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"__init__.py": "",
		"text.py": `import sys

if sys.version_info >= (3,):
    class Text:
        def decode(self, raw):
            return raw
else:
    class Text:
        def decode(self, raw, enc="utf-8"):
            return raw.decode(enc)
`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	proj, err := project.Create(context.Background(), root, project.Options{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	idx := Build(proj.Root)

	want := map[string]int{
		"compat.text.Text":          4,
		"compat.text.Text.decode":   5,
		"compat.text.Text#1":        8,
		"compat.text.Text#1.decode": 9,
	}
	for path, line := range want {
		o, ok := idx.ByPath(path)
		if !ok {
			t.Fatalf("no entry for %s", path)
		}
		if got := o.Data().Span().Start(); got != line {
			t.Errorf("%s: expected line %d, got %d", path, line, got)
		}
	}
	if idx.Len() != 6 {
		t.Fatalf("expected 6 entries, got %d", idx.Len())
	}

	seen := map[string]bool{}
	for _, e := range idx.Items() {
		if seen[e.Path] {
			t.Fatalf("duplicate entry path %s", e.Path)
		}
		seen[e.Path] = true
	}
	fn, ok := idx.LookupFunction(object.Position{Filename: filepath.Join(root, "text.py"), Start: 9})
	if !ok || fn.FormatArgs() != `self, raw, enc="utf-8"` {
		t.Fatalf("expected alt class method at line 9, got %v", fn)
	}
}

func TestLookupFunctionUnwrapsAlt(t *testing.T) {
	t.Parallel()

	idx, root := buildProject(t)
	fn, ok := idx.LookupFunction(object.Position{Filename: filepath.Join(root, "cart.py"), Start: 9})
	if !ok {
		t.Fatal("expected function at line 9")
	}
	if got := fn.FormatArgs(); got != "cart, tax" {
		t.Fatalf("unexpected args %q", got)
	}
	if _, ok := idx.LookupFunction(object.Position{Filename: filepath.Join(root, "cart.py"), Start: 1}); ok {
		t.Fatal("class must not resolve as a function")
	}
}

func TestItemsOrderAndStats(t *testing.T) {
	t.Parallel()

	idx, _ := buildProject(t)
	items := idx.Items()
	for i := 1; i < len(items); i++ {
		a, b := items[i-1].Position, items[i].Position
		if a.Filename > b.Filename || (a.Filename == b.Filename && a.Start > b.Start) {
			t.Fatalf("items out of order at %d: %s then %s", i, a, b)
		}
	}

	fns := idx.Functions()
	if len(fns) != 3 {
		t.Fatalf("expected 3 functions, got %d", len(fns))
	}
	if !fns[2].Alt || fns[2].Kind != object.KindFunction {
		t.Fatalf("expected last function to be an alt func, got %+v", fns[2])
	}

	want := Stats{Modules: 2, Classes: 1, Functions: 3, Alts: 1, Statements: 6}
	if got := idx.Stats(); got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}
