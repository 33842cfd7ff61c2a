package pysyntax

import (
	"sync"
	"testing"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

func pythonLanguage() *sitter.Language {
	return sitter.NewLanguage(tree_sitter_python.Language())
}

func TestParserPool_GetPut(t *testing.T) {
	pool := NewParserPool(pythonLanguage())

	sp := pool.Get()
	if sp == nil {
		t.Fatal("expected non-nil parser from pool")
	}
	if pool.Leased() != 1 {
		t.Fatalf("expected 1 leased parser, got %d", pool.Leased())
	}
	pool.Put(sp)
	if pool.Leased() != 0 {
		t.Fatalf("expected 0 leased parsers, got %d", pool.Leased())
	}
}

func TestParserPool_PutNil(t *testing.T) {
	pool := NewParserPool(pythonLanguage())
	pool.Put(nil)
	if pool.Leased() != 0 {
		t.Fatalf("Put(nil) must not change lease count, got %d", pool.Leased())
	}
}

func TestParser_ConcurrentUse(t *testing.T) {
	p := NewParser()
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stmts, err := p.Parse([]byte("def f(a, b=1):\n    return a\n"), "c.py")
			if err != nil {
				errs <- err
				return
			}
			if len(stmts) != 1 || stmts[0].Name != "f" {
				t.Errorf("unexpected statements %+v", stmts)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}
