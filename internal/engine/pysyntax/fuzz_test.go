package pysyntax

import (
	"errors"
	"testing"
)

func FuzzParse(f *testing.F) {
	f.Add([]byte(`def main():
    print("hello")
if __name__ == "__main__":
    main()`))
	f.Add([]byte("class A:\n    def f(self, /, a, *, b=1, **kw):\n        pass\n"))
	f.Add([]byte("try:\n    pass\nexcept* E:\n    pass\n"))

	p := NewParser()
	f.Fuzz(func(t *testing.T, data []byte) {
		stmts, err := p.Parse(data, "fuzz.py")
		if err != nil {
			var serr *SyntaxError
			if !errors.As(err, &serr) {
				t.Fatalf("expected *SyntaxError, got %T", err)
			}
			return
		}
		for _, st := range stmts {
			if st.Line < 1 || st.EndLine < st.Line {
				t.Fatalf("invalid line range %d-%d for %s", st.Line, st.EndLine, st.Kind)
			}
		}
	})
}
