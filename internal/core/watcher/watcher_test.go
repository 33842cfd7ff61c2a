package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pyindex/internal/engine/project"
)

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, nil, nil)
	if err == nil {
		t.Fatal("expected error for nil callback")
	}
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}
}

func TestWatcher_SetDebounce(t *testing.T) {
	tmpDir := t.TempDir()
	changed := make(chan []string, 4)
	w, err := NewWatcher(time.Hour, nil, func(paths []string) { changed <- paths })
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch(tmpDir); err != nil {
		t.Fatal(err)
	}

	w.SetDebounce(50 * time.Millisecond)
	if got := w.Debounce(); got != 50*time.Millisecond {
		t.Fatalf("expected 50ms debounce, got %s", got)
	}
	testFile := filepath.Join(tmpDir, "fast.py")
	if err := os.WriteFile(testFile, []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, testFile, 2*time.Second)
}

func waitFor(t *testing.T, ch <-chan []string, want string, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case paths := <-ch:
			for _, p := range paths {
				if p == want {
					return
				}
			}
		case <-deadline:
			t.Fatalf("timed out waiting for change of %s", want)
		}
	}
}

func TestWatcher(t *testing.T) {
	tmpDir := t.TempDir()

	ex, err := project.NewExcludes([]string{"build"}, []string{"*_pb2.py"})
	if err != nil {
		t.Fatal(err)
	}
	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(100*time.Millisecond, ex, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch(tmpDir); err != nil {
		t.Fatal(err)
	}

	testFile := filepath.Join(tmpDir, "models.py")
	if err := os.WriteFile(testFile, []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, testFile, 2*time.Second)

	for _, name := range []string{"notes.txt", "api_pb2.py"} {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte("ignored"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	select {
	case paths := <-changedFiles:
		t.Fatalf("excluded files triggered a change: %v", paths)
	case <-time.After(400 * time.Millisecond):
	}

	subdir := filepath.Join(tmpDir, "pkg")
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	subFile := filepath.Join(subdir, "__init__.py")
	if err := os.WriteFile(subFile, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, subFile, 2*time.Second)
}

func TestWatcher_RemovedPackageTriggersChange(t *testing.T) {
	tmpDir := t.TempDir()
	pkg := filepath.Join(tmpDir, "pkg")
	if err := os.MkdirAll(pkg, 0o755); err != nil {
		t.Fatal(err)
	}

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(50*time.Millisecond, nil, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch(tmpDir); err != nil {
		t.Fatal(err)
	}

	if err := os.RemoveAll(pkg); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, pkg, 2*time.Second)
}

func TestWatcher_RenameTriggersChange(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(100*time.Millisecond, nil, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch(tmpDir); err != nil {
		t.Fatal(err)
	}

	oldPath := filepath.Join(tmpDir, "old.py")
	newPath := filepath.Join(tmpDir, "new.py")
	if err := os.WriteFile(oldPath, []byte("pass\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, newPath, 2*time.Second)
}

func TestWatcher_ShouldExcludeFile(t *testing.T) {
	ex, err := project.NewExcludes(nil, []string{"test_*.py"})
	if err != nil {
		t.Fatal(err)
	}
	w, err := NewWatcher(10*time.Millisecond, ex, func([]string) {})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	cases := []struct {
		path string
		want bool
	}{
		{path: "/p/mod.py", want: false},
		{path: "/p/__init__.py", want: false},
		{path: "/p/mod.pyc", want: true},
		{path: "/p/__pycache__/mod.py", want: true},
		{path: "/p/test_mod.py", want: true},
		{path: "/p/README.md", want: true},
	}
	for _, tc := range cases {
		if got := w.shouldExcludeFile(tc.path); got != tc.want {
			t.Errorf("shouldExcludeFile(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}
