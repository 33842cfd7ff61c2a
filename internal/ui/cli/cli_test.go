package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"pyindex/internal/core/app"
	"pyindex/internal/core/config"
	"pyindex/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modelsSource = `class User:
    def save(self, force=False):
        return force

def helper():
    pass

def helper(x):
    return x
`

// newWorkspace lays out base/app as a package and writes a config next to
// it. The returned config path is absolute.
func newWorkspace(t *testing.T, withDB bool) (base, cfgPath string) {
	t.Helper()
	base = t.TempDir()
	writeFile(t, filepath.Join(base, "app", "__init__.py"), "")
	writeFile(t, filepath.Join(base, "app", "models.py"), modelsSource)

	cfgText := "root = \"app\"\n\n[walk]\nworkers = 2\n\n[watch]\ndebounce = \"50ms\"\nmax_rebuilds_per_second = 50.0\n"
	if withDB {
		cfgText += "\n[db]\nenabled = true\npath = \"state/index.db\"\nproject_key = \"app\"\n"
	}
	cfgPath = filepath.Join(base, "pyindex.toml")
	writeFile(t, cfgPath, cfgText)
	return base, cfgPath
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var stdout, stderr bytes.Buffer
	err := Execute(context.Background(), args, &stdout, &stderr)
	return stdout.String(), err
}

func TestScan_Tree(t *testing.T) {
	_, cfgPath := newWorkspace(t, false)

	out, err := execute(t, "--config", cfgPath, "scan")
	require.NoError(t, err)
	for _, want := range []string{
		"app __init__.py:0",
		"class User models.py:1-3",
		"def save(self, force=False) models.py:2-3",
		"def helper#1(x) [alt] models.py:8-9",
	} {
		assert.Contains(t, out, want)
	}
}

func TestScan_StatementsToFile(t *testing.T) {
	base, cfgPath := newWorkspace(t, false)
	target := filepath.Join(base, "reports", "objects.tsv")

	out, err := execute(t, "--config", cfgPath, "--format", "tsv", "scan", "--statements", "--out", target)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	body := string(data)
	assert.Contains(t, body, "Path\tKind\tAlt\tFile\tStart\tEnd\tDepth\tSignature")
	assert.Contains(t, body, "app.models.User.save\tfunc\tfalse\tmodels.py\t2\t3")
	assert.Contains(t, body, "Function\tFile\tLine\tStatement")
}

func TestScan_RootArgument(t *testing.T) {
	base, _ := newWorkspace(t, false)

	out, err := execute(t, "--config", filepath.Join(base, "missing.toml"), "scan", filepath.Join(base, "app"))
	require.Error(t, err, "an explicit config path must exist")
	assert.Empty(t, out)

	out, err = execute(t, "dump", filepath.Join(base, "app"))
	require.NoError(t, err)
	assert.Contains(t, out, "app.models.helper#1")
}

func TestScan_InvalidFormat(t *testing.T) {
	_, cfgPath := newWorkspace(t, false)

	_, err := execute(t, "--config", cfgPath, "--format", "xml", "scan")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output.format")
}

func TestLs_Functions(t *testing.T) {
	_, cfgPath := newWorkspace(t, false)

	out, err := execute(t, "--config", cfgPath, "ls", "--functions")
	require.NoError(t, err)
	assert.Contains(t, out, "app.models.helper#1")
	assert.Contains(t, out, "func*")
	assert.Contains(t, out, "3 FUNCTIONS")
	assert.NotContains(t, out, "class")
}

func TestLookup(t *testing.T) {
	base, cfgPath := newWorkspace(t, false)
	models := filepath.Join(base, "app", "models.py")

	out, err := execute(t, "--config", cfgPath, "lookup", models+":2")
	require.NoError(t, err)
	assert.Contains(t, out, "function app.models.User.save(self, force=False)")
	assert.Contains(t, out, "Return")

	out, err = execute(t, "--config", cfgPath, "lookup", "app.models.helper#1")
	require.NoError(t, err)
	assert.Contains(t, out, "alt helper#1 of function app.models.helper(x)")

	out, err = execute(t, "--config", cfgPath, "lookup", "app.models.User")
	require.NoError(t, err)
	assert.Contains(t, out, "class User")

	_, err = execute(t, "--config", cfgPath, "lookup", models+":4")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound), "got %v", err)

	_, err = execute(t, "--config", cfgPath, "lookup", "app.models.missing")
	assert.True(t, errors.IsCode(err, errors.CodeNotFound), "got %v", err)
}

func TestSplitPosition(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		file string
		line int
		ok   bool
	}{
		{in: "pkg/mod.py:12", file: "pkg/mod.py", line: 12, ok: true},
		{in: `C:\src\mod.py:0`, file: `C:\src\mod.py`, line: 0, ok: true},
		{in: "pkg.mod.func", ok: false},
		{in: "mod.py:", ok: false},
		{in: ":4", ok: false},
		{in: "mod.py:-1", ok: false},
		{in: "mod.py:x", ok: false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			file, line, ok := splitPosition(tc.in)
			if ok != tc.ok || file != tc.file || line != tc.line {
				t.Fatalf("splitPosition(%q) = (%q, %d, %v), want (%q, %d, %v)", tc.in, file, line, ok, tc.file, tc.line, tc.ok)
			}
		})
	}
}

func TestStoreAndHistory(t *testing.T) {
	base, cfgPath := newWorkspace(t, true)
	models := filepath.Join(base, "app", "models.py")

	_, err := execute(t, "--config", cfgPath, "scan")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	writeFile(t, filepath.Join(base, "app", "extra.py"), "def more():\n    pass\n")
	_, err = execute(t, "--config", cfgPath, "scan")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(base, "state", "index.db"))

	out, err := execute(t, "--config", cfgPath, "store", "list")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, " app "), "store list:\n%s", out)

	out, err = execute(t, "--config", cfgPath, "history", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"delta_functions": 1`)
	assert.Contains(t, out, `"delta_files": 1`)

	out, err = execute(t, "--config", cfgPath, "--format", "tsv", "history")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Timestamp\tScan\tFiles"), "history tsv:\n%s", out)

	out, err = execute(t, "--config", cfgPath, "store", "objects")
	require.NoError(t, err)
	assert.Contains(t, out, "app.extra.more")
	assert.Contains(t, out, "(self, force=False)")

	out, err = execute(t, "--config", cfgPath, "store", "lookup", models+":9")
	require.NoError(t, err)
	assert.Contains(t, out, "app.models.helper#1")
	assert.Contains(t, out, "Return")

	out, err = execute(t, "--config", cfgPath, "store", "prune", "--keep", "1")
	require.NoError(t, err)
	assert.Equal(t, "pruned 1 scan(s), kept 1\n", out)

	_, err = execute(t, "--config", cfgPath, "store", "prune", "--keep", "-1")
	require.Error(t, err)
}

func TestHistory_RequiresDB(t *testing.T) {
	_, cfgPath := newWorkspace(t, false)

	_, err := execute(t, "--config", cfgPath, "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db.enabled")

	_, err = execute(t, "--config", cfgPath, "store", "list")
	require.Error(t, err)
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "pyindex.toml")

	out, err := execute(t, "init", "--db", path)
	require.NoError(t, err)
	assert.Equal(t, "wrote "+path+"\n", out)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.DB.Enabled)
	assert.Equal(t, config.FormatTree, cfg.Output.Format)

	_, err = execute(t, "init", path)
	require.Error(t, err, "init must not overwrite an existing file")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "version")
}

func TestConfigureLogging_RotatingFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	base := t.TempDir()
	var stderr bytes.Buffer
	sink, err := configureLogging(config.Log{
		File:       "logs/pyindex.log",
		Level:      "warn",
		MaxSizeMB:  1,
		MaxBackups: 1,
		MaxAgeDays: 1,
	}, base, false, &stderr)
	require.NoError(t, err)

	slog.Info("dropped")
	slog.Warn("kept")
	sink.SetLevel(slog.LevelInfo)
	slog.Info("after reload")
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(filepath.Join(base, "logs", "pyindex.log"))
	require.NoError(t, err)
	body := string(data)
	assert.NotContains(t, body, "dropped")
	assert.Contains(t, body, "msg=kept")
	assert.Contains(t, body, "after reload")
	assert.Empty(t, stderr.String())
}

func TestConfigureLogging_InvalidLevel(t *testing.T) {
	_, err := configureLogging(config.Log{Level: "loud"}, t.TempDir(), false, io.Discard)
	require.Error(t, err)
}

func TestObservabilityServer(t *testing.T) {
	base, _ := newWorkspace(t, false)
	cfg := config.Default()
	cfg.Root = "app"
	a, err := app.New(cfg, base)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	srv := NewObservabilityServer("127.0.0.1:0", app.NewHealthService(a))
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })

	resp, err := http.Get("http://" + srv.Addr() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, "no scan yet reports degraded")

	_, err = a.IndexService().Scan(context.Background())
	require.NoError(t, err)

	resp, err = http.Get("http://" + srv.Addr() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "pyindex_")
}

func TestReloadConfig_AppliesDebounce(t *testing.T) {
	base, _ := newWorkspace(t, false)
	cfg := config.Default()
	cfg.Root = "app"
	a, err := app.New(cfg, base)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	s := &session{}
	next := config.Default()
	next.Watch.Debounce = 750 * time.Millisecond
	s.reloadConfig(a, next)
	assert.Equal(t, 750*time.Millisecond, a.Config.Watch.Debounce)

	next.Watch.Debounce = 0
	s.reloadConfig(a, next)
	assert.Equal(t, 750*time.Millisecond, a.Config.Watch.Debounce, "a zero debounce is ignored")
}

// syncBuffer is written by the watch command while the test polls it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatch_RebuildsUntilCancelled(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	base, cfgPath := newWorkspace(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- Execute(ctx, []string{"--config", cfgPath, "watch"}, &out, io.Discard)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "indexed app: 2 files")
	}, 5*time.Second, 20*time.Millisecond, "initial scan: %s", out.String())

	writeFile(t, filepath.Join(base, "app", "extra.py"), "def more():\n    pass\n")

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "rebuilt after")
	}, 5*time.Second, 20*time.Millisecond, "rebuild: %s", out.String())
	assert.Contains(t, out.String(), "3 files")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
