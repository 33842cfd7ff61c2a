// Package project walks a Python package directory and assembles the
// object tree of every module in it.
package project

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"pyindex/internal/core/errors"
	"pyindex/internal/engine/object"
	"pyindex/internal/engine/pysyntax"
	"pyindex/internal/shared/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const tracerName = "pyindex/project"

// Options configures a walk. The zero value walks sequentially with a
// private parser and no excludes.
type Options struct {
	// Workers > 1 parses sibling files and subpackages concurrently, with at
	// most Workers files being read and parsed at once.
	Workers      int
	ExcludeDirs  []string
	ExcludeFiles []string
	Parser       *pysyntax.Parser
}

// Project is the result of a successful walk.
type Project struct {
	Dir      string
	Root     *object.Module
	Files    int
	Duration time.Duration
}

// Walker builds module trees. A Walker is safe for concurrent use.
type Walker struct {
	parser   *pysyntax.Parser
	excludes *Excludes
	workers  int
	sem      *semaphore.Weighted
	files    atomic.Int64
}

func NewWalker(opts Options) (*Walker, error) {
	ex, err := NewExcludes(opts.ExcludeDirs, opts.ExcludeFiles)
	if err != nil {
		return nil, err
	}
	p := opts.Parser
	if p == nil {
		p = pysyntax.NewParser()
	}
	w := &Walker{parser: p, excludes: ex, workers: opts.Workers}
	if w.workers > 1 {
		w.sem = semaphore.NewWeighted(int64(w.workers))
	}
	return w, nil
}

// Create indexes the package rooted at root. It fails with EMPTY_ROOT when
// root has no __init__.py, and with the first I/O, path or parse error met
// anywhere in the tree otherwise; no partial tree is returned.
func Create(ctx context.Context, root string, opts Options) (*Project, error) {
	w, err := NewWalker(opts)
	if err != nil {
		return nil, err
	}
	return w.Create(ctx, root)
}

func (w *Walker) Create(ctx context.Context, root string) (*Project, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "project.Walker.Create",
		trace.WithAttributes(
			attribute.String("root", root),
			attribute.Int("workers", w.workers),
		),
	)
	defer span.End()

	start := time.Now()
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fail(span, errors.WithPath(err, errors.CodeInvalidPath, "resolve root", root))
	}
	if !utf8.ValidString(abs) {
		return nil, fail(span, errors.WithPath(nil, errors.CodeInvalidPath, "path is not valid UTF-8", abs))
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fail(span, errors.WithPath(err, errors.CodeIO, "stat root", abs))
	}
	if !info.IsDir() {
		return nil, fail(span, errors.WithPath(nil, errors.CodeInvalidPath, "root is not a directory", abs))
	}

	before := w.files.Load()
	mod, err := w.ModuleFromDir(ctx, abs, object.NewObjectPath())
	if err != nil {
		return nil, fail(span, err)
	}
	if mod == nil {
		return nil, fail(span, errors.WithPath(nil, errors.CodeEmptyRoot, "no __init__.py in project root", abs))
	}

	elapsed := time.Since(start)
	observability.WalkDuration.Observe(elapsed.Seconds())
	files := int(w.files.Load() - before)
	span.SetAttributes(attribute.Int("files", files))
	slog.Debug("project indexed", "root", abs, "module", mod.Name(), "files", files, "duration", elapsed)

	return &Project{Dir: abs, Root: mod, Files: files, Duration: elapsed}, nil
}

// ModuleFromDir builds the package module of dir under parPath. A directory
// without __init__.py is not a package: the result is (nil, nil).
func (w *Walker) ModuleFromDir(ctx context.Context, dir string, parPath object.ObjectPath) (*object.Module, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "project.Walker.ModuleFromDir",
		trace.WithAttributes(attribute.String("dir", dir)),
	)
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	children, err := ReadDirChildren(dir, w.excludes)
	if err != nil {
		return nil, fail(span, err)
	}
	if !children.IsPackage() {
		slog.Debug("skipping non-package directory", "dir", dir)
		return nil, nil
	}

	mod, err := w.ModuleFromFile(ctx, children.InitFile, parPath)
	if err != nil {
		return nil, fail(span, err)
	}
	path := mod.Data().Path()
	slog.Debug("package", "dir", dir, "path", path.String(), "files", len(children.PyFiles), "subdirs", len(children.SubDirs))

	files := make([]*object.Module, len(children.PyFiles))
	subs := make([]*object.Module, len(children.SubDirs))
	if w.workers > 1 {
		err = w.buildParallel(ctx, children, path, files, subs)
	} else {
		err = w.buildSequential(ctx, children, path, files, subs)
	}
	if err != nil {
		return nil, fail(span, err)
	}

	// Attach in sorted name order whatever the build order was, so collision
	// naming does not depend on scheduling.
	for _, m := range files {
		mod.AppendChild(m)
	}
	for _, m := range subs {
		if m != nil {
			mod.AppendChild(m)
		}
	}
	return mod, nil
}

func (w *Walker) buildSequential(ctx context.Context, children DirChildren, path object.ObjectPath, files, subs []*object.Module) error {
	for i, f := range children.PyFiles {
		m, err := w.ModuleFromFile(ctx, f, path)
		if err != nil {
			return err
		}
		files[i] = m
	}
	for i, d := range children.SubDirs {
		m, err := w.ModuleFromDir(ctx, d, path)
		if err != nil {
			return err
		}
		subs[i] = m
	}
	return nil
}

// buildParallel writes each result into its own slot. The first error
// cancels the remaining siblings.
func (w *Walker) buildParallel(ctx context.Context, children DirChildren, path object.ObjectPath, files, subs []*object.Module) error {
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range children.PyFiles {
		g.Go(func() error {
			m, err := w.ModuleFromFile(gctx, f, path)
			if err != nil {
				return err
			}
			files[i] = m
			return nil
		})
	}
	for i, d := range children.SubDirs {
		g.Go(func() error {
			m, err := w.ModuleFromDir(gctx, d, path)
			if err != nil {
				return err
			}
			subs[i] = m
			return nil
		})
	}
	return g.Wait()
}

// ModuleFromFile reads and parses one Python file into a module under
// parPath.
func (w *Walker) ModuleFromFile(ctx context.Context, file string, parPath object.ObjectPath) (*object.Module, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "project.Walker.ModuleFromFile",
		trace.WithAttributes(attribute.String("file", file)),
	)
	defer span.End()

	if w.sem != nil {
		if err := w.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer w.sem.Release(1)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	source, err := os.ReadFile(file)
	if err != nil {
		return nil, fail(span, errors.WithPath(err, errors.CodeIO, "read file", file))
	}
	if !utf8.Valid(source) {
		return nil, fail(span, errors.WithPath(nil, errors.CodeIO, "file is not valid UTF-8", file))
	}

	stmts, err := w.parser.Parse(source, file)
	if err != nil {
		de := errors.WithPath(err, errors.CodeParse, "parse file", file)
		var serr *pysyntax.SyntaxError
		if errors.As(err, &serr) {
			de = errors.AddContext(de, errors.CtxLine, serr.Line)
		}
		return nil, fail(span, de)
	}

	lineCnt := object.LineCount(source)
	mod := object.NewModuleCreator(file, lineCnt, parPath).Create(stmts)
	w.files.Add(1)
	observability.FilesIndexedTotal.Inc()
	span.SetAttributes(
		attribute.String("module", mod.Data().Path().String()),
		attribute.Int("lines", lineCnt),
	)
	slog.Debug("module", "file", file, "path", mod.Data().Path().String(), "objects", mod.Data().NumChildren())
	return mod, nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
