package project

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"pyindex/internal/core/errors"

	"github.com/gobwas/glob"
)

const (
	initFile   = "__init__.py"
	pycacheDir = "__pycache__"
	pySuffix   = ".py"
)

// Excludes holds compiled glob patterns matched against entry base names.
type Excludes struct {
	dirs  []glob.Glob
	files []glob.Glob
}

func NewExcludes(dirPatterns, filePatterns []string) (*Excludes, error) {
	ex := &Excludes{
		dirs:  make([]glob.Glob, 0, len(dirPatterns)),
		files: make([]glob.Glob, 0, len(filePatterns)),
	}
	for _, p := range dirPatterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("invalid exclude dir pattern %q", p))
		}
		ex.dirs = append(ex.dirs, g)
	}
	for _, p := range filePatterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("invalid exclude file pattern %q", p))
		}
		ex.files = append(ex.files, g)
	}
	return ex, nil
}

func (e *Excludes) SkipDir(name string) bool {
	if name == pycacheDir {
		return true
	}
	if e == nil {
		return false
	}
	for _, g := range e.dirs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// SkipFile reports whether name is excluded. The package initializer is
// never excluded since it decides whether a directory is a package at all.
func (e *Excludes) SkipFile(name string) bool {
	if e == nil || name == initFile {
		return false
	}
	for _, g := range e.files {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// DirChildren is the classified content of one directory. All paths are
// joined onto the directory and sorted by name.
type DirChildren struct {
	InitFile string
	PyFiles  []string
	SubDirs  []string
}

// IsPackage reports whether the directory has an __init__.py.
func (c DirChildren) IsPackage() bool { return c.InitFile != "" }

// ReadDirChildren lists dir and sorts its entries into the package
// initializer, other Python files and subdirectories. Cache directories and
// excluded names are left out; files without the .py suffix are ignored.
func ReadDirChildren(dir string, ex *Excludes) (DirChildren, error) {
	var out DirChildren

	entries, err := os.ReadDir(dir)
	if err != nil {
		return out, errors.WithPath(err, errors.CodeIO, "read directory", dir)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		name := entry.Name()
		if !utf8.ValidString(name) {
			return out, errors.WithPath(nil, errors.CodeInvalidPath, "file name is not valid UTF-8", filepath.Join(dir, name))
		}
		full := filepath.Join(dir, name)

		isDir, isFile, err := entryType(full, entry)
		if err != nil {
			return out, err
		}

		switch {
		case isDir:
			if ex.SkipDir(name) {
				continue
			}
			out.SubDirs = append(out.SubDirs, full)
		case isFile && strings.HasSuffix(name, pySuffix):
			if name == initFile {
				out.InitFile = full
				continue
			}
			if ex.SkipFile(name) {
				continue
			}
			out.PyFiles = append(out.PyFiles, full)
		}
	}
	return out, nil
}

// entryType follows symlinks to files. Symlinked directories are not
// descended, so a link back to an ancestor cannot loop the walk.
func entryType(full string, entry fs.DirEntry) (isDir, isFile bool, err error) {
	if entry.Type()&fs.ModeSymlink == 0 {
		return entry.IsDir(), entry.Type().IsRegular(), nil
	}
	info, err := os.Stat(full)
	if err != nil {
		return false, false, errors.WithPath(err, errors.CodeIO, "stat entry", full)
	}
	return false, info.Mode().IsRegular(), nil
}
