// Package index flattens an object tree into lookup tables keyed by
// definition position and by dotted path.
package index

import (
	"sort"

	"pyindex/internal/engine/object"
)

// Entry is one indexed object. Path is unique within the index: an
// alt-object carries its "#n" suffix, and so does every descendant reached
// through it.
type Entry struct {
	Position object.Position
	Path     string
	Kind     object.Kind
	Alt      bool
	Depth    int
	Object   object.Object
}

// Stats summarises an index.
type Stats struct {
	Modules    int
	Classes    int
	Functions  int
	Alts       int
	Statements int
}

// Index is read-only after Build and safe for concurrent readers.
type Index struct {
	byPos  map[object.Position]*Entry
	byPath map[string]*Entry
	items  []*Entry
}

// Build indexes root and every object below it, alt-objects included.
func Build(root object.Object) *Index {
	idx := &Index{
		byPos:  make(map[object.Position]*Entry),
		byPath: make(map[string]*Entry),
	}
	object.WalkPaths(root, func(o object.Object, path object.ObjectPath, depth int) bool {
		_, alt := o.(*object.AltObject)
		e := &Entry{
			Position: o.Data().Position(),
			Path:     path.String(),
			Kind:     object.ObType(o),
			Alt:      alt,
			Depth:    depth,
			Object:   o,
		}
		idx.byPos[e.Position] = e
		idx.byPath[e.Path] = e
		idx.items = append(idx.items, e)
		return true
	})
	sort.SliceStable(idx.items, func(i, j int) bool {
		a, b := idx.items[i].Position, idx.items[j].Position
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		return a.Start < b.Start
	})
	return idx
}

func (x *Index) Len() int { return len(x.items) }

// Lookup returns the object defined at pos.
func (x *Index) Lookup(pos object.Position) (object.Object, bool) {
	e, ok := x.byPos[pos]
	if !ok {
		return nil, false
	}
	return e.Object, true
}

func (x *Index) Has(pos object.Position) bool {
	_, ok := x.byPos[pos]
	return ok
}

// ByPath resolves a dotted path such as "pkg.mod.Class.method".
func (x *Index) ByPath(path string) (object.Object, bool) {
	e, ok := x.byPath[path]
	if !ok {
		return nil, false
	}
	return e.Object, true
}

// LookupFunction returns the function defined at pos, looking through an
// alt-object wrapper.
func (x *Index) LookupFunction(pos object.Position) (*object.Function, bool) {
	o, ok := x.Lookup(pos)
	if !ok {
		return nil, false
	}
	fn, ok := object.Unwrap(o).(*object.Function)
	return fn, ok
}

// Items returns all entries ordered by file, then start line.
func (x *Index) Items() []Entry {
	out := make([]Entry, len(x.items))
	for i, e := range x.items {
		out[i] = *e
	}
	return out
}

// Functions returns every function entry in Items order.
func (x *Index) Functions() []Entry {
	var out []Entry
	for _, e := range x.items {
		if e.Kind == object.KindFunction {
			out = append(out, *e)
		}
	}
	return out
}

func (x *Index) Stats() Stats {
	var s Stats
	for _, e := range x.items {
		if e.Alt {
			s.Alts++
		}
		switch e.Kind {
		case object.KindModule:
			s.Modules++
		case object.KindClass:
			s.Classes++
		case object.KindFunction:
			s.Functions++
			if fn, ok := object.Unwrap(e.Object).(*object.Function); ok {
				s.Statements += fn.NumStatements()
			}
		}
	}
	return s
}
