package object

import (
	"fmt"
	"io"
	"strings"
)

// Walk visits o and its descendants in pre-order, children sorted by name.
// depth is 0 for o. An AltObject's subtree is that of the object it wraps.
// Returning false from fn skips that object's subtree.
func Walk(o Object, fn func(o Object, depth int) bool) {
	walk(o, 0, fn)
}

func walk(o Object, depth int, fn func(Object, int) bool) {
	if !fn(o, depth) {
		return
	}
	for _, child := range Unwrap(o).Data().Children() {
		walk(child, depth+1, fn)
	}
}

// WalkPaths is Walk with each object's effective dotted path. Below an
// AltObject the path runs through the decorated segment, as in
// "m.Text#1.decode", so every visited object gets a distinct path.
func WalkPaths(o Object, fn func(o Object, path ObjectPath, depth int) bool) {
	walkPaths(o, o.Data().Path(), 0, fn)
}

func walkPaths(o Object, path ObjectPath, depth int, fn func(Object, ObjectPath, int) bool) {
	if !fn(o, path, depth) {
		return
	}
	d := Unwrap(o).Data()
	for _, name := range d.ChildNames() {
		child, _ := d.Child(name)
		walkPaths(child, path.Child(name), depth+1, fn)
	}
}

// DumpTree writes one line per object, "name (kind) => path:start",
// indented two spaces per level.
func DumpTree(w io.Writer, o Object) error {
	var err error
	Walk(o, func(o Object, depth int) bool {
		if err != nil {
			return false
		}
		d := o.Data()
		_, err = fmt.Fprintf(w, "%s%s (%s) => %s:%d\n",
			strings.Repeat("  ", depth), d.Name(), ObType(o), d.span.path, d.span.start)
		return err == nil
	})
	return err
}
