// Package object is the structural model of an indexed Python project: a
// tree of modules, classes and functions, each with a source span and a
// dotted path, in which same-named siblings stay individually addressable.
package object

import (
	"fmt"
	"sort"

	"pyindex/internal/shared/observability"
)

// Kind is the structural type tag of an Object.
type Kind string

const (
	KindModule   Kind = "mod"
	KindClass    Kind = "class"
	KindFunction Kind = "func"
)

// Object is one of *Module, *Class, *Function or *AltObject. The set is
// closed; callers dispatch with a type switch or ObType.
type Object interface {
	Data() *ObjectData
	String() string
	object()
}

// ObType reports the structural kind of o. An AltObject reports the kind of
// the object it wraps.
func ObType(o Object) Kind {
	switch v := o.(type) {
	case *Module:
		return KindModule
	case *Class:
		return KindClass
	case *Function:
		return KindFunction
	case *AltObject:
		return ObType(v.sub)
	}
	panic(fmt.Sprintf("object: unknown variant %T", o))
}

// Equal compares objects by identity: span, name and kind.
func Equal(a, b Object) bool {
	return a.Data().Equal(b.Data()) && ObType(a) == ObType(b)
}

// ObjectKey is a comparable identity for an Object, usable as a map key.
type ObjectKey struct {
	Span SourceSpan
	Name string
	Kind Kind
}

func Key(o Object) ObjectKey {
	return ObjectKey{Span: o.Data().span, Name: o.Data().Name(), Kind: ObType(o)}
}

// ObjectData is the state shared by every variant. Every key in children is
// the Name of the child stored under it.
type ObjectData struct {
	span     SourceSpan
	children map[string]Object
	altCnts  map[string]int32
	objPath  ObjectPath
}

func NewObjectData(span SourceSpan, objPath ObjectPath) ObjectData {
	return ObjectData{
		span:     span,
		children: make(map[string]Object),
		altCnts:  make(map[string]int32),
		objPath:  objPath,
	}
}

func (d *ObjectData) Name() string { return d.objPath.Name() }

func (d *ObjectData) Span() SourceSpan { return d.span }

func (d *ObjectData) Path() ObjectPath { return d.objPath.Clone() }

func (d *ObjectData) Position() Position { return d.span.Position() }

// AppendChild stores child under name. If name is taken the existing child
// keeps it and child is wrapped in an AltObject named "name#n", where n
// counts the collisions on name so far.
func (d *ObjectData) AppendChild(name string, child Object) {
	if _, taken := d.children[name]; taken {
		d.altCnts[name]++
		cd := child.Data()
		alt := NewAltObject(cd.span, cd.objPath, child, d.altCnts[name])
		name = alt.data.Name()
		child = alt
		observability.CollisionsTotal.Inc()
	}
	d.children[name] = child
}

// AppendChildren inserts children in slice order, so the first definition
// of a name wins the undecorated slot.
func (d *ObjectData) AppendChildren(children []Object) {
	for _, child := range children {
		d.AppendChild(child.Data().Name(), child)
	}
}

func (d *ObjectData) Child(name string) (Object, bool) {
	c, ok := d.children[name]
	return c, ok
}

// ChildNames returns the child keys in sorted order.
func (d *ObjectData) ChildNames() []string {
	names := make([]string, 0, len(d.children))
	for name := range d.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Children returns the children sorted by name.
func (d *ObjectData) Children() []Object {
	names := d.ChildNames()
	out := make([]Object, 0, len(names))
	for _, name := range names {
		out = append(out, d.children[name])
	}
	return out
}

func (d *ObjectData) NumChildren() int { return len(d.children) }

// AltCount returns how many collisions name has seen in this parent.
func (d *ObjectData) AltCount(name string) int32 { return d.altCnts[name] }

// Equal compares span and name only; path and children are ignored.
func (d *ObjectData) Equal(other *ObjectData) bool {
	return d.span == other.span && d.Name() == other.Name()
}

// Module is a Python module: one file, or a package whose own data comes
// from its __init__.py.
type Module struct {
	data ObjectData
}

func (m *Module) Data() *ObjectData { return &m.data }
func (m *Module) Name() string      { return m.data.Name() }
func (m *Module) String() string    { return "mod " + m.data.Name() }
func (*Module) object()             {}

// AppendChild attaches child under its own name.
func (m *Module) AppendChild(child Object) {
	m.data.AppendChild(child.Data().Name(), child)
}

// Class is a Python class definition.
type Class struct {
	data       ObjectData
	decorators []string
}

func (c *Class) Data() *ObjectData    { return &c.data }
func (c *Class) Decorators() []string { return append([]string(nil), c.decorators...) }
func (c *Class) String() string       { return "class " + c.data.Name() }
func (*Class) object()                {}

// AltObject holds a definition that collided with an earlier sibling of the
// same name. Its own data carries the decorated "name#n" form.
type AltObject struct {
	data ObjectData
	sub  Object
}

func NewAltObject(span SourceSpan, objPath ObjectPath, sub Object, altCnt int32) *AltObject {
	objPath.ReplaceName(fmt.Sprintf("%s#%d", objPath.Name(), altCnt))
	return &AltObject{
		data: NewObjectData(span, objPath),
		sub:  sub,
	}
}

func (a *AltObject) Data() *ObjectData { return &a.data }

// Sub returns the wrapped definition.
func (a *AltObject) Sub() Object { return a.sub }

func (a *AltObject) String() string {
	return fmt.Sprintf("alt %s of %s", a.data.Name(), a.sub)
}

func (*AltObject) object() {}

// Unwrap follows AltObject wrappers down to the real definition.
func Unwrap(o Object) Object {
	for {
		alt, ok := o.(*AltObject)
		if !ok {
			return o
		}
		o = alt.sub
	}
}
