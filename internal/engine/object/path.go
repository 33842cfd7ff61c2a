package object

import "strings"

// ObjectPath is the canonical dotted path of a Python object, such as
// os.path.join. Only a transient root accumulator may be empty.
type ObjectPath struct {
	components []string
}

func NewObjectPath(components ...string) ObjectPath {
	return ObjectPath{components: append([]string(nil), components...)}
}

// AppendPart pushes a new trailing component. It never writes into a
// backing array shared with another path.
func (p *ObjectPath) AppendPart(part string) {
	n := len(p.components)
	p.components = append(p.components[:n:n], part)
}

// Child returns a copy of p extended by name.
func (p ObjectPath) Child(name string) ObjectPath {
	c := p.Clone()
	c.AppendPart(name)
	return c
}

// Name returns the last component. Calling it on an empty path is a
// construction bug and panics.
func (p ObjectPath) Name() string {
	if p.IsEmpty() {
		panic("object: Name called on empty ObjectPath")
	}
	return p.components[len(p.components)-1]
}

// ReplaceName overwrites the last component, keeping the ancestry.
func (p *ObjectPath) ReplaceName(name string) {
	if p.IsEmpty() {
		panic("object: ReplaceName called on empty ObjectPath")
	}
	c := p.Clone()
	c.components[len(c.components)-1] = name
	*p = c
}

func (p ObjectPath) Clone() ObjectPath {
	return NewObjectPath(p.components...)
}

func (p ObjectPath) Components() []string {
	return append([]string(nil), p.components...)
}

func (p ObjectPath) Len() int { return len(p.components) }

func (p ObjectPath) IsEmpty() bool { return len(p.components) == 0 }

func (p ObjectPath) String() string {
	return strings.Join(p.components, ".")
}
