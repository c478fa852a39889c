// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package tree

import (
	"errors"

	"github.com/creachadair/jdom"
)

// An Object is an ordered collection of properties. Property names need not
// be unique.
type Object struct {
	nodeBase
	members []Node
}

// NewObject constructs an object with the given properties. Properties that
// already have a parent are copied.
func NewObject(props ...*Property) *Object {
	o := new(Object)
	for _, p := range props {
		o.Add(p)
	}
	return o
}

func (o *Object) Kind() Kind                 { return KindObject }
func (o *Object) Path() string               { return pathOf(o) }
func (o *Object) Remove() error              { return removeNode(o) }
func (o *Object) Replace(n Node) error       { return replaceNode(o, n) }
func (o *Object) String() string             { return Format(o, "") }
func (o *Object) Children() []Node           { return o.members }
func (o *Object) Len() int                   { return len(o.members) }
func (o *Object) Add(n Node) error           { return insertChild(o, len(o.members), n) }
func (o *Object) Insert(i int, n Node) error { return insertChild(o, i, n) }
func (o *Object) RemoveAt(i int) error       { return removeAt(o, i) }
func (o *Object) RemoveChild(n Node) bool    { return removeAt(o, indexOf(o, n)) == nil }
func (o *Object) Clear()                     { clearItems(&o.members) }
func (o *Object) items() *[]Node             { return &o.members }

// Clone returns a deep copy of o.
func (o *Object) Clone() Node {
	c := &Object{nodeBase: nodeBase{line: o.line, col: o.col}}
	c.members = cloneItems(c, o.members)
	return c
}

// Properties returns the properties of o in order.
func (o *Object) Properties() []*Property {
	var out []*Property
	for _, m := range o.members {
		if p, ok := m.(*Property); ok {
			out = append(out, p)
		}
	}
	return out
}

// Property returns the first property of o with the given name, or nil.
func (o *Object) Property(name string) *Property {
	for _, m := range o.members {
		if p, ok := m.(*Property); ok && p.name == name {
			return p
		}
	}
	return nil
}

// Get returns the value of the first property of o with the given name, or
// nil if there is none.
func (o *Object) Get(name string) Node {
	if p := o.Property(name); p != nil {
		return p.value
	}
	return nil
}

// Lookup returns the values of all the properties of o with the given name,
// in order.
func (o *Object) Lookup(name string) []Node {
	var out []Node
	for _, m := range o.members {
		if p, ok := m.(*Property); ok && p.name == name {
			out = append(out, p.value)
		}
	}
	return out
}

// Set replaces the value of the first property of o with the given name, or
// adds a new property if there is none.
func (o *Object) Set(name string, v Node) error {
	if p := o.Property(name); p != nil {
		return p.SetValue(v)
	}
	p, err := newProperty(name, v)
	if err != nil {
		return err
	}
	return o.Add(p)
}

// Names returns the distinct property names of o in order of first
// occurrence.
func (o *Object) Names() []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range o.members {
		if p, ok := m.(*Property); ok && !seen[p.name] {
			seen[p.name] = true
			out = append(out, p.name)
		}
	}
	return out
}

// An Array is an ordered sequence of values.
type Array struct {
	nodeBase
	elts []Node
}

// NewArray constructs an array with the given elements. Elements that
// already have a parent are copied.
func NewArray(elts ...Node) *Array {
	a := new(Array)
	for _, e := range elts {
		a.Add(e)
	}
	return a
}

func (a *Array) Kind() Kind                 { return KindArray }
func (a *Array) Path() string               { return pathOf(a) }
func (a *Array) Remove() error              { return removeNode(a) }
func (a *Array) Replace(n Node) error       { return replaceNode(a, n) }
func (a *Array) String() string             { return Format(a, "") }
func (a *Array) Children() []Node           { return a.elts }
func (a *Array) Len() int                   { return len(a.elts) }
func (a *Array) Add(n Node) error           { return insertChild(a, len(a.elts), n) }
func (a *Array) Insert(i int, n Node) error { return insertChild(a, i, n) }
func (a *Array) RemoveAt(i int) error       { return removeAt(a, i) }
func (a *Array) RemoveChild(n Node) bool    { return removeAt(a, indexOf(a, n)) == nil }
func (a *Array) Clear()                     { clearItems(&a.elts) }
func (a *Array) items() *[]Node             { return &a.elts }

// At returns the element at index i, or nil if i is out of range.
func (a *Array) At(i int) Node {
	if i < 0 || i >= len(a.elts) {
		return nil
	}
	return a.elts[i]
}

// Clone returns a deep copy of a.
func (a *Array) Clone() Node {
	c := &Array{nodeBase: nodeBase{line: a.line, col: a.col}}
	c.elts = cloneItems(c, a.elts)
	return c
}

// A Constructor is a named sequence of arguments, as in new Date(2012, 3).
type Constructor struct {
	nodeBase
	name string
	args []Node
}

// NewConstructor constructs a constructor with the given name and arguments.
func NewConstructor(name string, args ...Node) *Constructor {
	c := &Constructor{name: name}
	for _, arg := range args {
		c.Add(arg)
	}
	return c
}

// Name returns the name of the constructor.
func (c *Constructor) Name() string { return c.name }

// SetName sets the name of the constructor.
func (c *Constructor) SetName(name string) { c.name = name }

func (c *Constructor) Kind() Kind                 { return KindConstructor }
func (c *Constructor) Path() string               { return pathOf(c) }
func (c *Constructor) Remove() error              { return removeNode(c) }
func (c *Constructor) Replace(n Node) error       { return replaceNode(c, n) }
func (c *Constructor) String() string             { return Format(c, "") }
func (c *Constructor) Children() []Node           { return c.args }
func (c *Constructor) Len() int                   { return len(c.args) }
func (c *Constructor) Add(n Node) error           { return insertChild(c, len(c.args), n) }
func (c *Constructor) Insert(i int, n Node) error { return insertChild(c, i, n) }
func (c *Constructor) RemoveAt(i int) error       { return removeAt(c, i) }
func (c *Constructor) RemoveChild(n Node) bool    { return removeAt(c, indexOf(c, n)) == nil }
func (c *Constructor) Clear()                     { clearItems(&c.args) }
func (c *Constructor) items() *[]Node             { return &c.args }

// Clone returns a deep copy of c.
func (c *Constructor) Clone() Node {
	cp := &Constructor{nodeBase: nodeBase{line: c.line, col: c.col}, name: c.name}
	cp.args = cloneItems(cp, c.args)
	return cp
}

// A Property is a named slot of an Object. It always has exactly one value,
// which is its only child.
type Property struct {
	nodeBase
	name  string
	value Node
}

// NewProperty constructs a property with the given name and value. A nil
// value is a null. A value that already has a parent is copied.
func NewProperty(name string, value Node) *Property {
	p, err := newProperty(name, value)
	if err != nil {
		panic(err)
	}
	return p
}

func newProperty(name string, value Node) (*Property, error) {
	p := &Property{name: name, value: NewNull()}
	p.value.base().parent = p
	if value != nil {
		if err := p.SetValue(value); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Name returns the name of the property.
func (p *Property) Name() string { return p.name }

// Value returns the value of the property.
func (p *Property) Value() Node { return p.value }

// SetValue replaces the value of the property with v. The old value is
// detached from the property. A nil v is a null.
func (p *Property) SetValue(v Node) error {
	if v == nil {
		v = NewNull()
	} else if v == p.value {
		return nil
	} else if v.Kind() == KindProperty {
		return errors.New("a property value cannot be a property")
	}
	v, err := adopt(p, v)
	if err != nil {
		return err
	}
	p.value.base().parent = nil
	v.base().parent = p
	p.value = v
	return nil
}

func (p *Property) Kind() Kind           { return KindProperty }
func (p *Property) Path() string         { return pathOf(p) }
func (p *Property) Remove() error        { return removeNode(p) }
func (p *Property) Replace(n Node) error { return replaceNode(p, n) }
func (p *Property) String() string       { return Format(p, "") }
func (p *Property) Children() []Node     { return []Node{p.value} }
func (p *Property) Len() int             { return 1 }
func (p *Property) items() *[]Node       { s := []Node{p.value}; return &s }

// Add sets the value of p if it is null, and otherwise reports an error,
// since a property has exactly one value.
func (p *Property) Add(n Node) error {
	if v, ok := p.value.(*Value); !ok || v.tok != jdom.Null {
		return errors.New("a property can only have one value")
	}
	return p.SetValue(n)
}

// Insert is as Add, for i == 0.
func (p *Property) Insert(i int, n Node) error {
	if i != 0 {
		return errors.New("index out of range")
	}
	return p.Add(n)
}

// RemoveAt reports an error, since the value of a property cannot be
// removed. Use SetValue to replace it.
func (p *Property) RemoveAt(int) error { return errors.New("cannot remove the value of a property") }

// RemoveChild reports false, since the value of a property cannot be
// removed.
func (p *Property) RemoveChild(Node) bool { return false }

// Clear sets the value of p to null.
func (p *Property) Clear() { p.SetValue(nil) }

// Clone returns a deep copy of p.
func (p *Property) Clone() Node {
	cp := &Property{nodeBase: nodeBase{line: p.line, col: p.col}, name: p.name}
	cp.value = p.value.Clone()
	cp.value.base().parent = cp
	return cp
}

func cloneItems(parent Container, items []Node) []Node {
	if len(items) == 0 {
		return nil
	}
	out := make([]Node, len(items))
	for i, n := range items {
		out[i] = n.Clone()
		out[i].base().parent = parent
	}
	return out
}

func clearItems(items *[]Node) {
	for _, n := range *items {
		n.base().parent = nil
	}
	*items = nil
}
