// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package tree

import (
	"fmt"

	"github.com/creachadair/jdom"
)

// A Builder is a jdom.TokenWriter that constructs document trees from the
// tokens written to it. Each complete top-level value becomes a root.
//
// A comment written between a property name and its value is added to the
// enclosing object before the property.
type Builder struct {
	stk   []Node // open containers, and a property awaiting its value
	roots []Node
}

// NewBuilder constructs an empty Builder.
func NewBuilder() *Builder { return new(Builder) }

// Root returns the first complete top-level node, or nil if there is none.
func (b *Builder) Root() Node {
	if len(b.roots) == 0 {
		return nil
	}
	return b.roots[0]
}

// Roots returns all the complete top-level nodes in order.
func (b *Builder) Roots() []Node { return b.roots }

// Depth reports the number of open containers.
func (b *Builder) Depth() int { return len(b.stk) }

// Reset discards the state of b.
func (b *Builder) Reset() { b.stk, b.roots = nil, nil }

func (b *Builder) errorf(msg string, args ...any) error {
	e := &jdom.SyntaxError{Kind: jdom.StructuralError, Message: fmt.Sprintf(msg, args...)}
	if len(b.stk) != 0 {
		e.Path = b.top().Path()
	}
	return e
}

func (b *Builder) top() Node { return b.stk[len(b.stk)-1] }

func (b *Builder) push(n Node) { b.stk = append(b.stk, n) }

func (b *Builder) pop() { b.stk = b.stk[:len(b.stk)-1] }

// add adds a complete node at the current position.
func (b *Builder) add(n Node) error {
	if len(b.stk) == 0 {
		b.roots = append(b.roots, n)
		return nil
	}
	switch t := b.top().(type) {
	case *Property:
		if n.Kind() == KindComment {
			if obj, ok := t.parent.(*Object); ok {
				return obj.Insert(indexOf(obj, t), n)
			}
			return nil // the property is being discarded
		}
		b.pop()
		return t.SetValue(n)
	case *Object:
		if n.Kind() != KindComment {
			return b.errorf("a property name is required before a value in an object")
		}
		return t.Add(n)
	case Container:
		return t.Add(n)
	}
	panic(fmt.Sprintf("tree: unexpected builder node %T", b.top()))
}

// open adds a container at the current position and makes it current.
func (b *Builder) open(c Container) error {
	if err := b.add(c); err != nil {
		return err
	}
	b.push(c)
	return nil
}

// close ends the current container, which must have the given kind.
func (b *Builder) close(kind Kind) error {
	if len(b.stk) == 0 {
		return b.errorf("unexpected end of %v", kind)
	}
	switch t := b.top().(type) {
	case *Property:
		return b.errorf("missing value for property %q", t.name)
	default:
		if t.Kind() != kind {
			return b.errorf("unexpected end of %v in %v", kind, t.Kind())
		}
	}
	b.pop()
	return nil
}

// member adds a property to the current object, and makes it current.
func (b *Builder) member(p *Property, attach bool) error {
	if len(b.stk) == 0 {
		return b.errorf("property name %q outside an object", p.name)
	}
	obj, ok := b.top().(*Object)
	if !ok {
		return b.errorf("property name %q outside an object", p.name)
	}
	if attach {
		if err := obj.Add(p); err != nil {
			return err
		}
	}
	b.push(p)
	return nil
}

// WriteStartObject implements part of jdom.TokenWriter.
func (b *Builder) WriteStartObject() error { return b.open(NewObject()) }

// WriteEndObject implements part of jdom.TokenWriter.
func (b *Builder) WriteEndObject() error { return b.close(KindObject) }

// WriteStartArray implements part of jdom.TokenWriter.
func (b *Builder) WriteStartArray() error { return b.open(NewArray()) }

// WriteEndArray implements part of jdom.TokenWriter.
func (b *Builder) WriteEndArray() error { return b.close(KindArray) }

// WriteStartConstructor implements part of jdom.TokenWriter.
func (b *Builder) WriteStartConstructor(name string) error { return b.open(NewConstructor(name)) }

// WriteEndConstructor implements part of jdom.TokenWriter.
func (b *Builder) WriteEndConstructor() error { return b.close(KindConstructor) }

// WritePropertyName implements part of jdom.TokenWriter.
func (b *Builder) WritePropertyName(name string) error {
	return b.member(NewProperty(name, nil), true)
}

// WriteValue implements part of jdom.TokenWriter.
func (b *Builder) WriteValue(v any) error {
	n, err := scalarValue(v)
	if err != nil {
		return b.errorf("%v", err)
	}
	return b.add(n)
}

// WriteNull implements part of jdom.TokenWriter.
func (b *Builder) WriteNull() error { return b.add(NewNull()) }

// WriteUndefined implements part of jdom.TokenWriter.
func (b *Builder) WriteUndefined() error { return b.add(NewUndefined()) }

// WriteComment implements part of jdom.TokenWriter.
func (b *Builder) WriteComment(text string) error { return b.add(NewComment(text)) }

// WriteRaw implements part of jdom.TokenWriter. The text is stored in a Raw
// node without being checked.
func (b *Builder) WriteRaw(text string) error { return b.add(NewRaw(text)) }

// Flush implements part of jdom.TokenWriter. It does nothing.
func (b *Builder) Flush() error { return nil }
