// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

// Package cursor implements step-wise traversal over a document tree.
package cursor

import (
	"fmt"

	"github.com/creachadair/jdom/tree"
)

// Path traverses a sequential path into the structure of n, with path
// elements as documented for Cursor.Down, and returns the node reached.
func Path[T tree.Node](n tree.Node, path ...any) (T, error) {
	c := New(n).Down(path...)
	var result T
	if err := c.Err(); err != nil {
		return result, err
	}
	v, ok := c.Node().(T)
	if !ok {
		return result, fmt.Errorf("wrong node type %T at %q", c.Node(), c.Node().Path())
	}
	return v, nil
}

// A Cursor is a pointer that navigates into the structure of a tree.
type Cursor struct {
	org tree.Node
	stk []tree.Node
	err error
}

// New constructs a new Cursor to traverse the structure of origin.
func New(origin tree.Node) *Cursor { return &Cursor{org: origin} }

// Origin returns the origin node of c.
func (c *Cursor) Origin() tree.Node { return c.org }

// AtOrigin reports whether c is at its origin.
func (c *Cursor) AtOrigin() bool { return len(c.stk) == 0 }

// Node reports the current node under the cursor.
func (c *Cursor) Node() tree.Node {
	if c.AtOrigin() {
		return c.org
	}
	return c.stk[len(c.stk)-1]
}

// Trail reports the sequence of nodes visited from the origin to the current
// position of c, inclusive.
func (c *Cursor) Trail() []tree.Node {
	return append([]tree.Node{c.org}, c.stk...)
}

// Path reports the JSON path of the current node from the root of its tree.
func (c *Cursor) Path() string { return c.Node().Path() }

// Err reports the error from the most recent traversal, if any.
func (c *Cursor) Err() error { return c.err }

// Up moves the cursor one step back along its trail, if possible. It
// returns c to permit chaining.
func (c *Cursor) Up() *Cursor {
	if n := len(c.stk); n > 0 {
		c.stk = c.stk[:n-1]
	}
	return c
}

// Reset returns the cursor to its origin and clears its error.
func (c *Cursor) Reset() { c.stk = c.stk[:0]; c.err = nil }

// Down traverses a sequential path starting from the current node. Path
// elements are strings (property names), integers (offsets), functions, or
// nil. If the path cannot be completely consumed, traversal stops where it
// failed and an error is recorded; use Err to recover it.
//
// A string element requires an object, and resolves to the first property
// with that name. If it is the last element, the property itself is the
// result; otherwise the next element applies to the property value. Use a
// trailing nil to end at the value of a property.
//
// An integer element requires an array, constructor, or object, and selects
// an element, argument, or property by offset. Comments are not counted.
// Negative offsets count backward from the end (-1 is last).
//
// A function element must have the signature
//
//	func(tree.Node) (tree.Node, error)
//
// and its result becomes the next node. If it reports an error, traversal
// stops and the error is recorded.
func (c *Cursor) Down(path ...any) *Cursor {
	c.err = nil
	cur := c.Node()
	for _, elt := range path {
		if p, ok := cur.(*tree.Property); ok {
			cur = c.push(p.Value())
		}

		switch t := elt.(type) {
		case string:
			obj, ok := cur.(*tree.Object)
			if !ok {
				return c.setErrorf("cannot traverse %v with %q", cur.Kind(), t)
			}
			p := obj.Property(t)
			if p == nil {
				return c.setErrorf("key %q not found", t)
			}
			cur = c.push(p)

		case int:
			items, ok := elements(cur)
			if !ok {
				return c.setErrorf("cannot traverse %v with %d", cur.Kind(), t)
			}
			i, ok := fixBound(len(items), t)
			if !ok {
				return c.setErrorf("%v index %d out of bounds (n=%d)", cur.Kind(), i, len(items))
			}
			cur = c.push(items[i])

		case func(tree.Node) (tree.Node, error):
			next, err := t(cur)
			if err != nil {
				c.err = err
				return c
			}
			cur = c.push(next)

		case nil:
			// Resolve a property at the end of the path to its value.

		default:
			return c.setErrorf("invalid path element %T", elt)
		}
	}
	return c
}

func (c *Cursor) push(n tree.Node) tree.Node { c.stk = append(c.stk, n); return n }

func (c *Cursor) setErrorf(msg string, args ...any) *Cursor {
	c.err = fmt.Errorf("at %q: "+msg, append([]any{c.Node().Path()}, args...)...)
	return c
}

// elements returns the children of n that an offset may select.
func elements(n tree.Node) ([]tree.Node, bool) {
	var kids []tree.Node
	switch t := n.(type) {
	case *tree.Object:
		for _, p := range t.Properties() {
			kids = append(kids, p)
		}
		return kids, true
	case *tree.Array, *tree.Constructor:
		for _, k := range t.(tree.Container).Children() {
			if k.Kind() != tree.KindComment {
				kids = append(kids, k)
			}
		}
		return kids, true
	}
	return nil, false
}

func fixBound(n, i int) (int, bool) {
	if i < 0 {
		i += n
	}
	return i, i >= 0 && i < n
}
