// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package tree implements a mutable document tree for JSON values.
//
// A tree is built from a token stream by Load, or programmatically using the
// node constructors and the mutation methods of the Container types. A tree
// can be written back to any jdom.TokenWriter with WriteTo, or replayed as a
// token stream with a Reader.
//
// Each node has at most one parent. Adding a node that already has a parent
// to another container adds a deep copy of the node, leaving the original in
// place. Trees are not safe for concurrent mutation.
package tree

import (
	"errors"
	"strings"

	"github.com/creachadair/jdom"
)

// Kind identifies the concrete type of a Node.
type Kind byte

const (
	KindObject      Kind = iota + 1 // *Object
	KindArray                       // *Array
	KindConstructor                 // *Constructor
	KindProperty                    // *Property
	KindValue                       // *Value
	KindComment                     // *Comment
	KindRaw                         // *Raw
)

var kindStr = [...]string{
	KindObject:      "object",
	KindArray:       "array",
	KindConstructor: "constructor",
	KindProperty:    "property",
	KindValue:       "value",
	KindComment:     "comment",
	KindRaw:         "raw",
}

func (k Kind) String() string {
	if k == 0 || int(k) >= len(kindStr) {
		return "invalid"
	}
	return kindStr[k]
}

// A Node is an element of a document tree. The concrete type is one of
// *Object, *Array, *Constructor, *Property, *Value, *Comment, or *Raw.
type Node interface {
	// Kind reports the concrete type of the node.
	Kind() Kind

	// Parent returns the container of the node, or nil if it has none.
	Parent() Container

	// Line and Column report the position of the node in its source text.
	// They are zero if the node has no line information.
	Line() int
	Column() int

	// HasLineInfo reports whether the node has line information.
	HasLineInfo() bool

	// Path returns the JSON path of the node from the root of its tree.
	Path() string

	// Clone returns a deep copy of the node, without a parent.
	Clone() Node

	// Remove detaches the node from its parent.
	Remove() error

	// Replace puts n in the place of the node within its parent, and
	// detaches the node.
	Replace(n Node) error

	// String renders the node as compact JSON text.
	String() string

	base() *nodeBase
}

// A Container is a Node that has child nodes. The children of an Object are
// its properties (and comments); a Property has its value as its only child.
type Container interface {
	Node

	// Children returns the children of the container in order. The caller
	// must not modify the returned slice.
	Children() []Node

	// Len reports the number of children.
	Len() int

	// Add appends n to the children of the container.
	Add(n Node) error

	// Insert adds n at index i of the children, 0 ≤ i ≤ Len().
	Insert(i int, n Node) error

	// RemoveAt removes the child at index i.
	RemoveAt(i int) error

	// RemoveChild removes n if it is a child of the container, and reports
	// whether it did so.
	RemoveChild(n Node) bool

	// Clear removes all the children of the container.
	Clear()

	items() *[]Node
}

// nodeBase holds the fields common to all nodes.
type nodeBase struct {
	parent Container
	line   int
	col    int
}

func (b *nodeBase) base() *nodeBase { return b }

// Parent returns the container of the node, or nil.
func (b *nodeBase) Parent() Container { return b.parent }

// Line reports the line number of the node, or 0.
func (b *nodeBase) Line() int { return b.line }

// Column reports the column number of the node, or 0.
func (b *nodeBase) Column() int { return b.col }

// HasLineInfo reports whether the node has line information.
func (b *nodeBase) HasLineInfo() bool { return b.line > 0 }

// SetLineInfo sets the line and column of the node. A line of zero removes
// the line information.
func (b *nodeBase) SetLineInfo(line, col int) { b.line, b.col = max(line, 0), max(col, 0) }

var (
	errNoParent   = errors.New("node has no parent")
	errCycle      = errors.New("cannot add a node to itself or one of its descendants")
	errNilNode    = errors.New("node is nil")
	errPropertyIn = errors.New("a property can only be added to an object")
)

// pathOf renders the path of n from the root of its tree.
func pathOf(n Node) string {
	var chain []Node
	for cur := n; cur != nil; {
		chain = append(chain, cur)
		if p := cur.Parent(); p != nil {
			cur = p
		} else {
			cur = nil
		}
	}
	var sb strings.Builder
	for i := len(chain) - 2; i >= 0; i-- {
		switch par := chain[i+1].(type) {
		case *Object:
			if p, ok := chain[i].(*Property); ok {
				jdom.AppendPathName(&sb, p.name)
			}
		case *Array, *Constructor:
			jdom.AppendPathIndex(&sb, indexOf(par.(Container), chain[i]))
		}
	}
	return sb.String()
}

// indexOf returns the index of n among the children of c, or -1.
func indexOf(c Container, n Node) int {
	for i, child := range *c.items() {
		if child == n {
			return i
		}
	}
	return -1
}

// isAncestor reports whether n is c or an ancestor of c.
func isAncestor(n Node, c Container) bool {
	for cur := c; cur != nil; cur = cur.Parent() {
		if Node(cur) == n {
			return true
		}
	}
	return false
}

// adopt prepares n to become a child of c: a node that already has a parent
// is cloned, and a node that would make a cycle is rejected.
func adopt(c Container, n Node) (Node, error) {
	if n == nil {
		return nil, errNilNode
	} else if isAncestor(n, c) {
		return nil, errCycle
	}
	if n.Parent() != nil {
		n = n.Clone()
	}
	return n, nil
}

// checkChild reports an error if n may not be a child of c.
func checkChild(c Container, n Node) error {
	switch c.(type) {
	case *Object:
		if k := n.Kind(); k != KindProperty && k != KindComment {
			return errors.New("the children of an object must be properties or comments")
		}
	default:
		if n.Kind() == KindProperty {
			return errPropertyIn
		}
	}
	return nil
}

// insertChild adds n to c at index i.
func insertChild(c Container, i int, n Node) error {
	if n == nil {
		return errNilNode
	}
	if err := checkChild(c, n); err != nil {
		return err
	}
	items := c.items()
	if i < 0 || i > len(*items) {
		return errors.New("index out of range")
	}
	n, err := adopt(c, n)
	if err != nil {
		return err
	}
	n.base().parent = c
	*items = append(*items, nil)
	copy((*items)[i+1:], (*items)[i:])
	(*items)[i] = n
	return nil
}

// removeAt detaches the child at index i of c.
func removeAt(c Container, i int) error {
	items := c.items()
	if i < 0 || i >= len(*items) {
		return errors.New("index out of range")
	}
	(*items)[i].base().parent = nil
	*items = append((*items)[:i], (*items)[i+1:]...)
	return nil
}

// removeNode detaches n from its parent.
func removeNode(n Node) error {
	p := n.Parent()
	if p == nil {
		return errNoParent
	}
	if prop, ok := p.(*Property); ok {
		return prop.RemoveAt(0)
	}
	return removeAt(p, indexOf(p, n))
}

// replaceNode puts m in the place of n within the parent of n.
func replaceNode(n, m Node) error {
	p := n.Parent()
	if p == nil {
		return errNoParent
	} else if m == n {
		return nil
	}
	if prop, ok := p.(*Property); ok {
		return prop.SetValue(m)
	}
	if m == nil {
		return errNilNode
	} else if err := checkChild(p, m); err != nil {
		return err
	}
	m, err := adopt(p, m)
	if err != nil {
		return err
	}
	i := indexOf(p, n)
	n.base().parent = nil
	m.base().parent = p
	(*p.items())[i] = m
	return nil
}

// WrapInArray puts n inside a new array, which takes the place of n within
// its parent if it has one. It returns the new array.
func WrapInArray(n Node) *Array {
	arr := NewArray()
	p := n.Parent()
	if p == nil {
		n.base().parent = arr
		arr.elts = []Node{n}
		return arr
	}
	if prop, ok := p.(*Property); ok {
		prop.value.base().parent = arr
		arr.elts = []Node{prop.value}
		arr.parent = prop
		prop.value = arr
		return arr
	}
	i := indexOf(p, n)
	arr.parent = p
	(*p.items())[i] = arr
	n.base().parent = arr
	arr.elts = []Node{n}
	return arr
}
