// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package tree

import (
	"io"
	"strings"

	"github.com/creachadair/jdom"
)

// A Reader is a jdom.TokenReader that reports the tokens of a tree. Paths
// and locations are taken from the nodes. The text of a Raw node is parsed,
// and its tokens are reported in place of the node.
type Reader struct {
	root    Node
	stack   []readFrame
	started bool

	cur readToken
	sub *subReader // tokens of a Raw node
}

type readFrame struct {
	c Container
	i int // index of the next child
}

type readToken struct {
	kind  jdom.TokenKind
	value any
	node  Node
	depth int
}

// subReader reads the tokens of a Raw node.
type subReader struct {
	*jdom.Reader
	raw   *Raw
	depth int
}

// NewReader constructs a Reader that reports the tokens of n.
func NewReader(n Node) *Reader { return &Reader{root: n} }

// Token returns the kind of the current token.
func (r *Reader) Token() jdom.TokenKind {
	if r.sub != nil {
		return r.sub.Token()
	}
	return r.cur.kind
}

// Value returns the value of the current token, with the types reported by
// jdom.Reader.
func (r *Reader) Value() any {
	if r.sub != nil {
		return r.sub.Value()
	}
	return r.cur.value
}

// Node returns the node of the current token, or nil. For the tokens of a
// Raw node, Node returns the Raw node.
func (r *Reader) Node() Node {
	if r.sub != nil {
		return r.sub.raw
	}
	return r.cur.node
}

// Path returns the path of the current token.
func (r *Reader) Path() string {
	if r.sub != nil {
		base, rel := r.sub.raw.Path(), r.sub.Path()
		if base == "" || rel == "" || rel[0] == '[' {
			return base + rel
		}
		return base + "." + rel
	}
	if r.cur.node == nil {
		return ""
	}
	return r.cur.node.Path()
}

// Location returns the line and column of the node of the current token,
// or zero if it has none.
func (r *Reader) Location() jdom.LineCol {
	n := r.Node()
	if n == nil || !n.HasLineInfo() {
		return jdom.LineCol{}
	}
	return jdom.LineCol{Line: n.Line(), Column: n.Column()}
}

// Depth reports the nesting depth of the current token.
func (r *Reader) Depth() int {
	if r.sub != nil {
		return r.sub.depth + r.sub.Depth()
	}
	return r.cur.depth
}

// Next advances r to the next token. It returns io.EOF after the last token.
func (r *Reader) Next() error {
	if r.sub != nil {
		err := r.sub.Next()
		if err == nil {
			return nil
		} else if err != io.EOF {
			return err
		}
		r.sub = nil
	}
	if !r.started {
		r.started = true
		if r.root == nil {
			return io.EOF
		}
		return r.emit(r.root)
	}
	for len(r.stack) != 0 {
		f := &r.stack[len(r.stack)-1]
		if kids := f.c.Children(); f.i < len(kids) {
			f.i++
			return r.emit(kids[f.i-1])
		}
		r.stack = r.stack[:len(r.stack)-1]
		var end jdom.TokenKind
		switch f.c.Kind() {
		case KindObject:
			end = jdom.EndObject
		case KindArray:
			end = jdom.EndArray
		case KindConstructor:
			end = jdom.EndConstructor
		default:
			continue // the end of a property has no token
		}
		r.cur = readToken{kind: end, node: f.c, depth: r.depth()}
		return nil
	}
	r.cur = readToken{}
	return io.EOF
}

// depth reports the number of open containers, not counting properties.
func (r *Reader) depth() int {
	var n int
	for _, f := range r.stack {
		if f.c.Kind() != KindProperty {
			n++
		}
	}
	return n
}

func (r *Reader) emit(n Node) error {
	d := r.depth()
	switch t := n.(type) {
	case *Object:
		r.cur = readToken{kind: jdom.StartObject, node: t, depth: d}
	case *Array:
		r.cur = readToken{kind: jdom.StartArray, node: t, depth: d}
	case *Constructor:
		r.cur = readToken{kind: jdom.StartConstructor, value: t.name, node: t, depth: d}
	case *Property:
		r.cur = readToken{kind: jdom.PropertyName, value: t.name, node: t, depth: d}
	case *Value:
		r.cur = readToken{kind: t.tok, value: t.v, node: t, depth: d}
		return nil
	case *Comment:
		r.cur = readToken{kind: jdom.Comment, value: t.text, node: t, depth: d}
		return nil
	case *Raw:
		rd := jdom.NewReader(strings.NewReader(t.text))
		rd.AllowMultipleValues(true)
		r.sub = &subReader{Reader: rd, raw: t, depth: d}
		if err := rd.Next(); err == io.EOF {
			r.sub = nil
			r.cur = readToken{node: t, depth: d}
			return jdom.Errorf(jdom.StructuralError, r, "raw node has no value")
		} else if err != nil {
			return err
		}
		return nil
	}
	r.stack = append(r.stack, readFrame{c: n.(Container)})
	return nil
}
