// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package xtree implements XML documents as immutable values, with
// parent-linked views that satisfy the node interfaces of package xmlconv.
//
// Values are plain structs and strings, and are never modified once built.
// To convert a value, wrap it with ViewOf or ViewDocument. A view computes
// its children and attributes on demand and memoizes them. Changes made
// through a view, for example by the converter, do not affect the value it
// wraps; use the Element or Document method of the view to obtain the
// result.
//
// Whitespace is represented as text, so whitespace nodes convert to JSON
// as "#text".
package xtree

import (
	"fmt"
	"strings"
)

// A Name is an XML name. Space is the namespace URI. Prefix is the prefix
// preferred when the name is written, and may be empty.
type Name struct {
	Space, Prefix, Local string
}

// ParseName parses a name of the form "local", "prefix:local", or, with a
// namespace, "{uri}local" or "{uri}prefix:local".
func ParseName(s string) Name {
	var n Name
	if rest, ok := strings.CutPrefix(s, "{"); ok {
		if i := strings.IndexByte(rest, '}'); i >= 0 {
			n.Space, s = rest[:i], rest[i+1:]
		}
	}
	if i := strings.IndexByte(s, ':'); i > 0 && i < len(s)-1 {
		n.Prefix, s = s[:i], s[i+1:]
	}
	n.Local = s
	return n
}

func (n Name) String() string {
	q := n.Local
	if n.Prefix != "" {
		q = n.Prefix + ":" + q
	}
	if n.Space != "" {
		return "{" + n.Space + "}" + q
	}
	return q
}

// An Attr is an attribute.
type Attr struct {
	Name  Name
	Value string
}

// NewAttr returns an attribute with the given name, in the syntax of
// ParseName, and value.
func NewAttr(name, value string) Attr { return Attr{Name: ParseName(name), Value: value} }

// A Node is an XML node value: an Element, Text, CData, Comment, ProcInst,
// Declaration, or DocType.
type Node interface {
	isNode()
}

// An Element is an element. An element with no nodes is empty; an element
// whose content is empty text has a single empty Text node.
type Element struct {
	Name  Name
	Attr  []Attr
	Nodes []Node
}

// Text is character data.
type Text string

// CData is a CDATA section.
type CData string

// Comment is a comment.
type Comment string

// ProcInst is a processing instruction.
type ProcInst struct {
	Target, Data string
}

// Declaration is an XML declaration.
type Declaration struct {
	Version, Encoding, Standalone string
}

// DocType is a document type declaration.
type DocType struct {
	Name, Public, System, Subset string
}

func (Element) isNode()     {}
func (Text) isNode()        {}
func (CData) isNode()       {}
func (Comment) isNode()     {}
func (ProcInst) isNode()    {}
func (Declaration) isNode() {}
func (DocType) isNode()     {}

// A Document is a sequence of top-level nodes, of which at most one is an
// element.
type Document struct {
	Nodes []Node
}

// Root returns the root element of d, and reports whether there is one.
func (d Document) Root() (Element, bool) {
	for _, n := range d.Nodes {
		if e, ok := n.(Element); ok {
			return e, true
		}
	}
	return Element{}, false
}

// Elem constructs an element. The name has the syntax of ParseName. Each
// content item must be an Attr, a Node, a string (added as Text), or a
// slice of those; any other type panics.
func Elem(name string, content ...any) Element {
	e := Element{Name: ParseName(name)}
	for _, c := range content {
		e.add(c)
	}
	return e
}

func (e *Element) add(c any) {
	switch t := c.(type) {
	case Attr:
		e.Attr = append(e.Attr, t)
	case []Attr:
		e.Attr = append(e.Attr, t...)
	case Node:
		e.Nodes = append(e.Nodes, t)
	case []Node:
		e.Nodes = append(e.Nodes, t...)
	case string:
		e.Nodes = append(e.Nodes, Text(t))
	default:
		panic(fmt.Sprintf("xtree: invalid element content %T", c))
	}
}

// Doc constructs a document with the given nodes.
func Doc(nodes ...Node) Document { return Document{Nodes: nodes} }

// Get returns the value of the attribute of e with the given name, in the
// syntax of ParseName, and reports whether it exists. The prefix of the
// name is not compared.
func (e Element) Get(name string) (string, bool) {
	n := ParseName(name)
	for _, a := range e.Attr {
		if a.Name.Local == n.Local && a.Name.Space == n.Space {
			return a.Value, true
		}
	}
	return "", false
}

// Elements returns the child elements of e with the given local name, or
// all child elements if local == "".
func (e Element) Elements(local string) []Element {
	var out []Element
	for _, n := range e.Nodes {
		if c, ok := n.(Element); ok && (local == "" || c.Name.Local == local) {
			out = append(out, c)
		}
	}
	return out
}

// Text returns the concatenated text and CDATA content of e and its
// descendants.
func (e Element) Text() string {
	var sb strings.Builder
	var walk func([]Node)
	walk = func(ns []Node) {
		for _, n := range ns {
			switch t := n.(type) {
			case Text:
				sb.WriteString(string(t))
			case CData:
				sb.WriteString(string(t))
			case Element:
				walk(t.Nodes)
			}
		}
	}
	walk(e.Nodes)
	return sb.String()
}
