// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package xtree

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/creachadair/jdom/xmlconv"
)

// A View is a parent-linked node over an xtree value. It implements the
// xmlconv node interfaces. Its child and attribute lists are computed on
// first use. The child list is memoized until a child is appended. The
// attribute list is memoized until the namespace scope of the view changes,
// by an attribute change on the view or an ancestor, or by attaching the
// view or an ancestor to a new parent.
type View struct {
	kind   xmlconv.NodeType
	parent *View

	name Name   // element or attribute name; a PI target is name.Local
	data string // text, attribute value, or PI data
	decl Declaration
	dt   DocType

	src      []Node  // element or document content not yet expanded
	kids     []*View // expanded content
	expanded bool
	attrs    []Attr // explicit attributes

	kidView  []xmlconv.Node // memoized ChildNodes
	attrView []xmlconv.Node // memoized Attributes, including implicit ones
	attrGen  uint64         // scopeClock when attrView was computed
	scopeGen uint64         // scopeClock at the last scope change at this view
}

// scopeClock orders changes to namespace scopes across all views.
var scopeClock atomic.Uint64

// touchScope records a change to the namespace scope of v, which is also
// the scope of its descendants.
func (v *View) touchScope() { v.scopeGen = scopeClock.Add(1) }

// lastScopeChange reports the latest scope change at v or an ancestor.
func (v *View) lastScopeChange() uint64 {
	var g uint64
	for e := v; e != nil; e = e.parent {
		g = max(g, e.scopeGen)
	}
	return g
}

var (
	_ xmlconv.Element      = (*View)(nil)
	_ xmlconv.Declaration  = (*View)(nil)
	_ xmlconv.DocumentType = (*View)(nil)
)

// ViewOf returns a detached view of e.
func ViewOf(e Element) *View {
	return &View{kind: xmlconv.ElementNode, name: e.Name, attrs: slices.Clip(e.Attr), src: e.Nodes}
}

// viewNode returns a view of a node value.
func viewNode(n Node) *View {
	switch t := n.(type) {
	case Element:
		return ViewOf(t)
	case Text:
		return &View{kind: xmlconv.TextNode, data: string(t)}
	case CData:
		return &View{kind: xmlconv.CDataNode, data: string(t)}
	case Comment:
		return &View{kind: xmlconv.CommentNode, data: string(t)}
	case ProcInst:
		return &View{kind: xmlconv.ProcInstNode, name: Name{Local: t.Target}, data: t.Data}
	case Declaration:
		return &View{kind: xmlconv.DeclarationNode, decl: t}
	case DocType:
		return &View{kind: xmlconv.DocTypeNode, dt: t}
	}
	panic(fmt.Sprintf("xtree: invalid node %T", n))
}

// Node returns the value of v, reflecting any changes made through the
// view. It returns nil for a document or an attribute.
func (v *View) Node() Node {
	switch v.kind {
	case xmlconv.ElementNode:
		return v.Element()
	case xmlconv.TextNode:
		return Text(v.data)
	case xmlconv.CDataNode:
		return CData(v.data)
	case xmlconv.CommentNode:
		return Comment(v.data)
	case xmlconv.ProcInstNode:
		return ProcInst{Target: v.name.Local, Data: v.data}
	case xmlconv.DeclarationNode:
		return v.decl
	case xmlconv.DocTypeNode:
		return v.dt
	}
	return nil
}

// Element returns the element value of v, reflecting any changes made
// through the view.
func (v *View) Element() Element {
	return Element{Name: v.name, Attr: slices.Clone(v.attrs), Nodes: v.content()}
}

func (v *View) content() []Node {
	if !v.expanded {
		return slices.Clone(v.src)
	}
	var out []Node
	for _, k := range v.kids {
		out = append(out, k.Node())
	}
	return out
}

// expand computes the child views of v, once.
func (v *View) expand() {
	if v.expanded {
		return
	}
	v.kids = make([]*View, len(v.src))
	for i, n := range v.src {
		k := viewNode(n)
		k.parent = v
		v.kids[i] = k
	}
	v.src, v.expanded = nil, true
}

// NodeType implements part of xmlconv.Node.
func (v *View) NodeType() xmlconv.NodeType { return v.kind }

// LocalName implements part of xmlconv.Node.
func (v *View) LocalName() string {
	switch v.kind {
	case xmlconv.ElementNode, xmlconv.AttributeNode, xmlconv.ProcInstNode:
		return v.name.Local
	case xmlconv.DeclarationNode:
		return "xml"
	case xmlconv.DocTypeNode:
		return "DOCTYPE"
	}
	return ""
}

// Prefix implements part of xmlconv.Node.
func (v *View) Prefix() string { return v.name.Prefix }

// NamespaceURI implements part of xmlconv.Node.
func (v *View) NamespaceURI() string { return v.name.Space }

// Value implements part of xmlconv.Node.
func (v *View) Value() string { return v.data }

// SetValue implements part of xmlconv.Node. Setting the value of an
// attribute view updates the element that owns it.
func (v *View) SetValue(s string) error {
	switch v.kind {
	case xmlconv.ElementNode, xmlconv.DocumentNode, xmlconv.DeclarationNode, xmlconv.DocTypeNode:
		return fmt.Errorf("cannot set the value of %v", v.kind)
	case xmlconv.AttributeNode:
		if p := v.parent; p != nil {
			i := p.attrIndex(v.name)
			if i < 0 {
				return errors.New("attribute is not set on its element")
			}
			p.attrs = slices.Clone(p.attrs)
			p.attrs[i].Value = s
			p.touchScope()
		}
	}
	v.data = s
	return nil
}

// Version, Encoding, and Standalone implement xmlconv.Declaration.
func (v *View) Version() string    { return v.decl.Version }
func (v *View) Encoding() string   { return v.decl.Encoding }
func (v *View) Standalone() string { return v.decl.Standalone }

// Name, Public, System, and InternalSubset implement xmlconv.DocumentType.
func (v *View) Name() string           { return v.dt.Name }
func (v *View) Public() string         { return v.dt.Public }
func (v *View) System() string         { return v.dt.System }
func (v *View) InternalSubset() string { return v.dt.Subset }

// ChildNodes implements part of xmlconv.Node.
func (v *View) ChildNodes() []xmlconv.Node {
	if v.kidView == nil {
		v.expand()
		if len(v.kids) == 0 {
			return nil
		}
		v.kidView = make([]xmlconv.Node, len(v.kids))
		for i, k := range v.kids {
			v.kidView[i] = k
		}
	}
	return v.kidView
}

// Attributes implements part of xmlconv.Node. For an element, the result
// includes a synthesized namespace declaration for each namespace its
// names use that is not declared in scope.
func (v *View) Attributes() []xmlconv.Node {
	if v.kind != xmlconv.ElementNode {
		return nil
	}
	if v.attrView != nil && v.lastScopeChange() > v.attrGen {
		v.attrView = nil
	}
	if v.attrView == nil {
		v.attrGen = scopeClock.Load()
		for _, a := range v.allAttrs() {
			v.attrView = append(v.attrView, &View{kind: xmlconv.AttributeNode, parent: v, name: a.Name, data: a.Value})
		}
	}
	return v.attrView
}

// allAttrs returns the explicit attributes of v, preceded by an implicit
// declaration for each name whose namespace is not in scope.
func (v *View) allAttrs() []Attr {
	var implicit []Attr
	need := func(n Name) {
		switch n.Space {
		case "", xmlconv.XMLNamespace, xmlconv.XMLNSNamespace:
			return
		}
		if uri, ok := v.lookupNamespace(n.Prefix); ok && uri == n.Space {
			return
		}
		for _, a := range implicit {
			if a.Name.Local == n.Prefix || (n.Prefix == "" && a.Name.Prefix == "") {
				return
			}
		}
		implicit = append(implicit, declaration(n.Prefix, n.Space))
	}
	need(v.name)
	for _, a := range v.attrs {
		if a.Name.Prefix != "" {
			need(a.Name)
		}
	}
	if len(implicit) == 0 {
		return v.attrs
	}
	return append(implicit, v.attrs...)
}

// declaration returns a namespace declaration attribute.
func declaration(prefix, uri string) Attr {
	if prefix == "" {
		return Attr{Name: Name{Space: xmlconv.XMLNSNamespace, Local: "xmlns"}, Value: uri}
	}
	return Attr{Name: Name{Space: xmlconv.XMLNSNamespace, Prefix: "xmlns", Local: prefix}, Value: uri}
}

// declares reports whether a declares prefix, and if so its namespace.
func declares(a Attr, prefix string) (string, bool) {
	if a.Name.Space != xmlconv.XMLNSNamespace {
		return "", false
	}
	if prefix == "" && a.Name.Prefix == "" && a.Name.Local == "xmlns" {
		return a.Value, true
	} else if prefix != "" && a.Name.Prefix == "xmlns" && a.Name.Local == prefix {
		return a.Value, true
	}
	return "", false
}

// lookupNamespace finds the namespace bound to prefix at v, from explicit
// declarations on v and its ancestors, and from the names of ancestors,
// which are implicitly declared where they are used.
func (v *View) lookupNamespace(prefix string) (string, bool) {
	for e := v; e != nil && e.kind == xmlconv.ElementNode; e = e.parent {
		for _, a := range e.attrs {
			if uri, ok := declares(a, prefix); ok {
				return uri, true
			}
		}
		if e != v && e.name.Prefix == prefix && e.name.Space != "" {
			return e.name.Space, true
		}
	}
	if prefix == "" {
		return "", true
	}
	return "", false
}

func (v *View) attrIndex(n Name) int {
	for i, a := range v.attrs {
		if a.Name.Local == n.Local && a.Name.Space == n.Space {
			return i
		}
	}
	return -1
}

// ParentNode implements part of xmlconv.Node.
func (v *View) ParentNode() xmlconv.Node {
	if v.parent == nil {
		return nil
	}
	return v.parent
}

// Parent returns the parent view of v, or nil.
func (v *View) Parent() *View { return v.parent }

func canContain(p, c xmlconv.NodeType) bool {
	switch c {
	case xmlconv.ElementNode, xmlconv.CommentNode, xmlconv.ProcInstNode:
		return p == xmlconv.ElementNode || p == xmlconv.DocumentNode
	case xmlconv.TextNode, xmlconv.CDataNode:
		return p == xmlconv.ElementNode
	case xmlconv.DeclarationNode, xmlconv.DocTypeNode:
		return p == xmlconv.DocumentNode
	}
	return false
}

// isSpaceIn reports whether c is whitespace text added to document v.
func isSpaceIn(v, c *View) bool {
	return v.kind == xmlconv.DocumentNode && c.kind == xmlconv.TextNode && strings.Trim(c.data, " \t\r\n") == ""
}

// AppendChild implements part of xmlconv.Node. The child must be a detached
// *View. The attribute lists of the child and its descendants are refreshed
// on next use, since their implicit declarations depend on the new parent.
func (v *View) AppendChild(child xmlconv.Node) (xmlconv.Node, error) {
	c, ok := child.(*View)
	switch {
	case !ok:
		return nil, fmt.Errorf("cannot add %T to an xtree view", child)
	case c.parent != nil:
		return nil, errors.New("node already has a parent")
	case !canContain(v.kind, c.kind) && !isSpaceIn(v, c):
		return nil, fmt.Errorf("cannot add %v to %v", c.kind, v.kind)
	}
	for p := v; p != nil; p = p.parent {
		if p == c {
			return nil, errors.New("cannot add a node to itself")
		}
	}
	v.expand()
	if v.kind == xmlconv.DocumentNode {
		for _, k := range v.kids {
			if k.kind == c.kind && (c.kind == xmlconv.ElementNode || c.kind == xmlconv.DocTypeNode || c.kind == xmlconv.DeclarationNode) {
				return nil, fmt.Errorf("document already has a %v", c.kind)
			}
		}
	}
	c.parent = v
	v.kids = append(v.kids, c)
	v.kidView = nil
	c.touchScope()
	return c, nil
}

// SetAttributeNode implements part of xmlconv.Element.
func (v *View) SetAttributeNode(attr xmlconv.Node) error {
	a, ok := attr.(*View)
	switch {
	case v.kind != xmlconv.ElementNode:
		return fmt.Errorf("cannot add an attribute to %v", v.kind)
	case !ok || a.kind != xmlconv.AttributeNode:
		return fmt.Errorf("cannot add %v as an attribute", attr.NodeType())
	}
	v.attrs = slices.Clone(v.attrs)
	if i := v.attrIndex(a.name); i >= 0 {
		v.attrs[i] = Attr{Name: a.name, Value: a.data}
	} else {
		v.attrs = append(v.attrs, Attr{Name: a.name, Value: a.data})
	}
	a.parent = v
	v.touchScope()
	return nil
}

// GetPrefixOfNamespace implements part of xmlconv.Element.
func (v *View) GetPrefixOfNamespace(uri string) string {
	for e := v; e != nil && e.kind == xmlconv.ElementNode; e = e.parent {
		for _, a := range e.attrs {
			if a.Name.Space == xmlconv.XMLNSNamespace && a.Name.Prefix == "xmlns" && a.Value == uri {
				return a.Name.Local
			}
		}
		if e.name.Prefix != "" && e.name.Space == uri {
			return e.name.Prefix
		}
	}
	return ""
}

// IsEmpty implements part of xmlconv.Element.
func (v *View) IsEmpty() bool {
	if v.kind != xmlconv.ElementNode {
		return false
	}
	if v.expanded {
		return len(v.kids) == 0
	}
	return len(v.src) == 0
}
