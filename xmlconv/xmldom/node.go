// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package xmldom implements a mutable XML document object model that
// satisfies the node interfaces of package xmlconv.
//
// Every node is a *Node, discriminated by its NodeType. A *Document is the
// root of a tree and the factory for its nodes. Nodes are not safe for
// concurrent use.
package xmldom

import (
	"errors"
	"fmt"

	"github.com/creachadair/jdom/xmlconv"
)

// A Node is a node in an XML document.
type Node struct {
	kind xmlconv.NodeType

	// The name of an element or attribute. A processing instruction keeps
	// its target in local, and a document type its name.
	prefix, local, space string

	// The text of a text-like node, the value of an attribute, or the
	// instruction of a processing instruction.
	data string

	// Declaration fields: version, encoding, standalone.
	// Document type fields: public ID, system ID, internal subset.
	f1, f2, f3 string

	parent *Node
	kids   []*Node
	attrs  []*Node
	empty  bool // an element written, or created, as an empty element

	kidView  []xmlconv.Node // cached ChildNodes
	attrView []xmlconv.Node // cached Attributes
}

var (
	_ xmlconv.Element      = (*Node)(nil)
	_ xmlconv.Declaration  = (*Node)(nil)
	_ xmlconv.DocumentType = (*Node)(nil)
)

// NodeType implements part of xmlconv.Node.
func (n *Node) NodeType() xmlconv.NodeType { return n.kind }

// LocalName implements part of xmlconv.Node.
func (n *Node) LocalName() string {
	switch n.kind {
	case xmlconv.ElementNode, xmlconv.AttributeNode, xmlconv.ProcInstNode:
		return n.local
	case xmlconv.DeclarationNode:
		return "xml"
	case xmlconv.DocTypeNode:
		return "DOCTYPE"
	}
	return ""
}

// Prefix implements part of xmlconv.Node.
func (n *Node) Prefix() string { return n.prefix }

// NamespaceURI implements part of xmlconv.Node.
func (n *Node) NamespaceURI() string { return n.space }

// QName returns the qualified name of an element or attribute.
func (n *Node) QName() string {
	if n.prefix == "" {
		return n.local
	}
	return n.prefix + ":" + n.local
}

func hasValue(t xmlconv.NodeType) bool {
	switch t {
	case xmlconv.ElementNode, xmlconv.DocumentNode, xmlconv.DeclarationNode, xmlconv.DocTypeNode:
		return false
	}
	return true
}

// Value implements part of xmlconv.Node.
func (n *Node) Value() string {
	if !hasValue(n.kind) {
		return ""
	}
	return n.data
}

// SetValue implements part of xmlconv.Node.
func (n *Node) SetValue(s string) error {
	if !hasValue(n.kind) {
		return fmt.Errorf("cannot set the value of %v", n.kind)
	}
	n.data = s
	return nil
}

// Version, Encoding, and Standalone implement xmlconv.Declaration.
func (n *Node) Version() string    { return n.field(xmlconv.DeclarationNode, n.f1) }
func (n *Node) Encoding() string   { return n.field(xmlconv.DeclarationNode, n.f2) }
func (n *Node) Standalone() string { return n.field(xmlconv.DeclarationNode, n.f3) }

// Name, Public, System, and InternalSubset implement xmlconv.DocumentType.
func (n *Node) Name() string           { return n.field(xmlconv.DocTypeNode, n.local) }
func (n *Node) Public() string         { return n.field(xmlconv.DocTypeNode, n.f1) }
func (n *Node) System() string         { return n.field(xmlconv.DocTypeNode, n.f2) }
func (n *Node) InternalSubset() string { return n.field(xmlconv.DocTypeNode, n.f3) }

func (n *Node) field(t xmlconv.NodeType, s string) string {
	if n.kind != t {
		return ""
	}
	return s
}

// ChildNodes implements part of xmlconv.Node. The result is cached until
// the children of n change.
func (n *Node) ChildNodes() []xmlconv.Node {
	if n.kidView == nil && len(n.kids) != 0 {
		n.kidView = make([]xmlconv.Node, len(n.kids))
		for i, k := range n.kids {
			n.kidView[i] = k
		}
	}
	return n.kidView
}

// Attributes implements part of xmlconv.Node. The result is cached until
// the attributes of n change.
func (n *Node) Attributes() []xmlconv.Node {
	if n.attrView == nil && len(n.attrs) != 0 {
		n.attrView = make([]xmlconv.Node, len(n.attrs))
		for i, a := range n.attrs {
			n.attrView[i] = a
		}
	}
	return n.attrView
}

// ParentNode implements part of xmlconv.Node.
func (n *Node) ParentNode() xmlconv.Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

// Parent returns the parent of n, or nil. The parent of an attribute is
// its element.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the children of n. The caller must not modify the slice.
func (n *Node) Children() []*Node { return n.kids }

// Attrs returns the attributes of n. The caller must not modify the slice.
func (n *Node) Attrs() []*Node { return n.attrs }

// Attr returns the value of the attribute of n with the given namespace
// and local name, and reports whether it exists.
func (n *Node) Attr(space, local string) (string, bool) {
	for _, a := range n.attrs {
		if a.local == local && a.space == space {
			return a.data, true
		}
	}
	return "", false
}

// IsEmpty implements part of xmlconv.Element. An element is empty if it
// has no children and was not written with a separate end tag.
func (n *Node) IsEmpty() bool {
	return n.kind == xmlconv.ElementNode && len(n.kids) == 0 && n.empty
}

// canContain reports whether a node of type c may be a child of a node of
// type p.
func canContain(p, c xmlconv.NodeType) bool {
	switch c {
	case xmlconv.ElementNode, xmlconv.CommentNode, xmlconv.ProcInstNode:
		return p == xmlconv.ElementNode || p == xmlconv.DocumentNode
	case xmlconv.TextNode, xmlconv.CDataNode, xmlconv.SignificantWhitespaceNode:
		return p == xmlconv.ElementNode
	case xmlconv.WhitespaceNode:
		return p == xmlconv.ElementNode || p == xmlconv.DocumentNode
	case xmlconv.DeclarationNode, xmlconv.DocTypeNode:
		return p == xmlconv.DocumentNode
	}
	return false
}

// Append adds c as the last child of n.
func (n *Node) Append(c *Node) error {
	switch {
	case c.parent != nil:
		return errors.New("node already has a parent")
	case !canContain(n.kind, c.kind):
		return fmt.Errorf("cannot add %v to %v", c.kind, n.kind)
	}
	for p := n; p != nil; p = p.parent {
		if p == c {
			return errors.New("cannot add a node to itself")
		}
	}
	if n.kind == xmlconv.DocumentNode {
		if err := checkDocumentChild(n, c); err != nil {
			return err
		}
	}
	c.parent = n
	n.kids = append(n.kids, c)
	n.kidView = nil
	n.empty = false
	return nil
}

// checkDocumentChild enforces the prolog rules: one declaration, first;
// one document type and one root element.
func checkDocumentChild(doc, c *Node) error {
	for _, k := range doc.kids {
		switch {
		case c.kind == xmlconv.DeclarationNode:
			return errors.New("XML declaration must be the first node")
		case k.kind == c.kind && (c.kind == xmlconv.ElementNode || c.kind == xmlconv.DocTypeNode):
			return fmt.Errorf("document already has a %v", c.kind)
		case k.kind == xmlconv.ElementNode && c.kind == xmlconv.DocTypeNode:
			return errors.New("document type must precede the root element")
		}
	}
	return nil
}

// AppendChild implements part of xmlconv.Node. The child must be a *Node.
func (n *Node) AppendChild(child xmlconv.Node) (xmlconv.Node, error) {
	c, ok := child.(*Node)
	if !ok {
		return nil, fmt.Errorf("cannot add %T to an xmldom node", child)
	}
	if err := n.Append(c); err != nil {
		return nil, err
	}
	return c, nil
}

// SetAttr adds an attribute to n, replacing any attribute with the same
// namespace and local name.
func (n *Node) SetAttr(a *Node) error {
	switch {
	case n.kind != xmlconv.ElementNode:
		return fmt.Errorf("cannot add an attribute to %v", n.kind)
	case a.kind != xmlconv.AttributeNode:
		return fmt.Errorf("cannot add %v as an attribute", a.kind)
	case a.parent != nil && a.parent != n:
		return errors.New("attribute already belongs to an element")
	}
	a.parent = n
	n.attrView = nil
	for i, old := range n.attrs {
		if old.local == a.local && old.space == a.space {
			old.parent = nil
			n.attrs[i] = a
			return nil
		}
	}
	n.attrs = append(n.attrs, a)
	return nil
}

// SetAttributeNode implements part of xmlconv.Element.
func (n *Node) SetAttributeNode(attr xmlconv.Node) error {
	a, ok := attr.(*Node)
	if !ok {
		return fmt.Errorf("cannot add %T to an xmldom element", attr)
	}
	return n.SetAttr(a)
}

// GetPrefixOfNamespace implements part of xmlconv.Element.
func (n *Node) GetPrefixOfNamespace(uri string) string {
	for e := n; e != nil && e.kind == xmlconv.ElementNode; e = e.parent {
		if e.prefix != "" && e.space == uri {
			return e.prefix
		}
		for _, a := range e.attrs {
			if a.space == xmlconv.XMLNSNamespace && a.prefix == "xmlns" && a.data == uri {
				return a.local
			}
		}
	}
	return ""
}

// Remove detaches n from its parent, if it has one.
func (n *Node) Remove() {
	p := n.parent
	if p == nil {
		return
	}
	n.parent = nil
	if n.kind == xmlconv.AttributeNode {
		p.attrs = removeNode(p.attrs, n)
		p.attrView = nil
	} else {
		p.kids = removeNode(p.kids, n)
		p.kidView = nil
	}
}

func removeNode(ns []*Node, n *Node) []*Node {
	for i, c := range ns {
		if c == n {
			return append(ns[:i], ns[i+1:]...)
		}
	}
	return ns
}
