// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package xmldom

import (
	"strings"

	"github.com/creachadair/jdom/xmlconv"
)

// A Document is the root of an XML document tree. It implements
// xmlconv.Document, so the converter can build a document from JSON.
type Document struct {
	Node
}

var _ xmlconv.Document = (*Document)(nil)

// NewDocument constructs a new empty document.
func NewDocument() *Document {
	return &Document{Node: Node{kind: xmlconv.DocumentNode}}
}

// Root returns the root element of d, or nil.
func (d *Document) Root() *Node {
	for _, k := range d.kids {
		if k.kind == xmlconv.ElementNode {
			return k
		}
	}
	return nil
}

// DocumentElement implements part of xmlconv.Document.
func (d *Document) DocumentElement() xmlconv.Element {
	if r := d.Root(); r != nil {
		return r
	}
	return nil
}

// splitName separates a qualified name into prefix and local name.
func splitName(qname string) (prefix, local string) {
	if i := strings.IndexByte(qname, ':'); i > 0 && i < len(qname)-1 {
		return qname[:i], qname[i+1:]
	}
	return "", qname
}

// NewElement returns a new detached element. It has no content, and is
// written as an empty element until a child is added.
func (d *Document) NewElement(qname, uri string) *Node {
	prefix, local := splitName(qname)
	return &Node{kind: xmlconv.ElementNode, prefix: prefix, local: local, space: uri, empty: true}
}

// NewAttr returns a new detached attribute. The names "xmlns" and
// "xmlns:p" are always placed in the XMLNS namespace.
func (d *Document) NewAttr(qname, uri, value string) *Node {
	prefix, local := splitName(qname)
	if prefix == "xmlns" || (prefix == "" && local == "xmlns") {
		uri = xmlconv.XMLNSNamespace
	}
	return &Node{kind: xmlconv.AttributeNode, prefix: prefix, local: local, space: uri, data: value}
}

// NewText returns a new detached node of type t with the given text. The
// type should be a text, CDATA, comment, or whitespace type.
func (d *Document) NewText(t xmlconv.NodeType, text string) *Node {
	return &Node{kind: t, data: text}
}

// CreateElement implements part of xmlconv.Document.
func (d *Document) CreateElement(qname, uri string) xmlconv.Element { return d.NewElement(qname, uri) }

// CreateAttribute implements part of xmlconv.Document.
func (d *Document) CreateAttribute(qname, uri, value string) xmlconv.Node {
	return d.NewAttr(qname, uri, value)
}

// CreateTextNode implements part of xmlconv.Document.
func (d *Document) CreateTextNode(text string) xmlconv.Node {
	return d.NewText(xmlconv.TextNode, text)
}

// CreateCDataSection implements part of xmlconv.Document.
func (d *Document) CreateCDataSection(data string) xmlconv.Node {
	return d.NewText(xmlconv.CDataNode, data)
}

// CreateComment implements part of xmlconv.Document.
func (d *Document) CreateComment(text string) xmlconv.Node {
	return d.NewText(xmlconv.CommentNode, text)
}

// CreateWhitespace implements part of xmlconv.Document.
func (d *Document) CreateWhitespace(text string) xmlconv.Node {
	return d.NewText(xmlconv.WhitespaceNode, text)
}

// CreateSignificantWhitespace implements part of xmlconv.Document.
func (d *Document) CreateSignificantWhitespace(text string) xmlconv.Node {
	return d.NewText(xmlconv.SignificantWhitespaceNode, text)
}

// CreateProcessingInstruction implements part of xmlconv.Document.
func (d *Document) CreateProcessingInstruction(target, data string) xmlconv.Node {
	return &Node{kind: xmlconv.ProcInstNode, local: target, data: data}
}

// CreateDeclaration implements part of xmlconv.Document.
func (d *Document) CreateDeclaration(version, encoding, standalone string) xmlconv.Node {
	return &Node{kind: xmlconv.DeclarationNode, f1: version, f2: encoding, f3: standalone}
}

// CreateDocumentType implements part of xmlconv.Document.
func (d *Document) CreateDocumentType(name, publicID, systemID, subset string) xmlconv.Node {
	return &Node{kind: xmlconv.DocTypeNode, local: name, f1: publicID, f2: systemID, f3: subset}
}
