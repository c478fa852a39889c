// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package xtree

import (
	"slices"

	"github.com/creachadair/jdom/xmlconv"
)

// A DocumentView is a view of a Document. It is also the factory for new
// detached views, so the converter can build a document from JSON.
type DocumentView struct {
	View
}

var _ xmlconv.Document = (*DocumentView)(nil)

// ViewDocument returns a view of d.
func ViewDocument(d Document) *DocumentView {
	return &DocumentView{View: View{kind: xmlconv.DocumentNode, src: slices.Clip(d.Nodes)}}
}

// Document returns the document value of v, reflecting any changes made
// through the view.
func (v *DocumentView) Document() Document { return Document{Nodes: v.content()} }

// DocumentElement implements part of xmlconv.Document.
func (v *DocumentView) DocumentElement() xmlconv.Element {
	v.expand()
	for _, k := range v.kids {
		if k.kind == xmlconv.ElementNode {
			return k
		}
	}
	return nil
}

func qname(s, uri string) Name {
	n := ParseName(s)
	n.Space = uri
	return n
}

// CreateElement implements part of xmlconv.Document.
func (v *DocumentView) CreateElement(name, uri string) xmlconv.Element {
	return &View{kind: xmlconv.ElementNode, name: qname(name, uri)}
}

// CreateAttribute implements part of xmlconv.Document.
func (v *DocumentView) CreateAttribute(name, uri, value string) xmlconv.Node {
	n := qname(name, uri)
	if n.Prefix == "xmlns" || (n.Prefix == "" && n.Local == "xmlns") {
		n.Space = xmlconv.XMLNSNamespace
	}
	return &View{kind: xmlconv.AttributeNode, name: n, data: value}
}

// CreateTextNode implements part of xmlconv.Document.
func (v *DocumentView) CreateTextNode(text string) xmlconv.Node { return viewNode(Text(text)) }

// CreateCDataSection implements part of xmlconv.Document.
func (v *DocumentView) CreateCDataSection(data string) xmlconv.Node { return viewNode(CData(data)) }

// CreateComment implements part of xmlconv.Document.
func (v *DocumentView) CreateComment(text string) xmlconv.Node { return viewNode(Comment(text)) }

// CreateWhitespace implements part of xmlconv.Document. Whitespace is
// represented as text.
func (v *DocumentView) CreateWhitespace(text string) xmlconv.Node { return viewNode(Text(text)) }

// CreateSignificantWhitespace implements part of xmlconv.Document.
// Whitespace is represented as text.
func (v *DocumentView) CreateSignificantWhitespace(text string) xmlconv.Node {
	return viewNode(Text(text))
}

// CreateProcessingInstruction implements part of xmlconv.Document.
func (v *DocumentView) CreateProcessingInstruction(target, data string) xmlconv.Node {
	return viewNode(ProcInst{Target: target, Data: data})
}

// CreateDeclaration implements part of xmlconv.Document.
func (v *DocumentView) CreateDeclaration(version, encoding, standalone string) xmlconv.Node {
	return viewNode(Declaration{Version: version, Encoding: encoding, Standalone: standalone})
}

// CreateDocumentType implements part of xmlconv.Document.
func (v *DocumentView) CreateDocumentType(name, publicID, systemID, subset string) xmlconv.Node {
	return viewNode(DocType{Name: name, Public: publicID, System: systemID, Subset: subset})
}
