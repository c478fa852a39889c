// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package xmldom

import (
	"fmt"
	"io"
	"strings"

	"github.com/creachadair/jdom/xmlconv"
	"github.com/creachadair/jdom/xmlconv/internal/xmltext"
)

// WriteTo writes the XML text of n and its descendants to w. Namespaces
// used by names but not declared in the written text are declared where
// they are first used.
func (n *Node) WriteTo(w io.Writer) (int64, error) {
	cw := &countWriter{w: w}
	p := xmltext.NewPrinter(cw)
	writeNode(p, n)
	err := p.Flush()
	return cw.n, err
}

// String renders n as XML text. If n cannot be written, the result
// describes the error.
func (n *Node) String() string {
	var sb strings.Builder
	if _, err := n.WriteTo(&sb); err != nil {
		return fmt.Sprintf("<!-- invalid: %v -->", err)
	}
	return sb.String()
}

func name(n *Node) xmltext.Name {
	return xmltext.Name{Prefix: n.prefix, Local: n.local, Space: n.space}
}

func writeNode(p *xmltext.Printer, n *Node) {
	switch n.kind {
	case xmlconv.DocumentNode:
		for _, k := range n.kids {
			writeNode(p, k)
		}
	case xmlconv.ElementNode:
		attrs := make([]xmltext.Attr, len(n.attrs))
		for i, a := range n.attrs {
			attrs[i] = xmltext.Attr{Name: name(a), Value: a.data}
		}
		p.StartElement(name(n), attrs)
		for _, k := range n.kids {
			writeNode(p, k)
		}
		p.EndElement(n.empty)
	case xmlconv.TextNode, xmlconv.WhitespaceNode, xmlconv.SignificantWhitespaceNode:
		p.Text(n.data)
	case xmlconv.CDataNode:
		p.CData(n.data)
	case xmlconv.CommentNode:
		p.Comment(n.data)
	case xmlconv.ProcInstNode:
		p.ProcInst(n.local, n.data)
	case xmlconv.DeclarationNode:
		p.Declaration(n.f1, n.f2, n.f3)
	case xmlconv.DocTypeNode:
		p.DocType(xmltext.DocType{Name: n.local, Public: n.f1, System: n.f2, Subset: n.f3})
	case xmlconv.AttributeNode:
		p.Text(n.data)
	}
}

type countWriter struct {
	w io.Writer
	n int64
}

func (c *countWriter) Write(data []byte) (int, error) {
	nw, err := c.w.Write(data)
	c.n += int64(nw)
	return nw, err
}
