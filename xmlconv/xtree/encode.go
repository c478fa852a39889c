// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package xtree

import (
	"fmt"
	"io"
	"strings"

	"github.com/creachadair/jdom/xmlconv/internal/xmltext"
)

// Encode writes the XML text of d to w. A namespace used by a name and not
// declared in scope is declared on the element that uses it.
func Encode(w io.Writer, d Document) error {
	p := xmltext.NewPrinter(w)
	for _, n := range d.Nodes {
		encodeNode(p, n)
	}
	return p.Flush()
}

// EncodeElement writes the XML text of e to w.
func EncodeElement(w io.Writer, e Element) error {
	p := xmltext.NewPrinter(w)
	encodeNode(p, e)
	return p.Flush()
}

// String renders e as XML text.
func (e Element) String() string {
	var sb strings.Builder
	if err := EncodeElement(&sb, e); err != nil {
		return fmt.Sprintf("<!-- invalid: %v -->", err)
	}
	return sb.String()
}

func encodeNode(p *xmltext.Printer, n Node) {
	switch t := n.(type) {
	case Element:
		attrs := make([]xmltext.Attr, len(t.Attr))
		for i, a := range t.Attr {
			attrs[i] = xmltext.Attr{Name: xmltext.Name(a.Name), Value: a.Value}
		}
		p.StartElement(xmltext.Name(t.Name), attrs)
		for _, c := range t.Nodes {
			encodeNode(p, c)
		}
		p.EndElement(len(t.Nodes) == 0)
	case Text:
		p.Text(string(t))
	case CData:
		p.CData(string(t))
	case Comment:
		p.Comment(string(t))
	case ProcInst:
		p.ProcInst(t.Target, t.Data)
	case Declaration:
		p.Declaration(t.Version, t.Encoding, t.Standalone)
	case DocType:
		p.DocType(xmltext.DocType(t))
	}
}
