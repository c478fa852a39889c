// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package xtree

import (
	"io"

	"github.com/creachadair/jdom/xmlconv"
	"github.com/creachadair/jdom/xmlconv/internal/xmltext"
)

// Parse parses a complete XML document from r. Whitespace-only text is
// discarded, except inside an xml:space="preserve" scope. An element
// written with separate start and end tags and no content gets a single
// empty Text node.
func Parse(r io.Reader) (Document, error) {
	s, err := xmltext.NewScanner(r, nil)
	if err != nil {
		return Document{}, err
	}

	type frame struct {
		elt   Element
		empty bool
	}
	var doc Document
	var stk []*frame
	add := func(n Node) {
		if len(stk) == 0 {
			doc.Nodes = append(doc.Nodes, n)
		} else {
			top := stk[len(stk)-1]
			top.elt.Nodes = append(top.elt.Nodes, n)
		}
	}
	for {
		tok, err := s.Next()
		if err == io.EOF {
			return doc, nil
		} else if err != nil {
			return Document{}, err
		}
		switch tok.Type {
		case xmlconv.ElementNode:
			if !tok.End {
				f := &frame{elt: Element{Name: Name(tok.Name)}, empty: tok.Empty}
				for _, a := range tok.Attr {
					f.elt.Attr = append(f.elt.Attr, Attr{Name: Name(a.Name), Value: a.Value})
				}
				stk = append(stk, f)
				continue
			}
			top := stk[len(stk)-1]
			stk = stk[:len(stk)-1]
			if len(top.elt.Nodes) == 0 && !top.empty {
				top.elt.Nodes = []Node{Text("")}
			}
			add(top.elt)
		case xmlconv.TextNode, xmlconv.WhitespaceNode, xmlconv.SignificantWhitespaceNode:
			add(Text(tok.Data))
		case xmlconv.CDataNode:
			add(CData(tok.Data))
		case xmlconv.CommentNode:
			add(Comment(tok.Data))
		case xmlconv.ProcInstNode:
			add(ProcInst{Target: tok.Name.Local, Data: tok.Data})
		case xmlconv.DeclarationNode:
			add(Declaration{Version: tok.Version, Encoding: tok.Encoding, Standalone: tok.Standalone})
		case xmlconv.DocTypeNode:
			add(DocType(tok.DocType))
		}
	}
}
