// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package xmldom

import (
	"io"

	"github.com/creachadair/jdom/xmlconv"
	"github.com/creachadair/jdom/xmlconv/internal/xmltext"
)

// ParseOptions control how XML text is parsed. A nil *ParseOptions
// provides defaults.
type ParseOptions struct {
	// PreserveWhitespace keeps whitespace-only text as whitespace nodes.
	// Whitespace inside an xml:space="preserve" scope is always kept.
	PreserveWhitespace bool
}

// Parse parses a complete XML document from r. Prefixes, CDATA sections,
// and empty-element tags are recorded as written.
func Parse(r io.Reader, opts *ParseOptions) (*Document, error) {
	var sopts xmltext.ScanOptions
	if opts != nil {
		sopts.PreserveWhitespace = opts.PreserveWhitespace
	}
	s, err := xmltext.NewScanner(r, &sopts)
	if err != nil {
		return nil, err
	}

	doc := NewDocument()
	cur := &doc.Node
	for {
		tok, err := s.Next()
		if err == io.EOF {
			return doc, nil
		} else if err != nil {
			return nil, err
		}

		var n *Node
		switch tok.Type {
		case xmlconv.ElementNode:
			if tok.End {
				cur = cur.parent
				continue
			}
			n = &Node{
				kind:   xmlconv.ElementNode,
				prefix: tok.Name.Prefix,
				local:  tok.Name.Local,
				space:  tok.Name.Space,
				empty:  tok.Empty,
			}
			for _, a := range tok.Attr {
				n.attrs = append(n.attrs, &Node{
					kind:   xmlconv.AttributeNode,
					prefix: a.Name.Prefix,
					local:  a.Name.Local,
					space:  a.Name.Space,
					data:   a.Value,
					parent: n,
				})
			}
		case xmlconv.ProcInstNode:
			n = &Node{kind: tok.Type, local: tok.Name.Local, data: tok.Data}
		case xmlconv.DeclarationNode:
			n = &Node{kind: tok.Type, f1: tok.Version, f2: tok.Encoding, f3: tok.Standalone}
		case xmlconv.DocTypeNode:
			dt := tok.DocType
			n = &Node{kind: tok.Type, local: dt.Name, f1: dt.Public, f2: dt.System, f3: dt.Subset}
		default:
			n = &Node{kind: tok.Type, data: tok.Data}
		}
		if err := cur.Append(n); err != nil {
			return nil, err
		}
		if n.kind == xmlconv.ElementNode {
			cur = n
		}
	}
}
