// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package xmltext

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/creachadair/jdom/xmlconv"
)

// A Name is a resolved XML name. Prefix is the prefix as written in the
// input, and Space is the namespace it is bound to.
type Name struct {
	Space, Prefix, Local string
}

// Qualified renders the name as written, "prefix:local" or "local".
func (n Name) Qualified() string {
	if n.Prefix == "" {
		return n.Local
	}
	return n.Prefix + ":" + n.Local
}

// An Attr is a resolved attribute.
type Attr struct {
	Name  Name
	Value string
}

// A Token is a single unit of XML reported by a Scanner.
type Token struct {
	Type xmlconv.NodeType

	// For ElementNode, End reports whether the token ends the element
	// rather than starting it, and Empty reports whether the element was
	// written as an empty-element tag.
	End   bool
	Empty bool

	Name Name   // element name, or processing instruction target
	Attr []Attr // element attributes, in input order

	// Data is the content of text, CDATA, comment, whitespace, and
	// processing instruction tokens.
	Data string

	// Declaration fields, for DeclarationNode.
	Version, Encoding, Standalone string

	// DocType is set for DocTypeNode.
	DocType DocType
}

// ScanOptions control a Scanner. A nil *ScanOptions provides defaults.
type ScanOptions struct {
	// PreserveWhitespace reports whitespace-only text outside an
	// xml:space="preserve" scope as WhitespaceNode tokens. Otherwise it is
	// discarded. Inside such a scope it is always reported, as
	// SignificantWhitespaceNode.
	PreserveWhitespace bool
}

// A Scanner reads tokens from XML text, resolving namespaces and checking
// that elements are balanced.
type Scanner struct {
	data  []byte
	dec   *xml.Decoder
	ns    *xmlconv.NamespaceManager
	open  []xml.Name // raw names of open elements
	space []bool     // xml:space="preserve" per open element
	root  bool       // a root element has been seen
	opts  ScanOptions
	err   error
}

// NewScanner reads all of r and returns a Scanner for its content.
func NewScanner(r io.Reader, opts *ScanOptions) (*Scanner, error) {
	data, err := ReadAll(r)
	if err != nil {
		return nil, err
	}
	s := &Scanner{data: data, dec: NewDecoder(data), ns: xmlconv.NewNamespaceManager()}
	if opts != nil {
		s.opts = *opts
	}
	return s, nil
}

func (s *Scanner) errorf(msg string, args ...any) error {
	line, _ := s.dec.InputPos()
	return &xml.SyntaxError{Msg: fmt.Sprintf(msg, args...), Line: line}
}

// Next returns the next token. At the end of the input it returns io.EOF.
// Errors are terminal.
func (s *Scanner) Next() (Token, error) {
	if s.err != nil {
		return Token{}, s.err
	}
	tok, err := s.next()
	if err != nil {
		s.err = err
	}
	return tok, err
}

func (s *Scanner) next() (Token, error) {
	for {
		start := s.dec.InputOffset()
		raw, err := s.dec.RawToken()
		if err == io.EOF {
			if len(s.open) != 0 {
				return Token{}, s.errorf("unexpected EOF: element <%s> is not closed", rawName(s.open[len(s.open)-1]))
			} else if !s.root {
				return Token{}, s.errorf("missing root element")
			}
			return Token{}, io.EOF
		} else if err != nil {
			return Token{}, err
		}
		src := s.data[start:s.dec.InputOffset()]

		switch t := raw.(type) {
		case xml.StartElement:
			return s.startElement(t, bytes.HasSuffix(src, []byte("/>")))

		case xml.EndElement:
			return s.endElement(t)

		case xml.CharData:
			if bytes.HasPrefix(src, []byte("<![CDATA[")) {
				if len(s.open) == 0 {
					return Token{}, s.errorf("CDATA section outside the root element")
				}
				return Token{Type: xmlconv.CDataNode, Data: string(t)}, nil
			}
			if !IsSpace(t) {
				if len(s.open) == 0 {
					return Token{}, s.errorf("text outside the root element")
				}
				return Token{Type: xmlconv.TextNode, Data: string(t)}, nil
			}
			if n := len(s.space); n != 0 && s.space[n-1] {
				return Token{Type: xmlconv.SignificantWhitespaceNode, Data: string(t)}, nil
			} else if s.opts.PreserveWhitespace {
				return Token{Type: xmlconv.WhitespaceNode, Data: string(t)}, nil
			}

		case xml.Comment:
			return Token{Type: xmlconv.CommentNode, Data: string(t)}, nil

		case xml.ProcInst:
			if t.Target == "xml" {
				v, e, sa := ParseDeclaration(string(t.Inst))
				return Token{Type: xmlconv.DeclarationNode, Version: v, Encoding: e, Standalone: sa}, nil
			}
			return Token{
				Type: xmlconv.ProcInstNode,
				Name: Name{Local: t.Target},
				Data: strings.TrimLeft(string(t.Inst), " \t\r\n"),
			}, nil

		case xml.Directive:
			if dt, ok := ParseDocType(string(t)); ok {
				return Token{Type: xmlconv.DocTypeNode, DocType: dt}, nil
			}
		}
	}
}

func (s *Scanner) startElement(t xml.StartElement, empty bool) (Token, error) {
	if len(s.open) == 0 && s.root {
		return Token{}, s.errorf("multiple root elements")
	}
	s.root = true
	s.ns.PushScope()
	s.open = append(s.open, t.Name)

	preserve := len(s.space) != 0 && s.space[len(s.space)-1]
	for _, a := range t.Attr {
		switch {
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			if err := s.ns.AddNamespace("", a.Value); err != nil {
				return Token{}, s.errorf("%v", err)
			}
		case a.Name.Space == "xmlns":
			if err := s.ns.AddNamespace(a.Name.Local, a.Value); err != nil {
				return Token{}, s.errorf("%v", err)
			}
		case a.Name.Space == "xml" && a.Name.Local == "space":
			preserve = a.Value == "preserve"
		}
	}
	s.space = append(s.space, preserve)

	name, err := s.resolve(t.Name, true)
	if err != nil {
		return Token{}, err
	}
	tok := Token{Type: xmlconv.ElementNode, Name: name, Empty: empty}
	for _, a := range t.Attr {
		an, err := s.resolve(a.Name, false)
		if err != nil {
			return Token{}, err
		}
		tok.Attr = append(tok.Attr, Attr{Name: an, Value: a.Value})
	}
	return tok, nil
}

func (s *Scanner) endElement(t xml.EndElement) (Token, error) {
	n := len(s.open)
	if n == 0 {
		return Token{}, s.errorf("unexpected end element </%s>", rawName(t.Name))
	}
	if top := s.open[n-1]; top != t.Name {
		return Token{}, s.errorf("element <%s> closed by </%s>", rawName(top), rawName(t.Name))
	}
	name, err := s.resolve(t.Name, true)
	if err != nil {
		return Token{}, err
	}
	s.open = s.open[:n-1]
	s.space = s.space[:n-1]
	s.ns.PopScope()
	return Token{Type: xmlconv.ElementNode, End: true, Name: name}, nil
}

// resolve binds the prefix of a raw name. An unprefixed element takes the
// default namespace; an unprefixed attribute has none.
func (s *Scanner) resolve(raw xml.Name, elem bool) (Name, error) {
	name := Name{Prefix: raw.Space, Local: raw.Local}
	switch {
	case raw.Space == "" && raw.Local == "xmlns" && !elem:
		name.Space = xmlconv.XMLNSNamespace
	case raw.Space == "" && elem:
		name.Space = s.ns.DefaultNamespace()
	case raw.Space != "":
		uri, ok := s.ns.LookupNamespace(raw.Space)
		if !ok {
			return Name{}, s.errorf("undeclared namespace prefix %q", raw.Space)
		}
		name.Space = uri
	}
	return name, nil
}

func rawName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}
