// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package xmltext

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/creachadair/jdom/xmlconv"
)

// A Printer writes XML text. Namespaces are tracked as elements are
// written: a name whose namespace is not in scope under its prefix is
// given a declaration on the element that uses it.
//
// Errors are sticky, and reported by Flush.
type Printer struct {
	w    *bufio.Writer
	ns   *xmlconv.NamespaceManager
	open []string // qualified names of open elements
	tag  bool     // a start tag is not yet closed
	gen  int      // counter for generated prefixes
	err  error
}

// NewPrinter constructs a Printer that writes to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: bufio.NewWriter(w), ns: xmlconv.NewNamespaceManager()}
}

func (p *Printer) str(ss ...string) {
	for _, s := range ss {
		if p.err != nil {
			return
		}
		_, p.err = p.w.WriteString(s)
	}
}

func (p *Printer) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

// closeTag finishes a pending start tag.
func (p *Printer) closeTag() {
	if p.tag {
		p.str(">")
		p.tag = false
	}
}

// Declaration writes an XML declaration.
func (p *Printer) Declaration(version, encoding, standalone string) {
	if version == "" {
		version = "1.0"
	}
	p.str(`<?xml version="`, escapeAttr(version), `"`)
	if encoding != "" {
		p.str(` encoding="`, escapeAttr(encoding), `"`)
	}
	if standalone != "" {
		p.str(` standalone="`, escapeAttr(standalone), `"`)
	}
	p.str("?>")
}

// DocType writes a document type declaration.
func (p *Printer) DocType(dt DocType) {
	p.str("<!DOCTYPE ", dt.Name)
	switch {
	case dt.Public != "":
		p.str(" PUBLIC ", strconv.Quote(dt.Public), " ", strconv.Quote(dt.System))
	case dt.System != "":
		p.str(" SYSTEM ", strconv.Quote(dt.System))
	}
	if dt.Subset != "" {
		p.str(" [", dt.Subset, "]")
	}
	p.str(">")
}

// StartElement begins an element. The tag is left open until content is
// written or the element ends, so that an element with no content can be
// written as an empty-element tag.
func (p *Printer) StartElement(name Name, attrs []Attr) {
	p.closeTag()
	p.ns.PushScope()

	// Declarations written explicitly come first, so that names can use
	// them.
	var decls []Attr
	for _, a := range attrs {
		if a.Name.Space != xmlconv.XMLNSNamespace {
			continue
		}
		prefix := a.Name.Local
		if a.Name.Prefix == "" {
			prefix = ""
		}
		if err := p.ns.AddNamespace(prefix, a.Value); err != nil {
			p.fail(err)
		}
		decls = append(decls, a)
	}

	qname := p.elementName(name, &decls)
	var rest []Attr
	for _, a := range attrs {
		if a.Name.Space == xmlconv.XMLNSNamespace {
			continue
		}
		rest = append(rest, Attr{Name: Name{Local: p.attrName(a.Name, &decls)}, Value: a.Value})
	}

	p.str("<", qname)
	for _, a := range decls {
		n := "xmlns"
		if a.Name.Prefix != "" {
			n = "xmlns:" + a.Name.Local
		}
		p.str(" ", n, `="`, escapeAttr(a.Value), `"`)
	}
	for _, a := range rest {
		p.str(" ", a.Name.Local, `="`, escapeAttr(a.Value), `"`)
	}
	p.open = append(p.open, qname)
	p.tag = true
}

// declare binds prefix to uri in the current scope and records the
// declaration attribute.
func (p *Printer) declare(prefix, uri string, decls *[]Attr) {
	if err := p.ns.AddNamespace(prefix, uri); err != nil {
		p.fail(err)
		return
	}
	a := Attr{Name: Name{Local: "xmlns", Space: xmlconv.XMLNSNamespace}, Value: uri}
	if prefix != "" {
		a.Name = Name{Prefix: "xmlns", Local: prefix, Space: xmlconv.XMLNSNamespace}
	}
	*decls = append(*decls, a)
}

func (p *Printer) elementName(n Name, decls *[]Attr) string {
	if n.Space == "" {
		if p.ns.DefaultNamespace() != "" {
			if p.boundHere("") {
				p.fail(errors.New("element <" + n.Local + "> has no namespace but declares a default namespace"))
			}
			p.declare("", "", decls)
		}
		return n.Local
	}
	if uri, ok := p.ns.LookupNamespace(n.Prefix); ok && uri == n.Space {
		return n.Qualified()
	}
	if prefix, ok := p.ns.LookupPrefix(n.Space); ok {
		return Name{Prefix: prefix, Local: n.Local}.Qualified()
	}
	prefix := n.Prefix
	if cur, ok := p.ns.LookupNamespace(prefix); ok && p.boundHere(prefix) && cur != n.Space {
		prefix = p.freshPrefix()
	}
	p.declare(prefix, n.Space, decls)
	return Name{Prefix: prefix, Local: n.Local}.Qualified()
}

func (p *Printer) attrName(n Name, decls *[]Attr) string {
	if n.Space == "" {
		return n.Local
	}
	if n.Prefix != "" {
		if uri, ok := p.ns.LookupNamespace(n.Prefix); ok && uri == n.Space {
			return n.Qualified()
		}
	}
	if prefix, ok := p.ns.LookupPrefix(n.Space); ok && prefix != "" {
		return prefix + ":" + n.Local
	}
	prefix := n.Prefix
	if _, ok := p.ns.LookupNamespace(prefix); prefix == "" || (ok && p.boundHere(prefix)) {
		prefix = p.freshPrefix()
	}
	p.declare(prefix, n.Space, decls)
	return prefix + ":" + n.Local
}

// boundHere reports whether prefix was declared on the element being
// written. Such a binding cannot be replaced.
func (p *Printer) boundHere(prefix string) bool { return p.ns.Declared(prefix) }

func (p *Printer) freshPrefix() string {
	for {
		p.gen++
		prefix := "ns" + strconv.Itoa(p.gen)
		if _, used := p.ns.LookupNamespace(prefix); !used {
			return prefix
		}
	}
}

// EndElement ends the innermost open element. If it has no content and
// empty is true, it is written as an empty-element tag.
func (p *Printer) EndElement(empty bool) {
	n := len(p.open)
	if n == 0 {
		p.fail(errors.New("no element is open"))
		return
	}
	qname := p.open[n-1]
	p.open = p.open[:n-1]
	if p.tag && empty {
		p.str("/>")
		p.tag = false
	} else {
		p.closeTag()
		p.str("</", qname, ">")
	}
	p.ns.PopScope()
}

// Text writes escaped character data.
func (p *Printer) Text(s string) {
	p.closeTag()
	p.str(escapeText(s))
}

// CData writes a CDATA section. An embedded "]]>" is split across two
// sections.
func (p *Printer) CData(s string) {
	p.closeTag()
	p.str("<![CDATA[", strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>"), "]]>")
}

// Comment writes a comment.
func (p *Printer) Comment(s string) {
	if strings.Contains(s, "--") || strings.HasSuffix(s, "-") {
		p.fail(errors.New(`comments must not contain "--"`))
		return
	}
	p.closeTag()
	p.str("<!--", s, "-->")
}

// ProcInst writes a processing instruction.
func (p *Printer) ProcInst(target, data string) {
	if strings.Contains(data, "?>") {
		p.fail(errors.New(`processing instruction must not contain "?>"`))
		return
	}
	p.closeTag()
	p.str("<?", target)
	if data != "" {
		p.str(" ", data)
	}
	p.str("?>")
}

// Flush writes any buffered output and reports the first error, if any.
func (p *Printer) Flush() error {
	if p.err == nil && len(p.open) != 0 {
		p.err = errors.New("unclosed element <" + p.open[len(p.open)-1] + ">")
	}
	if p.err != nil {
		return p.err
	}
	return p.w.Flush()
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\r", "&#xD;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;",
		"\t", "&#x9;", "\n", "&#xA;", "\r", "&#xD;")
)

func escapeText(s string) string { return textEscaper.Replace(s) }
func escapeAttr(s string) string { return attrEscaper.Replace(s) }
