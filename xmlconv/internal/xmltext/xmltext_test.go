// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package xmltext_test

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/creachadair/jdom/xmlconv"
	"github.com/creachadair/jdom/xmlconv/internal/xmltext"
	"github.com/google/go-cmp/cmp"
)

// scanAll renders the tokens of input one per line.
func scanAll(t *testing.T, input string, opts *xmltext.ScanOptions) ([]string, error) {
	t.Helper()
	s, err := xmltext.NewScanner(strings.NewReader(input), opts)
	if err != nil {
		t.Fatalf("NewScanner: unexpected error: %v", err)
	}
	var got []string
	for {
		tok, err := s.Next()
		if err == io.EOF {
			return got, nil
		} else if err != nil {
			return got, err
		}
		switch tok.Type {
		case xmlconv.ElementNode:
			if tok.End {
				got = append(got, "end "+tok.Name.Qualified())
				break
			}
			line := fmt.Sprintf("start %s {%s}", tok.Name.Qualified(), tok.Name.Space)
			for _, a := range tok.Attr {
				line += fmt.Sprintf(" %s{%s}=%q", a.Name.Qualified(), a.Name.Space, a.Value)
			}
			if tok.Empty {
				line += " empty"
			}
			got = append(got, line)
		case xmlconv.DeclarationNode:
			got = append(got, fmt.Sprintf("decl %q %q %q", tok.Version, tok.Encoding, tok.Standalone))
		case xmlconv.DocTypeNode:
			got = append(got, fmt.Sprintf("doctype %+v", tok.DocType))
		case xmlconv.ProcInstNode:
			got = append(got, fmt.Sprintf("pi %s %q", tok.Name.Local, tok.Data))
		default:
			got = append(got, fmt.Sprintf("%v %q", tok.Type, tok.Data))
		}
	}
}

func TestScanner(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  *xmltext.ScanOptions
		want  []string
	}{
		{"Empty", `<a/>`, nil, []string{"start a {} empty", "end a"}},
		{"EndTag", `<a></a>`, nil, []string{"start a {}", "end a"}},
		{"Prolog", `<?xml version="1.0" standalone="yes"?><!DOCTYPE a SYSTEM "a.dtd"><a/>`, nil, []string{
			`decl "1.0" "" "yes"`,
			"doctype {Name:a Public: System:a.dtd Subset:}",
			"start a {} empty", "end a",
		}},
		{"Content", `<a>x &amp; y<![CDATA[<b>]]><!--c--><?p q r?></a>`, nil, []string{
			"start a {}",
			`text "x & y"`,
			`CDATA section "<b>"`,
			`comment "c"`,
			`pi p "q r"`,
			"end a",
		}},
		{"Namespaces", `<a xmlns="urn:a" xmlns:p="urn:p"><p:b p:c="1" d="2"/></a>`, nil, []string{
			`start a {urn:a} xmlns{http://www.w3.org/2000/xmlns/}="urn:a" xmlns:p{http://www.w3.org/2000/xmlns/}="urn:p"`,
			`start p:b {urn:p} p:c{urn:p}="1" d{}="2" empty`,
			"end p:b",
			"end a",
		}},
		{"Scoped", `<a><b xmlns="urn:b"/><c/></a>`, nil, []string{
			"start a {}",
			`start b {urn:b} xmlns{http://www.w3.org/2000/xmlns/}="urn:b" empty`,
			"end b",
			"start c {} empty",
			"end c",
			"end a",
		}},
		{"DropSpace", "<a>\n  <b/>\n</a>", nil, []string{
			"start a {}", "start b {} empty", "end b", "end a",
		}},
		{"KeepSpace", "<a> <b/></a>", &xmltext.ScanOptions{PreserveWhitespace: true}, []string{
			"start a {}", `whitespace " "`, "start b {} empty", "end b", "end a",
		}},
		{"Significant", `<a xml:space="preserve"> <b> </b></a>`, nil, []string{
			`start a {} xml:space{http://www.w3.org/XML/1998/namespace}="preserve"`,
			`significant whitespace " "`,
			"start b {}",
			`significant whitespace " "`,
			"end b",
			"end a",
		}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := scanAll(t, test.input, test.opts)
			if err != nil {
				t.Fatalf("Scan %q: unexpected error: %v", test.input, err)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("Scan %q: (-want, +got)\n%s", test.input, diff)
			}
		})
	}
}

func TestScannerErrors(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{``, "missing root element"},
		{`<a>`, "element <a> is not closed"},
		{`<a><b></a>`, "element <b> closed by </a>"},
		{`<a/><b/>`, "multiple root elements"},
		{`<p:a/>`, `undeclared namespace prefix "p"`},
		{`<a xmlns:p=""/>`, `namespace prefix "p" must have a value`},
		{`text<a/>`, "text outside the root element"},
	}
	for _, test := range tests {
		_, err := scanAll(t, test.input, nil)
		if err == nil {
			t.Errorf("Scan %q: got nil, want error", test.input)
		} else if !strings.Contains(err.Error(), test.want) {
			t.Errorf("Scan %q: got error %v, want %q", test.input, err, test.want)
		}
	}
}

func TestReadAllCharset(t *testing.T) {
	input := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><a>caf\xe9</a>"
	got, err := scanAll(t, input, nil)
	if err != nil {
		t.Fatalf("Scan: unexpected error: %v", err)
	}
	want := []string{`decl "1.0" "ISO-8859-1" ""`, "start a {}", `text "café"`, "end a"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Scan: (-want, +got)\n%s", diff)
	}
}

func TestParseDocType(t *testing.T) {
	tests := []struct {
		input string
		want  xmltext.DocType
		ok    bool
	}{
		{"DOCTYPE html", xmltext.DocType{Name: "html"}, true},
		{`DOCTYPE a PUBLIC "-//A//EN" 'a.dtd'`, xmltext.DocType{Name: "a", Public: "-//A//EN", System: "a.dtd"}, true},
		{`DOCTYPE a [<!ENTITY e "v">]`, xmltext.DocType{Name: "a", Subset: `<!ENTITY e "v">`}, true},
		{"ENTITY x", xmltext.DocType{}, false},
		{"DOCTYPE", xmltext.DocType{}, false},
	}
	for _, test := range tests {
		got, ok := xmltext.ParseDocType(test.input)
		if ok != test.ok {
			t.Errorf("ParseDocType(%q): got ok=%v, want %v", test.input, ok, test.ok)
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("ParseDocType(%q): (-want, +got)\n%s", test.input, diff)
		}
	}
}

func TestPrinter(t *testing.T) {
	var sb strings.Builder
	p := xmltext.NewPrinter(&sb)
	p.Declaration("", "", "")
	p.StartElement(xmltext.Name{Local: "a", Space: "urn:a"}, []xmltext.Attr{
		{Name: xmltext.Name{Prefix: "q", Local: "x", Space: "urn:q"}, Value: `1 "2"`},
	})
	p.StartElement(xmltext.Name{Local: "b", Space: "urn:a"}, nil)
	p.EndElement(true)
	p.StartElement(xmltext.Name{Local: "c"}, nil)
	p.Text("x < y & z")
	p.CData("a]]>b")
	p.EndElement(true)
	p.Comment("note")
	p.ProcInst("pi", "data")
	p.EndElement(true)
	if err := p.Flush(); err != nil {
		t.Fatalf("Flush: unexpected error: %v", err)
	}

	const want = `<?xml version="1.0"?>` +
		`<a xmlns="urn:a" xmlns:q="urn:q" q:x="1 &quot;2&quot;">` +
		`<b/>` +
		`<c xmlns="">x &lt; y &amp; z<![CDATA[a]]]]><![CDATA[>b]]></c>` +
		`<!--note--><?pi data?></a>`
	if diff := cmp.Diff(want, sb.String()); diff != "" {
		t.Errorf("Printer output: (-want, +got)\n%s", diff)
	}
}

func TestPrinterErrors(t *testing.T) {
	p := xmltext.NewPrinter(io.Discard)
	p.StartElement(xmltext.Name{Local: "a"}, nil)
	if err := p.Flush(); err == nil {
		t.Error("Flush with an open element: got nil, want error")
	}

	p = xmltext.NewPrinter(io.Discard)
	p.Comment("a--b")
	if err := p.Flush(); err == nil {
		t.Error("Flush after an invalid comment: got nil, want error")
	}
}
