// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package xmldom_test

import (
	"strings"
	"testing"

	"github.com/creachadair/jdom/xmlconv"
	"github.com/creachadair/jdom/xmlconv/xmldom"
	"github.com/google/go-cmp/cmp"
)

func mustParse(t *testing.T, input string, opts *xmldom.ParseOptions) *xmldom.Document {
	t.Helper()
	doc, err := xmldom.Parse(strings.NewReader(input), opts)
	if err != nil {
		t.Fatalf("Parse %q: unexpected error: %v", input, err)
	}
	return doc
}

func TestParseString(t *testing.T) {
	keep := &xmldom.ParseOptions{PreserveWhitespace: true}
	tests := []struct {
		name, input string
		opts        *xmldom.ParseOptions
		want        string
	}{
		{"Prolog",
			`<?xml version="1.0" encoding="UTF-8"?><!DOCTYPE r SYSTEM "r.dtd"><r a="1"/>`, nil,
			`<?xml version="1.0" encoding="UTF-8"?><!DOCTYPE r SYSTEM "r.dtd"><r a="1"/>`},
		{"Content",
			`<r><![CDATA[x<y]]><e/><f></f><!--c--><?pi data?>t &amp; u</r>`, nil,
			`<r><![CDATA[x<y]]><e/><f></f><!--c--><?pi data?>t &amp; u</r>`},
		{"Namespaces",
			`<r xmlns="urn:x" xmlns:p="urn:p"><p:a p:b="1"/><c/></r>`, nil,
			`<r xmlns="urn:x" xmlns:p="urn:p"><p:a p:b="1"/><c/></r>`},
		{"DeclarationsFirst", `<r a="1" xmlns="urn:x"/>`, nil, `<r xmlns="urn:x" a="1"/>`},
		{"DropSpace", "<r>\n  <a/>\n</r>", nil, "<r><a/></r>"},
		{"KeepSpace", "<r>\n  <a/>\n</r>", keep, "<r>\n  <a/>\n</r>"},
		{"Significant", `<r xml:space="preserve"> <a/></r>`, nil, `<r xml:space="preserve"> <a/></r>`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			doc := mustParse(t, test.input, test.opts)
			if diff := cmp.Diff(test.want, doc.String()); diff != "" {
				t.Errorf("String: (-want, +got)\n%s", diff)
			}
		})
	}
}

func TestParseStructure(t *testing.T) {
	doc := mustParse(t, `<r xmlns:p="urn:p" id="7"><p:a>text</p:a><b/></r>`, nil)
	root := doc.Root()
	if root == nil {
		t.Fatal("Root: got nil, want element")
	}
	if got, ok := root.Attr("", "id"); !ok || got != "7" {
		t.Errorf("Attr(id): got %q, %v; want 7, true", got, ok)
	}
	kids := root.Children()
	if len(kids) != 2 {
		t.Fatalf("Children: got %d, want 2", len(kids))
	}
	a := kids[0]
	if a.QName() != "p:a" || a.NamespaceURI() != "urn:p" || a.LocalName() != "a" {
		t.Errorf("Element: got %q in %q, want p:a in urn:p", a.QName(), a.NamespaceURI())
	}
	if a.Parent() != root {
		t.Error("Parent of child is not the root")
	}
	if got := a.Children()[0].Value(); got != "text" {
		t.Errorf("Text: got %q, want text", got)
	}
	if got := a.GetPrefixOfNamespace("urn:p"); got != "p" {
		t.Errorf("GetPrefixOfNamespace(urn:p): got %q, want p", got)
	}
	if got := kids[1].GetPrefixOfNamespace("urn:q"); got != "" {
		t.Errorf("GetPrefixOfNamespace(urn:q): got %q, want empty", got)
	}
	if !kids[1].IsEmpty() || a.IsEmpty() {
		t.Errorf("IsEmpty: got %v, %v; want true, false", kids[1].IsEmpty(), a.IsEmpty())
	}
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{
		``,
		`<a>`,
		`<a></b>`,
		`<a/><b/>`,
		`<p:a/>`,
	} {
		if doc, err := xmldom.Parse(strings.NewReader(input), nil); err == nil {
			t.Errorf("Parse %q: got %v, want error", input, doc)
		}
	}
}

func TestCaches(t *testing.T) {
	doc := xmldom.NewDocument()
	r := doc.NewElement("r", "")
	if err := doc.Append(r); err != nil {
		t.Fatalf("Append root: %v", err)
	}
	if got := r.ChildNodes(); len(got) != 0 {
		t.Errorf("ChildNodes of new element: got %d, want 0", len(got))
	}
	if err := r.Append(doc.NewElement("a", "")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	first := r.ChildNodes()
	if again := r.ChildNodes(); &first[0] != &again[0] {
		t.Error("ChildNodes was not cached")
	}
	if err := r.Append(doc.NewText(xmlconv.TextNode, "x")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if got := r.ChildNodes(); len(got) != 2 || len(first) != 1 {
		t.Errorf("ChildNodes after append: got %d (old %d), want 2 (old 1)", len(got), len(first))
	}

	if err := r.SetAttr(doc.NewAttr("a", "", "1")); err != nil {
		t.Fatalf("SetAttr: %v", err)
	}
	attrs := r.Attributes()
	if err := r.SetAttributeNode(doc.CreateAttribute("a", "", "2")); err != nil {
		t.Fatalf("SetAttributeNode: %v", err)
	}
	got := r.Attributes()
	if len(got) != 1 || got[0].Value() != "2" || attrs[0].Value() != "1" {
		t.Errorf("Attributes after replace: got %v, want one attribute with value 2", got)
	}
	if attrs[0].ParentNode() != nil {
		t.Error("Replaced attribute still has a parent")
	}
}

func TestEmptyElements(t *testing.T) {
	doc := xmldom.NewDocument()
	e := doc.NewElement("e", "")
	if !e.IsEmpty() {
		t.Error("New element is not empty")
	}
	if err := e.Append(doc.NewText(xmlconv.TextNode, "")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if e.IsEmpty() {
		t.Error("Element with a text child is empty")
	}
	if got, want := e.String(), "<e></e>"; got != want {
		t.Errorf("String: got %q, want %q", got, want)
	}
}

func TestAppendErrors(t *testing.T) {
	doc := xmldom.NewDocument()
	r := doc.NewElement("r", "")
	a := doc.NewElement("a", "")
	mustOK := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}
	mustOK(doc.Append(r))
	mustOK(r.Append(a))
	cx, cy := doc.NewElement("x", ""), doc.NewElement("y", "")
	mustOK(cx.Append(cy))

	tests := []struct {
		name   string
		parent *xmldom.Node
		child  *xmldom.Node
	}{
		{"HasParent", &doc.Node, a},
		{"Cycle", cy, cx},
		{"SecondRoot", &doc.Node, doc.NewElement("s", "")},
		{"TextInDocument", &doc.Node, doc.NewText(xmlconv.TextNode, "x")},
		{"LateDeclaration", &doc.Node, doc.CreateDeclaration("1.0", "", "").(*xmldom.Node)},
		{"DeclarationInElement", r, doc.CreateDeclaration("1.0", "", "").(*xmldom.Node)},
		{"Attribute", r, doc.NewAttr("x", "", "1")},
	}
	for _, test := range tests {
		if err := test.parent.Append(test.child); err == nil {
			t.Errorf("%s: Append succeeded, want error", test.name)
		}
	}
	if err := r.SetAttr(a); err == nil {
		t.Error("SetAttr with an element: got nil, want error")
	}
	if err := a.SetValue("x"); err == nil {
		t.Error("SetValue on element: got nil, want error")
	}
}

func TestRemove(t *testing.T) {
	doc := mustParse(t, `<r a="1"><x/><y/></r>`, nil)
	r := doc.Root()
	r.Children()[0].Remove()
	r.Attrs()[0].Remove()
	if got, want := doc.String(), "<r><y/></r>"; got != want {
		t.Errorf("After Remove: got %q, want %q", got, want)
	}
}
