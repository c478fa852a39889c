// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package xmlconv_test

import (
	"testing"

	"github.com/creachadair/jdom/xmlconv"
)

func TestNamespaceManager(t *testing.T) {
	m := xmlconv.NewNamespaceManager()
	lookup := func(prefix, want string) {
		t.Helper()
		if got, ok := m.LookupNamespace(prefix); !ok || got != want {
			t.Errorf("LookupNamespace(%q): got %q, %v; want %q, true", prefix, got, ok, want)
		}
	}
	lookup("xml", xmlconv.XMLNamespace)
	lookup("xmlns", xmlconv.XMLNSNamespace)
	lookup("", "")
	if got, ok := m.LookupNamespace("p"); ok {
		t.Errorf("LookupNamespace(p): got %q, want not found", got)
	}

	m.PushScope()
	if err := m.AddNamespace("p", "urn:one"); err != nil {
		t.Fatalf("AddNamespace(p): unexpected error: %v", err)
	}
	if err := m.AddNamespace("", "urn:default"); err != nil {
		t.Fatalf("AddNamespace(default): unexpected error: %v", err)
	}
	lookup("p", "urn:one")
	if got := m.DefaultNamespace(); got != "urn:default" {
		t.Errorf("DefaultNamespace: got %q, want urn:default", got)
	}

	m.PushScope()
	if err := m.AddNamespace("p", "urn:two"); err != nil {
		t.Fatalf("AddNamespace(p): unexpected error: %v", err)
	}
	lookup("p", "urn:two")
	if got, ok := m.LookupPrefix("urn:one"); ok {
		t.Errorf("LookupPrefix(urn:one): got %q, want shadowed", got)
	}
	if got, ok := m.LookupPrefix("urn:two"); !ok || got != "p" {
		t.Errorf("LookupPrefix(urn:two): got %q, %v; want p, true", got, ok)
	}
	if got := m.Depth(); got != 2 {
		t.Errorf("Depth: got %d, want 2", got)
	}

	if !m.PopScope() {
		t.Fatal("PopScope: got false, want true")
	}
	lookup("p", "urn:one")
	if got, ok := m.LookupPrefix("urn:one"); !ok || got != "p" {
		t.Errorf("LookupPrefix(urn:one): got %q, %v; want p, true", got, ok)
	}
	m.RemoveNamespace("p", "urn:one")
	if got, ok := m.LookupNamespace("p"); ok {
		t.Errorf("LookupNamespace(p) after remove: got %q, want not found", got)
	}

	m.PopScope()
	if m.PopScope() {
		t.Error("PopScope of the predefined scope: got true, want false")
	}
	lookup("", "")
}

func TestNamespaceManagerErrors(t *testing.T) {
	tests := []struct {
		prefix, uri string
	}{
		{"xml", "urn:other"},
		{"xmlns", "urn:other"},
		{"p", xmlconv.XMLNamespace},
		{"p", xmlconv.XMLNSNamespace},
		{"p", ""},
	}
	m := xmlconv.NewNamespaceManager()
	m.PushScope()
	for _, test := range tests {
		if err := m.AddNamespace(test.prefix, test.uri); err == nil {
			t.Errorf("AddNamespace(%q, %q): got nil, want error", test.prefix, test.uri)
		}
	}
	if err := m.AddNamespace("xml", xmlconv.XMLNamespace); err != nil {
		t.Errorf("AddNamespace(xml): unexpected error: %v", err)
	}
	if err := m.AddNamespace("", ""); err != nil {
		t.Errorf("AddNamespace(default, empty): unexpected error: %v", err)
	}
}
