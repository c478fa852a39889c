// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package xmlconv

import "fmt"

// A NamespaceManager tracks namespace declarations in nested scopes. The
// prefixes "xml" and "xmlns" are predefined, and the default namespace is
// initially empty. The zero value is not ready for use; call
// NewNamespaceManager.
//
// Scopes are strictly nested: each PushScope must be matched by a PopScope.
type NamespaceManager struct {
	scopes [][]binding
}

type binding struct{ prefix, uri string }

// NewNamespaceManager constructs a NamespaceManager with a single scope
// holding the predefined prefixes.
func NewNamespaceManager() *NamespaceManager {
	return &NamespaceManager{scopes: [][]binding{{
		{"xml", XMLNamespace},
		{"xmlns", XMLNSNamespace},
		{"", ""},
	}}}
}

// PushScope begins a new scope.
func (m *NamespaceManager) PushScope() { m.scopes = append(m.scopes, nil) }

// PopScope discards the bindings of the innermost scope. It reports false
// if only the predefined scope remains.
func (m *NamespaceManager) PopScope() bool {
	if len(m.scopes) <= 1 {
		return false
	}
	m.scopes = m.scopes[:len(m.scopes)-1]
	return true
}

// Depth reports the number of scopes pushed and not yet popped.
func (m *NamespaceManager) Depth() int { return len(m.scopes) - 1 }

// AddNamespace binds prefix to uri in the innermost scope. An empty prefix
// sets the default namespace. The predefined prefixes cannot be rebound.
func (m *NamespaceManager) AddNamespace(prefix, uri string) error {
	switch {
	case prefix == "xml" && uri != XMLNamespace,
		prefix == "xmlns",
		prefix != "xml" && uri == XMLNamespace,
		uri == XMLNSNamespace:
		return fmt.Errorf("cannot bind prefix %q to %q", prefix, uri)
	case prefix != "" && uri == "":
		return fmt.Errorf("namespace prefix %q must have a value", prefix)
	}
	top := &m.scopes[len(m.scopes)-1]
	for i, b := range *top {
		if b.prefix == prefix {
			(*top)[i].uri = uri
			return nil
		}
	}
	*top = append(*top, binding{prefix, uri})
	return nil
}

// RemoveNamespace removes a binding of prefix to uri from the innermost
// scope, if one exists.
func (m *NamespaceManager) RemoveNamespace(prefix, uri string) {
	top := &m.scopes[len(m.scopes)-1]
	for i, b := range *top {
		if b.prefix == prefix && b.uri == uri {
			*top = append((*top)[:i], (*top)[i+1:]...)
			return
		}
	}
}

// Declared reports whether prefix is bound in the innermost scope.
func (m *NamespaceManager) Declared(prefix string) bool {
	for _, b := range m.scopes[len(m.scopes)-1] {
		if b.prefix == prefix {
			return true
		}
	}
	return false
}

// LookupNamespace reports the namespace bound to prefix in the innermost
// scope that declares it.
func (m *NamespaceManager) LookupNamespace(prefix string) (string, bool) {
	for i := len(m.scopes) - 1; i >= 0; i-- {
		for _, b := range m.scopes[i] {
			if b.prefix == prefix {
				return b.uri, true
			}
		}
	}
	return "", false
}

// DefaultNamespace reports the current default namespace.
func (m *NamespaceManager) DefaultNamespace() string {
	uri, _ := m.LookupNamespace("")
	return uri
}

// LookupPrefix reports a prefix bound to uri that is not shadowed by an
// inner declaration of the same prefix. Inner declarations are preferred.
func (m *NamespaceManager) LookupPrefix(uri string) (string, bool) {
	for i := len(m.scopes) - 1; i >= 0; i-- {
		for _, b := range m.scopes[i] {
			if b.uri != uri {
				continue
			}
			if cur, _ := m.LookupNamespace(b.prefix); cur == uri {
				return b.prefix, true
			}
		}
	}
	return "", false
}
