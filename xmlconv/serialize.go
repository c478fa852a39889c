// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package xmlconv

import (
	"strings"

	"github.com/creachadair/jdom"
)

// Serialize writes the JSON form of n to w and flushes w. If n is a
// document, each of its children becomes a property of the top-level
// object. If n is nested inside a larger tree, the namespace declarations
// of its ancestors are in scope.
//
// Errors from w are returned unchanged; a node that cannot be represented
// is reported as a *jdom.SyntaxError whose path locates the node.
func (c *Converter) Serialize(w jdom.TokenWriter, n Node) (err error) {
	defer recoverError(&err)
	s := &serializer{opts: c.resolve(), w: w, ns: NewNamespaceManager()}
	s.pushParentNamespaces(n)

	wrap := !s.opts.OmitRootObject
	if wrap {
		check(w.WriteStartObject())
	}
	s.node(n, wrap)
	if wrap {
		check(w.WriteEndObject())
	}
	return w.Flush()
}

type serializer struct {
	opts Converter
	w    jdom.TokenWriter
	ns   *NamespaceManager
}

// pushParentNamespaces replays the namespace declarations of the ancestors
// of n, outermost first.
func (s *serializer) pushParentNamespaces(n Node) {
	var parents []Node
	for p := n.ParentNode(); p != nil; p = p.ParentNode() {
		if p.NodeType() == ElementNode {
			parents = append(parents, p)
		}
	}
	for i := len(parents) - 1; i >= 0; i-- {
		s.ns.PushScope()
		for _, a := range parents[i].Attributes() {
			if a.NamespaceURI() == XMLNSNamespace && a.LocalName() != "xmlns" {
				s.ns.AddNamespace(a.LocalName(), a.Value())
			}
		}
	}
}

// fullName renders the name of n with the prefix currently bound to its
// namespace.
func (s *serializer) fullName(n Node) string {
	local := DecodeName(n.LocalName())
	uri := n.NamespaceURI()
	if uri == "" || (n.LocalName() == "xmlns" && uri == XMLNSNamespace) {
		return local
	}
	if prefix, _ := s.ns.LookupPrefix(uri); prefix != "" {
		return prefix + ":" + local
	}
	return local
}

// propertyName reports the JSON property name for n.
func (s *serializer) propertyName(n Node) string {
	switch n.NodeType() {
	case AttributeNode:
		if n.NamespaceURI() == JSONNamespace {
			return "$" + n.LocalName()
		}
		return "@" + s.fullName(n)
	case ElementNode:
		if n.NamespaceURI() == JSONNamespace {
			return "$" + n.LocalName()
		}
		return s.fullName(n)
	case CDataNode:
		return CDataName
	case CommentNode:
		return CommentName
	case ProcInstNode:
		return "?" + s.fullName(n)
	case DocTypeNode:
		return "!" + s.fullName(n)
	case DeclarationNode:
		return DeclarationName
	case SignificantWhitespaceNode:
		return SignificantWhitespaceName
	case TextNode:
		return TextName
	case WhitespaceNode:
		return WhitespaceName
	}
	panic(convError{nodeError(n, "unexpected %v when getting node name", n.NodeType())})
}

// isArray reports whether n carries a true array marker attribute.
func isArray(n Node) bool {
	for _, a := range n.Attributes() {
		if a.LocalName() == arrayAttr && a.NamespaceURI() == JSONNamespace {
			switch strings.TrimSpace(a.Value()) {
			case "true", "1":
				return true
			}
			return false
		}
	}
	return false
}

// allSameName reports whether every child of n has the same local name as
// n, as produced for a nested array.
func allSameName(n Node) bool {
	for _, c := range n.ChildNodes() {
		if c.LocalName() != n.LocalName() {
			return false
		}
	}
	return true
}

// valueAttributes reports whether attrs contains any attribute other than
// converter metadata.
func valueAttributes(attrs []Node) bool {
	for _, a := range attrs {
		if a.NamespaceURI() == JSONNamespace {
			continue
		}
		if a.NamespaceURI() == XMLNSNamespace && a.Value() == JSONNamespace {
			continue
		}
		return true
	}
	return false
}

// grouped writes the children of n grouped by property name, in order of
// first occurrence.
func (s *serializer) grouped(n Node, writeName bool) {
	kids := n.ChildNodes()
	switch len(kids) {
	case 0:
		return
	case 1:
		s.group(kids, s.propertyName(kids[0]), writeName)
		return
	}
	var names []string
	groups := make(map[string][]Node)
	for _, kid := range kids {
		name := s.propertyName(kid)
		if _, ok := groups[name]; !ok {
			names = append(names, name)
		}
		groups[name] = append(groups[name], kid)
	}
	for _, name := range names {
		s.group(groups[name], name, writeName)
	}
}

// group writes nodes sharing a property name. A single node is written as
// a single value unless it is marked as an array.
func (s *serializer) group(nodes []Node, name string, writeName bool) {
	if len(nodes) == 1 && !isArray(nodes[0]) {
		s.node(nodes[0], writeName)
		return
	}
	if writeName {
		check(s.w.WritePropertyName(name))
	}
	check(s.w.WriteStartArray())
	for _, n := range nodes {
		s.node(n, false)
	}
	check(s.w.WriteEndArray())
}

func (s *serializer) node(n Node, writeName bool) {
	switch n.NodeType() {
	case DocumentNode:
		s.grouped(n, writeName)

	case ElementNode:
		if isArray(n) && allSameName(n) && len(n.ChildNodes()) > 0 {
			s.grouped(n, false)
			return
		}
		s.element(n, writeName)

	case CommentNode:
		if writeName {
			check(s.w.WriteComment(n.Value()))
		}

	case AttributeNode, TextNode, CDataNode, ProcInstNode, WhitespaceNode, SignificantWhitespaceNode:
		if n.NamespaceURI() == XMLNSNamespace && n.Value() == JSONNamespace {
			return
		}
		if n.NamespaceURI() == JSONNamespace && n.LocalName() == arrayAttr {
			return
		}
		if writeName {
			check(s.w.WritePropertyName(s.propertyName(n)))
		}
		check(s.w.WriteValue(n.Value()))

	case DeclarationNode:
		d, ok := n.(Declaration)
		if !ok {
			panic(convError{nodeError(n, "declaration node does not implement Declaration")})
		}
		s.fields(n, writeName, "@version", d.Version(), "@encoding", d.Encoding(), "@standalone", d.Standalone())

	case DocTypeNode:
		d, ok := n.(DocumentType)
		if !ok {
			panic(convError{nodeError(n, "document type node does not implement DocumentType")})
		}
		s.fields(n, writeName, "@name", d.Name(), "@public", d.Public(),
			"@system", d.System(), "@internalSubset", d.InternalSubset())

	default:
		panic(convError{nodeError(n, "unexpected %v when serializing nodes", n.NodeType())})
	}
}

// fields writes an object of the non-empty name/value pairs in kv.
func (s *serializer) fields(n Node, writeName bool, kv ...string) {
	if writeName {
		check(s.w.WritePropertyName(s.propertyName(n)))
	}
	check(s.w.WriteStartObject())
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] == "" {
			continue
		}
		check(s.w.WritePropertyName(kv[i]))
		check(s.w.WriteValue(kv[i+1]))
	}
	check(s.w.WriteEndObject())
}

func (s *serializer) element(n Node, writeName bool) {
	s.ns.PushScope()
	attrs := n.Attributes()
	for _, a := range attrs {
		if a.NamespaceURI() != XMLNSNamespace {
			continue
		}
		var prefix string
		if a.LocalName() != "xmlns" {
			prefix = DecodeName(a.LocalName())
		}
		if prefix != "" && a.Value() == "" {
			panic(convError{nodeError(a, "%v", errNoValue)})
		}
		if err := s.ns.AddNamespace(prefix, a.Value()); err != nil {
			panic(convError{nodeError(a, "%v", err)})
		}
	}
	if writeName {
		check(s.w.WritePropertyName(s.propertyName(n)))
	}

	kids := n.ChildNodes()
	switch {
	case !valueAttributes(attrs) && len(kids) == 1 && kids[0].NodeType() == TextNode:
		check(s.w.WriteValue(kids[0].Value()))
	case len(kids) == 0 && len(attrs) == 0:
		if e, ok := n.(Element); ok && e.IsEmpty() {
			check(s.w.WriteNull())
		} else {
			check(s.w.WriteValue(""))
		}
	default:
		check(s.w.WriteStartObject())
		for _, a := range attrs {
			s.node(a, true)
		}
		s.grouped(n, true)
		check(s.w.WriteEndObject())
	}
	s.ns.PopScope()
}
