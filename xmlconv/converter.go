// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package xmlconv converts between XML node trees and JSON token streams.
//
// The converter is written against the capability interfaces Node, Element,
// and Document, so it works with any XML node family that implements them.
// Two families are provided by the subpackages xmldom (a mutable DOM) and
// xtree (immutable values with memoized views).
//
// # Mapping
//
// An element becomes a property named by its qualified name. Its
// attributes become properties named with an "@" prefix, followed by its
// children grouped by name: a name with a single node is written as a
// single value, and a name with several nodes is written as an array. An
// element with a single text child and no attributes is written as a
// string; an element with no content is written as null, and one with
// empty content as "".
//
// Other nodes map to fixed names: text is "#text", CDATA sections are
// "#cdata-section", whitespace is "#whitespace" or
// "#significant-whitespace", the XML declaration is "?xml", processing
// instructions are "?target", and a document type is "!DOCTYPE". Comments
// are written as JSON comments.
//
// Attributes and elements in JSONNamespace are control metadata. The
// attribute json:Array="true" marks an element that must be written as an
// array even if it has no siblings of the same name, and the names $id,
// $ref, $type, $value, and $values map onto that namespace.
//
// # Normalizations
//
// Converting XML to JSON and back preserves the document up to the
// following differences: whitespace-only text is dropped unless the parser
// preserved it, attributes that follow child elements in a JSON object are
// placed with the other attributes, all text becomes strings, and
// namespace prefixes may be renamed or declarations added where a prefix
// was not in scope.
package xmlconv

import (
	"errors"
	"fmt"
	"strings"

	"github.com/creachadair/jdom"
)

// A Converter converts between XML nodes and JSON tokens. A nil *Converter
// is ready for use and has default settings.
type Converter struct {
	// RootElementName, if set, is the name of a synthetic root element that
	// wraps the top-level JSON object when converting to XML. Without it,
	// the top-level object must have exactly one element property.
	RootElementName string

	// WriteArrayAttribute adds a json:Array="true" attribute to elements
	// made from JSON arrays, so that converting back to JSON reproduces an
	// array even if it has only one element.
	WriteArrayAttribute bool

	// OmitRootObject suppresses the enclosing object when converting XML to
	// JSON, so the root element is written as a bare value.
	OmitRootObject bool

	// EncodeSpecialCharacters treats every JSON property name as an element
	// name, encoding characters such as "@", "#", "$", "?", and ":" rather
	// than interpreting them.
	EncodeSpecialCharacters bool
}

func (c *Converter) resolve() Converter {
	if c == nil {
		return Converter{}
	}
	return *c
}

// convError carries an error through a panic to the API boundary.
type convError struct{ error }

func check(err error) {
	if err != nil {
		panic(convError{err})
	}
}

func recoverError(errp *error) {
	if x := recover(); x != nil {
		e, ok := x.(convError)
		if !ok {
			panic(x)
		}
		*errp = e.error
	}
}

// nodePath renders the location of n in its tree, for example
// "/root/item[2]/@id".
func nodePath(n Node) string {
	var parts []string
	for cur := n; cur != nil && cur.NodeType() != DocumentNode; cur = cur.ParentNode() {
		switch cur.NodeType() {
		case ElementNode:
			name := qualifiedName(cur)
			if p := cur.ParentNode(); p != nil {
				var pos, count int
				for _, sib := range p.ChildNodes() {
					if sib.NodeType() == ElementNode && qualifiedName(sib) == name {
						count++
						if sib == cur {
							pos = count
						}
					}
				}
				if count > 1 {
					name += fmt.Sprintf("[%d]", pos)
				}
			}
			parts = append(parts, name)
		case AttributeNode:
			parts = append(parts, "@"+qualifiedName(cur))
		default:
			parts = append(parts, cur.NodeType().String())
		}
	}
	var sb strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		sb.WriteByte('/')
		sb.WriteString(parts[i])
	}
	return sb.String()
}

func qualifiedName(n Node) string {
	if p := n.Prefix(); p != "" {
		return p + ":" + n.LocalName()
	}
	return n.LocalName()
}

// nodeError reports a structural error at node n.
func nodeError(n Node, msg string, args ...any) error {
	e := jdom.Errorf(jdom.StructuralError, nil, msg, args...)
	e.Path = nodePath(n)
	return e
}

var errNoValue = errors.New("namespace attribute must have a value")
