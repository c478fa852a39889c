// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package tree

import (
	"fmt"
	"strings"

	"github.com/creachadair/jdom"
)

// WriteTo writes the tokens of n and its descendants to w. The text of a Raw
// node is passed to w.WriteRaw. WriteTo does not flush w.
func WriteTo(w jdom.TokenWriter, n Node) error {
	switch t := n.(type) {
	case *Object:
		if err := w.WriteStartObject(); err != nil {
			return err
		}
		if err := writeItems(w, t.members); err != nil {
			return err
		}
		return w.WriteEndObject()
	case *Array:
		if err := w.WriteStartArray(); err != nil {
			return err
		}
		if err := writeItems(w, t.elts); err != nil {
			return err
		}
		return w.WriteEndArray()
	case *Constructor:
		if err := w.WriteStartConstructor(t.name); err != nil {
			return err
		}
		if err := writeItems(w, t.args); err != nil {
			return err
		}
		return w.WriteEndConstructor()
	case *Property:
		if err := w.WritePropertyName(t.name); err != nil {
			return err
		}
		return WriteTo(w, t.value)
	case *Value:
		return jdom.WriteScalar(w, t.tok, t.v)
	case *Comment:
		return w.WriteComment(t.text)
	case *Raw:
		return w.WriteRaw(t.text)
	}
	return fmt.Errorf("unknown node type %T", n)
}

func writeItems(w jdom.TokenWriter, items []Node) error {
	for _, n := range items {
		if err := WriteTo(w, n); err != nil {
			return err
		}
	}
	return nil
}

// Format renders n as JSON text, indented by the given string per level of
// nesting, or compact if indent is empty. A property is rendered as its
// name, a colon, and its value.
func Format(n Node, indent string) string {
	var sb strings.Builder
	if p, ok := n.(*Property); ok {
		sb.WriteString(jdom.Quote(p.name))
		sb.WriteByte(':')
		if indent != "" {
			sb.WriteByte(' ')
		}
		n = p.value
	}
	w := jdom.NewWriter(&sb)
	w.SetIndent("", indent)
	WriteTo(w, n)
	w.Flush()
	return sb.String()
}
