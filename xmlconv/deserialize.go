// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package xmlconv

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/creachadair/jdom"
)

// Deserialize reads one JSON value from r and adds its XML form to doc.
// The value must be an object or null. If r has a current token,
// conversion begins there; otherwise Deserialize first advances r. A null
// value leaves doc unchanged.
//
// Structural problems, such as a top-level object with several element
// properties and no RootElementName, are reported as a *jdom.SyntaxError
// carrying the path of the offending token in r.
func (c *Converter) Deserialize(r jdom.TokenReader, doc Document) (err error) {
	defer recoverError(&err)
	d := &deserializer{opts: c.resolve(), r: r, doc: doc, ns: NewNamespaceManager()}
	if r.Token() == jdom.None {
		d.advance()
	}
	for r.Token() == jdom.Comment {
		d.advance()
	}
	switch r.Token() {
	case jdom.Null:
		return nil
	case jdom.StartObject:
	default:
		d.fail("can only convert JSON that begins with an object, not %v", r.Token())
	}

	if name := d.opts.RootElementName; name != "" {
		d.readElement(doc, name)
	} else {
		d.advance()
		d.deserializeNode(doc)
	}
	return nil
}

type deserializer struct {
	opts Converter
	r    jdom.TokenReader
	doc  Document
	ns   *NamespaceManager
}

func (d *deserializer) fail(msg string, args ...any) {
	panic(convError{jdom.Errorf(jdom.StructuralError, d.r, msg, args...)})
}

// advance moves to the next token, which must exist.
func (d *deserializer) advance() {
	if err := d.r.Next(); err == io.EOF {
		d.fail("unexpected end of input")
	} else if err != nil {
		check(err)
	}
}

// check reports err as a structural error at the current token, unless it
// is already a syntax error.
func (d *deserializer) check(err error) {
	if err == nil {
		return
	}
	var serr *jdom.SyntaxError
	if errors.As(err, &serr) {
		check(err)
	}
	d.fail("%v", err)
}

func (d *deserializer) appendChild(parent, child Node) {
	_, err := parent.AppendChild(child)
	d.check(err)
}

// comment adds a comment node to cur if the current token is a comment,
// and reports whether it did.
func (d *deserializer) comment(cur Node) bool {
	if d.r.Token() != jdom.Comment {
		return false
	}
	d.appendChild(cur, d.doc.CreateComment(d.text()))
	return true
}

func (d *deserializer) text() string {
	s, _ := d.r.Value().(string)
	return s
}

// deserializeNode converts the members of an object, or the elements of an
// array, into children of cur. It returns at the end token of the
// container.
func (d *deserializer) deserializeNode(cur Node) {
	for {
		switch tok := d.r.Token(); tok {
		case jdom.PropertyName:
			if cur.NodeType() == DocumentNode && d.doc.DocumentElement() != nil {
				d.fail("JSON root object has multiple properties; the root object must have " +
					"a single property to create a valid XML document, or set RootElementName")
			}
			name := d.text()
			d.advance()
			if d.r.Token() != jdom.StartArray {
				d.deserializeValue(name, cur)
				break
			}
			var count int
			var last Node
			for d.advance(); d.r.Token() != jdom.EndArray; d.advance() {
				if !d.comment(cur) {
					last = d.deserializeValue(name, cur)
					count++
				}
			}
			if count == 1 && d.opts.WriteArrayAttribute {
				if e, ok := last.(Element); ok {
					d.addArrayAttribute(e)
				}
			}

		case jdom.StartConstructor:
			d.constructor(cur)

		case jdom.Comment:
			d.comment(cur)

		case jdom.EndObject, jdom.EndArray:
			return

		default:
			d.fail("unexpected %v when deserializing node", tok)
		}
		d.advance()
	}
}

// constructor converts the arguments of a constructor into children of cur
// named by the constructor. It returns at the end token.
func (d *deserializer) constructor(cur Node) {
	name := d.text()
	for d.advance(); d.r.Token() != jdom.EndConstructor; d.advance() {
		if !d.comment(cur) {
			d.deserializeValue(name, cur)
		}
	}
}

// deserializeValue converts the value at the current token, which is the
// value of a property with the given name, into a child of cur. It returns
// the element created, if any.
func (d *deserializer) deserializeValue(name string, cur Node) Node {
	if !d.opts.EncodeSpecialCharacters {
		switch name {
		case TextName:
			d.appendChild(cur, d.doc.CreateTextNode(d.xmlValue()))
			return nil
		case CDataName:
			d.appendChild(cur, d.doc.CreateCDataSection(d.xmlValue()))
			return nil
		case WhitespaceName:
			d.appendChild(cur, d.doc.CreateWhitespace(d.xmlValue()))
			return nil
		case SignificantWhitespaceName:
			d.appendChild(cur, d.doc.CreateSignificantWhitespace(d.xmlValue()))
			return nil
		}
		if strings.HasPrefix(name, "?") {
			d.instruction(cur, name)
			return nil
		} else if strings.EqualFold(name, DocTypeName) {
			d.docType(cur)
			return nil
		}
	}
	if d.r.Token() == jdom.StartArray {
		return d.readArrayElements(name, cur)
	}
	return d.readElement(cur, name)
}

// readElement converts the value at the current token into an element
// named by name, or into an attribute of cur if name is an attribute name.
func (d *deserializer) readElement(cur Node, name string) Node {
	if name == "" {
		d.fail("cannot convert JSON with an empty property name to XML")
	}
	if !d.opts.EncodeSpecialCharacters {
		if aname, ok := strings.CutPrefix(name, "@"); ok {
			prefix, _ := splitName(aname)
			d.addAttribute(cur, aname, prefix)
			return nil
		}
		if reservedNames.Has(name) {
			jsonPrefix, _ := d.ns.LookupPrefix(JSONNamespace)
			if name != "$values" {
				d.addAttribute(cur, name[1:], jsonPrefix)
				return nil
			}
			name = name[1:]
			if jsonPrefix != "" {
				name = jsonPrefix + ":" + name
			}
		}
	}

	// Attributes at the start of the object are collected before the
	// element is created, since they may declare its namespace.
	d.ns.PushScope()
	var attrs []nameValue
	if !d.opts.EncodeSpecialCharacters && d.r.Token() == jdom.StartObject {
		attrs = d.readAttributes()
	}
	prefix, _ := splitName(name)
	if d.opts.EncodeSpecialCharacters {
		prefix = ""
	}
	elt := d.createElement(name, prefix)
	d.appendChild(cur, elt)
	for _, a := range attrs {
		var uri string
		if ap, _ := splitName(a.name); ap != "" {
			uri = d.lookupNamespace(ap, a.name)
		}
		d.check(elt.SetAttributeNode(d.doc.CreateAttribute(EncodeName(a.name), uri, a.value)))
	}

	switch tok := d.r.Token(); tok {
	case jdom.String, jdom.Integer, jdom.Float, jdom.Boolean, jdom.Date, jdom.Bytes:
		d.appendChild(elt, d.doc.CreateTextNode(d.xmlValue()))
	case jdom.Null, jdom.EndObject:
		// no content
	case jdom.StartConstructor:
		d.constructor(elt)
	case jdom.StartObject:
		d.advance()
		d.deserializeNode(elt)
	case jdom.PropertyName, jdom.Comment:
		d.deserializeNode(elt)
	default:
		d.fail("unexpected %v when deserializing element %q", tok, name)
	}
	d.ns.PopScope()
	return elt
}

type nameValue struct{ name, value string }

// readAttributes consumes the attribute properties at the start of the
// object at the current token, binding any namespaces they declare. It
// stops at the first property that is not an attribute, or at the end of
// the object.
func (d *deserializer) readAttributes() []nameValue {
	var attrs []nameValue
	add := func(name, value string) {
		for _, a := range attrs {
			if a.name == name {
				d.fail("duplicate attribute %q", name)
			}
		}
		attrs = append(attrs, nameValue{name, value})
	}
	for {
		d.advance()
		switch tok := d.r.Token(); tok {
		case jdom.PropertyName:
			name := d.text()
			switch {
			case strings.HasPrefix(name, "@"):
				aname := name[1:]
				d.advance()
				value, ok := d.xmlValueOK()
				if prefix, isNS := namespaceAttr(aname); isNS {
					if !ok || (prefix != "" && value == "") {
						d.fail("%v", errNoValue)
					}
					if err := d.ns.AddNamespace(prefix, value); err != nil {
						d.fail("%v", err)
					}
				}
				add(aname, value)

			case reservedNames.Has(name):
				prefix := d.jsonPrefix(add)
				if name == "$values" {
					return attrs
				}
				d.advance()
				if !d.r.Token().IsPrimitive() {
					d.fail("unexpected %v for %q", d.r.Token(), name)
				}
				value, _ := d.xmlValueOK()
				add(prefix+":"+name[1:], value)

			default:
				return attrs
			}

		case jdom.EndObject, jdom.Comment:
			return attrs

		default:
			d.fail("unexpected %v while reading attributes", tok)
		}
	}
}

// jsonPrefix returns the prefix bound to the control namespace, declaring
// a fresh one with add if necessary.
func (d *deserializer) jsonPrefix(add func(name, value string)) string {
	if p, ok := d.ns.LookupPrefix(JSONNamespace); ok && p != "" {
		return p
	}
	prefix := "json"
	for i := 1; ; i++ {
		if _, used := d.ns.LookupNamespace(prefix); !used {
			break
		}
		prefix = "json" + strconv.Itoa(i)
	}
	add("xmlns:"+prefix, JSONNamespace)
	d.ns.AddNamespace(prefix, JSONNamespace)
	return prefix
}

// namespaceAttr reports whether name declares a namespace, and if so for
// which prefix.
func namespaceAttr(name string) (string, bool) {
	if name == "xmlns" {
		return "", true
	} else if p, ok := strings.CutPrefix(name, "xmlns:"); ok {
		return p, true
	}
	return "", false
}

// createElement creates an element for a property name, resolving its
// namespace from prefix.
func (d *deserializer) createElement(name, prefix string) Element {
	var encoded, uri string
	if d.opts.EncodeSpecialCharacters {
		encoded = EncodeLocalName(name)
	} else {
		encoded = EncodeName(name)
	}
	if prefix == "" {
		uri = d.ns.DefaultNamespace()
	} else {
		uri = d.lookupNamespace(prefix, name)
	}
	return d.doc.CreateElement(encoded, uri)
}

func (d *deserializer) addAttribute(cur Node, name, prefix string) {
	if cur.NodeType() == DocumentNode {
		d.fail("JSON root object has property %q that will be converted to an attribute; "+
			"a root object cannot have attribute properties, set RootElementName", name)
	}
	elt, ok := cur.(Element)
	if !ok {
		d.fail("cannot add attribute %q to %v", name, cur.NodeType())
	}
	value, ok := d.xmlValueOK()
	if nsPrefix, isNS := namespaceAttr(name); isNS {
		// A declaration after the first child still binds the names of
		// the siblings that follow it.
		if !ok || (nsPrefix != "" && value == "") {
			d.fail("%v", errNoValue)
		}
		d.check(d.ns.AddNamespace(nsPrefix, value))
	}
	var uri string
	if prefix != "" {
		uri = d.lookupNamespace(prefix, name)
		name = prefix + ":" + strings.TrimPrefix(name, prefix+":")
	}
	d.check(elt.SetAttributeNode(d.doc.CreateAttribute(EncodeName(name), uri, value)))
}

// lookupNamespace returns the namespace bound to prefix, which qualifies
// name. An unbound prefix is an error.
func (d *deserializer) lookupNamespace(prefix, name string) string {
	uri, ok := d.ns.LookupNamespace(prefix)
	if !ok {
		d.fail("namespace prefix %q of %q is not declared", prefix, name)
	}
	return uri
}

// readArrayElements converts a nested array into an element named by name
// whose children are the array elements.
func (d *deserializer) readArrayElements(name string, cur Node) Node {
	prefix, _ := splitName(name)
	elt := d.createElement(name, prefix)
	d.appendChild(cur, elt)

	var count int
	var last Node
	for d.advance(); d.r.Token() != jdom.EndArray; d.advance() {
		if !d.comment(elt) {
			last = d.deserializeValue(name, elt)
			count++
		}
	}
	if d.opts.WriteArrayAttribute {
		d.addArrayAttribute(elt)
		if e, ok := last.(Element); ok && count == 1 {
			d.addArrayAttribute(e)
		}
	}
	return elt
}

// addArrayAttribute marks elt as an array, declaring the control namespace
// on elt if it is not already in scope.
func (d *deserializer) addArrayAttribute(elt Element) {
	prefix := elt.GetPrefixOfNamespace(JSONNamespace)
	if prefix == "" {
		prefix = "json"
		d.check(elt.SetAttributeNode(d.doc.CreateAttribute("xmlns:json", XMLNSNamespace, JSONNamespace)))
	}
	d.check(elt.SetAttributeNode(d.doc.CreateAttribute(prefix+":"+arrayAttr, JSONNamespace, "true")))
}

// instruction converts a "?name" property into an XML declaration or a
// processing instruction.
func (d *deserializer) instruction(cur Node, name string) {
	if name != DeclarationName {
		d.appendChild(cur, d.doc.CreateProcessingInstruction(name[1:], d.xmlValue()))
		return
	}
	v := d.fields("XML declaration", "@version", "@encoding", "@standalone")
	d.appendChild(cur, d.doc.CreateDeclaration(v[0], v[1], v[2]))
}

func (d *deserializer) docType(cur Node) {
	v := d.fields("document type", "@name", "@public", "@system", "@internalSubset")
	d.appendChild(cur, d.doc.CreateDocumentType(v[0], v[1], v[2], v[3]))
}

// fields reads an object whose members are a subset of names, and returns
// their values in the order of names.
func (d *deserializer) fields(what string, names ...string) []string {
	if d.r.Token() != jdom.StartObject {
		d.fail("unexpected %v for %s", d.r.Token(), what)
	}
	out := make([]string, len(names))
	for d.advance(); d.r.Token() != jdom.EndObject; d.advance() {
		if d.r.Token() == jdom.Comment {
			continue
		}
		name := d.text()
		i := indexOf(names, name)
		if i < 0 {
			d.fail("unexpected property name %q while deserializing %s", name, what)
		}
		d.advance()
		out[i] = d.xmlValue()
	}
	return out
}

func indexOf(names []string, name string) int {
	for i, s := range names {
		if s == name {
			return i
		}
	}
	return -1
}

func (d *deserializer) xmlValue() string {
	s, _ := d.xmlValueOK()
	return s
}

// xmlValueOK renders the scalar value at the current token as XML text.
// It reports false for null.
func (d *deserializer) xmlValueOK() (string, bool) {
	v := d.r.Value()
	switch tok := d.r.Token(); tok {
	case jdom.String:
		return d.text(), true
	case jdom.Integer:
		switch z := v.(type) {
		case int64:
			return strconv.FormatInt(z, 10), true
		case *big.Int:
			return z.String(), true
		}
		return fmt.Sprint(v), true
	case jdom.Float:
		if f, ok := v.(float64); ok {
			return xmlFloat(f), true
		}
		return fmt.Sprint(v), true
	case jdom.Boolean:
		return strconv.FormatBool(v == true), true
	case jdom.Date:
		if t, ok := v.(time.Time); ok {
			return t.Format(time.RFC3339Nano), true
		}
	case jdom.Bytes:
		if b, ok := v.([]byte); ok {
			return base64.StdEncoding.EncodeToString(b), true
		}
	case jdom.Null:
		return "", false
	}
	d.fail("cannot get an XML string value from %v", d.r.Token())
	panic("unreachable")
}

// xmlFloat renders f in the XML Schema lexical form for a double.
func xmlFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	}
	return jdom.FormatFloat(f, 64)
}
