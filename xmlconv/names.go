// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package xmlconv

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/creachadair/mds/mapset"
)

// Namespaces with fixed meanings.
const (
	// JSONNamespace is the reserved control namespace. Attributes and
	// elements in this namespace carry converter metadata, such as the
	// json:Array marker, rather than document content.
	JSONNamespace = "http://james.newtonking.com/projects/json"

	XMLNamespace   = "http://www.w3.org/XML/1998/namespace"
	XMLNSNamespace = "http://www.w3.org/2000/xmlns/"
)

// Property names that represent XML nodes other than elements and
// attributes.
const (
	TextName                  = "#text"
	CommentName               = "#comment"
	CDataName                 = "#cdata-section"
	WhitespaceName            = "#whitespace"
	SignificantWhitespaceName = "#significant-whitespace"
	DeclarationName           = "?xml"
	DocTypeName               = "!DOCTYPE"
)

// arrayAttr is the local name of the array marker in the control namespace.
const arrayAttr = "Array"

// reservedNames are the $-prefixed property names that map onto attributes
// or elements in the control namespace.
var reservedNames = mapset.New("$id", "$ref", "$type", "$value", "$values")

// splitName splits a qualified name into its prefix and local parts.
func splitName(qname string) (prefix, local string) {
	if i := strings.IndexByte(qname, ':'); i > 0 {
		return qname[:i], qname[i+1:]
	}
	return "", qname
}

// EncodeName encodes s as a valid XML name. Each rune that cannot appear at
// its position is replaced by an escape of the form _xHHHH_ (or
// _xHHHHHHHH_ outside the basic multilingual plane). An underscore that
// would otherwise be read as the start of an escape is itself escaped.
// Colons are permitted.
func EncodeName(s string) string { return encodeName(s, false) }

// EncodeLocalName is like EncodeName, but also escapes colons, so the
// result has no prefix.
func EncodeLocalName(s string) string { return encodeName(s, true) }

func encodeName(s string, local bool) string {
	var sb strings.Builder
	first := true
	for i, r := range s {
		ok := isNameChar(r)
		if first {
			ok = isNameStart(r)
		}
		if r == ':' {
			ok = !local
		} else if r == '_' && isEscapeAt(s[i:]) {
			ok = false
		} else if r == utf8.RuneError {
			ok = false
		}
		first = false
		if ok {
			sb.WriteRune(r)
			continue
		}
		if r > 0xFFFF {
			fmt.Fprintf(&sb, "_x%08X_", r)
		} else {
			fmt.Fprintf(&sb, "_x%04X_", r)
		}
	}
	return sb.String()
}

// DecodeName reverses the escapes applied by EncodeName. Text that does not
// form a valid escape is copied unchanged.
func DecodeName(s string) string {
	if !strings.Contains(s, "_x") && !strings.Contains(s, "_X") {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); {
		if n, r := escapeAt(s[i:]); n > 0 {
			sb.WriteRune(r)
			i += n
			continue
		}
		sb.WriteByte(s[i])
		i++
	}
	return sb.String()
}

func isEscapeAt(s string) bool { n, _ := escapeAt(s); return n > 0 }

// escapeAt reports the length and value of an escape at the start of s, or
// 0 if s does not begin with an escape.
func escapeAt(s string) (int, rune) {
	if len(s) < 7 || s[0] != '_' || (s[1] != 'x' && s[1] != 'X') {
		return 0, 0
	}
	for _, n := range []int{8, 4} {
		if len(s) < n+3 || s[n+2] != '_' {
			continue
		}
		v, err := strconv.ParseUint(s[2:2+n], 16, 32)
		if err == nil && isHex(s[2:2+n]) {
			return n + 3, rune(v)
		}
	}
	return 0, 0
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// nameStart holds the runes permitted at the start of an XML name, apart
// from the colon.
var nameStart = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 'A', Hi: 'Z', Stride: 1},
		{Lo: '_', Hi: '_', Stride: 1},
		{Lo: 'a', Hi: 'z', Stride: 1},
		{Lo: 0xC0, Hi: 0xD6, Stride: 1},
		{Lo: 0xD8, Hi: 0xF6, Stride: 1},
		{Lo: 0xF8, Hi: 0x2FF, Stride: 1},
		{Lo: 0x370, Hi: 0x37D, Stride: 1},
		{Lo: 0x37F, Hi: 0x1FFF, Stride: 1},
		{Lo: 0x200C, Hi: 0x200D, Stride: 1},
		{Lo: 0x2070, Hi: 0x218F, Stride: 1},
		{Lo: 0x2C00, Hi: 0x2FEF, Stride: 1},
		{Lo: 0x3001, Hi: 0xD7FF, Stride: 1},
		{Lo: 0xF900, Hi: 0xFDCF, Stride: 1},
		{Lo: 0xFDF0, Hi: 0xFFFD, Stride: 1},
	},
	R32: []unicode.Range32{
		{Lo: 0x10000, Hi: 0xEFFFF, Stride: 1},
	},
}

// nameExtra holds the runes permitted after the first position of an XML
// name in addition to those of nameStart.
var nameExtra = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: '-', Hi: '.', Stride: 1},
		{Lo: '0', Hi: '9', Stride: 1},
		{Lo: 0xB7, Hi: 0xB7, Stride: 1},
		{Lo: 0x300, Hi: 0x36F, Stride: 1},
		{Lo: 0x203F, Hi: 0x2040, Stride: 1},
	},
}

func isNameStart(r rune) bool { return unicode.Is(nameStart, r) }

func isNameChar(r rune) bool { return unicode.Is(nameStart, r) || unicode.Is(nameExtra, r) }
