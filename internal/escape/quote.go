// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

package escape

import (
	"unicode/utf8"

	"go4.org/mem"
)

var controlEsc = [...]byte{
	'\b': 'b',
	'\f': 'f',
	'\n': 'n',
	'\r': 'r',
	'\t': 't',
	' ':  ' ', // sentinel
}

var hexDigit = []byte("0123456789abcdef")

// Options control how Quote escapes its input.
type Options struct {
	// Quote is the delimiter the output will be enclosed by ('"' or '\'').
	// Occurrences of this character are escaped. Zero means '"'.
	Quote byte

	// HTML, if true, escapes '<', '>', and '&' so the output is safe to embed
	// in HTML.
	HTML bool
}

// Quote encodes a string to escape characters for inclusion in a JSON string.
// The result does not include the enclosing quotation marks.
func Quote(src mem.RO, opts Options) []byte {
	q := opts.Quote
	if q == 0 {
		q = '"'
	}
	buf := make([]byte, 0, src.Len())
	putByte := func(bs ...byte) { buf = append(buf, bs...) }
	putHex := func(r rune) {
		putByte('\\', 'u', '0', '0', hexDigit[int(r>>4)], hexDigit[int(r&15)])
	}

	for src.Len() != 0 {
		r, n := mem.DecodeRune(src)
		if r < utf8.RuneSelf {
			switch {
			case r < ' ':
				if b := controlEsc[r]; b != 0 && b != ' ' {
					putByte('\\', b)
				} else {
					putHex(r)
				}
			case r == '\\' || byte(r) == q:
				putByte('\\', byte(r))
			case opts.HTML && (r == '<' || r == '>' || r == '&'):
				putHex(r)
			case r == 0x7f:
				putHex(r)
			default:
				putByte(byte(r))
			}
			src = src.SliceFrom(n)
			continue
		}

		switch r {
		case '\u2028': // line separator
			buf = append(buf, `\u2028`...)
		case '\u2029': // paragraph separator
			buf = append(buf, `\u2029`...)
		default:
			// Invalid UTF-8 decodes as the replacement rune and is written as
			// such.
			buf = utf8.AppendRune(buf, r)
		}
		src = src.SliceFrom(n)
	}
	return buf
}

// NeedsQuote reports whether a property name must be quoted to be read back
// as an unquoted identifier.
func NeedsQuote(name string) bool {
	if name == "" {
		return true
	}
	for i, r := range name {
		if !IsIdentRune(r, i == 0) {
			return true
		}
	}
	return false
}

// IsIdentRune reports whether r may appear in an unquoted property name.
// The first rune of a name may not be a digit.
func IsIdentRune(r rune, first bool) bool {
	switch {
	case r == '_' || r == '$':
		return true
	case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z':
		return true
	case '0' <= r && r <= '9':
		return !first
	case r >= utf8.RuneSelf:
		return r != utf8.RuneError && r != '\u2028' && r != '\u2029' && r != '\ufeff' && r != '\u00a0'
	}
	return false
}
