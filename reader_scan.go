// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jdom

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"unicode/utf8"

	"github.com/creachadair/jdom/internal/escape"
	"go4.org/mem"
)

// step runs the scanner from the current state. It reports true if it
// produced a token or reached the end of the input, false if it consumed
// input without producing a token.
func (r *Reader) step() bool {
	switch r.state {
	case stateStart, stateProperty, stateArrayStart, stateArray, stateConstructorStart, stateConstructor:
		r.skipSpace()
		return r.parseValue()
	case stateObjectStart, stateObject:
		r.skipSpace()
		return r.parseProperty()
	case statePostValue:
		r.skipSpace()
		return r.parsePostValue()
	case stateFinished:
		r.skipSpace()
		return r.parseFinished()
	}
	panic(fmt.Sprintf("jdom: unexpected reader state %v", r.state))
}

// skipSpace consumes whitespace, and comments if they are ignored.
func (r *Reader) skipSpace() {
	for {
		i := r.pos
		for i < len(r.buf) && isSpace(int(r.buf[i])) {
			i++
		}
		r.commit(i)
		if i == len(r.buf) && !r.eof {
			panic(errNeedMore{})
		}
		if r.comments != CommentsIgnore || i == len(r.buf) || r.buf[i] != '/' {
			return
		}
		c := r.cursor()
		r.scanComment(c)
		r.commit(c.i)
	}
}

func (r *Reader) parseValue() bool {
	c := r.cursor()
	ch, n := c.peek()
	switch ch {
	case eofRune:
		if r.state == stateStart {
			return true // end of input
		}
		r.failAt(c.i, StructuralError, "unexpected end of input")
	case '{':
		c.i += n
		r.startContainer(c, StartObject, nil)
	case '[':
		c.i += n
		r.startContainer(c, StartArray, nil)
	case ']':
		r.closeInValue(c, ch, n, stateArrayStart, stateArray, EndArray)
	case ')':
		r.closeInValue(c, ch, n, stateConstructorStart, stateConstructor, EndConstructor)
	case ',':
		if !r.sparse || !r.inSequence() {
			r.failAt(c.i+n, LexicalError, "unexpected %q while parsing value", ch)
		}
		// The comma is not consumed here; it separates the placeholder from
		// the following element.
		r.beginValue()
		r.emit(c, Undefined, nil)
		r.afterValue()
	case '"', '\'':
		r.scanStringValue(c)
	case '/':
		r.scanCommentToken(c)
	case 't':
		r.scanConstant(c, "true", Boolean, true)
	case 'f':
		r.scanConstant(c, "false", Boolean, false)
	case 'n':
		if c.byteAt(c.i+1) == 'e' {
			r.scanConstructor(c)
		} else {
			r.scanConstant(c, "null", Null, nil)
		}
	case 'u':
		r.scanConstant(c, "undefined", Undefined, nil)
	case 'N':
		r.scanFloatConstant(c, "NaN", math.NaN())
	case 'I':
		r.scanFloatConstant(c, "Infinity", math.Inf(1))
	default:
		if ch == '-' || ch == '.' || isDigit(int(ch)) {
			r.scanNumber(c)
			break
		}
		r.failAt(c.i+n, LexicalError, "unexpected %q while parsing value", ch)
	}
	return true
}

// inSequence reports whether the reader expects an array or constructor
// element.
func (r *Reader) inSequence() bool {
	switch r.state {
	case stateArrayStart, stateArray, stateConstructorStart, stateConstructor:
		return true
	}
	return false
}

func (r *Reader) parseProperty() bool {
	c := r.cursor()
	ch, n := c.peek()
	switch {
	case ch == '}':
		if r.state == stateObject && !r.tcomma {
			r.failAt(c.i+n, StructuralError, "trailing comma before %q", ch)
		}
		r.endContainer(c, ch, n, EndObject)
		return true
	case ch == '/':
		r.scanCommentToken(c)
		return true
	case ch == eofRune:
		r.failAt(c.i, StructuralError, "unexpected end of input")
	}

	var name string
	switch {
	case ch == '"' || ch == '\'':
		name = r.scanQuoted(c)
	case escape.IsIdentRune(ch, true):
		start := c.i
		for {
			ch, n := c.peek()
			if ch == eofRune || !escape.IsIdentRune(ch, false) {
				break
			}
			c.i += n
		}
		name = string(c.buf[start:c.i])
	default:
		r.failAt(c.i+n, LexicalError, "invalid %q in property name", ch)
	}
	end := c.i

	// Comments between the name and the colon are discarded.
	for {
		c.skipSpace()
		ch, n = c.peek()
		if ch != '/' {
			break
		}
		if r.comments == CommentsError {
			r.failAt(c.i+n, LexicalError, "comments are not allowed")
		}
		r.scanComment(c)
	}
	if ch == eofRune {
		r.failAt(c.i, StructuralError, "unexpected end of input")
	} else if ch != ':' {
		r.failAt(c.i+n, LexicalError, "unexpected %q after property name, expected \":\"", ch)
	}
	c.i += n

	top := &r.stack[len(r.stack)-1]
	top.name, top.named = name, true
	r.emitText(c, PropertyName, name, end)
	r.state = stateProperty
	return true
}

func (r *Reader) parsePostValue() bool {
	c := r.cursor()
	ch, n := c.peek()
	switch ch {
	case '}':
		r.endContainer(c, ch, n, EndObject)
	case ']':
		r.endContainer(c, ch, n, EndArray)
	case ')':
		r.endContainer(c, ch, n, EndConstructor)
	case ',':
		c.i += n
		r.commit(c.i)
		switch r.stack[len(r.stack)-1].kind {
		case StartObject:
			r.state = stateObject
		case StartArray:
			r.state = stateArray
		default:
			r.state = stateConstructor
		}
		return false
	case '/':
		r.scanCommentToken(c)
	case eofRune:
		r.failAt(c.i, StructuralError, "unexpected end of input")
	default:
		r.failAt(c.i+n, LexicalError, "unexpected %q after value", ch)
	}
	return true
}

func (r *Reader) parseFinished() bool {
	c := r.cursor()
	ch, n := c.peek()
	switch ch {
	case eofRune:
		// end of input
	case '/':
		r.scanCommentToken(c)
	default:
		r.failAt(c.i+n, LexicalError, "unexpected %q after the end of the value", ch)
	}
	return true
}

// beginValue records the start of a value in the enclosing container.
func (r *Reader) beginValue() {
	if n := len(r.stack); n != 0 && r.stack[n-1].kind != StartObject {
		r.stack[n-1].index++
	}
}

// afterValue sets the state following a complete value.
func (r *Reader) afterValue() {
	switch {
	case len(r.stack) != 0:
		r.state = statePostValue
	case r.multi:
		r.state = stateStart
	default:
		r.state = stateFinished
	}
}

func (r *Reader) startContainer(c *cursor, tok TokenKind, v any) {
	if r.maxDepth > 0 && len(r.stack) >= r.maxDepth {
		r.failAt(c.i, StructuralError, "maximum depth of %d exceeded", r.maxDepth)
	}
	r.beginValue()
	r.stack = append(r.stack, newFrame(tok))
	r.emit(c, tok, v)
	switch tok {
	case StartObject:
		r.state = stateObjectStart
	case StartArray:
		r.state = stateArrayStart
	default:
		r.state = stateConstructorStart
	}
}

// closeInValue handles a close bracket where a value could begin: it is
// valid only in an empty container, or after a trailing comma if those are
// allowed.
func (r *Reader) closeInValue(c *cursor, ch rune, n int, open, comma readState, end TokenKind) {
	switch r.state {
	case open:
	case comma:
		if !r.tcomma {
			r.failAt(c.i+n, StructuralError, "trailing comma before %q", ch)
		}
	default:
		r.failAt(c.i+n, LexicalError, "unexpected %q while parsing value", ch)
	}
	r.endContainer(c, ch, n, end)
}

var closer = map[TokenKind]rune{StartObject: '}', StartArray: ']', StartConstructor: ')'}

func (r *Reader) endContainer(c *cursor, ch rune, n int, end TokenKind) {
	top := len(r.stack) - 1
	if top < 0 {
		r.failAt(c.i+n, StructuralError, "unexpected %q", ch)
	} else if kind := r.stack[top].kind; kind.endOf() != end {
		r.failAt(c.i+n, StructuralError, "unexpected %q, expected %q", ch, closer[kind])
	}
	c.i += n
	r.stack = r.stack[:top]
	r.emit(c, end, nil)
	r.afterValue()
}

// scanComment scans a comment at the cursor and returns its text without
// delimiters.
func (r *Reader) scanComment(c *cursor) string {
	start := c.i
	switch c.byteAt(c.i + 1) {
	case '*':
		c.i += 2
		j := bytes.Index(c.buf[c.i:], []byte("*/"))
		if j < 0 {
			if c.eof {
				r.failAt(len(c.buf), LexicalError, "unterminated block comment")
			}
			panic(errNeedMore{})
		}
		text := string(c.buf[c.i : c.i+j])
		c.i += j + 2
		return text
	case '/':
		c.i += 2
		j := bytes.IndexAny(c.buf[c.i:], "\r\n")
		if j < 0 {
			if !c.eof {
				panic(errNeedMore{})
			}
			j = len(c.buf) - c.i
		}
		text := string(c.buf[c.i : c.i+j])
		c.i += j
		return text
	}
	r.failAt(start+1, LexicalError, "invalid comment, expected \"*\" or \"/\" after \"/\"")
	panic("unreachable")
}

func (r *Reader) scanCommentToken(c *cursor) {
	if r.comments == CommentsError {
		r.failAt(c.i+1, LexicalError, "comments are not allowed")
	}
	text := r.scanComment(c)
	r.emit(c, Comment, text)
}

// scanQuoted scans a quoted string at the cursor and returns its decoded
// contents.
func (r *Reader) scanQuoted(c *cursor) string {
	q := c.buf[c.i]
	c.i++
	start := c.i
	esc := false
	for {
		if c.i >= len(c.buf) {
			if c.eof {
				r.failAt(c.i, LexicalError, "unterminated string")
			}
			panic(errNeedMore{})
		}
		switch b := c.buf[c.i]; b {
		case q:
			body := c.buf[start:c.i]
			c.i++
			if !esc {
				return string(body)
			}
			dec, err := escape.Unquote(mem.B(body))
			if err != nil {
				r.failAt(c.i, LexicalError, "invalid string: %v", err)
			}
			return string(dec)

		case '\\':
			esc = true
			switch e := c.byteAt(c.i + 1); e {
			case '"', '\'', '\\', '/', 'b', 'f', 'n', 'r', 't':
				c.i += 2
			case 'u':
				for k := 2; k < 6; k++ {
					if h := c.byteAt(c.i + k); h == eofRune {
						r.failAt(c.i+k, LexicalError, "unterminated string")
					} else if !isHexDigit(h) {
						r.failAt(c.i+k+1, LexicalError, "invalid Unicode escape: %q is not a hex digit", rune(h))
					}
				}
				c.i += 6
			case eofRune:
				r.failAt(c.i+1, LexicalError, "unterminated string")
			default:
				if !c.eof && !utf8.FullRune(c.buf[c.i+1:]) {
					panic(errNeedMore{})
				}
				bad, n := utf8.DecodeRune(c.buf[c.i+1:])
				r.failAt(c.i+1+n, LexicalError, "invalid escape %q", `\`+string(bad))
			}

		default:
			c.i++
		}
	}
}

func (r *Reader) scanStringValue(c *cursor) {
	s := r.scanQuoted(c)
	tok, v := String, any(s)
	switch r.rtype {
	case readBytes:
		data, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			r.failAt(c.i, CoercionError, "invalid base64 string: %v", err)
		}
		tok, v = Bytes, data
	case readDate:
		if t, ok := ParseDate(s); ok {
			tok, v = Date, t
		}
	case readNone:
		if r.dateParse == DateTime {
			if t, ok := ParseDate(s); ok {
				tok, v = Date, t
			}
		}
	}
	r.beginValue()
	r.emit(c, tok, v)
	r.afterValue()
}

// matchWord consumes word at the cursor, or reports an error.
func (r *Reader) matchWord(c *cursor, word string) {
	avail := mem.B(c.buf[c.i:])
	if mem.HasPrefix(avail, mem.S(word)) {
		c.i += len(word)
		return
	}
	if avail.Len() < len(word) && !c.eof && mem.HasPrefix(mem.S(word), avail) {
		panic(errNeedMore{})
	}

	// Report the whole run of letters that did not match.
	end := c.i + 1
	for end < len(c.buf) && isLetter(c.buf[end]) {
		end++
	}
	r.failAt(end, LexicalError, "unknown constant %q", c.buf[c.i:end])
}

func isLetter(b byte) bool { return 'a' <= b && b <= 'z' || 'A' <= b && b <= 'Z' }

// checkDelim reports an error unless the cursor is at a character that can
// follow a literal or number.
func (r *Reader) checkDelim(c *cursor, what string) {
	ch, n := c.peek()
	switch ch {
	case eofRune, ',', ']', '}', ')', '/':
		return
	}
	if isSpace(int(ch)) {
		return
	}
	r.failAt(c.i+n, LexicalError, "unexpected %q after %s", ch, what)
}

func (r *Reader) scanConstant(c *cursor, word string, tok TokenKind, v any) {
	r.matchWord(c, word)
	r.checkDelim(c, word)
	r.beginValue()
	r.emit(c, tok, v)
	r.afterValue()
}

func (r *Reader) scanFloatConstant(c *cursor, word string, f float64) {
	r.matchWord(c, word)
	r.checkDelim(c, word)
	tok, v := Float, any(f)
	if r.rtype == readString {
		tok, v = String, word
	}
	r.beginValue()
	r.emit(c, tok, v)
	r.afterValue()
}

func (r *Reader) scanConstructor(c *cursor) {
	r.matchWord(c, "new")
	if ch, n := c.peek(); ch == eofRune {
		r.failAt(c.i, StructuralError, "unexpected end of input")
	} else if !isSpace(int(ch)) {
		r.failAt(c.i+n, LexicalError, "unexpected %q after \"new\"", ch)
	}
	c.skipSpace()

	start := c.i
	for {
		ch, n := c.peek()
		if ch == eofRune || !escape.IsIdentRune(ch, c.i == start) {
			break
		}
		c.i += n
	}
	name := string(c.buf[start:c.i])
	c.skipSpace()
	if ch, n := c.peek(); ch == eofRune {
		r.failAt(c.i, StructuralError, "unexpected end of input")
	} else if ch != '(' || name == "" {
		r.failAt(c.i+n, LexicalError, "unexpected %q in constructor", ch)
	} else {
		c.i += n
	}
	r.startContainer(c, StartConstructor, name)
}

func (r *Reader) scanNumber(c *cursor) {
	start := c.i
	if c.buf[c.i] == '-' {
		c.i++
		if c.byteAt(c.i) == 'I' {
			c.i = start
			r.scanFloatConstant(c, "-Infinity", math.Inf(-1))
			return
		}
	}

	// Check for extra leading zeroes: 0.12 is OK, 01.2 is not.
	switch b := c.byteAt(c.i); {
	case b == '0':
		c.i++
		if isDigit(c.byteAt(c.i)) {
			r.failAt(c.i+1, LexicalError, "extra leading zeroes")
		}
	case isDigit(b):
		c.skipDigits()
	case b == eofRune:
		r.failAt(c.i, LexicalError, "missing digits in number")
	default:
		r.failAt(c.i+1, LexicalError, "missing digits in number")
	}

	isFloat := false
	if c.byteAt(c.i) == '.' {
		c.i++
		if !isDigit(c.byteAt(c.i)) {
			r.failAt(c.i, LexicalError, "no digits after decimal point")
		}
		c.skipDigits()
		isFloat = true
	}
	if b := c.byteAt(c.i); b == 'e' || b == 'E' {
		c.i++
		if b := c.byteAt(c.i); b == '+' || b == '-' {
			c.i++
		}
		if !isDigit(c.byteAt(c.i)) {
			r.failAt(c.i, LexicalError, "missing exponent digits")
		}
		c.skipDigits()
		isFloat = true
	}
	r.checkDelim(c, "number")

	tok, v := r.convertNumber(c, string(c.buf[start:c.i]), isFloat)
	r.beginValue()
	r.emit(c, tok, v)
	r.afterValue()
}

// convertNumber converts the text of a number to a token value, guided by the
// type requested by a typed read.
func (r *Reader) convertNumber(c *cursor, text string, isFloat bool) (TokenKind, any) {
	switch r.rtype {
	case readString:
		return String, text
	case readDecimal:
		d, err := ParseDecimal(text)
		if err != nil {
			r.failAt(c.i, CoercionError, "cannot convert %s to decimal: %v", text, err)
		}
		return Float, d
	case readDouble:
		return Float, parseFloat(text)
	case readInt32:
		if isFloat {
			r.failAt(c.i, CoercionError, "input %s is not a valid integer", text)
		}
		v, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			r.failAt(c.i, CoercionError, "value %s is out of range for int32", text)
		}
		return Integer, v
	}

	if !isFloat {
		if v, err := strconv.ParseInt(text, 10, 64); err == nil {
			return Integer, v
		}
		b, _ := new(big.Int).SetString(text, 10)
		return Integer, b
	}
	if r.floatParse == FloatDecimal {
		if d, err := ParseDecimal(text); err == nil {
			return Float, d
		}
	}
	return Float, parseFloat(text)
}

// parseFloat parses the text of a number. Values too large in magnitude
// become infinities.
func parseFloat(text string) float64 {
	f, _ := strconv.ParseFloat(text, 64)
	return f
}
