// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jdom

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/creachadair/jdom/internal/escape"
	"go4.org/mem"
)

// FloatFormat selects how a Writer renders NaN and infinite values.
type FloatFormat byte

const (
	FloatSymbol       FloatFormat = iota // NaN, Infinity, -Infinity (default)
	FloatString                          // "NaN", "Infinity", "-Infinity"
	FloatDefaultValue                    // 0.0
)

// A Writer writes JSON text for a sequence of tokens. It implements the
// TokenWriter interface. Output is buffered; call Flush or Close when done.
//
// Multiple top-level values are separated by newlines.
type Writer struct {
	w          *bufio.Writer
	prefix     string
	indent     string
	quote      byte
	quoteNames bool
	floats     FloatFormat
	html       bool
	dateFormat string

	stack []writeFrame
	top   int // the number of top-level items written
}

type writeFrame struct {
	pathFrame
	count int  // the number of elements or members written
	await bool // a property name was written, and its value is pending
}

// NewWriter constructs a Writer that writes compact JSON text to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w), quote: '"', quoteNames: true}
}

// SetIndent configures w to put each element of an object or array on a new
// line beginning with prefix followed by one copy of indent per level of
// nesting. If both are empty, output is compact.
func (w *Writer) SetIndent(prefix, indent string) { w.prefix, w.indent = prefix, indent }

// SetQuoteChar sets the delimiter for strings, either '"' (the default) or
// '\''.
func (w *Writer) SetQuoteChar(q byte) {
	if q == '"' || q == '\'' {
		w.quote = q
	}
}

// SetQuoteNames configures whether property names are always quoted (true,
// the default), or only when they are not valid identifiers (false).
func (w *Writer) SetQuoteNames(ok bool) { w.quoteNames = ok }

// SetFloatFormat sets how NaN and infinite values are written.
func (w *Writer) SetFloatFormat(f FloatFormat) { w.floats = f }

// SetEscapeHTML configures whether the characters <, >, and & are escaped in
// strings. The default is false.
func (w *Writer) SetEscapeHTML(ok bool) { w.html = ok }

// SetDateFormat sets the time layout used for dates. The default is
// time.RFC3339Nano. MSDateFormat selects the /Date(ms)/ form.
func (w *Writer) SetDateFormat(layout string) { w.dateFormat = layout }

// Depth reports the number of containers currently open.
func (w *Writer) Depth() int { return len(w.stack) }

// Path reports the JSON path of the position being written.
func (w *Writer) Path() string {
	frames := make([]pathFrame, len(w.stack))
	for i, f := range w.stack {
		frames[i] = f.pathFrame
	}
	return renderPath(frames)
}

func (w *Writer) errorf(msg string, args ...any) error {
	return &SyntaxError{Kind: StructuralError, Path: w.Path(), Message: fmt.Sprintf(msg, args...)}
}

func (w *Writer) indenting() bool { return w.prefix != "" || w.indent != "" }

func (w *Writer) newline(depth int) {
	if w.indenting() {
		w.w.WriteByte('\n')
		w.w.WriteString(w.prefix)
		for range depth {
			w.w.WriteString(w.indent)
		}
	}
}

// beginValue writes the separators that precede a value.
func (w *Writer) beginValue() error {
	n := len(w.stack)
	if n == 0 {
		if w.top > 0 {
			w.w.WriteByte('\n')
		}
		w.top++
		return nil
	}
	f := &w.stack[n-1]
	switch f.kind {
	case StartObject:
		if !f.await {
			return w.errorf("a property name is required before a value in an object")
		}
		f.await = false
		return nil
	case StartArray:
		if f.count > 0 {
			w.w.WriteByte(',')
		}
		w.newline(n)
	default:
		if f.count > 0 {
			w.w.WriteByte(',')
			if w.indenting() {
				w.w.WriteByte(' ')
			}
		}
	}
	f.count++
	f.index++
	return nil
}

func (w *Writer) start(kind TokenKind, text string) error {
	if err := w.beginValue(); err != nil {
		return err
	}
	w.w.WriteString(text)
	w.stack = append(w.stack, writeFrame{pathFrame: newFrame(kind)})
	return nil
}

func (w *Writer) end(kind TokenKind, close byte) error {
	n := len(w.stack)
	if n == 0 || w.stack[n-1].kind != kind {
		return w.errorf("unexpected %v", kind.endOf())
	}
	f := w.stack[n-1]
	if f.await {
		return w.errorf("missing value for property %q", f.name)
	}
	w.stack = w.stack[:n-1]
	if f.count > 0 && kind != StartConstructor {
		w.newline(n - 1)
	}
	w.w.WriteByte(close)
	return nil
}

// WriteStartObject begins a new object.
func (w *Writer) WriteStartObject() error { return w.start(StartObject, "{") }

// WriteEndObject ends the innermost open object.
func (w *Writer) WriteEndObject() error { return w.end(StartObject, '}') }

// WriteStartArray begins a new array.
func (w *Writer) WriteStartArray() error { return w.start(StartArray, "[") }

// WriteEndArray ends the innermost open array.
func (w *Writer) WriteEndArray() error { return w.end(StartArray, ']') }

// WriteStartConstructor begins a constructor with the given name.
// Constructor arguments are written on one line.
func (w *Writer) WriteStartConstructor(name string) error {
	if escape.NeedsQuote(name) {
		return w.errorf("invalid constructor name %q", name)
	}
	return w.start(StartConstructor, "new "+name+"(")
}

// WriteEndConstructor ends the innermost open constructor.
func (w *Writer) WriteEndConstructor() error { return w.end(StartConstructor, ')') }

// WritePropertyName writes the name of an object member.
func (w *Writer) WritePropertyName(name string) error {
	n := len(w.stack)
	if n == 0 || w.stack[n-1].kind != StartObject {
		return w.errorf("property name %q outside an object", name)
	}
	f := &w.stack[n-1]
	if f.await {
		return w.errorf("missing value for property %q", f.name)
	}
	if f.count > 0 {
		w.w.WriteByte(',')
	}
	w.newline(n)
	if !w.quoteNames && !escape.NeedsQuote(name) {
		w.w.WriteString(name)
	} else {
		w.writeString(name)
	}
	w.w.WriteByte(':')
	if w.indenting() {
		w.w.WriteByte(' ')
	}
	f.name, f.named, f.await = name, true, true
	f.count++
	return nil
}

// WriteValue writes a scalar value. See [TokenWriter] for the accepted
// types.
func (w *Writer) WriteValue(v any) error {
	text, err := w.valueText(v)
	if err != nil {
		return w.errorf("%v", err)
	}
	return w.WriteRaw(text)
}

// WriteNull writes a null value.
func (w *Writer) WriteNull() error { return w.WriteRaw("null") }

// WriteUndefined writes an undefined value.
func (w *Writer) WriteUndefined() error { return w.WriteRaw("undefined") }

// WriteRaw writes text as a complete value, without checking it.
func (w *Writer) WriteRaw(text string) error {
	if err := w.beginValue(); err != nil {
		return err
	}
	w.w.WriteString(text)
	return nil
}

// WriteComment writes a block comment containing text.
func (w *Writer) WriteComment(text string) error {
	if n := len(w.stack); n == 0 {
		if w.top > 0 {
			w.w.WriteByte('\n')
		}
		w.top++
	} else if f := w.stack[n-1]; f.kind != StartConstructor && !f.await {
		w.newline(n)
	}
	w.w.WriteString("/*")
	w.w.WriteString(text)
	w.w.WriteString("*/")
	return nil
}

// WriteToken copies the current token of r, and its contents if it is a
// container, to w. See [WriteToken].
func (w *Writer) WriteToken(r TokenReader) error { return WriteToken(w, r) }

// Flush writes any buffered output to the underlying writer.
func (w *Writer) Flush() error { return w.w.Flush() }

// Close ends any open containers and flushes the output.
func (w *Writer) Close() error {
	for len(w.stack) != 0 {
		f := w.stack[len(w.stack)-1]
		if f.await {
			w.WriteNull()
		}
		var err error
		switch f.kind {
		case StartObject:
			err = w.WriteEndObject()
		case StartArray:
			err = w.WriteEndArray()
		default:
			err = w.WriteEndConstructor()
		}
		if err != nil {
			return err
		}
	}
	return w.Flush()
}

func (w *Writer) writeString(s string) {
	w.w.WriteByte(w.quote)
	w.w.Write(escape.Quote(mem.S(s), escape.Options{Quote: w.quote, HTML: w.html}))
	w.w.WriteByte(w.quote)
}

func (w *Writer) quoted(s string) string {
	var sb strings.Builder
	sb.WriteByte(w.quote)
	sb.Write(escape.Quote(mem.S(s), escape.Options{Quote: w.quote, HTML: w.html}))
	sb.WriteByte(w.quote)
	return sb.String()
}

// valueText renders a scalar value as JSON text.
func (w *Writer) valueText(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "null", nil
	case string:
		return w.quoted(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float32:
		return w.floatText(float64(v), 32), nil
	case float64:
		return w.floatText(v, 64), nil
	case *big.Int:
		if v == nil {
			return "null", nil
		}
		return v.String(), nil
	case Decimal:
		s := v.String()
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s, nil
	case time.Time:
		return w.quoted(w.formatDate(v)), nil
	case []byte:
		if v == nil {
			return "null", nil
		}
		return w.quoted(base64.StdEncoding.EncodeToString(v)), nil
	}
	return "", fmt.Errorf("unsupported value type %T", v)
}

func (w *Writer) floatText(f float64, bits int) string {
	if !math.IsNaN(f) && !math.IsInf(f, 0) {
		return FormatFloat(f, bits)
	}
	sym := "NaN"
	if math.IsInf(f, 1) {
		sym = "Infinity"
	} else if math.IsInf(f, -1) {
		sym = "-Infinity"
	}
	switch w.floats {
	case FloatString:
		return w.quoted(sym)
	case FloatDefaultValue:
		return "0.0"
	}
	return sym
}

func (w *Writer) formatDate(t time.Time) string {
	switch w.dateFormat {
	case "":
		return t.Format(time.RFC3339Nano)
	case MSDateFormat:
		return FormatMSDate(t)
	}
	return t.Format(w.dateFormat)
}

// FormatFloat formats a finite floating-point value of the given bit size
// (32 or 64) so that it reads back as a Float token: the result always has
// a decimal point or an exponent.
func FormatFloat(f float64, bits int) string {
	abs := math.Abs(f)
	fc := byte('f')
	if abs != 0 {
		if bits == 64 && (abs < 1e-6 || abs >= 1e21) || bits == 32 && (float32(abs) < 1e-6 || float32(abs) >= 1e21) {
			fc = 'e'
		}
	}
	s := strconv.FormatFloat(f, fc, -1, bits)
	if fc == 'e' {
		// Clean up e-09 to e-9.
		if n := len(s); n >= 4 && s[n-4] == 'e' && s[n-3] == '-' && s[n-2] == '0' {
			s = s[:n-2] + s[n-1:]
		}
	}
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
