// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package cborx writes JSON token streams as CBOR (RFC 8949).
//
// Objects and arrays are encoded as indefinite-length maps and arrays, so
// that each token is written as soon as it arrives. Multiple top-level
// values form a CBOR sequence (RFC 8742).
package cborx

import (
	"bufio"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/creachadair/jdom"
	"github.com/fxamacker/cbor/v2"
)

// Tag numbers from the IANA CBOR tag registry.
const (
	tagDateTime = 0 // RFC 3339 date/time string
	tagDecimal  = 4 // decimal fraction [exponent, mantissa]
)

var undefined = cbor.RawMessage{0xf7}

var encMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{
		ShortestFloat: cbor.ShortestFloat16,
		NaNConvert:    cbor.NaNConvert7e00,
		InfConvert:    cbor.InfConvertFloat16,
		BigIntConvert: cbor.BigIntConvertShortest,
		Time:          cbor.TimeRFC3339Nano,
		TimeTag:       cbor.EncTagRequired,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("cborx: invalid encoding options: %v", err))
	}
	return em
}()

// A Writer is a jdom.TokenWriter that encodes tokens as CBOR.
//
// Dates are written as tag 0 strings, byte slices as byte strings, and
// jdom.Decimal values as tag 4 decimal fractions. Comments are discarded,
// and constructors cannot be represented.
type Writer struct {
	buf   *bufio.Writer
	enc   *cbor.Encoder
	stack []wframe
}

type wframe struct {
	array bool
	n     int    // number of complete elements or members
	name  string // the pending property name
	named bool   // a property name is pending
}

// NewWriter constructs a Writer that writes CBOR to w.
func NewWriter(w io.Writer) *Writer {
	buf := bufio.NewWriter(w)
	return &Writer{buf: buf, enc: encMode.NewEncoder(buf)}
}

// Depth reports the number of open containers.
func (w *Writer) Depth() int { return len(w.stack) }

// Path returns the JSON path of the current position.
func (w *Writer) Path() string {
	var sb strings.Builder
	for _, f := range w.stack {
		if f.array {
			jdom.AppendPathIndex(&sb, f.n)
		} else if f.named {
			jdom.AppendPathName(&sb, f.name)
		}
	}
	return sb.String()
}

func (w *Writer) errorf(msg string, args ...any) error {
	return &jdom.SyntaxError{
		Kind:    jdom.StructuralError,
		Path:    w.Path(),
		Message: fmt.Sprintf(msg, args...),
	}
}

// beginValue checks that a value may be written at the current position.
func (w *Writer) beginValue() error {
	if len(w.stack) == 0 {
		return nil
	}
	f := &w.stack[len(w.stack)-1]
	if !f.array && !f.named {
		return w.errorf("a property name is required before a value in an object")
	}
	return nil
}

// endValue records the completion of a value at the current position.
func (w *Writer) endValue() {
	if len(w.stack) == 0 {
		return
	}
	f := &w.stack[len(w.stack)-1]
	f.n++
	f.name, f.named = "", false
}

func (w *Writer) encode(v any) error {
	if err := w.beginValue(); err != nil {
		return err
	}
	if err := w.enc.Encode(v); err != nil {
		return fmt.Errorf("encoding CBOR: %w", err)
	}
	w.endValue()
	return nil
}

func (w *Writer) open(array bool) error {
	if err := w.beginValue(); err != nil {
		return err
	}
	var err error
	if array {
		err = w.enc.StartIndefiniteArray()
	} else {
		err = w.enc.StartIndefiniteMap()
	}
	if err != nil {
		return fmt.Errorf("encoding CBOR: %w", err)
	}
	w.stack = append(w.stack, wframe{array: array})
	return nil
}

func (w *Writer) close(array bool) error {
	kind := "object"
	if array {
		kind = "array"
	}
	if len(w.stack) == 0 {
		return w.errorf("unexpected end of %s", kind)
	}
	f := w.stack[len(w.stack)-1]
	if f.array != array {
		return w.errorf("unexpected end of %s", kind)
	} else if f.named {
		return w.errorf("missing value for property %q", f.name)
	}
	if err := w.enc.EndIndefinite(); err != nil {
		return fmt.Errorf("encoding CBOR: %w", err)
	}
	w.stack = w.stack[:len(w.stack)-1]
	w.endValue()
	return nil
}

// WriteStartObject implements part of jdom.TokenWriter.
func (w *Writer) WriteStartObject() error { return w.open(false) }

// WriteEndObject implements part of jdom.TokenWriter.
func (w *Writer) WriteEndObject() error { return w.close(false) }

// WriteStartArray implements part of jdom.TokenWriter.
func (w *Writer) WriteStartArray() error { return w.open(true) }

// WriteEndArray implements part of jdom.TokenWriter.
func (w *Writer) WriteEndArray() error { return w.close(true) }

// WriteStartConstructor implements part of jdom.TokenWriter. CBOR has no
// constructors, so it always reports an error.
func (w *Writer) WriteStartConstructor(name string) error {
	return w.errorf("cannot write constructor %q to CBOR", name)
}

// WriteEndConstructor implements part of jdom.TokenWriter. It always
// reports an error.
func (w *Writer) WriteEndConstructor() error {
	return w.errorf("unexpected end of constructor")
}

// WritePropertyName implements part of jdom.TokenWriter.
func (w *Writer) WritePropertyName(name string) error {
	if len(w.stack) == 0 {
		return w.errorf("property name %q outside an object", name)
	}
	f := &w.stack[len(w.stack)-1]
	if f.array {
		return w.errorf("property name %q outside an object", name)
	} else if f.named {
		return w.errorf("missing value for property %q", f.name)
	}
	if err := w.enc.Encode(name); err != nil {
		return fmt.Errorf("encoding CBOR: %w", err)
	}
	f.name, f.named = name, true
	return nil
}

// WriteValue implements part of jdom.TokenWriter.
func (w *Writer) WriteValue(v any) error {
	switch t := v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, time.Time:
		return w.encode(v)
	case *big.Int:
		if t == nil {
			return w.encode(nil)
		}
		return w.encode(t)
	case []byte:
		if t == nil {
			return w.encode(nil)
		}
		return w.encode(t)
	case jdom.Decimal:
		return w.encode(cbor.Tag{
			Number:  tagDecimal,
			Content: []any{-t.Scale(), t.Mantissa()},
		})
	}
	return w.errorf("unsupported value type %T", v)
}

// WriteNull implements part of jdom.TokenWriter.
func (w *Writer) WriteNull() error { return w.encode(nil) }

// WriteUndefined implements part of jdom.TokenWriter.
func (w *Writer) WriteUndefined() error { return w.encode(undefined) }

// WriteComment implements part of jdom.TokenWriter. CBOR has no comments,
// so the text is discarded.
func (w *Writer) WriteComment(text string) error { return nil }

// WriteRaw implements part of jdom.TokenWriter. The text must be a single
// complete JSON value, which is parsed and written as tokens.
func (w *Writer) WriteRaw(text string) error {
	rd := jdom.NewReader(strings.NewReader(text))
	if err := jdom.WriteToken(w, rd); err == io.EOF {
		return w.errorf("raw text has no value")
	} else if err != nil {
		return err
	}
	for {
		if err := rd.Next(); err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
	}
}

// Flush implements part of jdom.TokenWriter.
func (w *Writer) Flush() error { return w.buf.Flush() }

// Close flushes the writer, and reports an error if a container is still
// open.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		return err
	}
	if len(w.stack) != 0 {
		return w.errorf("unexpected end of input")
	}
	return nil
}
