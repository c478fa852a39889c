// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jdom

import (
	"fmt"
	"io"
)

// An Anchor reports the current token of a token source: its kind, value,
// path, and location.
type Anchor interface {
	Token() TokenKind  // Returns the kind of the current token
	Value() any        // Returns the value of the current token
	Path() string      // Returns the JSON path of the current token
	Location() LineCol // Returns the location of the current token, or zero
}

// A TokenReader is a source of tokens.
//
// Next advances to the next token, and returns io.EOF at the end of input.
// Depth reports the container nesting depth of the current token, counting
// top-level values as depth 0.
type TokenReader interface {
	Anchor
	Next() error
	Depth() int
}

// A TokenWriter is a sink for tokens. Implementations check that calls form
// a valid sequence, and report an error if not.
//
// WriteValue accepts nil, string, bool, all the built-in integer and
// floating-point types, *big.Int, Decimal, time.Time, and []byte.
// WriteRaw writes a complete value given as JSON text.
type TokenWriter interface {
	WriteStartObject() error
	WriteEndObject() error
	WriteStartArray() error
	WriteEndArray() error
	WriteStartConstructor(name string) error
	WriteEndConstructor() error
	WritePropertyName(name string) error
	WriteValue(v any) error
	WriteNull() error
	WriteUndefined() error
	WriteComment(text string) error
	WriteRaw(text string) error
	Flush() error
}

// WriteToken copies the current token of r to w. If the current token starts
// a container, the whole container is copied, leaving r at the token that
// ends it. If r has no current token, WriteToken first advances r, and
// returns io.EOF if r has no more input.
//
// If r ends before a container it started is closed, WriteToken reports a
// *SyntaxError with kind StructuralError.
func WriteToken(w TokenWriter, r TokenReader) error {
	h := &copyHandler{w: w}
	if err := NewStreamWithReader(r).ParseOne(h); err != nil {
		return err
	}
	return h.err
}

// WriteTokens copies all remaining values of r to w.
func WriteTokens(w TokenWriter, r TokenReader) error {
	s := NewStreamWithReader(r)
	h := &copyHandler{w: w}
	for {
		if err := s.ParseOne(h); err == io.EOF {
			if h.err != nil {
				return h.err
			}
			return w.Flush()
		} else if err != nil {
			return err
		} else if h.err != nil {
			return h.err
		}
	}
}

// WriteScalar writes the value of a scalar token of the given kind to w.
func WriteScalar(w TokenWriter, kind TokenKind, v any) error {
	switch kind {
	case Null:
		return w.WriteNull()
	case Undefined:
		return w.WriteUndefined()
	case Integer, Float, String, Boolean, Date, Bytes:
		return w.WriteValue(v)
	}
	return fmt.Errorf("%v is not a scalar token", kind)
}

// copyHandler is a Handler that writes the events it receives to a
// TokenWriter. Comments have no error return, so a failure to write one is
// kept in err and reported by the next event.
type copyHandler struct {
	w   TokenWriter
	err error
}

func (c *copyHandler) BeginObject(Anchor) error { return c.then(c.w.WriteStartObject) }
func (c *copyHandler) EndObject(Anchor) error   { return c.then(c.w.WriteEndObject) }
func (c *copyHandler) BeginArray(Anchor) error  { return c.then(c.w.WriteStartArray) }
func (c *copyHandler) EndArray(Anchor) error    { return c.then(c.w.WriteEndArray) }
func (c *copyHandler) EndMember(Anchor) error   { return c.err }
func (c *copyHandler) EndOfInput(Anchor)        {}

func (c *copyHandler) BeginConstructor(loc Anchor) error {
	name, _ := loc.Value().(string)
	return c.then(func() error { return c.w.WriteStartConstructor(name) })
}

func (c *copyHandler) EndConstructor(Anchor) error { return c.then(c.w.WriteEndConstructor) }

func (c *copyHandler) BeginMember(loc Anchor) error {
	name, _ := loc.Value().(string)
	return c.then(func() error { return c.w.WritePropertyName(name) })
}

func (c *copyHandler) Value(loc Anchor) error {
	return c.then(func() error { return WriteScalar(c.w, loc.Token(), loc.Value()) })
}

func (c *copyHandler) Comment(loc Anchor) {
	if c.err == nil {
		text, _ := loc.Value().(string)
		c.err = c.w.WriteComment(text)
	}
}

// then calls f unless an earlier comment failed.
func (c *copyHandler) then(f func() error) error {
	if c.err != nil {
		return c.err
	}
	return f()
}
