// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jdom

import (
	"errors"
	"fmt"
	"io"
	"slices"
)

// A Handler handles events from parsing a token stream. If a method reports
// an error, parsing stops and that error is returned to the caller.
// The parser ensures objects, arrays, and constructors are correctly
// balanced.
//
// The Anchor argument to a Handler method is only valid for the duration of
// that method call. If the method needs to retain information about the
// token after it returns, it must copy the relevant data.
type Handler interface {
	// Begin a new object, whose start token is at loc.
	BeginObject(loc Anchor) error

	// End the most-recently-opened object, whose end token is at loc.
	EndObject(loc Anchor) error

	// Begin a new array, whose start token is at loc.
	BeginArray(loc Anchor) error

	// End the most-recently-opened array, whose end token is at loc.
	EndArray(loc Anchor) error

	// Begin a new constructor, whose start token is at loc. The name of the
	// constructor is the value of the token.
	BeginConstructor(loc Anchor) error

	// End the most-recently-opened constructor, whose end token is at loc.
	EndConstructor(loc Anchor) error

	// Begin a new object member, whose name is the value of loc.
	BeginMember(loc Anchor) error

	// End the current object member. The anchor is at the last token of the
	// member's value.
	EndMember(loc Anchor) error

	// Report a scalar value. The type of the value can be recovered from the
	// token.
	Value(loc Anchor) error

	// EndOfInput reports the end of the input stream.
	EndOfInput(loc Anchor)
}

// CommentHandler is an optional interface that a Handler may implement to
// handle comment tokens. If a handler implements this method, Comment is
// called for each comment token the reader reports. If the handler does not
// provide this method, comments are silently discarded.
type CommentHandler interface {
	// Process the comment at the specified location. The value of loc is the
	// text of the comment without delimiters.
	Comment(loc Anchor)
}

// Stream is a stream parser that consumes tokens and delivers events to a
// Handler corresponding with the structure of the input.
type Stream struct {
	r     TokenReader
	fresh bool // no token has been consumed by the stream
}

// NewStream constructs a new Stream that reads JSON text from r. The input
// may contain multiple top-level values.
func NewStream(r io.Reader) *Stream {
	rd := NewReader(r)
	rd.AllowMultipleValues(true)
	return NewStreamWithReader(rd)
}

// NewStreamWithReader constructs a new Stream that consumes tokens from r.
// If r has a current token, it is the first token of the stream.
func NewStreamWithReader(r TokenReader) *Stream { return &Stream{r: r, fresh: true} }

// Reader returns the token reader underlying s.
func (s *Stream) Reader() TokenReader { return s.r }

func (s *Stream) recoverParseError(errp *error) {
	if serr := recover(); serr != nil {
		switch err := serr.(type) {
		case *SyntaxError:
			*errp = err
		case handlerError:
			*errp = err.error
		default:
			panic(serr)
		}
	}
}

// Parse parses the input stream and delivers events to h until either an error
// occurs or the input is exhausted. In case of a syntax error, the returned
// error has type [*SyntaxError].
func (s *Stream) Parse(h Handler) (err error) {
	defer s.recoverParseError(&err)

	for {
		if !s.first(h) {
			h.EndOfInput(s.r)
			return nil
		}
		s.parseElement(h)
	}
}

// ParseOne parses a single value from the input stream and delivers events to
// h until the value is complete or an error occurs. If no further value is
// available from the input, ParseOne returns io.EOF. In case of a syntax
// error, the returned error has type [*SyntaxError].
//
// If the first token consumed by a new stream is a comment, it is delivered
// to h and counts as the value.
func (s *Stream) ParseOne(h Handler) (err error) {
	defer s.recoverParseError(&err)

	if s.fresh && s.r.Token() == Comment {
		s.fresh = false
		if ch, ok := h.(CommentHandler); ok {
			ch.Comment(s.r)
		}
		return nil
	}
	if !s.first(h) {
		h.EndOfInput(s.r)
		return io.EOF
	}
	s.parseElement(h)
	return nil
}

// first positions the stream at the first token of a value, and reports
// whether one is available.
func (s *Stream) first(h Handler) bool {
	if s.fresh {
		s.fresh = false
		if tok := s.r.Token(); tok != None && tok != Comment {
			return true
		}
	}
	if err := s.nextToken(h); err == io.EOF {
		return false
	} else if err != nil {
		s.readError(err)
	}
	return true
}

// parseElement consumes a single value of any type.
// Precondition: token != None.
func (s *Stream) parseElement(h Handler) {
	switch tok := s.r.Token(); tok {
	case StartObject:
		s.checkError(h.BeginObject(s.r))
		s.parseMembers(h)
		s.checkError(h.EndObject(s.r))
	case StartArray:
		s.checkError(h.BeginArray(s.r))
		s.parseElements(h, EndArray)
		s.checkError(h.EndArray(s.r))
	case StartConstructor:
		s.checkError(h.BeginConstructor(s.r))
		s.parseElements(h, EndConstructor)
		s.checkError(h.EndConstructor(s.r))
	case Integer, Float, String, Boolean, Null, Undefined, Date, Bytes:
		s.checkError(h.Value(s.r))
	default:
		s.syntaxError(nil, "unexpected %v", tok)
	}
}

// parseMembers consumes zero of more name:value object members.
// Precondition: token == StartObject.
// Postcondition: token == EndObject.
func (s *Stream) parseMembers(h Handler) {
	for {
		if s.advance(h, EndObject, PropertyName) == EndObject {
			return
		}
		s.checkError(h.BeginMember(s.r))
		s.advance(h)
		s.parseElement(h)
		s.checkError(h.EndMember(s.r))
	}
}

// parseElements consumes zero or more array or constructor elements.
// Postcondition: token == end.
func (s *Stream) parseElements(h Handler, end TokenKind) {
	for {
		if s.advance(h) == end {
			return
		}
		s.parseElement(h)
	}
}

func (s *Stream) nextToken(h Handler) error {
	for {
		if err := s.r.Next(); err != nil {
			return err
		}

		// If we see a comment token, pass it to the handler if it implements
		// CommentHandler. Either way, discard the comment and fetch the next
		// token for the rest of the parser.
		if s.r.Token() != Comment {
			return nil
		}
		if ch, ok := h.(CommentHandler); ok {
			ch.Comment(s.r)
		}
	}
}

func (s *Stream) advance(h Handler, tokens ...TokenKind) TokenKind {
	if err := s.nextToken(h); err == io.EOF {
		s.syntaxError(err, "unexpected end of input")
	} else if err != nil {
		s.readError(err)
	}
	tok := s.r.Token()
	if len(tokens) != 0 && !tokOneOf(tok, tokens) {
		s.syntaxError(nil, "%v", tokLabel(tokens, tok))
	}
	return tok
}

// readError propagates an error from the token reader unchanged.
func (s *Stream) readError(err error) {
	var serr *SyntaxError
	if errors.As(err, &serr) {
		panic(serr)
	}
	panic(handlerError{err})
}

func (s *Stream) syntaxError(err error, msg string, args ...any) {
	panic(&SyntaxError{
		Kind:     StructuralError,
		Location: s.r.Location(),
		Path:     s.r.Path(),
		Message:  fmt.Sprintf(msg, args...),
		err:      err,
	})
}

func (s *Stream) checkError(err error) {
	if err != nil {
		panic(handlerError{err})
	}
}

type handlerError struct{ error }

func (h handlerError) Unwrap() error { return h.error }

// tokLabel makes a human-readable summary string for the given token types.
func tokLabel(tokens []TokenKind, got any) string {
	if len(tokens) == 0 {
		return fmt.Sprint(got)
	}
	var exp string
	if len(tokens) == 1 {
		exp = tokens[0].String()
	} else {
		last := len(tokens) - 1
		for i, tok := range tokens[:last] {
			if i > 0 {
				exp += ", "
			}
			exp += tok.String()
		}
		exp += " or " + tokens[last].String()
	}
	return fmt.Sprintf("expected %s, got %v", exp, got)
}

// tokOneOf reports whether cur is an element of tokens.
func tokOneOf(cur TokenKind, tokens []TokenKind) bool {
	return slices.Contains(tokens, cur)
}
