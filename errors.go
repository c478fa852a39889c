// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jdom

import (
	"errors"
	"fmt"
)

var (
	// ErrNeedInput is reported by Next on a push reader when it cannot
	// complete a token without more input. Push more input, or call
	// CloseInput, and call Next again.
	ErrNeedInput = errors.New("more input is needed")

	// ErrClosed is reported by operations on a closed reader or writer.
	ErrClosed = errors.New("use of closed reader or writer")
)

// ErrorKind classifies the errors reported as a [*SyntaxError].
type ErrorKind byte

const (
	// LexicalError reports malformed input text: an unterminated string or
	// comment, an invalid escape or character, or a malformed number.
	LexicalError ErrorKind = iota + 1

	// StructuralError reports a token in the wrong place: a mismatched
	// close, input that ends inside a container, or a tree or document
	// shape that cannot be represented.
	StructuralError

	// CoercionError reports that a token could not be converted to the type
	// requested by a typed read.
	CoercionError
)

func (k ErrorKind) String() string {
	switch k {
	case LexicalError:
		return "lexical"
	case StructuralError:
		return "structural"
	case CoercionError:
		return "coercion"
	}
	return "unknown"
}

// SyntaxError is the concrete type of errors reported by the reader, the
// writer, and the stream parser.
type SyntaxError struct {
	Kind     ErrorKind
	Location LineCol // zero if the location is not known
	Path     string  // the JSON path of the offending token
	Message  string

	err error
}

// Error satisfies the error interface.
func (s *SyntaxError) Error() string {
	var pfx string
	if !s.Location.IsZero() {
		pfx = "at " + s.Location.String()
	}
	if s.Path != "" {
		if pfx != "" {
			pfx += ", "
		}
		pfx += fmt.Sprintf("path %q", s.Path)
	}
	if pfx == "" {
		return s.Message
	}
	return pfx + ": " + s.Message
}

// Unwrap supports error wrapping.
func (s *SyntaxError) Unwrap() error { return s.err }

// Errorf constructs a *SyntaxError of the given kind whose path and location
// are taken from the current token of a. If a is nil, no location is
// recorded. If args contains an error, it is recorded as the cause.
func Errorf(kind ErrorKind, a Anchor, msg string, args ...any) *SyntaxError {
	e := &SyntaxError{Kind: kind, Message: fmt.Sprintf(msg, args...)}
	if a != nil {
		e.Path = a.Path()
		e.Location = a.Location()
	}
	for _, arg := range args {
		if err, ok := arg.(error); ok {
			e.err = err
			break
		}
	}
	return e
}
