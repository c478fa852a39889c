// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jdom

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// CommentPolicy selects how the reader treats comments.
type CommentPolicy byte

const (
	CommentsToken  CommentPolicy = iota // report comments as Comment tokens (default)
	CommentsIgnore                      // discard comments
	CommentsError                       // report comments as errors
)

// FloatParse selects the representation of non-integer numbers.
type FloatParse byte

const (
	FloatDouble  FloatParse = iota // float64 (default)
	FloatDecimal                   // Decimal, or float64 if out of range
)

// DefaultMaxDepth is the default container nesting limit of a Reader.
const DefaultMaxDepth = 64

const defaultChunkSize = 4096

// readState is the position of the reader in the grammar.
type readState byte

const (
	stateStart            readState = iota // expecting a top-level value
	stateProperty                          // expecting a member value
	stateObjectStart                       // after "{", expecting a name or "}"
	stateObject                            // after ",", expecting a name
	stateArrayStart                        // after "[", expecting a value or "]"
	stateArray                             // after ",", expecting a value
	statePostValue                         // after a value inside a container
	stateConstructorStart                  // after "new Name(", expecting a value or ")"
	stateConstructor                       // after ",", expecting a value
	stateClosed                            // the reader is closed
	stateFinished                          // the top-level value is complete
	stateError                             // a read failed
)

// readType is the type requested by a typed read, which guides the
// conversion of scalar tokens.
type readType byte

const (
	readNone readType = iota
	readInt32
	readString
	readBoolean
	readBytes
	readDate
	readDecimal
	readDouble
)

// A Reader reads JSON tokens from an input stream. Each call to Next
// advances the reader to the next token, or reports an error.
//
// A Reader is not safe for concurrent use. At most one read operation may be
// in progress at a time.
type Reader struct {
	src     io.Reader    // nil for a push reader
	pending *pendingRead // an abandoned read awaiting completion
	buf     []byte       // buffered input; buf[pos:] is not yet consumed
	pos     int
	eof     bool // no more input will be added to buf
	chunk   int  // size of reads from src

	comments   CommentPolicy
	multi      bool
	tcomma     bool
	sparse     bool
	maxDepth   int
	floatParse FloatParse
	dateParse  DateParse

	state readState
	stack []pathFrame
	lc    lineState // position after the last consumed input
	off   int64     // offset of buf[pos] in the input
	rtype readType

	tok      TokenKind
	value    any
	text     []byte
	tokStart LineCol
	tokSpan  Span
	err      error
}

// NewReader constructs a Reader that consumes input from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		src:      r,
		chunk:    defaultChunkSize,
		maxDepth: DefaultMaxDepth,
		lc:       lineState{line: 1},
	}
}

// NewPushReader constructs a Reader whose input is supplied by calls to
// Push. When Next needs more input than has been pushed, it reports
// ErrNeedInput; call Push or CloseInput and then call Next again.
func NewPushReader() *Reader { return NewReader(nil) }

// SetComments sets the comment policy of r. The default is CommentsToken.
func (r *Reader) SetComments(p CommentPolicy) { r.comments = p }

// AllowMultipleValues configures r to accept (true) or reject (false)
// multiple top-level values in the input. The default is false.
func (r *Reader) AllowMultipleValues(ok bool) { r.multi = ok }

// AllowTrailingCommas configures r to accept (true) or reject (false) a
// comma after the last element of an object, array, or constructor.
// The default is false.
func (r *Reader) AllowTrailingCommas(ok bool) { r.tcomma = ok }

// AllowSparseArrays configures r to accept (true) or reject (false) missing
// elements in arrays and constructors, as in [1,,2]. A missing element is
// reported as an Undefined token. The default is false.
func (r *Reader) AllowSparseArrays(ok bool) { r.sparse = ok }

// SetMaxDepth sets the maximum nesting depth of containers. Zero means there
// is no limit. The default is DefaultMaxDepth.
func (r *Reader) SetMaxDepth(n int) { r.maxDepth = max(n, 0) }

// SetFloatParse sets the representation of non-integer numbers.
func (r *Reader) SetFloatParse(p FloatParse) { r.floatParse = p }

// SetDateParse sets whether date-like strings are reported as dates.
func (r *Reader) SetDateParse(p DateParse) { r.dateParse = p }

// SetBufferSize sets the size of reads from the underlying input.
func (r *Reader) SetBufferSize(n int) {
	if n > 0 {
		r.chunk = n
	}
}

// Next advances r to the next token of the input. At the end of the input,
// Next returns io.EOF, and the current token is None; further calls also
// return io.EOF. Any other error is terminal, and is reported again by every
// subsequent call.
//
// For a push reader, Next reports ErrNeedInput when it cannot complete a
// token with the input pushed so far. This error is not terminal.
func (r *Reader) Next() error { return r.next(nil) }

// NextContext is as Next, but gives up and returns ctx.Err() if ctx ends
// before the next token is complete. The context is checked before any
// input is consumed for the token. An abandoned read of the underlying
// input is kept, so no data are lost, and a later call resumes where this
// one stopped.
func (r *Reader) NextContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.next(ctx)
}

func (r *Reader) next(ctx context.Context) error {
	if r.err != nil {
		return r.err
	} else if r.state == stateClosed {
		return ErrClosed
	}
	r.tok, r.value, r.text = None, nil, r.text[:0]
	for {
		produced, more, err := r.tryStep()
		if err != nil {
			return r.fail(err)
		} else if produced {
			if r.tok == None {
				return io.EOF
			}
			return nil
		} else if more {
			if err := r.fill(ctx); err != nil {
				return err
			}
		}
	}
}

// Push adds data to the input of a push reader. The reader does not retain
// data after Push returns.
func (r *Reader) Push(data []byte) error {
	if r.src != nil {
		return errors.New("jdom: push to a reader with an input source")
	} else if r.eof {
		return errors.New("jdom: push after CloseInput")
	}
	r.compact()
	r.buf = append(r.buf, data...)
	return nil
}

// CloseInput marks the end of the input of a push reader.
func (r *Reader) CloseInput() { r.eof = true }

// Close closes r. Subsequent reads report ErrClosed. Close does not close
// the underlying input.
func (r *Reader) Close() error {
	r.state = stateClosed
	r.buf, r.pos, r.stack = nil, 0, nil
	r.tok, r.value = None, nil
	return nil
}

// Token returns the kind of the current token.
func (r *Reader) Token() TokenKind { return r.tok }

// Value returns the value of the current token:
//
//   - string for String, PropertyName, Comment, and StartConstructor (the
//     constructor name)
//   - int64 or *big.Int for Integer
//   - float64 or Decimal for Float
//   - bool for Boolean
//   - time.Time for Date
//   - []byte for Bytes
//   - nil otherwise
func (r *Reader) Value() any { return r.value }

// Text returns the undecoded text of the current token. The return value is
// only valid until the next read.
func (r *Reader) Text() []byte { return r.text }

// Depth returns the container nesting depth of the current token. Top-level
// values have depth 0.
func (r *Reader) Depth() int {
	if r.tok.IsStart() {
		return len(r.stack) - 1
	}
	return len(r.stack)
}

// Path returns the JSON path of the current token, for example "a.b[3]".
func (r *Reader) Path() string {
	if r.tok.IsStart() && len(r.stack) != 0 {
		return renderPath(r.stack[:len(r.stack)-1])
	}
	return renderPath(r.stack)
}

// Location returns the position of the last rune of the current token.
func (r *Reader) Location() LineCol { return r.lc.lineCol() }

// TokenLocation returns the complete location of the current token.
func (r *Reader) TokenLocation() Location {
	return Location{Span: r.tokSpan, First: r.tokStart, Last: r.lc.lineCol()}
}

// Err returns the terminal error of r, if any.
func (r *Reader) Err() error { return r.err }

// Skip skips the children of the current token. If the current token is a
// property name, the value of the property is skipped. If the current token
// starts a container, the reader advances to the token that ends it.
// Otherwise Skip does nothing.
func (r *Reader) Skip() error {
	if r.tok == PropertyName {
		if err := r.Next(); err != nil {
			return eofInValue(r, err)
		}
	}
	if !r.tok.IsStart() {
		return nil
	}
	depth := r.Depth()
	for {
		if err := r.Next(); err != nil {
			return eofInValue(r, err)
		}
		if r.tok.IsEnd() && r.Depth() == depth {
			return nil
		}
	}
}

// eofInValue converts io.EOF into a structural error, since the caller was
// in the middle of a value.
func eofInValue(a Anchor, err error) error {
	if err == io.EOF {
		return Errorf(StructuralError, a, "unexpected end of input")
	}
	return err
}

func (r *Reader) fail(err error) error {
	r.state = stateError
	r.tok, r.value = None, nil
	r.err = err
	return err
}

func (s readState) String() string {
	switch s {
	case stateStart:
		return "Start"
	case stateProperty:
		return "Property"
	case stateObjectStart:
		return "ObjectStart"
	case stateObject:
		return "Object"
	case stateArrayStart:
		return "ArrayStart"
	case stateArray:
		return "Array"
	case statePostValue:
		return "PostValue"
	case stateConstructorStart:
		return "ConstructorStart"
	case stateConstructor:
		return "Constructor"
	case stateClosed:
		return "Closed"
	case stateFinished:
		return "Finished"
	case stateError:
		return "Error"
	}
	return fmt.Sprintf("readState(%d)", byte(s))
}
