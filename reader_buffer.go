// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jdom

import (
	"context"
	"fmt"
	"io"
	"unicode/utf8"
)

// errNeedMore is the panic value used by scanning steps that cannot complete
// without more input. It is recovered by tryStep, and the step is retried
// from its start once more input is available.
type errNeedMore struct{}

const eofRune = -1

// A cursor is a scanning position within the buffered input. Scanning steps
// advance a cursor, and the reader commits the cursor position when a step
// completes. Nothing is committed by a step that fails or needs more input.
type cursor struct {
	buf []byte
	i   int
	eof bool
}

func (r *Reader) cursor() *cursor { return &cursor{buf: r.buf, i: r.pos, eof: r.eof} }

// peek returns the rune at the cursor and its width in bytes, or eofRune at
// the end of the input.
func (c *cursor) peek() (rune, int) {
	if c.i >= len(c.buf) {
		if c.eof {
			return eofRune, 0
		}
		panic(errNeedMore{})
	}
	if b := c.buf[c.i]; b < utf8.RuneSelf {
		return rune(b), 1
	}
	if !c.eof && !utf8.FullRune(c.buf[c.i:]) {
		panic(errNeedMore{})
	}
	return utf8.DecodeRune(c.buf[c.i:])
}

// byteAt returns the byte at offset j of the buffer, or -1 at the end of the
// input.
func (c *cursor) byteAt(j int) int {
	if j >= len(c.buf) {
		if c.eof {
			return eofRune
		}
		panic(errNeedMore{})
	}
	return int(c.buf[j])
}

func (c *cursor) skipDigits() {
	for isDigit(c.byteAt(c.i)) {
		c.i++
	}
}

func (c *cursor) skipSpace() {
	for isSpace(c.byteAt(c.i)) {
		c.i++
	}
}

// lineState tracks the line and column of a position in the input.
type lineState struct {
	line, col int
	cr        bool // the last rune was "\r"
}

// advance returns the position after consuming b. A "\r\n" pair counts as a
// single line break, even if it is split between calls.
func (s lineState) advance(b []byte) lineState {
	for len(b) != 0 {
		switch c := b[0]; {
		case c == '\r':
			s.line++
			s.col = 0
			s.cr = true
			b = b[1:]
			continue
		case c == '\n':
			if !s.cr {
				s.line++
				s.col = 0
			}
			b = b[1:]
		case c < utf8.RuneSelf:
			s.col++
			b = b[1:]
		default:
			_, n := utf8.DecodeRune(b)
			s.col++
			b = b[n:]
		}
		s.cr = false
	}
	return s
}

func (s lineState) lineCol() LineCol { return LineCol{Line: s.line, Column: s.col} }

// commit consumes the input up to offset i of the buffer.
func (r *Reader) commit(i int) {
	r.lc = r.lc.advance(r.buf[r.pos:i])
	r.off += int64(i - r.pos)
	r.pos = i
}

// emit consumes the input through c and makes tok the current token.
func (r *Reader) emit(c *cursor, tok TokenKind, v any) { r.emitText(c, tok, v, c.i) }

// emitText is as emit, but the text of the token ends at offset end.
func (r *Reader) emitText(c *cursor, tok TokenKind, v any, end int) {
	r.text = append(r.text[:0], r.buf[r.pos:end]...)
	r.tokStart = LineCol{Line: r.lc.line, Column: r.lc.col + 1}
	r.tokSpan = Span{Pos: r.off, End: r.off + int64(end-r.pos)}
	r.commit(c.i)
	r.tok, r.value = tok, v
}

// failAt panics with a lexical or structural error located at the rune that
// ends at offset i of the buffer.
func (r *Reader) failAt(i int, kind ErrorKind, msg string, args ...any) {
	lc := r.lc.advance(r.buf[r.pos:min(max(i, r.pos), len(r.buf))])
	panic(&SyntaxError{
		Kind:     kind,
		Location: lc.lineCol(),
		Path:     renderPath(r.stack),
		Message:  fmt.Sprintf(msg, args...),
	})
}

// tryStep runs one scanning step. It reports whether a token (or the end of
// input) was produced, or whether the step needs more input.
func (r *Reader) tryStep() (produced, more bool, err error) {
	defer func() {
		if x := recover(); x != nil {
			switch e := x.(type) {
			case errNeedMore:
				more = true
			case *SyntaxError:
				err = e
			default:
				panic(x)
			}
		}
	}()
	return r.step(), false, nil
}

// A pendingRead is a read of the underlying input started by NextContext.
type pendingRead struct {
	data []byte
	n    int
	err  error
	done chan struct{}
}

// fill adds more input to the buffer. This is the only place a read may
// block or suspend.
func (r *Reader) fill(ctx context.Context) error {
	r.compact()
	if r.src == nil {
		return ErrNeedInput
	}
	var done <-chan struct{}
	if ctx != nil {
		done = ctx.Done()
	}
	if r.pending == nil && done == nil {
		r.grow()
		n, err := r.src.Read(r.buf[len(r.buf):cap(r.buf)])
		r.buf = r.buf[:len(r.buf)+n]
		return r.readDone(err)
	}

	if r.pending == nil {
		p := &pendingRead{data: make([]byte, r.chunk), done: make(chan struct{})}
		src := r.src
		go func() {
			defer close(p.done)
			p.n, p.err = src.Read(p.data)
		}()
		r.pending = p
	}
	select {
	case <-done:
		return ctx.Err()
	case <-r.pending.done:
	}
	p := r.pending
	r.pending = nil
	r.buf = append(r.buf, p.data[:p.n]...)
	return r.readDone(p.err)
}

func (r *Reader) readDone(err error) error {
	if err == io.EOF {
		r.eof = true
	} else if err != nil {
		return r.fail(fmt.Errorf("read input: %w", err))
	}
	return nil
}

// compact shifts unconsumed input to the front of the buffer.
func (r *Reader) compact() {
	if r.pos == 0 {
		return
	}
	n := copy(r.buf, r.buf[r.pos:])
	r.buf = r.buf[:n]
	r.pos = 0
}

// grow ensures the buffer has room for a read of the configured size.
func (r *Reader) grow() {
	if cap(r.buf)-len(r.buf) >= r.chunk {
		return
	}
	nb := make([]byte, len(r.buf), max(2*cap(r.buf), len(r.buf)+r.chunk))
	copy(nb, r.buf)
	r.buf = nb
}

func isSpace(c int) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isDigit(c int) bool { return '0' <= c && c <= '9' }

func isHexDigit(c int) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
