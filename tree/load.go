// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package tree

import (
	"io"
	"strings"

	"github.com/creachadair/jdom"
)

// CommentHandling selects how Load treats comments.
type CommentHandling byte

const (
	CommentsIgnore CommentHandling = iota // discard comments (default)
	CommentsLoad                          // load comments as Comment nodes
)

// LineInfoHandling selects whether Load records line information.
type LineInfoHandling byte

const (
	LineInfoLoad   LineInfoHandling = iota // record the position of each token (default)
	LineInfoIgnore                         // do not record positions
)

// DuplicateHandling selects how Load treats repeated property names within
// an object.
type DuplicateHandling byte

const (
	DuplicateKeep    DuplicateHandling = iota // keep all properties (default)
	DuplicateReplace                          // the last value replaces the first
	DuplicateIgnore                           // keep the first value, discard the rest
	DuplicateError                            // report an error
)

// LoadOptions control the behavior of Load. A nil *LoadOptions provides
// default values.
type LoadOptions struct {
	Comments   CommentHandling
	LineInfo   LineInfoHandling
	Duplicates DuplicateHandling
}

func (o *LoadOptions) resolve() LoadOptions {
	if o == nil {
		return LoadOptions{}
	}
	return *o
}

// Load reads a single value from r and returns it as a tree. If r has a
// current token, loading begins there; otherwise Load first advances r.
// When Load returns, r is positioned at the last token of the value.
//
// If the current token is a property name, Load returns a *Property holding
// the following value. If it is a comment, Load returns a *Comment when
// comments are loaded, and otherwise skips to the next token.
//
// If r has no more input, Load returns io.EOF. If r ends before the value is
// complete, Load reports a *jdom.SyntaxError. In case of error, Load does not
// return a partial tree.
func Load(r jdom.TokenReader, opts *LoadOptions) (Node, error) {
	h := &loadHandler{opts: opts.resolve()}
	if r.Token() == jdom.None {
		if err := r.Next(); err != nil {
			return nil, err
		}
	}
	for r.Token() == jdom.Comment {
		if h.opts.Comments == CommentsLoad {
			text, _ := r.Value().(string)
			return h.mark(NewComment(text), r), nil
		}
		if err := r.Next(); err != nil {
			return nil, err
		}
	}

	if r.Token() == jdom.PropertyName {
		name, _ := r.Value().(string)
		p := NewProperty(name, nil)
		h.mark(p, r)
		if err := nextValue(r); err != nil {
			return nil, err
		}
		v, err := Load(r, opts)
		if err != nil {
			return nil, eofInValue(r, err)
		}
		p.SetValue(v)
		return p, nil
	}

	if err := jdom.NewStreamWithReader(r).ParseOne(h); err != nil {
		return nil, eofInValue(r, err)
	} else if len(h.b.roots) != 1 || h.b.Depth() != 0 {
		return nil, jdom.Errorf(jdom.StructuralError, r, "incomplete value")
	}
	return h.b.roots[0], nil
}

// nextValue advances r past comments to the next token.
func nextValue(r jdom.TokenReader) error {
	for {
		if err := r.Next(); err != nil {
			return eofInValue(r, err)
		} else if r.Token() != jdom.Comment {
			return nil
		}
	}
}

func eofInValue(r jdom.TokenReader, err error) error {
	if err == io.EOF {
		return jdom.Errorf(jdom.StructuralError, r, "unexpected end of input")
	}
	return err
}

// Parse parses a single JSON value from s. Comments outside the value are
// ignored, and any other content after the value is an error.
func Parse(s string) (Node, error) { return ParseReader(strings.NewReader(s), nil) }

// ParseReader parses a single JSON value from r using the given options.
// Comments outside the value are ignored, and any other content after the
// value is an error.
func ParseReader(r io.Reader, opts *LoadOptions) (Node, error) {
	rd := jdom.NewReader(r)
	if err := nextValue(rd); err != nil {
		return nil, err
	}
	n, err := Load(rd, opts)
	if err != nil {
		return nil, err
	}
	for {
		if err := rd.Next(); err == io.EOF {
			return n, nil
		} else if err != nil {
			return nil, err
		} else if rd.Token() != jdom.Comment {
			return nil, jdom.Errorf(jdom.LexicalError, rd, "unexpected %v after the value", rd.Token())
		}
	}
}

// ReadFrom reads one complete value from r and adds it to c. If r ends
// before a container it started is closed, ReadFrom reports an error and c
// is not modified.
func ReadFrom(c Container, r jdom.TokenReader, opts *LoadOptions) error {
	n, err := Load(r, opts)
	if err != nil {
		return eofInValue(r, err)
	}
	return c.Add(n)
}

// loadHandler implements the jdom.Handler interface to construct trees.
type loadHandler struct {
	b    Builder
	opts LoadOptions
}

type tokenLocator interface {
	TokenLocation() jdom.Location
}

// mark records the position of the current token of loc on n.
func (h *loadHandler) mark(n Node, loc jdom.Anchor) Node {
	if h.opts.LineInfo != LineInfoLoad {
		return n
	}
	lc := loc.Location()
	if tl, ok := loc.(tokenLocator); ok {
		lc = tl.TokenLocation().First
	}
	n.base().SetLineInfo(lc.Line, lc.Column)
	return n
}

func (h *loadHandler) open(c Container, loc jdom.Anchor) error {
	h.mark(c, loc)
	return h.b.open(c)
}

func (h *loadHandler) BeginObject(loc jdom.Anchor) error { return h.open(NewObject(), loc) }
func (h *loadHandler) EndObject(jdom.Anchor) error       { return h.b.close(KindObject) }
func (h *loadHandler) BeginArray(loc jdom.Anchor) error  { return h.open(NewArray(), loc) }
func (h *loadHandler) EndArray(jdom.Anchor) error        { return h.b.close(KindArray) }
func (h *loadHandler) EndConstructor(jdom.Anchor) error  { return h.b.close(KindConstructor) }
func (h *loadHandler) EndMember(jdom.Anchor) error       { return nil }
func (h *loadHandler) EndOfInput(jdom.Anchor)            {}

func (h *loadHandler) BeginConstructor(loc jdom.Anchor) error {
	name, _ := loc.Value().(string)
	return h.open(NewConstructor(name), loc)
}

func (h *loadHandler) BeginMember(loc jdom.Anchor) error {
	name, _ := loc.Value().(string)
	obj := h.b.top().(*Object)
	if old := obj.Property(name); old != nil {
		switch h.opts.Duplicates {
		case DuplicateReplace:
			h.b.push(old)
			return nil
		case DuplicateIgnore:
			return h.b.member(NewProperty(name, nil), false)
		case DuplicateError:
			return jdom.Errorf(jdom.StructuralError, loc, "duplicate property name %q", name)
		}
	}
	p := NewProperty(name, nil)
	h.mark(p, loc)
	return h.b.member(p, true)
}

func (h *loadHandler) Value(loc jdom.Anchor) error {
	v := &Value{tok: loc.Token(), v: loc.Value()}
	h.mark(v, loc)
	return h.b.add(v)
}

func (h *loadHandler) Comment(loc jdom.Anchor) {
	if h.opts.Comments == CommentsLoad {
		text, _ := loc.Value().(string)
		h.b.add(h.mark(NewComment(text), loc))
	}
}
