// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package tree

import (
	"fmt"
	"math"
	"math/big"
	"slices"
	"sort"
	"time"

	"github.com/creachadair/jdom"
)

// A Value is a scalar value: a string, number, Boolean, null, undefined,
// date, or byte string. The type of the value is reported by Type, using
// the corresponding token kind.
type Value struct {
	nodeBase
	tok jdom.TokenKind
	v   any
}

// NewString constructs a string value.
func NewString(s string) *Value { return &Value{tok: jdom.String, v: s} }

// NewInt constructs an integer value.
func NewInt(z int64) *Value { return &Value{tok: jdom.Integer, v: z} }

// NewBigInt constructs an integer value. The value is stored as an int64
// if it fits.
func NewBigInt(z *big.Int) *Value {
	if z.IsInt64() {
		return NewInt(z.Int64())
	}
	return &Value{tok: jdom.Integer, v: new(big.Int).Set(z)}
}

// NewFloat constructs a floating-point value.
func NewFloat(f float64) *Value { return &Value{tok: jdom.Float, v: f} }

// NewDecimal constructs a decimal value.
func NewDecimal(d jdom.Decimal) *Value { return &Value{tok: jdom.Float, v: d} }

// NewBool constructs a Boolean value.
func NewBool(b bool) *Value { return &Value{tok: jdom.Boolean, v: b} }

// NewNull constructs a null value.
func NewNull() *Value { return &Value{tok: jdom.Null} }

// NewUndefined constructs an undefined value.
func NewUndefined() *Value { return &Value{tok: jdom.Undefined} }

// NewDate constructs a date value.
func NewDate(t time.Time) *Value { return &Value{tok: jdom.Date, v: t} }

// NewBytes constructs a byte string value. The value retains a copy of data.
func NewBytes(data []byte) *Value { return &Value{tok: jdom.Bytes, v: slices.Clone(data)} }

// scalarValue converts a Go value to a scalar node.
func scalarValue(v any) (*Value, error) {
	switch t := v.(type) {
	case nil:
		return NewNull(), nil
	case string:
		return NewString(t), nil
	case bool:
		return NewBool(t), nil
	case int:
		return NewInt(int64(t)), nil
	case int8:
		return NewInt(int64(t)), nil
	case int16:
		return NewInt(int64(t)), nil
	case int32:
		return NewInt(int64(t)), nil
	case int64:
		return NewInt(t), nil
	case uint:
		return newUint(uint64(t)), nil
	case uint8:
		return NewInt(int64(t)), nil
	case uint16:
		return NewInt(int64(t)), nil
	case uint32:
		return NewInt(int64(t)), nil
	case uint64:
		return newUint(t), nil
	case float32:
		return NewFloat(float64(t)), nil
	case float64:
		return NewFloat(t), nil
	case *big.Int:
		if t == nil {
			return NewNull(), nil
		}
		return NewBigInt(t), nil
	case jdom.Decimal:
		return NewDecimal(t), nil
	case time.Time:
		return NewDate(t), nil
	case []byte:
		if t == nil {
			return NewNull(), nil
		}
		return NewBytes(t), nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

func newUint(z uint64) *Value {
	if z > math.MaxInt64 {
		return &Value{tok: jdom.Integer, v: new(big.Int).SetUint64(z)}
	}
	return NewInt(int64(z))
}

// FromAny converts a Go value to a node. In addition to the scalar types
// accepted by jdom.TokenWriter, it accepts []any (an array), map[string]any
// (an object, with properties sorted by name), and Node. A Node that has a
// parent is copied.
func FromAny(v any) (Node, error) {
	switch t := v.(type) {
	case Node:
		if t.Parent() != nil {
			return t.Clone(), nil
		}
		return t, nil
	case []any:
		arr := NewArray()
		for _, elt := range t {
			n, err := FromAny(elt)
			if err != nil {
				return nil, err
			}
			arr.Add(n)
		}
		return arr, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for key := range t {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		obj := NewObject()
		for _, key := range keys {
			n, err := FromAny(t[key])
			if err != nil {
				return nil, err
			}
			obj.Add(NewProperty(key, n))
		}
		return obj, nil
	}
	return scalarValue(v)
}

// Type reports the token kind of the value.
func (v *Value) Type() jdom.TokenKind { return v.tok }

// Interface returns the value as a Go value, with the types reported by
// jdom.Reader.Value.
func (v *Value) Interface() any { return v.v }

// Set replaces the contents of v with a scalar of any type accepted by
// jdom.TokenWriter.
func (v *Value) Set(x any) error {
	nv, err := scalarValue(x)
	if err != nil {
		return err
	}
	v.tok, v.v = nv.tok, nv.v
	return nil
}

// IsNull reports whether v is null or undefined.
func (v *Value) IsNull() bool { return v.tok == jdom.Null || v.tok == jdom.Undefined }

// AsString returns the contents of a string value.
func (v *Value) AsString() (string, bool) {
	s, ok := v.v.(string)
	return s, ok && v.tok == jdom.String
}

// AsInt returns the contents of an integer value that fits in an int64.
func (v *Value) AsInt() (int64, bool) {
	z, ok := v.v.(int64)
	return z, ok
}

// AsFloat returns the contents of a numeric value as a float64.
func (v *Value) AsFloat() (float64, bool) {
	switch t := v.v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case *big.Int:
		f, _ := new(big.Float).SetInt(t).Float64()
		return f, true
	case jdom.Decimal:
		return t.Float64(), true
	}
	return 0, false
}

// AsBool returns the contents of a Boolean value.
func (v *Value) AsBool() (bool, bool) {
	b, ok := v.v.(bool)
	return b, ok
}

// AsTime returns the contents of a date value.
func (v *Value) AsTime() (time.Time, bool) {
	t, ok := v.v.(time.Time)
	return t, ok
}

// AsBytes returns the contents of a byte string value.
func (v *Value) AsBytes() ([]byte, bool) {
	b, ok := v.v.([]byte)
	return b, ok
}

func (v *Value) Kind() Kind           { return KindValue }
func (v *Value) Path() string         { return pathOf(v) }
func (v *Value) Remove() error        { return removeNode(v) }
func (v *Value) Replace(n Node) error { return replaceNode(v, n) }
func (v *Value) String() string       { return Format(v, "") }

// Clone returns a copy of v.
func (v *Value) Clone() Node {
	c := &Value{nodeBase: nodeBase{line: v.line, col: v.col}, tok: v.tok, v: v.v}
	switch t := v.v.(type) {
	case *big.Int:
		c.v = new(big.Int).Set(t)
	case []byte:
		c.v = slices.Clone(t)
	}
	return c
}

// A Comment is the text of a comment, without delimiters.
type Comment struct {
	nodeBase
	text string
}

// NewComment constructs a comment with the given text.
func NewComment(text string) *Comment { return &Comment{text: text} }

// Text returns the text of the comment.
func (c *Comment) Text() string { return c.text }

func (c *Comment) Kind() Kind           { return KindComment }
func (c *Comment) Path() string         { return pathOf(c) }
func (c *Comment) Remove() error        { return removeNode(c) }
func (c *Comment) Replace(n Node) error { return replaceNode(c, n) }
func (c *Comment) String() string       { return Format(c, "") }

// Clone returns a copy of c.
func (c *Comment) Clone() Node {
	return &Comment{nodeBase: nodeBase{line: c.line, col: c.col}, text: c.text}
}

// A Raw is a fragment of JSON text that is written verbatim. A Reader over
// a tree containing a Raw node parses its text.
type Raw struct {
	nodeBase
	text string
}

// NewRaw constructs a raw node with the given text.
func NewRaw(text string) *Raw { return &Raw{text: text} }

// Text returns the text of the node.
func (r *Raw) Text() string { return r.text }

func (r *Raw) Kind() Kind           { return KindRaw }
func (r *Raw) Path() string         { return pathOf(r) }
func (r *Raw) Remove() error        { return removeNode(r) }
func (r *Raw) Replace(n Node) error { return replaceNode(r, n) }
func (r *Raw) String() string       { return r.text }

// Clone returns a copy of r.
func (r *Raw) Clone() Node {
	return &Raw{nodeBase: nodeBase{line: r.line, col: r.col}, text: r.text}
}
