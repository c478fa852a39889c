// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package bsonx reads and writes BSON documents as JSON token streams.
//
// A Reader reports the tokens of one or more BSON documents read from an
// io.Reader, and a Writer encodes the tokens written to it as BSON. Both use
// the document model of go.mongodb.org/mongo-driver/bson.
//
// BSON types with no JSON counterpart are mapped as follows:
//
//	ObjectID              String, the hex digits of the ID
//	Regex                 String, "/pattern/options"
//	JavaScript, Symbol    String
//	Decimal128            Float, a jdom.Decimal when it fits
//	Timestamp             Integer, the time in the high 32 bits
//	DateTime              Date, in UTC
//	Binary                Bytes
package bsonx

import (
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/creachadair/jdom"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// A Reader is a jdom.TokenReader that reports the tokens of BSON documents.
// Locations are not available, and Location always returns zero.
type Reader struct {
	src   io.Reader
	multi bool
	array bool

	stack []frame
	tok   jdom.TokenKind
	value any
	depth int
	path  string
	docs  int // number of documents read
	err   error
}

// A frame records the elements of an open document or array.
type frame struct {
	elems []bson.RawElement
	array bool
	cur   int  // index of the current element, or -1
	named bool // the property name of elems[cur+1] has been reported
}

// NewReader constructs a Reader that reads BSON documents from r.
func NewReader(r io.Reader) *Reader { return &Reader{src: r} }

// AllowMultipleValues sets whether r reads a sequence of documents (true)
// or exactly one (false). By default only one document is read.
func (r *Reader) AllowMultipleValues(ok bool) { r.multi = ok }

// ReadRootAsArray sets whether the top-level document is reported as an
// array of its values, ignoring its keys. BSON encodes arrays as documents
// whose keys are "0", "1", and so on.
func (r *Reader) ReadRootAsArray(ok bool) { r.array = ok }

// Token returns the kind of the current token.
func (r *Reader) Token() jdom.TokenKind { return r.tok }

// Value returns the value of the current token, with the types reported by
// jdom.Reader.
func (r *Reader) Value() any { return r.value }

// Depth reports the nesting depth of the current token.
func (r *Reader) Depth() int { return r.depth }

// Path returns the JSON path of the current token.
func (r *Reader) Path() string { return r.path }

// Location returns the zero location, since BSON has no text positions.
func (r *Reader) Location() jdom.LineCol { return jdom.LineCol{} }

// Next advances r to the next token. It returns io.EOF after the last token
// of the last document.
func (r *Reader) Next() error {
	if r.err != nil {
		return r.err
	}
	err := r.next()
	if err != nil {
		r.tok, r.value = jdom.None, nil
		r.err = err
	}
	return err
}

func (r *Reader) next() error {
	if len(r.stack) == 0 {
		return r.readDocument()
	}

	f := &r.stack[len(r.stack)-1]
	if f.cur+1 >= len(f.elems) {
		r.stack = r.stack[:len(r.stack)-1]
		r.depth = len(r.stack)
		r.path = r.pathString(len(r.stack))
		r.value = nil
		if f.array {
			r.tok = jdom.EndArray
		} else {
			r.tok = jdom.EndObject
		}
		return nil
	}
	if !f.array && !f.named {
		f.named = true
		r.depth = len(r.stack)
		r.path = r.memberPath(f.elems[f.cur+1].Key())
		r.tok, r.value = jdom.PropertyName, f.elems[f.cur+1].Key()
		return nil
	}
	f.cur++
	f.named = false
	r.depth = len(r.stack)
	r.path = r.pathString(len(r.stack))
	return r.emit(f.elems[f.cur].Value())
}

// readDocument reads the next top-level document and reports its start.
func (r *Reader) readDocument() error {
	if r.docs > 0 && !r.multi {
		var buf [1]byte
		if n, _ := io.ReadFull(r.src, buf[:]); n != 0 {
			return r.errorf(nil, "unexpected data after document")
		}
		return io.EOF
	}
	doc, err := bson.NewFromIOReader(r.src)
	if err == io.EOF {
		return io.EOF
	} else if err != nil {
		return r.errorf(err, "invalid BSON document")
	}
	if err := doc.Validate(); err != nil {
		return r.errorf(err, "invalid BSON document")
	}
	r.docs++
	r.depth, r.path, r.value = 0, "", nil
	if r.array {
		r.tok = jdom.StartArray
	} else {
		r.tok = jdom.StartObject
	}
	return r.push(doc, r.array)
}

func (r *Reader) push(doc bson.Raw, array bool) error {
	elems, err := doc.Elements()
	if err != nil {
		return r.errorf(err, "invalid BSON document")
	}
	r.stack = append(r.stack, frame{elems: elems, array: array, cur: -1})
	return nil
}

// emit reports the token for v, opening a container if v is one.
func (r *Reader) emit(v bson.RawValue) error {
	r.value = nil
	switch v.Type {
	case bsontype.EmbeddedDocument:
		r.tok = jdom.StartObject
		return r.push(v.Document(), false)
	case bsontype.Array:
		r.tok = jdom.StartArray
		return r.push(v.Array(), true)
	case bsontype.Double:
		r.tok, r.value = jdom.Float, v.Double()
	case bsontype.String:
		r.tok, r.value = jdom.String, v.StringValue()
	case bsontype.JavaScript:
		r.tok, r.value = jdom.String, v.JavaScript()
	case bsontype.Symbol:
		r.tok, r.value = jdom.String, v.Symbol()
	case bsontype.ObjectID:
		r.tok, r.value = jdom.String, v.ObjectID().Hex()
	case bsontype.Regex:
		pat, opt := v.Regex()
		r.tok, r.value = jdom.String, "/"+pat+"/"+opt
	case bsontype.Binary:
		_, data := v.Binary()
		r.tok, r.value = jdom.Bytes, data
	case bsontype.Boolean:
		r.tok, r.value = jdom.Boolean, v.Boolean()
	case bsontype.DateTime:
		r.tok, r.value = jdom.Date, time.UnixMilli(v.DateTime()).UTC()
	case bsontype.Null:
		r.tok = jdom.Null
	case bsontype.Undefined:
		r.tok = jdom.Undefined
	case bsontype.Int32:
		r.tok, r.value = jdom.Integer, int64(v.Int32())
	case bsontype.Int64:
		r.tok, r.value = jdom.Integer, v.Int64()
	case bsontype.Timestamp:
		t, i := v.Timestamp()
		r.tok, r.value = jdom.Integer, int64(t)<<32|int64(i)
	case bsontype.Decimal128:
		r.tok, r.value = jdom.Float, decimalValue(v.Decimal128().String())
	default:
		return r.errorf(nil, "unsupported BSON type %v", v.Type)
	}
	return nil
}

// decimalValue converts the text of a Decimal128 to a jdom.Decimal, or to a
// float64 if it does not fit.
func decimalValue(s string) any {
	if d, err := jdom.ParseDecimal(s); err == nil {
		return d
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil || errors.Is(err, strconv.ErrRange) {
		return f
	}
	return math.NaN()
}

// pathString returns the path of the current elements of the outermost n
// open containers.
func (r *Reader) pathString(n int) string {
	var sb strings.Builder
	for _, f := range r.stack[:n] {
		if f.cur < 0 {
			continue
		} else if f.array {
			jdom.AppendPathIndex(&sb, f.cur)
		} else {
			jdom.AppendPathName(&sb, f.elems[f.cur].Key())
		}
	}
	return sb.String()
}

// memberPath returns the path of a property named name in the innermost
// object.
func (r *Reader) memberPath(name string) string {
	var sb strings.Builder
	sb.WriteString(r.pathString(len(r.stack) - 1))
	jdom.AppendPathName(&sb, name)
	return sb.String()
}

func (r *Reader) errorf(err error, msg string, args ...any) error {
	if err != nil {
		args = append(args, err)
		msg += ": %v"
	}
	return jdom.Errorf(jdom.StructuralError, r, msg, args...)
}
