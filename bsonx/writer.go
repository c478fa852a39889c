// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package bsonx

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/creachadair/jdom"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// A Writer is a jdom.TokenWriter that encodes complete top-level values as
// BSON documents. Each top-level value must be an object, or an array if
// the writer was configured with WriteRootAsArray. Comments are discarded,
// and constructors cannot be represented.
//
// Documents are buffered until Flush is called.
type Writer struct {
	w     *bufio.Writer
	array bool
	stack []*wframe
}

// A wframe is an open document or array.
type wframe struct {
	doc   bson.D
	arr   bson.A
	array bool
	name  string // the pending property name
	named bool   // a property name is pending
}

func (f *wframe) value() any {
	if f.array {
		if f.arr == nil {
			return bson.A{}
		}
		return f.arr
	}
	if f.doc == nil {
		return bson.D{}
	}
	return f.doc
}

// NewWriter constructs a Writer that writes BSON documents to w.
func NewWriter(w io.Writer) *Writer { return &Writer{w: bufio.NewWriter(w)} }

// WriteRootAsArray sets whether top-level arrays are accepted. An array is
// written as a document whose keys are the decimal indexes of its elements.
func (w *Writer) WriteRootAsArray(ok bool) { w.array = ok }

// Depth reports the number of open containers.
func (w *Writer) Depth() int { return len(w.stack) }

// Path returns the JSON path of the current position.
func (w *Writer) Path() string {
	var sb strings.Builder
	for _, f := range w.stack {
		if f.array {
			jdom.AppendPathIndex(&sb, len(f.arr))
		} else if f.named {
			jdom.AppendPathName(&sb, f.name)
		} else if n := len(f.doc); n != 0 {
			jdom.AppendPathName(&sb, f.doc[n-1].Key)
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

// add adds a complete value at the current position.
func (w *Writer) add(v any) error {
	if len(w.stack) == 0 {
		return w.errorf("a BSON document must be an object")
	}
	f := w.stack[len(w.stack)-1]
	if f.array {
		f.arr = append(f.arr, v)
		return nil
	} else if !f.named {
		return w.errorf("a property name is required before a value in an object")
	}
	f.doc = append(f.doc, bson.E{Key: f.name, Value: v})
	f.name, f.named = "", false
	return nil
}

func (w *Writer) open(array bool) error {
	if len(w.stack) == 0 {
		if array && !w.array {
			return w.errorf("a BSON document must be an object")
		}
	} else if f := w.stack[len(w.stack)-1]; !f.array && !f.named {
		return w.errorf("a property name is required before a value in an object")
	}
	w.stack = append(w.stack, &wframe{array: array})
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
	w.stack = w.stack[:len(w.stack)-1]
	if len(w.stack) != 0 {
		return w.add(f.value())
	}
	return w.encode(f)
}

// encode writes a complete top-level document.
func (w *Writer) encode(f *wframe) error {
	doc := f.doc
	if f.array {
		doc = make(bson.D, len(f.arr))
		for i, v := range f.arr {
			doc[i] = bson.E{Key: strconv.Itoa(i), Value: v}
		}
	} else if doc == nil {
		doc = bson.D{}
	}
	bits, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding BSON: %w", err)
	}
	_, err = w.w.Write(bits)
	return err
}

// WriteStartObject implements part of jdom.TokenWriter.
func (w *Writer) WriteStartObject() error { return w.open(false) }

// WriteEndObject implements part of jdom.TokenWriter.
func (w *Writer) WriteEndObject() error { return w.close(false) }

// WriteStartArray implements part of jdom.TokenWriter.
func (w *Writer) WriteStartArray() error { return w.open(true) }

// WriteEndArray implements part of jdom.TokenWriter.
func (w *Writer) WriteEndArray() error { return w.close(true) }

// WriteStartConstructor implements part of jdom.TokenWriter. BSON has no
// constructors, so it always reports an error.
func (w *Writer) WriteStartConstructor(name string) error {
	return w.errorf("cannot write constructor %q to BSON", name)
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
	f := w.stack[len(w.stack)-1]
	if f.array {
		return w.errorf("property name %q outside an object", name)
	} else if f.named {
		return w.errorf("missing value for property %q", f.name)
	} else if strings.IndexByte(name, 0) >= 0 {
		return w.errorf("property name %q contains a NUL byte", name)
	}
	f.name, f.named = name, true
	return nil
}

// WriteValue implements part of jdom.TokenWriter. Integers are written as
// int32 when they fit, and as int64 otherwise. Integers too large for an
// int64, and jdom.Decimal values, are written as Decimal128.
func (w *Writer) WriteValue(v any) error {
	bv, err := bsonValue(v)
	if err != nil {
		return w.errorf("%v", err)
	}
	return w.add(bv)
}

// WriteNull implements part of jdom.TokenWriter.
func (w *Writer) WriteNull() error { return w.add(nil) }

// WriteUndefined implements part of jdom.TokenWriter.
func (w *Writer) WriteUndefined() error { return w.add(primitive.Undefined{}) }

// WriteComment implements part of jdom.TokenWriter. BSON has no comments,
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

// Flush implements part of jdom.TokenWriter. It writes any buffered
// documents to the underlying writer.
func (w *Writer) Flush() error { return w.w.Flush() }

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

// bsonValue converts a scalar accepted by jdom.TokenWriter to the value
// stored in a BSON document.
func bsonValue(v any) (any, error) {
	switch v := v.(type) {
	case nil, string, bool:
		return v, nil
	case int:
		return intValue(int64(v)), nil
	case int8:
		return int32(v), nil
	case int16:
		return int32(v), nil
	case int32:
		return v, nil
	case int64:
		return intValue(v), nil
	case uint:
		return uintValue(uint64(v))
	case uint8:
		return int32(v), nil
	case uint16:
		return int32(v), nil
	case uint32:
		return intValue(int64(v)), nil
	case uint64:
		return uintValue(v)
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case *big.Int:
		if v == nil {
			return nil, nil
		} else if v.IsInt64() {
			return intValue(v.Int64()), nil
		}
		return decimal128(v.String())
	case jdom.Decimal:
		return decimal128(v.String())
	case time.Time:
		return v, nil
	case []byte:
		if v == nil {
			return nil, nil
		}
		return primitive.Binary{Data: v}, nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

func intValue(v int64) any {
	if v >= math.MinInt32 && v <= math.MaxInt32 {
		return int32(v)
	}
	return v
}

func uintValue(v uint64) (any, error) {
	if v <= math.MaxInt64 {
		return intValue(int64(v)), nil
	}
	return decimal128(strconv.FormatUint(v, 10))
}

func decimal128(s string) (any, error) {
	d, err := primitive.ParseDecimal128(s)
	if err != nil {
		return nil, fmt.Errorf("value %s does not fit in Decimal128: %w", s, err)
	}
	return d, nil
}
