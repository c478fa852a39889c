// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jdom

import (
	"encoding/base64"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// The typed read methods advance the reader to the next value, skipping
// comments, and convert it to the requested type. They report ok == false
// without error if the value is null or undefined, or if the token ends an
// array. If the value cannot be converted, they report a *SyntaxError with
// kind CoercionError, which is terminal like all other reader errors. At the
// end of input they report io.EOF.
//
// After a successful conversion, the current token reflects the converted
// value: for example, ReadAsInt32 on the string "12" leaves an Integer token.

// readTyped advances to the next non-comment token, using t to guide the
// conversion of scalar values.
func (r *Reader) readTyped(t readType) error {
	r.rtype = t
	defer func() { r.rtype = readNone }()
	for {
		if err := r.Next(); err != nil {
			return err
		} else if r.tok != Comment {
			return nil
		}
	}
}

func (r *Reader) coerceError(want string) error {
	return r.fail(Errorf(CoercionError, r, "unexpected %v when reading %s", r.tok, want))
}

func (r *Reader) convertError(s, want string) error {
	return r.fail(Errorf(CoercionError, r, "cannot convert string %q to %s", s, want))
}

// isNullish reports whether the current token counts as a missing value for
// a typed read.
func (r *Reader) isNullish() bool {
	return r.tok == Null || r.tok == Undefined || r.tok == EndArray
}

// emptyString reports whether the current token is an empty string, which
// typed reads other than ReadAsString and ReadAsBytes treat as null.
func (r *Reader) emptyString() bool {
	if r.tok == String && r.value.(string) == "" {
		r.tok, r.value = Null, nil
		return true
	}
	return false
}

func (r *Reader) set(tok TokenKind, v any) { r.tok, r.value = tok, v }

// ReadAsInt32 reads the next value as a 32-bit integer.
func (r *Reader) ReadAsInt32() (int32, bool, error) {
	if err := r.readTyped(readInt32); err != nil {
		return 0, false, err
	} else if r.isNullish() || r.emptyString() {
		return 0, false, nil
	}
	switch r.tok {
	case Integer:
		if v, ok := r.value.(int64); ok && v >= math.MinInt32 && v <= math.MaxInt32 {
			return int32(v), true, nil
		}
	case String:
		s := r.value.(string)
		v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
		if err != nil {
			return 0, false, r.convertError(s, "int32")
		}
		r.set(Integer, v)
		return int32(v), true, nil
	}
	return 0, false, r.coerceError("int32")
}

// ReadAsString reads the next value as a string. Numbers and booleans are
// reported as their text, dates in RFC 3339 format, and bytes as base64.
func (r *Reader) ReadAsString() (string, bool, error) {
	if err := r.readTyped(readString); err != nil {
		return "", false, err
	} else if r.isNullish() {
		return "", false, nil
	}
	var s string
	switch r.tok {
	case String:
		return r.value.(string), true, nil
	case Integer, Float, Boolean:
		s = string(r.text)
	case Date:
		s = r.value.(time.Time).Format(time.RFC3339Nano)
	case Bytes:
		s = base64.StdEncoding.EncodeToString(r.value.([]byte))
	default:
		return "", false, r.coerceError("string")
	}
	r.set(String, s)
	return s, true, nil
}

// ReadAsBoolean reads the next value as a Boolean. Numbers are true if they
// are not zero, and the strings "true" and "false" are accepted regardless
// of case.
func (r *Reader) ReadAsBoolean() (bool, bool, error) {
	if err := r.readTyped(readBoolean); err != nil {
		return false, false, err
	} else if r.isNullish() || r.emptyString() {
		return false, false, nil
	}
	var b bool
	switch r.tok {
	case Boolean:
		return r.value.(bool), true, nil
	case Integer:
		switch v := r.value.(type) {
		case int64:
			b = v != 0
		case *big.Int:
			b = v.Sign() != 0
		}
	case Float:
		switch v := r.value.(type) {
		case float64:
			b = v != 0
		case Decimal:
			b = !v.IsZero()
		}
	case String:
		s := strings.TrimSpace(r.value.(string))
		if strings.EqualFold(s, "true") {
			b = true
		} else if !strings.EqualFold(s, "false") {
			return false, false, r.convertError(r.value.(string), "boolean")
		}
	default:
		return false, false, r.coerceError("boolean")
	}
	r.set(Boolean, b)
	return b, true, nil
}

// ReadAsBytes reads the next value as a byte slice. A string is decoded as
// base64, and an array of integers in the range 0 to 255 is accepted.
// An empty string is an empty slice.
func (r *Reader) ReadAsBytes() ([]byte, bool, error) {
	if err := r.readTyped(readBytes); err != nil {
		return nil, false, err
	} else if r.isNullish() {
		return nil, false, nil
	}
	switch r.tok {
	case Bytes:
		return r.value.([]byte), true, nil
	case StartArray:
		data := []byte{}
		for {
			if err := r.Next(); err != nil {
				return nil, false, eofInValue(r, err)
			}
			switch r.tok {
			case Comment:
				continue
			case EndArray:
				r.set(Bytes, data)
				return data, true, nil
			case Integer:
				if v, ok := r.value.(int64); ok && v >= 0 && v <= math.MaxUint8 {
					data = append(data, byte(v))
					continue
				}
			}
			return nil, false, r.coerceError("bytes")
		}
	}
	return nil, false, r.coerceError("bytes")
}

// ReadAsDateTime reads the next value as a time, converted to UTC.
func (r *Reader) ReadAsDateTime() (time.Time, bool, error) {
	t, ok, err := r.readDate("date")
	if ok {
		t = t.UTC()
		r.value = t
	}
	return t, ok, err
}

// ReadAsDateTimeOffset reads the next value as a time, keeping the zone
// offset given in the input.
func (r *Reader) ReadAsDateTimeOffset() (time.Time, bool, error) { return r.readDate("date with offset") }

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02"}

func (r *Reader) readDate(want string) (time.Time, bool, error) {
	if err := r.readTyped(readDate); err != nil {
		return time.Time{}, false, err
	} else if r.isNullish() || r.emptyString() {
		return time.Time{}, false, nil
	}
	switch r.tok {
	case Date:
		return r.value.(time.Time), true, nil
	case String:
		s := strings.TrimSpace(r.value.(string))
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				r.set(Date, t)
				return t, true, nil
			}
		}
		return time.Time{}, false, r.convertError(r.value.(string), want)
	}
	return time.Time{}, false, r.coerceError(want)
}

// ReadAsDecimal reads the next value as a Decimal.
func (r *Reader) ReadAsDecimal() (Decimal, bool, error) {
	if err := r.readTyped(readDecimal); err != nil {
		return Decimal{}, false, err
	} else if r.isNullish() || r.emptyString() {
		return Decimal{}, false, nil
	}
	var d Decimal
	var err error
	switch r.tok {
	case Float:
		switch v := r.value.(type) {
		case Decimal:
			return v, true, nil
		case float64:
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return Decimal{}, false, r.coerceError("decimal")
			}
			d, err = ParseDecimal(strconv.FormatFloat(v, 'g', -1, 64))
		}
	case Integer:
		d, err = ParseDecimal(string(r.text))
	case String:
		s := r.value.(string)
		if d, err = ParseDecimal(strings.TrimSpace(s)); err != nil {
			return Decimal{}, false, r.convertError(s, "decimal")
		}
	default:
		return Decimal{}, false, r.coerceError("decimal")
	}
	if err != nil {
		return Decimal{}, false, r.coerceError("decimal")
	}
	r.set(Float, d)
	return d, true, nil
}

// ReadAsDouble reads the next value as a float64.
func (r *Reader) ReadAsDouble() (float64, bool, error) {
	if err := r.readTyped(readDouble); err != nil {
		return 0, false, err
	} else if r.isNullish() || r.emptyString() {
		return 0, false, nil
	}
	var f float64
	switch r.tok {
	case Float:
		switch v := r.value.(type) {
		case float64:
			return v, true, nil
		case Decimal:
			f = v.Float64()
		}
	case Integer:
		switch v := r.value.(type) {
		case int64:
			f = float64(v)
		case *big.Int:
			f, _ = new(big.Float).SetInt(v).Float64()
		}
	case String:
		s := r.value.(string)
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false, r.convertError(s, "double")
		}
		f = v
	default:
		return 0, false, r.coerceError("double")
	}
	r.set(Float, f)
	return f, true, nil
}
