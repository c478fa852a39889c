// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package bsonx_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/creachadair/jdom"
	"github.com/creachadair/jdom/bsonx"
	"github.com/google/go-cmp/cmp"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func mustMarshal(t *testing.T, docs ...any) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, doc := range docs {
		bits, err := bson.Marshal(doc)
		if err != nil {
			t.Fatalf("Marshal %v: %v", doc, err)
		}
		buf.Write(bits)
	}
	return buf.Bytes()
}

// readTokens returns a summary of the tokens of r, one per token.
func readTokens(t *testing.T, r jdom.TokenReader) []string {
	t.Helper()
	var out []string
	for {
		err := r.Next()
		if err == io.EOF {
			return out
		} else if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		s := fmt.Sprintf("%d %v@%s", r.Depth(), r.Token(), r.Path())
		if v := r.Value(); v != nil {
			s += fmt.Sprintf("=%v", v)
		}
		out = append(out, s)
	}
}

func TestReader(t *testing.T) {
	input := mustMarshal(t, bson.D{
		{Key: "a", Value: int32(1)},
		{Key: "b", Value: bson.A{"x", true, nil}},
		{Key: "c", Value: bson.D{{Key: "d", Value: 2.5}}},
		{Key: "e f", Value: int64(1) << 40},
		{Key: "g", Value: bson.D{}},
	})
	const equiv = `{"a": 1, "b": ["x", true, null], "c": {"d": 2.5}, "e f": 1099511627776, "g": {}}`
	want := readTokens(t, jdom.NewReader(strings.NewReader(equiv)))
	got := readTokens(t, bsonx.NewReader(bytes.NewReader(input)))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Tokens (-want, +got):\n%s", diff)
	}
}

func TestReaderTypes(t *testing.T) {
	oid, err := primitive.ObjectIDFromHex("5f1e2d3c4b5a697887960504")
	if err != nil {
		t.Fatalf("ObjectIDFromHex: %v", err)
	}
	dec, err := primitive.ParseDecimal128("1.25")
	if err != nil {
		t.Fatalf("ParseDecimal128: %v", err)
	}
	input := mustMarshal(t, bson.D{
		{Key: "id", Value: oid},
		{Key: "bin", Value: primitive.Binary{Data: []byte("hi")}},
		{Key: "when", Value: primitive.DateTime(1500000000000)},
		{Key: "re", Value: primitive.Regex{Pattern: "a.*", Options: "i"}},
		{Key: "undef", Value: primitive.Undefined{}},
		{Key: "dec", Value: dec},
		{Key: "ts", Value: primitive.Timestamp{T: 1, I: 2}},
		{Key: "js", Value: primitive.JavaScript("f()")},
		{Key: "sym", Value: primitive.Symbol("s")},
	})

	rd := bsonx.NewReader(bytes.NewReader(input))
	type tokval struct {
		Tok jdom.TokenKind
		Val any
	}
	var got []tokval
	for {
		err := rd.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if tok := rd.Token(); tok.IsPrimitive() {
			got = append(got, tokval{tok, rd.Value()})
		}
	}
	want := []tokval{
		{jdom.String, "5f1e2d3c4b5a697887960504"},
		{jdom.Bytes, []byte("hi")},
		{jdom.Date, time.UnixMilli(1500000000000).UTC()},
		{jdom.String, "/a.*/i"},
		{jdom.Undefined, nil},
		{jdom.Float, mustDecimal(t, "1.25")},
		{jdom.Integer, int64(1)<<32 | 2},
		{jdom.String, "f()"},
		{jdom.String, "s"},
	}
	opt := cmp.Comparer(func(a, b jdom.Decimal) bool { return a.Equal(b) })
	if diff := cmp.Diff(want, got, opt); diff != "" {
		t.Errorf("Values (-want, +got):\n%s", diff)
	}
}

func mustDecimal(t *testing.T, s string) jdom.Decimal {
	t.Helper()
	d, err := jdom.ParseDecimal(s)
	if err != nil {
		t.Fatalf("ParseDecimal(%q): %v", s, err)
	}
	return d
}

func TestReaderMultiple(t *testing.T) {
	input := mustMarshal(t, bson.D{{Key: "a", Value: int32(1)}}, bson.D{{Key: "0", Value: "x"}})

	t.Run("Single", func(t *testing.T) {
		rd := bsonx.NewReader(bytes.NewReader(input))
		var err error
		for err == nil {
			err = rd.Next()
		}
		var serr *jdom.SyntaxError
		if !errors.As(err, &serr) {
			t.Fatalf("Next: got %v, want *SyntaxError", err)
		}
		if !strings.Contains(serr.Message, "after document") {
			t.Errorf("Error message: got %q, want after document", serr.Message)
		}
		if err2 := rd.Next(); err2 != err {
			t.Errorf("Next after error: got %v, want %v", err2, err)
		}
	})

	t.Run("Multiple", func(t *testing.T) {
		rd := bsonx.NewReader(bytes.NewReader(input))
		rd.AllowMultipleValues(true)
		rd.ReadRootAsArray(true)
		got := readTokens(t, rd)
		want := []string{
			"0 start array@",
			"1 integer@[0]=1",
			"0 end array@",
			"0 start array@",
			"1 string@[0]=x",
			"0 end array@",
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Tokens (-want, +got):\n%s", diff)
		}
	})
}

func TestReaderErrors(t *testing.T) {
	good := mustMarshal(t, bson.D{{Key: "a", Value: "hello"}})
	tests := []struct {
		name  string
		input []byte
	}{
		{"Truncated", good[:len(good)-3]},
		{"ShortLength", []byte{3, 0, 0, 0}},
		{"BadTerminator", append(append([]byte(nil), good[:len(good)-1]...), 1)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rd := bsonx.NewReader(bytes.NewReader(tc.input))
			var err error
			for err == nil {
				err = rd.Next()
			}
			var serr *jdom.SyntaxError
			if !errors.As(err, &serr) {
				t.Errorf("Next: got %v, want *SyntaxError", err)
			}
		})
	}

	t.Run("Empty", func(t *testing.T) {
		rd := bsonx.NewReader(bytes.NewReader(nil))
		if err := rd.Next(); err != io.EOF {
			t.Errorf("Next: got %v, want EOF", err)
		}
	})
}

func writeJSON(t *testing.T, w *bsonx.Writer, input string) error {
	t.Helper()
	rd := jdom.NewReader(strings.NewReader(input))
	rd.AllowMultipleValues(true)
	if err := jdom.WriteTokens(w, rd); err != nil {
		return err
	}
	return w.Close()
}

func TestWriter(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []any
	}{
		{"Empty", `{}`, []any{bson.D{}}},
		{"Scalars", `{"a": 1, "b": 2.5, "c": "x", "d": true, "e": null, "f": undefined}`, []any{bson.D{
			{Key: "a", Value: int32(1)},
			{Key: "b", Value: 2.5},
			{Key: "c", Value: "x"},
			{Key: "d", Value: true},
			{Key: "e", Value: nil},
			{Key: "f", Value: primitive.Undefined{}},
		}}},
		{"Int64", `{"big": 1099511627776, "neg": -2147483649}`, []any{bson.D{
			{Key: "big", Value: int64(1099511627776)},
			{Key: "neg", Value: int64(-2147483649)},
		}}},
		{"Nested", `{"a": [1, {"b": []}], /* gone */ "c": {}}`, []any{bson.D{
			{Key: "a", Value: bson.A{int32(1), bson.D{{Key: "b", Value: bson.A{}}}}},
			{Key: "c", Value: bson.D{}},
		}}},
		{"Multiple", `{"a": 1} {"b": 2}`, []any{
			bson.D{{Key: "a", Value: int32(1)}},
			bson.D{{Key: "b", Value: int32(2)}},
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := writeJSON(t, bsonx.NewWriter(&buf), tc.input); err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			want := mustMarshal(t, tc.want...)
			if !bytes.Equal(buf.Bytes(), want) {
				t.Errorf("Output:\ngot  %v\nwant %v", bson.Raw(buf.Bytes()), bson.Raw(want))
			}
		})
	}
}

func TestWriterValues(t *testing.T) {
	var buf bytes.Buffer
	w := bsonx.NewWriter(&buf)
	when := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)
	dec := mustDecimal(t, "3.25")
	check := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	check(w.WriteStartObject())
	check(w.WritePropertyName("when"))
	check(w.WriteValue(when))
	check(w.WritePropertyName("bits"))
	check(w.WriteValue([]byte{1, 2, 3}))
	check(w.WritePropertyName("dec"))
	check(w.WriteValue(dec))
	check(w.WritePropertyName("huge"))
	check(w.WriteValue(uint64(1) << 63))
	check(w.WritePropertyName("raw"))
	check(w.WriteRaw(`[1, "two"] // done`))
	check(w.WriteEndObject())
	check(w.Close())

	d128, err := primitive.ParseDecimal128("3.25")
	if err != nil {
		t.Fatalf("ParseDecimal128: %v", err)
	}
	h128, err := primitive.ParseDecimal128("9223372036854775808")
	if err != nil {
		t.Fatalf("ParseDecimal128: %v", err)
	}
	want := mustMarshal(t, bson.D{
		{Key: "when", Value: when},
		{Key: "bits", Value: primitive.Binary{Data: []byte{1, 2, 3}}},
		{Key: "dec", Value: d128},
		{Key: "huge", Value: h128},
		{Key: "raw", Value: bson.A{int32(1), "two"}},
	})
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("Output:\ngot  %v\nwant %v", bson.Raw(buf.Bytes()), bson.Raw(want))
	}
}

func TestWriterRootArray(t *testing.T) {
	var buf bytes.Buffer
	w := bsonx.NewWriter(&buf)
	w.WriteRootAsArray(true)
	if err := writeJSON(t, w, `["a", 2]`); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	want := mustMarshal(t, bson.D{{Key: "0", Value: "a"}, {Key: "1", Value: int32(2)}})
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("Output:\ngot  %v\nwant %v", bson.Raw(buf.Bytes()), bson.Raw(want))
	}
}

func TestWriterErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Scalar", `1`, "must be an object"},
		{"RootArray", `[1]`, "must be an object"},
		{"Constructor", `{"a": new Date(1)}`, "constructor"},
		{"Unclosed", `{"a": [1`, "end of input"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := writeJSON(t, bsonx.NewWriter(io.Discard), tc.input)
			var serr *jdom.SyntaxError
			if !errors.As(err, &serr) {
				t.Fatalf("Write: got %v, want *SyntaxError", err)
			}
			if !strings.Contains(serr.Message, tc.want) {
				t.Errorf("Error: got %q, want %q", serr.Message, tc.want)
			}
		})
	}

	t.Run("Direct", func(t *testing.T) {
		w := bsonx.NewWriter(io.Discard)
		if err := w.WritePropertyName("a"); err == nil {
			t.Error("WritePropertyName outside an object: got nil, want error")
		}
		if err := w.WriteStartObject(); err != nil {
			t.Fatalf("WriteStartObject: %v", err)
		}
		if err := w.WriteValue(1); err == nil {
			t.Error("WriteValue without a name: got nil, want error")
		}
		if err := w.WritePropertyName("x\x00y"); err == nil {
			t.Error("WritePropertyName with NUL: got nil, want error")
		}
		if err := w.WriteValue(struct{}{}); err == nil {
			t.Error("WriteValue(struct{}): got nil, want error")
		}
		if err := w.WriteEndArray(); err == nil {
			t.Error("WriteEndArray in object: got nil, want error")
		}
	})
}

func TestRoundTrip(t *testing.T) {
	const input = `{"a":1,"b":[true,null,"x",2.5],"c":{"d":{"e":[]}},"f":-7}`

	var bin bytes.Buffer
	if err := writeJSON(t, bsonx.NewWriter(&bin), input); err != nil {
		t.Fatalf("Write BSON: %v", err)
	}

	var out strings.Builder
	jw := jdom.NewWriter(&out)
	if err := jdom.WriteTokens(jw, bsonx.NewReader(&bin)); err != nil {
		t.Fatalf("Copy tokens: %v", err)
	}
	if err := jw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := out.String(); got != input {
		t.Errorf("Round trip:\ngot  %s\nwant %s", got, input)
	}
}
