// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jdom_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/creachadair/jdom"
	"github.com/google/go-cmp/cmp"
)

// tokenString renders the current token of r for comparison.
func tokenString(r jdom.TokenReader) string {
	s := fmt.Sprintf("%v@%s", r.Token(), r.Path())
	if v := r.Value(); v != nil {
		s += fmt.Sprintf("=%v", v)
	}
	return s
}

// readAll reads the remaining tokens of r.
func readAll(r jdom.TokenReader) ([]string, error) {
	var got []string
	for {
		err := r.Next()
		if err == io.EOF {
			return got, nil
		} else if err != nil {
			return got, err
		}
		got = append(got, tokenString(r))
	}
}

func TestReaderTokens(t *testing.T) {
	tests := []struct {
		name  string
		input string
		setup func(*jdom.Reader)
		want  []string
	}{
		{"Empty", "", nil, nil},
		{"Space", " \t\r\n ", nil, nil},
		{"Scalar", `15`, nil, []string{"integer@=15"}},
		{"Nested", `{"a": [1, 2.5, "x"], "b": {"c": null}}`, nil, []string{
			"start object@",
			"property name@a=a",
			"start array@a",
			"integer@a[0]=1",
			"float@a[1]=2.5",
			"string@a[2]=x",
			"end array@a",
			"property name@b=b",
			"start object@b",
			"property name@b.c=c",
			"null@b.c",
			"end object@b",
			"end object@",
		}},
		{"Constructor", `new Date(1, "x")`, nil, []string{
			"start constructor@=Date",
			"integer@[0]=1",
			"string@[1]=x",
			"end constructor@",
		}},
		{"EmptyConstructor", `[new Foo ( )]`, nil, []string{
			"start array@",
			"start constructor@[0]=Foo",
			"end constructor@[0]",
			"end array@",
		}},
		{"Comments", "/*a*/[1//b\n]", nil, []string{
			"comment@=a",
			"start array@",
			"integer@[0]=1",
			"comment@[0]=b",
			"end array@",
		}},
		{"IgnoreComments", "/*a*/[1//b\n]", func(r *jdom.Reader) {
			r.SetComments(jdom.CommentsIgnore)
		}, []string{"start array@", "integer@[0]=1", "end array@"}},
		{"Sparse", `[1,,2]`, func(r *jdom.Reader) { r.AllowSparseArrays(true) }, []string{
			"start array@",
			"integer@[0]=1",
			"undefined@[1]",
			"integer@[2]=2",
			"end array@",
		}},
		{"SparseLeading", `[,1]`, func(r *jdom.Reader) { r.AllowSparseArrays(true) }, []string{
			"start array@",
			"undefined@[0]",
			"integer@[1]=1",
			"end array@",
		}},
		{"TrailingComma", `[1,]`, func(r *jdom.Reader) { r.AllowTrailingCommas(true) }, []string{
			"start array@", "integer@[0]=1", "end array@",
		}},
		{"TrailingCommaObject", `{"a":1,}`, func(r *jdom.Reader) { r.AllowTrailingCommas(true) }, []string{
			"start object@", "property name@a=a", "integer@a=1", "end object@",
		}},
		{"Multiple", `1 "a" []`, func(r *jdom.Reader) { r.AllowMultipleValues(true) }, []string{
			"integer@=1", "string@=a", "start array@", "end array@",
		}},
		{"Special", `[NaN, Infinity, -Infinity, undefined, true]`, nil, []string{
			"start array@",
			"float@[0]=NaN",
			"float@[1]=+Inf",
			"float@[2]=-Inf",
			"undefined@[3]",
			"boolean@[4]=true",
			"end array@",
		}},
		{"Unquoted", `{a: 'x', $b_1: "y"}`, nil, []string{
			"start object@",
			"property name@a=a",
			"string@a=x",
			"property name@$b_1=$b_1",
			"string@$b_1=y",
			"end object@",
		}},
		{"Brackets", `{"a b": {"c.d": 1}}`, nil, []string{
			"start object@",
			"property name@['a b']=a b",
			"start object@['a b']",
			"property name@['a b']['c.d']=c.d",
			"integer@['a b']['c.d']=1",
			"end object@['a b']",
			"end object@",
		}},
		{"BigInteger", `123456789012345678901234567890`, nil, []string{
			"integer@=123456789012345678901234567890",
		}},
		{"Escapes", `"a\tb\"c\/d"`, nil, []string{"string@=a\tb\"c/d"}},
		{"Decimal", `[1.10, 2]`, func(r *jdom.Reader) { r.SetFloatParse(jdom.FloatDecimal) }, []string{
			"start array@", "float@[0]=1.10", "integer@[1]=2", "end array@",
		}},
		{"DecimalUnderflow", `1e-99999999`, func(r *jdom.Reader) { r.SetFloatParse(jdom.FloatDecimal) }, []string{
			"float@=0.0000000000000000000000000000",
		}},
		{"NoDates", `"2012-03-21T05:40:00Z"`, func(r *jdom.Reader) { r.SetDateParse(jdom.DateNone) }, []string{
			"string@=2012-03-21T05:40:00Z",
		}},
		{"Overflow", `[1e400, -1e400]`, nil, []string{
			"start array@", "float@[0]=+Inf", "float@[1]=-Inf", "end array@",
		}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := jdom.NewReader(strings.NewReader(test.input))
			if test.setup != nil {
				test.setup(r)
			}
			got, err := readAll(r)
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("Tokens (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestReaderErrors(t *testing.T) {
	tests := []struct {
		input string
		setup func(*jdom.Reader)
		kind  jdom.ErrorKind
		want  string
	}{
		{`{"a": 1,}`, nil, jdom.StructuralError, `at 1:9, path "a": trailing comma before '}'`},
		{`[1,]`, nil, jdom.StructuralError, `at 1:4, path "[0]": trailing comma before ']'`},
		{`[1 2]`, nil, jdom.LexicalError, `at 1:4, path "[0]": unexpected '2' after value`},
		{`{"a" 1}`, nil, jdom.LexicalError, `at 1:6: unexpected '1' after property name, expected ":"`},
		{`01`, nil, jdom.LexicalError, `at 1:2: extra leading zeroes`},
		{`"abc`, nil, jdom.LexicalError, `at 1:4: unterminated string`},
		{`[1, 2`, nil, jdom.StructuralError, `at 1:5, path "[1]": unexpected end of input`},
		{`[}`, nil, jdom.LexicalError, `at 1:2: unexpected '}' while parsing value`},
		{`[1}`, nil, jdom.StructuralError, `at 1:3, path "[0]": unexpected '}', expected ']'`},
		{`"\x"`, nil, jdom.LexicalError, `at 1:3: invalid escape "\\x"`},
		{`truth`, nil, jdom.LexicalError, `at 1:5: unknown constant "truth"`},
		{`tru`, nil, jdom.LexicalError, `at 1:3: unknown constant "tru"`},
		{`true1`, nil, jdom.LexicalError, `at 1:5: unexpected '1' after true`},
		{`1 2`, nil, jdom.LexicalError, `at 1:3: unexpected '2' after the end of the value`},
		{`.5`, nil, jdom.LexicalError, `at 1:1: missing digits in number`},
		{`-`, nil, jdom.LexicalError, `at 1:1: missing digits in number`},
		{`1.`, nil, jdom.LexicalError, `at 1:2: no digits after decimal point`},
		{`1e`, nil, jdom.LexicalError, `at 1:2: missing exponent digits`},
		{`[1,,2]`, nil, jdom.LexicalError, `at 1:4, path "[0]": unexpected ',' while parsing value`},
		{`[/**/]`, func(r *jdom.Reader) { r.SetComments(jdom.CommentsError) },
			jdom.LexicalError, `at 1:2: comments are not allowed`},
		{`[[[1]]]`, func(r *jdom.Reader) { r.SetMaxDepth(2) },
			jdom.StructuralError, `at 1:3, path "[0]": maximum depth of 2 exceeded`},
		{"[\n/* open", nil, jdom.LexicalError, `at 2:7: unterminated block comment`},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			r := jdom.NewReader(strings.NewReader(test.input))
			if test.setup != nil {
				test.setup(r)
			}
			_, err := readAll(r)
			var serr *jdom.SyntaxError
			if !errors.As(err, &serr) {
				t.Fatalf("Read: got error %v, want *SyntaxError", err)
			}
			if serr.Kind != test.kind {
				t.Errorf("Error kind: got %v, want %v", serr.Kind, test.kind)
			}
			if diff := cmp.Diff(test.want, err.Error()); diff != "" {
				t.Errorf("Error (-want, +got):\n%s", diff)
			}

			// Errors are terminal.
			if err2 := r.Next(); err2 != err {
				t.Errorf("Next after error: got %v, want %v", err2, err)
			}
			if r.Err() != err {
				t.Errorf("Err: got %v, want %v", r.Err(), err)
			}
		})
	}
}

func TestReaderLocation(t *testing.T) {
	const input = "[\n  1,\r\n  \"ab\"\r\n]"
	type tokLoc struct {
		Tok  string
		Loc  jdom.Location
		Last jdom.LineCol
	}
	loc := func(pos, end int64, l1, c1, l2, c2 int) jdom.Location {
		return jdom.Location{
			Span:  jdom.Span{Pos: pos, End: end},
			First: jdom.LineCol{Line: l1, Column: c1},
			Last:  jdom.LineCol{Line: l2, Column: c2},
		}
	}
	want := []tokLoc{
		{"start array@", loc(0, 1, 1, 1, 1, 1), jdom.LineCol{Line: 1, Column: 1}},
		{"integer@[0]=1", loc(4, 5, 2, 3, 2, 3), jdom.LineCol{Line: 2, Column: 3}},
		{"string@[1]=ab", loc(10, 14, 3, 3, 3, 6), jdom.LineCol{Line: 3, Column: 6}},
		{"end array@", loc(16, 17, 4, 1, 4, 1), jdom.LineCol{Line: 4, Column: 1}},
	}

	r := jdom.NewReader(strings.NewReader(input))
	var got []tokLoc
	for r.Next() == nil {
		got = append(got, tokLoc{tokenString(r), r.TokenLocation(), r.Location()})
	}
	if err := r.Err(); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Locations (-want, +got):\n%s", diff)
	}
}

func TestPushReader(t *testing.T) {
	const input = "{\"name\": \"Zoë\", // note\r\n \"list\": [1, -2.5e3, true, null, 'q\\tr'],\r" +
		"\n \"ctor\": new Foo(12, /* in */ undefined), \"big\": 123456789012345678901}\n" +
		"[NaN, -Infinity] \"2012-03-21T05:40:00Z\" 99"

	// The baseline reads the whole input at once.
	base := jdom.NewReader(strings.NewReader(input))
	base.AllowMultipleValues(true)
	want, err := readLocs(base, nil)
	if err != nil {
		t.Fatalf("Baseline read failed: %v", err)
	}

	for _, size := range []int{1, 2, 3, 7, 64} {
		t.Run(fmt.Sprint(size), func(t *testing.T) {
			r := jdom.NewPushReader()
			r.AllowMultipleValues(true)
			data := []byte(input)
			got, err := readLocs(r, func() {
				if len(data) == 0 {
					r.CloseInput()
					return
				}
				n := min(size, len(data))
				if err := r.Push(data[:n]); err != nil {
					t.Fatalf("Push failed: %v", err)
				}
				data = data[n:]
			})
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Tokens (-want, +got):\n%s", diff)
			}
		})
	}
}

// readLocs reads all the tokens of r with their locations, calling more each
// time r needs more input.
func readLocs(r *jdom.Reader, more func()) ([]string, error) {
	var got []string
	for {
		err := r.Next()
		if errors.Is(err, jdom.ErrNeedInput) {
			more()
			continue
		} else if err == io.EOF {
			return got, nil
		} else if err != nil {
			return got, err
		}
		got = append(got, fmt.Sprintf("%s %v %v", tokenString(r), r.TokenLocation(), r.Depth()))
	}
}

func TestPushReaderNeedsInput(t *testing.T) {
	r := jdom.NewPushReader()
	if err := r.Next(); !errors.Is(err, jdom.ErrNeedInput) {
		t.Fatalf("Next: got %v, want %v", err, jdom.ErrNeedInput)
	}
	r.Push([]byte(`[tr`))
	if err := r.Next(); err != nil || r.Token() != jdom.StartArray {
		t.Fatalf("Next: got %v, %v; want start array", r.Token(), err)
	}
	if err := r.Next(); !errors.Is(err, jdom.ErrNeedInput) {
		t.Fatalf("Next: got %v, want %v", err, jdom.ErrNeedInput)
	}
	r.Push([]byte(`ue]`))
	r.CloseInput()
	got, err := readAll(r)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if diff := cmp.Diff([]string{"boolean@[0]=true", "end array@"}, got); diff != "" {
		t.Errorf("Tokens (-want, +got):\n%s", diff)
	}
	if err := r.Push([]byte("x")); err == nil {
		t.Error("Push after CloseInput: got nil, want error")
	}
}

func TestNextContext(t *testing.T) {
	pr, pw := io.Pipe()
	r := jdom.NewReader(pr)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := r.NextContext(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("NextContext: got %v, want %v", err, context.DeadlineExceeded)
	}

	// The abandoned read completes when input arrives, and nothing is lost.
	go func() {
		pw.Write([]byte(`[1]`))
		pw.Close()
	}()
	got, err := readAll(r)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if diff := cmp.Diff([]string{"start array@", "integer@[0]=1", "end array@"}, got); diff != "" {
		t.Errorf("Tokens (-want, +got):\n%s", diff)
	}
}

func TestReaderSkip(t *testing.T) {
	r := jdom.NewReader(strings.NewReader(`{"a": [1, {"b": 2}], "c": 3}`))
	mustNext := func() {
		t.Helper()
		if err := r.Next(); err != nil {
			t.Fatalf("Next failed: %v", err)
		}
	}
	mustNext() // {
	mustNext() // "a"
	if err := r.Skip(); err != nil {
		t.Fatalf("Skip failed: %v", err)
	}
	if got := tokenString(r); got != "end array@a" {
		t.Errorf("After Skip: got %q, want end array", got)
	}
	mustNext()
	if got := tokenString(r); got != "property name@c=c" {
		t.Errorf("After Skip: got %q, want property c", got)
	}
}

func TestReaderClose(t *testing.T) {
	r := jdom.NewReader(strings.NewReader(`[1, 2]`))
	r.Next()
	r.Close()
	if err := r.Next(); !errors.Is(err, jdom.ErrClosed) {
		t.Errorf("Next after Close: got %v, want %v", err, jdom.ErrClosed)
	}
}

func TestReaderDates(t *testing.T) {
	r := jdom.NewReader(strings.NewReader(`["2012-03-21T05:40:00Z", "/Date(1332308400000+0100)/", "2012-03-21"]`))
	got, err := readAll(r)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	want := []string{
		"start array@",
		"date@[0]=2012-03-21 05:40:00 +0000 UTC",
		"date@[1]=2012-03-21 06:40:00 +0100 +0100",
		"string@[2]=2012-03-21",
		"end array@",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Tokens (-want, +got):\n%s", diff)
	}
}

type typedResult[T any] struct {
	V  T
	OK bool
}

func TestTypedReads(t *testing.T) {
	open := func(t *testing.T, input string) *jdom.Reader {
		t.Helper()
		r := jdom.NewReader(strings.NewReader(input))
		if err := r.Next(); err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		return r
	}
	check := func(t *testing.T, got, want any) {
		t.Helper()
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Result (-want, +got):\n%s", diff)
		}
	}

	t.Run("Int32", func(t *testing.T) {
		r := open(t, `[12, "34", null, "", /* c */ 5]`)
		var got []typedResult[int32]
		for range 6 {
			v, ok, err := r.ReadAsInt32()
			if err != nil {
				t.Fatalf("ReadAsInt32 failed: %v", err)
			}
			got = append(got, typedResult[int32]{v, ok})
		}
		check(t, got, []typedResult[int32]{{12, true}, {34, true}, {0, false}, {0, false}, {5, true}, {0, false}})
		if _, _, err := r.ReadAsInt32(); err != io.EOF {
			t.Errorf("ReadAsInt32 at end: got %v, want EOF", err)
		}
	})
	t.Run("Int32Errors", func(t *testing.T) {
		for _, input := range []string{`[1.5]`, `["x"]`, `[3000000000]`, `[true]`, `[{}]`} {
			r := open(t, input)
			_, _, err := r.ReadAsInt32()
			var serr *jdom.SyntaxError
			if !errors.As(err, &serr) || serr.Kind != jdom.CoercionError {
				t.Errorf("ReadAsInt32(%q): got %v, want coercion error", input, err)
			}
			if r.Next() != err {
				t.Errorf("ReadAsInt32(%q): error is not terminal", input)
			}
		}
	})
	t.Run("String", func(t *testing.T) {
		r := open(t, `[1.50, true, "x", null, "", NaN]`)
		var got []typedResult[string]
		for range 6 {
			v, ok, err := r.ReadAsString()
			if err != nil {
				t.Fatalf("ReadAsString failed: %v", err)
			}
			got = append(got, typedResult[string]{v, ok})
		}
		check(t, got, []typedResult[string]{{"1.50", true}, {"true", true}, {"x", true}, {"", false}, {"", true}, {"NaN", true}})
	})
	t.Run("Boolean", func(t *testing.T) {
		r := open(t, `["TRUE", 0, 2, false]`)
		var got []typedResult[bool]
		for range 4 {
			v, ok, err := r.ReadAsBoolean()
			if err != nil {
				t.Fatalf("ReadAsBoolean failed: %v", err)
			}
			got = append(got, typedResult[bool]{v, ok})
		}
		check(t, got, []typedResult[bool]{{true, true}, {false, true}, {true, true}, {false, true}})
	})
	t.Run("Bytes", func(t *testing.T) {
		r := open(t, `["aGVsbG8=", [104, 105], ""]`)
		var got []typedResult[string]
		for range 3 {
			v, ok, err := r.ReadAsBytes()
			if err != nil {
				t.Fatalf("ReadAsBytes failed: %v", err)
			}
			got = append(got, typedResult[string]{string(v), ok})
		}
		check(t, got, []typedResult[string]{{"hello", true}, {"hi", true}, {"", true}})
	})
	t.Run("Decimal", func(t *testing.T) {
		r := open(t, `["1.25", 3, 0.1, null, 1e-99999999, "-1e-2147483648"]`)
		var got []typedResult[string]
		for range 6 {
			v, ok, err := r.ReadAsDecimal()
			if err != nil {
				t.Fatalf("ReadAsDecimal failed: %v", err)
			}
			got = append(got, typedResult[string]{v.String(), ok})
		}
		check(t, got, []typedResult[string]{{"1.25", true}, {"3", true}, {"0.1", true}, {"0", false},
			{"0.0000000000000000000000000000", true}, {"0.0000000000000000000000000000", true},
		})
	})
	t.Run("Double", func(t *testing.T) {
		r := open(t, `["2.5", 7, -1e400]`)
		var got []float64
		for range 3 {
			v, _, err := r.ReadAsDouble()
			if err != nil {
				t.Fatalf("ReadAsDouble failed: %v", err)
			}
			got = append(got, v)
		}
		if got[0] != 2.5 || got[1] != 7 || got[2] > -1e308 {
			t.Errorf("ReadAsDouble: got %v, want [2.5 7 -Inf]", got)
		}
	})
	t.Run("Dates", func(t *testing.T) {
		const input = `["2012-03-21T05:40:00+01:00", "2012-03-21T05:40:00+01:00", "/Date(1332308400000)/"]`
		r := open(t, input)
		utc, ok, err := r.ReadAsDateTime()
		if err != nil || !ok {
			t.Fatalf("ReadAsDateTime: got %v, %v, %v", utc, ok, err)
		}
		if got, want := utc.Format(time.RFC3339), "2012-03-21T04:40:00Z"; got != want {
			t.Errorf("ReadAsDateTime: got %s, want %s", got, want)
		}
		off, ok, err := r.ReadAsDateTimeOffset()
		if err != nil || !ok {
			t.Fatalf("ReadAsDateTimeOffset: got %v, %v, %v", off, ok, err)
		}
		if got, want := off.Format(time.RFC3339), "2012-03-21T05:40:00+01:00"; got != want {
			t.Errorf("ReadAsDateTimeOffset: got %s, want %s", got, want)
		}
		ms, _, err := r.ReadAsDateTime()
		if err != nil {
			t.Fatalf("ReadAsDateTime: %v", err)
		}
		if want := time.UnixMilli(1332308400000).UTC(); !ms.Equal(want) {
			t.Errorf("ReadAsDateTime: got %v, want %v", ms, want)
		}
	})
}
