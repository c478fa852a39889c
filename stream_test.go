// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jdom_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/creachadair/jdom"
	"github.com/google/go-cmp/cmp"
)

func TestStream(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "."},
		{"   ", "."},

		{"true false null", `
Value boolean <true>
Value boolean <false>
Value null
.`},

		{`0 5 -6.32 0.1e-2`, `
Value integer <0>
Value integer <5>
Value float <-6.32>
Value float <0.001>
.`},

		{`"" "a b c" "a\"b"`, `
Value string <>
Value string <a b c>
Value string <a"b>
.`},

		{`{}`, "BeginObject\nEndObject\n."},

		{`{"a":15}`, `
BeginObject
BeginMember <a>
Value integer <15>
EndMember integer
EndObject
.`},

		{`{"x":null, "y":[true]}`, `
BeginObject
BeginMember <x>
Value null
EndMember null
BeginMember <y>
BeginArray
Value boolean <true>
EndArray
EndMember end array
EndObject
.`},

		{`[]`, "BeginArray\nEndArray\n."},

		{`new Foo(1, undefined)`, `
BeginConstructor <Foo>
Value integer <1>
Value undefined
EndConstructor
.`},

		{`/* a */ [1 // b
]`, `
Comment < a >
BeginArray
Value integer <1>
Comment < b>
EndArray
.`},
	}

	for _, test := range tests {
		st := jdom.NewStream(strings.NewReader(test.input))
		th := new(testHandler)
		if err := st.Parse(th); err != nil {
			t.Errorf("Parse failed: %v", err)
		}

		if diff := diffStrings(test.want, th.output()); diff != "" {
			t.Errorf("Input: %#q\nOutput: (-want, +got)\n%s", test.input, diff)
		}
	}
}

func TestStreamErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
		estr  string
	}{
		// Various kinds of unbalanced object bits.
		{`{`, `BeginObject`, `at 1:1: unexpected end of input`},
		{`}`, ``, `at 1:1: unexpected '}' while parsing value`},
		{`{1:1}`, `BeginObject`, `at 1:2: invalid '1' in property name`},
		{`{"true":}`, `
BeginObject
BeginMember <true>`,
			`at 1:9, path "true": unexpected '}' while parsing value`},
		{`{"true":1,`, `
BeginObject
BeginMember <true>
Value integer <1>
EndMember integer`,
			`at 1:10, path "true": unexpected end of input`},

		// Unbalanced array bits.
		{`[`, `BeginArray`, `at 1:1: unexpected end of input`},
		{`]`, ``, `at 1:1: unexpected ']' while parsing value`},
		{`[15,`, `
BeginArray
Value integer <15>`,
			`at 1:4, path "[0]": unexpected end of input`},
		{`[15,]`, `
BeginArray
Value integer <15>`,
			`at 1:5, path "[0]": trailing comma before ']'`},

		// Invalid values.
		{`1 2.0 forthright`, `
Value integer <1>
Value float <2>`,
			`at 1:16: unknown constant "forthright"`},
		{`"what did you`, ``, `at 1:13: unterminated string`},
	}

	for _, test := range tests {
		st := jdom.NewStream(strings.NewReader(test.input))
		th := new(testHandler)
		err := st.Parse(th)
		if err == nil {
			t.Error("Parse did not report an error")
			continue
		}
		var serr *jdom.SyntaxError
		if !errors.As(err, &serr) {
			t.Errorf("Input: %#q: got error %T, want *SyntaxError", test.input, err)
		}

		if diff := diffStrings(test.want, th.output()); diff != "" {
			t.Errorf("Input: %#q\nOutput: (-want, +got)\n%s", test.input, diff)
		}
		if diff := diffStrings(test.estr, err.Error()); diff != "" {
			t.Errorf("Input: %#q\nError: (-want, +got)\n%s", test.input, diff)
		}
	}
}

func TestStreamHandlerError(t *testing.T) {
	errStop := errors.New("stop")
	st := jdom.NewStream(strings.NewReader(`[1, 2, 3]`))
	th := &testHandler{stopAt: 2, err: errStop}
	if err := st.Parse(th); !errors.Is(err, errStop) {
		t.Errorf("Parse: got %v, want %v", err, errStop)
	}
	if diff := diffStrings("BeginArray\nValue integer <1>", th.output()); diff != "" {
		t.Errorf("Output: (-want, +got)\n%s", diff)
	}
}

func TestParseOne(t *testing.T) {
	const input = `{ "love": true } [] "ok"`
	const want = `
BeginObject
BeginMember <love>
Value boolean <true>
EndMember boolean
EndObject
---
BeginArray
EndArray
---
Value string <ok>
---
.`
	th := new(testHandler)

	st := jdom.NewStream(strings.NewReader(input))
	for {
		err := st.ParseOne(th)
		if err == io.EOF {
			break
		} else if err != nil {
			t.Fatalf("ParseOne failed: %v", err)
		}
		th.pr("---")
	}

	if diff := diffStrings(want, th.output()); diff != "" {
		t.Errorf("Input: %#q\nOutput: (-want, +got)\n%s", input, diff)
	}
}

func diffStrings(want, got string) string {
	return cmp.Diff(strings.Split(strings.TrimSpace(want), "\n"),
		strings.Split(strings.TrimSpace(got), "\n"))
}

type testHandler struct {
	buf    bytes.Buffer
	values int
	stopAt int   // if positive, fail at this value
	err    error // the error reported at stopAt
}

func (t *testHandler) pr(msg string, args ...any) {
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	fmt.Fprintf(&t.buf, msg, args...)
}

func (t *testHandler) output() string { return t.buf.String() }

func (t *testHandler) BeginObject(loc jdom.Anchor) error { t.pr("BeginObject"); return nil }
func (t *testHandler) EndObject(loc jdom.Anchor) error   { t.pr("EndObject"); return nil }
func (t *testHandler) BeginArray(loc jdom.Anchor) error  { t.pr("BeginArray"); return nil }
func (t *testHandler) EndArray(loc jdom.Anchor) error    { t.pr("EndArray"); return nil }
func (t *testHandler) EndConstructor(jdom.Anchor) error  { t.pr("EndConstructor"); return nil }
func (t *testHandler) EndOfInput(loc jdom.Anchor)        { t.pr(".") }

func (t *testHandler) BeginConstructor(loc jdom.Anchor) error {
	t.pr("BeginConstructor <%v>", loc.Value())
	return nil
}

func (t *testHandler) BeginMember(loc jdom.Anchor) error {
	t.pr("BeginMember <%v>", loc.Value())
	return nil
}

func (t *testHandler) EndMember(loc jdom.Anchor) error {
	t.pr("EndMember %v", loc.Token())
	return nil
}

func (t *testHandler) Value(loc jdom.Anchor) error {
	t.values++
	if t.values == t.stopAt {
		return t.err
	}
	if v := loc.Value(); v != nil {
		t.pr("Value %v <%v>", loc.Token(), v)
	} else {
		t.pr("Value %v", loc.Token())
	}
	return nil
}

func (t *testHandler) Comment(loc jdom.Anchor) { t.pr("Comment <%v>", loc.Value()) }
