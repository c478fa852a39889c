// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package tree_test

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/creachadair/jdom"
	"github.com/creachadair/jdom/tree"
	"github.com/google/go-cmp/cmp"
)

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

func TestReaderTokens(t *testing.T) {
	inputs := []string{
		`null`,
		`[]`,
		`{"a": [1, {"b c": null}], "d": new F(2, [true]), "e": "2012-03-21T05:40:00Z"}`,
		`[[["deep"]], {"x": {"y": {}}}, -1.5]`,
	}
	for _, input := range inputs {
		want := readTokens(t, jdom.NewReader(strings.NewReader(input)))
		got := readTokens(t, tree.NewReader(mustParse(t, input)))
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Tokens of %#q (-want, +got):\n%s", input, diff)
		}
	}
}

func TestReaderRaw(t *testing.T) {
	obj := tree.NewObject(
		tree.NewProperty("r", tree.NewRaw(`{"x": [1]}`)),
		tree.NewProperty("s", tree.NewArray(tree.NewRaw(` "p" `), tree.NewInt(2))),
	)
	want := readTokens(t, jdom.NewReader(strings.NewReader(`{"r": {"x": [1]}, "s": ["p", 2]}`)))
	got := readTokens(t, tree.NewReader(obj))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Tokens (-want, +got):\n%s", diff)
	}

	r := tree.NewReader(tree.NewArray(tree.NewRaw(`  `)))
	r.Next()
	if err := r.Next(); err == nil {
		t.Error("Next on an empty raw node: got nil, want error")
	}
}

func TestReaderLoad(t *testing.T) {
	const input = `{"a": [1, 2, {"b": null}], /* c */ "d": new Date(0)}`
	n, err := tree.ParseReader(strings.NewReader(input), &tree.LoadOptions{Comments: tree.CommentsLoad})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	m, err := tree.Load(tree.NewReader(n), &tree.LoadOptions{Comments: tree.CommentsLoad})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !tree.Equal(n, m) {
		t.Errorf("Load from tree: got %v, want %v", m, n)
	}
	if m.Line() != 1 || m.Column() != 1 {
		t.Errorf("Line info: got %d:%d, want 1:1", m.Line(), m.Column())
	}
}

func TestBuilder(t *testing.T) {
	const input = `{"a": [1, "two", 3.5]} /* note */ true new F() [{}]`
	rd := jdom.NewReader(strings.NewReader(input))
	rd.AllowMultipleValues(true)

	b := tree.NewBuilder()
	if err := jdom.WriteTokens(b, rd); err != nil {
		t.Fatalf("WriteTokens failed: %v", err)
	}
	var got []string
	for _, n := range b.Roots() {
		got = append(got, n.String())
	}
	want := []string{`{"a":[1,"two",3.5]}`, `/* note */`, `true`, `new F()`, `[{}]`}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Roots (-want, +got):\n%s", diff)
	}
	if b.Depth() != 0 {
		t.Errorf("Depth: got %d, want 0", b.Depth())
	}

	// Raw text is kept as a Raw node, and written through unchanged.
	b.Reset()
	b.WriteStartArray()
	b.WriteRaw(`{"pre": "formatted"}`)
	b.WriteEndArray()
	if got, want := b.Root().String(), `[{"pre": "formatted"}]`; got != want {
		t.Errorf("Raw: got %#q, want %#q", got, want)
	}
}

func TestBuilderErrors(t *testing.T) {
	tests := []struct {
		name string
		run  func(b *tree.Builder) error
	}{
		{"ValueInObject", func(b *tree.Builder) error {
			b.WriteStartObject()
			return b.WriteValue(1)
		}},
		{"NameOutsideObject", func(b *tree.Builder) error {
			b.WriteStartArray()
			return b.WritePropertyName("x")
		}},
		{"Mismatch", func(b *tree.Builder) error {
			b.WriteStartArray()
			return b.WriteEndObject()
		}},
		{"NoValue", func(b *tree.Builder) error {
			b.WriteStartObject()
			b.WritePropertyName("x")
			return b.WriteEndObject()
		}},
		{"Unbalanced", func(b *tree.Builder) error { return b.WriteEndArray() }},
		{"BadValue", func(b *tree.Builder) error { return b.WriteValue(struct{}{}) }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if err := test.run(tree.NewBuilder()); err == nil {
				t.Error("Got nil, want error")
			}
		})
	}
}

func TestWriteTo(t *testing.T) {
	n := mustParse(t, `{"a": [1, {"b": "c"}]}`)
	var sb strings.Builder
	w := jdom.NewWriter(&sb)
	w.SetIndent("", " ")
	if err := tree.WriteTo(w, n); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	w.Flush()
	const want = "{\n \"a\": [\n  1,\n  {\n   \"b\": \"c\"\n  }\n ]\n}"
	if got := sb.String(); got != want {
		t.Errorf("WriteTo:\n%s\nwant:\n%s", got, want)
	}
}
