// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

package cursor_test

import (
	"errors"
	"testing"

	"github.com/creachadair/jdom/tree"
	"github.com/creachadair/jdom/tree/cursor"
)

const testJSON = `{
  "list": [
    {"x": 1},
    // between
    {"x": 2}
  ],
  "y": {"hello": "there"},
  "o": ["hi", "yourself"],
  "xyz": {"p": true, "d": true, "q": false},
  "f": new Date(2021, 3)
}`

func TestCursor(t *testing.T) {
	v, err := tree.Parse(testJSON)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	root := v.(*tree.Object)
	list := root.Get("list").(*tree.Array)
	xyz := root.Get("xyz").(*tree.Object)

	tests := []struct {
		name string
		path []any
		want tree.Node
		fail bool
	}{
		{"NilInput", nil, v, false},
		{"NoMatch", []any{"nonesuch"}, v, true},
		{"WrongType", []any{"o", "z"}, root.Get("o"), true},

		{"ArrayPos", []any{"list", 1}, list.At(list.Len() - 1), false},
		{"ArrayNeg", []any{"list", -2}, list.At(0), false},
		{"ArrayRange", []any{"o", 25}, root.Get("o"), true},
		{"ObjIndex", []any{1}, root.Property("y"), false},
		{"ObjPath", []any{"xyz", "d"}, xyz.Property("d"), false},
		{"MemberValue", []any{"xyz", "d", nil}, xyz.Get("d"), false},
		{"Constructor", []any{"f", -1}, root.Get("f").(*tree.Constructor).Children()[1], false},

		{"FuncArray", []any{"o", testPathFunc}, tree.NewInt(2), false},
		{"FuncObj", []any{"xyz", testPathFunc}, tree.NewInt(3), false},
		{"FuncWrong", []any{"xyz", "d", testPathFunc}, xyz.Get("d"), true},
		{"BadElement", []any{"y", 2.5}, root.Get("y"), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := cursor.New(v).Down(tc.path...)
			err := c.Err()
			if err != nil {
				if tc.fail {
					t.Logf("Got expected error: %v", err)
				} else {
					t.Fatalf("Down %+v: unexpected error: %v", tc.path, err)
				}
			} else if tc.fail {
				t.Fatalf("Down %+v: got %v, want error", tc.path, c.Node())
			}
			got := c.Node()
			if got != tc.want && !(got.Parent() == nil && tree.Equal(got, tc.want)) {
				t.Errorf("Down %+v: got %v, want %v", tc.path, got, tc.want)
			}
		})
	}
}

func TestCursorMoves(t *testing.T) {
	v, err := tree.Parse(testJSON)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	c := cursor.New(v)
	if !c.AtOrigin() || c.Origin() != v {
		t.Fatal("New cursor is not at its origin")
	}
	c.Down("list", 0, "x", nil)
	if err := c.Err(); err != nil {
		t.Fatalf("Down: %v", err)
	}
	if got, want := c.Path(), "list[0].x"; got != want {
		t.Errorf("Path: got %q, want %q", got, want)
	}
	// origin, list property, list array, element, x property, x value
	if got := len(c.Trail()); got != 6 {
		t.Errorf("Trail: got %d nodes, want 6", got)
	}
	if got, want := c.Up().Up().Path(), "list[0]"; got != want {
		t.Errorf("Up: got %q, want %q", got, want)
	}

	c.Down("nonesuch")
	if c.Err() == nil {
		t.Error("Down nonesuch: got nil error")
	}
	c.Reset()
	if !c.AtOrigin() || c.Err() != nil {
		t.Errorf("Reset: at origin %v, err %v", c.AtOrigin(), c.Err())
	}
}

func TestPath(t *testing.T) {
	v, err := tree.Parse(testJSON)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s, err := cursor.Path[*tree.Value](v, "y", "hello", nil)
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if got, want := s.String(), `"there"`; got != want {
		t.Errorf("Path: got %s, want %s", got, want)
	}
	if _, err := cursor.Path[*tree.Array](v, "y"); err == nil {
		t.Error("Path with wrong type: got nil error")
	}
}

func testPathFunc(n tree.Node) (tree.Node, error) {
	switch t := n.(type) {
	case *tree.Array:
		return tree.NewInt(int64(t.Len())), nil
	case *tree.Object:
		return tree.NewInt(int64(len(t.Properties()))), nil
	default:
		return nil, errors.New("not a thing with length")
	}
}
