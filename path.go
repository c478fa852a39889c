// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jdom

import (
	"strconv"
	"strings"
)

// A pathFrame records the position within one open container.
type pathFrame struct {
	kind  TokenKind // StartObject, StartArray, or StartConstructor
	name  string    // the most recent property name (objects)
	named bool      // whether name is set
	index int       // the current element index (arrays); -1 before the first
}

func newFrame(kind TokenKind) pathFrame { return pathFrame{kind: kind, index: -1} }

// renderPath formats a path in dotted notation, e.g., a.b[3]['c d'].
func renderPath(frames []pathFrame) string {
	var sb strings.Builder
	for _, f := range frames {
		switch f.kind {
		case StartObject:
			if f.named {
				AppendPathName(&sb, f.name)
			}
		default:
			if f.index >= 0 {
				AppendPathIndex(&sb, f.index)
			}
		}
	}
	return sb.String()
}

// AppendPathName adds a property name to a path under construction in sb,
// using dotted notation when possible and bracket notation otherwise.
func AppendPathName(sb *strings.Builder, name string) {
	if needsBracket(name) {
		sb.WriteString("['")
		sb.WriteString(strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(name))
		sb.WriteString("']")
		return
	}
	if sb.Len() != 0 {
		sb.WriteByte('.')
	}
	sb.WriteString(name)
}

// AppendPathIndex adds an array index to a path under construction in sb.
func AppendPathIndex(sb *strings.Builder, i int) {
	sb.WriteByte('[')
	sb.WriteString(strconv.Itoa(i))
	sb.WriteByte(']')
}

func needsBracket(name string) bool {
	if name == "" {
		return true
	}
	for _, r := range name {
		if r <= ' ' || strings.ContainsRune(`.[]()'"/\`, r) {
			return true
		}
		switch r {
		case 0x85, 0x2028, 0x2029:
			return true
		}
	}
	return false
}
