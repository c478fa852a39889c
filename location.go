// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jdom

import "fmt"

// A Span describes a contiguous span of a source input.
type Span struct {
	Pos int64 // the start offset, 0-based
	End int64 // the end offset, 0-based (noninclusive)
}

// A LineCol describes the line number and column of a location in source
// text. The zero value means the location is not known.
type LineCol struct {
	Line   int // line number, 1-based
	Column int // rune position in line, 1-based; 0 before the first rune
}

// IsZero reports whether lc is the zero location.
func (lc LineCol) IsZero() bool { return lc.Line == 0 && lc.Column == 0 }

func (lc LineCol) String() string { return fmt.Sprintf("%d:%d", lc.Line, lc.Column) }

// A Location describes the complete location of a range of source text,
// including line and column positions.
type Location struct {
	Span
	First, Last LineCol
}
