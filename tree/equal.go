// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package tree

import (
	"bytes"
	"math"
	"math/big"
	"time"

	"github.com/creachadair/jdom"
)

// Equal reports whether a and b are structurally equal: they have the same
// kinds, names, and scalar values, and their children are pairwise equal in
// order. Line information and parents are ignored. NaN is equal to itself.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	} else if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case *Object:
		return equalItems(x.members, b.(*Object).members)
	case *Array:
		return equalItems(x.elts, b.(*Array).elts)
	case *Constructor:
		y := b.(*Constructor)
		return x.name == y.name && equalItems(x.args, y.args)
	case *Property:
		y := b.(*Property)
		return x.name == y.name && Equal(x.value, y.value)
	case *Value:
		return equalScalar(x, b.(*Value))
	case *Comment:
		return x.text == b.(*Comment).text
	case *Raw:
		return x.text == b.(*Raw).text
	}
	return false
}

func equalItems(xs, ys []Node) bool {
	if len(xs) != len(ys) {
		return false
	}
	for i := range xs {
		if !Equal(xs[i], ys[i]) {
			return false
		}
	}
	return true
}

func equalScalar(x, y *Value) bool {
	if x.tok != y.tok {
		return false
	}
	switch xv := x.v.(type) {
	case float64:
		yv, ok := y.v.(float64)
		return ok && (xv == yv || math.IsNaN(xv) && math.IsNaN(yv))
	case jdom.Decimal:
		yv, ok := y.v.(jdom.Decimal)
		return ok && xv.Equal(yv)
	case *big.Int:
		yv, ok := y.v.(*big.Int)
		return ok && xv.Cmp(yv) == 0
	case time.Time:
		yv, ok := y.v.(time.Time)
		return ok && xv.Equal(yv)
	case []byte:
		yv, ok := y.v.([]byte)
		return ok && bytes.Equal(xv, yv)
	}
	return x.v == y.v
}
