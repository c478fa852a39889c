// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jdom

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// MaxDecimalScale is the largest number of fractional digits a Decimal can
// hold.
const MaxDecimalScale = 28

// ErrDecimalRange is reported when a value is too large for a Decimal.
var ErrDecimalRange = errors.New("value was either too large or too small for a decimal")

var (
	maxCoef  = new(big.Int).Lsh(big.NewInt(1), 96) // exclusive
	bigTen   = big.NewInt(10)
	mask64   = new(big.Int).SetUint64(^uint64(0))
	tenPower = func(n int) *big.Int { return new(big.Int).Exp(bigTen, big.NewInt(int64(n)), nil) }
)

// A Decimal is a fixed-point decimal number: an unscaled integer magnitude
// of up to 96 bits, a sign, and a scale giving the number of digits after
// the decimal point. The zero value is 0.
//
// Decimal values are comparable with ==, which distinguishes values that
// differ only in scale (1.0 and 1.00). Use Cmp or Equal to compare values
// numerically.
type Decimal struct {
	lo    uint64
	hi    uint32
	scale uint8
	neg   bool
}

// NewDecimal returns the Decimal representation of v.
func NewDecimal(v int64) Decimal {
	d, err := newDecimal(big.NewInt(v), 0)
	if err != nil {
		panic(err) // an int64 always fits
	}
	return d
}

// ParseDecimal parses a decimal number in JSON number syntax, with an
// optional leading "+" or "-" sign.
//
// Digits beyond the precision of a Decimal are discarded. The result is
// rounded away from zero when the first discarded digit is 5 or greater.
// Fractional digits are discarded before integer digits; if the integer part
// alone does not fit, ParseDecimal reports ErrDecimalRange.
func ParseDecimal(s string) (Decimal, error) {
	text := s
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}

	mant, etext, hasExp := strings.Cut(strings.Replace(s, "E", "e", 1), "e")
	ip, fp, _ := strings.Cut(mant, ".")
	if ip == "" && fp == "" || !allDigits(ip) || !allDigits(fp) {
		return Decimal{}, fmt.Errorf("invalid decimal %q", text)
	}

	exp := 0
	if hasExp {
		e, err := strconv.Atoi(etext)
		if err != nil {
			if !isExpRangeError(err) {
				return Decimal{}, fmt.Errorf("invalid decimal %q", text)
			}
			if strings.HasPrefix(etext, "-") {
				return Decimal{scale: MaxDecimalScale}, nil // underflows to zero
			}
			return Decimal{}, ErrDecimalRange
		}
		exp = e
	}

	// A value below 10^-29 rounds to zero at the maximum scale.
	if exp < -(len(ip) + len(fp) + MaxDecimalScale + 1) {
		return Decimal{scale: MaxDecimalScale}, nil
	}

	coef, ok := new(big.Int).SetString(strings.TrimLeft(ip+fp, "0")+"0", 10)
	if !ok {
		return Decimal{}, fmt.Errorf("invalid decimal %q", text)
	}
	coef.Quo(coef, bigTen) // remove the guard digit
	exp -= len(fp)

	if coef.Sign() == 0 {
		return Decimal{scale: uint8(min(max(-exp, 0), MaxDecimalScale))}, nil
	}
	if exp > 0 {
		if exp > 29 {
			return Decimal{}, ErrDecimalRange
		}
		coef.Mul(coef, tenPower(exp))
		exp = 0
	}
	d, err := newDecimal(coef, -exp)
	if err != nil {
		return Decimal{}, err
	}
	d.neg = neg && !d.IsZero()
	return d, nil
}

func isExpRangeError(err error) bool {
	var ne *strconv.NumError
	return errors.As(err, &ne) && ne.Err == strconv.ErrRange
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// newDecimal constructs a Decimal from a non-negative magnitude and a scale,
// rounding away digits until both fit.
func newDecimal(coef *big.Int, scale int) (Decimal, error) {
	if coef.Sign() < 0 {
		d, err := newDecimal(new(big.Int).Neg(coef), scale)
		d.neg = !d.IsZero()
		return d, err
	}

	// Find how many digits must be dropped from the right. The rounding
	// increment can carry into a new digit, so check again after rounding.
	drop := max(scale-MaxDecimalScale, 0)
	if drop > len(coef.String()) {
		return Decimal{scale: MaxDecimalScale}, nil
	}
	for {
		c := coef
		if drop > 0 {
			if drop > scale {
				return Decimal{}, ErrDecimalRange
			}
			c = new(big.Int).Quo(coef, tenPower(drop))
			first := new(big.Int).Quo(coef, tenPower(drop-1))
			if first.Mod(first, bigTen).Int64() >= 5 {
				c.Add(c, big.NewInt(1))
			}
		}
		if c.Cmp(maxCoef) < 0 {
			return Decimal{
				lo:    new(big.Int).And(c, mask64).Uint64(),
				hi:    uint32(new(big.Int).Rsh(c, 64).Uint64()),
				scale: uint8(scale - drop),
			}, nil
		}
		drop++
	}
}

// coef returns the unscaled magnitude of d.
func (d Decimal) coef() *big.Int {
	c := new(big.Int).SetUint64(uint64(d.hi))
	c.Lsh(c, 64)
	return c.Or(c, new(big.Int).SetUint64(d.lo))
}

// Mantissa returns the unscaled value of d, so that d is Mantissa × 10^-Scale.
func (d Decimal) Mantissa() *big.Int {
	c := d.coef()
	if d.neg {
		c.Neg(c)
	}
	return c
}

// IsZero reports whether d is equal to zero.
func (d Decimal) IsZero() bool { return d.lo == 0 && d.hi == 0 }

// Scale reports the number of digits after the decimal point.
func (d Decimal) Scale() int { return int(d.scale) }

// Sign returns -1, 0, or 1 as d is negative, zero, or positive.
func (d Decimal) Sign() int {
	switch {
	case d.IsZero():
		return 0
	case d.neg:
		return -1
	}
	return 1
}

// Cmp compares d and e numerically, returning -1, 0, or 1.
func (d Decimal) Cmp(e Decimal) int {
	a, b := d.coef(), e.coef()
	if d.neg {
		a.Neg(a)
	}
	if e.neg {
		b.Neg(b)
	}
	if d.scale < e.scale {
		a.Mul(a, tenPower(int(e.scale-d.scale)))
	} else if e.scale < d.scale {
		b.Mul(b, tenPower(int(d.scale-e.scale)))
	}
	return a.Cmp(b)
}

// Equal reports whether d and e are numerically equal.
func (d Decimal) Equal(e Decimal) bool { return d.Cmp(e) == 0 }

// Float64 returns the nearest float64 value to d.
func (d Decimal) Float64() float64 {
	f, _ := strconv.ParseFloat(d.String(), 64)
	return f
}

// Int64 returns the integer part of d, and reports whether it fits.
func (d Decimal) Int64() (int64, bool) {
	c := d.coef()
	c.Quo(c, tenPower(int(d.scale)))
	if d.neg {
		c.Neg(c)
	}
	return c.Int64(), c.IsInt64()
}

// String renders d in plain decimal notation with exactly Scale digits after
// the decimal point.
func (d Decimal) String() string {
	digits := d.coef().String()
	var sb strings.Builder
	if d.neg {
		sb.WriteByte('-')
	}
	if s := int(d.scale); s > 0 {
		if len(digits) <= s {
			digits = strings.Repeat("0", s-len(digits)+1) + digits
		}
		sb.WriteString(digits[:len(digits)-s])
		sb.WriteByte('.')
		sb.WriteString(digits[len(digits)-s:])
	} else {
		sb.WriteString(digits)
	}
	return sb.String()
}
