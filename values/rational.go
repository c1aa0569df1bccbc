package values

import (
	"math/big"

	"github.com/reglet-dev/typeddata/errors"
	"github.com/reglet-dev/typeddata/host"
)

// Rational is a host Rational.
type Rational struct {
	v host.Value
}

// NewRational returns num/den in lowest terms.
func NewRational(num, den int64) (Rational, error) {
	v, err := host.Current().NewRational(num, den)
	if err != nil {
		return Rational{}, err
	}
	return Rational{v: v}, nil
}

// RationalFromValue returns v as a Rational when it is one.
func RationalFromValue(v host.Value) (Rational, bool) {
	if !host.Current().IsRational(v) {
		return Rational{}, false
	}
	return Rational{v: v}, true
}

// TryConvertRational returns v as a Rational.
func TryConvertRational(v host.Value) (Rational, error) {
	if r, ok := RationalFromValue(v); ok {
		return r, nil
	}
	return Rational{}, &errors.ConversionError{Actual: host.Current().Classname(v), Expected: "Rational"}
}

// Value returns the host value.
func (r Rational) Value() host.Value { return r.v }

// Rat returns a copy of the value.
func (r Rational) Rat() *big.Rat {
	x, err := host.Current().RationalValue(r.v)
	if err != nil {
		host.Bug("%v", err)
	}
	return x
}

// Numerator returns the numerator as a host Integer.
func (r Rational) Numerator() host.Value {
	v, err := host.Current().RationalNumerator(r.v)
	if err != nil {
		host.Bug("%v", err)
	}
	return v
}

// Denominator returns the denominator as a host Integer. It is positive.
func (r Rational) Denominator() host.Value {
	v, err := host.Current().RationalDenominator(r.v)
	if err != nil {
		host.Bug("%v", err)
	}
	return v
}
