package host

import (
	"math/big"

	"github.com/reglet-dev/typeddata/errors"
)

// NewRational returns num/den in lowest terms.
func (rt *Runtime) NewRational(num, den int64) (Value, error) {
	if den == 0 {
		return 0, errors.NewException(errors.ClassZeroDivisionError, "divided by 0")
	}
	return rt.NewRationalBig(big.NewRat(num, den)), nil
}

// NewRationalBig returns a Rational holding a copy of r.
func (rt *Runtime) NewRationalBig(r *big.Rat) Value {
	return rt.newObject(rt.builtin.rational, KindRational, new(big.Rat).Set(r), 32)
}

// IsRational reports whether v is a Rational.
func (rt *Runtime) IsRational(v Value) bool { return rt.KindOf(v) == KindRational }

// RationalValue returns a copy of the value of a Rational.
func (rt *Runtime) RationalValue(v Value) (*big.Rat, error) {
	o := rt.object(v)
	if o == nil || o.kind != KindRational {
		return nil, &errors.ConversionError{Actual: rt.Classname(v), Expected: "Rational"}
	}
	return new(big.Rat).Set(o.payload.(*big.Rat)), nil
}

// RationalNumerator returns the numerator of a Rational.
func (rt *Runtime) RationalNumerator(v Value) (Value, error) {
	r, err := rt.RationalValue(v)
	if err != nil {
		return 0, err
	}
	return rt.BigInt(r.Num()), nil
}

// RationalDenominator returns the denominator of a Rational. It is always
// positive.
func (rt *Runtime) RationalDenominator(v Value) (Value, error) {
	r, err := rt.RationalValue(v)
	if err != nil {
		return 0, err
	}
	return rt.BigInt(r.Denom()), nil
}
