package host

import (
	"math/big"

	"github.com/reglet-dev/typeddata/errors"
)

// Int returns i as a host Integer, allocating a bignum outside the fixnum
// range.
func (rt *Runtime) Int(i int64) Value {
	if v, ok := Fixnum(i); ok {
		return v
	}
	return rt.newObject(rt.builtin.integer, KindBignum, new(big.Int).SetInt64(i), 16)
}

// BigInt returns x as a host Integer.
func (rt *Runtime) BigInt(x *big.Int) Value {
	if x.IsInt64() {
		return rt.Int(x.Int64())
	}
	return rt.newObject(rt.builtin.integer, KindBignum, new(big.Int).Set(x), uintptr(len(x.Bits())*8))
}

// IsInteger reports whether v is a fixnum or bignum.
func (rt *Runtime) IsInteger(v Value) bool {
	return v.IsFixnum() || rt.KindOf(v) == KindBignum
}

// ToBigInt converts an Integer to a big.Int.
func (rt *Runtime) ToBigInt(v Value) (*big.Int, error) {
	if v.IsFixnum() {
		return big.NewInt(v.FixnumValue()), nil
	}
	if o := rt.object(v); o != nil && o.kind == KindBignum {
		return new(big.Int).Set(o.payload.(*big.Int)), nil
	}
	return nil, &errors.ConversionError{Actual: rt.Classname(v), Expected: "Integer"}
}

// ToInt64 converts an Integer to int64.
func (rt *Runtime) ToInt64(v Value) (int64, error) {
	if v.IsFixnum() {
		return v.FixnumValue(), nil
	}
	x, err := rt.ToBigInt(v)
	if err != nil {
		return 0, err
	}
	if !x.IsInt64() {
		return 0, errors.NewException(errors.ClassRangeError, "bignum too big to convert into 'int64'")
	}
	return x.Int64(), nil
}

func (rt *Runtime) integerEql(a, b Value) bool {
	if a.IsFixnum() || b.IsFixnum() {
		return a == b
	}
	x, err := rt.ToBigInt(a)
	if err != nil {
		return false
	}
	y, err := rt.ToBigInt(b)
	if err != nil {
		return false
	}
	return x.Cmp(y) == 0
}
