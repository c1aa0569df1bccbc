package typeddata

import (
	"hash/maphash"

	"github.com/reglet-dev/typeddata/errors"
	"github.com/reglet-dev/typeddata/host"
)

var seed = maphash.MakeSeed()

// Hash returns a process-stable hash of *self for the host hash method.
// Like ==, it panics when an interface field of *self holds a value that is
// not comparable.
func Hash[T comparable](self *T) int64 {
	return int64(maphash.Comparable(seed, *self))
}

func tryHash[T comparable](self *T) (h int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewException(errors.ClassTypeError, "unhashable %T: %v", *self, r)
		}
	}()
	return Hash(self), nil
}

// IsEql reports whether other wraps a T equal to *self. Values of other
// types, and values holding uncomparable interface fields, are never equal.
func IsEql[T comparable](self *T, other host.Value) (eql bool) {
	o, err := GetRef[T](other)
	if err != nil {
		return false
	}
	defer func() {
		if recover() != nil {
			eql = false
		}
	}()
	return *self == *o
}

// Hashable is implemented by types that are not comparable, typically
// because they hold host values, but can still feed a hash.
type Hashable interface {
	WriteHash(h *maphash.Hash)
}

// HashOf returns the hash of x, seeded like Hash.
func HashOf(x Hashable) int64 {
	var h maphash.Hash
	h.SetSeed(seed)
	x.WriteHash(&h)
	return int64(h.Sum64())
}

// Eqler is implemented by types with their own equality.
type Eqler[T any] interface {
	Eql(other *T) bool
}

// DefineEqlMethods defines hash and eql? on class for a comparable T, so
// wrapped values work as host hash keys. hash raises TypeError for a value
// Hash would panic on.
func DefineEqlMethods[T comparable](class *host.Class) {
	class.DefineMethod("hash", 0, func(c *host.Call) (host.Value, error) {
		self, err := tryConvert[T](c.Runtime, c.Self)
		if err != nil {
			return host.Nil, err
		}
		h, err := tryHash(self.Get())
		if err != nil {
			return host.Nil, err
		}
		return c.Runtime.Int(h), nil
	})
	class.DefineMethod("eql?", 1, func(c *host.Call) (host.Value, error) {
		self, err := tryConvert[T](c.Runtime, c.Self)
		if err != nil {
			return host.Nil, err
		}
		return host.Bool(IsEql(self.Get(), c.Args[0])), nil
	})
}

// DefineCustomEqlMethods defines hash and eql? on class using the Hashable
// and Eqler implementations of *T.
func DefineCustomEqlMethods[T any, P interface {
	*T
	Hashable
	Eqler[T]
}](class *host.Class) {
	class.DefineMethod("hash", 0, func(c *host.Call) (host.Value, error) {
		self, err := tryConvert[T](c.Runtime, c.Self)
		if err != nil {
			return host.Nil, err
		}
		return c.Runtime.Int(HashOf(P(self.Get()))), nil
	})
	class.DefineMethod("eql?", 1, func(c *host.Call) (host.Value, error) {
		self, err := tryConvert[T](c.Runtime, c.Self)
		if err != nil {
			return host.Nil, err
		}
		other, err := tryConvert[T](c.Runtime, c.Args[0])
		if err != nil {
			return host.False, nil
		}
		return host.Bool(P(self.Get()).Eql(other.Get())), nil
	})
}
