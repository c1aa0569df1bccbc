package typeddata

import (
	"sync/atomic"
	"unsafe"

	"github.com/reglet-dev/typeddata/errors"
	"github.com/reglet-dev/typeddata/host"
)

// Obj is a host value known to wrap a T. Copies share the wrapped value.
type Obj[T any] struct {
	v host.Value
}

// Wrap moves data into a new host object.
func Wrap[T any](data T) Obj[T] {
	return wrap(host.Current(), data)
}

func wrap[T any](rt *host.Runtime, data T) Obj[T] {
	td := capabilityOf[T]()
	box := new(T)
	*box = data
	return Obj[T]{v: rt.TypedDataWrap(td.Class(rt), unsafe.Pointer(box), td.DataType().Host())}
}

// IntoValue wraps data and returns the host value.
func IntoValue[T any](data T) host.Value {
	return Wrap(data).v
}

// TryConvert checks that v is an instance of T's class wrapping a T.
func TryConvert[T any](v host.Value) (Obj[T], error) {
	return tryConvert[T](host.Current(), v)
}

func tryConvert[T any](rt *host.Runtime, v host.Value) (Obj[T], error) {
	td := capabilityOf[T]()
	class := td.Class(rt)
	if !rt.IsTypedData(v) || !rt.IsKindOf(v, class) {
		return Obj[T]{}, &errors.ConversionError{Actual: rt.Classname(v), Expected: class.Name()}
	}
	if _, err := rt.CheckTypedData(v, td.DataType().Host()); err != nil {
		return Obj[T]{}, err
	}
	return Obj[T]{v: v}, nil
}

// GetRef returns the T wrapped by v. The pointer is valid while v is alive.
func GetRef[T any](v host.Value) (*T, error) {
	o, err := TryConvert[T](v)
	if err != nil {
		return nil, err
	}
	return o.Get(), nil
}

// FromValueUnchecked returns v as an Obj[T] without checking it. v must wrap
// a T.
func FromValueUnchecked[T any](v host.Value) Obj[T] {
	return Obj[T]{v: v}
}

// Get returns the wrapped value. Do not keep the pointer past the current
// call; the host frees the value once the object is unreachable.
func (o Obj[T]) Get() *T {
	return fromPtr[T](host.Current().DataPtr(o.v))
}

// Value returns the host value.
func (o Obj[T]) Value() host.Value { return o.v }

// String returns the result of the host to_s method.
func (o Obj[T]) String() string {
	return host.Current().ToS(o.v)
}

// Inspect returns the result of the host inspect method.
func (o Obj[T]) Inspect() string {
	return host.Current().Inspect(o.v)
}

// Share returns a handle readable from any goroutine. The object must be
// frozen and its type frozen-shareable. The object stays alive until the
// handle is released.
func (o Obj[T]) Share() (*Shared[T], error) {
	rt := host.Current()
	if !rt.IsShareable(o.v) {
		return nil, errors.NewException(errors.ClassTypeError, "%s is not frozen shareable", rt.Inspect(o.v))
	}
	rt.RegisterMark(o.v)
	return &Shared[T]{v: o.v, ptr: fromPtr[T](rt.DataPtr(o.v))}, nil
}

// Shared is a frozen value readable from any goroutine.
type Shared[T any] struct {
	v        host.Value
	ptr      *T
	released atomic.Bool
}

// Get returns the shared value. It must not be modified.
func (s *Shared[T]) Get() *T {
	if s.released.Load() {
		panic("typeddata: Get on released Shared")
	}
	return s.ptr
}

// Release lets the object be collected again. It must be called on the
// runtime thread.
func (s *Shared[T]) Release() {
	if s.released.Swap(true) {
		return
	}
	host.Current().UnregisterMark(s.v)
}
