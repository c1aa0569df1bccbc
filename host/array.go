package host

import (
	"slices"

	"github.com/reglet-dev/typeddata/errors"
)

type arrayData struct {
	elems []Value
}

// NewArray returns an Array holding vs.
func (rt *Runtime) NewArray(vs ...Value) Value {
	return rt.newArray(rt.builtin.array, slices.Clone(vs))
}

func (rt *Runtime) newArray(class *Class, elems []Value) Value {
	return rt.newObject(class, KindArray, &arrayData{elems: elems}, uintptr(cap(elems)*8))
}

func (rt *Runtime) arrayData(v Value) (*arrayData, error) {
	o := rt.object(v)
	if o == nil || o.kind != KindArray {
		return nil, &errors.ConversionError{Actual: rt.Classname(v), Expected: "Array"}
	}
	return o.payload.(*arrayData), nil
}

// ArrayLen returns the number of elements of an Array.
func (rt *Runtime) ArrayLen(a Value) (int, error) {
	d, err := rt.arrayData(a)
	if err != nil {
		return 0, err
	}
	return len(d.elems), nil
}

// ArrayEntry returns the element at i, or nil when out of range. Negative
// indices count from the end.
func (rt *Runtime) ArrayEntry(a Value, i int) (Value, error) {
	d, err := rt.arrayData(a)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		i += len(d.elems)
	}
	if i < 0 || i >= len(d.elems) {
		return Nil, nil
	}
	return d.elems[i], nil
}

// ArrayPush appends v to an Array.
func (rt *Runtime) ArrayPush(a, v Value) error {
	d, err := rt.arrayData(a)
	if err != nil {
		return err
	}
	if err := rt.checkFrozen(a); err != nil {
		return err
	}
	d.elems = append(d.elems, v)
	rt.WriteBarrier(a, v)
	return nil
}

// ArrayStore replaces the element at i.
func (rt *Runtime) ArrayStore(a Value, i int, v Value) error {
	d, err := rt.arrayData(a)
	if err != nil {
		return err
	}
	if err := rt.checkFrozen(a); err != nil {
		return err
	}
	if i < 0 {
		i += len(d.elems)
	}
	if i < 0 {
		return errors.NewException(errors.ClassIndexError, "index %d too small for array", i-len(d.elems))
	}
	for len(d.elems) <= i {
		d.elems = append(d.elems, Nil)
	}
	d.elems[i] = v
	rt.WriteBarrier(a, v)
	return nil
}

// ArrayValues returns a copy of the elements of an Array.
func (rt *Runtime) ArrayValues(a Value) ([]Value, error) {
	d, err := rt.arrayData(a)
	if err != nil {
		return nil, err
	}
	return slices.Clone(d.elems), nil
}
