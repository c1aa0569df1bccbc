package host

import (
	"unsafe"

	"github.com/reglet-dev/typeddata/errors"
)

type typedData struct {
	dt  *DataType
	ptr unsafe.Pointer
}

// TypedDataWrap allocates an object of class holding ptr, described by dt.
// The runtime owns ptr from now on and releases it through dt.Free.
func (rt *Runtime) TypedDataWrap(class *Class, ptr unsafe.Pointer, dt *DataType) Value {
	if dt == nil || dt.Free == nil {
		Bug("typed data wrapped without a free function")
	}
	if class == nil {
		class = rt.builtin.object
	}
	v := rt.newObject(class, KindData, &typedData{dt: dt, ptr: ptr}, dataSize(dt, ptr))
	if !dt.IsWBProtected() {
		rt.mustObject(v).flags |= flagWBUnprotected
	}
	return v
}

func dataSize(dt *DataType, ptr unsafe.Pointer) uintptr {
	if dt.Size != nil {
		return dt.Size(ptr)
	}
	return dt.EstimatedSize
}

// IsTypedData reports whether v wraps a native value.
func (rt *Runtime) IsTypedData(v Value) bool {
	o := rt.object(v)
	return o != nil && o.kind == KindData
}

// TypedDataType returns the DataType of v, or nil when v is not typed data.
func (rt *Runtime) TypedDataType(v Value) *DataType {
	o := rt.object(v)
	if o == nil || o.kind != KindData {
		return nil
	}
	return o.payload.(*typedData).dt
}

// DataPtr returns the native pointer wrapped by v without checking its type.
func (rt *Runtime) DataPtr(v Value) unsafe.Pointer {
	o := rt.mustObject(v)
	if o.kind != KindData {
		Bug("DataPtr on %s", o.kind)
	}
	return o.payload.(*typedData).ptr
}

// CheckTypedData returns the pointer wrapped by v when v is typed data
// described by dt or a descendant of it.
func (rt *Runtime) CheckTypedData(v Value, dt *DataType) (unsafe.Pointer, error) {
	o := rt.object(v)
	if o == nil || o.kind != KindData {
		return nil, &errors.WrongTypeError{Actual: rt.Classname(v), Expected: dt.WrapName()}
	}
	td := o.payload.(*typedData)
	if !td.dt.inherits(dt) {
		return nil, &errors.WrongTypeError{Actual: rt.Classname(v), Expected: dt.WrapName()}
	}
	return td.ptr, nil
}

// ObjectSize returns the bytes attributed to v, as reported by its DataType
// for typed data.
func (rt *Runtime) ObjectSize(v Value) uintptr {
	o := rt.object(v)
	if o == nil {
		return 0
	}
	if o.kind == KindData {
		td := o.payload.(*typedData)
		o.size = dataSize(td.dt, td.ptr)
	}
	return o.size
}

// freeData releases the native value of o, immediately or through the
// finalizer queue.
func (rt *Runtime) freeData(o *object) {
	td := o.payload.(*typedData)
	if td.ptr == nil {
		return
	}
	if td.dt.Flags&FlagFreeImmediately != 0 {
		td.dt.Free(td.ptr)
	} else {
		rt.gc.finalizers = append(rt.gc.finalizers, *td)
	}
	td.ptr = nil
}
