package typeddata

import (
	"unsafe"

	"github.com/reglet-dev/typeddata/host"
)

// Freer releases resources owned by a value. It is called once, by the
// collector, and must not panic.
type Freer interface {
	Free()
}

// Marker marks the host values a value holds. It must not panic.
type Marker interface {
	Mark(gc *host.GC)
}

// Sizer reports the memory a value holds. It must not panic.
type Sizer interface {
	Size() uintptr
}

// Compactor updates the host values a value holds after compaction, using
// gc.Location for every value it marked movable. It must not panic.
type Compactor interface {
	Compact(gc *host.GC)
}

// fromPtr reinterprets a pointer handed back by the host. The host only
// hands back pointers of values wrapped with the DataType of T.
func fromPtr[T any](p unsafe.Pointer) *T {
	return (*T)(p)
}

// contain terminates the process on a panic escaping a collector callback.
func contain() {
	if r := recover(); r != nil {
		host.BugFromPanic(r)
	}
}

func externFree[T any](p unsafe.Pointer) {
	obj := fromPtr[T](p)
	defer contain()
	defer func() {
		var zero T
		*obj = zero
	}()
	if f, ok := any(obj).(Freer); ok {
		f.Free()
	}
}

func externMark[T any](p unsafe.Pointer) {
	defer contain()
	if m, ok := any(fromPtr[T](p)).(Marker); ok {
		m.Mark(host.Current().Collector())
	}
}

func externSize[T any](p unsafe.Pointer) (size uintptr) {
	defer contain()
	if s, ok := any(fromPtr[T](p)).(Sizer); ok {
		return s.Size()
	}
	var zero T
	return unsafe.Sizeof(zero)
}

func externCompact[T any](p unsafe.Pointer) {
	defer contain()
	if c, ok := any(fromPtr[T](p)).(Compactor); ok {
		c.Compact(host.Current().Collector())
	}
}
