package typeddata

import (
	"reflect"
	"sync"

	"github.com/reglet-dev/typeddata/host"
)

// TypedData is implemented by Go types that can be wrapped in host objects.
// Both methods must return the same value on every call. Implementing it by
// hand asserts that the DataType was built for the implementing type; Define
// is the checked alternative.
type TypedData interface {
	// Class returns the host class of wrapped values in rt.
	Class(rt *host.Runtime) *host.Class
	// DataType returns the collector descriptor of the type.
	DataType() *DataType
}

var registry = struct {
	sync.RWMutex
	types map[reflect.Type]TypedData
}{
	types: make(map[reflect.Type]TypedData),
}

// Register sets the capability of T. It panics when T already has one.
func Register[T any](td TypedData) {
	t := reflect.TypeFor[T]()
	registry.Lock()
	defer registry.Unlock()
	if _, ok := registry.types[t]; ok {
		panic("typeddata: capability for " + t.String() + " registered twice")
	}
	registry.types[t] = td
}

// Define builds the DataType of T and registers T under the named host
// class. The class is created in each runtime on first use, without an
// allocator.
func Define[T any](className string, b *Builder[T]) *DataType {
	dt := b.Build()
	Register[T](&definedType{className: className, dt: dt})
	return dt
}

type definedType struct {
	className string
	dt        *DataType
}

func (d *definedType) Class(rt *host.Runtime) *host.Class {
	c, err := rt.DefineClass(d.className, nil)
	if err != nil {
		host.Bug("defining class for data type %s: %v", d.dt.Name(), err)
	}
	c.UndefAlloc()
	return c
}

func (d *definedType) DataType() *DataType { return d.dt }

// capabilityOf finds the capability of T: T or *T implementing TypedData,
// then the registry. A type without one is a programming error and
// terminates the process.
func capabilityOf[T any]() TypedData {
	var zero T
	if td, ok := any(zero).(TypedData); ok {
		return td
	}
	if td, ok := any(&zero).(TypedData); ok {
		return td
	}
	t := reflect.TypeFor[T]()
	registry.RLock()
	td, ok := registry.types[t]
	registry.RUnlock()
	if !ok {
		host.Bug("no capability registered for %s", t)
	}
	return td
}

// Class returns the host class of T in rt.
func Class[T any](rt *host.Runtime) *host.Class {
	return capabilityOf[T]().Class(rt)
}
