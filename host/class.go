package host

import (
	"fmt"

	"github.com/reglet-dev/typeddata/errors"
)

// Class is a host class. Classes are permanent: they are never collected or
// moved.
type Class struct {
	rt         *Runtime
	name       string
	superclass *Class
	methods    map[string]*Method
	value      Value
	noAlloc    bool
}

// Name returns the class name.
func (c *Class) Name() string { return c.name }

func (c *Class) String() string { return c.name }

// Superclass returns the parent class, or nil for the root class.
func (c *Class) Superclass() *Class { return c.superclass }

// Value returns the class as a host value.
func (c *Class) Value() Value { return c.value }

// IsSubclassOf reports whether c is other or inherits from it.
func (c *Class) IsSubclassOf(other *Class) bool {
	for k := c; k != nil; k = k.superclass {
		if k == other {
			return true
		}
	}
	return false
}

// UndefAlloc stops instances of c from being created by "new". Instances can
// still be created by the runtime, e.g. by wrapping native values.
func (c *Class) UndefAlloc() { c.noAlloc = true }

// IsAllocatable reports whether "new" can create instances of c.
func (c *Class) IsAllocatable() bool { return !c.noAlloc }

// DefineClass defines a class, or returns the existing one when it was
// defined before with the same superclass. A nil superclass means Object.
func (rt *Runtime) DefineClass(name string, superclass *Class) (*Class, error) {
	if superclass == nil {
		superclass = rt.builtin.object
	}
	if c, ok := rt.classes[name]; ok {
		if c.superclass != superclass {
			return nil, errors.NewException(errors.ClassTypeError, "superclass mismatch for class %s", name)
		}
		return c, nil
	}
	return rt.newClass(name, superclass), nil
}

// MustDefineClass is DefineClass that panics on error.
func (rt *Runtime) MustDefineClass(name string, superclass *Class) *Class {
	c, err := rt.DefineClass(name, superclass)
	if err != nil {
		panic(fmt.Sprintf("host: %v", err))
	}
	return c
}

func (rt *Runtime) newClass(name string, superclass *Class) *Class {
	c := &Class{
		rt:         rt,
		name:       name,
		superclass: superclass,
		methods:    make(map[string]*Method),
	}
	// Classes are allocated outside any scope and never collected.
	idx := rt.heap.take()
	rt.nextID++
	rt.heap.slots[idx] = &object{
		id:      rt.nextID,
		class:   rt.builtin.class,
		kind:    KindClass,
		flags:   flagPermanent | flagOld | flagPinned | flagFrozen,
		payload: c,
	}
	rt.heap.live++
	c.value = heapRef(idx)
	rt.classes[name] = c
	return c
}

// LookupClass returns the class defined under name.
func (rt *Runtime) LookupClass(name string) (*Class, bool) {
	c, ok := rt.classes[name]
	return c, ok
}

// ClassOf returns the class of v.
func (rt *Runtime) ClassOf(v Value) *Class {
	b := &rt.builtin
	if !v.IsHeap() {
		switch v.immediateKind() {
		case KindFixnum:
			return b.integer
		case KindSymbol:
			return b.symbol
		case KindNil:
			return b.nilClass
		case KindTrue:
			return b.trueClass
		case KindFalse:
			return b.falseClass
		}
		Bug("class of invalid value %#x", uint64(v))
	}
	return rt.mustObject(v).class
}

// ToClass returns the class a class value refers to.
func (rt *Runtime) ToClass(v Value) (*Class, bool) {
	o := rt.object(v)
	if o == nil || o.kind != KindClass {
		return nil, false
	}
	return o.payload.(*Class), true
}

// IsKindOf reports whether v is an instance of c or a subclass of c.
func (rt *Runtime) IsKindOf(v Value, c *Class) bool {
	return rt.ClassOf(v).IsSubclassOf(c)
}

// Classname returns the class name of v as used in error messages.
func (rt *Runtime) Classname(v Value) string {
	if v.IsHeap() && rt.object(v) == nil {
		return "T_NONE"
	}
	return rt.ClassOf(v).name
}

// New creates an instance of c and calls its initialize method, if any.
func (rt *Runtime) New(c *Class, args ...Value) (Value, error) {
	if c.noAlloc {
		return 0, errors.NewException(errors.ClassTypeError, "allocator undefined for %s", c.name)
	}
	kind := KindObject
	for k := c; k != nil; k = k.superclass {
		if k == rt.builtin.string {
			kind = KindString
			break
		}
		if k == rt.builtin.hash {
			kind = KindHash
			break
		}
		if k == rt.builtin.array {
			kind = KindArray
			break
		}
	}

	var v Value
	switch kind {
	case KindString:
		v = rt.newString(c, nil, EncodingUTF8)
	case KindHash:
		v = rt.newHash(c)
	case KindArray:
		v = rt.newArray(c, nil)
	default:
		v = rt.newObject(c, KindObject, nil, 0)
	}

	if m := c.lookup("initialize"); m != nil {
		if _, err := rt.invoke(m, c, v, args); err != nil {
			return 0, err
		}
	} else if len(args) > 0 {
		return 0, arityError(len(args), 0)
	}
	return v, nil
}
