package host

import (
	"github.com/reglet-dev/typeddata/errors"
)

type objFlags uint16

const (
	flagMarked objFlags = 1 << iota
	flagPinned
	flagOld
	flagWBUnprotected
	flagFrozen
	flagRemembered
	flagPermanent
)

// object is the content of one heap slot.
type object struct {
	id      uint64
	class   *Class
	kind    Kind
	flags   objFlags
	size    uintptr
	payload any
	// fwd is the new slot of a moved object.
	fwd int
}

func (o *object) has(f objFlags) bool { return o.flags&f != 0 }

// heap is a slot table with a free list. Slot 0 is never used.
type heap struct {
	slots []*object
	free  []int
	live  int
}

func (h *heap) init(n int) {
	h.slots = make([]*object, 1, n+1)
	h.free = nil
	h.live = 0
}

// take returns the lowest free slot, growing the table when none is free.
func (h *heap) take() int {
	if n := len(h.free); n > 0 {
		idx := h.free[n-1]
		h.free = h.free[:n-1]
		return idx
	}
	h.slots = append(h.slots, nil)
	return len(h.slots) - 1
}

// rebuildFreeList collects empty slots, lowest index last so take pops it first.
func (h *heap) rebuildFreeList() {
	h.free = h.free[:0]
	h.live = 0
	for i := len(h.slots) - 1; i >= 1; i-- {
		if h.slots[i] == nil {
			h.free = append(h.free, i)
		} else {
			h.live++
		}
	}
}

func (rt *Runtime) newObject(class *Class, kind Kind, payload any, size uintptr) Value {
	if rt.closed {
		Bug("allocation on a cleaned up host runtime")
	}
	if rt.gc.running {
		Bug("allocation during garbage collection")
	}
	rt.gc.beforeAlloc()

	idx := rt.heap.take()
	rt.nextID++
	o := &object{
		id:      rt.nextID,
		class:   class,
		kind:    kind,
		payload: payload,
		size:    size,
	}
	rt.heap.slots[idx] = o
	rt.heap.live++
	rt.gc.mallocIncrease += size

	v := heapRef(idx)
	rt.scope.add(v)
	return v
}

// object returns the live object behind v, or nil.
func (rt *Runtime) object(v Value) *object {
	if !v.IsHeap() {
		return nil
	}
	idx := v.slot()
	if idx <= 0 || idx >= len(rt.heap.slots) {
		return nil
	}
	o := rt.heap.slots[idx]
	if o == nil || o.kind == kindMoved {
		return nil
	}
	return o
}

// mustObject returns the object behind v or terminates the process.
func (rt *Runtime) mustObject(v Value) *object {
	o := rt.object(v)
	if o == nil {
		Bug("reference to freed or invalid object %#x", uint64(v))
	}
	return o
}

// IsLive reports whether v is an immediate or refers to an allocated slot.
// A freed slot that was reused by another object still reports true; compare
// ObjectID to detect reuse.
func (rt *Runtime) IsLive(v Value) bool {
	if !v.IsHeap() {
		return v != 0
	}
	return rt.object(v) != nil
}

// KindOf returns the built-in type of v.
func (rt *Runtime) KindOf(v Value) Kind {
	if !v.IsHeap() {
		return v.immediateKind()
	}
	if o := rt.object(v); o != nil {
		return o.kind
	}
	return KindNone
}

// ObjectID returns an identifier for v that is stable for its lifetime,
// across compaction included.
func (rt *Runtime) ObjectID(v Value) uint64 {
	if !v.IsHeap() {
		return uint64(v)
	}
	return rt.mustObject(v).id
}

// LiveSlots returns the number of occupied heap slots.
func (rt *Runtime) LiveSlots() int { return rt.heap.live }

// Freeze makes v immutable. Immediates are always frozen.
func (rt *Runtime) Freeze(v Value) Value {
	if o := rt.object(v); o != nil {
		o.flags |= flagFrozen
	}
	return v
}

// IsFrozen reports whether v is immutable.
func (rt *Runtime) IsFrozen(v Value) bool {
	if !v.IsHeap() {
		return true
	}
	return rt.mustObject(v).has(flagFrozen)
}

// IsShareable reports whether v may be read from several threads. Frozen
// typed data is shareable only when its DataType allows it.
func (rt *Runtime) IsShareable(v Value) bool {
	if !v.IsHeap() {
		return true
	}
	o := rt.mustObject(v)
	switch o.kind {
	case KindClass:
		return true
	case KindData:
		return o.has(flagFrozen) && o.payload.(*typedData).dt.Flags&FlagFrozenShareable != 0
	case KindArray, KindHash, KindBinding, KindFile:
		return false
	}
	return o.has(flagFrozen)
}

func (rt *Runtime) checkFrozen(v Value) error {
	if rt.IsFrozen(v) {
		return errors.NewException(errors.ClassFrozenError, "can't modify frozen %s", rt.Classname(v))
	}
	return nil
}

// finalize releases the resources of an object being freed.
func (rt *Runtime) finalize(o *object) {
	switch o.kind {
	case KindData:
		rt.freeData(o)
	case KindFile:
		if err := o.payload.(*fileData).close(); err != nil {
			rt.logger.Warn("closing collected file", "error", err)
		}
	}
}
