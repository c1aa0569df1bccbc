package host

import (
	"time"

	"github.com/reglet-dev/typeddata/errors"
)

type gcPhase uint8

const (
	phaseIdle gcPhase = iota
	phaseMark
	phaseSweep
	phaseCompact
)

func (p gcPhase) String() string {
	switch p {
	case phaseMark:
		return "mark"
	case phaseSweep:
		return "sweep"
	case phaseCompact:
		return "compact"
	}
	return "idle"
}

// GCStats counts collector activity.
type GCStats struct {
	Count        int
	MinorCount   int
	CompactCount int
	// LastFreed and LastMoved describe the most recent collection and
	// compaction respectively.
	LastFreed    int
	LastMoved    int
	TotalFreed   int
	TotalMoved   int
	LastDuration time.Duration
}

type collector struct {
	rt      *Runtime
	running bool
	phase   gcPhase
	minor   bool
	// pinChildren turns movable marks into pinning marks while tracing a
	// value that cannot update its references.
	pinChildren    bool
	stack          []int
	finalizers     []typedData
	mallocIncrease uintptr
	threshold      int
	stats          GCStats
	handle         GC
}

func (c *collector) init(rt *Runtime) {
	c.rt = rt
	c.threshold = rt.cfg.GC.HeapSlots
	c.handle = GC{c: c}
}

// GC is the marking and relocation API handed to collector callbacks.
type GC struct {
	c *collector
}

// Collector returns the API for use inside DataType callbacks.
func (rt *Runtime) Collector() *GC { return &rt.gc.handle }

// Mark marks v live and pins it in place.
func (g *GC) Mark(v Value) {
	g.c.expect(phaseMark, "Mark")
	g.c.markValue(v, true)
}

// MarkMovable marks v live and lets compaction move it. Callers must
// update their reference through Location from their compact callback.
func (g *GC) MarkMovable(v Value) {
	g.c.expect(phaseMark, "MarkMovable")
	g.c.markValue(v, g.c.pinChildren)
}

// MarkSlice marks every value in vs and pins them.
func (g *GC) MarkSlice(vs []Value) {
	g.c.expect(phaseMark, "MarkSlice")
	for _, v := range vs {
		g.c.markValue(v, true)
	}
}

// Location returns the current location of v during compaction.
func (g *GC) Location(v Value) Value {
	g.c.expect(phaseCompact, "Location")
	return g.c.location(v)
}

func (c *collector) expect(phase gcPhase, op string) {
	if c.phase != phase {
		Bug("gc.%s called during %s phase", op, c.phase)
	}
}

// GC runs a full collection.
func (rt *Runtime) GC() { rt.collect(false) }

// GCMinor runs a minor collection: only objects allocated since the last
// collection are candidates, and old objects are traced only when they are
// write-barrier unprotected or were remembered by WriteBarrier.
func (rt *Runtime) GCMinor() { rt.collect(true) }

// Compact runs a full collection and then slides movable objects to the
// lowest free slots. Hosts older than 2.7 cannot compact.
func (rt *Runtime) Compact() error {
	if !rt.version.Features().Compaction {
		return errors.NewException(errors.ClassNotImplementedError,
			"compaction requires host API >= 2.7, have %s", rt.version)
	}
	rt.collect(false)
	if !rt.autoCompact() {
		rt.compact()
	}
	return nil
}

func (rt *Runtime) autoCompact() bool {
	return rt.cfg.GC.AutoCompact && rt.version.Features().Compaction
}

// GCStats returns collector counters.
func (rt *Runtime) GCStats() GCStats { return rt.gc.stats }

// WriteBarrier records that parent now references child. Write-barrier
// protected values must call it on every such store.
func (rt *Runtime) WriteBarrier(parent, child Value) {
	if !child.IsHeap() {
		return
	}
	p, ch := rt.object(parent), rt.object(child)
	if p == nil || ch == nil {
		return
	}
	if p.has(flagOld) && !ch.has(flagOld) {
		p.flags |= flagRemembered
	}
}

func (c *collector) beforeAlloc() {
	rt := c.rt
	switch {
	case rt.cfg.GC.Stress:
		rt.collect(false)
	case c.mallocIncrease >= uintptr(rt.cfg.GC.MallocLimit):
		rt.collect(false)
	case rt.heap.live >= c.threshold:
		rt.collect(true)
		if rt.heap.live >= c.threshold {
			rt.collect(false)
		}
		c.threshold = max(rt.cfg.GC.HeapSlots, 2*rt.heap.live)
	}
}

func (rt *Runtime) collect(minor bool) {
	c := &rt.gc
	if c.running {
		Bug("recursive garbage collection")
	}
	c.running = true
	c.minor = minor
	start := time.Now()

	for _, o := range rt.heap.slots {
		if o == nil {
			continue
		}
		if !minor {
			o.flags &^= flagMarked | flagPinned
		} else if !o.has(flagOld) {
			o.flags &^= flagMarked
		}
	}

	c.phase = phaseMark
	c.markRoots()
	if minor {
		for _, o := range rt.heap.slots {
			if o != nil && o.has(flagOld) && (o.has(flagRemembered) || o.has(flagWBUnprotected)) {
				c.markChildren(o)
			}
		}
	}
	c.drain()

	c.phase = phaseSweep
	freed := c.sweep()

	// Survivors are promoted.
	for _, o := range rt.heap.slots {
		if o != nil {
			o.flags |= flagOld
			o.flags &^= flagRemembered
		}
	}
	rt.heap.rebuildFreeList()
	c.mallocIncrease = 0
	c.phase = phaseIdle
	c.running = false
	c.flushFinalizers()

	c.stats.Count++
	if minor {
		c.stats.MinorCount++
	}
	c.stats.LastFreed = freed
	c.stats.TotalFreed += freed
	c.stats.LastDuration = time.Since(start)

	rt.logger.Debug("garbage collection",
		"minor", minor,
		"freed", freed,
		"live", rt.heap.live,
		"duration", c.stats.LastDuration)

	if !minor && rt.autoCompact() {
		rt.compact()
	}
}

func (c *collector) markRoots() {
	rt := c.rt
	for s := rt.scope; s != nil; s = s.parent {
		for _, v := range s.values {
			c.markValue(v, true)
		}
	}
	for _, v := range rt.roots {
		c.markValue(v, true)
	}
	for p := range rt.addresses {
		c.markValue(*p, true)
	}
}

func (c *collector) markValue(v Value, pin bool) {
	if !v.IsHeap() {
		return
	}
	slots := c.rt.heap.slots
	idx := v.slot()
	if idx <= 0 || idx >= len(slots) || slots[idx] == nil || slots[idx].kind == kindMoved {
		Bug("try to mark T_NONE object %#x", uint64(v))
	}
	o := slots[idx]
	if o.has(flagPermanent) {
		return
	}
	if c.minor && o.has(flagOld) {
		return
	}
	if pin {
		o.flags |= flagPinned
	}
	if o.has(flagMarked) {
		return
	}
	o.flags |= flagMarked
	c.stack = append(c.stack, idx)
}

func (c *collector) drain() {
	for len(c.stack) > 0 {
		idx := c.stack[len(c.stack)-1]
		c.stack = c.stack[:len(c.stack)-1]
		c.markChildren(c.rt.heap.slots[idx])
	}
}

func (c *collector) markChildren(o *object) {
	switch o.kind {
	case KindArray:
		for _, e := range o.payload.(*arrayData).elems {
			c.markValue(e, false)
		}
	case KindHash:
		for _, e := range o.payload.(*hashData).entries {
			if !e.deleted {
				c.markValue(e.key, false)
				c.markValue(e.value, false)
			}
		}
	case KindBinding:
		for _, v := range o.payload.(*bindingData).locals {
			c.markValue(v, false)
		}
	case KindData:
		td := o.payload.(*typedData)
		if td.dt.Mark == nil || td.ptr == nil {
			return
		}
		c.pinChildren = td.dt.Compact == nil
		td.dt.Mark(td.ptr)
		c.pinChildren = false
	}
}

func (c *collector) sweep() int {
	rt := c.rt
	freed := 0
	for i, o := range rt.heap.slots {
		if o == nil || o.has(flagPermanent) || o.has(flagMarked) {
			continue
		}
		if c.minor && o.has(flagOld) {
			continue
		}
		rt.finalize(o)
		rt.heap.slots[i] = nil
		freed++
	}
	return freed
}

func (c *collector) flushFinalizers() {
	for len(c.finalizers) > 0 {
		pending := c.finalizers
		c.finalizers = nil
		for _, f := range pending {
			f.dt.Free(f.ptr)
		}
	}
}

func (o *object) movable() bool {
	return !o.has(flagPermanent) && !o.has(flagPinned) && o.kind != kindMoved
}

// compact slides movable objects from the top of the heap into free slots
// at the bottom, then lets every live object update its references.
func (rt *Runtime) compact() {
	c := &rt.gc
	c.running = true
	slots := rt.heap.slots

	moved := 0
	free, scan := 1, len(slots)-1
	for {
		for free < scan && slots[free] != nil {
			free++
		}
		for scan > free && (slots[scan] == nil || !slots[scan].movable()) {
			scan--
		}
		if free >= scan {
			break
		}
		slots[free] = slots[scan]
		slots[scan] = &object{kind: kindMoved, fwd: free}
		moved++
		free++
		scan--
	}

	c.phase = phaseCompact
	for _, o := range slots {
		if o != nil && o.kind != kindMoved {
			c.updateRefs(o)
		}
	}
	for p := range rt.addresses {
		*p = c.location(*p)
	}
	for i, o := range slots {
		if o != nil && o.kind == kindMoved {
			slots[i] = nil
		}
	}
	c.phase = phaseIdle
	c.running = false
	rt.heap.rebuildFreeList()

	c.stats.CompactCount++
	c.stats.LastMoved = moved
	c.stats.TotalMoved += moved
	rt.logger.Debug("heap compaction", "moved", moved, "live", rt.heap.live)
}

func (c *collector) location(v Value) Value {
	if !v.IsHeap() {
		return v
	}
	slots := c.rt.heap.slots
	idx := v.slot()
	if idx > 0 && idx < len(slots) {
		if o := slots[idx]; o != nil && o.kind == kindMoved {
			return heapRef(o.fwd)
		}
	}
	return v
}

func (c *collector) updateRefs(o *object) {
	switch o.kind {
	case KindArray:
		a := o.payload.(*arrayData)
		for i, e := range a.elems {
			a.elems[i] = c.location(e)
		}
	case KindHash:
		h := o.payload.(*hashData)
		for i := range h.entries {
			h.entries[i].key = c.location(h.entries[i].key)
			h.entries[i].value = c.location(h.entries[i].value)
		}
	case KindBinding:
		b := o.payload.(*bindingData)
		for name, v := range b.locals {
			b.locals[name] = c.location(v)
		}
	case KindData:
		td := o.payload.(*typedData)
		if td.dt.Compact != nil && td.ptr != nil {
			td.dt.Compact(td.ptr)
		}
	}
}
