package typeddata_test

import (
	"hash/maphash"
	"sync"

	"github.com/reglet-dev/typeddata/host"
	"github.com/reglet-dev/typeddata/typeddata"
)

type Point struct{ X, Y int }

type Pair struct{ A, B int }

// Boxed is comparable, but V may hold a value that is not.
type Boxed struct{ V any }

// Left and Right share a host class but not a DataType.
type (
	Left  struct{ N int }
	Right struct{ N int }
)

type resource struct {
	freed *int
}

func (r *resource) Free() { *r.freed++ }

type panicky struct{}

func (*panicky) Free() { panic("boom") }

type panickyMarker struct{}

func (*panickyMarker) Mark(*host.GC) { panic("mark boom") }

type panickySizer struct{}

func (*panickySizer) Size() uintptr { panic("size boom") }

type panickyCompactor struct{}

func (*panickyCompactor) Mark(*host.GC) {}

func (*panickyCompactor) Compact(*host.GC) { panic("compact boom") }

// weakHolder holds a host value but does not mark it.
type weakHolder struct{ child host.Value }

type strongHolder struct{ child host.Value }

func (h *strongHolder) Mark(gc *host.GC) { gc.Mark(h.child) }

// protectedHolder promises write barriers on every store of child.
type protectedHolder struct{ child host.Value }

func (h *protectedHolder) Mark(gc *host.GC) { gc.Mark(h.child) }

type movingHolder struct{ child host.Value }

func (h *movingHolder) Mark(gc *host.GC) { gc.MarkMovable(h.child) }

func (h *movingHolder) Compact(gc *host.GC) { h.child = gc.Location(h.child) }

type Tagged struct {
	Name string
	Refs []host.Value
}

func (t *Tagged) WriteHash(h *maphash.Hash) { _, _ = h.WriteString(t.Name) }

func (t *Tagged) Eql(other *Tagged) bool { return t.Name == other.Name }

type Settings struct{ Name string }

// Counter implements TypedData itself.
type Counter struct{ N int }

var counterType = sync.OnceValue(func() *typeddata.DataType {
	return typeddata.NewBuilder[Counter]("counter").Size().Build()
})

func (Counter) Class(rt *host.Runtime) *host.Class { return rt.MustDefineClass("Counter", nil) }

func (Counter) DataType() *typeddata.DataType { return counterType() }

func (*Counter) Size() uintptr { return 1024 }

type unregistered struct{}

var (
	pointType = typeddata.Define[Point]("Point", typeddata.NewBuilder[Point]("point").FreeImmediately())
	rightType = typeddata.Define[Right]("Shared", typeddata.NewBuilder[Right]("right"))
)

func init() {
	typeddata.Define[Pair]("Pair", typeddata.NewBuilder[Pair]("pair"))
	typeddata.Define[Boxed]("Boxed", typeddata.NewBuilder[Boxed]("boxed"))
	typeddata.Define[Left]("Shared", typeddata.NewBuilder[Left]("left"))
	typeddata.Define[resource]("Resource", typeddata.NewBuilder[resource]("resource"))
	typeddata.Define[panicky]("Panicky", typeddata.NewBuilder[panicky]("panicky").FreeImmediately())
	typeddata.Define[panickyMarker]("PanickyMarker", typeddata.NewBuilder[panickyMarker]("panicky_marker").Mark())
	typeddata.Define[panickySizer]("PanickySizer", typeddata.NewBuilder[panickySizer]("panicky_sizer").Size())
	typeddata.Define[panickyCompactor]("PanickyCompactor",
		typeddata.NewBuilder[panickyCompactor]("panicky_compactor").Mark().Compact())
	typeddata.Define[weakHolder]("WeakHolder", typeddata.NewBuilder[weakHolder]("weak_holder"))
	typeddata.Define[strongHolder]("StrongHolder", typeddata.NewBuilder[strongHolder]("strong_holder").Mark())
	typeddata.Define[protectedHolder]("ProtectedHolder",
		typeddata.NewBuilder[protectedHolder]("protected_holder").Mark().WBProtected())
	typeddata.Define[movingHolder]("MovingHolder",
		typeddata.NewBuilder[movingHolder]("moving_holder").Mark().Compact())
	typeddata.Define[Tagged]("Tagged", typeddata.NewBuilder[Tagged]("tagged"))
	typeddata.Define[Settings]("Settings", typeddata.NewBuilder[Settings]("settings").FrozenShareable())
}
