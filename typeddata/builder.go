package typeddata

import (
	"log/slog"
	"unsafe"

	"github.com/reglet-dev/typeddata/host"
	"github.com/reglet-dev/typeddata/hostconfig"
	"github.com/reglet-dev/typeddata/internal/abi"
)

// Builder assembles the DataType of T. Toggles are off by default; Free is
// always installed.
type Builder[T any] struct {
	name            string
	mark            bool
	size            bool
	compact         bool
	freeImmediately bool
	wbProtected     bool
	frozenShareable bool
	version         hostconfig.Version
	built           bool
}

// NewBuilder starts a DataType for T named name. Names must not contain NUL.
func NewBuilder[T any](name string) *Builder[T] {
	return &Builder[T]{name: name, version: hostconfig.Compiled()}
}

// Mark enables the mark callback. Without it the collector does not look
// inside values of T.
func (b *Builder[T]) Mark() *Builder[T] {
	b.mark = true
	return b
}

// Size enables the size callback. Without it the host assumes the size of T.
func (b *Builder[T]) Size() *Builder[T] {
	b.size = true
	return b
}

// Compact enables the compact callback on hosts that compact.
func (b *Builder[T]) Compact() *Builder[T] {
	b.compact = true
	return b
}

// FreeImmediately lets the collector free values during sweep.
func (b *Builder[T]) FreeImmediately() *Builder[T] {
	b.freeImmediately = true
	return b
}

// WBProtected promises that every store of a host value into a T goes
// through host.Runtime.WriteBarrier.
func (b *Builder[T]) WBProtected() *Builder[T] {
	b.wbProtected = true
	return b
}

// FrozenShareable allows frozen values to be read from other goroutines on
// hosts that support it.
func (b *Builder[T]) FrozenShareable() *Builder[T] {
	b.frozenShareable = true
	return b
}

// TargetVersion sets the host API version the DataType is built for.
func (b *Builder[T]) TargetVersion(v hostconfig.Version) *Builder[T] {
	b.version = v
	return b
}

// Build returns the DataType. A Builder builds once.
func (b *Builder[T]) Build() *DataType {
	if b.built {
		panic("typeddata: Builder[" + b.name + "] already built")
	}
	b.built = true

	var zero T
	features := b.version.Features()
	hdt := host.DataType{
		Name:          abi.MustAlloc(b.name),
		Free:          externFree[T],
		EstimatedSize: unsafe.Sizeof(zero),
	}
	if b.mark {
		hdt.Mark = externMark[T]
	}
	if b.size {
		hdt.Size = externSize[T]
	}
	if b.compact && features.Compaction {
		hdt.Compact = externCompact[T]
	}
	if b.freeImmediately {
		hdt.Flags |= host.FlagFreeImmediately
	}
	if b.wbProtected {
		hdt.Flags |= host.FlagWBProtected
		if !b.mark {
			slog.Debug("write-barrier protected data type marks nothing", "name", b.name)
		}
	}
	if b.frozenShareable && features.FrozenShareable {
		hdt.Flags |= host.FlagFrozenShareable
	}
	return newDataType(hdt)
}
