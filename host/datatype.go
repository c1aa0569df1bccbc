package host

import (
	"unsafe"

	"github.com/reglet-dev/typeddata/internal/abi"
)

// DataTypeFlags are capability bits of a DataType.
type DataTypeFlags uint64

const (
	// FlagFreeImmediately lets the collector free the value during sweep
	// instead of queueing it for the end of the collection.
	FlagFreeImmediately DataTypeFlags = 1
	// FlagWBProtected promises a WriteBarrier call on every store of a host
	// value into the wrapped value.
	FlagWBProtected DataTypeFlags = 1 << 5
	// FlagFrozenShareable allows reads from several threads once frozen.
	FlagFrozenShareable DataTypeFlags = 1 << 8
)

// Collector callback signatures. Each receives the pointer the value was
// wrapped with.
type (
	MarkFunc    func(unsafe.Pointer)
	FreeFunc    func(unsafe.Pointer)
	SizeFunc    func(unsafe.Pointer) uintptr
	CompactFunc func(unsafe.Pointer)
)

// DataType describes a wrapped native type to the collector. DataTypes are
// compared by identity.
type DataType struct {
	Name    abi.CString
	Flags   DataTypeFlags
	Mark    MarkFunc
	Free    FreeFunc
	Size    SizeFunc
	Compact CompactFunc
	// EstimatedSize is used when Size is nil.
	EstimatedSize uintptr
	Parent        *DataType
	Data          unsafe.Pointer
}

// WrapName returns the descriptor name.
func (dt *DataType) WrapName() string { return dt.Name.String() }

// IsWBProtected reports whether values of dt are write-barrier protected.
func (dt *DataType) IsWBProtected() bool { return dt.Flags&FlagWBProtected != 0 }

// inherits reports whether dt is parent or descends from it.
func (dt *DataType) inherits(parent *DataType) bool {
	for t := dt; t != nil; t = t.Parent {
		if t == parent {
			return true
		}
	}
	return false
}
