package host

import "fmt"

// Value is an opaque reference to a host object.
//
// Fixnums carry their integer in the upper bits with the low bit set.
// Heap references carry a slot index; they are only meaningful to the
// runtime that created them. The zero Value is never valid.
type Value uint64

// Special constants.
const (
	False Value = 0x02
	Nil   Value = 0x0a
	True  Value = 0x12
	Undef Value = 0x1a
)

const (
	fixnumFlag  = 0x1
	specialMask = 0x7
	heapTag     = 0x4
	symbolTag   = 0x6
)

// Fixnum range.
const (
	FixnumMax int64 = 1<<62 - 1
	FixnumMin int64 = -(1 << 62)
)

// Kind is the built-in type of a host value.
type Kind uint8

const (
	KindNone Kind = iota
	KindFixnum
	KindSymbol
	KindNil
	KindTrue
	KindFalse
	KindUndef
	KindObject
	KindClass
	KindString
	KindBignum
	KindArray
	KindHash
	KindData
	KindFile
	KindRational
	KindBinding
	kindMoved
)

var kindNames = [...]string{
	KindNone:     "T_NONE",
	KindFixnum:   "T_FIXNUM",
	KindSymbol:   "T_SYMBOL",
	KindNil:      "T_NIL",
	KindTrue:     "T_TRUE",
	KindFalse:    "T_FALSE",
	KindUndef:    "T_UNDEF",
	KindObject:   "T_OBJECT",
	KindClass:    "T_CLASS",
	KindString:   "T_STRING",
	KindBignum:   "T_BIGNUM",
	KindArray:    "T_ARRAY",
	KindHash:     "T_HASH",
	KindData:     "T_DATA",
	KindFile:     "T_FILE",
	KindRational: "T_RATIONAL",
	KindBinding:  "T_BINDING",
	kindMoved:    "T_MOVED",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// IsFixnum reports whether v is an immediate integer.
func (v Value) IsFixnum() bool { return v&fixnumFlag == fixnumFlag }

// IsSymbol reports whether v is a static symbol.
func (v Value) IsSymbol() bool { return v&specialMask == symbolTag }

// IsHeap reports whether v refers to a heap slot.
func (v Value) IsHeap() bool { return v != 0 && v&specialMask == heapTag }

// IsNil reports whether v is nil.
func (v Value) IsNil() bool { return v == Nil }

// IsUndef reports whether v is the undef sentinel.
func (v Value) IsUndef() bool { return v == Undef }

// Truthy reports whether v is neither false nor nil.
func (v Value) Truthy() bool { return v != False && v != Nil && v != 0 }

// Bool converts a Go bool to true or false.
func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

// Fixnum encodes i as an immediate integer. It reports false when i is
// outside [FixnumMin, FixnumMax].
func Fixnum(i int64) (Value, bool) {
	if i < FixnumMin || i > FixnumMax {
		return 0, false
	}
	return Value(uint64(i)<<1 | fixnumFlag), true
}

// FixnumValue decodes an immediate integer. v must be a fixnum.
func (v Value) FixnumValue() int64 { return int64(v) >> 1 }

func heapRef(slot int) Value { return Value(uint64(slot)<<3 | heapTag) }

func (v Value) slot() int { return int(v >> 3) }

func symbolRef(id int) Value { return Value(uint64(id)<<3 | symbolTag) }

func (v Value) symbolID() int { return int(v >> 3) }

func (v Value) immediateKind() Kind {
	switch {
	case v.IsFixnum():
		return KindFixnum
	case v.IsSymbol():
		return KindSymbol
	}
	switch v {
	case Nil:
		return KindNil
	case True:
		return KindTrue
	case False:
		return KindFalse
	case Undef:
		return KindUndef
	}
	return KindNone
}
