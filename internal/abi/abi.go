// Package abi owns the NUL-terminated names handed to the host collector.
//
// Names live in a process-wide arena. Each allocation is pinned until it is
// released, and release is idempotent so a descriptor can be torn down from
// both an explicit Close and a runtime cleanup without double-freeing.
package abi

import (
	"fmt"
	"strings"
	"sync"
	"unsafe"
)

// MaxTotalAllocations caps the bytes held by the arena.
const MaxTotalAllocations = 16 * 1024 * 1024

// CString is a pointer to a NUL-terminated byte string in the arena.
// The zero value is the null name.
type CString struct {
	p *byte
}

// IsNull reports whether c refers to no storage.
func (c CString) IsNull() bool { return c.p == nil }

// Addr returns the address of the first byte, or 0 for the null name.
func (c CString) Addr() uintptr { return uintptr(unsafe.Pointer(c.p)) }

// String returns a Go copy of the name without its terminator.
// A released name reads as empty.
func (c CString) String() string {
	return GoString(c)
}

var arena = struct {
	sync.Mutex
	ptrs           map[uintptr][]byte
	totalAllocated int
}{
	ptrs: make(map[uintptr][]byte),
}

// Alloc copies name into the arena with a trailing NUL and returns its handle.
// Names may hold arbitrary bytes except NUL.
func Alloc(name string) (CString, error) {
	if strings.IndexByte(name, 0) >= 0 {
		return CString{}, fmt.Errorf("abi: name %q contains NUL byte", name)
	}
	size := len(name) + 1

	arena.Lock()
	defer arena.Unlock()

	if arena.totalAllocated+size > MaxTotalAllocations {
		return CString{}, fmt.Errorf("abi: name arena limit exceeded (requested: %d bytes, current: %d bytes, limit: %d bytes)",
			size, arena.totalAllocated, MaxTotalAllocations)
	}

	buf := make([]byte, size)
	copy(buf, name)
	c := CString{p: &buf[0]}

	arena.ptrs[c.Addr()] = buf
	arena.totalAllocated += size

	return c, nil
}

// MustAlloc is Alloc that panics on error.
func MustAlloc(name string) CString {
	c, err := Alloc(name)
	if err != nil {
		panic(err)
	}
	return c
}

// Free releases the storage behind c. It reports whether anything was
// released; untracked or already released names are ignored.
func Free(c CString) bool {
	if c.IsNull() {
		return false
	}

	arena.Lock()
	defer arena.Unlock()

	buf, ok := arena.ptrs[c.Addr()]
	if !ok {
		return false
	}
	delete(arena.ptrs, c.Addr())
	arena.totalAllocated -= len(buf)
	if arena.totalAllocated < 0 {
		arena.totalAllocated = 0
	}
	return true
}

// GoString returns the name behind c. Null and released names read as empty.
func GoString(c CString) string {
	if c.IsNull() {
		return ""
	}

	arena.Lock()
	buf, ok := arena.ptrs[c.Addr()]
	arena.Unlock()
	if !ok {
		return ""
	}
	return string(buf[:len(buf)-1])
}

// Live reports whether c still refers to arena storage.
func Live(c CString) bool {
	if c.IsNull() {
		return false
	}
	arena.Lock()
	defer arena.Unlock()
	_, ok := arena.ptrs[c.Addr()]
	return ok
}

// Stats returns the number of live names and the bytes they hold.
func Stats() (count, bytes int) {
	arena.Lock()
	defer arena.Unlock()
	return len(arena.ptrs), arena.totalAllocated
}
