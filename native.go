package nativelayout

import "fmt"

// Address is a raw address in a memory store. The pointee type is not tracked.
type Address uint64

// Null is the zero address.
const Null Address = 0

// IsNull reports whether the address is zero.
func (a Address) IsNull() bool {
	return a == Null
}

// Add returns the address offset by n bytes.
func (a Address) Add(n uint64) Address {
	return a + Address(n)
}

func (a Address) String() string {
	return fmt.Sprintf("0x%x", uint64(a))
}

// Memory is a flat byte-addressed store.
//
// Read returns a window that aliases the store; it is invalidated by any
// operation that grows or replaces the backing buffer.
type Memory interface {
	Read(addr Address, length uint64) ([]byte, error)
	Write(addr Address, data []byte) error
}

// MemorySizer provides the current size of a store in bytes.
type MemorySizer interface {
	Size() uint64
}

// Allocator hands out raw blocks inside a Memory.
type Allocator interface {
	Alloc(size, align uint64) (Address, error)
	Free(addr Address, size, align uint64)
}
