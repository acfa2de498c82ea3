package memory

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	nativelayout "github.com/wippyai/native-layout"
	"github.com/wippyai/native-layout/abi"
	"github.com/wippyai/native-layout/errors"
)

const wasmPageSize = 65536

// Linear adapts a wazero api.Memory to nativelayout.Memory.
// Addresses are 32-bit offsets into the guest's linear memory.
type Linear struct {
	Mem api.Memory
}

// NewLinear wraps mem. Returns nil if mem is nil.
func NewLinear(mem api.Memory) *Linear {
	if mem == nil {
		return nil
	}
	return &Linear{Mem: mem}
}

func (m *Linear) offsets(addr nativelayout.Address, length uint64) (uint32, uint32, error) {
	end, ok := abi.SafeAdd(uint64(addr), length)
	if !ok || end > math.MaxUint32 {
		return 0, 0, errors.OutOfBounds(errors.PhaseAccess, nil, uint64(addr), length, m.Size())
	}
	return uint32(addr), uint32(length), nil
}

// Read returns a window aliasing linear memory. The window is invalidated
// when the memory grows.
func (m *Linear) Read(addr nativelayout.Address, length uint64) ([]byte, error) {
	off, n, err := m.offsets(addr, length)
	if err != nil {
		return nil, err
	}
	data, ok := m.Mem.Read(off, n)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseAccess, nil, uint64(addr), length, m.Size())
	}
	return data, nil
}

// Write copies data into linear memory.
func (m *Linear) Write(addr nativelayout.Address, data []byte) error {
	off, _, err := m.offsets(addr, uint64(len(data)))
	if err != nil {
		return err
	}
	if !m.Mem.Write(off, data) {
		return errors.OutOfBounds(errors.PhaseAccess, nil, uint64(addr), uint64(len(data)), m.Size())
	}
	return nil
}

// Size returns the current linear memory size in bytes.
func (m *Linear) Size() uint64 {
	return uint64(m.Mem.Size())
}

// ByteOrder returns the wasm byte order.
func (m *Linear) ByteOrder() binary.ByteOrder {
	return binary.LittleEndian
}

// ReallocAllocator allocates through the guest's cabi_realloc export.
type ReallocAllocator struct {
	Ctx context.Context
	Fn  api.Function
}

// NewReallocAllocator wraps a cabi_realloc function. Returns nil if fn is nil.
func NewReallocAllocator(ctx context.Context, fn api.Function) *ReallocAllocator {
	if fn == nil {
		return nil
	}
	return &ReallocAllocator{Ctx: ctx, Fn: fn}
}

// Alloc calls cabi_realloc(0, 0, align, size).
func (a *ReallocAllocator) Alloc(size, align uint64) (nativelayout.Address, error) {
	if size > math.MaxUint32 || align > math.MaxUint32 {
		return nativelayout.Null, fmt.Errorf("allocation of %d bytes exceeds 32-bit address space", size)
	}
	if align == 0 {
		align = 1
	}
	results, err := a.Fn.Call(a.Ctx, 0, 0, align, size)
	if err != nil {
		return nativelayout.Null, fmt.Errorf("cabi_realloc failed: %w", err)
	}
	if len(results) == 0 {
		return nativelayout.Null, fmt.Errorf("cabi_realloc returned no results")
	}
	ptr := uint32(results[0])
	if ptr == 0 {
		return nativelayout.Null, fmt.Errorf("cabi_realloc returned null for %d bytes", size)
	}
	return nativelayout.Address(ptr), nil
}

// Free calls cabi_realloc(ptr, size, align, 0). Errors are logged and dropped.
func (a *ReallocAllocator) Free(addr nativelayout.Address, size, align uint64) {
	if addr == nativelayout.Null {
		return
	}
	if _, err := a.Fn.Call(a.Ctx, uint64(addr), size, align, 0); err != nil {
		Logger().Warn("cabi_realloc free failed",
			zap.Stringer("addr", addr),
			zap.Uint64("size", size),
			zap.Error(err))
	}
}

// BumpAllocator hands out linear memory from a host-managed region starting
// at a fixed offset, growing the memory by whole pages as needed. Only the most
// recent allocation can be freed.
type BumpAllocator struct {
	Mem  api.Memory
	next uint64
	last uint64
	mu   sync.Mutex
}

// NewBumpAllocator returns an allocator whose first block is at or after
// start. A zero start is moved to 8 so Null is never returned.
func NewBumpAllocator(mem api.Memory, start uint64) *BumpAllocator {
	if start == 0 {
		start = 8
	}
	return &BumpAllocator{Mem: mem, next: start, last: start}
}

// Alloc reserves size bytes, growing memory if the region runs past its end.
// A zero size reserves one byte so every allocation has a distinct address.
func (a *BumpAllocator) Alloc(size, align uint64) (nativelayout.Address, error) {
	if size == 0 {
		size = 1
	}
	if align == 0 {
		align = 1
	}
	if !abi.IsPowerOfTwo(align) {
		return nativelayout.Null, fmt.Errorf("alignment %d is not a power of two", align)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	ptr := abi.AlignTo(a.next, align)
	end, ok := abi.SafeAdd(ptr, size)
	if !ok || end > math.MaxUint32 {
		return nativelayout.Null, fmt.Errorf("allocation of %d bytes exceeds 32-bit address space", size)
	}

	if cur := uint64(a.Mem.Size()); end > cur {
		pages := (end - cur + wasmPageSize - 1) / wasmPageSize
		if _, ok := a.Mem.Grow(uint32(pages)); !ok {
			return nativelayout.Null, fmt.Errorf("memory.grow by %d pages failed", pages)
		}
	}

	a.last = a.next
	a.next = end
	return nativelayout.Address(ptr), nil
}

// Free rolls back the most recent allocation. Other frees are ignored.
func (a *BumpAllocator) Free(addr nativelayout.Address, size, _ uint64) {
	if size == 0 {
		size = 1
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if uint64(addr)+size == a.next && uint64(addr) >= a.last {
		a.next = a.last
	}
}

// Top returns the next unallocated offset.
func (a *BumpAllocator) Top() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.next
}
