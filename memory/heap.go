package memory

import (
	"fmt"
	"sort"
	"sync"

	nativelayout "github.com/wippyai/native-layout"
	"github.com/wippyai/native-layout/abi"
	"github.com/wippyai/native-layout/errors"
)

// DefaultHeapBase is the first address of a Heap unless configured otherwise.
const DefaultHeapBase nativelayout.Address = 0x10000

// HeapConfig configures a Heap.
type HeapConfig struct {
	// Base is the address of the first byte. Must be non-zero.
	Base     nativelayout.Address
	Capacity uint64
}

// Heap is a fixed-capacity simulated address space with a first-fit,
// coalescing free list. It implements Memory, MemorySizer and Allocator.
type Heap struct {
	buf   []byte
	free  []span
	base  nativelayout.Address
	inUse uint64
	mu    sync.Mutex
}

type span struct {
	off  uint64
	size uint64
}

// NewHeap creates a heap of capacity bytes at DefaultHeapBase.
func NewHeap(capacity uint64) *Heap {
	return NewHeapWithConfig(HeapConfig{Base: DefaultHeapBase, Capacity: capacity})
}

// NewHeapWithConfig creates a heap from cfg.
func NewHeapWithConfig(cfg HeapConfig) *Heap {
	if cfg.Base == nativelayout.Null {
		cfg.Base = DefaultHeapBase
	}
	h := &Heap{
		buf:  make([]byte, cfg.Capacity),
		base: cfg.Base,
	}
	if cfg.Capacity > 0 {
		h.free = []span{{off: 0, size: cfg.Capacity}}
	}
	return h
}

// Base returns the heap's first address.
func (h *Heap) Base() nativelayout.Address {
	return h.base
}

// Size returns the heap capacity in bytes.
func (h *Heap) Size() uint64 {
	return uint64(len(h.buf))
}

// InUse returns the number of allocated bytes, alignment padding excluded.
func (h *Heap) InUse() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.inUse
}

func (h *Heap) window(addr nativelayout.Address, length uint64) (uint64, error) {
	if addr < h.base {
		return 0, errors.OutOfBounds(errors.PhaseAccess, nil, uint64(addr), length, uint64(h.base)+h.Size())
	}
	off := uint64(addr - h.base)
	end, ok := abi.SafeAdd(off, length)
	if !ok || end > h.Size() {
		return 0, errors.OutOfBounds(errors.PhaseAccess, nil, uint64(addr), length, uint64(h.base)+h.Size())
	}
	return off, nil
}

// Read returns a window aliasing the heap bytes.
func (h *Heap) Read(addr nativelayout.Address, length uint64) ([]byte, error) {
	off, err := h.window(addr, length)
	if err != nil {
		return nil, err
	}
	return h.buf[off : off+length : off+length], nil
}

// Write copies data into the heap.
func (h *Heap) Write(addr nativelayout.Address, data []byte) error {
	off, err := h.window(addr, uint64(len(data)))
	if err != nil {
		return err
	}
	copy(h.buf[off:], data)
	return nil
}

// Alloc carves size bytes aligned to align out of the first span that fits.
// Zero-size requests take one byte so every allocation has a distinct address.
func (h *Heap) Alloc(size, align uint64) (nativelayout.Address, error) {
	if align == 0 {
		align = 1
	}
	if !abi.IsPowerOfTwo(align) {
		return nativelayout.Null, fmt.Errorf("alignment %d is not a power of two", align)
	}
	if size == 0 {
		size = 1
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for i, sp := range h.free {
		start := abi.AlignTo(uint64(h.base)+sp.off, align) - uint64(h.base)
		pad := start - sp.off
		if pad > sp.size || sp.size-pad < size {
			continue
		}

		tail := sp.size - pad - size
		repl := make([]span, 0, 2)
		if pad > 0 {
			repl = append(repl, span{off: sp.off, size: pad})
		}
		if tail > 0 {
			repl = append(repl, span{off: start + size, size: tail})
		}
		h.free = append(h.free[:i], append(repl, h.free[i+1:]...)...)
		h.inUse += size
		return h.base + nativelayout.Address(start), nil
	}
	return nativelayout.Null, fmt.Errorf("heap exhausted: %d bytes requested, %d in use of %d", size, h.inUse, h.Size())
}

// Free returns a block to the free list, merging it with adjacent free spans.
// size must be the size passed to Alloc.
func (h *Heap) Free(addr nativelayout.Address, size, _ uint64) {
	if size == 0 {
		size = 1
	}
	off, err := h.window(addr, size)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	i := sort.Search(len(h.free), func(i int) bool { return h.free[i].off >= off })
	h.free = append(h.free, span{})
	copy(h.free[i+1:], h.free[i:])
	h.free[i] = span{off: off, size: size}
	h.inUse -= size

	if i+1 < len(h.free) && h.free[i].off+h.free[i].size == h.free[i+1].off {
		h.free[i].size += h.free[i+1].size
		h.free = append(h.free[:i+1], h.free[i+2:]...)
	}
	if i > 0 && h.free[i-1].off+h.free[i-1].size == h.free[i].off {
		h.free[i-1].size += h.free[i].size
		h.free = append(h.free[:i], h.free[i+1:]...)
	}
}
