// Package memory provides memory stores, arenas and bounds-checked views.
//
// # Stores
//
// Two nativelayout.Memory implementations are provided:
//
//	Heap     - a simulated native address space backed by a Go byte slice,
//	           with a first-fit allocator. Address 0 is never handed out.
//	Linear   - a wazero api.Memory (wasm linear memory), paired with either a
//	           BumpAllocator (host side, grows pages) or a ReallocAllocator
//	           (the guest's cabi_realloc export).
//
// # Arenas
//
// An Arena owns the allocations made through it and releases them all at
// Close. Externally obtained memory can be imported with Reinterpret, which
// registers a release callback that runs exactly once: at Close, or earlier if
// the view is released explicitly.
//
//	arena := memory.NewHeapArena(64 << 10, memory.WithName("frame"))
//	defer arena.Close()
//
//	v, err := arena.Allocate(72, 8)
//
// # Views
//
// A View is a non-owning (address, length) window bound to its arena's
// lifetime. Every access validates [offset, offset+size) against the view's
// length, and fails with use_after_free once the arena is closed. Views are
// small values and are passed by value.
//
// # Thread Safety
//
// Arenas created with the Shared policy serialize Allocate, Reinterpret,
// Release and Close. Confined arenas do no locking and must be driven by one
// goroutine. Views never synchronize byte access.
package memory
