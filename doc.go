// Package nativelayout lets Go code read, write and allocate values that follow
// externally defined C ABI struct layouts.
//
// Struct layouts are described as data, computed once per target platform and
// shared. Accessors then operate on bounds-checked views over a raw memory store.
//
// # Architecture Overview
//
//	nativelayout/        Root package with Address, Memory and Allocator
//	├── abi/             Primitive type table and platform rules
//	├── layout/          Layout registry: field offsets, sizes, alignment
//	├── memory/          Heap and wasm linear memory stores, arenas, views
//	├── binding/         Typed struct accessors over views
//	├── invoke/          Function pointer invocation bridge
//	├── wgpu/            WebGPU descriptor struct tables
//	├── errors/          Structured error types
//	└── cmd/layoutdump/  Layout inspection CLI
//
// # Quick Start
//
//	reg := layout.NewRegistry(abi.LP64)
//	queue := reg.MustRegister("WGPUQueueDescriptor",
//	    layout.F("nextInChain", layout.Pointer()),
//	    layout.F("label", layout.Pointer()),
//	)
//
//	arena := memory.NewHeapArena(1 << 20)
//	defer arena.Close()
//
//	s := binding.New(queue)
//	v, err := s.Allocate(arena)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	label, _ := arena.AllocateCString("main queue")
//	err = s.SetByName(v, "label", label)
//
// # Memory Model
//
// An Arena owns every allocation made through it. Views borrow that memory and
// are poisoned when the arena closes; any access through a poisoned view fails
// with a use_after_free error instead of touching reused bytes.
//
// # Thread Safety
//
// Registries and computed layouts are immutable after registration and safe for
// concurrent use. Views are NOT safe for concurrent mutation: writes are raw byte
// stores with no atomicity across multi-byte fields. Arenas created with the
// Shared policy serialize allocation and teardown; Confined arenas must be driven
// by a single goroutine.
package nativelayout
