// Package binding provides typed access to C structs stored in arena memory.
//
// A Struct binds a computed layout.Struct to accessors. Field handles are
// resolved once and reused on hot paths:
//
//	desc := binding.New(layout)
//	label := desc.MustField("label")
//
//	v, err := desc.Allocate(arena)
//	err = desc.Set(v, label, cstr)          // memory.View or Address
//	addr, err := desc.Pointer(v, label)
//
// Every accessor checks that the view spans the whole struct before touching
// memory, so a view shorter than the layout fails with out_of_bounds even for
// fields that would fit. Views from a closed arena fail with use_after_free.
//
// # Value mapping
//
//	bool                   bool
//	int8..int64, long      int8..int64 (long decodes as int64)
//	uint8..uint64          uint8..uint64 (unsigned long and size_t decode as uint64)
//	float, double          float32, float64
//	pointer, fn pointer    nativelayout.Address
//	struct, array          memory.View over the field bytes
//
// Set accepts any Go integer for integer fields and range-checks it against the
// field width. Pointer fields accept an Address, a memory.View (its address),
// a uintptr or nil.
package binding
