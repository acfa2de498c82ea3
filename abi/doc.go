// Package abi describes the primitive types of a target C ABI.
//
// A Platform maps abstract kinds (pointer, long, size_t, fixed-width integers,
// floats) to concrete sizes and alignments. Natural alignment applies: a scalar
// is aligned to its own size unless the platform says otherwise (i386 aligns
// 64-bit scalars to 4 bytes).
//
//	Kind            LP64    LLP64   ILP32   Wasm32
//	────────────────────────────────────────────────
//	pointer         8/8     8/8     4/4     4/4
//	long            8/8     4/4     4/4     4/4
//	size_t          8/8     8/8     4/4     4/4
//	int64/uint64    8/8     8/8     8/4     8/8
//	double          8/8     8/8     8/4     8/8
//
// Composite kinds (struct, array) have no entry here; their layout is computed by
// package layout from their members.
package abi
