// Package layout computes C ABI struct layouts from declarative field lists.
//
// A struct is described as an ordered list of fields. Compute walks the fields in
// declaration order, pads the running offset up to each field's alignment,
// records the offset and advances by the field's size. The total size is padded
// to the struct's maximum member alignment.
//
// # Layout Rules
//
//   - Scalars: size and alignment from the target abi.Platform
//   - Pointers and function pointers: platform pointer width, stored as addresses
//   - Nested structs: embedded by value, size and alignment of the nested layout
//   - Arrays: element size times length, element alignment
//
// # Registration Order
//
// Nested structs must be registered before the structs that embed them. A
// reference to an unregistered struct fails with an unresolved_type error;
// pointers to unregistered structs are fine because the pointee is opaque.
//
// # Usage
//
//	reg := layout.NewRegistry(abi.LP64)
//	chained := reg.MustRegister("WGPUChainedStruct",
//	    layout.F("next", layout.PointerTo("WGPUChainedStruct")),
//	    layout.F("sType", layout.Scalar(abi.Uint32)),
//	)
//	// chained.Size == 16, chained.Align == 8
//
// Computed layouts are immutable and safe to share between goroutines.
package layout
