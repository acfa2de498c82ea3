// Package errors provides structured error types for the native-layout library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: struct/field path, Go/C type names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseAccess, errors.KindTypeMismatch).
//		Path("WGPUDeviceDescriptor", "requiredFeatureCount").
//		GoType("string").
//		CType("size_t").
//		Detail("cannot store string in integer field").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.OutOfBounds(errors.PhaseAccess, path, 40, 16, 32)
//	err := errors.UnresolvedType(path, "WGPUQueueDescriptor")
//
// All errors implement the standard error interface and support errors.Is/As.
// The Err* sentinels match any error of the same kind:
//
//	if errors.Is(err, nlerrors.ErrUseAfterFree) { ... }
package errors
