// Package invoke is the function-pointer invocation bridge.
//
// Struct fields of function-pointer type hold plain addresses. A Bridge maps
// such addresses to callable targets (Go functions or wasm guest exports run
// by wazero) and marshals arguments according to a Signature, so the unsafe
// boundary stays in one place instead of spreading across struct accessors.
//
//	bridge := invoke.NewBridge(abi.LP64)
//	addr, _ := bridge.RegisterFunc(lostSig, func(ctx context.Context, args []uint64) ([]uint64, error) {
//		...
//	})
//	desc.SetPointer(v, callbackField, addr)
//
//	fn, _ := desc.Pointer(v, callbackField)
//	_, err := bridge.Call(ctx, fn, lostSig, uint32(1), msg, nativelayout.Null)
//
// Addresses are synthetic: CodeBase plus a handle stride. They never alias
// data memory on any supported platform, and they fit in 32 bits.
package invoke
