package invoke

import (
	"context"

	"github.com/tetratelabs/wazero/api"
)

// Target executes a native function on raw argument words. Integers are
// zero-extended to 64 bits, floats are passed as IEEE bits and addresses as
// their numeric value, matching wazero's api.Function calling convention.
type Target interface {
	Call(ctx context.Context, args []uint64) ([]uint64, error)
}

// TargetFunc adapts a Go function to Target.
type TargetFunc func(ctx context.Context, args []uint64) ([]uint64, error)

// Call calls f.
func (f TargetFunc) Call(ctx context.Context, args []uint64) ([]uint64, error) {
	return f(ctx, args)
}

// WasmTarget calls an exported or host function through wazero.
type WasmTarget struct {
	Fn api.Function
}

// Call invokes the function with args.
func (t WasmTarget) Call(ctx context.Context, args []uint64) ([]uint64, error) {
	return t.Fn.Call(ctx, args...)
}
