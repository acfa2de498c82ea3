package invoke

import (
	"context"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	nativelayout "github.com/wippyai/native-layout"
	"github.com/wippyai/native-layout/abi"
	"github.com/wippyai/native-layout/binding"
	"github.com/wippyai/native-layout/errors"
)

const (
	// CodeBase is the first synthetic function address.
	CodeBase nativelayout.Address = 0xC0DE0000
	// stride separates consecutive function addresses.
	stride = 16
	// maxHandles keeps every address inside 32 bits.
	maxHandles = (1<<32 - uint64(CodeBase)) / stride
)

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger overrides the package logger for one bridge.
func WithLogger(l *zap.Logger) Option {
	return func(b *Bridge) { b.log = l }
}

// Bridge is a table of callable targets addressed like function pointers.
type Bridge struct {
	log      *zap.Logger
	entries  []entry
	freeList []uint64
	platform abi.Platform
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	target Target
	sig    Signature
	valid  bool
}

// NewBridge creates a bridge marshaling values for platform p.
func NewBridge(p abi.Platform, opts ...Option) *Bridge {
	b := &Bridge{
		platform: p,
		entries:  make([]entry, 0, 16),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.log == nil {
		b.log = Logger()
	}
	return b
}

// Platform returns the bridge's target platform.
func (b *Bridge) Platform() abi.Platform {
	return b.platform
}

// Register installs target under a fresh address.
func (b *Bridge) Register(sig Signature, target Target) (nativelayout.Address, error) {
	if target == nil {
		return nativelayout.Null, errors.InvalidArgument(errors.PhaseRegister, []string{sig.Name}, "nil target")
	}
	if !sig.validate() {
		return nativelayout.Null, errors.InvalidArgument(errors.PhaseRegister, []string{sig.Name},
			"signature %s has non-scalar kinds", sig)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nativelayout.Null, errors.Closed(errors.PhaseRegister, "bridge")
	}

	e := entry{target: target, sig: sig, valid: true}
	var handle uint64
	if n := len(b.freeList); n > 0 {
		handle = b.freeList[n-1]
		b.freeList = b.freeList[:n-1]
		b.entries[handle] = e
	} else {
		if uint64(len(b.entries)) >= maxHandles {
			return nativelayout.Null, errors.AllocationFailed(stride, stride, fmt.Errorf("bridge table full"))
		}
		handle = uint64(len(b.entries))
		b.entries = append(b.entries, e)
	}

	addr := CodeBase + nativelayout.Address(handle*stride)
	b.log.Debug("register", zap.String("signature", sig.String()), zap.Stringer("addr", addr))
	return addr, nil
}

// RegisterFunc installs a Go function.
func (b *Bridge) RegisterFunc(sig Signature, fn TargetFunc) (nativelayout.Address, error) {
	if fn == nil {
		return b.Register(sig, nil)
	}
	return b.Register(sig, fn)
}

// RegisterWasm installs a wazero function after checking that sig lowers to
// its wasm parameter and result types.
func (b *Bridge) RegisterWasm(sig Signature, fn api.Function) (nativelayout.Address, error) {
	if fn == nil {
		return b.Register(sig, nil)
	}
	def := fn.Definition()
	if !sig.lowers(b.platform, def.ParamTypes(), def.ResultTypes()) {
		return nativelayout.Null, errors.New(errors.PhaseRegister, errors.KindSignatureMismatch).
			Path(sig.Name).
			Detail("%s does not lower to wasm function %s", sig, def.DebugName()).
			Build()
	}
	return b.Register(sig, WasmTarget{Fn: fn})
}

func (b *Bridge) lookup(addr nativelayout.Address) (entry, bool) {
	if addr < CodeBase || (addr-CodeBase)%stride != 0 {
		return entry{}, false
	}
	handle := uint64(addr-CodeBase) / stride

	b.mu.RLock()
	defer b.mu.RUnlock()

	if handle >= uint64(len(b.entries)) || !b.entries[handle].valid {
		return entry{}, false
	}
	return b.entries[handle], true
}

// Lookup returns the signature registered at addr.
func (b *Bridge) Lookup(addr nativelayout.Address) (Signature, bool) {
	e, ok := b.lookup(addr)
	return e.sig, ok
}

// Unregister removes the target at addr. The address may be reused.
func (b *Bridge) Unregister(addr nativelayout.Address) error {
	if _, ok := b.lookup(addr); !ok {
		return errors.NotFound(errors.PhaseRegister, fmt.Sprintf("no function at %s", addr))
	}
	handle := uint64(addr-CodeBase) / stride

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.entries[handle].valid {
		return errors.NotFound(errors.PhaseRegister, fmt.Sprintf("no function at %s", addr))
	}
	b.entries[handle] = entry{}
	b.freeList = append(b.freeList, handle)
	b.log.Debug("unregister", zap.Stringer("addr", addr))
	return nil
}

// Len returns the number of registered targets.
func (b *Bridge) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries) - len(b.freeList)
}

// Close drops every target. Later calls fail with closed.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.entries = nil
	b.freeList = nil
	return nil
}

// Call invokes the function at addr. sig is the signature the caller expects
// and must match the registered one. Arguments are coerced like struct field
// values; results are decoded to the Go types of their kinds.
func (b *Bridge) Call(ctx context.Context, addr nativelayout.Address, sig Signature, args ...any) ([]any, error) {
	if len(args) != len(sig.Params) {
		return nil, errors.New(errors.PhaseInvoke, errors.KindSignatureMismatch).
			Path(sig.Name).
			Detail("%d arguments for %s", len(args), sig).
			Build()
	}
	raw := make([]uint64, len(args))
	for i, arg := range args {
		v, err := binding.Encode(b.platform, sig.Params[i], arg)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseInvoke, errors.KindInvalidArgument, err,
				fmt.Sprintf("argument %d of %s", i, sig))
		}
		raw[i] = v
	}

	res, err := b.CallRaw(ctx, addr, sig, raw)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(res))
	for i, r := range res {
		out[i] = binding.Decode(b.platform, sig.Results[i], r)
	}
	return out, nil
}

// CallRaw invokes the function at addr on raw argument words.
func (b *Bridge) CallRaw(ctx context.Context, addr nativelayout.Address, sig Signature, args []uint64) (res []uint64, err error) {
	if addr.IsNull() {
		return nil, errors.InvalidArgument(errors.PhaseInvoke, []string{sig.Name}, "call through null function pointer")
	}

	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return nil, errors.Closed(errors.PhaseInvoke, "bridge")
	}

	e, ok := b.lookup(addr)
	if !ok {
		return nil, errors.NotFound(errors.PhaseInvoke, fmt.Sprintf("no function at %s", addr))
	}
	if !e.sig.Equal(sig) {
		return nil, errors.New(errors.PhaseInvoke, errors.KindSignatureMismatch).
			Path(sig.Name).
			Detail("called as %s, registered as %s", sig, e.sig).
			Build()
	}

	defer func() {
		if r := recover(); r != nil {
			b.log.Debug("target panicked", zap.Stringer("addr", addr), zap.Any("panic", r))
			res, err = nil, errors.New(errors.PhaseInvoke, errors.KindCallFailed).
				Path(sig.Name).
				Value(r).
				Detail("target panicked: %v", r).
				Build()
		}
	}()

	res, err = e.target.Call(ctx, args)
	if err != nil {
		b.log.Debug("call failed", zap.Stringer("addr", addr), zap.Error(err))
		return nil, errors.Wrap(errors.PhaseInvoke, errors.KindCallFailed, err, "call "+sig.String())
	}
	if len(res) != len(sig.Results) {
		return nil, errors.New(errors.PhaseInvoke, errors.KindSignatureMismatch).
			Path(sig.Name).
			Detail("target returned %d results, %s declares %d", len(res), sig, len(sig.Results)).
			Build()
	}
	return res, nil
}
