package wgpu

import (
	"context"
	"reflect"
	"testing"

	"github.com/tetratelabs/wazero"

	nativelayout "github.com/wippyai/native-layout"
	"github.com/wippyai/native-layout/abi"
	nlerrors "github.com/wippyai/native-layout/errors"
	"github.com/wippyai/native-layout/internal/wasmfixture"
	"github.com/wippyai/native-layout/invoke"
	"github.com/wippyai/native-layout/layout"
	"github.com/wippyai/native-layout/memory"
)

func register(t *testing.T, p abi.Platform) *Bindings {
	t.Helper()
	b, err := Register(layout.NewRegistry(p))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return b
}

func TestLayouts(t *testing.T) {
	tests := []struct {
		name    string
		p       abi.Platform
		get     func(*Bindings) *layout.Struct
		size    uint64
		offsets map[string]uint64
	}{
		{"device lp64", abi.LP64, func(b *Bindings) *layout.Struct { return b.Device.Layout() }, 72, map[string]uint64{
			"nextInChain": 0, "label": 8, "requiredFeatureCount": 16, "requiredFeatures": 24,
			"requiredLimits": 32, "defaultQueue": 40, "deviceLostCallback": 56, "deviceLostUserdata": 64,
		}},
		{"device wasm32", abi.Wasm32, func(b *Bindings) *layout.Struct { return b.Device.Layout() }, 36, map[string]uint64{
			"nextInChain": 0, "label": 4, "requiredFeatureCount": 8, "requiredFeatures": 12,
			"requiredLimits": 16, "defaultQueue": 20, "deviceLostCallback": 28, "deviceLostUserdata": 32,
		}},
		{"queue lp64", abi.LP64, func(b *Bindings) *layout.Struct { return b.Queue.Layout() }, 16, map[string]uint64{
			"nextInChain": 0, "label": 8,
		}},
		{"limits lp64", abi.LP64, func(b *Bindings) *layout.Struct { return b.Limits.Layout() }, 144, map[string]uint64{
			"maxTextureDimension1D": 0, "maxUniformBuffersPerShaderStage": 52,
			"maxUniformBufferBindingSize": 56, "maxStorageBufferBindingSize": 64,
			"minUniformBufferOffsetAlignment": 72, "maxVertexBuffers": 80, "maxBufferSize": 88,
			"maxVertexAttributes": 96, "maxComputeWorkgroupsPerDimension": 140,
		}},
		{"required limits lp64", abi.LP64, func(b *Bindings) *layout.Struct { return b.RequiredLimits.Layout() }, 152, map[string]uint64{
			"nextInChain": 0, "limits": 8,
		}},
		{"required limits wasm32", abi.Wasm32, func(b *Bindings) *layout.Struct { return b.RequiredLimits.Layout() }, 152, map[string]uint64{
			"nextInChain": 0, "limits": 8,
		}},
		{"chained lp64", abi.LP64, func(b *Bindings) *layout.Struct { return b.Chained.Layout() }, 16, map[string]uint64{
			"next": 0, "sType": 8,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := tt.get(register(t, tt.p))
			if err := l.Verify(tt.size, tt.offsets); err != nil {
				t.Errorf("Verify: %v\n%s", err, l)
			}
		})
	}
}

func TestRegisterTwice(t *testing.T) {
	reg := layout.NewRegistry(abi.LP64)
	first, err := Register(reg)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	second, err := Register(reg)
	if err != nil {
		t.Fatalf("second Register: %v", err)
	}
	if first.Device.Layout() != second.Device.Layout() {
		t.Error("identical registration should reuse the cached layout")
	}
}

func TestRegisterConflict(t *testing.T) {
	reg := layout.NewRegistry(abi.LP64)
	reg.MustRegister(QueueDescriptorName, layout.F("label", layout.Pointer()))
	if _, err := Register(reg); !nlerrors.IsKind(err, nlerrors.KindInvalidLayout) {
		t.Errorf("Register = %v, want invalid_layout", err)
	}
}

func sampleLimits() *Limits {
	return &Limits{
		MaxTextureDimension1D:            8192,
		MaxTextureDimension2D:            8192,
		MaxBindGroups:                    4,
		MaxUniformBufferBindingSize:      64 << 10,
		MaxStorageBufferBindingSize:      128 << 20,
		MinUniformBufferOffsetAlignment:  256,
		MaxBufferSize:                    1 << 32,
		MaxComputeWorkgroupsPerDimension: 65535,
	}
}

func TestWriteRead(t *testing.T) {
	for _, p := range []abi.Platform{abi.LP64, abi.LLP64, abi.ILP32, abi.Wasm32} {
		t.Run(p.Name, func(t *testing.T) {
			b := register(t, p)
			arena := memory.NewHeapArena(1 << 16)
			defer arena.Close()

			want := &DeviceDescriptor{
				Label:              "primary device",
				RequiredFeatures:   []FeatureName{FeatureDepthClipControl, FeatureTimestampQuery, FeatureShaderF16},
				RequiredLimits:     sampleLimits(),
				DefaultQueue:       QueueDescriptor{Label: "queue"},
				DeviceLostCallback: invoke.CodeBase,
				DeviceLostUserdata: 0x40,
			}
			v, err := b.Write(arena, want)
			if err != nil {
				t.Fatalf("Write: %v", err)
			}
			if v.Len() != b.Device.SizeOf() {
				t.Errorf("view length = %d, want %d", v.Len(), b.Device.SizeOf())
			}

			got, err := b.Read(v)
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Read = %+v\nwant %+v", got, want)
			}

			n, _ := b.Device.Uint(v, b.featureCount)
			if n != 3 {
				t.Errorf("requiredFeatureCount = %d, want 3", n)
			}
		})
	}
}

func TestReadRepeatedly(t *testing.T) {
	b := register(t, abi.LP64)
	arena := memory.NewHeapArena(1 << 14)
	defer arena.Close()

	v, err := b.Write(arena, &DeviceDescriptor{
		Label:            "device",
		RequiredFeatures: []FeatureName{FeatureShaderF16},
		RequiredLimits:   sampleLimits(),
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	segs := arena.Segments()
	for i := 0; i < 1000; i++ {
		if _, err := b.Read(v); err != nil {
			t.Fatalf("Read %d: %v", i, err)
		}
	}
	if arena.Segments() != segs {
		t.Errorf("Segments = %d after 1000 reads, want %d", arena.Segments(), segs)
	}
}

func TestWriteEmpty(t *testing.T) {
	b := register(t, abi.LP64)
	arena := memory.NewHeapArena(4096)
	defer arena.Close()

	v, err := b.Write(arena, &DeviceDescriptor{})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	for _, name := range []string{"label", "requiredFeatures", "requiredLimits", "deviceLostCallback"} {
		addr, err := b.Device.Pointer(v, b.Device.MustField(name))
		if err != nil || !addr.IsNull() {
			t.Errorf("%s = %v, %v; want null", name, addr, err)
		}
	}
	got, err := b.Read(v)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(got, &DeviceDescriptor{}) {
		t.Errorf("Read = %+v, want zero", got)
	}
}

func TestReadSequenceMismatch(t *testing.T) {
	b := register(t, abi.LP64)
	arena := memory.NewHeapArena(4096)
	defer arena.Close()

	v, _ := b.Write(arena, &DeviceDescriptor{})
	if err := b.Device.SetUint(v, b.featureCount, 2); err != nil {
		t.Fatalf("SetUint: %v", err)
	}
	if _, err := b.Read(v); !nlerrors.IsKind(err, nlerrors.KindSequenceMismatch) {
		t.Errorf("Read = %v, want sequence_mismatch", err)
	}
}

func TestReadAfterClose(t *testing.T) {
	b := register(t, abi.LP64)
	arena := memory.NewHeapArena(4096)
	v, _ := b.Write(arena, &DeviceDescriptor{Label: "gone"})
	arena.Close()

	if _, err := b.Read(v); !nlerrors.IsKind(err, nlerrors.KindUseAfterFree) {
		t.Errorf("Read = %v, want use_after_free", err)
	}
}

func TestFireDeviceLost(t *testing.T) {
	ctx := context.Background()
	b := register(t, abi.LP64)
	arena := memory.NewHeapArena(4096)
	defer arena.Close()

	bridge := invoke.NewBridge(abi.LP64)
	defer bridge.Close()

	var (
		gotReason   DeviceLostReason
		gotMessage  string
		gotUserdata nativelayout.Address
	)
	cb, err := bridge.RegisterFunc(DeviceLostCallback, func(_ context.Context, args []uint64) ([]uint64, error) {
		gotReason = DeviceLostReason(args[0])
		gotUserdata = nativelayout.Address(args[2])
		msg, err := arena.ReadCString(nativelayout.Address(args[1]), 256)
		gotMessage = msg
		return nil, err
	})
	if err != nil {
		t.Fatalf("RegisterFunc: %v", err)
	}

	t.Run("no callback", func(t *testing.T) {
		v, _ := b.Write(arena, &DeviceDescriptor{})
		fired, err := b.FireDeviceLost(ctx, bridge, v, DeviceLostDestroyed, "bye")
		if fired || err != nil {
			t.Errorf("FireDeviceLost = %v, %v; want false, nil", fired, err)
		}
	})

	t.Run("go target", func(t *testing.T) {
		v, _ := b.Write(arena, &DeviceDescriptor{DeviceLostCallback: cb, DeviceLostUserdata: 0xBEEF})
		fired, err := b.FireDeviceLost(ctx, bridge, v, DeviceLostDestroyed, "device destroyed")
		if !fired || err != nil {
			t.Fatalf("FireDeviceLost = %v, %v", fired, err)
		}
		if gotReason != DeviceLostDestroyed || gotMessage != "device destroyed" || gotUserdata != 0xBEEF {
			t.Errorf("callback got (%d, %q, %v)", gotReason, gotMessage, gotUserdata)
		}
	})

	t.Run("unknown callback", func(t *testing.T) {
		v, _ := b.Write(arena, &DeviceDescriptor{DeviceLostCallback: invoke.CodeBase + 0x800})
		fired, err := b.FireDeviceLost(ctx, bridge, v, DeviceLostDestroyed, "x")
		if !fired || !nlerrors.IsKind(err, nlerrors.KindNotFound) {
			t.Errorf("FireDeviceLost = %v, %v; want true, not_found", fired, err)
		}
	})
}

// The descriptor lives in guest memory and the callback is a guest export.
func TestFireDeviceLostWasm(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)
	mod, err := r.Instantiate(ctx, wasmfixture.Guest())
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}

	b := register(t, abi.Wasm32)
	mem := mod.Memory()
	arena := memory.NewArena(memory.NewLinear(mem), memory.NewReallocAllocator(ctx, mod.ExportedFunction("cabi_realloc")))
	defer arena.Close()

	bridge := invoke.NewBridge(abi.Wasm32)
	defer bridge.Close()
	cb, err := bridge.RegisterWasm(DeviceLostCallback, mod.ExportedFunction("store_u32"))
	if err != nil {
		t.Fatalf("RegisterWasm: %v", err)
	}

	slot, err := arena.Allocate(4, 4)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	v, err := b.Write(arena, &DeviceDescriptor{
		Label:              "guest",
		RequiredLimits:     sampleLimits(),
		DeviceLostCallback: cb,
		DeviceLostUserdata: slot.Address(),
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if uint64(v.Address()) < wasmfixture.HeapStart {
		t.Errorf("descriptor at %v, want guest heap", v.Address())
	}

	fired, err := b.FireDeviceLost(ctx, bridge, v, DeviceLostDestroyed, "lost")
	if !fired || err != nil {
		t.Fatalf("FireDeviceLost = %v, %v", fired, err)
	}
	if got, _ := mem.ReadUint32Le(uint32(slot.Address())); got != uint32(DeviceLostDestroyed) {
		t.Errorf("guest slot = %d, want %d", got, DeviceLostDestroyed)
	}

	got, err := b.Read(v)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Label != "guest" || *got.RequiredLimits != *sampleLimits() {
		t.Errorf("Read = %+v", got)
	}
}
