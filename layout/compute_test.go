package layout

import (
	"errors"
	"testing"

	"github.com/wippyai/native-layout/abi"
	nlerrors "github.com/wippyai/native-layout/errors"
)

func deviceDescriptorFields() []Field {
	return []Field{
		F("nextInChain", PointerTo("WGPUChainedStruct")),
		F("label", PointerTo("char")),
		F("requiredFeatureCount", Scalar(abi.Uint64)),
		F("requiredFeatures", PointerTo("WGPUFeatureName")),
		F("requiredLimits", PointerTo("WGPURequiredLimits")),
		F("defaultQueue", Nested("WGPUQueueDescriptor")),
		F("deviceLostCallback", Func("WGPUDeviceLostCallback")),
		F("deviceLostUserdata", Pointer()),
	}
}

func newQueueRegistry(t *testing.T, p abi.Platform) *Registry {
	t.Helper()
	reg := NewRegistry(p)
	if _, err := reg.Register("WGPUQueueDescriptor",
		F("nextInChain", PointerTo("WGPUChainedStruct")),
		F("label", PointerTo("char")),
	); err != nil {
		t.Fatalf("register queue: %v", err)
	}
	return reg
}

func TestComputeDeviceDescriptor(t *testing.T) {
	reg := newQueueRegistry(t, abi.LP64)

	s, err := Compute("WGPUDeviceDescriptor", deviceDescriptorFields(), abi.LP64, reg)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	want := map[string]uint64{
		"nextInChain":          0,
		"label":                8,
		"requiredFeatureCount": 16,
		"requiredFeatures":     24,
		"requiredLimits":       32,
		"defaultQueue":         40,
		"deviceLostCallback":   56,
		"deviceLostUserdata":   64,
	}
	for name, off := range want {
		f, ok := s.Field(name)
		if !ok {
			t.Fatalf("field %s missing", name)
		}
		if f.Offset != off {
			t.Errorf("field %s offset: got %d, want %d", name, f.Offset, off)
		}
	}
	if s.Size != 72 {
		t.Errorf("size: got %d, want 72", s.Size)
	}
	if s.Align != 8 {
		t.Errorf("align: got %d, want 8", s.Align)
	}
	if err := s.Verify(72, want); err != nil {
		t.Errorf("Verify: %v", err)
	}

	queue, _ := s.Field("defaultQueue")
	if queue.Size != 16 || queue.Nested == nil || queue.Nested.Name != "WGPUQueueDescriptor" {
		t.Errorf("defaultQueue: %+v", queue)
	}
}

func TestComputeDeviceDescriptorWasm32(t *testing.T) {
	reg := newQueueRegistry(t, abi.Wasm32)
	s, err := Compute("WGPUDeviceDescriptor", deviceDescriptorFields(), abi.Wasm32, reg)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	// uint64 count forces 8-byte alignment after two 4-byte pointers.
	want := map[string]uint64{
		"nextInChain":          0,
		"label":                4,
		"requiredFeatureCount": 8,
		"requiredFeatures":     16,
		"requiredLimits":       20,
		"defaultQueue":         24,
		"deviceLostCallback":   32,
		"deviceLostUserdata":   36,
	}
	if err := s.Verify(40, want); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestComputeMixedAlignment(t *testing.T) {
	tests := []struct {
		name      string
		platform  abi.Platform
		fields    []Field
		offsets   []uint64
		wantSize  uint64
		wantAlign uint64
	}{
		{
			name:     "u8_u32_u8",
			platform: abi.LP64,
			fields: []Field{
				F("a", Scalar(abi.Uint8)),
				F("b", Scalar(abi.Uint32)),
				F("c", Scalar(abi.Uint8)),
			},
			offsets:   []uint64{0, 4, 8},
			wantSize:  12,
			wantAlign: 4,
		},
		{
			name:     "u8_u64",
			platform: abi.LP64,
			fields: []Field{
				F("a", Scalar(abi.Uint8)),
				F("b", Scalar(abi.Uint64)),
			},
			offsets:   []uint64{0, 8},
			wantSize:  16,
			wantAlign: 8,
		},
		{
			name:     "i386_u8_u64",
			platform: abi.ILP32,
			fields: []Field{
				F("a", Scalar(abi.Uint8)),
				F("b", Scalar(abi.Uint64)),
			},
			offsets:   []uint64{0, 4},
			wantSize:  12,
			wantAlign: 4,
		},
		{
			name:     "llp64_long",
			platform: abi.LLP64,
			fields: []Field{
				F("a", Scalar(abi.Long)),
				F("b", Pointer()),
			},
			offsets:   []uint64{0, 8},
			wantSize:  16,
			wantAlign: 8,
		},
		{
			name:     "array",
			platform: abi.LP64,
			fields: []Field{
				F("tag", Scalar(abi.Uint8)),
				F("values", ArrayOf(Scalar(abi.Uint16), 3)),
				F("ptr", Pointer()),
			},
			offsets:   []uint64{0, 2, 8},
			wantSize:  16,
			wantAlign: 8,
		},
		{
			name:      "empty",
			platform:  abi.LP64,
			fields:    nil,
			offsets:   nil,
			wantSize:  0,
			wantAlign: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Compute(tc.name, tc.fields, tc.platform, nil)
			if err != nil {
				t.Fatalf("Compute: %v", err)
			}
			for i, want := range tc.offsets {
				if s.Fields[i].Offset != want {
					t.Errorf("field %s offset: got %d, want %d", s.Fields[i].Name, s.Fields[i].Offset, want)
				}
			}
			if s.Size != tc.wantSize {
				t.Errorf("size: got %d, want %d", s.Size, tc.wantSize)
			}
			if s.Align != tc.wantAlign {
				t.Errorf("align: got %d, want %d", s.Align, tc.wantAlign)
			}
		})
	}
}

func TestComputeInvariants(t *testing.T) {
	reg := newQueueRegistry(t, abi.LP64)
	samples := [][]Field{
		deviceDescriptorFields(),
		{
			F("a", Scalar(abi.Bool)),
			F("b", Scalar(abi.Float64)),
			F("c", Scalar(abi.Int16)),
			F("d", ArrayOf(Scalar(abi.Uint8), 5)),
			F("e", Scalar(abi.Float32)),
			F("f", Nested("WGPUQueueDescriptor")),
			F("g", Scalar(abi.Uint8)),
		},
		{
			F("x", Scalar(abi.Uint8)),
			F("y", ArrayOf(Nested("WGPUQueueDescriptor"), 2)),
			F("z", Scalar(abi.Int32)),
		},
	}

	for i, fields := range samples {
		s1, err := Compute("sample", fields, abi.LP64, reg)
		if err != nil {
			t.Fatalf("sample %d: %v", i, err)
		}
		s2, err := Compute("sample", fields, abi.LP64, reg)
		if err != nil {
			t.Fatalf("sample %d: %v", i, err)
		}
		if !s1.Equal(s2) {
			t.Errorf("sample %d: non-deterministic layout:\n%s\n%s", i, s1, s2)
		}

		var prevEnd uint64
		for j, f := range s1.Fields {
			if f.Offset < prevEnd {
				t.Errorf("sample %d field %d overlaps previous field", i, j)
			}
			if f.Offset%f.Align != 0 {
				t.Errorf("sample %d field %s misaligned: offset %d align %d", i, f.Name, f.Offset, f.Align)
			}
			prevEnd = f.End()
		}
		if prevEnd > s1.Size {
			t.Errorf("sample %d: last field ends at %d past size %d", i, prevEnd, s1.Size)
		}
		if s1.Size%s1.Align != 0 {
			t.Errorf("sample %d: size %d not a multiple of align %d", i, s1.Size, s1.Align)
		}
	}
}

func TestComputeErrors(t *testing.T) {
	tests := []struct {
		name   string
		fields []Field
		want   error
	}{
		{
			name:   "duplicate_name",
			fields: []Field{F("a", Pointer()), F("a", Scalar(abi.Uint8))},
			want:   nlerrors.ErrInvalidLayout,
		},
		{
			name:   "unknown_kind",
			fields: []Field{F("a", Scalar(abi.Kind(99)))},
			want:   nlerrors.ErrInvalidLayout,
		},
		{
			name:   "invalid_kind",
			fields: []Field{F("a", Type{})},
			want:   nlerrors.ErrInvalidLayout,
		},
		{
			name:   "empty_name",
			fields: []Field{F("", Pointer())},
			want:   nlerrors.ErrInvalidLayout,
		},
		{
			name:   "unresolved_nested",
			fields: []Field{F("q", Nested("Missing"))},
			want:   nlerrors.ErrUnresolvedType,
		},
		{
			name:   "unresolved_array_elem",
			fields: []Field{F("q", ArrayOf(Nested("Missing"), 4))},
			want:   nlerrors.ErrUnresolvedType,
		},
		{
			name:   "array_without_elem",
			fields: []Field{F("q", Type{Kind: abi.Array, Len: 2})},
			want:   nlerrors.ErrInvalidLayout,
		},
	}

	reg := NewRegistry(abi.LP64)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compute("Bad", tc.fields, abi.LP64, reg)
			if !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestComputePlatformMismatch(t *testing.T) {
	reg := newQueueRegistry(t, abi.Wasm32)
	_, err := Compute("Outer", []Field{F("q", Nested("WGPUQueueDescriptor"))}, abi.LP64, reg)
	if !errors.Is(err, nlerrors.ErrInvalidLayout) {
		t.Errorf("got %v, want invalid_layout", err)
	}
}

func TestStructOffset(t *testing.T) {
	reg := newQueueRegistry(t, abi.LP64)
	q, _ := reg.Lookup("WGPUQueueDescriptor")

	off, err := q.Offset("label")
	if err != nil || off != 8 {
		t.Errorf("Offset(label) = %d, %v", off, err)
	}
	if _, err := q.Offset("nope"); !errors.Is(err, nlerrors.ErrFieldUnknown) {
		t.Errorf("Offset(nope) err = %v", err)
	}
}

func TestVerifyMismatch(t *testing.T) {
	reg := newQueueRegistry(t, abi.LP64)
	q, _ := reg.Lookup("WGPUQueueDescriptor")

	if err := q.Verify(24, nil); !errors.Is(err, nlerrors.ErrInvalidLayout) {
		t.Errorf("size mismatch: %v", err)
	}
	if err := q.Verify(16, map[string]uint64{"label": 4}); !errors.Is(err, nlerrors.ErrInvalidLayout) {
		t.Errorf("offset mismatch: %v", err)
	}
	if err := q.Verify(16, map[string]uint64{"extra": 0}); !errors.Is(err, nlerrors.ErrFieldUnknown) {
		t.Errorf("unknown field: %v", err)
	}
}

func TestStructString(t *testing.T) {
	reg := newQueueRegistry(t, abi.LP64)
	q, _ := reg.Lookup("WGPUQueueDescriptor")

	want := "WGPUQueueDescriptor[lp64]{WGPUChainedStruct* nextInChain @0:8, char* label @8:8} size=16 align=8"
	if got := q.String(); got != want {
		t.Errorf("String:\n got %s\nwant %s", got, want)
	}
}

func TestTypeString(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{Pointer(), "void*"},
		{PointerTo("char"), "char*"},
		{Func("cb"), "fn cb"},
		{Func(""), "fn"},
		{Nested("Q"), "struct Q"},
		{ArrayOf(Scalar(abi.Uint32), 4), "uint32[4]"},
		{Scalar(abi.SizeT), "size_t"},
	}
	for _, tc := range tests {
		if got := tc.typ.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}
