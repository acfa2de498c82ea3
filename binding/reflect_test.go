package binding

import (
	"testing"

	nativelayout "github.com/wippyai/native-layout"
	"github.com/wippyai/native-layout/abi"
	nlerrors "github.com/wippyai/native-layout/errors"
	"github.com/wippyai/native-layout/memory"
)

type pairValue struct {
	A uint32
	B uint32
}

type mixedValue struct {
	Flag   bool
	I8     int8
	I16    int16
	U32    uint32
	F64    float64
	Long   int64
	Ptr    nativelayout.Address
	Fn     uintptr
	Pair   pairValue
	Arr    [3]uint16
	Pairs  []pairValue
	Size   uint64 `native:"-"`
	Ignore string
}

func TestMarshalUnmarshal(t *testing.T) {
	s := MustBind(newRegistry(t, abi.LP64), "Mixed")
	arena := memory.NewHeapArena(1024)
	defer arena.Close()
	v, _ := s.Allocate(arena)

	in := mixedValue{
		Flag:  true,
		I8:    -3,
		I16:   300,
		U32:   7,
		F64:   2.5,
		Long:  -9,
		Ptr:   0x1000,
		Fn:    0x2000,
		Pair:  pairValue{A: 1, B: 2},
		Arr:   [3]uint16{4, 5, 6},
		Pairs: []pairValue{{A: 7, B: 8}, {A: 9, B: 10}},
		Size:  99,
	}
	if err := s.Marshal(v, &in); err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	if got, _ := s.GetByName(v, "size"); got != uint64(0) {
		t.Errorf("excluded field written: %v", got)
	}
	pair, _ := s.Nested(v, s.MustField("pair"))
	if b, _ := s.MustField("pair").Binding().GetByName(pair, "b"); b != uint32(2) {
		t.Errorf("pair.b = %v", b)
	}

	var out mixedValue
	if err := s.Unmarshal(v, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	in.Size = 0
	if out.Flag != in.Flag || out.I8 != in.I8 || out.I16 != in.I16 || out.U32 != in.U32 ||
		out.F64 != in.F64 || out.Long != in.Long || out.Ptr != in.Ptr || out.Fn != in.Fn ||
		out.Pair != in.Pair || out.Arr != in.Arr || out.Size != 0 {
		t.Errorf("round trip:\n got %+v\nwant %+v", out, in)
	}
	if len(out.Pairs) != 2 || out.Pairs[1] != in.Pairs[1] {
		t.Errorf("pairs = %+v", out.Pairs)
	}
}

func TestMarshalErrors(t *testing.T) {
	s := MustBind(newRegistry(t, abi.LP64), "Mixed")
	arena := memory.NewHeapArena(1024)
	defer arena.Close()
	v, _ := s.Allocate(arena)

	if err := s.Marshal(v, 5); !nlerrors.IsKind(err, nlerrors.KindTypeMismatch) {
		t.Errorf("Marshal(int) = %v", err)
	}
	if err := s.Unmarshal(v, mixedValue{}); !nlerrors.IsKind(err, nlerrors.KindTypeMismatch) {
		t.Errorf("Unmarshal(non-pointer) = %v", err)
	}
	if err := s.Marshal(v, struct{ I8 int }{I8: 1000}); !nlerrors.IsKind(err, nlerrors.KindOverflow) {
		t.Errorf("Marshal overflow = %v", err)
	}
	if err := s.Marshal(v, struct{ Arr [4]uint16 }{}); !nlerrors.IsKind(err, nlerrors.KindOverflow) {
		t.Errorf("Marshal long array = %v", err)
	}

	_ = s.SetByName(v, "u32", uint32(70000))
	var small struct{ U32 uint16 }
	if err := s.Unmarshal(v, &small); !nlerrors.IsKind(err, nlerrors.KindOverflow) {
		t.Errorf("Unmarshal overflow = %v", err)
	}
	var wrong struct{ U32 string }
	if err := s.Unmarshal(v, &wrong); !nlerrors.IsKind(err, nlerrors.KindTypeMismatch) {
		t.Errorf("Unmarshal into string = %v", err)
	}

	short, _ := v.Slice(0, 8)
	if err := s.Marshal(short, mixedValue{}); !nlerrors.IsKind(err, nlerrors.KindOutOfBounds) {
		t.Errorf("Marshal short view = %v", err)
	}
}

func TestEncodeDecode(t *testing.T) {
	raw, err := Encode(abi.Wasm32, abi.Int32, -1)
	if err != nil || raw != 0xFFFFFFFF {
		t.Errorf("Encode(-1) = %#x, %v", raw, err)
	}
	if got := Decode(abi.Wasm32, abi.Int32, 0xFFFFFFFF); got != int32(-1) {
		t.Errorf("Decode = %v", got)
	}
	if got := Decode(abi.LP64, abi.Pointer, 0x10); got != nativelayout.Address(0x10) {
		t.Errorf("Decode pointer = %v", got)
	}
	if _, err := Encode(abi.LP64, abi.Struct, 1); !nlerrors.IsKind(err, nlerrors.KindInvalidArgument) {
		t.Errorf("Encode struct = %v", err)
	}
	if Decode(abi.LP64, abi.Array, 0) != nil {
		t.Error("Decode array should be nil")
	}
}

type mixedPointers struct {
	U32   uint32
	Pair  *pairValue
	Pairs []*pairValue
}

func TestMarshalNilPointers(t *testing.T) {
	s := MustBind(newRegistry(t, abi.LP64), "Mixed")
	arena := memory.NewHeapArena(1024)
	defer arena.Close()
	v, _ := s.Allocate(arena)

	if err := s.Marshal(v, mixedValue{Pair: pairValue{A: 1, B: 2}, Pairs: []pairValue{{A: 3, B: 4}}}); err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	in := mixedPointers{U32: 7, Pairs: []*pairValue{nil, {A: 5, B: 6}}}
	if err := s.Marshal(v, in); err != nil {
		t.Fatalf("Marshal with nil pointers: %v", err)
	}

	var out mixedPointers
	if err := s.Unmarshal(v, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.U32 != 7 {
		t.Errorf("u32 = %d, want 7", out.U32)
	}
	if out.Pair == nil || *out.Pair != (pairValue{A: 1, B: 2}) {
		t.Errorf("pair = %+v, want untouched {1 2}", out.Pair)
	}
	if len(out.Pairs) != 2 || out.Pairs[0] == nil || out.Pairs[1] == nil {
		t.Fatalf("pairs = %+v", out.Pairs)
	}
	if *out.Pairs[0] != (pairValue{A: 3, B: 4}) || *out.Pairs[1] != (pairValue{A: 5, B: 6}) {
		t.Errorf("pairs = %+v, %+v", *out.Pairs[0], *out.Pairs[1])
	}

	if err := s.Marshal(v, struct{ Pair *int }{Pair: new(int)}); !nlerrors.IsKind(err, nlerrors.KindTypeMismatch) {
		t.Errorf("Marshal *int into struct field = %v, want type_mismatch", err)
	}
}
