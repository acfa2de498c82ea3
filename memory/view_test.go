package memory

import (
	"encoding/binary"
	"testing"

	"github.com/wippyai/native-layout/errors"
)

func TestViewBounds(t *testing.T) {
	arena := NewHeapArena(128)
	defer arena.Close()
	v, _ := arena.Allocate(16, 8)

	tests := []struct {
		name    string
		off, n  uint64
		wantErr bool
	}{
		{"whole", 0, 16, false},
		{"tail", 12, 4, false},
		{"empty at end", 16, 0, false},
		{"past end", 13, 4, true},
		{"start past end", 17, 0, true},
		{"overflow", ^uint64(0), 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Slice(tt.off, tt.n)
			if tt.wantErr {
				if !errors.IsKind(err, errors.KindOutOfBounds) {
					t.Errorf("err = %v, want out_of_bounds", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestViewZeroValue(t *testing.T) {
	var v View
	if !v.IsZero() || v.Alive() || v.Arena() != nil {
		t.Error("zero view reports live state")
	}
	if _, err := v.Bytes(); !errors.IsKind(err, errors.KindInvalidArgument) {
		t.Errorf("err = %v, want invalid_argument", err)
	}
}

func TestViewUint(t *testing.T) {
	arena := NewHeapArena(64)
	defer arena.Close()
	v, _ := arena.Allocate(16, 8)

	orders := []binary.ByteOrder{binary.LittleEndian, binary.BigEndian}
	for _, order := range orders {
		t.Run(order.String(), func(t *testing.T) {
			for _, size := range []uint64{1, 2, 4, 8} {
				want := uint64(0x0102030405060708) & (1<<(size*8) - 1)
				if size == 8 {
					want = 0x0102030405060708
				}
				if err := v.PutUint(0, size, want, order); err != nil {
					t.Fatalf("PutUint(%d): %v", size, err)
				}
				got, err := v.Uint(0, size, order)
				if err != nil || got != want {
					t.Errorf("Uint(%d) = %#x, %v; want %#x", size, got, err, want)
				}
			}
		})
	}

	if err := v.PutUint(0, 3, 1, binary.LittleEndian); !errors.IsKind(err, errors.KindInvalidArgument) {
		t.Errorf("width 3: %v", err)
	}
	if err := v.PutUint(12, 8, 1, binary.LittleEndian); !errors.IsKind(err, errors.KindOutOfBounds) {
		t.Errorf("out of range store: %v", err)
	}
}

func TestViewEndianness(t *testing.T) {
	arena := NewHeapArena(64)
	defer arena.Close()
	v, _ := arena.Allocate(4, 4)

	_ = v.PutUint(0, 4, 0x11223344, binary.BigEndian)
	b, _ := v.Bytes()
	if b[0] != 0x11 || b[3] != 0x44 {
		t.Errorf("big-endian bytes = % x", b)
	}
	_ = v.PutUint(0, 4, 0x11223344, binary.LittleEndian)
	b, _ = v.Bytes()
	if b[0] != 0x44 || b[3] != 0x11 {
		t.Errorf("little-endian bytes = % x", b)
	}
}

func TestViewCopyFrom(t *testing.T) {
	arena := NewHeapArena(128)
	defer arena.Close()

	src, _ := arena.AllocateBytes([]byte{1, 2, 3, 4, 5, 6, 7, 8}, 1)
	dst, _ := arena.Allocate(8, 1)
	if err := dst.CopyFrom(src); err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	got, _ := dst.Bytes()
	if got[0] != 1 || got[7] != 8 {
		t.Errorf("copied = %v", got)
	}

	short, _ := arena.Allocate(4, 1)
	if err := short.CopyFrom(src); !errors.IsKind(err, errors.KindInvalidArgument) {
		t.Errorf("length mismatch: %v", err)
	}

	// Overlapping copy shifts bytes right by two.
	a, _ := src.Slice(0, 6)
	b, _ := src.Slice(2, 6)
	if err := b.CopyFrom(a); err != nil {
		t.Fatalf("overlap: %v", err)
	}
	got, _ = src.Bytes()
	want := []byte{1, 2, 1, 2, 3, 4, 5, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("overlap copy = %v, want %v", got, want)
		}
	}
}

func TestViewZeroAndWrite(t *testing.T) {
	arena := NewHeapArena(64)
	defer arena.Close()
	v, _ := arena.AllocateBytes([]byte{9, 9, 9, 9}, 1)

	if err := v.Zero(); err != nil {
		t.Fatal(err)
	}
	if err := v.WriteAt([]byte{7}, 2); err != nil {
		t.Fatal(err)
	}
	p := make([]byte, 4)
	if err := v.ReadAt(p, 0); err != nil {
		t.Fatal(err)
	}
	if p[0] != 0 || p[2] != 7 {
		t.Errorf("bytes = %v", p)
	}
	if err := v.WriteAt([]byte{1, 2}, 3); !errors.IsKind(err, errors.KindOutOfBounds) {
		t.Errorf("write past end: %v", err)
	}
}

func TestViewSliceSharesLifetime(t *testing.T) {
	arena := NewHeapArena(64)
	v, _ := arena.Allocate(8, 1)
	sub, _ := v.Slice(2, 4)
	if sub.Address() != v.Address().Add(2) || sub.Arena() != arena {
		t.Errorf("sub = %s", sub.Address())
	}
	_ = arena.Close()
	if err := sub.Check(0, 1); !errors.IsKind(err, errors.KindUseAfterFree) {
		t.Errorf("err = %v, want use_after_free", err)
	}
}
