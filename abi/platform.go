package abi

import (
	"encoding/binary"
	"runtime"
	"strings"
	"unsafe"
)

// Info is the size and alignment of a type, in bytes.
type Info struct {
	Size  uint64
	Align uint64
}

// Platform holds the type-width rules of a target ABI.
type Platform struct {
	ByteOrder   binary.ByteOrder
	Name        string
	PointerSize uint64
	LongSize    uint64
	SizeTSize   uint64
	// Int64Align is the alignment of 64-bit integers and doubles. Zero means natural.
	Int64Align uint64
}

var (
	// LP64 is Linux, macOS and BSD on 64-bit targets.
	LP64 = Platform{Name: "lp64", ByteOrder: binary.LittleEndian, PointerSize: 8, LongSize: 8, SizeTSize: 8}

	// LLP64 is 64-bit Windows, where long stays 4 bytes.
	LLP64 = Platform{Name: "llp64", ByteOrder: binary.LittleEndian, PointerSize: 8, LongSize: 4, SizeTSize: 8}

	// ILP32 is the i386 System V ABI.
	ILP32 = Platform{Name: "ilp32", ByteOrder: binary.LittleEndian, PointerSize: 4, LongSize: 4, SizeTSize: 4, Int64Align: 4}

	// Wasm32 is clang's wasm32 target, used for structs that live in wasm linear memory.
	Wasm32 = Platform{Name: "wasm32", ByteOrder: binary.LittleEndian, PointerSize: 4, LongSize: 4, SizeTSize: 4}
)

var platforms = []Platform{LP64, LLP64, ILP32, Wasm32}

// Host returns the platform the current process runs on.
func Host() Platform {
	var p Platform
	switch {
	case unsafe.Sizeof(uintptr(0)) == 4:
		p = ILP32
		if runtime.GOARCH != "386" {
			p.Int64Align = 0
		}
	case runtime.GOOS == "windows":
		p = LLP64
	default:
		p = LP64
	}
	p.Name = "host"
	p.ByteOrder = binary.NativeEndian
	return p
}

// PlatformByName looks up a predefined platform; "host" resolves to Host().
func PlatformByName(name string) (Platform, bool) {
	name = strings.ToLower(name)
	if name == "host" {
		return Host(), true
	}
	for _, p := range platforms {
		if p.Name == name {
			return p, true
		}
	}
	return Platform{}, false
}

// Info returns the size and alignment of a scalar kind. Composite kinds report false.
func (p Platform) Info(k Kind) (Info, bool) {
	var size uint64
	switch k {
	case Bool, Int8, Uint8:
		size = 1
	case Int16, Uint16:
		size = 2
	case Int32, Uint32, Float32:
		size = 4
	case Int64, Uint64, Float64:
		size = 8
		if p.Int64Align != 0 {
			return Info{Size: 8, Align: p.Int64Align}, true
		}
	case Long, ULong:
		size = p.LongSize
	case SizeT:
		size = p.SizeTSize
	case Pointer, FuncPtr:
		size = p.PointerSize
	default:
		return Info{}, false
	}
	return Info{Size: size, Align: size}, true
}

// MaxAddress is the largest address a pointer field can hold on p.
func (p Platform) MaxAddress() uint64 {
	if p.PointerSize >= 8 {
		return ^uint64(0)
	}
	return 1<<(8*p.PointerSize) - 1
}

// Order returns the platform byte order, defaulting to native order.
func (p Platform) Order() binary.ByteOrder {
	if p.ByteOrder == nil {
		return binary.NativeEndian
	}
	return p.ByteOrder
}

func (p Platform) String() string {
	return p.Name
}
