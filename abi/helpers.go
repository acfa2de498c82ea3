package abi

import "math"

// AlignTo rounds offset up to a multiple of align. Align must be a power of two.
func AlignTo(offset, align uint64) uint64 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// IsPowerOfTwo reports whether n is a non-zero power of two.
func IsPowerOfTwo(n uint64) bool {
	return n != 0 && n&(n-1) == 0
}

func SafeMul(a, b uint64) (uint64, bool) {
	if b != 0 && a > math.MaxUint64/b {
		return 0, false
	}
	return a * b, true
}

func SafeAdd(a, b uint64) (uint64, bool) {
	if a > math.MaxUint64-b {
		return 0, false
	}
	return a + b, true
}

// FitsUnsigned reports whether v fits in size bytes.
func FitsUnsigned(v uint64, size uint64) bool {
	if size >= 8 {
		return true
	}
	return v < 1<<(8*size)
}

// FitsSigned reports whether v fits in size bytes as two's complement.
func FitsSigned(v int64, size uint64) bool {
	if size >= 8 {
		return true
	}
	bits := 8 * size
	lo := -(int64(1) << (bits - 1))
	hi := int64(1)<<(bits-1) - 1
	return v >= lo && v <= hi
}

// SignExtend interprets the low size bytes of v as a signed integer.
func SignExtend(v uint64, size uint64) int64 {
	if size >= 8 {
		return int64(v)
	}
	shift := 64 - 8*size
	return int64(v<<shift) >> shift
}

// Truncate keeps the low size bytes of v.
func Truncate(v uint64, size uint64) uint64 {
	if size >= 8 {
		return v
	}
	return v & (1<<(8*size) - 1)
}
