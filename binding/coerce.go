package binding

import (
	"math"

	nativelayout "github.com/wippyai/native-layout"
	"github.com/wippyai/native-layout/abi"
	"github.com/wippyai/native-layout/errors"
	"github.com/wippyai/native-layout/memory"
)

// integer normalizes a Go integer. For negative values neg is true and v holds
// the two's complement bits.
func integer(value any) (v uint64, neg bool, ok bool) {
	switch x := value.(type) {
	case int:
		return uint64(x), x < 0, true
	case int8:
		return uint64(x), x < 0, true
	case int16:
		return uint64(x), x < 0, true
	case int32:
		return uint64(x), x < 0, true
	case int64:
		return uint64(x), x < 0, true
	case uint:
		return uint64(x), false, true
	case uint8:
		return uint64(x), false, true
	case uint16:
		return uint64(x), false, true
	case uint32:
		return uint64(x), false, true
	case uint64:
		return x, false, true
	case uintptr:
		return uint64(x), false, true
	case float64:
		// JSON-decoded numbers
		if x == math.Trunc(x) && x >= math.MinInt64 && x < math.MaxUint64 {
			if x < 0 {
				return uint64(int64(x)), true, true
			}
			return uint64(x), false, true
		}
	}
	return 0, false, false
}

func encodeInt(kind abi.Kind, size uint64, value any, path []string) (uint64, error) {
	v, neg, ok := integer(value)
	if !ok {
		return 0, errors.TypeMismatch(errors.PhaseAccess, path, typeName(value), kind.String())
	}
	if kind.IsSigned() {
		if !neg && v > math.MaxInt64 {
			return 0, errors.Overflow(errors.PhaseAccess, path, value, kind.String())
		}
		if !abi.FitsSigned(int64(v), size) {
			return 0, errors.Overflow(errors.PhaseAccess, path, value, kind.String())
		}
		return abi.Truncate(v, size), nil
	}
	if neg || !abi.FitsUnsigned(v, size) {
		return 0, errors.Overflow(errors.PhaseAccess, path, value, kind.String())
	}
	return v, nil
}

func encodeFloat(kind abi.Kind, value any, path []string) (uint64, error) {
	var f float64
	switch x := value.(type) {
	case float32:
		if kind == abi.Float32 {
			return uint64(math.Float32bits(x)), nil
		}
		f = float64(x)
	case float64:
		f = x
	default:
		return 0, errors.TypeMismatch(errors.PhaseAccess, path, typeName(value), kind.String())
	}
	if kind == abi.Float64 {
		return math.Float64bits(f), nil
	}
	if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
		return 0, errors.Overflow(errors.PhaseAccess, path, value, kind.String())
	}
	return uint64(math.Float32bits(float32(f))), nil
}

func encodeAddress(p abi.Platform, kind abi.Kind, value any, path []string) (uint64, error) {
	var v uint64
	switch x := value.(type) {
	case nil:
	case nativelayout.Address:
		v = uint64(x)
	case memory.View:
		if !x.IsZero() {
			v = uint64(x.Address())
		}
	case uintptr:
		v = uint64(x)
	default:
		return 0, errors.TypeMismatch(errors.PhaseAccess, path, typeName(value), kind.String())
	}
	if v > p.MaxAddress() {
		return 0, errors.Overflow(errors.PhaseAccess, path, nativelayout.Address(v), p.Name+" "+kind.String())
	}
	return v, nil
}

func encodeBool(value any, path []string) (uint64, error) {
	b, ok := value.(bool)
	if !ok {
		return 0, errors.TypeMismatch(errors.PhaseAccess, path, typeName(value), "bool")
	}
	if b {
		return 1, nil
	}
	return 0, nil
}

// Encode converts a Go value to the raw bits of a scalar of kind k on p, with
// the same coercion and range checks as Struct.Set.
func Encode(p abi.Platform, k abi.Kind, value any) (uint64, error) {
	info, ok := p.Info(k)
	if !ok {
		return 0, errors.InvalidArgument(errors.PhaseAccess, nil, "%s is not a scalar kind", k)
	}
	return encodeScalar(p, k, info.Size, value, nil)
}

// Decode converts the low bytes of raw to the Go value for scalar kind k on p.
func Decode(p abi.Platform, k abi.Kind, raw uint64) any {
	info, ok := p.Info(k)
	if !ok {
		return nil
	}
	return decode(k, info.Size, abi.Truncate(raw, info.Size))
}

func encodeScalar(p abi.Platform, kind abi.Kind, size uint64, value any, path []string) (uint64, error) {
	switch {
	case kind == abi.Bool:
		return encodeBool(value, path)
	case kind.IsInteger():
		return encodeInt(kind, size, value, path)
	case kind.IsFloat():
		return encodeFloat(kind, value, path)
	case kind.IsAddress():
		return encodeAddress(p, kind, value, path)
	}
	return 0, errors.InvalidLayout(path, "field of kind %s cannot be stored", kind)
}

// decode converts raw field bits to the Go value for kind.
func decode(kind abi.Kind, size, raw uint64) any {
	switch kind {
	case abi.Bool:
		return raw != 0
	case abi.Int8:
		return int8(raw)
	case abi.Int16:
		return int16(raw)
	case abi.Int32:
		return int32(raw)
	case abi.Int64:
		return int64(raw)
	case abi.Long:
		return abi.SignExtend(raw, size)
	case abi.Uint8:
		return uint8(raw)
	case abi.Uint16:
		return uint16(raw)
	case abi.Uint32:
		return uint32(raw)
	case abi.Uint64, abi.ULong, abi.SizeT:
		return raw
	case abi.Float32:
		return math.Float32frombits(uint32(raw))
	case abi.Float64:
		return math.Float64frombits(raw)
	case abi.Pointer, abi.FuncPtr:
		return nativelayout.Address(raw)
	}
	return nil
}
