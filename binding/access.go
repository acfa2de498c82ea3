package binding

import (
	"fmt"
	"math"

	nativelayout "github.com/wippyai/native-layout"
	"github.com/wippyai/native-layout/abi"
	"github.com/wippyai/native-layout/errors"
	"github.com/wippyai/native-layout/memory"
)

// check validates the field handle and that v spans the whole struct.
func (s *Struct) check(v memory.View, f *Field) error {
	if f == nil || f.owner != s {
		name := "<nil>"
		if f != nil {
			name = f.owner.Name() + "." + f.Name
		}
		return errors.InvalidArgument(errors.PhaseAccess, []string{s.Name()}, "field %s does not belong to %s", name, s.Name())
	}
	if err := v.Check(0, s.layout.Size); err != nil {
		return withPath(err, f.path())
	}
	return nil
}

func withPath(err error, path []string) error {
	if e, ok := err.(*errors.Error); ok && len(e.Path) == 0 {
		e.Path = path
	}
	return err
}

// Get reads a field. See the package documentation for the value mapping.
func (s *Struct) Get(v memory.View, f *Field) (any, error) {
	if err := s.check(v, f); err != nil {
		return nil, err
	}
	return s.load(v, f.Offset, f.Type.Kind, f.Size, f.path())
}

func (s *Struct) load(v memory.View, off uint64, kind abi.Kind, size uint64, path []string) (any, error) {
	if kind == abi.Struct || kind == abi.Array {
		sub, err := v.Slice(off, size)
		return sub, withPath(err, path)
	}
	raw, err := v.Uint(off, size, s.order)
	if err != nil {
		return nil, withPath(err, path)
	}
	return decode(kind, size, raw), nil
}

// Set writes a field. Nested struct and array fields copy the bytes of a
// memory.View of exactly the field size; the source is never aliased.
func (s *Struct) Set(v memory.View, f *Field, value any) error {
	if err := s.check(v, f); err != nil {
		return err
	}
	return s.store(v, f.Offset, f.Type.Kind, f.Size, value, f.path())
}

func (s *Struct) store(v memory.View, off uint64, kind abi.Kind, size uint64, value any, path []string) error {
	if kind == abi.Struct || kind == abi.Array {
		return s.copyInto(v, off, size, value, path)
	}
	raw, err := encodeScalar(s.layout.Platform, kind, size, value, path)
	if err != nil {
		return err
	}
	return withPath(v.PutUint(off, size, raw, s.order), path)
}

func (s *Struct) copyInto(v memory.View, off, size uint64, value any, path []string) error {
	dst, err := v.Slice(off, size)
	if err != nil {
		return withPath(err, path)
	}
	switch src := value.(type) {
	case memory.View:
		if src.Len() != size {
			return errors.InvalidArgument(errors.PhaseAccess, path, "source is %d bytes, field is %d", src.Len(), size)
		}
		return withPath(dst.CopyFrom(src), path)
	case []byte:
		if uint64(len(src)) != size {
			return errors.InvalidArgument(errors.PhaseAccess, path, "source is %d bytes, field is %d", len(src), size)
		}
		return withPath(dst.WriteAt(src, 0), path)
	}
	return errors.TypeMismatch(errors.PhaseAccess, path, typeName(value), "struct")
}

// GetByName reads the named field.
func (s *Struct) GetByName(v memory.View, name string) (any, error) {
	f, err := s.Field(name)
	if err != nil {
		return nil, err
	}
	return s.Get(v, f)
}

// SetByName writes the named field.
func (s *Struct) SetByName(v memory.View, name string, value any) error {
	f, err := s.Field(name)
	if err != nil {
		return err
	}
	return s.Set(v, f, value)
}

func (s *Struct) loadRaw(v memory.View, f *Field, accept func(abi.Kind) bool, want string) (uint64, error) {
	if err := s.check(v, f); err != nil {
		return 0, err
	}
	if !accept(f.Type.Kind) {
		return 0, errors.TypeMismatch(errors.PhaseAccess, f.path(), want, f.Type.String())
	}
	raw, err := v.Uint(f.Offset, f.Size, s.order)
	return raw, withPath(err, f.path())
}

// Uint reads an unsigned or signed integer field as its raw zero-extended bits.
func (s *Struct) Uint(v memory.View, f *Field) (uint64, error) {
	return s.loadRaw(v, f, abi.Kind.IsInteger, "uint64")
}

// Int reads an integer field sign-extended to int64. Unsigned fields are
// zero-extended and fail with overflow above math.MaxInt64.
func (s *Struct) Int(v memory.View, f *Field) (int64, error) {
	raw, err := s.loadRaw(v, f, abi.Kind.IsInteger, "int64")
	if err != nil {
		return 0, err
	}
	if f.Type.Kind.IsSigned() {
		return abi.SignExtend(raw, f.Size), nil
	}
	if raw > math.MaxInt64 {
		return 0, errors.Overflow(errors.PhaseAccess, f.path(), raw, "int64")
	}
	return int64(raw), nil
}

// Float reads a float or double field.
func (s *Struct) Float(v memory.View, f *Field) (float64, error) {
	raw, err := s.loadRaw(v, f, abi.Kind.IsFloat, "float64")
	if err != nil {
		return 0, err
	}
	if f.Type.Kind == abi.Float32 {
		return float64(math.Float32frombits(uint32(raw))), nil
	}
	return math.Float64frombits(raw), nil
}

// Bool reads a bool field. Any non-zero byte is true.
func (s *Struct) Bool(v memory.View, f *Field) (bool, error) {
	raw, err := s.loadRaw(v, f, func(k abi.Kind) bool { return k == abi.Bool }, "bool")
	return raw != 0, err
}

// Pointer reads a pointer or function pointer field. The pointee is not
// dereferenced; see Deref.
func (s *Struct) Pointer(v memory.View, f *Field) (nativelayout.Address, error) {
	raw, err := s.loadRaw(v, f, abi.Kind.IsAddress, "Address")
	return nativelayout.Address(raw), err
}

// Nested returns the bytes of an embedded struct or array field as a sub-view
// sharing v's lifetime.
func (s *Struct) Nested(v memory.View, f *Field) (memory.View, error) {
	if err := s.check(v, f); err != nil {
		return memory.View{}, err
	}
	if f.Type.Kind != abi.Struct && f.Type.Kind != abi.Array {
		return memory.View{}, errors.TypeMismatch(errors.PhaseAccess, f.path(), "memory.View", f.Type.String())
	}
	sub, err := v.Slice(f.Offset, f.Size)
	return sub, withPath(err, f.path())
}

// SetUint stores an unsigned value into an integer field, range-checked.
func (s *Struct) SetUint(v memory.View, f *Field, x uint64) error {
	return s.setKind(v, f, abi.Kind.IsInteger, x)
}

// SetInt stores a signed value into an integer field, range-checked.
func (s *Struct) SetInt(v memory.View, f *Field, x int64) error {
	return s.setKind(v, f, abi.Kind.IsInteger, x)
}

// SetFloat stores into a float or double field.
func (s *Struct) SetFloat(v memory.View, f *Field, x float64) error {
	return s.setKind(v, f, abi.Kind.IsFloat, x)
}

// SetBool stores into a bool field.
func (s *Struct) SetBool(v memory.View, f *Field, x bool) error {
	return s.setKind(v, f, func(k abi.Kind) bool { return k == abi.Bool }, x)
}

// SetPointer stores an address into a pointer or function pointer field.
func (s *Struct) SetPointer(v memory.View, f *Field, addr nativelayout.Address) error {
	return s.setKind(v, f, abi.Kind.IsAddress, addr)
}

// SetNested copies src into an embedded struct or array field.
func (s *Struct) SetNested(v memory.View, f *Field, src memory.View) error {
	return s.setKind(v, f, func(k abi.Kind) bool { return k == abi.Struct || k == abi.Array }, src)
}

func (s *Struct) setKind(v memory.View, f *Field, accept func(abi.Kind) bool, value any) error {
	if err := s.check(v, f); err != nil {
		return err
	}
	if !accept(f.Type.Kind) {
		return errors.TypeMismatch(errors.PhaseAccess, f.path(), typeName(value), f.Type.String())
	}
	return s.store(v, f.Offset, f.Type.Kind, f.Size, value, f.path())
}

// Element returns element i of an inline array field as a sub-view.
func (s *Struct) Element(v memory.View, f *Field, i int) (memory.View, error) {
	off, err := s.elementOffset(v, f, i)
	if err != nil {
		return memory.View{}, err
	}
	sub, err := v.Slice(off, f.ElemSize)
	return sub, withPath(err, f.path())
}

// GetElement reads element i of an inline array field.
func (s *Struct) GetElement(v memory.View, f *Field, i int) (any, error) {
	off, err := s.elementOffset(v, f, i)
	if err != nil {
		return nil, err
	}
	elem := f.Type.Elem
	return s.load(v, off, elem.Kind, f.ElemSize, f.path())
}

// SetElement writes element i of an inline array field.
func (s *Struct) SetElement(v memory.View, f *Field, i int, value any) error {
	off, err := s.elementOffset(v, f, i)
	if err != nil {
		return err
	}
	return s.store(v, off, f.Type.Elem.Kind, f.ElemSize, value, f.path())
}

func (s *Struct) elementOffset(v memory.View, f *Field, i int) (uint64, error) {
	if err := s.check(v, f); err != nil {
		return 0, err
	}
	if f.Type.Kind != abi.Array {
		return 0, errors.TypeMismatch(errors.PhaseAccess, f.path(), "array", f.Type.String())
	}
	if i < 0 || uint64(i) >= f.Type.Len {
		return 0, errors.OutOfBounds(errors.PhaseAccess, f.path(), uint64(max(i, 0)), 1, f.Type.Len)
	}
	return f.Offset + uint64(i)*f.ElemSize, nil
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
