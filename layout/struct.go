package layout

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wippyai/native-layout/abi"
	"github.com/wippyai/native-layout/errors"
)

// FieldLayout is a field with its computed position.
type FieldLayout struct {
	// Nested is the embedded struct layout for struct fields and arrays of structs.
	Nested *Struct
	Name   string
	Type   Type
	Index  int
	Offset uint64
	Size   uint64
	Align  uint64
	// ElemSize is the element stride for arrays.
	ElemSize uint64
}

// End returns the offset one past the field's last byte.
func (f FieldLayout) End() uint64 {
	return f.Offset + f.Size
}

// Struct is an immutable computed layout.
type Struct struct {
	index    map[string]int
	Name     string
	Platform abi.Platform
	Fields   []FieldLayout
	Size     uint64
	Align    uint64
}

// Field returns the named field.
func (s *Struct) Field(name string) (FieldLayout, bool) {
	i, ok := s.index[name]
	if !ok {
		return FieldLayout{}, false
	}
	return s.Fields[i], true
}

// Offset returns the byte offset of the named field.
func (s *Struct) Offset(name string) (uint64, error) {
	f, ok := s.Field(name)
	if !ok {
		return 0, errors.FieldUnknown(errors.PhaseAccess, []string{s.Name}, name)
	}
	return f.Offset, nil
}

// Verify checks the layout against an expected total size and field offsets,
// typically the values a header-driven generator emitted for the native library.
func (s *Struct) Verify(size uint64, offsets map[string]uint64) error {
	if s.Size != size {
		return errors.InvalidLayout([]string{s.Name}, "size %d, expected %d", s.Size, size)
	}
	names := make([]string, 0, len(offsets))
	for name := range offsets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f, ok := s.Field(name)
		if !ok {
			return errors.FieldUnknown(errors.PhaseRegister, []string{s.Name}, name)
		}
		if f.Offset != offsets[name] {
			return errors.InvalidLayout([]string{s.Name, name}, "offset %d, expected %d", f.Offset, offsets[name])
		}
	}
	return nil
}

// String renders the layout canonically. Two layouts with equal strings are
// byte-for-byte compatible.
func (s *Struct) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s]{", s.Name, s.Platform.Name)
	for i, f := range s.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %s @%d:%d", f.Type.String(), f.Name, f.Offset, f.Size)
	}
	fmt.Fprintf(&b, "} size=%d align=%d", s.Size, s.Align)
	return b.String()
}

// Equal reports whether two layouts describe the same bytes.
func (s *Struct) Equal(o *Struct) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil {
		return false
	}
	return s.String() == o.String()
}
