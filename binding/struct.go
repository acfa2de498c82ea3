package binding

import (
	"encoding/binary"

	"github.com/wippyai/native-layout/abi"
	"github.com/wippyai/native-layout/errors"
	"github.com/wippyai/native-layout/layout"
)

// Struct is the accessor engine for one struct layout.
type Struct struct {
	layout *layout.Struct
	order  binary.ByteOrder
	index  map[string]*Field
	fields []*Field
}

// Field is a resolved field handle.
type Field struct {
	owner *Struct
	// nested is the binding of the embedded struct, or of the element struct
	// for arrays of structs.
	nested *Struct
	layout.FieldLayout
}

// Struct returns the binding the field belongs to.
func (f *Field) Struct() *Struct {
	return f.owner
}

// Binding returns the binding of an embedded struct field or of the element
// struct of an array field. It is nil for scalar fields.
func (f *Field) Binding() *Struct {
	return f.nested
}

func (f *Field) path() []string {
	return []string{f.owner.layout.Name, f.Name}
}

// New binds a computed layout. Nested layouts are bound recursively.
func New(l *layout.Struct) *Struct {
	return bind(l, make(map[*layout.Struct]*Struct))
}

func bind(l *layout.Struct, seen map[*layout.Struct]*Struct) *Struct {
	if s, ok := seen[l]; ok {
		return s
	}
	s := &Struct{
		layout: l,
		order:  l.Platform.Order(),
		index:  make(map[string]*Field, len(l.Fields)),
		fields: make([]*Field, len(l.Fields)),
	}
	seen[l] = s
	for i, fl := range l.Fields {
		f := &Field{owner: s, FieldLayout: fl}
		if fl.Nested != nil {
			f.nested = bind(fl.Nested, seen)
		}
		s.fields[i] = f
		s.index[fl.Name] = f
	}
	return s
}

// Bind looks up name in reg and binds it.
func Bind(reg *layout.Registry, name string) (*Struct, error) {
	l, ok := reg.Lookup(name)
	if !ok {
		return nil, errors.UnresolvedType(nil, name)
	}
	return New(l), nil
}

// MustBind is like Bind but panics on error.
func MustBind(reg *layout.Registry, name string) *Struct {
	s, err := Bind(reg, name)
	if err != nil {
		panic(err)
	}
	return s
}

// Layout returns the underlying layout.
func (s *Struct) Layout() *layout.Struct {
	return s.layout
}

// Name returns the struct name.
func (s *Struct) Name() string {
	return s.layout.Name
}

// Platform returns the platform the layout was computed for.
func (s *Struct) Platform() abi.Platform {
	return s.layout.Platform
}

// SizeOf returns the struct size including trailing padding.
func (s *Struct) SizeOf() uint64 {
	return s.layout.Size
}

// AlignOf returns the struct alignment.
func (s *Struct) AlignOf() uint64 {
	return s.layout.Align
}

// OffsetOf returns the byte offset of the named field.
func (s *Struct) OffsetOf(name string) (uint64, error) {
	return s.layout.Offset(name)
}

// Field returns the handle of the named field.
func (s *Struct) Field(name string) (*Field, error) {
	f, ok := s.index[name]
	if !ok {
		return nil, errors.FieldUnknown(errors.PhaseAccess, []string{s.layout.Name}, name)
	}
	return f, nil
}

// MustField is like Field but panics on error.
func (s *Struct) MustField(name string) *Field {
	f, err := s.Field(name)
	if err != nil {
		panic(err)
	}
	return f
}

// Fields returns the field handles in declaration order.
func (s *Struct) Fields() []*Field {
	out := make([]*Field, len(s.fields))
	copy(out, s.fields)
	return out
}
