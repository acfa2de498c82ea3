package layout

import (
	"github.com/wippyai/native-layout/abi"
	"github.com/wippyai/native-layout/errors"
)

// Resolver finds previously computed struct layouts by name.
type Resolver interface {
	Lookup(name string) (*Struct, bool)
}

// Compute lays out fields in declaration order for platform p. The result
// depends only on its inputs.
func Compute(name string, fields []Field, p abi.Platform, resolve Resolver) (*Struct, error) {
	s := &Struct{
		Name:     name,
		Platform: p,
		Fields:   make([]FieldLayout, 0, len(fields)),
		index:    make(map[string]int, len(fields)),
	}

	offset := uint64(0)
	maxAlign := uint64(1)

	for i, field := range fields {
		path := []string{name, field.Name}
		if field.Name == "" {
			return nil, errors.InvalidLayout([]string{name}, "field %d has no name", i)
		}
		if _, dup := s.index[field.Name]; dup {
			return nil, errors.InvalidLayout(path, "duplicate field name %q", field.Name)
		}

		fl, err := fieldInfo(field.Type, p, resolve, path)
		if err != nil {
			return nil, err
		}

		offset = abi.AlignTo(offset, fl.Align)
		fl.Name = field.Name
		fl.Type = field.Type
		fl.Index = i
		fl.Offset = offset

		if fl.Align > maxAlign {
			maxAlign = fl.Align
		}

		next, ok := abi.SafeAdd(offset, fl.Size)
		if !ok {
			return nil, errors.InvalidLayout(path, "struct size overflows")
		}
		offset = next

		s.index[field.Name] = i
		s.Fields = append(s.Fields, fl)
	}

	s.Size = abi.AlignTo(offset, maxAlign)
	s.Align = maxAlign
	return s, nil
}

func fieldInfo(t Type, p abi.Platform, resolve Resolver, path []string) (FieldLayout, error) {
	switch t.Kind {
	case abi.Struct:
		if t.Name == "" {
			return FieldLayout{}, errors.InvalidLayout(path, "nested struct without a name")
		}
		var nested *Struct
		ok := false
		if resolve != nil {
			nested, ok = resolve.Lookup(t.Name)
		}
		if !ok {
			return FieldLayout{}, errors.UnresolvedType(path, t.Name)
		}
		if nested.Platform.Name != p.Name {
			return FieldLayout{}, errors.InvalidLayout(path, "nested struct %s computed for %s, not %s",
				t.Name, nested.Platform.Name, p.Name)
		}
		return FieldLayout{Size: nested.Size, Align: nested.Align, Nested: nested}, nil

	case abi.Array:
		if t.Elem == nil {
			return FieldLayout{}, errors.InvalidLayout(path, "array without element type")
		}
		elem, err := fieldInfo(*t.Elem, p, resolve, path)
		if err != nil {
			return FieldLayout{}, err
		}
		size, ok := abi.SafeMul(elem.Size, t.Len)
		if !ok {
			return FieldLayout{}, errors.InvalidLayout(path, "array size overflows")
		}
		return FieldLayout{Size: size, Align: elem.Align, ElemSize: elem.Size, Nested: elem.Nested}, nil

	default:
		info, ok := p.Info(t.Kind)
		if !ok {
			return FieldLayout{}, errors.InvalidLayout(path, "unknown field type %s", t.Kind)
		}
		return FieldLayout{Size: info.Size, Align: info.Align}, nil
	}
}
