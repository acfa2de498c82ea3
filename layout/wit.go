package layout

import (
	"io"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/native-layout/abi"
	"github.com/wippyai/native-layout/errors"
)

// DecodeWITJSON reads a WIT resolve document (the JSON emitted by
// `wasm-tools component wit --json`) and registers its records.
func DecodeWITJSON(reg *Registry, r io.Reader) ([]*Struct, error) {
	res, err := wit.DecodeJSON(r)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidLayout, err, "decode WIT JSON")
	}
	return ImportWIT(reg, res)
}

// ImportWIT registers every named WIT record in res as a C struct, embedded
// records first. Strings, lists and handles become pointers; enums and flags
// become unsigned integers. Variants, options, results and tuples have no C
// struct equivalent and are rejected when a record uses them.
func ImportWIT(reg *Registry, res *wit.Resolve) ([]*Struct, error) {
	imp := &witImporter{
		reg:      reg,
		visiting: make(map[*wit.TypeDef]bool),
		done:     make(map[*wit.TypeDef]*Struct),
	}
	var out []*Struct
	for _, td := range res.TypeDefs {
		if _, ok := td.Kind.(*wit.Record); !ok {
			continue
		}
		s, err := imp.record(td)
		if err != nil {
			return out, err
		}
		out = append(out, s)
	}
	return out, nil
}

type witImporter struct {
	reg      *Registry
	visiting map[*wit.TypeDef]bool
	done     map[*wit.TypeDef]*Struct
}

func witName(td *wit.TypeDef) string {
	if td.Name != nil {
		return *td.Name
	}
	return ""
}

func (imp *witImporter) record(td *wit.TypeDef) (*Struct, error) {
	if s, ok := imp.done[td]; ok {
		return s, nil
	}
	name := witName(td)
	if name == "" {
		return nil, errors.InvalidLayout(nil, "anonymous WIT record")
	}
	if imp.visiting[td] {
		return nil, errors.UnresolvedType([]string{name}, name)
	}
	imp.visiting[td] = true
	defer delete(imp.visiting, td)

	rec := td.Kind.(*wit.Record)
	fields := make([]Field, 0, len(rec.Fields))
	for _, f := range rec.Fields {
		t, err := imp.fieldType(f.Type, []string{name, f.Name})
		if err != nil {
			return nil, err
		}
		fields = append(fields, F(f.Name, t))
	}

	s, err := imp.reg.Register(name, fields...)
	if err != nil {
		return nil, err
	}
	imp.done[td] = s
	return s, nil
}

func (imp *witImporter) fieldType(t wit.Type, path []string) (Type, error) {
	switch typ := t.(type) {
	case wit.Bool:
		return Scalar(abi.Bool), nil
	case wit.U8:
		return Scalar(abi.Uint8), nil
	case wit.S8:
		return Scalar(abi.Int8), nil
	case wit.U16:
		return Scalar(abi.Uint16), nil
	case wit.S16:
		return Scalar(abi.Int16), nil
	case wit.U32, wit.Char:
		return Scalar(abi.Uint32), nil
	case wit.S32:
		return Scalar(abi.Int32), nil
	case wit.U64:
		return Scalar(abi.Uint64), nil
	case wit.S64:
		return Scalar(abi.Int64), nil
	case wit.F32:
		return Scalar(abi.Float32), nil
	case wit.F64:
		return Scalar(abi.Float64), nil
	case wit.String:
		return PointerTo("char"), nil
	case *wit.TypeDef:
		return imp.typeDef(typ, path)
	default:
		return Type{}, errors.InvalidLayout(path, "unsupported WIT type %T", t)
	}
}

func (imp *witImporter) typeDef(td *wit.TypeDef, path []string) (Type, error) {
	switch kind := td.Kind.(type) {
	case *wit.Record:
		s, err := imp.record(td)
		if err != nil {
			return Type{}, err
		}
		return Nested(s.Name), nil
	case *wit.Enum:
		return Scalar(abi.Uint32), nil
	case *wit.Flags:
		if len(kind.Flags) > 32 {
			return Scalar(abi.Uint64), nil
		}
		return Scalar(abi.Uint32), nil
	case *wit.List:
		return Pointer(), nil
	case *wit.Own, *wit.Borrow:
		return PointerTo(witName(td)), nil
	case *wit.Variant, *wit.Option, *wit.Result, *wit.Tuple:
		return Type{}, errors.InvalidLayout(path, "WIT %T has no C struct layout", kind)
	case wit.Type:
		return imp.fieldType(kind, path)
	default:
		return Type{}, errors.InvalidLayout(path, "unsupported WIT type %T", kind)
	}
}
