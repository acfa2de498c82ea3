package binding

import (
	"reflect"
	"strings"
	"unicode"

	nativelayout "github.com/wippyai/native-layout"
	"github.com/wippyai/native-layout/abi"
	"github.com/wippyai/native-layout/errors"
	"github.com/wippyai/native-layout/memory"
)

var addressType = reflect.TypeOf(nativelayout.Address(0))

// Marshal stores the fields of the Go struct src into v. Each native field is
// matched to a Go field by `native:"name"` tag, then case-insensitively, then
// by kebab-case name. Native fields without a Go counterpart are left as is,
// and so are nested fields whose Go value is a nil pointer. Nested structs
// recurse, and Go arrays fill inline array fields.
func (s *Struct) Marshal(v memory.View, src any) error {
	rv := reflect.Indirect(reflect.ValueOf(src))
	if rv.Kind() != reflect.Struct {
		return errors.TypeMismatch(errors.PhaseAccess, []string{s.Name()}, typeName(src), "struct "+s.Name())
	}
	if err := v.Check(0, s.layout.Size); err != nil {
		return withPath(err, []string{s.Name()})
	}
	return s.marshal(v, rv)
}

func (s *Struct) marshal(v memory.View, rv reflect.Value) error {
	for _, f := range s.fields {
		gf, ok := findGoField(rv.Type(), f.Name)
		if !ok {
			continue
		}
		fv := rv.FieldByIndex(gf.Index)

		switch f.Type.Kind {
		case abi.Struct:
			sub, err := s.Nested(v, f)
			if err != nil {
				return err
			}
			if err := f.nested.marshalNested(sub, fv, f.path()); err != nil {
				return err
			}
		case abi.Array:
			if fv.Kind() != reflect.Array && fv.Kind() != reflect.Slice {
				return errors.TypeMismatch(errors.PhaseAccess, f.path(), fv.Type().String(), f.Type.String())
			}
			if uint64(fv.Len()) > f.Type.Len {
				return errors.Overflow(errors.PhaseAccess, f.path(), fv.Len(), f.Type.String())
			}
			for i := 0; i < fv.Len(); i++ {
				if err := s.marshalElement(v, f, i, fv.Index(i)); err != nil {
					return err
				}
			}
		default:
			if err := s.Set(v, f, scalarValue(fv)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Struct) marshalElement(v memory.View, f *Field, i int, ev reflect.Value) error {
	if f.Type.Elem.Kind == abi.Struct {
		sub, err := s.Element(v, f, i)
		if err != nil {
			return err
		}
		return f.nested.marshalNested(sub, ev, f.path())
	}
	return s.SetElement(v, f, i, scalarValue(ev))
}

// marshalNested stores a Go struct or struct pointer into the nested view sub.
// A nil pointer leaves sub untouched.
func (s *Struct) marshalNested(sub memory.View, fv reflect.Value, path []string) error {
	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			return nil
		}
		fv = fv.Elem()
	}
	if fv.Kind() != reflect.Struct {
		return errors.TypeMismatch(errors.PhaseAccess, path, fv.Type().String(), "struct "+s.Name())
	}
	return s.marshal(sub, fv)
}

// scalarValue unwraps named Go types to their underlying kinds so that, for
// example, a `type FeatureName uint32` value stores like a uint32.
func scalarValue(rv reflect.Value) any {
	if rv.Type() == addressType {
		return rv.Interface()
	}
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.Uintptr:
		return uintptr(rv.Uint())
	case reflect.Float32:
		return float32(rv.Float())
	case reflect.Float64:
		return rv.Float()
	}
	return rv.Interface()
}

// Unmarshal loads v into the Go struct pointed to by dst, matching fields as
// Marshal does. Go fields without a native counterpart are left as is.
func (s *Struct) Unmarshal(v memory.View, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return errors.TypeMismatch(errors.PhaseAccess, []string{s.Name()}, typeName(dst), "*struct")
	}
	if err := v.Check(0, s.layout.Size); err != nil {
		return withPath(err, []string{s.Name()})
	}
	return s.unmarshal(v, rv.Elem())
}

func (s *Struct) unmarshal(v memory.View, rv reflect.Value) error {
	for _, f := range s.fields {
		gf, ok := findGoField(rv.Type(), f.Name)
		if !ok {
			continue
		}
		fv := rv.FieldByIndex(gf.Index)

		switch f.Type.Kind {
		case abi.Struct:
			sub, err := s.Nested(v, f)
			if err != nil {
				return err
			}
			if err := f.nested.unmarshalNested(sub, fv, f.path()); err != nil {
				return err
			}
		case abi.Array:
			n := int(f.Type.Len)
			switch fv.Kind() {
			case reflect.Slice:
				fv.Set(reflect.MakeSlice(fv.Type(), n, n))
			case reflect.Array:
				n = min(n, fv.Len())
			default:
				return errors.TypeMismatch(errors.PhaseAccess, f.path(), fv.Type().String(), f.Type.String())
			}
			for i := 0; i < n; i++ {
				if err := s.unmarshalElement(v, f, i, fv.Index(i)); err != nil {
					return err
				}
			}
		default:
			val, err := s.Get(v, f)
			if err != nil {
				return err
			}
			if err := assign(fv, val, f.path()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Struct) unmarshalElement(v memory.View, f *Field, i int, ev reflect.Value) error {
	if f.Type.Elem.Kind == abi.Struct {
		sub, err := s.Element(v, f, i)
		if err != nil {
			return err
		}
		return f.nested.unmarshalNested(sub, ev, f.path())
	}
	val, err := s.GetElement(v, f, i)
	if err != nil {
		return err
	}
	return assign(ev, val, f.path())
}

// unmarshalNested loads sub into a Go struct or struct pointer, allocating
// the pointee of a nil pointer.
func (s *Struct) unmarshalNested(sub memory.View, fv reflect.Value, path []string) error {
	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			fv.Set(reflect.New(fv.Type().Elem()))
		}
		fv = fv.Elem()
	}
	if fv.Kind() != reflect.Struct {
		return errors.TypeMismatch(errors.PhaseAccess, path, fv.Type().String(), "struct "+s.Name())
	}
	return s.unmarshal(sub, fv)
}

func assign(fv reflect.Value, val any, path []string) error {
	rv := reflect.ValueOf(val)
	if class(fv.Kind()) == 0 || class(fv.Kind()) != class(rv.Kind()) || !rv.Type().ConvertibleTo(fv.Type()) {
		return errors.TypeMismatch(errors.PhaseAccess, path, fv.Type().String(), rv.Type().String())
	}
	if overflows(fv, rv) {
		return errors.Overflow(errors.PhaseAccess, path, val, fv.Type().String())
	}
	fv.Set(rv.Convert(fv.Type()))
	return nil
}

func class(k reflect.Kind) int {
	switch k {
	case reflect.Bool:
		return 1
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return 2
	case reflect.Float32, reflect.Float64:
		return 3
	}
	return 0
}

// overflows reports whether rv does not fit the integer type of fv.
func overflows(fv, rv reflect.Value) bool {
	switch fv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return fv.OverflowInt(rv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return rv.Uint() > 1<<63-1 || fv.OverflowInt(int64(rv.Uint()))
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return rv.Int() < 0 || fv.OverflowUint(uint64(rv.Int()))
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return fv.OverflowUint(rv.Uint())
		}
	}
	return false
}

// findGoField matches by: 1) native:"name" tag, 2) case-insensitive, 3) kebab-to-camel.
// A native:"-" tag excludes the field.
func findGoField(goType reflect.Type, name string) (reflect.StructField, bool) {
	for i := 0; i < goType.NumField(); i++ {
		field := goType.Field(i)
		if !field.IsExported() {
			continue
		}
		if tag := field.Tag.Get("native"); tag != "" {
			if tag == name {
				return field, true
			}
			continue
		}
		if strings.EqualFold(field.Name, name) {
			return field, true
		}
		if toKebabCase(field.Name) == name {
			return field, true
		}
	}
	return reflect.StructField{}, false
}

func toKebabCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				result.WriteByte('-')
			}
			result.WriteRune(unicode.ToLower(r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
