package layout

import (
	"fmt"

	"github.com/wippyai/native-layout/abi"
)

// Type is the declared type of a field.
type Type struct {
	// Elem is the element type of an array.
	Elem *Type
	// Name is the struct name for nested structs, the pointee name for typed
	// pointers and the signature name for function pointers.
	Name string
	// Len is the element count of an array.
	Len  uint64
	Kind abi.Kind
}

// Scalar returns a primitive scalar type.
func Scalar(k abi.Kind) Type {
	return Type{Kind: k}
}

// Pointer returns an opaque pointer type.
func Pointer() Type {
	return Type{Kind: abi.Pointer}
}

// PointerTo returns a pointer to a named type. The name is informational.
func PointerTo(name string) Type {
	return Type{Kind: abi.Pointer, Name: name}
}

// Func returns a function pointer type with an optional signature name.
func Func(signature string) Type {
	return Type{Kind: abi.FuncPtr, Name: signature}
}

// Nested returns a struct embedded by value.
func Nested(name string) Type {
	return Type{Kind: abi.Struct, Name: name}
}

// ArrayOf returns an inline array of n elements.
func ArrayOf(elem Type, n uint64) Type {
	return Type{Kind: abi.Array, Elem: &elem, Len: n}
}

func (t Type) String() string {
	switch t.Kind {
	case abi.Pointer:
		if t.Name != "" {
			return t.Name + "*"
		}
		return "void*"
	case abi.FuncPtr:
		if t.Name != "" {
			return "fn " + t.Name
		}
		return "fn"
	case abi.Struct:
		return "struct " + t.Name
	case abi.Array:
		if t.Elem == nil {
			return fmt.Sprintf("?[%d]", t.Len)
		}
		return fmt.Sprintf("%s[%d]", t.Elem.String(), t.Len)
	default:
		return t.Kind.String()
	}
}

// Field describes one struct member.
type Field struct {
	Name string
	Type Type
}

// F is shorthand for a Field literal.
func F(name string, t Type) Field {
	return Field{Name: name, Type: t}
}
