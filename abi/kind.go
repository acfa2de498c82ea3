package abi

// Kind identifies a field type category.
type Kind uint8

const (
	Invalid Kind = iota
	Bool
	Int8
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Float32
	Float64
	Long    // C long, platform width, signed
	ULong   // C unsigned long, platform width
	SizeT   // size_t, platform width, unsigned
	Pointer // object pointer, opaque or typed
	FuncPtr // function pointer
	Struct  // nested struct by value
	Array   // inline fixed-length array
)

var kindNames = [...]string{
	Invalid: "invalid",
	Bool:    "bool",
	Int8:    "int8",
	Uint8:   "uint8",
	Int16:   "int16",
	Uint16:  "uint16",
	Int32:   "int32",
	Uint32:  "uint32",
	Int64:   "int64",
	Uint64:  "uint64",
	Float32: "float",
	Float64: "double",
	Long:    "long",
	ULong:   "unsigned long",
	SizeT:   "size_t",
	Pointer: "pointer",
	FuncPtr: "function pointer",
	Struct:  "struct",
	Array:   "array",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k > Invalid && k <= Array
}

// IsScalar reports whether values of k are loaded as a single machine word.
func (k Kind) IsScalar() bool {
	return k >= Bool && k <= FuncPtr
}

// IsInteger reports whether k holds an integer (bool excluded).
func (k Kind) IsInteger() bool {
	switch k {
	case Int8, Uint8, Int16, Uint16, Int32, Uint32, Int64, Uint64, Long, ULong, SizeT:
		return true
	}
	return false
}

// IsSigned reports whether k is a signed integer.
func (k Kind) IsSigned() bool {
	switch k {
	case Int8, Int16, Int32, Int64, Long:
		return true
	}
	return false
}

// IsFloat reports whether k is a floating point kind.
func (k Kind) IsFloat() bool {
	return k == Float32 || k == Float64
}

// IsAddress reports whether k stores an address.
func (k Kind) IsAddress() bool {
	return k == Pointer || k == FuncPtr
}

var kindAliases = map[string]Kind{
	"bool":               Bool,
	"_Bool":              Bool,
	"i8":                 Int8,
	"int8":               Int8,
	"int8_t":             Int8,
	"char":               Int8,
	"u8":                 Uint8,
	"uint8":              Uint8,
	"uint8_t":            Uint8,
	"i16":                Int16,
	"int16":              Int16,
	"int16_t":            Int16,
	"u16":                Uint16,
	"uint16":             Uint16,
	"uint16_t":           Uint16,
	"i32":                Int32,
	"int":                Int32,
	"int32":              Int32,
	"int32_t":            Int32,
	"u32":                Uint32,
	"uint32":             Uint32,
	"uint32_t":           Uint32,
	"i64":                Int64,
	"int64":              Int64,
	"int64_t":            Int64,
	"long long":          Int64,
	"u64":                Uint64,
	"uint64":             Uint64,
	"uint64_t":           Uint64,
	"unsigned long long": Uint64,
	"f32":                Float32,
	"float":              Float32,
	"f64":                Float64,
	"double":             Float64,
	"long":               Long,
	"unsigned long":      ULong,
	"ulong":              ULong,
	"size_t":             SizeT,
	"usize":              SizeT,
	"ptr":                Pointer,
	"pointer":            Pointer,
	"void*":              Pointer,
	"fnptr":              FuncPtr,
	"function pointer":   FuncPtr,
}

// ParseKind maps a C or shorthand scalar type name to a Kind.
func ParseKind(name string) (Kind, bool) {
	k, ok := kindAliases[name]
	return k, ok
}
