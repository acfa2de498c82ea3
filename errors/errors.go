package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseRegister Phase = "register" // struct layout registration
	PhaseAccess   Phase = "access"   // field reads and writes
	PhaseAlloc    Phase = "alloc"    // arena allocation
	PhaseRelease  Phase = "release"  // arena teardown and explicit release
	PhaseInvoke   Phase = "invoke"   // function pointer calls
	PhaseLoad     Phase = "load"     // loading struct descriptions
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidLayout     Kind = "invalid_layout"
	KindUnresolvedType    Kind = "unresolved_type"
	KindOutOfBounds       Kind = "out_of_bounds"
	KindAllocation        Kind = "allocation"
	KindInvalidArgument   Kind = "invalid_argument"
	KindUseAfterFree      Kind = "use_after_free"
	KindTypeMismatch      Kind = "type_mismatch"
	KindOverflow          Kind = "overflow"
	KindFieldUnknown      Kind = "field_unknown"
	KindNotFound          Kind = "not_found"
	KindSignatureMismatch Kind = "signature_mismatch"
	KindSequenceMismatch  Kind = "sequence_mismatch"
	KindClosed            Kind = "closed"
	KindCallFailed        Kind = "call_failed"
)

// Sentinels for errors.Is. They carry no phase, so they match any phase.
var (
	ErrInvalidLayout   = &Error{Kind: KindInvalidLayout}
	ErrUnresolvedType  = &Error{Kind: KindUnresolvedType}
	ErrOutOfBounds     = &Error{Kind: KindOutOfBounds}
	ErrAllocation      = &Error{Kind: KindAllocation}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	ErrUseAfterFree    = &Error{Kind: KindUseAfterFree}
	ErrTypeMismatch    = &Error{Kind: KindTypeMismatch}
	ErrOverflow        = &Error{Kind: KindOverflow}
	ErrFieldUnknown    = &Error{Kind: KindFieldUnknown}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrSignature       = &Error{Kind: KindSignatureMismatch}
	ErrSequence        = &Error{Kind: KindSequenceMismatch}
	ErrClosed          = &Error{Kind: KindClosed}
	ErrCallFailed      = &Error{Kind: KindCallFailed}
)

// Error is the structured error type used throughout the library
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	GoType string
	CType  string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.CType != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.CType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", C type ")
			b.WriteString(e.CType)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("C type ")
			b.WriteString(e.CType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.CType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. Kinds must be equal; the phase
// is compared only when the target sets one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	return t.Phase == "" || e.Phase == t.Phase
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the struct/field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// CType sets the C type name
func (b *Builder) CType(t string) *Builder {
	b.err.CType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidLayout creates a layout registration error
func InvalidLayout(path []string, detail string, args ...any) *Error {
	return New(PhaseRegister, KindInvalidLayout).Path(path...).Detail(detail, args...).Build()
}

// UnresolvedType creates an error for a nested struct referenced before registration
func UnresolvedType(path []string, typeName string) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindUnresolvedType,
		Path:   path,
		CType:  typeName,
		Detail: "struct layout not registered yet",
	}
}

// OutOfBounds creates an error for an access outside a view
func OutOfBounds(phase Phase, path []string, offset, size, length uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("range [%d, %d) exceeds length %d", offset, offset+size, length),
		Value:  offset,
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(size, align uint64, cause error) *Error {
	return &Error{
		Phase:  PhaseAlloc,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
		Cause:  cause,
	}
}

// InvalidArgument creates an invalid argument error
func InvalidArgument(phase Phase, path []string, detail string, args ...any) *Error {
	return New(phase, KindInvalidArgument).Path(path...).Detail(detail, args...).Build()
}

// UseAfterFree creates an error for access through a poisoned view
func UseAfterFree(phase Phase, path []string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUseAfterFree,
		Path:   path,
		Detail: "view used after its arena was closed or segment released",
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, cType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		GoType: goType,
		CType:  cType,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		CType:  targetType,
		Detail: fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:  value,
	}
}

// FieldUnknown creates an unknown field error
func FieldUnknown(phase Phase, path []string, fieldName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindFieldUnknown,
		Path:   path,
		Detail: fmt.Sprintf("unknown field %q", fieldName),
	}
}

// NotFound creates a not found error
func NotFound(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: what,
	}
}

// Closed creates an error for use of a closed arena or bridge
func Closed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: what + " is closed",
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// IsKind reports whether err is an *Error of the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
