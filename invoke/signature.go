package invoke

import (
	"slices"
	"strings"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/native-layout/abi"
)

// Signature describes the scalar parameters and results of a native function.
// Name is informational and ignored when comparing signatures.
type Signature struct {
	Name    string
	Params  []abi.Kind
	Results []abi.Kind
}

// Sig builds a signature with no results.
func Sig(name string, params ...abi.Kind) Signature {
	return Signature{Name: name, Params: params}
}

// Returning returns a copy of s with the given results.
func (s Signature) Returning(results ...abi.Kind) Signature {
	s.Results = results
	return s
}

// Equal reports whether two signatures have the same parameter and result kinds.
func (s Signature) Equal(o Signature) bool {
	return slices.Equal(s.Params, o.Params) && slices.Equal(s.Results, o.Results)
}

func (s Signature) String() string {
	var b strings.Builder
	b.WriteString(s.Name)
	b.WriteByte('(')
	for i, k := range s.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k.String())
	}
	b.WriteString(")")
	switch len(s.Results) {
	case 0:
	case 1:
		b.WriteString(" ")
		b.WriteString(s.Results[0].String())
	default:
		b.WriteString(" (")
		for i, k := range s.Results {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k.String())
		}
		b.WriteString(")")
	}
	return b.String()
}

func (s Signature) validate() bool {
	for _, k := range append(slices.Clone(s.Params), s.Results...) {
		if !k.IsScalar() {
			return false
		}
	}
	return true
}

// valueType is the wasm core type a scalar of kind k is passed as on p.
func valueType(p abi.Platform, k abi.Kind) (api.ValueType, bool) {
	switch k {
	case abi.Float32:
		return api.ValueTypeF32, true
	case abi.Float64:
		return api.ValueTypeF64, true
	}
	info, ok := p.Info(k)
	if !ok {
		return 0, false
	}
	if info.Size <= 4 {
		return api.ValueTypeI32, true
	}
	return api.ValueTypeI64, true
}

// lowers reports whether s lowers to the wasm types params -> results on p.
func (s Signature) lowers(p abi.Platform, params, results []api.ValueType) bool {
	if len(params) != len(s.Params) || len(results) != len(s.Results) {
		return false
	}
	for i, k := range s.Params {
		if vt, ok := valueType(p, k); !ok || vt != params[i] {
			return false
		}
	}
	for i, k := range s.Results {
		if vt, ok := valueType(p, k); !ok || vt != results[i] {
			return false
		}
	}
	return true
}
