package layout

import (
	"sync"

	"github.com/wippyai/native-layout/abi"
	"github.com/wippyai/native-layout/errors"
)

// Decl is a named struct description.
type Decl struct {
	Name   string
	Fields []Field
}

// Registry computes and caches struct layouts for one platform.
type Registry struct {
	structs  map[string]*Struct
	order    []string
	platform abi.Platform
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry for platform p.
func NewRegistry(p abi.Platform) *Registry {
	return &Registry{
		structs:  make(map[string]*Struct),
		platform: p,
	}
}

// Platform returns the registry's target platform.
func (r *Registry) Platform() abi.Platform {
	return r.platform
}

// Register computes and caches the layout of a struct. Registering the same
// name again returns the cached layout if the description is identical and an
// invalid_layout error otherwise.
func (r *Registry) Register(name string, fields ...Field) (*Struct, error) {
	if name == "" {
		return nil, errors.InvalidLayout(nil, "struct without a name")
	}

	s, err := Compute(name, fields, r.platform, r)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.structs[name]; ok {
		if existing.Equal(s) {
			return existing, nil
		}
		return nil, errors.InvalidLayout([]string{name}, "conflicting redefinition: %s", s.String())
	}

	r.structs[name] = s
	r.order = append(r.order, name)
	return s, nil
}

// MustRegister is like Register but panics on error. Intended for package-level
// tables whose descriptions are fixed at compile time.
func (r *Registry) MustRegister(name string, fields ...Field) *Struct {
	s, err := r.Register(name, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// RegisterAll registers declarations in order and stops at the first error.
func (r *Registry) RegisterAll(decls ...Decl) ([]*Struct, error) {
	out := make([]*Struct, 0, len(decls))
	for _, d := range decls {
		s, err := r.Register(d.Name, d.Fields...)
		if err != nil {
			return out, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Lookup returns a registered layout.
func (r *Registry) Lookup(name string) (*Struct, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.structs[name]
	return s, ok
}

// Names returns struct names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered structs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
