package binding

import (
	nativelayout "github.com/wippyai/native-layout"
	"github.com/wippyai/native-layout/abi"
	"github.com/wippyai/native-layout/errors"
	"github.com/wippyai/native-layout/memory"
)

// Allocate returns a zeroed struct-sized view owned by arena.
func (s *Struct) Allocate(arena *memory.Arena) (memory.View, error) {
	return arena.Allocate(s.layout.Size, s.layout.Align)
}

// AllocateArray returns a zeroed view of count contiguous structs.
func (s *Struct) AllocateArray(arena *memory.Arena, count int) (memory.View, error) {
	size, err := s.arraySize(count, errors.PhaseAlloc)
	if err != nil {
		return memory.View{}, err
	}
	return arena.Allocate(size, s.layout.Align)
}

func (s *Struct) arraySize(count int, phase errors.Phase) (uint64, error) {
	if count < 0 {
		return 0, errors.InvalidArgument(phase, []string{s.Name()}, "negative element count %d", count)
	}
	size, ok := abi.SafeMul(uint64(count), s.layout.Size)
	if !ok {
		return 0, errors.InvalidArgument(phase, []string{s.Name()}, "%d elements of %d bytes overflow", count, s.layout.Size)
	}
	return size, nil
}

// ElementAt returns element index of an array view: [index*size, (index+1)*size).
func (s *Struct) ElementAt(v memory.View, index int) (memory.View, error) {
	if index < 0 {
		return memory.View{}, errors.InvalidArgument(errors.PhaseAccess, []string{s.Name()}, "negative index %d", index)
	}
	off, ok := abi.SafeMul(uint64(index), s.layout.Size)
	if !ok {
		return memory.View{}, errors.OutOfBounds(errors.PhaseAccess, []string{s.Name()}, uint64(index), s.layout.Size, v.Len())
	}
	sub, err := v.Slice(off, s.layout.Size)
	return sub, withPath(err, []string{s.Name()})
}

// Count returns how many whole structs fit in v.
func (s *Struct) Count(v memory.View) int {
	if s.layout.Size == 0 {
		return 0
	}
	return int(v.Len() / s.layout.Size)
}

// Reinterpret imports addr as count structs bound to arena's lifetime.
// onRelease, if non-nil, runs exactly once when the arena closes or the view
// is released.
//
// The memory at addr is not validated: the caller guarantees it holds at least
// count*SizeOf() bytes for as long as the arena is open.
func (s *Struct) Reinterpret(arena *memory.Arena, addr nativelayout.Address, count int, onRelease memory.ReleaseFunc) (memory.View, error) {
	size, err := s.arraySize(count, errors.PhaseAccess)
	if err != nil {
		return memory.View{}, err
	}
	return arena.Reinterpret(addr, size, onRelease)
}

// ReinterpretOne imports addr as a single struct. See Reinterpret.
func (s *Struct) ReinterpretOne(arena *memory.Arena, addr nativelayout.Address, onRelease memory.ReleaseFunc) (memory.View, error) {
	return s.Reinterpret(arena, addr, 1, onRelease)
}

// Deref follows pointer field f and returns a view of count pointee structs
// borrowed from v's arena. The view records no segment and cannot be released
// on its own. The same unchecked contract as Reinterpret applies.
func (s *Struct) Deref(v memory.View, f *Field, pointee *Struct, count int) (memory.View, error) {
	addr, err := s.Pointer(v, f)
	if err != nil {
		return memory.View{}, err
	}
	if addr.IsNull() {
		return memory.View{}, errors.InvalidArgument(errors.PhaseAccess, f.path(), "null pointer dereference")
	}
	size, err := pointee.arraySize(count, errors.PhaseAccess)
	if err != nil {
		return memory.View{}, err
	}
	return v.Arena().Borrow(addr, size)
}
