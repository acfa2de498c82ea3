package binding

import (
	"github.com/wippyai/native-layout/abi"
	"github.com/wippyai/native-layout/errors"
	"github.com/wippyai/native-layout/memory"
)

// Sequence reads a count field and a pointer field that together describe an
// array of elemSize-byte elements, and returns a view of the elements
// borrowed from v's arena. A non-zero count with a null pointer fails with
// sequence_mismatch.
//
// The pair is not linked in the layout; this is an opt-in check for structs
// such as a feature count next to a feature list.
func (s *Struct) Sequence(v memory.View, count, ptr *Field, elemSize uint64) (memory.View, error) {
	n, err := s.Uint(v, count)
	if err != nil {
		return memory.View{}, err
	}
	addr, err := s.Pointer(v, ptr)
	if err != nil {
		return memory.View{}, err
	}

	if n > 0 && addr.IsNull() {
		return memory.View{}, errors.New(errors.PhaseAccess, errors.KindSequenceMismatch).
			Path(s.Name(), ptr.Name).
			Value(n).
			Detail("%s is %d but %s is null", count.Name, n, ptr.Name).
			Build()
	}
	size, ok := abi.SafeMul(n, elemSize)
	if !ok {
		return memory.View{}, errors.Overflow(errors.PhaseAccess, count.path(), n, "sequence length")
	}
	if addr.IsNull() {
		size = 0
	}
	return v.Arena().Borrow(addr, size)
}

// SetSequence points ptr at seq and stores its element count in count.
// A zero seq clears both fields. seq must hold a whole number of elements.
func (s *Struct) SetSequence(v memory.View, count, ptr *Field, seq memory.View, elemSize uint64) error {
	if seq.IsZero() {
		if err := s.SetUint(v, count, 0); err != nil {
			return err
		}
		return s.SetPointer(v, ptr, 0)
	}
	if elemSize == 0 || seq.Len()%elemSize != 0 {
		return errors.New(errors.PhaseAccess, errors.KindSequenceMismatch).
			Path(s.Name(), ptr.Name).
			Detail("%d bytes is not a whole number of %d-byte elements", seq.Len(), elemSize).
			Build()
	}
	if err := s.SetUint(v, count, seq.Len()/elemSize); err != nil {
		return err
	}
	return s.Set(v, ptr, seq)
}
