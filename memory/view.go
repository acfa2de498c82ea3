package memory

import (
	"encoding/binary"

	nativelayout "github.com/wippyai/native-layout"
	"github.com/wippyai/native-layout/abi"
	"github.com/wippyai/native-layout/errors"
)

// View is a bounds-checked window [Address, Address+Len) inside an arena
// segment. The zero View is invalid.
type View struct {
	seg    *segment
	addr   nativelayout.Address
	length uint64
}

// Address returns the first byte of the view.
func (v View) Address() nativelayout.Address {
	return v.addr
}

// Len returns the view length in bytes.
func (v View) Len() uint64 {
	return v.length
}

// IsZero reports whether v is the zero View.
func (v View) IsZero() bool {
	return v.seg == nil
}

// Alive reports whether the view can still be accessed.
func (v View) Alive() bool {
	return v.seg != nil && !v.seg.poisoned.Load()
}

// Arena returns the owning arena, or nil for the zero View.
func (v View) Arena() *Arena {
	if v.seg == nil {
		return nil
	}
	return v.seg.arena
}

func (v View) check(off, n uint64) error {
	if v.seg == nil {
		return errors.InvalidArgument(errors.PhaseAccess, nil, "zero view")
	}
	if v.seg.poisoned.Load() {
		return errors.UseAfterFree(errors.PhaseAccess, nil)
	}
	end, ok := abi.SafeAdd(off, n)
	if !ok || end > v.length {
		return errors.OutOfBounds(errors.PhaseAccess, nil, off, n, v.length)
	}
	return nil
}

// Check validates that [off, off+n) lies inside a live view.
func (v View) Check(off, n uint64) error {
	return v.check(off, n)
}

// Slice returns the sub-view [off, off+n). It shares the parent's lifetime.
func (v View) Slice(off, n uint64) (View, error) {
	if err := v.check(off, n); err != nil {
		return View{}, err
	}
	return View{seg: v.seg, addr: v.addr.Add(off), length: n}, nil
}

// Window returns n bytes at off aliasing the underlying memory. The slice is
// only valid until the store grows or the arena closes.
func (v View) Window(off, n uint64) ([]byte, error) {
	if err := v.check(off, n); err != nil {
		return nil, err
	}
	if n == 0 {
		return []byte{}, nil
	}
	return v.seg.arena.mem.Read(v.addr.Add(off), n)
}

// Bytes returns a copy of the whole view.
func (v View) Bytes() ([]byte, error) {
	out := make([]byte, v.length)
	if err := v.ReadAt(out, 0); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadAt copies len(p) bytes starting at off into p.
func (v View) ReadAt(p []byte, off uint64) error {
	buf, err := v.Window(off, uint64(len(p)))
	if err != nil {
		return err
	}
	copy(p, buf)
	return nil
}

// WriteAt copies p into the view starting at off.
func (v View) WriteAt(p []byte, off uint64) error {
	if err := v.check(off, uint64(len(p))); err != nil {
		return err
	}
	return v.seg.arena.mem.Write(v.addr.Add(off), p)
}

// Uint loads an unsigned integer of size 1, 2, 4 or 8 bytes at off.
func (v View) Uint(off, size uint64, order binary.ByteOrder) (uint64, error) {
	buf, err := v.Window(off, size)
	if err != nil {
		return 0, err
	}
	switch size {
	case 1:
		return uint64(buf[0]), nil
	case 2:
		return uint64(order.Uint16(buf)), nil
	case 4:
		return uint64(order.Uint32(buf)), nil
	case 8:
		return order.Uint64(buf), nil
	}
	return 0, errors.InvalidArgument(errors.PhaseAccess, nil, "unsupported scalar width %d", size)
}

// PutUint stores the low size bytes of val at off.
func (v View) PutUint(off, size, val uint64, order binary.ByteOrder) error {
	var tmp [8]byte
	switch size {
	case 1:
		tmp[0] = byte(val)
	case 2:
		order.PutUint16(tmp[:], uint16(val))
	case 4:
		order.PutUint32(tmp[:], uint32(val))
	case 8:
		order.PutUint64(tmp[:], val)
	default:
		return errors.InvalidArgument(errors.PhaseAccess, nil, "unsupported scalar width %d", size)
	}
	return v.WriteAt(tmp[:size], off)
}

// CopyFrom copies src into v. Both views must have the same length.
// Overlapping regions of the same store are handled.
func (v View) CopyFrom(src View) error {
	if src.length != v.length {
		return errors.InvalidArgument(errors.PhaseAccess, nil,
			"copy length mismatch: source %d bytes, destination %d bytes", src.length, v.length)
	}
	in, err := src.Window(0, src.length)
	if err != nil {
		return err
	}
	out, err := v.Window(0, v.length)
	if err != nil {
		return err
	}
	copy(out, in)
	return nil
}

// Zero clears the view.
func (v View) Zero() error {
	buf, err := v.Window(0, v.length)
	if err != nil {
		return err
	}
	clear(buf)
	return nil
}

// CString reads a NUL-terminated string starting at off. The terminator must
// lie inside the view.
func (v View) CString(off uint64) (string, error) {
	if err := v.check(off, 0); err != nil {
		return "", err
	}
	buf, err := v.Window(off, v.length-off)
	if err != nil {
		return "", err
	}
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i]), nil
		}
	}
	return "", errors.InvalidArgument(errors.PhaseAccess, nil, "no NUL terminator within view")
}

// Release frees the view's segment ahead of arena Close, running its release
// callback if it has one. Only a view covering its whole segment can be
// released. Every view of the segment is poisoned.
func (v View) Release() error {
	if v.seg == nil {
		return errors.InvalidArgument(errors.PhaseRelease, nil, "zero view")
	}
	if v.addr != v.seg.addr || v.length != v.seg.size {
		return errors.InvalidArgument(errors.PhaseRelease, nil,
			"view [%s, +%d) does not cover its segment [%s, +%d)", v.addr, v.length, v.seg.addr, v.seg.size)
	}
	return v.seg.arena.release(v.seg)
}
