package memory

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	nativelayout "github.com/wippyai/native-layout"
	"github.com/wippyai/native-layout/abi"
	"github.com/wippyai/native-layout/errors"
)

// Policy selects how an arena may be shared between goroutines.
type Policy uint8

const (
	// Confined arenas are used by a single goroutine and do no locking.
	Confined Policy = iota
	// Shared arenas serialize lifecycle operations with a mutex.
	Shared
)

func (p Policy) String() string {
	if p == Shared {
		return "shared"
	}
	return "confined"
}

// ReleaseFunc is invoked once when an imported segment is released.
type ReleaseFunc func(addr nativelayout.Address, size uint64)

// ArenaConfig configures an Arena.
type ArenaConfig struct {
	Logger *zap.Logger
	Name   string
	// Limit caps the bytes owned by the arena at once. Zero means unlimited.
	Limit  uint64
	Policy Policy
}

// Option configures an Arena.
type Option func(*ArenaConfig)

// WithPolicy sets the sharing policy.
func WithPolicy(p Policy) Option {
	return func(c *ArenaConfig) { c.Policy = p }
}

// WithLimit caps the bytes the arena may own at once.
func WithLimit(n uint64) Option {
	return func(c *ArenaConfig) { c.Limit = n }
}

// WithName names the arena in logs and errors.
func WithName(name string) Option {
	return func(c *ArenaConfig) { c.Name = name }
}

// WithLogger overrides the package logger for this arena.
func WithLogger(l *zap.Logger) Option {
	return func(c *ArenaConfig) { c.Logger = l }
}

// Arena owns a set of segments and releases them together at Close.
type Arena struct {
	mem   nativelayout.Memory
	alloc nativelayout.Allocator
	lock  sync.Locker
	log   *zap.Logger
	cfg   ArenaConfig
	segs  []*segment
	// borrowed backs every Borrow view. It owns nothing and is poisoned at Close.
	borrowed *segment
	owned    uint64
	closed   atomic.Bool
}

type segment struct {
	arena    *Arena
	release  ReleaseFunc
	addr     nativelayout.Address
	size     uint64
	align    uint64
	owned    bool
	borrowed bool
	poisoned atomic.Bool
	done     atomic.Bool
}

// finish reports whether the caller won the right to release the segment.
func (s *segment) finish() bool {
	return s.done.CompareAndSwap(false, true)
}

type nopLocker struct{}

func (nopLocker) Lock()   {}
func (nopLocker) Unlock() {}

// NewArena creates an arena over mem. alloc may be nil for arenas that only
// import memory through Reinterpret.
func NewArena(mem nativelayout.Memory, alloc nativelayout.Allocator, opts ...Option) *Arena {
	cfg := ArenaConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	log := cfg.Logger
	if log == nil {
		log = Logger()
	}
	if cfg.Name != "" {
		log = log.With(zap.String("arena", cfg.Name))
	}

	a := &Arena{
		mem:   mem,
		alloc: alloc,
		cfg:   cfg,
		log:   log,
		lock:  nopLocker{},
	}
	a.borrowed = &segment{arena: a, borrowed: true}
	if cfg.Policy == Shared {
		a.lock = &sync.Mutex{}
	}
	return a
}

// NewHeapArena creates an arena over a private Heap of the given capacity.
func NewHeapArena(capacity uint64, opts ...Option) *Arena {
	h := NewHeap(capacity)
	return NewArena(h, h, opts...)
}

// Memory returns the store the arena allocates in.
func (a *Arena) Memory() nativelayout.Memory {
	return a.mem
}

// Name returns the configured arena name.
func (a *Arena) Name() string {
	return a.cfg.Name
}

// Policy returns the sharing policy.
func (a *Arena) Policy() Policy {
	return a.cfg.Policy
}

// Alive reports whether the arena is still open.
func (a *Arena) Alive() bool {
	return !a.closed.Load()
}

// Allocated returns the bytes currently owned by the arena.
func (a *Arena) Allocated() uint64 {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.owned
}

// Segments returns the number of live segments.
func (a *Arena) Segments() int {
	a.lock.Lock()
	defer a.lock.Unlock()
	return len(a.segs)
}

// Allocate returns a zeroed, arena-owned view of size bytes aligned to align.
func (a *Arena) Allocate(size, align uint64) (View, error) {
	if align == 0 {
		align = 1
	}
	if !abi.IsPowerOfTwo(align) {
		return View{}, errors.InvalidArgument(errors.PhaseAlloc, nil, "alignment %d is not a power of two", align)
	}
	if a.alloc == nil {
		return View{}, errors.AllocationFailed(size, align, fmt.Errorf("arena has no allocator"))
	}

	a.lock.Lock()
	defer a.lock.Unlock()

	if a.closed.Load() {
		return View{}, errors.Closed(errors.PhaseAlloc, a.what())
	}
	if a.cfg.Limit > 0 {
		total, ok := abi.SafeAdd(a.owned, size)
		if !ok || total > a.cfg.Limit {
			a.log.Warn("arena limit reached",
				zap.Uint64("requested", size),
				zap.Uint64("owned", a.owned),
				zap.Uint64("limit", a.cfg.Limit))
			return View{}, errors.AllocationFailed(size, align,
				fmt.Errorf("arena limit %d reached (%d owned)", a.cfg.Limit, a.owned))
		}
	}

	addr, err := a.alloc.Alloc(size, align)
	if err != nil {
		return View{}, errors.AllocationFailed(size, align, err)
	}

	buf, err := a.mem.Read(addr, size)
	if err != nil {
		a.alloc.Free(addr, size, align)
		return View{}, errors.AllocationFailed(size, align, err)
	}
	clear(buf)

	seg := &segment{arena: a, addr: addr, size: size, align: align, owned: true}
	a.segs = append(a.segs, seg)
	a.owned += size

	a.log.Debug("allocate",
		zap.Stringer("addr", addr),
		zap.Uint64("size", size),
		zap.Uint64("align", align))
	return View{seg: seg, addr: addr, length: size}, nil
}

// Reinterpret imports an externally obtained address as a view of size bytes
// bound to this arena. The bytes are not copied or checked. onRelease, if
// non-nil, runs exactly once when the view is released or the arena closes.
func (a *Arena) Reinterpret(addr nativelayout.Address, size uint64, onRelease ReleaseFunc) (View, error) {
	if addr == nativelayout.Null && size > 0 {
		return View{}, errors.InvalidArgument(errors.PhaseAccess, nil, "cannot reinterpret null address as %d bytes", size)
	}

	a.lock.Lock()
	defer a.lock.Unlock()

	if a.closed.Load() {
		return View{}, errors.Closed(errors.PhaseAccess, a.what())
	}

	seg := &segment{arena: a, addr: addr, size: size, align: 1, release: onRelease}
	a.segs = append(a.segs, seg)

	a.log.Debug("reinterpret",
		zap.Stringer("addr", addr),
		zap.Uint64("size", size),
		zap.Bool("cleanup", onRelease != nil))
	return View{seg: seg, addr: addr, length: size}, nil
}

// Borrow returns a view of size bytes at addr without taking ownership. No
// segment is recorded, so repeated borrows do not grow the arena; the view is
// poisoned when the arena closes and cannot be released on its own. The same
// unchecked contract as Reinterpret applies.
func (a *Arena) Borrow(addr nativelayout.Address, size uint64) (View, error) {
	if addr == nativelayout.Null && size > 0 {
		return View{}, errors.InvalidArgument(errors.PhaseAccess, nil, "cannot borrow null address as %d bytes", size)
	}
	if a.closed.Load() {
		return View{}, errors.UseAfterFree(errors.PhaseAccess, nil)
	}
	return View{seg: a.borrowed, addr: addr, length: size}, nil
}

// Close poisons every view derived from the arena and releases its segments in
// reverse order of creation. Closing twice is a no-op. Panics raised by
// release callbacks are recovered and returned after all segments are released.
func (a *Arena) Close() error {
	a.lock.Lock()
	if !a.closed.CompareAndSwap(false, true) {
		a.lock.Unlock()
		return nil
	}
	segs := a.segs
	a.segs = nil
	a.owned = 0
	a.borrowed.poisoned.Store(true)
	for _, s := range segs {
		s.poisoned.Store(true)
	}
	a.lock.Unlock()

	// Callbacks run unlocked so they may call back into the arena.
	var err error
	for i := len(segs) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.releaseSegment(segs[i]))
	}

	a.log.Debug("arena closed", zap.Int("segments", len(segs)), zap.Error(err))
	return err
}

// release drops a single segment before the arena closes.
func (a *Arena) release(s *segment) error {
	if s.borrowed {
		return errors.InvalidArgument(errors.PhaseRelease, nil, "borrowed view is released with its arena")
	}

	a.lock.Lock()
	if a.closed.Load() || s.poisoned.Load() {
		a.lock.Unlock()
		return errors.UseAfterFree(errors.PhaseRelease, nil)
	}
	s.poisoned.Store(true)

	for i, cur := range a.segs {
		if cur == s {
			a.segs = append(a.segs[:i], a.segs[i+1:]...)
			break
		}
	}
	if s.owned {
		// Allocator calls stay serialized with Allocate.
		a.owned -= s.size
		if s.finish() {
			a.alloc.Free(s.addr, s.size, s.align)
		}
		a.lock.Unlock()
		return nil
	}
	a.lock.Unlock()

	return a.releaseSegment(s)
}

func (a *Arena) releaseSegment(s *segment) (err error) {
	if !s.finish() {
		return nil
	}
	if s.owned {
		a.alloc.Free(s.addr, s.size, s.align)
		return nil
	}
	if s.release == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.PhaseRelease, errors.KindCallFailed).
				Value(r).
				Detail("release callback for %s panicked: %v", s.addr, r).
				Build()
		}
	}()
	s.release(s.addr, s.size)
	return nil
}

func (a *Arena) what() string {
	if a.cfg.Name != "" {
		return "arena " + a.cfg.Name
	}
	return "arena"
}

// AllocateBytes allocates a copy of data.
func (a *Arena) AllocateBytes(data []byte, align uint64) (View, error) {
	v, err := a.Allocate(uint64(len(data)), align)
	if err != nil {
		return View{}, err
	}
	if err := v.WriteAt(data, 0); err != nil {
		return View{}, err
	}
	return v, nil
}

// AllocateCString allocates s followed by a NUL byte.
func (a *Arena) AllocateCString(s string) (View, error) {
	v, err := a.Allocate(uint64(len(s))+1, 1)
	if err != nil {
		return View{}, err
	}
	if err := v.WriteAt([]byte(s), 0); err != nil {
		return View{}, err
	}
	return v, nil
}

// ReadCString reads a NUL-terminated string at addr through the arena's
// memory, scanning at most limit bytes.
func (a *Arena) ReadCString(addr nativelayout.Address, limit uint64) (string, error) {
	if a.closed.Load() {
		return "", errors.UseAfterFree(errors.PhaseAccess, nil)
	}
	if addr == nativelayout.Null {
		return "", errors.InvalidArgument(errors.PhaseAccess, nil, "null string pointer")
	}
	const chunk = 64
	var out []byte
	for scanned := uint64(0); scanned < limit; {
		n := min(uint64(chunk), limit-scanned)
		buf, err := a.readClamped(addr.Add(scanned), n)
		if err != nil {
			return "", err
		}
		if len(buf) == 0 {
			return "", errors.OutOfBounds(errors.PhaseAccess, nil, uint64(addr)+scanned, 1, uint64(addr)+scanned)
		}
		for i, b := range buf {
			if b == 0 {
				return string(append(out, buf[:i]...)), nil
			}
		}
		out = append(out, buf...)
		scanned += uint64(len(buf))
	}
	return "", errors.InvalidArgument(errors.PhaseAccess, nil, "no NUL terminator within %d bytes of %s", limit, addr)
}

// readClamped reads up to n bytes, stopping at the end of a sized store.
func (a *Arena) readClamped(addr nativelayout.Address, n uint64) ([]byte, error) {
	if sz, ok := a.mem.(nativelayout.MemorySizer); ok {
		end := sz.Size()
		if h, ok := a.mem.(*Heap); ok {
			end += uint64(h.Base())
		}
		if uint64(addr) < end && uint64(addr)+n > end {
			n = end - uint64(addr)
		}
	}
	return a.mem.Read(addr, n)
}
