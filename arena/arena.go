package arena

import (
	"unsafe"

	"github.com/wippyai/fbnative/errors"
)

const (
	// DefaultChunkSize is the chunk size used when none is given (64 KiB).
	DefaultChunkSize = 1 << 16

	// Alignment of every block handed out.
	Alignment = 8

	// MaxAlloc bounds a single request.
	MaxAlloc = 1 << 30
)

type chunk struct {
	buf    []byte
	offset int
}

func (c *chunk) base() uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(c.buf)))
}

// Ref identifies a block inside an arena generation.
type Ref struct {
	chunk int32
	off   uint32
	size  uint32
	gen   uint32
}

// Size returns the block size requested at allocation.
func (r Ref) Size() int { return int(r.size) }

// IsZero reports whether r was never allocated.
func (r Ref) IsZero() bool { return r == Ref{} }

// Arena is a chunked bump allocator.
type Arena struct {
	chunks    []chunk
	chunkSize int
	gen       uint32
	released  bool
}

// New creates an arena. If chunkSize <= 0, DefaultChunkSize is used.
// No memory is reserved until the first allocation.
func New(chunkSize int) *Arena {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Arena{chunkSize: chunkSize, gen: 1}
}

// Alloc reserves size bytes and returns a zeroed block.
func (a *Arena) Alloc(size int) (Ref, error) {
	if a.released {
		return Ref{}, errors.Contract(errors.PhaseAlloc, "alloc on released arena")
	}
	if size <= 0 || size > MaxAlloc {
		return Ref{}, errors.New(errors.PhaseAlloc, errors.KindAllocation).
			Value(size).
			Detail("invalid allocation size %d", size).
			Build()
	}

	for i := range a.chunks {
		if off, ok := a.chunks[i].fit(size); ok {
			return a.take(i, off, size), nil
		}
	}

	grow := a.chunkSize
	if size+Alignment > grow {
		grow = size + Alignment
	}
	a.chunks = append(a.chunks, chunk{buf: make([]byte, grow)})
	i := len(a.chunks) - 1
	off, ok := a.chunks[i].fit(size)
	if !ok {
		return Ref{}, errors.AllocationFailed(errors.PhaseAlloc, size, nil)
	}
	return a.take(i, off, size), nil
}

// fit returns the aligned offset for size bytes if the chunk has room.
func (c *chunk) fit(size int) (int, bool) {
	base := c.base()
	addr := (base + uintptr(c.offset) + Alignment - 1) &^ (Alignment - 1)
	off := int(addr - base)
	if off+size > len(c.buf) {
		return 0, false
	}
	return off, true
}

func (a *Arena) take(i, off, size int) Ref {
	c := &a.chunks[i]
	c.offset = off + size
	clear(c.buf[off:c.offset])
	return Ref{chunk: int32(i), off: uint32(off), size: uint32(size), gen: a.gen}
}

// AllocBytes reserves size bytes and returns the block as a slice.
func (a *Arena) AllocBytes(size int) ([]byte, Ref, error) {
	ref, err := a.Alloc(size)
	if err != nil {
		return nil, Ref{}, err
	}
	return a.slice(ref), ref, nil
}

func (a *Arena) slice(r Ref) []byte {
	c := &a.chunks[r.chunk]
	return c.buf[r.off : r.off+r.size : r.off+r.size]
}

func (a *Arena) check(r Ref) error {
	if a.released {
		return errors.Contract(errors.PhaseAlloc, "access to released arena")
	}
	if r.IsZero() {
		return errors.Contract(errors.PhaseAlloc, "zero ref")
	}
	if r.gen != a.gen {
		return errors.Stale(errors.PhaseAlloc, "ref from a previous arena generation")
	}
	if int(r.chunk) >= len(a.chunks) {
		return errors.OutOfBounds(errors.PhaseAlloc, []string{"chunk"}, int(r.chunk), len(a.chunks))
	}
	return nil
}

// Bytes returns the block identified by r.
func (a *Arena) Bytes(r Ref) ([]byte, error) {
	if err := a.check(r); err != nil {
		return nil, err
	}
	return a.slice(r), nil
}

// Addr returns the native address of the block identified by r.
func (a *Arena) Addr(r Ref) (uintptr, error) {
	if err := a.check(r); err != nil {
		return 0, err
	}
	return a.chunks[r.chunk].base() + uintptr(r.off), nil
}

// locate finds the chunk holding addr within its allocated prefix.
func (a *Arena) locate(addr uintptr) (*chunk, int, bool) {
	for i := range a.chunks {
		c := &a.chunks[i]
		base := c.base()
		if addr >= base && addr < base+uintptr(c.offset) {
			return c, int(addr - base), true
		}
	}
	return nil, 0, false
}

func notOwned(addr uintptr) error {
	return errors.New(errors.PhaseAlloc, errors.KindOutOfBounds).
		Value(addr).
		Detail("address %#x not owned by arena", addr).
		Build()
}

// Resolve maps a native address inside the arena back to n bytes of
// allocated memory.
func (a *Arena) Resolve(addr uintptr, n int) ([]byte, error) {
	if a.released {
		return nil, errors.Contract(errors.PhaseAlloc, "access to released arena")
	}
	if n < 0 {
		return nil, errors.InvalidInput(errors.PhaseAlloc, nil, "negative length")
	}
	c, off, ok := a.locate(addr)
	if !ok {
		return nil, notOwned(addr)
	}
	if off+n > c.offset {
		return nil, errors.OutOfBounds(errors.PhaseAlloc, []string{"resolve"}, off+n, c.offset)
	}
	return c.buf[off : off+n : off+n], nil
}

// Owns reports whether addr falls inside allocated arena memory.
func (a *Arena) Owns(addr uintptr) bool {
	if a.released {
		return false
	}
	_, _, ok := a.locate(addr)
	return ok
}

// Read copies length bytes at addr.
func (a *Arena) Read(addr uintptr, length int) ([]byte, error) {
	b, err := a.Resolve(addr, length)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// Write copies data to addr.
func (a *Arena) Write(addr uintptr, data []byte) error {
	b, err := a.Resolve(addr, len(data))
	if err != nil {
		return err
	}
	copy(b, data)
	return nil
}

// ReadCString reads a NUL-terminated string at addr without leaving the
// allocated part of its chunk. max <= 0 means no extra limit.
func (a *Arena) ReadCString(addr uintptr, max int) (string, error) {
	if addr == 0 {
		return "", nil
	}
	if a.released {
		return "", errors.Contract(errors.PhaseAlloc, "access to released arena")
	}
	c, off, ok := a.locate(addr)
	if !ok {
		return "", notOwned(addr)
	}
	rest := c.buf[off:c.offset]
	if max > 0 && len(rest) > max {
		rest = rest[:max]
	}
	for n, ch := range rest {
		if ch == 0 {
			return string(rest[:n]), nil
		}
	}
	return "", errors.Malformed(errors.PhaseAlloc, nil, "unterminated string in arena")
}

// Reset rewinds every chunk, keeping them for reuse. Refs handed out before
// the reset become stale.
func (a *Arena) Reset() {
	if a.released {
		return
	}
	for i := range a.chunks {
		a.chunks[i].offset = 0
	}
	a.gen++
}

// Release drops all chunks. It is safe to call more than once; any later
// allocation fails with a contract error.
func (a *Arena) Release() {
	if a.released {
		return
	}
	a.chunks = nil
	a.released = true
	a.gen++
}

// Released reports whether Release has been called.
func (a *Arena) Released() bool {
	return a.released
}

// Generation returns the current generation, bumped by every Reset.
func (a *Arena) Generation() uint32 {
	return a.gen
}
