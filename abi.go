package fbnative

import (
	"encoding/binary"
	"unsafe"
)

// ABI describes the pointer width and byte order of the native side.
// Host() matches the running process; other values are used to check
// layouts for foreign targets.
type ABI struct {
	Order   binary.ByteOrder
	PtrSize int
}

// Host returns the ABI of the running process.
func Host() ABI {
	return ABI{
		Order:   binary.NativeEndian,
		PtrSize: int(unsafe.Sizeof(uintptr(0))),
	}
}

// BigEndian reports whether the ABI stores the most significant byte first.
func (a ABI) BigEndian() bool {
	var b [2]byte
	a.Order.PutUint16(b[:], 1)
	return b[0] == 0
}

// Word reads a pointer-sized value.
func (a ABI) Word(b []byte) uintptr {
	if a.PtrSize == 4 {
		return uintptr(a.Order.Uint32(b))
	}
	return uintptr(a.Order.Uint64(b))
}

// PutWord writes a pointer-sized value.
func (a ABI) PutWord(b []byte, v uintptr) {
	if a.PtrSize == 4 {
		a.Order.PutUint32(b, uint32(v))
		return
	}
	a.Order.PutUint64(b, uint64(v))
}

// SignedWord reads a pointer-sized value as a signed integer
// (ISC_STATUS is intptr_t).
func (a ABI) SignedWord(b []byte) int64 {
	if a.PtrSize == 4 {
		return int64(int32(a.Order.Uint32(b)))
	}
	return int64(a.Order.Uint64(b))
}

// AlignTo rounds v up to a multiple of align (a power of two).
func AlignTo(v, align int) int {
	return (v + align - 1) &^ (align - 1)
}
