package fbnative

import (
	"fmt"
	"unsafe"
)

// Memory is read/write access to native-addressed memory.
type Memory interface {
	Read(addr uintptr, length int) ([]byte, error)
	Write(addr uintptr, data []byte) error
	// ReadCString reads a NUL-terminated string of at most max bytes.
	ReadCString(addr uintptr, max int) (string, error)
}

// MaxCString bounds C string reads from foreign memory.
const MaxCString = 64 * 1024

// NativeMemory dereferences raw process addresses. It is only valid for
// addresses the native library hands back (status strings, static buffers).
type NativeMemory struct{}

// Read copies length bytes starting at addr.
func (NativeMemory) Read(addr uintptr, length int) ([]byte, error) {
	if addr == 0 {
		return nil, fmt.Errorf("memory read at nil address")
	}
	if length < 0 {
		return nil, fmt.Errorf("memory read with negative length %d", length)
	}
	out := make([]byte, length)
	if length > 0 {
		copy(out, unsafe.Slice((*byte)(unsafe.Pointer(addr)), length))
	}
	return out, nil
}

// Write copies data to addr.
func (NativeMemory) Write(addr uintptr, data []byte) error {
	if addr == 0 {
		return fmt.Errorf("memory write at nil address")
	}
	if len(data) > 0 {
		copy(unsafe.Slice((*byte)(unsafe.Pointer(addr)), len(data)), data)
	}
	return nil
}

// ReadCString reads bytes up to the first NUL.
func (NativeMemory) ReadCString(addr uintptr, max int) (string, error) {
	if addr == 0 {
		return "", nil
	}
	if max <= 0 {
		max = MaxCString
	}
	for n := 0; n < max; n++ {
		if *(*byte)(unsafe.Pointer(addr + uintptr(n))) == 0 {
			return string(unsafe.Slice((*byte)(unsafe.Pointer(addr)), n)), nil
		}
	}
	return "", fmt.Errorf("unterminated C string at %#x (limit %d)", addr, max)
}
