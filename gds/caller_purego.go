//go:build darwin || freebsd || linux || windows

package gds

import (
	"github.com/ebitengine/purego"
)

type nativeCaller struct{}

func (nativeCaller) Call(fn uintptr, args ...uintptr) uintptr {
	r1, _, _ := purego.SyscallN(fn, args...)
	return r1
}

// NativeCaller calls C functions in the current process.
func NativeCaller() Caller {
	return nativeCaller{}
}
