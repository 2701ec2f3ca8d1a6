//go:build !darwin && !freebsd && !linux && !windows

package gds

// NativeCaller returns nil: native calls are unavailable on this platform
// and sessions need an explicit WithCaller.
func NativeCaller() Caller {
	return nil
}
