package registry

import (
	"sync/atomic"
)

// Lease is one checked-out reference to a loaded library.
type Lease struct {
	reg    *Registry
	handle Handle
	name   string
	table  *EntryPoints
	closed atomic.Bool
}

// Handle returns the registry slot of the leased library.
func (l *Lease) Handle() Handle {
	return l.handle
}

// Name returns the candidate name that was loaded.
func (l *Lease) Name() string {
	return l.name
}

// EntryPoints returns the resolved table. It must not be used after Close.
func (l *Lease) EntryPoints() *EntryPoints {
	return l.table
}

// Closed reports whether the lease has been returned.
func (l *Lease) Closed() bool {
	return l.closed.Load()
}

// Close returns the reference to the registry. Only the first call has an
// effect.
func (l *Lease) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	return l.reg.ReleaseInterface(l.handle)
}
