// Package registry shares loaded client libraries between consumers.
//
// A Registry maps library names to slots in a flat, append-only table. Each
// slot holds the opened library, its resolved EntryPoints and a use count.
// Loading a name that is already loaded bumps the count and returns the same
// handle; releasing the last reference unloads the library.
//
// # Check-out / check-in
//
// Most callers should use Acquire, which tries candidate names in order and
// returns a Lease. Closing the lease releases the reference exactly once:
//
//	reg := registry.New(loader.Native())
//	defer reg.Close()
//
//	lease, err := reg.Acquire(loader.DefaultCandidates()...)
//	if err != nil {
//		return err
//	}
//	defer lease.Close()
//
//	eps := lease.EntryPoints()
//
// The lower level LoadInterface / ReleaseInterface / GetInterface /
// AddInterface operations are exported for tooling that manages handles
// itself.
//
// # Slots
//
// Slots are never reordered, so a Handle stays valid while the table grows.
// A slot whose count drops to zero keeps its name: the next load of the same
// name reopens the library in that slot instead of taking a fresh one.
//
// # Concurrency
//
// Every operation takes the registry mutex for its full duration. A Registry
// is safe for use by multiple goroutines.
package registry
