// Package fbnative drives a native Firebird/InterBase client library
// (fbclient, gds32) from Go through its C ABI.
//
// The library does not speak the wire protocol. It marshals parameters,
// results and status information between Go values and the raw memory
// layout the client library expects, and manages the lifetime of the loaded
// library and of the per-call scratch memory.
//
// # Architecture Overview
//
//	fbnative/            Root package with the Memory interface and ABI description
//	├── arena/           Bump allocator backing all native-layout memory
//	├── xsqlda/          XSQLDA descriptor layout and Go <-> native marshaler
//	├── status/          Status vector decoder and GDS error chains
//	├── registry/        Reference-counted library/entry-point registry
//	├── loader/          Platform loaders (dlopen via purego, LoadLibrary, wazero)
//	├── gds/             Call glue: sessions, handles, statement flow
//	├── config/          Configuration (viper)
//	└── errors/          Structured error types
//
// # Quick Start
//
//	reg := registry.New(loader.Native())
//	defer reg.Close()
//
//	lease, err := reg.Acquire(loader.DefaultCandidates()...)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sess, err := gds.NewSession(lease)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sess.Close()
//
//	var db gds.DatabaseHandle
//	if err := sess.AttachDatabase(&db, "localhost:employee", dpb); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The registry is safe for concurrent use. Arenas, marshalers, decoders and
// sessions are owned by a single goroutine for their whole lifetime.
//
// # Memory Model
//
// Every native-layout structure (descriptors, status vectors, handle cells,
// C strings) is carved from an arena. Arena memory is ordinary Go heap memory
// that stays reachable through the arena, so addresses handed to the native
// library stay valid until the arena is reset or released.
package fbnative
