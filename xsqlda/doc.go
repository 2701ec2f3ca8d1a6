// Package xsqlda mirrors the Firebird XSQLDA descriptor between Go values
// and native memory.
//
// The native descriptor is a binary format: a fixed header (version, declared
// slot count sqln, used slot count sqld) followed in place by sqln XSQLVAR
// records. Each record carries type, scale, subtype and declared length, two
// pointers (value buffer and 2-byte null indicator) and four explicit-length
// name fields. Layout computes the byte offsets for a given pointer width and
// byte order, and its Encode/Decode methods read and write single records
// without any knowledge of where the bytes live.
//
// A Marshaler builds a native descriptor inside an arena.Arena:
//
//	a := arena.New(0)
//	defer a.Release()
//
//	m := xsqlda.NewMarshaler(a)
//	if err := m.FromManaged(params); err != nil {
//		return err
//	}
//	// pass m.Addr() to isc_dsql_execute2 ...
//	err := m.ToManaged(params)
//
// Value buffers follow the client library conventions: SQL_VARYING values are
// [2-byte length][payload][terminator] in a buffer of sqllen+3 bytes, SQL_TEXT
// values are space padded to sqllen with a trailing terminator, and every
// other type is a zeroed buffer of sqllen+1 bytes.
//
// Resize resets the arena. Set views and column addresses obtained before a
// resize fail with a stale error afterwards instead of aliasing reused memory.
package xsqlda
