// Package errors provides structured error types for fbnative.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). Kinds are grouped into a Class so callers can separate
// programming-contract violations from native database failures and from
// library load failures:
//
//	ClassContract    resync before build, malformed status vector, bad handle
//	ClassAllocation  arena cannot grow
//	ClassNative      decoded from a status vector (see package status)
//	ClassLoad        no candidate client library could be loaded
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseMarshal, errors.KindInvalidInput).
//		Path("sqlvar[2]", "sqlname").
//		Value(name).
//		Detail("name is %d bytes, limit %d", len(name), 32).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Contract(errors.PhaseUnmarshal, "resync before build")
//	err := errors.OutOfBounds(errors.PhaseRegistry, nil, 7, 4)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
