// Package status decodes ISC status vectors into chained errors.
//
// Every client library call fills a fixed-length vector of native words with
// tagged entries. Decode walks the vector once and links one Error per entry
// that carries a nonzero code or a non-empty message. Process then routes the
// chain: a head tagged isc_arg_warning is attached to a Sink, anything else is
// returned as the call's error.
//
//	vec := status.NewVector()
//	// ... native call writes vec ...
//	if err := status.Process(vec, fbnative.NativeMemory{}, db); err != nil {
//		return err
//	}
package status
