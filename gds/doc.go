// Package gds drives the ISC client API through a resolved entry-point
// table.
//
// A Session owns a scratch arena for status vectors, handle cells and
// parameter blocks, and calls entry points through a Caller. Every call is
// followed by status vector processing: errors are returned, warnings are
// attached to the handle the call was made on.
//
// Statement preparation follows the client library protocol: prepare with a
// one-column output descriptor, and when the library reports more columns,
// resize and describe again before trusting the result.
//
//	sess, err := gds.NewSession(lease)
//	defer sess.Close()
//
//	var db gds.DatabaseHandle
//	err = sess.AttachDatabase(&db, "localhost:employee", dpb)
package gds
