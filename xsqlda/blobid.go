package xsqlda

import (
	"encoding/binary"
)

// BlobID is a 64-bit ISC_QUAD blob or array identifier.
type BlobID int64

// BlobIDFromQuad reassembles the 8 quad bytes least significant byte first.
// The result has the same bit pattern on every host.
func BlobIDFromQuad(quad [8]byte) BlobID {
	return BlobID(binary.LittleEndian.Uint64(quad[:]))
}

// QuadFromBlobID is the inverse of BlobIDFromQuad.
func QuadFromBlobID(id BlobID) [8]byte {
	var quad [8]byte
	binary.LittleEndian.PutUint64(quad[:], uint64(id))
	return quad
}

// BlobIDFromValue reads a blob id from a column value of SQL_BLOB,
// SQL_ARRAY or SQL_QUAD type.
func BlobIDFromValue(data []byte) (BlobID, bool) {
	if len(data) < 8 {
		return 0, false
	}
	var quad [8]byte
	copy(quad[:], data)
	return BlobIDFromQuad(quad), true
}
