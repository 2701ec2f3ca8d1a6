package gds

import (
	"io"

	"github.com/wippyai/fbnative/errors"
	"github.com/wippyai/fbnative/status"
	"github.com/wippyai/fbnative/xsqlda"
)

// GDS codes returned by isc_get_segment.
const (
	CodeSegment   = 335544366
	CodeSegstrEOF = 335544367
)

// MaxSegment is the largest segment a single call can move.
const MaxSegment = 0xffff

// OpenBlob opens the blob id for reading within tr.
func (s *Session) OpenBlob(db *DatabaseHandle, tr *TransactionHandle, blob *BlobHandle, id xsqlda.BlobID, bpb []byte) error {
	if blob.Valid() {
		return errors.Contract(errors.PhaseCall, "blob already open")
	}
	f, err := s.begin("isc_open_blob2", s.eps.OpenBlob2)
	if err != nil {
		return err
	}
	dbCell, trCell, blobCell, err := f.blobCells(db, tr)
	if err != nil {
		return err
	}
	quad := xsqlda.QuadFromBlobID(id)
	quadPtr, err := f.bytes(quad[:])
	if err != nil {
		return err
	}
	bpbPtr, err := f.bytes(bpb)
	if err != nil {
		return err
	}

	f.call(dbCell, trCell, blobCell, quadPtr, uintptr(len(bpb)), bpbPtr)
	if err := f.check(blob); err != nil {
		return err
	}
	if blob.value, err = f.readCell(blobCell); err != nil {
		return err
	}
	blob.id = id
	return nil
}

// CreateBlob creates a new blob within tr and opens it for writing. The
// assigned id is available from blob.ID.
func (s *Session) CreateBlob(db *DatabaseHandle, tr *TransactionHandle, blob *BlobHandle, bpb []byte) error {
	if blob.Valid() {
		return errors.Contract(errors.PhaseCall, "blob already open")
	}
	f, err := s.begin("isc_create_blob2", s.eps.CreateBlob2)
	if err != nil {
		return err
	}
	dbCell, trCell, blobCell, err := f.blobCells(db, tr)
	if err != nil {
		return err
	}
	quadPtr, err := f.alloc(8)
	if err != nil {
		return err
	}
	bpbPtr, err := f.bytes(bpb)
	if err != nil {
		return err
	}

	f.call(dbCell, trCell, blobCell, quadPtr, uintptr(len(bpb)), bpbPtr)
	if err := f.check(blob); err != nil {
		return err
	}
	if blob.value, err = f.readCell(blobCell); err != nil {
		return err
	}
	raw, err := s.scratch.Read(quadPtr, 8)
	if err != nil {
		return err
	}
	var quad [8]byte
	copy(quad[:], raw)
	blob.id = xsqlda.BlobIDFromQuad(quad)
	return nil
}

func (f *frame) blobCells(db *DatabaseHandle, tr *TransactionHandle) (dbCell, trCell, blobCell uintptr, err error) {
	if dbCell, err = f.cell(db.value); err != nil {
		return
	}
	if trCell, err = f.cell(tr.value); err != nil {
		return
	}
	blobCell, err = f.cell(0)
	return
}

// GetSegment reads up to size bytes of the next segment. A segment larger
// than size comes back in pieces. At the end of the blob it returns io.EOF.
func (s *Session) GetSegment(blob *BlobHandle, size int) ([]byte, error) {
	if !blob.Valid() {
		return nil, errors.Contract(errors.PhaseCall, "read from closed blob")
	}
	if size <= 0 || size > MaxSegment {
		return nil, errors.InvalidInput(errors.PhaseCall, []string{"size"}, "segment size out of range")
	}
	f, err := s.begin("isc_get_segment", s.eps.GetSegment)
	if err != nil {
		return nil, err
	}
	cell, err := f.cell(blob.value)
	if err != nil {
		return nil, err
	}
	lenPtr, err := f.alloc(2)
	if err != nil {
		return nil, err
	}
	buf, err := f.alloc(size)
	if err != nil {
		return nil, err
	}

	f.call(cell, lenPtr, uintptr(size), buf)
	vec, err := f.vector()
	if err != nil {
		return nil, err
	}
	head, err := status.Decode(vec, s.mem)
	if err != nil {
		return nil, err
	}
	switch {
	case head == nil, head.GDSCode() == CodeSegment:
	case head.GDSCode() == CodeSegstrEOF:
		return nil, io.EOF
	case head.IsWarning():
		blob.AddWarning(head)
	default:
		return nil, head
	}

	n, err := f.readShort(lenPtr)
	if err != nil {
		return nil, err
	}
	if int(n) > size {
		return nil, errors.OutOfBounds(errors.PhaseCall, []string{"actual_length"}, int(n), size)
	}
	return s.scratch.Read(buf, int(n))
}

// PutSegment writes one segment to a blob opened by CreateBlob.
func (s *Session) PutSegment(blob *BlobHandle, data []byte) error {
	if !blob.Valid() {
		return errors.Contract(errors.PhaseCall, "write to closed blob")
	}
	if len(data) > MaxSegment {
		return errors.Overflow(errors.PhaseCall, []string{"segment"}, len(data), MaxSegment)
	}
	f, err := s.begin("isc_put_segment", s.eps.PutSegment)
	if err != nil {
		return err
	}
	cell, err := f.cell(blob.value)
	if err != nil {
		return err
	}
	ptr, err := f.bytes(data)
	if err != nil {
		return err
	}
	f.call(cell, uintptr(len(data)), ptr)
	return f.check(blob)
}

// CloseBlob closes the blob, committing any written segments.
func (s *Session) CloseBlob(blob *BlobHandle) error {
	return s.handleCall("isc_close_blob", s.eps.CloseBlob, &blob.value, blob)
}

// CancelBlob discards a blob opened for writing.
func (s *Session) CancelBlob(blob *BlobHandle) error {
	return s.handleCall("isc_cancel_blob", s.eps.CancelBlob, &blob.value, blob)
}

// Seek modes for SeekBlob.
const (
	SeekStart   = 0
	SeekCurrent = 1
	SeekEnd     = 2
)

// SeekBlob moves the position of a stream blob and returns the new offset.
func (s *Session) SeekBlob(blob *BlobHandle, mode int, offset int32) (int32, error) {
	if !blob.Valid() {
		return 0, errors.Contract(errors.PhaseCall, "seek on closed blob")
	}
	if mode < SeekStart || mode > SeekEnd {
		return 0, errors.InvalidInput(errors.PhaseCall, []string{"mode"}, "unknown seek mode")
	}
	f, err := s.begin("isc_seek_blob", s.eps.SeekBlob)
	if err != nil {
		return 0, err
	}
	cell, err := f.cell(blob.value)
	if err != nil {
		return 0, err
	}
	result, err := f.cell(0)
	if err != nil {
		return 0, err
	}
	f.call(cell, uintptr(mode), uintptr(uint32(offset)), result)
	if err := f.check(blob); err != nil {
		return 0, err
	}
	pos, err := f.readCell(result)
	return int32(pos), err
}
