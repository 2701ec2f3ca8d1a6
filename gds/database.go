package gds

import (
	"github.com/wippyai/fbnative"
	"github.com/wippyai/fbnative/errors"
	"github.com/wippyai/fbnative/status"
)

// AttachDatabase attaches db to the database at path with the given
// database parameter buffer.
func (s *Session) AttachDatabase(db *DatabaseHandle, path string, dpb []byte) error {
	if db.Valid() {
		return errors.Contract(errors.PhaseCall, "database handle already attached")
	}
	if len(path) > 0xffff || len(dpb) > 0x7fff {
		return errors.InvalidInput(errors.PhaseCall, nil, "path or dpb too long")
	}
	f, err := s.begin("isc_attach_database", s.eps.AttachDatabase)
	if err != nil {
		return err
	}
	pathPtr, err := f.cstring(path)
	if err != nil {
		return err
	}
	dbCell, err := f.cell(0)
	if err != nil {
		return err
	}
	dpbPtr, err := f.bytes(dpb)
	if err != nil {
		return err
	}

	f.call(uintptr(len(path)), pathPtr, dbCell, uintptr(len(dpb)), dpbPtr)
	if err := f.check(db); err != nil {
		return err
	}
	if db.value, err = f.readCell(dbCell); err != nil {
		return err
	}
	return nil
}

// CreateDatabase creates and attaches the database at path. The library
// must export isc_create_database.
func (s *Session) CreateDatabase(db *DatabaseHandle, path string, dpb []byte) error {
	if db.Valid() {
		return errors.Contract(errors.PhaseCall, "database handle already attached")
	}
	f, err := s.begin("isc_create_database", s.eps.CreateDatabase)
	if err != nil {
		return err
	}
	pathPtr, err := f.cstring(path)
	if err != nil {
		return err
	}
	dbCell, err := f.cell(0)
	if err != nil {
		return err
	}
	dpbPtr, err := f.bytes(dpb)
	if err != nil {
		return err
	}

	f.call(uintptr(len(path)), pathPtr, dbCell, uintptr(len(dpb)), dpbPtr, 0)
	if err := f.check(db); err != nil {
		return err
	}
	db.value, err = f.readCell(dbCell)
	return err
}

// DetachDatabase closes the attachment.
func (s *Session) DetachDatabase(db *DatabaseHandle) error {
	return s.handleCall("isc_detach_database", s.eps.DetachDatabase, &db.value, db)
}

// DropDatabase drops the attached database and detaches.
func (s *Session) DropDatabase(db *DatabaseHandle) error {
	return s.handleCall("isc_drop_database", s.eps.DropDatabase, &db.value, db)
}

// handleCall runs fn(status, &handle) and stores the handle value the
// library leaves behind.
func (s *Session) handleCall(name string, fn uintptr, handle *uint32, sink status.Sink) error {
	if *handle == 0 {
		return errors.Contract(errors.PhaseCall, name+" on invalid handle")
	}
	f, err := s.begin(name, fn)
	if err != nil {
		return err
	}
	cell, err := f.cell(*handle)
	if err != nil {
		return err
	}
	f.call(cell)
	if err := f.check(sink); err != nil {
		return err
	}
	*handle, err = f.readCell(cell)
	return err
}

// StartTransaction starts tr on db with the given transaction parameter
// buffer, through isc_start_multiple with a one-entry TEB.
func (s *Session) StartTransaction(tr *TransactionHandle, db *DatabaseHandle, tpb []byte) error {
	if tr.Valid() {
		return errors.Contract(errors.PhaseCall, "transaction already started")
	}
	if !db.Valid() {
		return errors.Contract(errors.PhaseCall, "start transaction on detached database")
	}
	f, err := s.begin("isc_start_multiple", s.eps.StartMultiple)
	if err != nil {
		return err
	}
	trCell, err := f.cell(0)
	if err != nil {
		return err
	}
	dbCell, err := f.cell(db.value)
	if err != nil {
		return err
	}
	tpbPtr, err := f.bytes(tpb)
	if err != nil {
		return err
	}
	teb, err := f.teb(dbCell, tpb, tpbPtr)
	if err != nil {
		return err
	}

	f.call(trCell, 1, teb)
	if err := f.check(tr); err != nil {
		return err
	}
	tr.value, err = f.readCell(trCell)
	return err
}

// teb writes ISC_TEB {isc_db_handle* db; ISC_LONG tpb_len; char* tpb}.
func (f *frame) teb(dbCell uintptr, tpb []byte, tpbPtr uintptr) (uintptr, error) {
	abi := f.s.abi
	lenOff := abi.PtrSize
	tpbOff := fbnative.AlignTo(lenOff+4, abi.PtrSize)
	size := tpbOff + abi.PtrSize

	buf := make([]byte, size)
	abi.PutWord(buf, dbCell)
	abi.Order.PutUint32(buf[lenOff:], uint32(len(tpb)))
	abi.PutWord(buf[tpbOff:], tpbPtr)

	addr, err := f.alloc(size)
	if err != nil {
		return 0, err
	}
	return addr, f.s.scratch.Write(addr, buf)
}

// CommitTransaction commits and ends tr.
func (s *Session) CommitTransaction(tr *TransactionHandle) error {
	return s.handleCall("isc_commit_transaction", s.eps.CommitTransaction, &tr.value, tr)
}

// CommitRetaining commits tr and keeps its context open.
func (s *Session) CommitRetaining(tr *TransactionHandle) error {
	return s.handleCall("isc_commit_retaining", s.eps.CommitRetaining, &tr.value, tr)
}

// RollbackTransaction rolls back and ends tr.
func (s *Session) RollbackTransaction(tr *TransactionHandle) error {
	return s.handleCall("isc_rollback_transaction", s.eps.RollbackTransaction, &tr.value, tr)
}

// RollbackRetaining rolls back tr and keeps its context open.
func (s *Session) RollbackRetaining(tr *TransactionHandle) error {
	return s.handleCall("isc_rollback_retaining", s.eps.RollbackRetaining, &tr.value, tr)
}

// PrepareTransaction runs the first phase of a two-phase commit on tr.
func (s *Session) PrepareTransaction(tr *TransactionHandle) error {
	return s.handleCall("isc_prepare_transaction", s.eps.PrepareTransaction, &tr.value, tr)
}

// PrepareTransaction2 runs the first phase of a two-phase commit, passing
// msg to the coordinator's limbo record.
func (s *Session) PrepareTransaction2(tr *TransactionHandle, msg []byte) error {
	if !tr.Valid() {
		return errors.Contract(errors.PhaseCall, "isc_prepare_transaction2 on invalid handle")
	}
	if len(msg) > 0x7fff {
		return errors.Overflow(errors.PhaseCall, []string{"msg"}, len(msg), 0x7fff)
	}
	f, err := s.begin("isc_prepare_transaction2", s.eps.PrepareTransaction2)
	if err != nil {
		return err
	}
	cell, err := f.cell(tr.value)
	if err != nil {
		return err
	}
	msgPtr, err := f.bytes(msg)
	if err != nil {
		return err
	}
	f.call(cell, uintptr(len(msg)), msgPtr)
	if err := f.check(tr); err != nil {
		return err
	}
	tr.value, err = f.readCell(cell)
	return err
}
