package gds

import (
	"encoding/binary"

	"github.com/wippyai/fbnative/errors"
	"github.com/wippyai/fbnative/status"
)

// Tags shared by every info response.
const (
	InfoEnd       = 1
	InfoTruncated = 2
	InfoError     = 3
)

// Database info items.
const (
	InfoDBID          = 4
	InfoReads         = 5
	InfoWrites        = 6
	InfoPageSize      = 14
	InfoODSVersion    = 32
	InfoDialect       = 62
	InfoFirebirdVer   = 103
	InfoAttachmentID  = 22
	InfoServerVersion = 12
)

// Transaction, statement and blob info items.
const (
	InfoTraID = 4

	InfoSQLStmtType = 21

	InfoBlobNumSegments = 4
	InfoBlobMaxSegment  = 5
	InfoBlobTotalLength = 6
	InfoBlobType        = 7
)

// Statement types reported for InfoSQLStmtType.
const (
	StmtSelect          = 1
	StmtInsert          = 2
	StmtUpdate          = 3
	StmtDelete          = 4
	StmtDDL             = 5
	StmtGetSegment      = 6
	StmtPutSegment      = 7
	StmtExecProcedure   = 8
	StmtStartTrans      = 9
	StmtCommit          = 10
	StmtRollback        = 11
	StmtSelectForUpdate = 12
	StmtSetGenerator    = 13
	StmtSavepoint       = 14
)

// MaxInfoBuffer bounds the item list and result buffer of an info call;
// both lengths travel as a C short.
const MaxInfoBuffer = 0x7fff

// InfoItem is one clumplet of an info response.
type InfoItem struct {
	Tag  byte
	Data []byte
}

// Int decodes Data as a little-endian integer.
func (it InfoItem) Int() int64 { return VaxInteger(it.Data) }

// VaxInteger decodes up to eight little-endian bytes as a signed integer.
// Longer or empty input yields 0.
func VaxInteger(b []byte) int64 {
	if len(b) == 0 || len(b) > 8 {
		return 0
	}
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	shift := 64 - 8*len(b)
	return int64(v<<shift) >> shift
}

// ParseInfo splits an info response into items, stopping at isc_info_end.
// isc_info_error items are returned like any other.
func ParseInfo(buf []byte) ([]InfoItem, error) {
	var items []InfoItem
	for i := 0; i < len(buf); {
		tag := buf[i]
		i++
		switch tag {
		case InfoEnd:
			return items, nil
		case InfoTruncated:
			return items, errors.New(errors.PhaseDecode, errors.KindOverflow).
				Path("info").
				Detail("result buffer too small").
				Build()
		}
		if i+2 > len(buf) {
			return items, errors.Malformed(errors.PhaseDecode, []string{"info"}, "item length cut short")
		}
		n := int(binary.LittleEndian.Uint16(buf[i:]))
		i += 2
		if i+n > len(buf) {
			return items, errors.OutOfBounds(errors.PhaseDecode, []string{"info", "item"}, i+n, len(buf))
		}
		items = append(items, InfoItem{Tag: tag, Data: buf[i : i+n]})
		i += n
	}
	return items, errors.Malformed(errors.PhaseDecode, []string{"info"}, "response ended without isc_info_end")
}

// DatabaseInfo asks isc_database_info for items, with a result buffer of
// bufLen bytes.
func (s *Session) DatabaseInfo(db *DatabaseHandle, items []byte, bufLen int) ([]InfoItem, error) {
	return s.info("isc_database_info", s.eps.DatabaseInfo, db.value, db, items, bufLen)
}

// TransactionInfo asks isc_transaction_info for items.
func (s *Session) TransactionInfo(tr *TransactionHandle, items []byte, bufLen int) ([]InfoItem, error) {
	return s.info("isc_transaction_info", s.eps.TransactionInfo, tr.value, tr, items, bufLen)
}

// SQLInfo asks isc_dsql_sql_info for items about a prepared statement.
func (s *Session) SQLInfo(stmt *StatementHandle, items []byte, bufLen int) ([]InfoItem, error) {
	return s.info("isc_dsql_sql_info", s.eps.DSQLSQLInfo, stmt.value, stmt, items, bufLen)
}

// BlobInfo asks isc_blob_info for items about an open blob.
func (s *Session) BlobInfo(blob *BlobHandle, items []byte, bufLen int) ([]InfoItem, error) {
	return s.info("isc_blob_info", s.eps.BlobInfo, blob.value, blob, items, bufLen)
}

// StatementType reports the StmtXxx type of a prepared statement.
func (s *Session) StatementType(stmt *StatementHandle) (int, error) {
	items, err := s.SQLInfo(stmt, []byte{InfoSQLStmtType}, 16)
	if err != nil {
		return 0, err
	}
	for _, it := range items {
		if it.Tag == InfoSQLStmtType {
			v, err := s.VaxInteger(it.Data)
			return int(v), err
		}
	}
	return 0, errors.NotFound(errors.PhaseDecode, "info item", "isc_info_sql_stmt_type")
}

// VaxInteger decodes b through isc_vax_integer when the library exports it
// and b fits its four-byte limit, and in Go otherwise.
func (s *Session) VaxInteger(b []byte) (int64, error) {
	if s.eps.VaxInteger == 0 || len(b) == 0 || len(b) > 4 {
		return VaxInteger(b), nil
	}
	f, err := s.begin("isc_vax_integer", s.eps.VaxInteger)
	if err != nil {
		return 0, err
	}
	ptr, err := f.bytes(b)
	if err != nil {
		return 0, err
	}
	return int64(int32(f.invoke(ptr, uintptr(len(b))))), nil
}

// info runs one of the isc_*_info calls, which all take
// (status, handle*, short items_len, items, short buf_len, buf).
func (s *Session) info(name string, fn uintptr, handle uint32, sink status.Sink, items []byte, bufLen int) ([]InfoItem, error) {
	if handle == 0 {
		return nil, errors.Contract(errors.PhaseCall, name+" on invalid handle")
	}
	if len(items) == 0 || len(items) > MaxInfoBuffer {
		return nil, errors.InvalidInput(errors.PhaseCall, []string{"items"}, "item list empty or too long")
	}
	if bufLen <= 0 || bufLen > MaxInfoBuffer {
		return nil, errors.Overflow(errors.PhaseCall, []string{"buffer"}, bufLen, MaxInfoBuffer)
	}
	f, err := s.begin(name, fn)
	if err != nil {
		return nil, err
	}
	cell, err := f.cell(handle)
	if err != nil {
		return nil, err
	}
	itemsPtr, err := f.bytes(items)
	if err != nil {
		return nil, err
	}
	buf, err := f.alloc(bufLen)
	if err != nil {
		return nil, err
	}

	f.call(cell, uintptr(len(items)), itemsPtr, uintptr(bufLen), buf)
	if err := f.check(sink); err != nil {
		return nil, err
	}
	raw, err := s.scratch.Read(buf, bufLen)
	if err != nil {
		return nil, err
	}
	return ParseInfo(raw)
}
