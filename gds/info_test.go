package gds

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/wippyai/fbnative/errors"
	"github.com/wippyai/fbnative/status"
	"github.com/wippyai/fbnative/xsqlda"
)

// infoCall answers every isc_*_info call from c.info, truncating the way
// the client does when the buffer is too small.
func (c *fakeClient) infoCall(args []uintptr) uintptr {
	c.infoHandle = c.readCell(args[1])
	items := c.read(args[3], int(args[2]))
	var out []byte
	for _, it := range items {
		v, ok := c.info[it]
		if !ok {
			continue
		}
		out = append(out, it, byte(len(v)), byte(len(v)>>8))
		out = append(out, v...)
	}
	out = append(out, InfoEnd)
	if len(out) > int(args[4]) {
		out = []byte{InfoTruncated}
	}
	if err := c.mem.Write(args[5], out); err != nil {
		c.t.Fatal(err)
	}
	return 0
}

func (c *fakeClient) seekBlob(args []uintptr) uintptr {
	off := int32(uint32(args[3]))
	switch int(args[2]) {
	case SeekStart:
		c.blobPos = off
	case SeekCurrent:
		c.blobPos += off
	}
	c.writeCell(args[4], uint32(c.blobPos))
	return 0
}

func (c *fakeClient) execImmed2(args []uintptr) uintptr {
	c.sql = string(c.read(args[4], int(args[3])))
	c.dialect = args[5]
	if args[6] != 0 && args[7] != 0 {
		c.double(args[6], args[7])
	}
	return 0
}

func (c *fakeClient) word(addr uintptr) uintptr {
	return c.abi.Word(c.read(addr, c.abi.PtrSize))
}

func (c *fakeClient) sqlcode(args []uintptr) uintptr {
	code := int32(-1)
	if c.word(args[0]) == status.ArgGDS && c.word(args[0]+uintptr(c.abi.PtrSize)) == codeIOError {
		code = -902
	}
	return uintptr(uint32(code))
}

// interpret renders one status node per call and advances the caller's
// vector pointer past it.
func (c *fakeClient) interpret(args []uintptr) uintptr {
	p := uintptr(c.abi.PtrSize)
	vec := c.word(args[2])
	used := uintptr(2)
	var msg string
	switch c.word(vec) {
	case status.ArgEnd:
		return 0
	case status.ArgGDS:
		msg = fmt.Sprintf("gds code %d", c.word(vec+p))
	case status.ArgCString:
		msg = string(c.read(c.word(vec+2*p), int(c.word(vec+p))))
		used = 3
	case status.ArgString, status.ArgSQLState:
		s, err := c.mem.ReadCString(c.word(vec+p), 256)
		if err != nil {
			c.t.Fatal(err)
		}
		msg = s
	default:
		msg = fmt.Sprintf("arg %d", c.word(vec+p))
	}
	if len(msg) > int(args[1]) {
		c.t.Fatalf("message %q exceeds buffer %d", msg, args[1])
	}
	if err := c.mem.Write(args[0], []byte(msg)); err != nil {
		c.t.Fatal(err)
	}
	next := make([]byte, p)
	c.abi.PutWord(next, vec+used*p)
	if err := c.mem.Write(args[2], next); err != nil {
		c.t.Fatal(err)
	}
	return uintptr(len(msg))
}

func TestVaxInteger(t *testing.T) {
	tests := []struct {
		in   []byte
		want int64
	}{
		{nil, 0},
		{[]byte{0x01}, 1},
		{[]byte{0xff}, -1},
		{[]byte{0x00, 0x20}, 8192},
		{[]byte{0xfe, 0xff, 0xff, 0xff}, -2},
		{[]byte{0x01, 0, 0, 0, 0, 0, 0, 0x01}, 1<<56 | 1},
		{make([]byte, 9), 0},
	}
	for _, tt := range tests {
		if got := VaxInteger(tt.in); got != tt.want {
			t.Errorf("VaxInteger(%x) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseInfo(t *testing.T) {
	items, err := ParseInfo([]byte{
		InfoPageSize, 4, 0, 0x00, 0x20, 0, 0,
		InfoError, 1, 0, 0x07,
		InfoDialect, 1, 0, 3,
		InfoEnd, 0xaa, 0xbb,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 {
		t.Fatalf("items = %+v", items)
	}
	if items[0].Tag != InfoPageSize || items[0].Int() != 8192 {
		t.Errorf("page size item = %+v", items[0])
	}
	if items[1].Tag != InfoError || !bytes.Equal(items[1].Data, []byte{7}) {
		t.Errorf("error item = %+v", items[1])
	}
	if items[2].Int() != 3 {
		t.Errorf("dialect = %d", items[2].Int())
	}

	bad := []struct {
		name string
		buf  []byte
		kind errors.Kind
	}{
		{"truncated", []byte{InfoPageSize, 1, 0, 9, InfoTruncated}, errors.KindOverflow},
		{"no end", []byte{InfoDialect, 1, 0, 3}, errors.KindMalformed},
		{"short length", []byte{InfoDialect, 1}, errors.KindMalformed},
		{"overrun", []byte{InfoDialect, 9, 0, 3, InfoEnd}, errors.KindOutOfBounds},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInfo(tt.buf)
			e, ok := err.(*errors.Error)
			if !ok || e.Kind != tt.kind {
				t.Errorf("err = %v, want kind %s", err, tt.kind)
			}
		})
	}
}

func TestDatabaseInfo(t *testing.T) {
	c := newFakeClient(t)
	c.info = map[byte][]byte{
		InfoPageSize: {0x00, 0x20, 0, 0},
		InfoDialect:  {3},
	}
	s := c.session(t)

	var db DatabaseHandle
	if err := s.AttachDatabase(&db, "employee.fdb", nil); err != nil {
		t.Fatal(err)
	}
	items, err := s.DatabaseInfo(&db, []byte{InfoPageSize, InfoDialect, InfoODSVersion}, 64)
	if err != nil {
		t.Fatal(err)
	}
	if c.infoHandle != fakeDB {
		t.Errorf("info on handle %d", c.infoHandle)
	}
	if len(items) != 2 || items[0].Int() != 8192 || items[1].Int() != 3 {
		t.Fatalf("items = %+v", items)
	}

	_, err = s.DatabaseInfo(&db, []byte{InfoPageSize, InfoDialect}, 4)
	if e, ok := err.(*errors.Error); !ok || e.Kind != errors.KindOverflow {
		t.Errorf("small buffer: %v", err)
	}
}

func TestInfoContracts(t *testing.T) {
	c := newFakeClient(t)
	s := c.session(t)

	var db DatabaseHandle
	if _, err := s.DatabaseInfo(&db, []byte{InfoPageSize}, 16); !errors.IsContract(err) {
		t.Errorf("detached: %v", err)
	}
	var tr TransactionHandle
	if _, err := s.TransactionInfo(&tr, []byte{InfoTraID}, 16); !errors.IsContract(err) {
		t.Errorf("inactive transaction: %v", err)
	}
	if err := s.AttachDatabase(&db, "employee.fdb", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := s.DatabaseInfo(&db, nil, 16); err == nil {
		t.Error("empty item list accepted")
	}
	for _, n := range []int{0, MaxInfoBuffer + 1} {
		if _, err := s.DatabaseInfo(&db, []byte{InfoPageSize}, n); err == nil {
			t.Errorf("buffer of %d accepted", n)
		}
	}
	if c.count("database_info") != 0 {
		t.Errorf("calls = %v", c.calls)
	}
}

func TestStatementTypeDispatch(t *testing.T) {
	c := newFakeClient(t)
	c.columns = []xsqlda.VarRecord{{Type: xsqlda.SQLLong, Len: 4, Names: [4]string{"DOUBLED"}}}
	c.params = []xsqlda.VarRecord{{Type: xsqlda.SQLLong + 1, Len: 4}}
	c.info = map[byte][]byte{InfoSQLStmtType: {StmtExecProcedure, 0, 0, 0}}
	s := c.session(t)

	var db DatabaseHandle
	var tr TransactionHandle
	var stmt StatementHandle
	if err := s.AttachDatabase(&db, "employee.fdb", nil); err != nil {
		t.Fatal(err)
	}
	if err := s.StartTransaction(&tr, &db, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.AllocateStatement(&db, &stmt); err != nil {
		t.Fatal(err)
	}
	if err := s.Prepare(&tr, &stmt, "EXECUTE PROCEDURE DOUBLE(?)"); err != nil {
		t.Fatal(err)
	}

	typ, err := s.StatementType(&stmt)
	if err != nil {
		t.Fatal(err)
	}
	if typ != StmtExecProcedure || c.infoHandle != fakeStmt {
		t.Fatalf("type %d on handle %d", typ, c.infoHandle)
	}
	if c.count("vax_integer") != 1 {
		t.Errorf("isc_vax_integer called %d times", c.count("vax_integer"))
	}

	in, err := s.DescribeBind(&stmt)
	if err != nil {
		t.Fatal(err)
	}
	in.Vars[0].Data = int32Bytes(8)
	out := stmt.Output()
	if err := s.ExecuteStatement(&tr, &stmt, in, out); err != nil {
		t.Fatal(err)
	}
	if c.count("execute2") != 1 || !bytes.Equal(out.Vars[0].Data, int32Bytes(16)) {
		t.Fatalf("procedure result %v after %v", out.Vars[0].Data, c.calls)
	}

	c.info[InfoSQLStmtType] = []byte{StmtSelect, 0, 0, 0}
	if err := s.ExecuteStatement(&tr, &stmt, in, out); err != nil {
		t.Fatal(err)
	}
	if c.count("execute") != 1 || c.count("execute2") != 1 {
		t.Errorf("select dispatched through %v", c.calls)
	}

	delete(c.info, InfoSQLStmtType)
	if _, err := s.StatementType(&stmt); err == nil {
		t.Error("missing stmt type item accepted")
	}
}

func TestSetCursorName(t *testing.T) {
	c := newFakeClient(t)
	s := c.session(t)

	var db DatabaseHandle
	var stmt StatementHandle
	if err := s.SetCursorName(&stmt, "C1"); !errors.IsContract(err) {
		t.Errorf("unallocated: %v", err)
	}
	if err := s.AttachDatabase(&db, "employee.fdb", nil); err != nil {
		t.Fatal(err)
	}
	if err := s.AllocateStatement(&db, &stmt); err != nil {
		t.Fatal(err)
	}
	if err := s.SetCursorName(&stmt, ""); err == nil {
		t.Error("empty name accepted")
	}
	if err := s.SetCursorName(&stmt, "EMP_CURSOR"); err != nil {
		t.Fatal(err)
	}
	if c.cursorName != "EMP_CURSOR" {
		t.Errorf("cursor name = %q", c.cursorName)
	}
}

func TestExecImmed2(t *testing.T) {
	c := newFakeClient(t)
	s := c.session(t)

	var db DatabaseHandle
	var tr TransactionHandle
	if err := s.AttachDatabase(&db, "employee.fdb", nil); err != nil {
		t.Fatal(err)
	}
	if err := s.StartTransaction(&tr, &db, nil); err != nil {
		t.Fatal(err)
	}

	in := xsqlda.NewDescriptor(1)
	in.Vars[0] = &xsqlda.Var{Type: xsqlda.SQLLong + 1, Len: 4, Data: int32Bytes(5)}
	out := xsqlda.NewDescriptor(1)
	out.Vars[0] = &xsqlda.Var{Type: xsqlda.SQLLong, Len: 4}

	const sql = "EXECUTE BLOCK (X INT = ?) RETURNS (Y INT) AS BEGIN Y = X * 2; SUSPEND; END"
	if err := s.ExecImmed2(&db, &tr, sql, in, out); err != nil {
		t.Fatal(err)
	}
	if c.sql != sql || c.dialect != xsqlda.Dialect3 {
		t.Errorf("library saw %q dialect %d", c.sql, c.dialect)
	}
	if !bytes.Equal(out.Vars[0].Data, int32Bytes(10)) {
		t.Errorf("output = %v", out.Vars[0].Data)
	}
	if !db.Valid() || !tr.Valid() {
		t.Error("handles lost after exec_immed2")
	}

	if err := s.ExecImmed2(&db, &tr, "UPDATE T SET X = 1", nil, nil); err != nil {
		t.Fatal(err)
	}
	if c.count("exec_immed2") != 2 {
		t.Errorf("calls = %v", c.calls)
	}
}

func TestBlobSeekAndInfo(t *testing.T) {
	c := newFakeClient(t)
	c.info = map[byte][]byte{InfoBlobTotalLength: {7, 0, 0, 0}}
	s := c.session(t)

	var db DatabaseHandle
	var tr TransactionHandle
	var blob BlobHandle
	if _, err := s.SeekBlob(&blob, SeekStart, 0); !errors.IsContract(err) {
		t.Errorf("seek on closed blob: %v", err)
	}
	if err := s.AttachDatabase(&db, "employee.fdb", nil); err != nil {
		t.Fatal(err)
	}
	if err := s.StartTransaction(&tr, &db, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.OpenBlob(&db, &tr, &blob, 42, nil); err != nil {
		t.Fatal(err)
	}

	items, err := s.BlobInfo(&blob, []byte{InfoBlobTotalLength, InfoBlobNumSegments}, 32)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Tag != InfoBlobTotalLength || items[0].Int() != 7 || c.infoHandle != fakeBlob {
		t.Fatalf("blob info = %+v on handle %d", items, c.infoHandle)
	}

	pos, err := s.SeekBlob(&blob, SeekStart, 128)
	if err != nil || pos != 128 {
		t.Fatalf("seek start = %d, %v", pos, err)
	}
	pos, err = s.SeekBlob(&blob, SeekCurrent, -3)
	if err != nil || pos != 125 {
		t.Fatalf("seek current = %d, %v", pos, err)
	}
	if _, err := s.SeekBlob(&blob, 7, 0); err == nil {
		t.Error("unknown seek mode accepted")
	}
}

func TestPrepareTransaction(t *testing.T) {
	c := newFakeClient(t)
	s := c.session(t)

	var db DatabaseHandle
	var tr TransactionHandle
	if err := s.PrepareTransaction(&tr); !errors.IsContract(err) {
		t.Errorf("inactive: %v", err)
	}
	if err := s.PrepareTransaction2(&tr, nil); !errors.IsContract(err) {
		t.Errorf("inactive: %v", err)
	}
	if err := s.AttachDatabase(&db, "employee.fdb", nil); err != nil {
		t.Fatal(err)
	}
	if err := s.StartTransaction(&tr, &db, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.PrepareTransaction(&tr); err != nil {
		t.Fatal(err)
	}
	if err := s.PrepareTransaction2(&tr, []byte("limbo")); err != nil {
		t.Fatal(err)
	}
	if string(c.prepareMsg) != "limbo" || !tr.Valid() {
		t.Errorf("msg %q, transaction valid %v", c.prepareMsg, tr.Valid())
	}
	if c.count("prepare_transaction") != 1 || c.count("prepare_transaction2") != 1 {
		t.Errorf("calls = %v", c.calls)
	}
}

func TestInterpret(t *testing.T) {
	c := newFakeClient(t)
	s := c.session(t)

	var db DatabaseHandle
	err := s.AttachDatabase(&db, "missing.fdb", nil)
	chain, ok := err.(*status.Error)
	if !ok {
		t.Fatalf("attach error %T", err)
	}
	chain.Chain()[len(chain.Chain())-1].SetNext(status.NewMessageError(status.ArgCString, "node7"))

	msgs, err := s.Interpret(chain)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{fmt.Sprintf("gds code %d", codeIOError), "I/O error during open", "08001", "node7"}
	if len(msgs) != len(want) {
		t.Fatalf("messages = %q", msgs)
	}
	for i := range want {
		if msgs[i] != want[i] {
			t.Errorf("message %d = %q, want %q", i, msgs[i], want[i])
		}
	}

	code, err := s.SQLCode(chain)
	if err != nil || code != -902 {
		t.Errorf("sqlcode = %d, %v", code, err)
	}
	text, err := s.SQLInterpret(-902)
	if err != nil || text != "Unsuccessful execution caused by system error" {
		t.Errorf("sql_interprete = %q, %v", text, err)
	}

	before := len(c.calls)
	if msgs, err := s.Interpret(nil); msgs != nil || err != nil || len(c.calls) != before {
		t.Errorf("nil chain: %v %v", msgs, err)
	}
}
