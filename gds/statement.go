package gds

import (
	"go.uber.org/zap"

	"github.com/wippyai/fbnative/errors"
	"github.com/wippyai/fbnative/xsqlda"
)

// Options for FreeStatement.
const (
	DSQLClose = 1
	DSQLDrop  = 2
)

// FetchEOF is the value isc_dsql_fetch returns at end of cursor.
const FetchEOF = 100

// AllocateStatement allocates stmt on db.
func (s *Session) AllocateStatement(db *DatabaseHandle, stmt *StatementHandle) error {
	if stmt.Valid() {
		return errors.Contract(errors.PhaseCall, "statement already allocated")
	}
	if !db.Valid() {
		return errors.Contract(errors.PhaseCall, "allocate statement on detached database")
	}
	f, err := s.begin("isc_dsql_allocate_statement", s.eps.DSQLAllocateStatement)
	if err != nil {
		return err
	}
	dbCell, err := f.cell(db.value)
	if err != nil {
		return err
	}
	stmtCell, err := f.cell(0)
	if err != nil {
		return err
	}
	f.call(dbCell, stmtCell)
	if err := f.check(stmt); err != nil {
		return err
	}
	stmt.value, err = f.readCell(stmtCell)
	return err
}

// FreeStatement closes the cursor (DSQLClose) or drops the statement
// (DSQLDrop). A dropped statement forgets its descriptors.
func (s *Session) FreeStatement(stmt *StatementHandle, option int) error {
	if option != DSQLClose && option != DSQLDrop {
		return errors.InvalidInput(errors.PhaseCall, []string{"option"}, "expected DSQLClose or DSQLDrop")
	}
	if !stmt.Valid() {
		return errors.Contract(errors.PhaseCall, "free of unallocated statement")
	}
	f, err := s.begin("isc_dsql_free_statement", s.eps.DSQLFreeStatement)
	if err != nil {
		return err
	}
	cell, err := f.cell(stmt.value)
	if err != nil {
		return err
	}
	f.call(cell, uintptr(option))
	if err := f.check(stmt); err != nil {
		return err
	}
	if option == DSQLDrop {
		stmt.value = 0
		stmt.out = nil
		stmt.in = nil
		return nil
	}
	stmt.value, err = f.readCell(cell)
	return err
}

// Prepare prepares sql on stmt within tr and describes its output. The
// first call probes with a one-column descriptor; when the statement has a
// different number of columns the descriptor is resized and described
// again. The described columns are kept on stmt.
func (s *Session) Prepare(tr *TransactionHandle, stmt *StatementHandle, sql string) error {
	if !stmt.Valid() {
		return errors.Contract(errors.PhaseCall, "prepare on unallocated statement")
	}
	if len(sql) > 0xffff {
		return errors.InvalidInput(errors.PhaseCall, []string{"sql"}, "statement text too long")
	}
	f, err := s.begin("isc_dsql_prepare", s.eps.DSQLPrepare)
	if err != nil {
		return err
	}
	trCell, err := f.cell(tr.value)
	if err != nil {
		return err
	}
	stmtCell, err := f.cell(stmt.value)
	if err != nil {
		return err
	}
	sqlPtr, err := f.cstring(sql)
	if err != nil {
		return err
	}

	a := s.newArena()
	defer a.Release()
	m := xsqlda.NewMarshaler(a, xsqlda.WithForeignMemory(s.mem))
	if err := m.FromScratch(); err != nil {
		return err
	}

	f.call(trCell, stmtCell, uintptr(len(sql)), sqlPtr, uintptr(s.dialect), m.Addr())
	if err := f.check(stmt); err != nil {
		return err
	}
	if stmt.value, err = f.readCell(stmtCell); err != nil {
		return err
	}

	if n, ok := m.NeedsResize(); ok {
		s.logger.Debug("resizing output descriptor", zap.Int16("from", m.Sqln()), zap.Int16("to", n))
		if err := m.Resize(n); err != nil {
			return err
		}
		if n > 0 {
			if err := s.describe("isc_dsql_describe", s.eps.DSQLDescribe, stmt, m); err != nil {
				return err
			}
		}
	}

	out, err := m.ToNewManaged()
	if err != nil {
		return err
	}
	stmt.out = out
	return nil
}

// Describe describes the output columns of a prepared statement again.
func (s *Session) Describe(stmt *StatementHandle) (*xsqlda.Descriptor, error) {
	d, err := s.describeAll("isc_dsql_describe", s.eps.DSQLDescribe, stmt)
	if err != nil {
		return nil, err
	}
	stmt.out = d
	return d, nil
}

// DescribeBind describes the input parameters of a prepared statement and
// keeps them on stmt.
func (s *Session) DescribeBind(stmt *StatementHandle) (*xsqlda.Descriptor, error) {
	d, err := s.describeAll("isc_dsql_describe_bind", s.eps.DSQLDescribeBind, stmt)
	if err != nil {
		return nil, err
	}
	stmt.in = d
	return d, nil
}

// describeAll runs the probe/resize/describe loop for one describe entry
// point.
func (s *Session) describeAll(name string, fn uintptr, stmt *StatementHandle) (*xsqlda.Descriptor, error) {
	if !stmt.Valid() {
		return nil, errors.Contract(errors.PhaseCall, name+" on unallocated statement")
	}
	a := s.newArena()
	defer a.Release()
	m := xsqlda.NewMarshaler(a, xsqlda.WithForeignMemory(s.mem))
	if err := m.FromScratch(); err != nil {
		return nil, err
	}
	if err := s.describe(name, fn, stmt, m); err != nil {
		return nil, err
	}
	if n, ok := m.NeedsResize(); ok {
		if err := m.Resize(n); err != nil {
			return nil, err
		}
		if n > 0 {
			if err := s.describe(name, fn, stmt, m); err != nil {
				return nil, err
			}
		}
	}
	return m.ToNewManaged()
}

func (s *Session) describe(name string, fn uintptr, stmt *StatementHandle, m *xsqlda.Marshaler) error {
	f, err := s.begin(name, fn)
	if err != nil {
		return err
	}
	cell, err := f.cell(stmt.value)
	if err != nil {
		return err
	}
	f.call(cell, uintptr(xsqlda.Version1), m.Addr())
	return f.check(stmt)
}

// Execute2 executes stmt within tr. in supplies parameter values and may
// be nil; out receives a singleton result row and may be nil. Both are
// resynced after the call.
func (s *Session) Execute2(tr *TransactionHandle, stmt *StatementHandle, in, out *xsqlda.Descriptor) error {
	if !stmt.Valid() {
		return errors.Contract(errors.PhaseCall, "execute on unallocated statement")
	}
	f, err := s.begin("isc_dsql_execute2", s.eps.DSQLExecute2)
	if err != nil {
		return err
	}
	trCell, err := f.cell(tr.value)
	if err != nil {
		return err
	}
	stmtCell, err := f.cell(stmt.value)
	if err != nil {
		return err
	}

	inArena, outArena := s.newArena(), s.newArena()
	defer inArena.Release()
	defer outArena.Release()
	inM := xsqlda.NewMarshaler(inArena, xsqlda.WithForeignMemory(s.mem))
	outM := xsqlda.NewMarshaler(outArena, xsqlda.WithFetchTarget(), xsqlda.WithForeignMemory(s.mem))
	if in != nil {
		if err := inM.FromManaged(in); err != nil {
			return err
		}
	}
	if out != nil {
		if err := outM.FromManaged(out); err != nil {
			return err
		}
	}

	f.call(trCell, stmtCell, uintptr(s.dialect), inM.Addr(), outM.Addr())
	if err := f.check(stmt); err != nil {
		return err
	}
	if tr.value, err = f.readCell(trCell); err != nil {
		return err
	}
	if in != nil {
		if err := inM.ToManaged(in); err != nil {
			return err
		}
	}
	if out != nil {
		if err := outM.ToManaged(out); err != nil {
			return err
		}
	}
	return nil
}

// Execute executes stmt within tr without a singleton output row, opening
// a cursor for selects. The library must export isc_dsql_execute.
func (s *Session) Execute(tr *TransactionHandle, stmt *StatementHandle, in *xsqlda.Descriptor) error {
	if !stmt.Valid() {
		return errors.Contract(errors.PhaseCall, "execute on unallocated statement")
	}
	f, err := s.begin("isc_dsql_execute", s.eps.DSQLExecute)
	if err != nil {
		return err
	}
	trCell, err := f.cell(tr.value)
	if err != nil {
		return err
	}
	stmtCell, err := f.cell(stmt.value)
	if err != nil {
		return err
	}
	a := s.newArena()
	defer a.Release()
	m := xsqlda.NewMarshaler(a, xsqlda.WithForeignMemory(s.mem))
	if in != nil {
		if err := m.FromManaged(in); err != nil {
			return err
		}
	}

	f.call(trCell, stmtCell, uintptr(s.dialect), m.Addr())
	if err := f.check(stmt); err != nil {
		return err
	}
	tr.value, err = f.readCell(trCell)
	return err
}

// ExecuteImmediate runs sql once without a statement handle. in may be
// nil. The library must export isc_dsql_execute_immediate.
func (s *Session) ExecuteImmediate(db *DatabaseHandle, tr *TransactionHandle, sql string, in *xsqlda.Descriptor) error {
	if len(sql) > 0xffff {
		return errors.InvalidInput(errors.PhaseCall, []string{"sql"}, "statement text too long")
	}
	f, err := s.begin("isc_dsql_execute_immediate", s.eps.DSQLExecuteImmediate)
	if err != nil {
		return err
	}
	dbCell, err := f.cell(db.value)
	if err != nil {
		return err
	}
	trCell, err := f.cell(tr.value)
	if err != nil {
		return err
	}
	sqlPtr, err := f.cstring(sql)
	if err != nil {
		return err
	}
	a := s.newArena()
	defer a.Release()
	m := xsqlda.NewMarshaler(a, xsqlda.WithForeignMemory(s.mem))
	if in != nil {
		if err := m.FromManaged(in); err != nil {
			return err
		}
	}

	f.call(dbCell, trCell, uintptr(len(sql)), sqlPtr, uintptr(s.dialect), m.Addr())
	if err := f.check(db); err != nil {
		return err
	}
	if db.value, err = f.readCell(dbCell); err != nil {
		return err
	}
	tr.value, err = f.readCell(trCell)
	return err
}

// Fetch fetches the next row of stmt's cursor into out. It returns false
// with a nil error at end of cursor.
func (s *Session) Fetch(stmt *StatementHandle, out *xsqlda.Descriptor) (bool, error) {
	if !stmt.Valid() {
		return false, errors.Contract(errors.PhaseCall, "fetch on unallocated statement")
	}
	if out == nil {
		return false, errors.InvalidInput(errors.PhaseCall, []string{"out"}, "fetch needs an output descriptor")
	}
	f, err := s.begin("isc_dsql_fetch", s.eps.DSQLFetch)
	if err != nil {
		return false, err
	}
	cell, err := f.cell(stmt.value)
	if err != nil {
		return false, err
	}
	m := xsqlda.NewMarshaler(s.rowArena(), xsqlda.WithFetchTarget(), xsqlda.WithForeignMemory(s.mem))
	if err := m.FromManaged(out); err != nil {
		return false, err
	}

	ret := f.call(cell, uintptr(xsqlda.Version1), m.Addr())
	if err := f.check(stmt); err != nil {
		return false, err
	}
	if int32(ret) == FetchEOF {
		return false, nil
	}
	if err := m.ToManaged(out); err != nil {
		return false, err
	}
	return true, nil
}

// SetCursorName names the cursor of a prepared select, for use in
// positioned UPDATE and DELETE statements.
func (s *Session) SetCursorName(stmt *StatementHandle, name string) error {
	if !stmt.Valid() {
		return errors.Contract(errors.PhaseCall, "set cursor name on unallocated statement")
	}
	if name == "" || len(name) > 0xffff {
		return errors.InvalidInput(errors.PhaseCall, []string{"name"}, "cursor name empty or too long")
	}
	f, err := s.begin("isc_dsql_set_cursor_name", s.eps.DSQLSetCursorName)
	if err != nil {
		return err
	}
	cell, err := f.cell(stmt.value)
	if err != nil {
		return err
	}
	namePtr, err := f.cstring(name)
	if err != nil {
		return err
	}
	f.call(cell, namePtr, 0)
	return f.check(stmt)
}

// ExecImmed2 runs sql once without a statement handle, like
// ExecuteImmediate, and reads a singleton result row into out. in and out
// may be nil. The library must export isc_dsql_exec_immed2.
func (s *Session) ExecImmed2(db *DatabaseHandle, tr *TransactionHandle, sql string, in, out *xsqlda.Descriptor) error {
	if len(sql) > 0xffff {
		return errors.InvalidInput(errors.PhaseCall, []string{"sql"}, "statement text too long")
	}
	f, err := s.begin("isc_dsql_exec_immed2", s.eps.DSQLExecImmed2)
	if err != nil {
		return err
	}
	dbCell, err := f.cell(db.value)
	if err != nil {
		return err
	}
	trCell, err := f.cell(tr.value)
	if err != nil {
		return err
	}
	sqlPtr, err := f.cstring(sql)
	if err != nil {
		return err
	}

	inArena, outArena := s.newArena(), s.newArena()
	defer inArena.Release()
	defer outArena.Release()
	inM := xsqlda.NewMarshaler(inArena, xsqlda.WithForeignMemory(s.mem))
	outM := xsqlda.NewMarshaler(outArena, xsqlda.WithFetchTarget(), xsqlda.WithForeignMemory(s.mem))
	if in != nil {
		if err := inM.FromManaged(in); err != nil {
			return err
		}
	}
	if out != nil {
		if err := outM.FromManaged(out); err != nil {
			return err
		}
	}

	f.call(dbCell, trCell, uintptr(len(sql)), sqlPtr, uintptr(s.dialect), inM.Addr(), outM.Addr())
	if err := f.check(db); err != nil {
		return err
	}
	if db.value, err = f.readCell(dbCell); err != nil {
		return err
	}
	if tr.value, err = f.readCell(trCell); err != nil {
		return err
	}
	if out != nil {
		return outM.ToManaged(out)
	}
	return nil
}

// ExecuteStatement executes a prepared stmt the way its type asks for:
// procedures through Execute2 with out receiving the result row, anything
// else through Execute.
func (s *Session) ExecuteStatement(tr *TransactionHandle, stmt *StatementHandle, in, out *xsqlda.Descriptor) error {
	typ, err := s.StatementType(stmt)
	if err != nil {
		return err
	}
	if typ == StmtExecProcedure {
		return s.Execute2(tr, stmt, in, out)
	}
	return s.Execute(tr, stmt, in)
}
