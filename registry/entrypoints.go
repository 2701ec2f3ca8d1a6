package registry

import (
	"github.com/wippyai/fbnative/errors"
	"github.com/wippyai/fbnative/loader"
)

// EntryPoints holds the resolved addresses of the client API used by
// fbnative. Optional entry points are zero when the library lacks them.
// Two tables are equal when every address is equal.
type EntryPoints struct {
	AttachDatabase uintptr
	DetachDatabase uintptr
	CreateDatabase uintptr
	DropDatabase   uintptr
	DatabaseInfo   uintptr

	StartMultiple       uintptr
	CommitTransaction   uintptr
	CommitRetaining     uintptr
	RollbackTransaction uintptr
	RollbackRetaining   uintptr
	TransactionInfo     uintptr
	PrepareTransaction  uintptr
	PrepareTransaction2 uintptr

	DSQLAllocateStatement uintptr
	DSQLFreeStatement     uintptr
	DSQLPrepare           uintptr
	DSQLDescribe          uintptr
	DSQLDescribeBind      uintptr
	DSQLExecute           uintptr
	DSQLExecute2          uintptr
	DSQLExecuteImmediate  uintptr
	DSQLExecImmed2        uintptr
	DSQLFetch             uintptr
	DSQLSetCursorName     uintptr
	DSQLSQLInfo           uintptr

	CreateBlob2 uintptr
	OpenBlob2   uintptr
	GetSegment  uintptr
	PutSegment  uintptr
	CloseBlob   uintptr
	CancelBlob  uintptr
	BlobInfo    uintptr
	SeekBlob    uintptr

	VaxInteger   uintptr
	SQLCode      uintptr
	Interpret    uintptr
	SQLInterpret uintptr
}

type symbol struct {
	name     string
	field    func(*EntryPoints) *uintptr
	required bool
}

var symbols = []symbol{
	{"isc_attach_database", func(e *EntryPoints) *uintptr { return &e.AttachDatabase }, true},
	{"isc_detach_database", func(e *EntryPoints) *uintptr { return &e.DetachDatabase }, true},
	{"isc_create_database", func(e *EntryPoints) *uintptr { return &e.CreateDatabase }, false},
	{"isc_drop_database", func(e *EntryPoints) *uintptr { return &e.DropDatabase }, false},
	{"isc_database_info", func(e *EntryPoints) *uintptr { return &e.DatabaseInfo }, false},

	{"isc_start_multiple", func(e *EntryPoints) *uintptr { return &e.StartMultiple }, true},
	{"isc_commit_transaction", func(e *EntryPoints) *uintptr { return &e.CommitTransaction }, true},
	{"isc_commit_retaining", func(e *EntryPoints) *uintptr { return &e.CommitRetaining }, false},
	{"isc_rollback_transaction", func(e *EntryPoints) *uintptr { return &e.RollbackTransaction }, true},
	{"isc_rollback_retaining", func(e *EntryPoints) *uintptr { return &e.RollbackRetaining }, false},
	{"isc_transaction_info", func(e *EntryPoints) *uintptr { return &e.TransactionInfo }, false},
	{"isc_prepare_transaction", func(e *EntryPoints) *uintptr { return &e.PrepareTransaction }, false},
	{"isc_prepare_transaction2", func(e *EntryPoints) *uintptr { return &e.PrepareTransaction2 }, false},

	{"isc_dsql_allocate_statement", func(e *EntryPoints) *uintptr { return &e.DSQLAllocateStatement }, true},
	{"isc_dsql_free_statement", func(e *EntryPoints) *uintptr { return &e.DSQLFreeStatement }, true},
	{"isc_dsql_prepare", func(e *EntryPoints) *uintptr { return &e.DSQLPrepare }, true},
	{"isc_dsql_describe", func(e *EntryPoints) *uintptr { return &e.DSQLDescribe }, true},
	{"isc_dsql_describe_bind", func(e *EntryPoints) *uintptr { return &e.DSQLDescribeBind }, true},
	{"isc_dsql_execute", func(e *EntryPoints) *uintptr { return &e.DSQLExecute }, false},
	{"isc_dsql_execute2", func(e *EntryPoints) *uintptr { return &e.DSQLExecute2 }, true},
	{"isc_dsql_execute_immediate", func(e *EntryPoints) *uintptr { return &e.DSQLExecuteImmediate }, false},
	{"isc_dsql_exec_immed2", func(e *EntryPoints) *uintptr { return &e.DSQLExecImmed2 }, false},
	{"isc_dsql_fetch", func(e *EntryPoints) *uintptr { return &e.DSQLFetch }, true},
	{"isc_dsql_set_cursor_name", func(e *EntryPoints) *uintptr { return &e.DSQLSetCursorName }, false},
	{"isc_dsql_sql_info", func(e *EntryPoints) *uintptr { return &e.DSQLSQLInfo }, false},

	{"isc_create_blob2", func(e *EntryPoints) *uintptr { return &e.CreateBlob2 }, false},
	{"isc_open_blob2", func(e *EntryPoints) *uintptr { return &e.OpenBlob2 }, false},
	{"isc_get_segment", func(e *EntryPoints) *uintptr { return &e.GetSegment }, false},
	{"isc_put_segment", func(e *EntryPoints) *uintptr { return &e.PutSegment }, false},
	{"isc_close_blob", func(e *EntryPoints) *uintptr { return &e.CloseBlob }, false},
	{"isc_cancel_blob", func(e *EntryPoints) *uintptr { return &e.CancelBlob }, false},
	{"isc_blob_info", func(e *EntryPoints) *uintptr { return &e.BlobInfo }, false},
	{"isc_seek_blob", func(e *EntryPoints) *uintptr { return &e.SeekBlob }, false},

	{"isc_vax_integer", func(e *EntryPoints) *uintptr { return &e.VaxInteger }, false},
	{"isc_sqlcode", func(e *EntryPoints) *uintptr { return &e.SQLCode }, false},
	{"fb_interpret", func(e *EntryPoints) *uintptr { return &e.Interpret }, false},
	{"isc_sql_interprete", func(e *EntryPoints) *uintptr { return &e.SQLInterpret }, false},
}

// ResolveEntryPoints looks up every known symbol in lib. A missing required
// symbol fails the whole table.
func ResolveEntryPoints(lib loader.Library) (*EntryPoints, error) {
	var eps EntryPoints
	for _, s := range symbols {
		addr, err := lib.Symbol(s.name)
		if err != nil || addr == 0 {
			if s.required {
				return nil, errors.SymbolMissing(libName(lib), s.name, err)
			}
			continue
		}
		*s.field(&eps) = addr
	}
	return &eps, nil
}

func libName(lib loader.Library) string {
	if n, ok := lib.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "library"
}

// Lookup returns the address stored for a C symbol name.
func (e *EntryPoints) Lookup(name string) (uintptr, bool) {
	for _, s := range symbols {
		if s.name == name {
			addr := *s.field(e)
			return addr, addr != 0
		}
	}
	return 0, false
}

// Each calls fn for every known symbol in table order.
func (e *EntryPoints) Each(fn func(name string, addr uintptr, required bool)) {
	for _, s := range symbols {
		fn(s.name, *s.field(e), s.required)
	}
}

// Missing lists required symbols that are zero.
func (e *EntryPoints) Missing() []string {
	var out []string
	for _, s := range symbols {
		if s.required && *s.field(e) == 0 {
			out = append(out, s.name)
		}
	}
	return out
}

// SymbolNames lists every symbol the table knows, required ones included.
func SymbolNames() []string {
	out := make([]string, len(symbols))
	for i, s := range symbols {
		out[i] = s.name
	}
	return out
}

// RequiredSymbols lists the symbols a library must export.
func RequiredSymbols() []string {
	var out []string
	for _, s := range symbols {
		if s.required {
			out = append(out, s.name)
		}
	}
	return out
}
