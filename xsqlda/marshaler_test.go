package xsqlda

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/wippyai/fbnative/arena"
	"github.com/wippyai/fbnative/errors"
)

func newMarshaler(t *testing.T, opts ...Option) (*Marshaler, *arena.Arena) {
	t.Helper()
	a := arena.New(0)
	t.Cleanup(a.Release)
	return NewMarshaler(a, opts...), a
}

func sampleDescriptor() *Descriptor {
	d := NewDescriptor(5)
	*d.Vars[0] = Var{Type: SQLLong + 1, Len: 4, Data: []byte{1, 2, 3, 4}, Name: "ID", Relation: "T", Owner: "SYSDBA", Alias: "ID"}
	*d.Vars[1] = Var{Type: SQLVarying + 1, Len: 20, Data: []byte("hello"), Name: "NAME", Relation: "T"}
	*d.Vars[2] = Var{Type: SQLText, Len: 3, Data: []byte("abc"), Subtype: 0, Alias: "CODE"}
	*d.Vars[3] = Var{Type: SQLInt64 + 1, Scale: -2, Len: 8, Name: "PRICE"}
	*d.Vars[4] = Var{Type: SQLBlob + 1, Subtype: 1, Len: 8, Data: []byte{8, 7, 6, 5, 4, 3, 2, 1}, Name: "NOTES"}
	return d
}

func TestRoundTrip(t *testing.T) {
	m, _ := newMarshaler(t)
	in := sampleDescriptor()
	if err := m.FromManaged(in); err != nil {
		t.Fatal(err)
	}

	out := &Descriptor{}
	if err := m.ToManaged(out); err != nil {
		t.Fatal(err)
	}
	if out.Version != Version1 || out.Sqln != 5 || out.Sqld != 5 {
		t.Fatalf("header = %d/%d/%d", out.Version, out.Sqln, out.Sqld)
	}
	if len(out.Vars) != len(in.Vars) {
		t.Fatalf("got %d vars, want %d", len(out.Vars), len(in.Vars))
	}
	for i, want := range in.Vars {
		got := out.Vars[i]
		if got.Type != want.Type || got.Scale != want.Scale || got.Subtype != want.Subtype || got.Len != want.Len {
			t.Errorf("var %d fields = %+v, want %+v", i, got, want)
		}
		if got.Name != want.Name || got.Relation != want.Relation || got.Owner != want.Owner || got.Alias != want.Alias {
			t.Errorf("var %d names = %q/%q/%q/%q", i, got.Name, got.Relation, got.Owner, got.Alias)
		}
		if (want.Data == nil) != (got.Data == nil) {
			t.Errorf("var %d null = %v, want %v", i, got.Data == nil, want.Data == nil)
		}
		if !bytes.Equal(got.Data, want.Data) {
			t.Errorf("var %d data = %q, want %q", i, got.Data, want.Data)
		}
	}
}

func TestRoundTripIntoExisting(t *testing.T) {
	m, _ := newMarshaler(t)
	if err := m.FromManaged(sampleDescriptor()); err != nil {
		t.Fatal(err)
	}

	d := NewDescriptor(7)
	first := d.Vars[0]
	d.Vars[0].Data = []byte("stale")
	if err := m.ToManaged(d); err != nil {
		t.Fatal(err)
	}
	if len(d.Vars) != 5 || d.Sqln != 5 {
		t.Fatalf("vars = %d, sqln = %d, want 5", len(d.Vars), d.Sqln)
	}
	if d.Vars[0] != first {
		t.Error("existing column was not reused")
	}
	if !bytes.Equal(d.Vars[0].Data, []byte{1, 2, 3, 4}) {
		t.Errorf("column 0 not overwritten: %v", d.Vars[0].Data)
	}
}

func TestVaryingLayout(t *testing.T) {
	m, _ := newMarshaler(t)
	d := NewDescriptor(1)
	*d.Vars[0] = Var{Type: SQLVarying, Len: 8, Data: []byte("abc")}
	if err := m.FromManaged(d); err != nil {
		t.Fatal(err)
	}
	s, err := m.Set()
	if err != nil {
		t.Fatal(err)
	}
	raw, err := s.Raw(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != 8+3 {
		t.Fatalf("buffer size = %d, want 11", len(raw))
	}
	if got := m.Layout().Order.Uint16(raw); got != 3 {
		t.Errorf("length prefix = %d, want 3", got)
	}
	if string(raw[2:5]) != "abc" || raw[5] != 0 {
		t.Errorf("payload = % x", raw)
	}

	out, err := m.ToNewManaged()
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Vars[0].Data) != 3 {
		t.Errorf("stored byte count = %d, want 3", len(out.Vars[0].Data))
	}
}

func TestVaryingEmptyValue(t *testing.T) {
	m, _ := newMarshaler(t)
	d := NewDescriptor(1)
	*d.Vars[0] = Var{Type: SQLVarying + 1, Len: 4, Data: []byte{}}
	if err := m.FromManaged(d); err != nil {
		t.Fatal(err)
	}
	out, err := m.ToNewManaged()
	if err != nil {
		t.Fatal(err)
	}
	if out.Vars[0].Data == nil || len(out.Vars[0].Data) != 0 {
		t.Errorf("empty varying = %v, want non-nil empty", out.Vars[0].Data)
	}
}

func TestTextLayout(t *testing.T) {
	m, _ := newMarshaler(t)
	d := NewDescriptor(1)
	*d.Vars[0] = Var{Type: SQLText + 1, Len: 6, Data: []byte("ab")}
	if err := m.FromManaged(d); err != nil {
		t.Fatal(err)
	}
	s, _ := m.Set()
	raw, err := s.Raw(0)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte("ab    \x00")
	if !bytes.Equal(raw, want) {
		t.Errorf("text buffer = %q, want %q", raw, want)
	}

	out, err := m.ToNewManaged()
	if err != nil {
		t.Fatal(err)
	}
	if string(out.Vars[0].Data) != "ab    " {
		t.Errorf("text value = %q, want space padded", out.Vars[0].Data)
	}
}

func TestGenericLayout(t *testing.T) {
	m, _ := newMarshaler(t)
	d := NewDescriptor(2)
	*d.Vars[0] = Var{Type: SQLShort, Len: 2, Data: []byte{0x34, 0x12}}
	*d.Vars[1] = Var{Type: SQLDouble + 1, Len: 8}
	if err := m.FromManaged(d); err != nil {
		t.Fatal(err)
	}
	s, _ := m.Set()
	raw, _ := s.Raw(0)
	if !bytes.Equal(raw, []byte{0x34, 0x12, 0}) {
		t.Errorf("short buffer = % x", raw)
	}
	raw, _ = s.Raw(1)
	if !bytes.Equal(raw, make([]byte, 9)) {
		t.Errorf("null double buffer = % x, want zeroed", raw)
	}
}

func TestNullFlags(t *testing.T) {
	tests := []struct {
		name  string
		opts  []Option
		ind   int16
		fetch bool
	}{
		{"input", nil, IndNull, false},
		{"fetch target", []Option{WithFetchTarget()}, IndNotNull, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, a := newMarshaler(t, tt.opts...)
			if m.FetchTarget() != tt.fetch {
				t.Fatalf("FetchTarget = %v", m.FetchTarget())
			}
			d := NewDescriptor(1)
			*d.Vars[0] = Var{Type: SQLLong + 1, Len: 4}
			if err := m.FromManaged(d); err != nil {
				t.Fatal(err)
			}
			s, _ := m.Set()
			rec, err := s.Column(0)
			if err != nil {
				t.Fatal(err)
			}
			ind, err := a.Read(rec.Ind, 2)
			if err != nil {
				t.Fatal(err)
			}
			if got := int16(m.Layout().Order.Uint16(ind)); got != tt.ind {
				t.Errorf("indicator = %d, want %d", got, tt.ind)
			}
		})
	}
}

func TestFromManagedErrors(t *testing.T) {
	long := string(bytes.Repeat([]byte("n"), 33))
	tests := []struct {
		name string
		d    *Descriptor
		kind errors.Kind
	}{
		{"nil descriptor", nil, errors.KindInvalidInput},
		{"sqln exceeds vars", &Descriptor{Sqln: 2, Vars: []*Var{{}}}, errors.KindInvalidInput},
		{"payload too long", &Descriptor{Sqln: 1, Sqld: 1, Vars: []*Var{{Type: SQLVarying, Len: 2, Data: []byte("abc")}}}, errors.KindOverflow},
		{"name too long", &Descriptor{Sqln: 1, Sqld: 1, Vars: []*Var{{Type: SQLLong, Len: 4, Owner: long}}}, errors.KindOverflow},
		{"negative length", &Descriptor{Sqln: 1, Sqld: 1, Vars: []*Var{{Type: SQLLong, Len: -1}}}, errors.KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newMarshaler(t)
			err := m.FromManaged(tt.d)
			var e *errors.Error
			if !asError(err, &e) {
				t.Fatalf("error = %v, want *errors.Error", err)
			}
			if e.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", e.Kind, tt.kind)
			}
			if !errors.IsContract(err) {
				t.Errorf("class = %v, want contract", errors.ClassOf(err))
			}
			if m.Built() {
				t.Error("failed build left marshaler built")
			}
		})
	}
}

func TestResyncBeforeBuild(t *testing.T) {
	m, _ := newMarshaler(t)
	d := NewDescriptor(2)
	d.Vars[0].Data = []byte("keep")

	err := m.ToManaged(d)
	if err == nil {
		t.Fatal("resync before build should fail")
	}
	if !errors.IsContract(err) {
		t.Errorf("class = %v, want contract", errors.ClassOf(err))
	}
	if len(d.Vars) != 2 || string(d.Vars[0].Data) != "keep" {
		t.Error("descriptor modified by failed resync")
	}
	if _, err := m.ToNewManaged(); err == nil {
		t.Error("ToNewManaged before build should fail")
	}
	if m.Addr() != 0 || m.Sqln() != 0 {
		t.Error("unbuilt marshaler reports a descriptor")
	}
}

func TestResizeInvalidatesViews(t *testing.T) {
	m, _ := newMarshaler(t)
	if err := m.Resize(2); err != nil {
		t.Fatal(err)
	}
	s, err := m.Set()
	if err != nil {
		t.Fatal(err)
	}
	colAddr, err := s.ColumnAddr(1)
	if err != nil || colAddr == 0 {
		t.Fatalf("ColumnAddr = %#x, %v", colAddr, err)
	}

	if err := m.Resize(4); err != nil {
		t.Fatal(err)
	}
	if s.Valid() {
		t.Fatal("view survived resize")
	}
	if _, err := s.Column(0); err == nil {
		t.Fatal("Column on stale view should fail")
	} else if !errors.IsContract(err) {
		t.Errorf("stale error class = %v", errors.ClassOf(err))
	}
	if _, err := s.Addr(); err == nil {
		t.Error("Addr on stale view should fail")
	}

	fresh, err := m.Set()
	if err != nil {
		t.Fatal(err)
	}
	h, err := fresh.Header()
	if err != nil {
		t.Fatal(err)
	}
	if h != (Header{Version: Version1, Sqln: 4, Sqld: 4}) {
		t.Errorf("header after resize = %+v", h)
	}
}

func TestFromScratch(t *testing.T) {
	m, _ := newMarshaler(t)
	if err := m.FromScratch(); err != nil {
		t.Fatal(err)
	}
	if m.Sqln() != 1 || m.Sqld() != 1 {
		t.Errorf("sqln/sqld = %d/%d, want 1/1", m.Sqln(), m.Sqld())
	}
	d, err := m.ToNewManaged()
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Vars) != 1 || !d.Vars[0].IsNull() {
		t.Errorf("scratch descriptor = %+v", d.Vars)
	}
}

// describe patches the descriptor the way isc_dsql_describe does: it sets
// sqld and fills in column metadata without touching data pointers.
func describe(t *testing.T, m *Marshaler, sqld int16, recs ...VarRecord) {
	t.Helper()
	s, err := m.Set()
	if err != nil {
		t.Fatal(err)
	}
	addr, _ := s.Addr()
	h, _ := s.Header()
	l := m.Layout()

	hdr := make([]byte, l.HeaderSize())
	h.Sqld = sqld
	if err := l.EncodeHeader(hdr, h); err != nil {
		t.Fatal(err)
	}
	if err := m.arena.Write(addr, hdr); err != nil {
		t.Fatal(err)
	}
	for i, rec := range recs {
		if i >= int(h.Sqln) {
			break
		}
		buf := make([]byte, l.VarSize())
		if err := l.EncodeVar(buf, rec); err != nil {
			t.Fatal(err)
		}
		if err := m.arena.Write(addr+uintptr(l.VarOffset(i)), buf); err != nil {
			t.Fatal(err)
		}
	}
}

func TestProbeResizeDescribe(t *testing.T) {
	m, _ := newMarshaler(t)
	if err := m.FromScratch(); err != nil {
		t.Fatal(err)
	}
	cols := []VarRecord{
		{Type: SQLLong + 1, Len: 4, Names: [4]string{"ID", "T", "SYSDBA", "ID"}},
		{Type: SQLVarying + 1, Len: 30, Names: [4]string{"NAME", "T", "SYSDBA", "NAME"}},
		{Type: SQLTimestamp, Len: 8, Names: [4]string{"CREATED", "T", "SYSDBA", "CREATED"}},
	}
	describe(t, m, 3, cols...)

	n, ok := m.NeedsResize()
	if !ok || n != 3 {
		t.Fatalf("NeedsResize = %d, %v, want 3, true", n, ok)
	}
	if err := m.Resize(n); err != nil {
		t.Fatal(err)
	}
	describe(t, m, 3, cols...)
	if _, ok := m.NeedsResize(); ok {
		t.Fatal("NeedsResize after resize")
	}

	d, err := m.ToNewManaged()
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Vars) != 3 {
		t.Fatalf("vars = %d, want 3", len(d.Vars))
	}
	for i, v := range d.Vars {
		if v.Type != cols[i].Type || v.Len != cols[i].Len || v.Name != cols[i].Names[0] {
			t.Errorf("col %d = %+v", i, v)
		}
		if !v.IsNull() {
			t.Errorf("col %d should be null without an indicator", i)
		}
	}
}

func TestNullDataPointerPlaceholder(t *testing.T) {
	m, a := newMarshaler(t)
	d := NewDescriptor(1)
	*d.Vars[0] = Var{Type: SQLLong, Len: 4, Data: []byte{9, 9, 9, 9}}
	if err := m.FromManaged(d); err != nil {
		t.Fatal(err)
	}
	s, _ := m.Set()
	colAddr, _ := s.ColumnAddr(0)
	zero := make([]byte, m.Layout().PtrSize)
	if err := a.Write(colAddr+offSqldata, zero); err != nil {
		t.Fatal(err)
	}

	out, err := m.ToNewManaged()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Vars[0].Data, []byte{0}) {
		t.Errorf("data = %v, want 1-byte placeholder", out.Vars[0].Data)
	}
}

func TestResyncReadsNativeWrites(t *testing.T) {
	m, a := newMarshaler(t, WithFetchTarget())
	d := NewDescriptor(2)
	*d.Vars[0] = Var{Type: SQLVarying + 1, Len: 10}
	*d.Vars[1] = Var{Type: SQLLong + 1, Len: 4}
	if err := m.FromManaged(d); err != nil {
		t.Fatal(err)
	}
	s, _ := m.Set()
	order := m.Layout().Order

	rec0, _ := s.Column(0)
	val := make([]byte, 2+4)
	order.PutUint16(val, 4)
	copy(val[2:], "fire")
	if err := a.Write(rec0.Data, val); err != nil {
		t.Fatal(err)
	}

	rec1, _ := s.Column(1)
	ind := make([]byte, 2)
	putIndicator(order, ind, IndNull)
	if err := a.Write(rec1.Ind, ind); err != nil {
		t.Fatal(err)
	}

	if err := m.ToManaged(d); err != nil {
		t.Fatal(err)
	}
	if string(d.Vars[0].Data) != "fire" {
		t.Errorf("col 0 = %q, want fire", d.Vars[0].Data)
	}
	if !d.Vars[1].IsNull() {
		t.Errorf("col 1 = %v, want null", d.Vars[1].Data)
	}
	if v, err := s.Value(0); err != nil || string(v) != "fire" {
		t.Errorf("Value(0) = %q, %v", v, err)
	}
}

func TestResyncRejectsCorruptVaryingLength(t *testing.T) {
	m, a := newMarshaler(t, WithFetchTarget())
	d := NewDescriptor(1)
	*d.Vars[0] = Var{Type: SQLVarying, Len: 4}
	if err := m.FromManaged(d); err != nil {
		t.Fatal(err)
	}
	s, _ := m.Set()
	rec, _ := s.Column(0)
	prefix := make([]byte, 2)
	binary.NativeEndian.PutUint16(prefix, 50)
	if err := a.Write(rec.Data, prefix); err != nil {
		t.Fatal(err)
	}
	if err := m.ToManaged(d); err == nil {
		t.Fatal("varying length beyond sqllen should fail")
	}
}

func TestBlobID(t *testing.T) {
	quad := [8]byte{1, 2, 3, 4, 5, 6, 7, 8}

	id := BlobIDFromQuad(quad)
	if id != BlobID(0x0807060504030201) {
		t.Errorf("id = %#x, want least significant byte first", id)
	}
	if got := QuadFromBlobID(id); got != quad {
		t.Errorf("round trip = % x", got)
	}
	if got := QuadFromBlobID(1); got != [8]byte{1} {
		t.Errorf("QuadFromBlobID(1) = % x", got)
	}

	if _, ok := BlobIDFromValue([]byte{1, 2}); ok {
		t.Error("short value accepted as blob id")
	}
	v, ok := BlobIDFromValue(quad[:])
	if !ok || v != id {
		t.Errorf("BlobIDFromValue = %#x, %v", v, ok)
	}
}

func TestTypeHelpers(t *testing.T) {
	if BaseType(SQLVarying+1) != SQLVarying || !Nullable(SQLVarying+1) || Nullable(SQLText) {
		t.Error("nullable flag handling")
	}
	if BufferSize(SQLVarying, 10) != 13 || BufferSize(SQLText, 10) != 11 || BufferSize(SQLLong, 4) != 5 {
		t.Error("BufferSize")
	}
	if TypeName(SQLInt64+1) != "INT64" || TypeName(1234) != "UNKNOWN" {
		t.Error("TypeName")
	}
}
