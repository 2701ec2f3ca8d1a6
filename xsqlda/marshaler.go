package xsqlda

import (
	"encoding/binary"
	"fmt"

	"github.com/wippyai/fbnative"
	"github.com/wippyai/fbnative/arena"
	"github.com/wippyai/fbnative/errors"
)

// Option configures a Marshaler.
type Option func(*Marshaler)

// WithFetchTarget marks the descriptor as a fetch target: absent values are
// not pre-marked null because the call fills them in.
func WithFetchTarget() Option {
	return func(m *Marshaler) {
		m.fetch = true
	}
}

// WithForeignMemory lets resync follow sqldata/sqlind pointers that the
// native side set to memory outside the arena.
func WithForeignMemory(mem fbnative.Memory) Option {
	return func(m *Marshaler) {
		m.foreign = mem
	}
}

// Marshaler builds native XSQLDA descriptors inside an arena and syncs them
// back into Descriptor values. It owns the arena's contents: every build
// resets it.
type Marshaler struct {
	arena   *arena.Arena
	layout  Layout
	foreign fbnative.Memory
	set     arena.Ref
	fetch   bool
	built   bool
}

// NewMarshaler creates a marshaler that carves descriptors from a.
func NewMarshaler(a *arena.Arena, opts ...Option) *Marshaler {
	m := &Marshaler{
		arena:  a,
		layout: HostLayout(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Layout returns the layout used for native descriptors.
func (m *Marshaler) Layout() Layout {
	return m.layout
}

// FetchTarget reports whether the marshaler was built in fetch-target mode.
func (m *Marshaler) FetchTarget() bool {
	return m.fetch
}

// Built reports whether a native descriptor currently exists.
func (m *Marshaler) Built() bool {
	return m.built && !m.arena.Released()
}

// allocSet resets the arena and carves a zeroed descriptor for n columns.
func (m *Marshaler) allocSet(n int) ([]byte, error) {
	if n < 0 || n > 0x7fff {
		return nil, errors.InvalidInput(errors.PhaseMarshal, []string{"sqln"},
			fmt.Sprintf("column count %d out of range", n))
	}
	m.arena.Reset()
	m.built = false
	buf, ref, err := m.arena.AllocBytes(m.layout.Length(n))
	if err != nil {
		return nil, err
	}
	m.set = ref
	return buf, nil
}

// FromScratch builds a one-column descriptor, the default probe shape
// before the real column count is known.
func (m *Marshaler) FromScratch() error {
	return m.Resize(1)
}

// Resize discards the current descriptor and builds an empty one with
// sqln = sqld = n. Views and addresses from before the resize go stale.
func (m *Marshaler) Resize(n int16) error {
	buf, err := m.allocSet(int(n))
	if err != nil {
		return err
	}
	if err := m.layout.EncodeHeader(buf, Header{Version: Version1, Sqln: n, Sqld: n}); err != nil {
		return err
	}
	m.built = true
	return nil
}

// FromManaged builds a native descriptor from d. d.Sqln columns are taken
// from d.Vars.
func (m *Marshaler) FromManaged(d *Descriptor) error {
	if d == nil {
		return errors.InvalidInput(errors.PhaseMarshal, nil, "nil descriptor")
	}
	n := int(d.Sqln)
	if n > len(d.Vars) {
		return errors.New(errors.PhaseMarshal, errors.KindInvalidInput).
			Path("sqlvar").
			Detail("sqln %d exceeds %d columns", n, len(d.Vars)).
			Build()
	}
	buf, err := m.allocSet(n)
	if err != nil {
		return err
	}

	version := d.Version
	if version == 0 {
		version = Version1
	}
	if err := m.layout.EncodeHeader(buf, Header{Version: version, Sqln: d.Sqln, Sqld: d.Sqld}); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		v := d.Vars[i]
		if v == nil {
			return errors.InvalidInput(errors.PhaseMarshal, []string{colPath(i)}, "nil column")
		}
		rec, err := m.buildVar(i, v)
		if err != nil {
			return err
		}
		off := m.layout.VarOffset(i)
		if err := m.layout.EncodeVar(buf[off:off+m.layout.VarSize()], rec); err != nil {
			if e, ok := err.(*errors.Error); ok {
				e.Path = append([]string{colPath(i)}, e.Path...)
			}
			return err
		}
	}
	m.built = true
	return nil
}

func colPath(i int) string {
	return fmt.Sprintf("sqlvar[%d]", i)
}

// buildVar carves the value and indicator buffers for one column.
func (m *Marshaler) buildVar(i int, v *Var) (VarRecord, error) {
	rec := VarRecord{
		Type:    v.Type,
		Scale:   v.Scale,
		Subtype: v.Subtype,
		Len:     v.Len,
		Names:   v.names(),
	}
	if v.Len < 0 {
		return rec, errors.InvalidInput(errors.PhaseMarshal, []string{colPath(i), "sqllen"}, "negative length")
	}

	ind, indRef, err := m.arena.AllocBytes(2)
	if err != nil {
		return rec, err
	}
	data, dataRef, err := m.arena.AllocBytes(BufferSize(v.Type, v.Len))
	if err != nil {
		return rec, err
	}

	order := m.layout.Order
	switch {
	case IsVarying(v.Type):
		fillSpaces(data[2 : len(data)-1])
	case IsText(v.Type):
		fillSpaces(data[:len(data)-1])
	}

	if v.Data != nil {
		if len(v.Data) > int(v.Len) {
			return rec, errors.Overflow(errors.PhaseMarshal, []string{colPath(i), "sqldata"}, len(v.Data), int(v.Len))
		}
		k := len(v.Data)
		switch {
		case IsVarying(v.Type):
			order.PutUint16(data, uint16(k))
			copy(data[2:], v.Data)
			data[2+k] = 0
		case IsText(v.Type):
			copy(data, v.Data)
		default:
			if len(data) >= 2 {
				order.PutUint16(data, uint16(k))
			}
			copy(data, v.Data)
		}
		putIndicator(order, ind, IndNotNull)
	} else if !m.fetch {
		putIndicator(order, ind, IndNull)
	}

	if rec.Data, err = m.arena.Addr(dataRef); err != nil {
		return rec, err
	}
	if rec.Ind, err = m.arena.Addr(indRef); err != nil {
		return rec, err
	}
	return rec, nil
}

// putIndicator stores a null flag. The conversion goes through a variable
// because a negative constant cannot be converted to uint16.
func putIndicator(order binary.ByteOrder, b []byte, v int16) {
	order.PutUint16(b, uint16(v))
}

func fillSpaces(b []byte) {
	for i := range b {
		b[i] = ' '
	}
}

// header reads the current native header.
func (m *Marshaler) header() ([]byte, Header, error) {
	if !m.built {
		return nil, Header{}, errors.Contract(errors.PhaseUnmarshal, "descriptor not built")
	}
	buf, err := m.arena.Bytes(m.set)
	if err != nil {
		return nil, Header{}, err
	}
	h, err := m.layout.DecodeHeader(buf)
	return buf, h, err
}

// Addr returns the native address of the descriptor, or 0 if none is built.
func (m *Marshaler) Addr() uintptr {
	if !m.built {
		return 0
	}
	addr, err := m.arena.Addr(m.set)
	if err != nil {
		return 0
	}
	return addr
}

// Sqln returns the declared column count of the native descriptor.
func (m *Marshaler) Sqln() int16 {
	_, h, err := m.header()
	if err != nil {
		return 0
	}
	return h.Sqln
}

// Sqld returns the used column count reported by the last native call.
func (m *Marshaler) Sqld() int16 {
	_, h, err := m.header()
	if err != nil {
		return 0
	}
	return h.Sqld
}

// NeedsResize reports whether the native side reported a column count that
// differs from the declared one, and the count to resize to.
func (m *Marshaler) NeedsResize() (int16, bool) {
	_, h, err := m.header()
	if err != nil {
		return 0, false
	}
	return h.Sqld, h.Sqld != h.Sqln
}

// ToManaged overwrites d with the native descriptor contents. d.Vars is
// resized to sqln entries; existing *Var values are reused in order.
func (m *Marshaler) ToManaged(d *Descriptor) error {
	if d == nil {
		return errors.InvalidInput(errors.PhaseUnmarshal, nil, "nil descriptor")
	}
	if !m.built {
		return errors.Contract(errors.PhaseUnmarshal, "resync before build")
	}
	buf, h, err := m.header()
	if err != nil {
		return err
	}
	n := int(h.Sqln)
	if n < 0 || m.layout.Length(n) > len(buf) {
		return errors.Malformed(errors.PhaseUnmarshal, []string{"sqln"}, "declared count exceeds descriptor")
	}

	vars := make([]*Var, n)
	for i := 0; i < n; i++ {
		off := m.layout.VarOffset(i)
		rec, err := m.layout.DecodeVar(buf[off : off+m.layout.VarSize()])
		if err != nil {
			return err
		}
		v := d.Column(i)
		if v == nil {
			v = &Var{}
		}
		if err := m.syncVar(i, rec, v); err != nil {
			return err
		}
		vars[i] = v
	}

	d.Version = h.Version
	d.Sqln = h.Sqln
	d.Sqld = h.Sqld
	d.Vars = vars
	return nil
}

// ToNewManaged returns a new Descriptor built from the native descriptor.
func (m *Marshaler) ToNewManaged() (*Descriptor, error) {
	d := &Descriptor{}
	if err := m.ToManaged(d); err != nil {
		return nil, err
	}
	return d, nil
}

func (m *Marshaler) syncVar(i int, rec VarRecord, v *Var) error {
	v.Type = rec.Type
	v.Scale = rec.Scale
	v.Subtype = rec.Subtype
	v.Len = rec.Len
	v.setNames(rec.Names)

	null := true
	if rec.Ind != 0 {
		ind, err := m.read(rec.Ind, 2)
		if err != nil {
			return err
		}
		null = int16(m.layout.Order.Uint16(ind)) != IndNotNull
	}
	if null {
		v.Data = nil
		return nil
	}
	if rec.Data == 0 {
		v.Data = []byte{0}
		return nil
	}

	if IsVarying(rec.Type) {
		prefix, err := m.read(rec.Data, 2)
		if err != nil {
			return err
		}
		k := int(int16(m.layout.Order.Uint16(prefix)))
		if k < 0 || k > int(rec.Len) {
			return errors.New(errors.PhaseUnmarshal, errors.KindMalformed).
				Path(colPath(i), "sqldata").
				Value(k).
				Detail("varying length %d outside declared %d", k, rec.Len).
				Build()
		}
		data, err := m.read(rec.Data+2, k)
		if err != nil {
			return err
		}
		v.Data = data
		return nil
	}

	n := int(rec.Len)
	if n < 0 {
		n = 0
	}
	data, err := m.read(rec.Data, n)
	if err != nil {
		return err
	}
	v.Data = data
	return nil
}

// read copies n bytes at addr from the arena, or from foreign memory when
// the address is not an arena address.
func (m *Marshaler) read(addr uintptr, n int) ([]byte, error) {
	if m.arena.Owns(addr) || m.foreign == nil {
		return m.arena.Read(addr, n)
	}
	return m.foreign.Read(addr, n)
}
