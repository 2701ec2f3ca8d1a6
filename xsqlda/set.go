package xsqlda

import (
	"github.com/wippyai/fbnative/arena"
	"github.com/wippyai/fbnative/errors"
)

// Set is a view of one built native descriptor. It is tied to the arena
// generation it was taken from: after Resize or a rebuild every accessor
// fails with a stale error.
type Set struct {
	m   *Marshaler
	ref arena.Ref
}

// Set returns a view of the current native descriptor.
func (m *Marshaler) Set() (*Set, error) {
	if !m.built {
		return nil, errors.Contract(errors.PhaseUnmarshal, "descriptor not built")
	}
	return &Set{m: m, ref: m.set}, nil
}

func (s *Set) bytes() ([]byte, error) {
	return s.m.arena.Bytes(s.ref)
}

// Valid reports whether the view still refers to live memory.
func (s *Set) Valid() bool {
	_, err := s.bytes()
	return err == nil
}

// Addr returns the native address of the descriptor.
func (s *Set) Addr() (uintptr, error) {
	return s.m.arena.Addr(s.ref)
}

// Header decodes the descriptor header.
func (s *Set) Header() (Header, error) {
	buf, err := s.bytes()
	if err != nil {
		return Header{}, err
	}
	return s.m.layout.DecodeHeader(buf)
}

// Column decodes XSQLVAR i.
func (s *Set) Column(i int) (VarRecord, error) {
	buf, err := s.bytes()
	if err != nil {
		return VarRecord{}, err
	}
	l := s.m.layout
	h, err := l.DecodeHeader(buf)
	if err != nil {
		return VarRecord{}, err
	}
	if i < 0 || i >= int(h.Sqln) {
		return VarRecord{}, errors.OutOfBounds(errors.PhaseUnmarshal, []string{"sqlvar"}, i, int(h.Sqln))
	}
	off := l.VarOffset(i)
	return l.DecodeVar(buf[off : off+l.VarSize()])
}

// ColumnAddr returns the native address of XSQLVAR i.
func (s *Set) ColumnAddr(i int) (uintptr, error) {
	h, err := s.Header()
	if err != nil {
		return 0, err
	}
	if i < 0 || i >= int(h.Sqln) {
		return 0, errors.OutOfBounds(errors.PhaseUnmarshal, []string{"sqlvar"}, i, int(h.Sqln))
	}
	base, err := s.Addr()
	if err != nil {
		return 0, err
	}
	return base + uintptr(s.m.layout.VarOffset(i)), nil
}

// Value returns a copy of the value bytes of column i as the native side
// left them, or nil when the column is null.
func (s *Set) Value(i int) ([]byte, error) {
	rec, err := s.Column(i)
	if err != nil {
		return nil, err
	}
	var v Var
	if err := s.m.syncVar(i, rec, &v); err != nil {
		return nil, err
	}
	return v.Data, nil
}

// Raw returns a copy of column i's whole value buffer, including any length
// prefix, padding and terminator.
func (s *Set) Raw(i int) ([]byte, error) {
	rec, err := s.Column(i)
	if err != nil {
		return nil, err
	}
	if rec.Data == 0 {
		return nil, nil
	}
	return s.m.read(rec.Data, BufferSize(rec.Type, rec.Len))
}
