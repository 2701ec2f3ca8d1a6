package xsqlda

import (
	"github.com/wippyai/fbnative"
	"github.com/wippyai/fbnative/errors"
)

// Header field offsets.
const (
	offVersion = 0
	offSqldaid = 2
	offSqldabc = 12
	offSqln    = 16
	offSqld    = 18
	headerBase = 20
)

// XSQLVAR field offsets before the pointer fields.
const (
	offSqltype    = 0
	offSqlscale   = 2
	offSqlsubtype = 4
	offSqllen     = 6
	offSqldata    = 8
)

// nameGroup is {short length; char name[32]}.
const nameGroup = 2 + MaxNameLength

// Name field indices within an XSQLVAR, in wire order.
const (
	NameField = iota
	RelationField
	OwnerField
	AliasField
	numNames
)

var nameLabels = [numNames]string{"sqlname", "relname", "ownname", "aliasname"}

// Layout computes XSQLDA offsets for one ABI.
type Layout struct {
	fbnative.ABI
}

// HostLayout returns the layout of the running process.
func HostLayout() Layout {
	return Layout{ABI: fbnative.Host()}
}

// HeaderSize is the offset of the first XSQLVAR.
func (l Layout) HeaderSize() int {
	return fbnative.AlignTo(headerBase, l.PtrSize)
}

func (l Layout) offSqlind() int {
	return offSqldata + l.PtrSize
}

func (l Layout) offNames() int {
	return offSqldata + 2*l.PtrSize
}

// VarSize is the size of one XSQLVAR record including trailing padding.
func (l Layout) VarSize() int {
	return fbnative.AlignTo(l.offNames()+numNames*nameGroup, l.PtrSize)
}

// Length is XSQLDA_LENGTH(n).
func (l Layout) Length(n int) int {
	if n < 0 {
		n = 0
	}
	return l.HeaderSize() + n*l.VarSize()
}

// VarOffset is the byte offset of XSQLVAR i from the start of the descriptor.
func (l Layout) VarOffset(i int) int {
	return l.HeaderSize() + i*l.VarSize()
}

// Header is the fixed part of an XSQLDA.
type Header struct {
	Version int16
	Sqln    int16
	Sqld    int16
}

// EncodeHeader writes h into b, which must hold at least HeaderSize bytes.
// sqldaid and sqldabc are left as found.
func (l Layout) EncodeHeader(b []byte, h Header) error {
	if len(b) < l.HeaderSize() {
		return errors.OutOfBounds(errors.PhaseMarshal, []string{"header"}, l.HeaderSize(), len(b))
	}
	l.Order.PutUint16(b[offVersion:], uint16(h.Version))
	l.Order.PutUint16(b[offSqln:], uint16(h.Sqln))
	l.Order.PutUint16(b[offSqld:], uint16(h.Sqld))
	return nil
}

// DecodeHeader reads the fixed part of an XSQLDA.
func (l Layout) DecodeHeader(b []byte) (Header, error) {
	if len(b) < l.HeaderSize() {
		return Header{}, errors.OutOfBounds(errors.PhaseUnmarshal, []string{"header"}, l.HeaderSize(), len(b))
	}
	return Header{
		Version: int16(l.Order.Uint16(b[offVersion:])),
		Sqln:    int16(l.Order.Uint16(b[offSqln:])),
		Sqld:    int16(l.Order.Uint16(b[offSqld:])),
	}, nil
}

// VarRecord is one XSQLVAR as it appears on the wire.
type VarRecord struct {
	Type    int16
	Scale   int16
	Subtype int16
	Len     int16
	Data    uintptr
	Ind     uintptr
	Names   [numNames]string
}

// EncodeVar writes r into b, which must hold at least VarSize bytes.
// Name fields are written with their explicit length and zero filled.
func (l Layout) EncodeVar(b []byte, r VarRecord) error {
	if len(b) < l.VarSize() {
		return errors.OutOfBounds(errors.PhaseMarshal, []string{"sqlvar"}, l.VarSize(), len(b))
	}
	for i, name := range r.Names {
		if len(name) > MaxNameLength {
			return errors.New(errors.PhaseMarshal, errors.KindOverflow).
				Path(nameLabels[i]).
				Value(name).
				Detail("name is %d bytes, limit %d", len(name), MaxNameLength).
				Build()
		}
	}

	l.Order.PutUint16(b[offSqltype:], uint16(r.Type))
	l.Order.PutUint16(b[offSqlscale:], uint16(r.Scale))
	l.Order.PutUint16(b[offSqlsubtype:], uint16(r.Subtype))
	l.Order.PutUint16(b[offSqllen:], uint16(r.Len))
	l.PutWord(b[offSqldata:], r.Data)
	l.PutWord(b[l.offSqlind():], r.Ind)

	off := l.offNames()
	for _, name := range r.Names {
		l.Order.PutUint16(b[off:], uint16(len(name)))
		field := b[off+2 : off+nameGroup]
		n := copy(field, name)
		clear(field[n:])
		off += nameGroup
	}
	return nil
}

// DecodeVar reads one XSQLVAR from b. Name lengths larger than the field
// width are rejected.
func (l Layout) DecodeVar(b []byte) (VarRecord, error) {
	if len(b) < l.VarSize() {
		return VarRecord{}, errors.OutOfBounds(errors.PhaseUnmarshal, []string{"sqlvar"}, l.VarSize(), len(b))
	}
	r := VarRecord{
		Type:    int16(l.Order.Uint16(b[offSqltype:])),
		Scale:   int16(l.Order.Uint16(b[offSqlscale:])),
		Subtype: int16(l.Order.Uint16(b[offSqlsubtype:])),
		Len:     int16(l.Order.Uint16(b[offSqllen:])),
		Data:    l.Word(b[offSqldata:]),
		Ind:     l.Word(b[l.offSqlind():]),
	}
	off := l.offNames()
	for i := range r.Names {
		n := int(int16(l.Order.Uint16(b[off:])))
		if n < 0 || n > MaxNameLength {
			return VarRecord{}, errors.Malformed(errors.PhaseUnmarshal, []string{nameLabels[i]},
				"name length out of range")
		}
		r.Names[i] = string(b[off+2 : off+2+n])
		off += nameGroup
	}
	return r, nil
}
