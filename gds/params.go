package gds

// Database parameter buffer items.
const (
	DPBVersion1 = 1
	DPBUserName = 28
	DPBPassword = 29
	DPBLcCtype  = 48
	DPBSQLRole  = 60
)

// Transaction parameter buffer items.
const (
	TPBVersion3      = 3
	TPBConsistency   = 1
	TPBConcurrency   = 2
	TPBWait          = 6
	TPBNowait        = 7
	TPBRead          = 8
	TPBWrite         = 9
	TPBReadCommitted = 15
	TPBRecVersion    = 17
)

// ParamBuffer builds a clumplet parameter buffer: a version byte followed
// by items that are either bare tags or tag, length, value.
type ParamBuffer struct {
	buf []byte
}

// NewDPB starts a database parameter buffer.
func NewDPB() *ParamBuffer {
	return &ParamBuffer{buf: []byte{DPBVersion1}}
}

// NewTPB starts a transaction parameter buffer.
func NewTPB() *ParamBuffer {
	return &ParamBuffer{buf: []byte{TPBVersion3}}
}

// Flag appends a tag without a value.
func (p *ParamBuffer) Flag(tag byte) *ParamBuffer {
	p.buf = append(p.buf, tag)
	return p
}

// String appends a tag with a string value. Values longer than 255 bytes
// are truncated.
func (p *ParamBuffer) String(tag byte, v string) *ParamBuffer {
	if len(v) > 255 {
		v = v[:255]
	}
	p.buf = append(p.buf, tag, byte(len(v)))
	p.buf = append(p.buf, v...)
	return p
}

// Bytes returns the encoded buffer.
func (p *ParamBuffer) Bytes() []byte {
	return p.buf
}

// ReadOnlyTPB is a read committed, read-only, waiting transaction.
func ReadOnlyTPB() []byte {
	return NewTPB().Flag(TPBRead).Flag(TPBReadCommitted).Flag(TPBRecVersion).Flag(TPBWait).Bytes()
}
