package status

import (
	"github.com/wippyai/fbnative"
	"github.com/wippyai/fbnative/errors"
)

// VectorLength is ISC_STATUS_LENGTH.
const VectorLength = 20

// Status argument tags.
const (
	ArgEnd         = 0
	ArgGDS         = 1
	ArgString      = 2
	ArgCString     = 3
	ArgNumber      = 4
	ArgInterpreted = 5
	ArgVMS         = 6
	ArgUnix        = 7
	ArgDomain      = 8
	ArgDOS         = 9
	ArgMPEXL       = 10
	ArgMPEXLIPC    = 11
	ArgNextMach    = 15
	ArgNetware     = 16
	ArgWin32       = 17
	ArgWarning     = 18
	ArgSQLState    = 19
)

// Vector is an ISC_STATUS array as native words.
type Vector []uintptr

// NewVector returns a zeroed vector of VectorLength words.
func NewVector() Vector {
	return make(Vector, VectorLength)
}

// Failed reports whether the vector holds an error (status[0] == 1 and
// status[1] != 0), the ISC convention for a failed call.
func (v Vector) Failed() bool {
	return len(v) > 1 && v[0] == ArgGDS && v[1] != 0
}

// Reset zeroes the vector for reuse.
func (v Vector) Reset() {
	clear(v)
}

// ReadVector reads n native words starting at addr.
func ReadVector(mem fbnative.Memory, addr uintptr, n int, abi fbnative.ABI) (Vector, error) {
	if n <= 0 {
		return nil, errors.InvalidInput(errors.PhaseDecode, nil, "vector length must be positive")
	}
	raw, err := mem.Read(addr, n*abi.PtrSize)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindOutOfBounds, err, "read status vector")
	}
	v := make(Vector, n)
	for i := range v {
		v[i] = abi.Word(raw[i*abi.PtrSize:])
	}
	return v, nil
}

// Encode writes v as native words.
func (v Vector) Encode(abi fbnative.ABI) []byte {
	out := make([]byte, len(v)*abi.PtrSize)
	for i, w := range v {
		abi.PutWord(out[i*abi.PtrSize:], w)
	}
	return out
}
