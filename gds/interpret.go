package gds

import (
	"github.com/wippyai/fbnative/errors"
	"github.com/wippyai/fbnative/status"
)

// interpretBuffer is the message buffer handed to fb_interpret and
// isc_sql_interprete.
const interpretBuffer = 1024

// SQLCode returns the legacy SQLCODE the library derives from a status
// chain through isc_sqlcode.
func (s *Session) SQLCode(chain *status.Error) (int32, error) {
	if chain == nil {
		return 0, nil
	}
	f, err := s.begin("isc_sqlcode", s.eps.SQLCode)
	if err != nil {
		return 0, err
	}
	vec, err := f.encodeChain(chain)
	if err != nil {
		return 0, err
	}
	return int32(f.invoke(vec)), nil
}

// Interpret formats a status chain into the library's message texts, one
// per fb_interpret call.
func (s *Session) Interpret(chain *status.Error) ([]string, error) {
	if chain == nil {
		return nil, nil
	}
	f, err := s.begin("fb_interpret", s.eps.Interpret)
	if err != nil {
		return nil, err
	}
	vec, err := f.encodeChain(chain)
	if err != nil {
		return nil, err
	}
	cursor, err := f.alloc(s.abi.PtrSize)
	if err != nil {
		return nil, err
	}
	word := make([]byte, s.abi.PtrSize)
	s.abi.PutWord(word, vec)
	if err := s.scratch.Write(cursor, word); err != nil {
		return nil, err
	}
	buf, err := f.alloc(interpretBuffer)
	if err != nil {
		return nil, err
	}

	// Every message consumes at least one node, so the chain length bounds
	// the loop even if the library never reports the end.
	var out []string
	for range chain.Chain() {
		n := int(int32(f.invoke(buf, interpretBuffer, cursor)))
		if n <= 0 {
			break
		}
		if n > interpretBuffer {
			return out, errors.OutOfBounds(errors.PhaseDecode, []string{"fb_interpret"}, n, interpretBuffer)
		}
		msg, err := s.scratch.Read(buf, n)
		if err != nil {
			return out, err
		}
		out = append(out, string(msg))
	}
	return out, nil
}

// SQLInterpret returns the message text the library has for sqlcode.
func (s *Session) SQLInterpret(sqlcode int16) (string, error) {
	f, err := s.begin("isc_sql_interprete", s.eps.SQLInterpret)
	if err != nil {
		return "", err
	}
	buf, err := f.alloc(interpretBuffer)
	if err != nil {
		return "", err
	}
	f.invoke(uintptr(uint16(sqlcode)), buf, interpretBuffer)
	return s.scratch.ReadCString(buf, interpretBuffer)
}

// encodeChain writes chain back out as a status vector in scratch memory.
func (f *frame) encodeChain(chain *status.Error) (uintptr, error) {
	var vec status.Vector
	for n := chain; n != nil; n = n.Next() {
		switch n.Tag {
		case status.ArgString, status.ArgInterpreted, status.ArgSQLState:
			p, err := f.cstring(n.Message)
			if err != nil {
				return 0, err
			}
			vec = append(vec, uintptr(n.Tag), p)
		case status.ArgCString:
			p, err := f.bytes([]byte(n.Message))
			if err != nil {
				return 0, err
			}
			vec = append(vec, uintptr(n.Tag), uintptr(len(n.Message)), p)
		default:
			vec = append(vec, uintptr(n.Tag), uintptr(n.Code))
		}
	}
	vec = append(vec, status.ArgEnd)

	raw := vec.Encode(f.s.abi)
	addr, err := f.alloc(len(raw))
	if err != nil {
		return 0, err
	}
	return addr, f.s.scratch.Write(addr, raw)
}
