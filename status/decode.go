package status

import (
	"github.com/wippyai/fbnative"
	"github.com/wippyai/fbnative/errors"
)

// Decode walks vec and returns the chain it describes, or nil on success.
// String arguments are read through mem. A vector that runs out before an
// isc_arg_end tag, or whose last tag is missing its payload, is malformed.
func Decode(vec Vector, mem fbnative.Memory) (*Error, error) {
	var head, tail *Error
	i := 0
	for i < len(vec) {
		tag := int(vec[i])
		i++
		if tag == ArgEnd {
			return head, nil
		}

		var (
			code int64
			msg  string
		)
		switch tag {
		case ArgString, ArgInterpreted, ArgSQLState:
			if i >= len(vec) {
				return nil, truncated(tag, i)
			}
			s, err := mem.ReadCString(vec[i], fbnative.MaxCString)
			if err != nil {
				return nil, errors.Wrap(errors.PhaseDecode, errors.KindMalformed, err, "read status string")
			}
			msg = s
			i++
		case ArgCString:
			if i+1 >= len(vec) {
				return nil, truncated(tag, i)
			}
			n := int(vec[i])
			addr := vec[i+1]
			if n < 0 || n > fbnative.MaxCString {
				return nil, errors.New(errors.PhaseDecode, errors.KindMalformed).
					Path("status", "cstring").
					Value(vec[i]).
					Detail("string length %d exceeds %d", n, fbnative.MaxCString).
					Build()
			}
			i += 2
			if n > 0 {
				raw, err := mem.Read(addr, n)
				if err != nil {
					return nil, errors.Wrap(errors.PhaseDecode, errors.KindMalformed, err, "read status cstring")
				}
				msg = string(raw)
			}
		default:
			// isc_arg_gds, isc_arg_number and any tag not known here
			// carry one numeric word.
			if i >= len(vec) {
				return nil, truncated(tag, i)
			}
			code = int64(int(vec[i]))
			i++
		}

		if code == 0 && msg == "" {
			continue
		}
		var node *Error
		if msg != "" {
			node = NewMessageError(tag, msg)
		} else {
			node = NewCodeError(tag, code)
		}
		if head == nil {
			head = node
		} else {
			tail.SetNext(node)
		}
		tail = node
	}
	return nil, errors.Malformed(errors.PhaseDecode, []string{"status"}, "vector exhausted without isc_arg_end")
}

func truncated(tag, i int) error {
	return errors.New(errors.PhaseDecode, errors.KindMalformed).
		Path("status").
		Value(i).
		Detail("tag %d at slot %d missing its payload", tag, i-1).
		Build()
}
