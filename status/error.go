package status

import (
	"fmt"
	"strings"

	"github.com/wippyai/fbnative/errors"
)

// Error is one node of a decoded status chain. The head of a chain carries
// the code and message reported to callers; later nodes are reachable with
// Next and errors.Unwrap.
type Error struct {
	Tag     int
	Code    int64
	Message string
	next    *Error
}

// NewCodeError creates a node carrying a numeric value.
func NewCodeError(tag int, code int64) *Error {
	return &Error{Tag: tag, Code: code}
}

// NewMessageError creates a node carrying a string.
func NewMessageError(tag int, msg string) *Error {
	return &Error{Tag: tag, Message: msg}
}

// Error implements the error interface. Only the head node is reported.
func (e *Error) Error() string {
	kind := "error"
	if e.IsWarning() {
		kind = "warning"
	}
	if e.Message != "" {
		return fmt.Sprintf("gds %s: %s", kind, e.Message)
	}
	return fmt.Sprintf("gds %s: code %d (tag %d)", kind, e.Code, e.Tag)
}

// Unwrap returns the next node in the chain.
func (e *Error) Unwrap() error {
	if e.next == nil {
		return nil
	}
	return e.next
}

// Next returns the next node in the chain, or nil.
func (e *Error) Next() *Error {
	return e.next
}

// SetNext links n after e.
func (e *Error) SetNext(n *Error) {
	e.next = n
}

// IsWarning reports whether the node was tagged isc_arg_warning.
func (e *Error) IsWarning() bool {
	return e.Tag == ArgWarning
}

// Class implements errors.Classifier.
func (e *Error) Class() errors.Class {
	return errors.ClassNative
}

// Chain returns all nodes from e onward in encounter order.
func (e *Error) Chain() []*Error {
	var out []*Error
	for n := e; n != nil; n = n.next {
		out = append(out, n)
	}
	return out
}

// GDSCode returns the first isc_arg_gds code in the chain, or 0.
func (e *Error) GDSCode() int64 {
	for n := e; n != nil; n = n.next {
		if n.Tag == ArgGDS {
			return n.Code
		}
	}
	return 0
}

// SQLState returns the first isc_arg_sql_state string in the chain.
func (e *Error) SQLState() string {
	for n := e; n != nil; n = n.next {
		if n.Tag == ArgSQLState {
			return n.Message
		}
	}
	return ""
}

// Messages joins every message in the chain, one per line.
func (e *Error) Messages() string {
	var b strings.Builder
	for n := e; n != nil; n = n.next {
		if n.Message == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(n.Message)
	}
	return b.String()
}
