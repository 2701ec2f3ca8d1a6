package status

import (
	"github.com/wippyai/fbnative"
)

// Sink receives warnings decoded from a call made on behalf of a handle.
type Sink interface {
	AddWarning(w *Error)
}

// WarningList is a Sink that keeps warnings in arrival order. Handles embed it.
type WarningList struct {
	list []*Error
}

// AddWarning implements Sink.
func (w *WarningList) AddWarning(e *Error) {
	w.list = append(w.list, e)
}

// Warnings returns the attached warnings.
func (w *WarningList) Warnings() []*Error {
	return w.list
}

// ClearWarnings drops all attached warnings.
func (w *WarningList) ClearWarnings() {
	w.list = nil
}

// Process decodes vec and raises or attaches the result: a warning chain is
// handed to sink and nil is returned, any other chain is returned as the
// error. A nil sink drops warnings.
func Process(vec Vector, mem fbnative.Memory, sink Sink) error {
	head, err := Decode(vec, mem)
	if err != nil {
		return err
	}
	if head == nil {
		return nil
	}
	if head.IsWarning() {
		if sink != nil {
			sink.AddWarning(head)
		}
		return nil
	}
	return head
}
