package gds

// Caller invokes a native function by address with word-sized arguments.
type Caller interface {
	Call(fn uintptr, args ...uintptr) uintptr
}

// CallerFunc adapts a function to the Caller interface.
type CallerFunc func(fn uintptr, args ...uintptr) uintptr

// Call implements Caller.
func (f CallerFunc) Call(fn uintptr, args ...uintptr) uintptr {
	return f(fn, args...)
}
