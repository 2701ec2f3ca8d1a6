// Package loader opens native client libraries and resolves their exported
// symbols.
//
// Native returns the platform loader: purego's dlopen family on unix and
// LoadLibrary/GetProcAddress on windows, neither of which needs cgo.
// NewWasm returns a loader for client libraries compiled to WebAssembly and
// run under wazero; its symbols are synthetic addresses that only its own
// Call understands.
package loader
