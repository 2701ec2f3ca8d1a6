package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseAlloc     Phase = "alloc"     // arena growth
	PhaseMarshal   Phase = "marshal"   // Go to native descriptor
	PhaseUnmarshal Phase = "unmarshal" // native descriptor to Go
	PhaseDecode    Phase = "decode"    // status vector decoding
	PhaseLoad      Phase = "load"      // shared library loading
	PhaseRegistry  Phase = "registry"  // handle table operations
	PhaseCall      Phase = "call"      // native call glue
	PhaseConfig    Phase = "config"    // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	KindAllocation     Kind = "allocation"
	KindContract       Kind = "contract"
	KindMalformed      Kind = "malformed"
	KindOutOfBounds    Kind = "out_of_bounds"
	KindInvalidInput   Kind = "invalid_input"
	KindNotFound       Kind = "not_found"
	KindStale          Kind = "stale"
	KindLoadFailed     Kind = "load_failed"
	KindSymbolMissing  Kind = "symbol_missing"
	KindOverflow       Kind = "overflow"
	KindNotInitialized Kind = "not_initialized"
	KindMismatch       Kind = "mismatch"
	KindCallFailed     Kind = "call_failed"
)

// Class groups kinds by what the caller should do about them.
type Class uint8

const (
	ClassUnknown Class = iota
	// ClassContract signals a programming error; retrying cannot help.
	ClassContract
	// ClassAllocation signals that scratch memory could not grow.
	ClassAllocation
	// ClassNative signals a failure reported by the database itself.
	ClassNative
	// ClassLoad signals that no client library could be loaded.
	ClassLoad
)

func (c Class) String() string {
	switch c {
	case ClassContract:
		return "contract"
	case ClassAllocation:
		return "allocation"
	case ClassNative:
		return "native"
	case ClassLoad:
		return "load"
	default:
		return "unknown"
	}
}

// Error is the structured error type used throughout fbnative
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Class maps the error kind onto its class.
func (e *Error) Class() Class {
	switch e.Kind {
	case KindAllocation:
		return ClassAllocation
	case KindLoadFailed, KindSymbolMissing:
		return ClassLoad
	case KindCallFailed:
		return ClassNative
	default:
		return ClassContract
	}
}

// Classifier is implemented by every error type that knows its class.
type Classifier interface {
	Class() Class
}

// ClassOf returns the class of the first classified error in err's chain.
func ClassOf(err error) Class {
	var c Classifier
	if stderrors.As(err, &c) {
		return c.Class()
	}
	return ClassUnknown
}

// IsContract reports whether err is a programming-contract violation.
func IsContract(err error) bool {
	return ClassOf(err) == ClassContract
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, size int, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes", size),
		Value:  size,
		Cause:  cause,
	}
}

// Contract creates a contract violation error
func Contract(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindContract,
		Detail: detail,
	}
}

// Malformed creates an error for native data that breaks its own format
func Malformed(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMalformed,
		Path:   path,
		Detail: detail,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, limit int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		Detail: fmt.Sprintf("value of %v bytes exceeds limit %d", value, limit),
		Value:  value,
	}
}

// Stale creates an error for a reference that outlived an arena reset
func Stale(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindStale,
		Detail: detail,
	}
}

// NotInitialized creates a not-initialized error
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Path:   path,
		Detail: detail,
	}
}

// LoadFailed creates an error for a library that could not be loaded
// under any of the given names
func LoadFailed(names []string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindLoadFailed,
		Detail: fmt.Sprintf("no client library among [%s]", strings.Join(names, ", ")),
		Value:  names,
		Cause:  cause,
	}
}

// SymbolMissing creates an error for a required entry point that did not resolve
func SymbolMissing(library, symbol string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindSymbolMissing,
		Path:   []string{library},
		Detail: fmt.Sprintf("required symbol %q not exported", symbol),
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
