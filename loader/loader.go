package loader

import (
	"runtime"
)

// Library is an opened shared library.
type Library interface {
	// Symbol resolves an exported function by name.
	Symbol(name string) (uintptr, error)
	// Close unloads the library. Symbols resolved from it become invalid.
	Close() error
}

// Loader opens libraries by name or path.
type Loader interface {
	Open(name string) (Library, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(name string) (Library, error)

// Open implements Loader.
func (f LoaderFunc) Open(name string) (Library, error) {
	return f(name)
}

// Native returns the loader for the host platform.
func Native() Loader {
	return nativeLoader{}
}

type nativeLoader struct{}

// DefaultCandidates lists the client library names tried in order when none
// is configured.
func DefaultCandidates() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{"fbclient.dll", "gds32.dll"}
	case "darwin":
		return []string{
			"libfbclient.dylib",
			"/Library/Frameworks/Firebird.framework/Libraries/libfbclient.dylib",
		}
	default:
		return []string{"libfbclient.so.2", "libfbclient.so", "libgds.so"}
	}
}
