//go:build darwin || freebsd || linux

package loader

import (
	"github.com/ebitengine/purego"

	"github.com/wippyai/fbnative/errors"
)

func (nativeLoader) Open(name string) (Library, error) {
	handle, err := purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindLoadFailed, err, "dlopen "+name)
	}
	return &nativeLibrary{name: name, handle: handle}, nil
}

type nativeLibrary struct {
	name   string
	handle uintptr
}

// Name returns the name the library was opened with.
func (l *nativeLibrary) Name() string {
	return l.name
}

func (l *nativeLibrary) Symbol(name string) (uintptr, error) {
	if l.handle == 0 {
		return 0, errors.Contract(errors.PhaseLoad, "symbol lookup on closed library")
	}
	sym, err := purego.Dlsym(l.handle, name)
	if err != nil {
		return 0, errors.Wrap(errors.PhaseLoad, errors.KindNotFound, err, "dlsym "+name)
	}
	return sym, nil
}

func (l *nativeLibrary) Close() error {
	if l.handle == 0 {
		return nil
	}
	err := purego.Dlclose(l.handle)
	l.handle = 0
	if err != nil {
		return errors.Wrap(errors.PhaseLoad, errors.KindLoadFailed, err, "dlclose "+l.name)
	}
	return nil
}
