//go:build windows

package loader

import (
	"golang.org/x/sys/windows"

	"github.com/wippyai/fbnative/errors"
)

func (nativeLoader) Open(name string) (Library, error) {
	handle, err := windows.LoadLibrary(name)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindLoadFailed, err, "LoadLibrary "+name)
	}
	return &nativeLibrary{name: name, handle: handle}, nil
}

type nativeLibrary struct {
	name   string
	handle windows.Handle
}

// Name returns the name the library was opened with.
func (l *nativeLibrary) Name() string {
	return l.name
}

func (l *nativeLibrary) Symbol(name string) (uintptr, error) {
	if l.handle == 0 {
		return 0, errors.Contract(errors.PhaseLoad, "symbol lookup on closed library")
	}
	proc, err := windows.GetProcAddress(l.handle, name)
	if err != nil {
		return 0, errors.Wrap(errors.PhaseLoad, errors.KindNotFound, err, "GetProcAddress "+name)
	}
	return proc, nil
}

func (l *nativeLibrary) Close() error {
	if l.handle == 0 {
		return nil
	}
	err := windows.FreeLibrary(l.handle)
	l.handle = 0
	if err != nil {
		return errors.Wrap(errors.PhaseLoad, errors.KindLoadFailed, err, "FreeLibrary "+l.name)
	}
	return nil
}
